package models

import "time"

// BookingStatus enumerates the lifecycle states of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// Valid reports whether the status is a known lifecycle state.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted:
		return true
	}
	return false
}

// bookingTransitions is the explicit transition table. Anything absent here
// is an illegal transition; in particular completed and cancelled are
// terminal, so a completed booking can never be resurrected to pending.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCompleted, BookingCancelled},
}

// CanTransitionTo reports whether the status may legally move to next.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Booking references a teacher, identifies a student and holds one slot
// label. At most one booking whose status is not cancelled may exist per
// (teacher_id, slot_label) pair; the store enforces this with a partial
// unique index.
type Booking struct {
	ID          string        `db:"id" json:"id"`
	TeacherID   string        `db:"teacher_id" json:"teacher_id"`
	StudentID   *string       `db:"student_id" json:"student_id,omitempty"`
	StudentName string        `db:"student_name" json:"student_name"`
	SlotLabel   string        `db:"slot_label" json:"slot_label"`
	Status      BookingStatus `db:"status" json:"status"`
	MeetingLink *string       `db:"meeting_link" json:"meeting_link,omitempty"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// Active reports whether the booking currently holds its slot.
func (b *Booking) Active() bool {
	return b.Status != BookingCancelled
}

// StudentRefKind tags the two ways a booking can identify its student.
type StudentRefKind string

const (
	StudentRefLinked StudentRefKind = "linked"
	StudentRefNamed  StudentRefKind = "named"
)

// StudentRef is the resolved student identity of a booking: either a linked
// Student record or a free-text name fallback. Consumers must switch on Kind
// rather than assume a profile exists.
type StudentRef struct {
	Kind         StudentRefKind `json:"kind"`
	StudentID    string         `json:"student_id,omitempty"`
	Name         string         `json:"name"`
	ProfileImage string         `json:"profile_image,omitempty"`
}

// LinkedStudent builds a reference backed by a student record.
func LinkedStudent(s *Student) StudentRef {
	return StudentRef{
		Kind:         StudentRefLinked,
		StudentID:    s.ID,
		Name:         s.Name,
		ProfileImage: s.ProfileImage,
	}
}

// NamedStudent builds a free-text fallback reference.
func NamedStudent(name string) StudentRef {
	if name == "" {
		name = "Unknown Student"
	}
	return StudentRef{Kind: StudentRefNamed, Name: name}
}

// BookingView is a booking with its student reference resolved for
// presentation.
type BookingView struct {
	Booking
	Student StudentRef `json:"student"`
}
