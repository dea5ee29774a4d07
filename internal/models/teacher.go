package models

import (
	"time"

	"github.com/lib/pq"
)

// Teacher represents a bookable instructor profile.
//
// Availability is a list of opaque slot labels (e.g. "Mon 10:00") owned and
// mutated only by the teacher. Labels carry no duration or timezone; slot
// uniqueness and booking conflicts compare by exact string equality.
type Teacher struct {
	ID           string         `db:"id" json:"id"`
	Name         string         `db:"name" json:"name"`
	Subject      string         `db:"subject" json:"subject"`
	Thumbnail    *string        `db:"thumbnail" json:"thumbnail,omitempty"`
	Tags         pq.StringArray `db:"tags" json:"tags"`
	Color        *string        `db:"color" json:"color,omitempty"`
	Availability pq.StringArray `db:"availability" json:"availability"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// HasSlot reports whether the slot label appears in the teacher's current
// availability list.
func (t *Teacher) HasSlot(slotLabel string) bool {
	for _, slot := range t.Availability {
		if slot == slotLabel {
			return true
		}
	}
	return false
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	Search    string
	Subject   string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// TeacherSettings is the durable per-teacher settings record. The legacy
// implementation kept these in process memory; they are persisted keyed by
// teacher id so they survive restarts and multiple instances.
type TeacherSettings struct {
	TeacherID   string    `db:"teacher_id" json:"teacher_id"`
	MeetingLink string    `db:"meeting_link" json:"meeting_link"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
