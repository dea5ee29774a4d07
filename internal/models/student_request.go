package models

import "time"

// RequestStatus enumerates student-request outcomes.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestIgnored  RequestStatus = "ignored"
)

// StudentRequest is a student's pending petition to join a teacher's roster.
type StudentRequest struct {
	ID             string        `db:"id" json:"id"`
	TeacherID      string        `db:"teacher_id" json:"teacher_id"`
	StudentID      string        `db:"student_id" json:"student_id"`
	Status         RequestStatus `db:"status" json:"status"`
	RequestMessage *string       `db:"request_message" json:"request_message,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// PendingRequest pairs a request with the requesting student's profile for
// teacher-facing listings.
type PendingRequest struct {
	StudentRequest
	Student Student `json:"student"`
}
