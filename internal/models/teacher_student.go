package models

import "time"

// TeacherStudent is an active link between a teacher and a student. The
// number of links per teacher is capped; the cap is checked atomically with
// link creation.
type TeacherStudent struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// StudentNote is a teacher's dated note attached to a roster link.
type StudentNote struct {
	ID      string    `db:"id" json:"id"`
	LinkID  string    `db:"link_id" json:"link_id"`
	Content string    `db:"content" json:"content"`
	NotedAt time.Time `db:"noted_at" json:"noted_at"`
}

// RosterEntry is a roster link resolved with the student profile, the
// teacher's notes and the student's booking history with this teacher.
type RosterEntry struct {
	TeacherStudent
	Student Student       `json:"student"`
	Notes   []StudentNote `json:"notes"`
	History []Booking     `json:"history"`
}
