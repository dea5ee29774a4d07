package models

import (
	"time"

	"github.com/lib/pq"
)

// Course is a catalog entry taught by a teacher.
type Course struct {
	ID           string         `db:"id" json:"id"`
	Title        string         `db:"title" json:"title"`
	Subject      string         `db:"subject" json:"subject"`
	Description  string         `db:"description" json:"description"`
	InstructorID string         `db:"instructor_id" json:"instructor_id"`
	Thumbnail    *string        `db:"thumbnail" json:"thumbnail,omitempty"`
	Tags         pq.StringArray `db:"tags" json:"tags"`
	Color        *string        `db:"color" json:"color,omitempty"`
	Progress     int            `db:"progress" json:"progress"`
	StartDate    *time.Time     `db:"start_date" json:"start_date,omitempty"`
	EndDate      *time.Time     `db:"end_date" json:"end_date,omitempty"`
	NextLesson   *time.Time     `db:"next_lesson" json:"next_lesson,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}
