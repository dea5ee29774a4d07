package models

import "time"

// FavoriteTeacher marks a teacher a student keeps on their "my teachers"
// list. The pair is unique per student.
type FavoriteTeacher struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// FavoriteTeacherView resolves the favorite with the teacher profile.
type FavoriteTeacherView struct {
	FavoriteTeacher
	Teacher Teacher `json:"teacher"`
}
