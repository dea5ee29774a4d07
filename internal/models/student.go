package models

import "time"

// Student represents a learner profile.
type Student struct {
	ID                 string    `db:"id" json:"id"`
	Name               string    `db:"name" json:"name"`
	RegistrationNumber string    `db:"registration_number" json:"registration_number"`
	ProfileImage       string    `db:"profile_image" json:"profile_image"`
	// Grade is set at creation and immutable afterwards.
	Grade     string    `db:"grade" json:"grade"`
	Bio       string    `db:"bio" json:"bio"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
