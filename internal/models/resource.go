package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ResourceFile is a single attachment inside a resource.
type ResourceFile struct {
	Type  string `json:"type"` // exercise | exam | pdf | video
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ResourceFiles stores the attachment list as a jsonb column.
type ResourceFiles []ResourceFile

// Value implements driver.Valuer.
func (f ResourceFiles) Value() (driver.Value, error) {
	if f == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(f)
}

// Scan implements sql.Scanner.
func (f *ResourceFiles) Scan(src interface{}) error {
	if src == nil {
		*f = nil
		return nil
	}
	raw, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("unsupported resource files type %T", src)
	}
	return json.Unmarshal(raw, f)
}

// Resource groups course material files under a title.
type Resource struct {
	ID        string        `db:"id" json:"id"`
	CourseID  string        `db:"course_id" json:"course_id"`
	Title     string        `db:"title" json:"title"`
	Files     ResourceFiles `db:"files" json:"files"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
}
