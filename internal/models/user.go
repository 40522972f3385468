package models

import "unicode/utf8"

const (
	maxBenchlingIDLength = 16
	maxNameLength        = 70
	maxHandleLength      = 16
)

// User is the creator of one or more DNA sequences. BenchlingID is the natural key;
// ID is assigned by the database and never used for matching.
type User struct {
	ID          uint   `json:"id,omitempty" gorm:"primaryKey"`
	BenchlingID string `json:"benchlingId" gorm:"column:benchling_id;uniqueIndex;not null"`
	Name        string `json:"name" gorm:"not null"`
	Handle      string `json:"handle" gorm:"not null"`
}

func (User) TableName() string { return "user" }

// Validate checks the fields a caller must supply before a user is persisted.
func (u User) Validate() error {
	if u.BenchlingID == "" {
		return &ValidationError{Field: "benchlingId", Reason: "is required"}
	}
	if utf8.RuneCountInString(u.BenchlingID) > maxBenchlingIDLength {
		return &ValidationError{Field: "benchlingId", Reason: "must be at most 16 characters"}
	}
	if utf8.RuneCountInString(u.Name) > maxNameLength {
		return &ValidationError{Field: "name", Reason: "must be at most 70 characters"}
	}
	if utf8.RuneCountInString(u.Handle) > maxHandleLength {
		return &ValidationError{Field: "handle", Reason: "must be at most 16 characters"}
	}
	return nil
}
