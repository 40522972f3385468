package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// IUPACNucleotideSymbols is the alphabet accepted for DNASequence.Bases, compared case-insensitively.
const IUPACNucleotideSymbols = "ACGTUWSMKRYBDHVN"

var ErrInvalidBases = errors.New("invalid nucleotide symbol")

type DNASequence struct {
	ID          uint      `json:"id,omitempty" gorm:"primaryKey"`
	BenchlingID string    `json:"benchlingId" gorm:"column:benchling_id;uniqueIndex;not null"`
	CreatorID   uint      `json:"-" gorm:"not null"`
	Name        string    `json:"name" gorm:"not null"`
	CreatedAt   time.Time `json:"createdAt" gorm:"autoCreateTime:false;not null"`
	Bases       string    `json:"bases" gorm:"not null"`
	Creator     *User     `json:"creator,omitempty" gorm:"foreignKey:CreatorID"`
}

func (DNASequence) TableName() string { return "dna_sequence" }

// IsIUPAC reports whether r is an IUPAC nucleotide symbol in either case.
func IsIUPAC(r rune) bool {
	return r < utf8.RuneSelf && strings.IndexByte(IUPACNucleotideSymbols, byte(upper(r))) >= 0
}

func upper(r rune) rune {
	if 'a' <= r && r <= 'z' {
		return r - ('a' - 'A')
	}
	return r
}

// ValidateBases rejects any symbol outside the IUPAC nucleotide alphabet. Case is preserved
// by callers; only membership is checked here.
func ValidateBases(bases string) error {
	for i, r := range bases {
		if !IsIUPAC(r) {
			return &ValidationError{
				Field:  "bases",
				Reason: fmt.Sprintf("%q at offset %d", r, i),
				err:    ErrInvalidBases,
			}
		}
	}
	return nil
}

// Validate checks a sequence submitted for creation, including its creator reference.
func (s DNASequence) Validate() error {
	if s.BenchlingID == "" {
		return &ValidationError{Field: "benchlingId", Reason: "is required"}
	}
	if utf8.RuneCountInString(s.BenchlingID) > maxBenchlingIDLength {
		return &ValidationError{Field: "benchlingId", Reason: "must be at most 16 characters"}
	}
	if utf8.RuneCountInString(s.Name) > maxNameLength {
		return &ValidationError{Field: "name", Reason: "must be at most 70 characters"}
	}
	if s.CreatedAt.IsZero() {
		return &ValidationError{Field: "createdAt", Reason: "is required"}
	}
	if err := ValidateBases(s.Bases); err != nil {
		return err
	}
	if s.Creator == nil {
		return &ValidationError{Field: "creator", Reason: "is required"}
	}
	if err := s.Creator.Validate(); err != nil {
		return prefixed("creator", err)
	}
	return nil
}

// ValidateSequences validates every element and reports the first failure with its index.
func ValidateSequences(sequences []DNASequence) error {
	for i, s := range sequences {
		if err := s.Validate(); err != nil {
			return prefixed(fmt.Sprintf("[%d]", i), err)
		}
	}
	return nil
}

// ValidateUsers validates every element and reports the first failure with its index.
func ValidateUsers(users []User) error {
	for i, u := range users {
		if err := u.Validate(); err != nil {
			return prefixed(fmt.Sprintf("[%d]", i), err)
		}
	}
	return nil
}
