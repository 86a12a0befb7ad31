package domain

import "time"

// LoanType decides how long a book may stay out.
type LoanType int

const (
	LoanType10Days LoanType = 1
	LoanType5Days  LoanType = 2
	LoanType2Days  LoanType = 3
)

// Duration returns the maximum loan duration for the type.
func (t LoanType) Duration() time.Duration {
	switch t {
	case LoanType10Days:
		return 10 * 24 * time.Hour
	case LoanType5Days:
		return 5 * 24 * time.Hour
	case LoanType2Days:
		return 2 * 24 * time.Hour
	}
	return 0
}

func (t LoanType) Valid() bool {
	return t >= LoanType10Days && t <= LoanType2Days
}

// ParseLoanType validates the wire value (1, 2 or 3).
func ParseLoanType(v int) (LoanType, bool) {
	t := LoanType(v)
	return t, t.Valid()
}

// Category is the fixed genre set a book belongs to.
type Category string

const (
	CategorySciFi     Category = "Science Fiction"
	CategoryHorror    Category = "Horror"
	CategoryRomance   Category = "Romance"
	CategoryMystery   Category = "Mystery"
	CategoryFantasy   Category = "Fantasy"
	CategoryBiography Category = "Biography"
	CategoryHistory   Category = "History"
	CategoryComedy    Category = "Comedy"
)

var categories = []Category{
	CategorySciFi, CategoryHorror, CategoryRomance, CategoryMystery,
	CategoryFantasy, CategoryBiography, CategoryHistory, CategoryComedy,
}

func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory validates the wire value against the fixed genre set.
func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	return c, c.Valid()
}

// Categories returns the full genre set, for validation messages.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}
