package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Groceries Category = "groceries"
	Food      Category = "food"
	Travel    Category = "travel"
	Bill      Category = "bill"
	Rent      Category = "rent"
	Other     Category = "other"
)

// DateLayout is the textual form used when persisting dates.
const DateLayout = "2006-01-02"

type (
	// Category is one of the fixed expense classifications. Loaded records
	// may carry any trimmed label; only manual entry enforces the set.
	Category string

	// Date is a calendar date. The zero value marks a date that was missing
	// or could not be parsed.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Expense struct {
		Date        Date
		Amount      Money
		Description string
		Category    Category
	}

	// Ledger is a snapshot of every persisted expense in insertion order.
	Ledger struct {
		Entries []Expense
	}
)

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidCategory = errors.New("invalid category")
)

// Categories lists the accepted categories in form display order.
func Categories() []Category {
	return []Category{Groceries, Food, Travel, Bill, Rent, Other}
}

// ParseCategory normalizes s and checks it against the fixed set.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", ErrInvalidCategory
	}
	return c, nil
}

func (c Category) Valid() bool {
	switch c {
	case Groceries, Food, Travel, Bill, Rent, Other:
		return true
	default:
		return false
	}
}

func (c Category) String() string {
	return string(c)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// IsEmpty reports whether the date is missing.
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// MonthKey returns the "YYYY-MM" partition, or "" for a missing date.
func (d Date) MonthKey() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01")
}

// YearKey returns the "YYYY" partition, or "" for a missing date.
func (d Date) YearKey() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006")
}

// String formats the date as DateLayout; a missing date formats as "".
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Validate checks a record before it is appended to the ledger.
func (e Expense) Validate() error {
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if !e.Category.Valid() {
		return ErrInvalidCategory
	}
	return nil
}

// Len returns the number of entries.
func (l Ledger) Len() int {
	return len(l.Entries)
}

// IsEmpty reports whether the ledger has no entries.
func (l Ledger) IsEmpty() bool {
	return len(l.Entries) == 0
}
