package ledger

import (
	"errors"
	"strings"
	"time"

	"expensetracker/internal/core"
)

// Column names of the persisted table, in order.
const (
	ColDate        = "Date"
	ColAmount      = "Amount"
	ColDescription = "Description"
	ColCategory    = "Category"
)

var (
	ErrUnparsableDate   = errors.New("unparsable date")
	ErrUnparsableAmount = errors.New("unparsable amount")
)

// dateLayouts are tried in order when reading a stored date. Slash dates
// with the year last are month first.
var dateLayouts = []string{
	core.DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
}

// Header returns the header row of the persisted table.
func Header() []string {
	return []string{ColDate, ColAmount, ColDescription, ColCategory}
}

// IsHeader reports whether fields is the header row. A leading UTF-8 BOM is
// ignored.
func IsHeader(fields []string) bool {
	if len(fields) == 0 {
		return false
	}
	first := strings.TrimPrefix(fields[0], "\ufeff")
	return strings.EqualFold(strings.TrimSpace(first), ColDate)
}

// EncodeRow formats e as a table row.
func EncodeRow(e core.Expense) []string {
	return []string{e.Date.String(), e.Amount.Decimal(), e.Description, string(e.Category)}
}

// DecodeRow turns a table row into an expense. Rows shorter than the header
// are padded. Values that cannot be parsed are coerced (missing date, zero
// amount) and reported through the returned error; the expense is usable
// either way.
func DecodeRow(fields []string) (core.Expense, error) {
	get := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}

	var errs []error
	e := core.Expense{
		Description: get(2),
		Category:    core.Category(strings.TrimSpace(get(3))),
	}

	d, err := ParseDate(get(0))
	if err != nil {
		errs = append(errs, err)
	}
	e.Date = d

	if raw := strings.TrimSpace(get(1)); raw != "" {
		cents, err := core.ParseDecimalToCents(raw)
		if err != nil {
			errs = append(errs, ErrUnparsableAmount)
		} else {
			e.Amount = core.Money{Cents: cents}
		}
	}

	return e, errors.Join(errs...)
}

// ParseDate parses a stored date. An empty value is a missing date without
// error; anything unparsable is a missing date with ErrUnparsableDate.
func ParseDate(s string) (core.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Date{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.DateOf(t), nil
		}
	}
	return core.Date{}, ErrUnparsableDate
}
