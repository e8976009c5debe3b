package http

// This file holds the parsing and validation of form and query input.

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"expensetracker/internal/core"
	"expensetracker/internal/ledger"
	"expensetracker/internal/services"
)

// FieldError names the form field that failed validation.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// ParseManualEntry reads the manual entry form. An empty date is left zero
// so the service fills in today.
func ParseManualEntry(form url.Values) (services.ManualEntry, error) {
	var in services.ManualEntry

	in.Description = form.Get("description")

	cents, err := core.ParseDecimalToCents(strings.TrimSpace(form.Get("amount")))
	if err != nil {
		return in, &FieldError{Field: "amount", Err: core.ErrInvalidAmount}
	}
	in.Amount = core.Money{Cents: cents}

	if v := strings.TrimSpace(form.Get("date")); v != "" {
		d, err := ledger.ParseDate(v)
		if err != nil || d.IsEmpty() {
			return in, &FieldError{Field: "date", Err: core.ErrInvalidDate}
		}
		in.Date = d
	}

	cat, err := core.ParseCategory(form.Get("category"))
	if err != nil {
		return in, &FieldError{Field: "category", Err: err}
	}
	in.Category = cat

	return in, nil
}

// ParseBudget reads the budget query parameter, falling back to def when it
// is absent.
func ParseBudget(query url.Values, def core.Money) (core.Money, error) {
	v := strings.TrimSpace(query.Get("budget"))
	if v == "" {
		return def, nil
	}
	cents, err := core.ParseDecimalToCents(v)
	if err != nil {
		return core.Money{}, &FieldError{Field: "budget", Err: core.ErrInvalidAmount}
	}
	return core.Money{Cents: cents}, nil
}

// validationMessage turns a validation error into user text.
func validationMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		return "Invalid amount: enter a non-negative number with up to two decimals."
	case errors.Is(err, core.ErrInvalidCategory):
		return "Invalid category."
	case errors.Is(err, core.ErrInvalidDate):
		return "Invalid date: use YYYY-MM-DD."
	default:
		return "Invalid data."
	}
}

func isValidationError(err error) bool {
	return errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrInvalidCategory) ||
		errors.Is(err, core.ErrInvalidDate)
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequirePOST is a convenience function for POST-only handlers.
func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

// ParseFormOrFail parses the request form and returns an error response on failure.
// Returns nil on success.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Malformed request")
	}
	return nil
}
