package http

import (
	"errors"
	"net/url"
	"testing"

	"expensetracker/internal/core"
)

func TestParseManualEntry(t *testing.T) {
	tests := []struct {
		name      string
		form      url.Values
		wantErr   error
		wantField string
		want      core.Expense
	}{
		{
			name: "full form",
			form: url.Values{"description": {" Dinner for two "}, "amount": {"450.5"}, "date": {"2024-02-29"}, "category": {"Food"}},
			want: core.Expense{Date: core.NewDate(2024, 2, 29), Amount: core.Money{Cents: 45050}, Description: " Dinner for two ", Category: core.Food},
		},
		{
			name: "grouped amount",
			form: url.Values{"amount": {"1,500"}, "category": {"rent"}},
			want: core.Expense{Amount: core.Money{Cents: 150000}, Category: core.Rent},
		},
		{
			name: "grouped amount with decimals",
			form: url.Values{"amount": {"20,000.00"}, "category": {"rent"}},
			want: core.Expense{Amount: core.Money{Cents: 2000000}, Category: core.Rent},
		},
		{
			name:      "comma in decimals",
			form:      url.Values{"amount": {"12.5,0"}, "category": {"food"}},
			wantErr:   core.ErrInvalidAmount,
			wantField: "amount",
		},
		{
			name: "empty date left for the service",
			form: url.Values{"amount": {"10"}, "category": {"rent"}},
			want: core.Expense{Amount: core.Money{Cents: 1000}, Category: core.Rent},
		},
		{
			name:      "bad amount",
			form:      url.Values{"amount": {"ten"}, "category": {"food"}},
			wantErr:   core.ErrInvalidAmount,
			wantField: "amount",
		},
		{
			name:      "negative amount",
			form:      url.Values{"amount": {"-1"}, "category": {"food"}},
			wantErr:   core.ErrInvalidAmount,
			wantField: "amount",
		},
		{
			name:      "bad date",
			form:      url.Values{"amount": {"1"}, "date": {"yesterday"}, "category": {"food"}},
			wantErr:   core.ErrInvalidDate,
			wantField: "date",
		},
		{
			name:      "unknown category",
			form:      url.Values{"amount": {"1"}, "category": {"misc"}},
			wantErr:   core.ErrInvalidCategory,
			wantField: "category",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseManualEntry(tt.form)
			if tt.wantErr != nil {
				var fe *FieldError
				if !errors.As(err, &fe) || fe.Field != tt.wantField || !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %s/%v", err, tt.wantField, tt.wantErr)
				}
				if !isValidationError(err) {
					t.Error("should be classified as validation error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			e := core.Expense{Date: got.Date, Amount: got.Amount, Description: got.Description, Category: got.Category}
			if e != tt.want {
				t.Errorf("got %+v, want %+v", e, tt.want)
			}
		})
	}
}

func TestParseBudget(t *testing.T) {
	def := core.Money{Cents: 2000000}

	if got, err := ParseBudget(url.Values{}, def); err != nil || got != def {
		t.Errorf("default = %v, %v", got, err)
	}
	if got, err := ParseBudget(url.Values{"budget": {"1500.25"}}, def); err != nil || got.Cents != 150025 {
		t.Errorf("explicit = %v, %v", got, err)
	}
	if got, err := ParseBudget(url.Values{"budget": {"20,000"}}, def); err != nil || got.Cents != 2000000 {
		t.Errorf("grouped = %v, %v", got, err)
	}
	if _, err := ParseBudget(url.Values{"budget": {"lots"}}, def); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("invalid err = %v", err)
	}
}

func TestValidationMessage(t *testing.T) {
	if validationMessage(core.ErrInvalidCategory) != "Invalid category." {
		t.Error("category message")
	}
	if isValidationError(errors.New("disk full")) {
		t.Error("storage errors are not validation errors")
	}
}
