package core

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// PeriodTotal is the spend for one month ("YYYY-MM") or year ("YYYY") label.
type PeriodTotal struct {
	Label  string
	Amount Money
}

// Verdict classifies the leftover of a budget comparison.
type Verdict string

const (
	VerdictWithinBudget Verdict = "within_budget"
	VerdictOverspent    Verdict = "overspent"
	VerdictExactBalance Verdict = "exact_balance"
	VerdictNoData       Verdict = "no_data"
)

// BudgetReport compares a monthly budget with the spend of the current month.
type BudgetReport struct {
	Month         string
	Budget        Money
	Spent         Money
	Leftover      Money // signed
	TopCategories []CategoryAmount
	Verdict       Verdict
}

// Message returns the user-facing verdict text.
func (v Verdict) Message() string {
	switch v {
	case VerdictWithinBudget:
		return "You're within budget. Great time to save or invest!"
	case VerdictOverspent:
		return "Overspent this month. Consider adjusting next month's budget."
	case VerdictExactBalance:
		return "Perfect balance."
	default:
		return "No expense data available to generate suggestions."
	}
}
