// Package report derives spending aggregates from a ledger snapshot. Every
// function is pure: it never mutates the ledger and returns the same result
// for the same input.
package report

import (
	"fmt"
	"sort"
	"time"

	"expensetracker/internal/core"
)

// TopCategoryLimit is how many categories the budget summary lists.
const TopCategoryLimit = 3

// MonthPolicy decides which month the budget comparison looks at.
type MonthPolicy string

const (
	// PolicyLastEntry uses the month of the last dated entry in load order.
	PolicyLastEntry MonthPolicy = "last_entry"
	// PolicyLatest uses the greatest month present in the ledger.
	PolicyLatest MonthPolicy = "latest"
	// PolicyCalendar uses the month of Options.Now.
	PolicyCalendar MonthPolicy = "calendar"
)

// ParseMonthPolicy accepts the policy names; "" selects PolicyLastEntry.
func ParseMonthPolicy(s string) (MonthPolicy, error) {
	switch p := MonthPolicy(s); p {
	case "":
		return PolicyLastEntry, nil
	case PolicyLastEntry, PolicyLatest, PolicyCalendar:
		return p, nil
	default:
		return "", fmt.Errorf("unknown month policy %q", s)
	}
}

// Options tune the budget comparison.
type Options struct {
	Policy MonthPolicy
	// Now is only consulted by PolicyCalendar.
	Now time.Time
}

// Overview bundles everything the spending page shows.
type Overview struct {
	Categories []core.CategoryAmount
	Monthly    []core.PeriodTotal
	Yearly     []core.PeriodTotal
	Budget     core.BudgetReport
}

// Build computes every aggregate for l.
func Build(l core.Ledger, budget core.Money, opts Options) Overview {
	return Overview{
		Categories: CategoryTotals(l),
		Monthly:    MonthlyTotals(l),
		Yearly:     YearlyTotals(l),
		Budget:     CompareBudget(l, budget, opts),
	}
}

// CategoryTotals sums amounts per category label, ordered by label. Entries
// with a missing date still count; entries without a category do not.
func CategoryTotals(l core.Ledger) []core.CategoryAmount {
	return categoryTotals(l.Entries, func(core.Expense) bool { return true })
}

// MonthlyTotals sums amounts per "YYYY-MM", ascending. Undated entries are
// left out.
func MonthlyTotals(l core.Ledger) []core.PeriodTotal {
	return periodTotals(l, core.Date.MonthKey)
}

// YearlyTotals sums amounts per "YYYY", ascending. Undated entries are left
// out.
func YearlyTotals(l core.Ledger) []core.PeriodTotal {
	return periodTotals(l, core.Date.YearKey)
}

// CurrentMonth returns the month the budget comparison applies to, or "" when
// the ledger has no dated entry (PolicyCalendar always yields a month).
func CurrentMonth(l core.Ledger, opts Options) string {
	switch opts.Policy {
	case PolicyCalendar:
		now := opts.Now
		if now.IsZero() {
			now = time.Now()
		}
		return core.DateOf(now).MonthKey()
	case PolicyLatest:
		latest := ""
		for _, e := range l.Entries {
			if m := e.Date.MonthKey(); m > latest {
				latest = m
			}
		}
		return latest
	default:
		for i := len(l.Entries) - 1; i >= 0; i-- {
			if m := l.Entries[i].Date.MonthKey(); m != "" {
				return m
			}
		}
		return ""
	}
}

// CompareBudget compares budget with the spend of the current month.
func CompareBudget(l core.Ledger, budget core.Money, opts Options) core.BudgetReport {
	rep := core.BudgetReport{Budget: budget, Verdict: core.VerdictNoData}
	month := CurrentMonth(l, opts)
	if month == "" {
		return rep
	}
	rep.Month = month

	inMonth := func(e core.Expense) bool { return e.Date.MonthKey() == month }
	for _, e := range l.Entries {
		if inMonth(e) {
			rep.Spent = rep.Spent.Add(e.Amount)
		}
	}
	rep.Leftover = budget.Sub(rep.Spent)

	top := categoryTotals(l.Entries, inMonth)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Amount.Cents > top[j].Amount.Cents
	})
	if len(top) > TopCategoryLimit {
		top = top[:TopCategoryLimit]
	}
	rep.TopCategories = top
	rep.Verdict = Classify(rep.Leftover)
	return rep
}

// Classify maps a signed leftover to a verdict.
func Classify(leftover core.Money) core.Verdict {
	switch {
	case leftover.Cents > 0:
		return core.VerdictWithinBudget
	case leftover.Cents < 0:
		return core.VerdictOverspent
	default:
		return core.VerdictExactBalance
	}
}

func categoryTotals(entries []core.Expense, keep func(core.Expense) bool) []core.CategoryAmount {
	sums := map[string]int64{}
	for _, e := range entries {
		if e.Category == "" || !keep(e) {
			continue
		}
		sums[string(e.Category)] += e.Amount.Cents
	}
	out := make([]core.CategoryAmount, 0, len(sums))
	for name, cents := range sums {
		out = append(out, core.CategoryAmount{Name: name, Amount: core.Money{Cents: cents}})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func periodTotals(l core.Ledger, key func(core.Date) string) []core.PeriodTotal {
	sums := map[string]int64{}
	for _, e := range l.Entries {
		k := key(e.Date)
		if k == "" {
			continue
		}
		sums[k] += e.Amount.Cents
	}
	out := make([]core.PeriodTotal, 0, len(sums))
	for label, cents := range sums {
		out = append(out, core.PeriodTotal{Label: label, Amount: core.Money{Cents: cents}})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}
