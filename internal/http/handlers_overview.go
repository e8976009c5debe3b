package http

import (
	"net/http"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
)

type overviewView struct {
	BudgetInput   string
	CategoryChart Chart
	MonthlyChart  Chart
	YearlyChart   Chart
	Budget        core.BudgetReport
	HasData       bool
	VerdictClass  string
	Message       string
}

func verdictClass(v core.Verdict) string {
	switch v {
	case core.VerdictWithinBudget:
		return "success"
	case core.VerdictOverspent:
		return "warning"
	case core.VerdictExactBalance:
		return "info"
	default:
		return "warning"
	}
}

// handleOverview reloads the ledger and renders charts plus the budget
// summary.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	if b := RequireMethod(r, http.MethodGet); b != nil {
		b.Write(w)
		return
	}

	budget, err := ParseBudget(r.URL.Query(), s.defaultBudget)
	if err != nil {
		UnprocessableEntityError("Invalid budget: enter a non-negative number.").Write(w)
		return
	}

	ctx := r.Context()
	ov, err := s.svc.Overview(ctx, budget)
	if err != nil {
		applog.NewStructuredLogger(applog.FromContext(ctx)).LogError(ctx,
			"Failed to load overview", err, applog.OpLoad, nil)
		internalError(w, r, "Could not load expenses.")
		return
	}

	s.render(w, r, NewHTMXResponse(), "overview.html", overviewView{
		BudgetInput:   budget.Decimal(),
		CategoryChart: PieChart(ov.Categories),
		MonthlyChart:  BarChart(ov.Monthly),
		YearlyChart:   LineChart(ov.Yearly),
		Budget:        ov.Budget,
		HasData:       ov.Budget.Verdict != core.VerdictNoData,
		VerdictClass:  verdictClass(ov.Budget.Verdict),
		Message:       ov.Budget.Verdict.Message(),
	})
}
