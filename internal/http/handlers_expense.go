package http

import (
	"net/http"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/services"
)

type expenseCreatedView struct {
	Ref     string
	Expense core.Expense
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	if b := RequirePOST(r); b != nil {
		b.Write(w)
		return
	}
	if b := ParseFormOrFail(r); b != nil {
		b.Write(w)
		return
	}

	in, err := ParseManualEntry(r.PostForm)
	if err != nil {
		UnprocessableEntityError(validationMessage(err)).Write(w)
		return
	}

	ref, e, err := s.svc.RecordManual(r.Context(), in)
	if err != nil {
		if isValidationError(err) {
			UnprocessableEntityError(validationMessage(err)).Write(w)
			return
		}
		applog.NewStructuredLogger(applog.FromContext(r.Context())).LogError(r.Context(),
			"Failed to save expense", err, applog.OpAppend,
			applog.NewFields().WithExpense(in.Amount.Cents, string(in.Category), services.SourceManual))
		internalError(w, r, "Error saving expense.")
		return
	}

	b := NewHTMXResponse().
		TriggerExpenseCreated(ref, services.SourceManual).
		TriggerFormReset()
	s.render(w, r, b, "expense_created", expenseCreatedView{Ref: ref, Expense: e})
}
