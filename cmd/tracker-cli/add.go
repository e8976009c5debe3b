package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"expensetracker/internal/core"
	"expensetracker/internal/ledger"
	"expensetracker/internal/services"
)

func newAddCmd(s *session) *cobra.Command {
	var amount, description, category, date string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an expense",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cents, err := core.ParseDecimalToCents(strings.TrimSpace(amount))
			if err != nil {
				return fmt.Errorf("--amount: %w", core.ErrInvalidAmount)
			}
			cat, err := core.ParseCategory(category)
			if err != nil {
				return fmt.Errorf("--category: %w (one of %v)", err, core.Categories())
			}
			in := services.ManualEntry{
				Amount:      core.Money{Cents: cents},
				Description: description,
				Category:    cat,
			}
			if strings.TrimSpace(date) != "" {
				d, err := ledger.ParseDate(date)
				if err != nil || d.IsEmpty() {
					return fmt.Errorf("--date: %w", core.ErrInvalidDate)
				}
				in.Date = d
			}

			ref, e, err := s.service().RecordManual(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Expense saved successfully! %s %s %s %s\n",
				ref, e.Date, e.Amount.FormatRupees(), e.Category)
			return nil
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "amount in rupees, e.g. 12.50")
	cmd.Flags().StringVar(&description, "description", "", "free-form description")
	cmd.Flags().StringVar(&category, "category", string(core.Other), "expense category")
	cmd.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}
