package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"expensetracker/internal/core"
	"expensetracker/internal/report"
)

func newReportCmd(s *session) *cobra.Command {
	var budget string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print spending totals and the budget verdict",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b := s.defaultBudget()
			if strings.TrimSpace(budget) != "" {
				cents, err := core.ParseDecimalToCents(strings.TrimSpace(budget))
				if err != nil {
					return fmt.Errorf("--budget: %w", core.ErrInvalidAmount)
				}
				b = core.Money{Cents: cents}
			}

			ov, err := s.service().Overview(cmd.Context(), b)
			if err != nil {
				return err
			}
			return printOverview(cmd.OutOrStdout(), ov)
		},
	}

	cmd.Flags().StringVar(&budget, "budget", "", "monthly budget in rupees (default from DEFAULT_BUDGET)")
	return cmd
}

type reportSection struct {
	title string
	rows  [][2]string
}

// printOverview writes the totals as a table with left-aligned labels and
// right-aligned amounts, followed by the budget summary.
func printOverview(w io.Writer, ov report.Overview) error {
	sections := []reportSection{
		{title: "Category-wise Spending"},
		{title: "Monthly Totals"},
		{title: "Yearly Totals"},
	}
	for _, c := range ov.Categories {
		sections[0].rows = append(sections[0].rows, [2]string{c.Name, c.Amount.FormatRupees()})
	}
	for _, p := range ov.Monthly {
		sections[1].rows = append(sections[1].rows, [2]string{p.Label, p.Amount.FormatRupees()})
	}
	for _, p := range ov.Yearly {
		sections[2].rows = append(sections[2].rows, [2]string{p.Label, p.Amount.FormatRupees()})
	}

	width := 0
	for _, sec := range sections {
		for _, row := range sec.rows {
			width = max(width, utf8.RuneCountInString(row[1]))
		}
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, sec := range sections {
		if i > 0 {
			fmt.Fprintln(tw, "\t")
		}
		fmt.Fprintf(tw, "%s\t\n", sec.title)
		for _, row := range sec.rows {
			fmt.Fprintf(tw, "  %s\t%*s\n", row[0], width, row[1])
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	br := ov.Budget
	fmt.Fprintln(w)
	if br.Verdict != core.VerdictNoData {
		fmt.Fprintf(w, "Month: %s\nBudget: %s\nSpent: %s\nLeftover: %s\n",
			br.Month, br.Budget.FormatRupees(), br.Spent.FormatRupees(), br.Leftover.FormatRupees())
		if len(br.TopCategories) > 0 {
			fmt.Fprintln(w, "Top Spending Areas:")
			for _, c := range br.TopCategories {
				fmt.Fprintf(w, "  %s: %s\n", c.Name, c.Amount.FormatRupees())
			}
		}
	}
	_, err := fmt.Fprintln(w, br.Verdict.Message())
	return err
}
