package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"expensetracker/internal/services"
)

func newScanCmd(s *session) *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "scan <image>",
		Short: "Extract text from a receipt image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			ctx := cmd.Context()
			ex, err := s.service().ScanReceipt(ctx, f)
			if err != nil {
				return fmt.Errorf("extract %s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ex.Text)
			if !save {
				return nil
			}

			res, err := s.service().RecordReceipt(ctx, ex.Text)
			if errors.Is(err, services.ErrNoReceiptText) {
				fmt.Fprintln(out, "No text detected in the receipt.")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Extracted text saved with amount ₹%s (%s)\n", res.Inference.Amount.Decimal(), res.Ref)
			if !res.Inference.Found {
				fmt.Fprintln(out, "No amount was recognized in the receipt, so it was saved as ₹0.00.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "record the extracted text as an expense")
	return cmd
}
