package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"expensetracker/internal/cli"
	"expensetracker/internal/config"
	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/services"
)

// appBuilder wires the expense service for one command invocation.
type appBuilder func(ctx context.Context, cfg *config.Config) (*cli.App, error)

func defaultAppBuilder(ctx context.Context, cfg *config.Config) (*cli.App, error) {
	return cli.BuildApp(ctx, cfg, cli.SetupLogger(cfg, os.Stderr).WithComponent(applog.ComponentCLI))
}

// session carries the state shared by the subcommands.
type session struct {
	build appBuilder
	cfg   *config.Config
	app   *cli.App
}

func (s *session) service() *services.ExpenseService {
	return s.app.Service
}

func (s *session) defaultBudget() core.Money {
	return core.Money{Cents: s.cfg.BudgetCents()}
}

// close releases the app built for the command, if any. It is safe to call
// more than once.
func (s *session) close() error {
	app := s.app
	s.app = nil
	if app == nil || app.Cleanup == nil {
		return nil
	}
	return app.Cleanup()
}

// execute runs the command tree and releases the app even when the command
// fails; cobra skips post-run hooks on error.
func execute(ctx context.Context, build appBuilder, args []string, stdout, stderr io.Writer) error {
	s := &session{build: build}
	root := newRootCmd(s)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if args != nil {
		root.SetArgs(args)
	}
	err := root.ExecuteContext(ctx)
	if cerr := s.close(); cerr != nil {
		err = errors.Join(err, fmt.Errorf("cleanup: %w", cerr))
	}
	return err
}

func newRootCmd(s *session) *cobra.Command {
	root := &cobra.Command{
		Use:           "tracker-cli",
		Short:         "Expense Tracker",
		Long:          `Record expenses, extract receipts and review spending from the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cli.LoadEnvFile()
			cfg, err := cli.LoadConfig()
			if err != nil {
				return err
			}
			s.cfg = cfg
			app, err := s.build(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("initialize: %w", err)
			}
			s.app = app
			return nil
		},
	}

	root.AddCommand(newAddCmd(s), newScanCmd(s), newReportCmd(s))
	return root
}
