package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"library-ledger/config"
	"library-ledger/library"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if err := newRootCmd(cfg).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// shell carries flag values and the Ledger for the duration of one command.
type shell struct {
	dbPath   string
	loanDays int
	logLevel string
	asJSON   bool

	ledger *library.Ledger
}

func newRootCmd(cfg config.Config) *cobra.Command {
	s := &shell{}

	root := &cobra.Command{
		Use:          "library",
		Short:        "Track a library's catalog, members and loans",
		SilenceUsage: true,
		RunE:         s.withLedger(s.runMenu),
	}

	flags := root.PersistentFlags()
	flags.StringVar(&s.dbPath, "db", cfg.DBPath, "path to the SQLite database")
	flags.IntVar(&s.loanDays, "loan-days", cfg.LoanDays, "default loan period in days")
	flags.StringVar(&s.logLevel, "log-level", cfg.LogLevel.String(), "log level: debug, info, warn or error")
	flags.BoolVar(&s.asJSON, "json", false, "print results as JSON")

	root.AddCommand(
		newAddBookCmd(s),
		newAddMemberCmd(s),
		newBorrowCmd(s),
		newReturnCmd(s),
		newSearchCmd(s),
		newOverdueCmd(s),
		newHistoryCmd(s),
		newBooksCmd(s),
		newMembersCmd(s),
		newMenuCmd(s),
	)
	return root
}

type runFunc func(cmd *cobra.Command, args []string) error

// withLedger opens the Ledger for the length of one command.
func (s *shell) withLedger(fn runFunc) runFunc {
	return func(cmd *cobra.Command, args []string) error {
		if err := s.open(cmd); err != nil {
			return err
		}
		defer s.close()
		return fn(cmd, args)
	}
}

func (s *shell) open(cmd *cobra.Command) error {
	level, err := config.ParseLevel(s.logLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	ledger, err := library.NewLedger(s.dbPath,
		library.WithLogger(logger),
		library.WithDefaultLoanDays(s.loanDays),
	)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	s.ledger = ledger
	return nil
}

func (s *shell) close() error {
	if s.ledger == nil {
		return nil
	}
	err := s.ledger.Close()
	s.ledger = nil
	return err
}
