package library

import (
	"fmt"
	"time"
)

// DefaultLoanDays is the loan period used when none is configured.
const DefaultLoanDays = 14

// Logger interface for operational logging. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Option defines a functional option for configuring a Ledger.
type Option func(*Ledger) error

// WithLogger sets the logger for the Ledger.
//
// Debug level: generated SQL
// Info level: registrations, loans and returns
// Warn level: rejected operations (duplicates, unavailable copies, unknown ids).
func WithLogger(logger Logger) Option {
	return func(l *Ledger) error {
		l.logger = logger
		return nil
	}
}

// WithClock replaces time.Now, mainly for tests and back-dated imports.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) error {
		if now == nil {
			return fmt.Errorf("%w: nil clock", ErrInvalidInput)
		}
		l.now = now
		return nil
	}
}

// WithDefaultLoanDays sets the loan period callers get from DefaultLoanDays().
func WithDefaultLoanDays(days int) Option {
	return func(l *Ledger) error {
		if days < 1 {
			return fmt.Errorf("%w: loan days must be positive, got %d", ErrInvalidInput, days)
		}
		l.loanDays = days
		return nil
	}
}

const (
	logMsgBookRegistered   = "book registered"
	logMsgMemberRegistered = "member registered"
	logMsgBookBorrowed     = "book borrowed"
	logMsgBookReturned     = "book returned"
	logMsgRejected         = "operation rejected"
	logMsgQuery            = "query"

	logAttrOperation = "operation"
	logAttrBookID    = "book_id"
	logAttrMemberID  = "member_id"
	logAttrLoanID    = "borrowing_id"
	logAttrDueDate   = "due_date"
	logAttrAvailable = "available"
	logAttrError     = "error"
	logAttrQuery     = "query"
	logAttrResults   = "results"
)
