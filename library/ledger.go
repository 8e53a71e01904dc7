package library

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// Ledger owns the catalog, the members and their borrowings, and keeps a
// book's available count equal to its quantity minus its open loans.
type Ledger struct {
	db *Database

	logger   Logger
	now      func() time.Time
	loanDays int
}

// NewLedger opens (or creates) the SQLite database at dbPath.
func NewLedger(dbPath string, options ...Option) (*Ledger, error) {
	l := &Ledger{now: time.Now, loanDays: DefaultLoanDays}
	for _, opt := range options {
		if err := opt(l); err != nil {
			return nil, err
		}
	}

	db, err := NewDatabase(dbPath)
	if err != nil {
		return nil, err
	}
	l.db = db
	return l, nil
}

// Close closes the underlying database.
func (l *Ledger) Close() error { return l.db.Close() }

// DefaultLoanDays is the configured loan period in days.
func (l *Ledger) DefaultLoanDays() int { return l.loanDays }

// Timestamps are stored in UTC so they compare correctly as text.
func (l *Ledger) clock() time.Time { return l.now().UTC() }

// ------------------ Catalog ------------------

// RegisterBook adds quantity copies of a title to the catalog, all available.
// A non-empty ISBN must be unique.
func (l *Ledger) RegisterBook(ctx context.Context, title, author, isbn string, quantity int) (*Book, error) {
	const op = "register_book"
	title, author, isbn = strings.TrimSpace(title), strings.TrimSpace(author), strings.TrimSpace(isbn)

	switch {
	case title == "":
		return nil, l.reject(op, fmt.Errorf("%w: title is required", ErrInvalidInput))
	case author == "":
		return nil, l.reject(op, fmt.Errorf("%w: author is required", ErrInvalidInput))
	case quantity < 1:
		return nil, l.reject(op, fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidInput, quantity))
	}

	id, err := l.db.AddBook(ctx, title, author, isbn, quantity)
	if err != nil {
		return nil, l.reject(op, err)
	}

	book := &Book{ID: id, Title: title, Author: author, ISBN: isbn, Quantity: quantity, Available: quantity}
	l.info(logMsgBookRegistered, logAttrBookID, id, logAttrAvailable, quantity)
	return book, nil
}

// GetBook fetches a single book.
func (l *Ledger) GetBook(ctx context.Context, id int64) (*Book, error) {
	return l.db.GetBook(ctx, l.db.DB(), id)
}

// ListBooks returns the whole catalog ordered by id.
func (l *Ledger) ListBooks(ctx context.Context) ([]*Book, error) { return l.db.GetAllBooks(ctx) }

// SearchBooks returns every book whose title, author or ISBN contains query,
// ignoring case, ordered by id. An empty query matches the whole catalog.
func (l *Ledger) SearchBooks(ctx context.Context, query string) ([]*Book, error) {
	books, err := l.db.SearchBooks(ctx, strings.TrimSpace(query))
	if err != nil {
		return nil, err
	}
	l.debug(logMsgQuery, logAttrOperation, "search_books", logAttrQuery, query, logAttrResults, len(books))
	return books, nil
}

// ------------------ Members ------------------

// RegisterMember adds a member who joins now. A non-empty email must be unique.
func (l *Ledger) RegisterMember(ctx context.Context, name, email, phone string) (*Member, error) {
	const op = "register_member"
	name, email, phone = strings.TrimSpace(name), strings.TrimSpace(email), strings.TrimSpace(phone)
	if name == "" {
		return nil, l.reject(op, fmt.Errorf("%w: name is required", ErrInvalidInput))
	}

	joined := l.clock()
	id, err := l.db.AddMember(ctx, name, email, phone, joined)
	if err != nil {
		return nil, l.reject(op, err)
	}

	l.info(logMsgMemberRegistered, logAttrMemberID, id)
	return &Member{ID: id, Name: name, Email: email, Phone: phone, JoinDate: joined}, nil
}

// GetMember fetches a single member.
func (l *Ledger) GetMember(ctx context.Context, id int64) (*Member, error) {
	return l.db.GetMember(ctx, l.db.DB(), id)
}

// ListMembers returns all members ordered by id.
func (l *Ledger) ListMembers(ctx context.Context) ([]*Member, error) { return l.db.GetAllMembers(ctx) }

// ------------------ Circulation ------------------

// BorrowBook lends one copy of a book for loanDays days. Taking the copy and
// recording the loan commit together or not at all.
func (l *Ledger) BorrowBook(ctx context.Context, bookID, memberID int64, loanDays int) (*Borrowing, error) {
	const op = "borrow_book"
	if loanDays < 1 {
		return nil, l.reject(op, fmt.Errorf("%w: loan days must be positive, got %d", ErrInvalidInput, loanDays))
	}

	now := l.clock()
	br := &Borrowing{
		BookID:     bookID,
		MemberID:   memberID,
		BorrowDate: now,
		DueDate:    now.AddDate(0, 0, loanDays),
	}

	err := l.db.InTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := l.db.GetBook(ctx, tx, bookID); err != nil {
			return err
		}
		if _, err := l.db.GetMember(ctx, tx, memberID); err != nil {
			return err
		}

		ok, err := l.db.TakeCopy(ctx, tx, bookID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: book %d", ErrUnavailable, bookID)
		}

		id, err := l.db.AddBorrowing(ctx, tx, br)
		if err != nil {
			return err
		}
		br.ID = id
		return nil
	})
	if err != nil {
		return nil, l.reject(op, err, logAttrBookID, bookID, logAttrMemberID, memberID)
	}

	l.info(logMsgBookBorrowed, logAttrLoanID, br.ID, logAttrBookID, bookID, logAttrMemberID, memberID,
		logAttrDueDate, br.DueDate.Format(time.DateOnly))
	return br, nil
}

// ReturnBook closes the most recently issued open loan of the book to the
// member and puts the copy back. Without such a loan nothing changes and
// ErrNotFound is returned.
func (l *Ledger) ReturnBook(ctx context.Context, bookID, memberID int64) (*Borrowing, error) {
	const op = "return_book"
	now := l.clock()

	var br *Borrowing
	err := l.db.InTx(ctx, func(tx *sqlx.Tx) error {
		open, err := l.db.LatestOpenBorrowing(ctx, tx, bookID, memberID)
		if err != nil {
			return err
		}
		if err := l.db.CloseBorrowing(ctx, tx, open.ID, now); err != nil {
			return err
		}
		if err := l.db.PutCopyBack(ctx, tx, bookID); err != nil {
			return err
		}
		open.ReturnDate = &now
		br = open
		return nil
	})
	if err != nil {
		return nil, l.reject(op, err, logAttrBookID, bookID, logAttrMemberID, memberID)
	}

	l.info(logMsgBookReturned, logAttrLoanID, br.ID, logAttrBookID, bookID, logAttrMemberID, memberID)
	return br, nil
}

// OpenLoanCount counts the copies of a book currently on loan.
func (l *Ledger) OpenLoanCount(ctx context.Context, bookID int64) (int, error) {
	return l.db.OpenLoanCount(ctx, bookID)
}

// ------------------ Reports ------------------

// GetOverdueBorrowings lists open loans whose due date has passed.
func (l *Ledger) GetOverdueBorrowings(ctx context.Context) ([]OverdueLoan, error) {
	loans, err := l.db.OverdueBorrowings(ctx, l.clock())
	if err != nil {
		return nil, err
	}
	l.debug(logMsgQuery, logAttrOperation, "overdue", logAttrResults, len(loans))
	return loans, nil
}

// GetMemberBorrowings lists a member's loans, most recent first.
func (l *Ledger) GetMemberBorrowings(ctx context.Context, memberID int64) ([]MemberLoan, error) {
	if _, err := l.GetMember(ctx, memberID); err != nil {
		return nil, l.reject("member_borrowings", err, logAttrMemberID, memberID)
	}
	return l.db.MemberBorrowings(ctx, memberID)
}

// ------------------ Logging ------------------

func (l *Ledger) info(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Info(msg, args...)
	}
}

func (l *Ledger) debug(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Debug(msg, args...)
	}
}

// reject logs a failed operation and hands err back unchanged. Domain
// failures are expected at the call boundary and log at warn.
func (l *Ledger) reject(op string, err error, args ...any) error {
	if l.logger == nil {
		return err
	}
	args = append([]any{logAttrOperation, op, logAttrError, err.Error()}, args...)
	if isDomainError(err) {
		l.logger.Warn(logMsgRejected, args...)
	} else {
		l.logger.Error(logMsgRejected, args...)
	}
	return err
}

func isDomainError(err error) bool {
	for _, target := range []error{ErrDuplicateKey, ErrNotFound, ErrUnavailable, ErrInvalidInput} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
