package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"library-ledger/library"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func (s *shell) printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (s *shell) printBook(w io.Writer, b *library.Book) error {
	if s.asJSON {
		return s.printJSON(w, b)
	}
	_, err := fmt.Fprintf(w, "Book added successfully! ID: %d, Title: %s, Available: %d/%d\n",
		b.ID, b.Title, b.Available, b.Quantity)
	return err
}

func (s *shell) printMember(w io.Writer, m *library.Member) error {
	if s.asJSON {
		return s.printJSON(w, m)
	}
	_, err := fmt.Fprintf(w, "Member added successfully! ID: %d, Name: %s\n", m.ID, m.Name)
	return err
}

func (s *shell) printBorrowing(w io.Writer, headline string, br *library.Borrowing) error {
	if s.asJSON {
		return s.printJSON(w, br)
	}
	_, err := fmt.Fprintf(w, "%s Loan %d: book %d, member %d, due %s\n",
		headline, br.ID, br.BookID, br.MemberID, br.DueDate.Format(time.DateOnly))
	return err
}

func (s *shell) printBooks(w io.Writer, books []*library.Book) error {
	if s.asJSON {
		return s.printJSON(w, books)
	}
	if len(books) == 0 {
		_, err := fmt.Fprintln(w, "No books found.")
		return err
	}
	fmt.Fprintln(w, library.BookHeader)
	fmt.Fprintln(w, library.Separator(library.BookHeader))
	for _, b := range books {
		fmt.Fprintln(w, library.PrettyBook(b))
	}
	return nil
}

func (s *shell) printMembers(w io.Writer, members []*library.Member) error {
	if s.asJSON {
		return s.printJSON(w, members)
	}
	if len(members) == 0 {
		_, err := fmt.Fprintln(w, "No members registered.")
		return err
	}
	fmt.Fprintln(w, library.MemberHeader)
	fmt.Fprintln(w, library.Separator(library.MemberHeader))
	for _, m := range members {
		fmt.Fprintln(w, library.PrettyMember(m))
	}
	return nil
}

func (s *shell) printOverdue(w io.Writer, loans []library.OverdueLoan) error {
	if s.asJSON {
		return s.printJSON(w, loans)
	}
	if len(loans) == 0 {
		_, err := fmt.Fprintln(w, "No overdue books.")
		return err
	}
	fmt.Fprintln(w, library.OverdueHeader)
	fmt.Fprintln(w, library.Separator(library.OverdueHeader))
	for _, o := range loans {
		fmt.Fprintln(w, library.PrettyOverdue(o))
	}
	return nil
}

func (s *shell) printMemberLoans(w io.Writer, loans []library.MemberLoan) error {
	if s.asJSON {
		return s.printJSON(w, loans)
	}
	if len(loans) == 0 {
		_, err := fmt.Fprintln(w, "No borrowings for this member.")
		return err
	}
	fmt.Fprintln(w, library.MemberLoanHeader)
	fmt.Fprintln(w, library.Separator(library.MemberLoanHeader))
	for _, ml := range loans {
		fmt.Fprintln(w, library.PrettyMemberLoan(ml))
	}
	return nil
}

// describeError turns a Ledger failure into the line the menu shows.
func describeError(err error) string {
	switch {
	case errors.Is(err, library.ErrDuplicateKey):
		return fmt.Sprintf("Error: already exists (%v)", err)
	case errors.Is(err, library.ErrNotFound):
		return fmt.Sprintf("Error: not found (%v)", err)
	case errors.Is(err, library.ErrUnavailable):
		return "Book not available for borrowing"
	case errors.Is(err, library.ErrInvalidInput):
		return fmt.Sprintf("Error: %v", err)
	default:
		return fmt.Sprintf("Unexpected error: %v", err)
	}
}
