package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const menuText = `
=== Library Management System ===
1. Add Book
2. Add Member
3. Borrow Book
4. Return Book
5. Search Books
6. View Overdue Books
7. View Member Borrowings
8. Exit`

// menu reads answers line by line. Prompts are only written for a human at a terminal.
type menu struct {
	s       *shell
	sc      *bufio.Scanner
	out     io.Writer
	prompts bool
}

func (s *shell) runMenu(cmd *cobra.Command, _ []string) error {
	in := cmd.InOrStdin()
	prompts := false
	if f, ok := in.(*os.File); ok {
		prompts = term.IsTerminal(int(f.Fd()))
	}
	m := &menu{s: s, sc: bufio.NewScanner(in), out: cmd.OutOrStdout(), prompts: prompts}
	return m.run(cmd.Context())
}

func (m *menu) run(ctx context.Context) error {
	for {
		if m.prompts {
			fmt.Fprintln(m.out, menuText)
		}
		choice, ok := m.ask("\nEnter your choice (1-8): ")
		if !ok {
			return m.sc.Err()
		}

		switch choice {
		case "1":
			m.addBook(ctx)
		case "2":
			m.addMember(ctx)
		case "3":
			m.borrow(ctx)
		case "4":
			m.giveBack(ctx)
		case "5":
			m.search(ctx)
		case "6":
			m.overdue(ctx)
		case "7":
			m.history(ctx)
		case "8":
			fmt.Fprintln(m.out, "Thank you for using the Library Management System!")
			return nil
		default:
			fmt.Fprintln(m.out, "Invalid choice. Please try again.")
		}
	}
}

// ask prints prompt (at a terminal) and reads one trimmed line.
func (m *menu) ask(prompt string) (string, bool) {
	if m.prompts {
		fmt.Fprint(m.out, prompt)
	}
	if !m.sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(m.sc.Text()), true
}

// askInt reads an integer; blank input yields def.
func (m *menu) askInt(prompt string, def int) (int, bool) {
	raw, ok := m.ask(prompt)
	if !ok {
		return 0, false
	}
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		fmt.Fprintf(m.out, "Invalid number: %s\n", raw)
		return 0, false
	}
	return n, true
}

func (m *menu) askID(prompt, kind string) (int64, bool) {
	raw, ok := m.ask(prompt)
	if !ok {
		return 0, false
	}
	id, err := parseID(kind, raw)
	if err != nil {
		fmt.Fprintln(m.out, err)
		return 0, false
	}
	return id, true
}

func (m *menu) fail(err error) { fmt.Fprintln(m.out, describeError(err)) }

func (m *menu) addBook(ctx context.Context) {
	title, ok := m.ask("Enter book title: ")
	if !ok {
		return
	}
	author, ok := m.ask("Enter author name: ")
	if !ok {
		return
	}
	isbn, ok := m.ask("Enter ISBN: ")
	if !ok {
		return
	}
	quantity, ok := m.askInt("Enter quantity: ", 1)
	if !ok {
		return
	}

	book, err := m.s.ledger.RegisterBook(ctx, title, author, isbn, quantity)
	if err != nil {
		m.fail(err)
		return
	}
	fmt.Fprintf(m.out, "Book added successfully! (ID: %d)\n", book.ID)
}

func (m *menu) addMember(ctx context.Context) {
	name, ok := m.ask("Enter member name: ")
	if !ok {
		return
	}
	email, ok := m.ask("Enter email: ")
	if !ok {
		return
	}
	phone, ok := m.ask("Enter phone: ")
	if !ok {
		return
	}

	member, err := m.s.ledger.RegisterMember(ctx, name, email, phone)
	if err != nil {
		m.fail(err)
		return
	}
	fmt.Fprintf(m.out, "Member added successfully! (ID: %d)\n", member.ID)
}

func (m *menu) borrow(ctx context.Context) {
	bookID, ok := m.askID("Enter book ID: ", "book")
	if !ok {
		return
	}
	memberID, ok := m.askID("Enter member ID: ", "member")
	if !ok {
		return
	}
	days, ok := m.askInt(fmt.Sprintf("Loan days [%d]: ", m.s.ledger.DefaultLoanDays()), m.s.ledger.DefaultLoanDays())
	if !ok {
		return
	}

	br, err := m.s.ledger.BorrowBook(ctx, bookID, memberID, days)
	if err != nil {
		m.fail(err)
		return
	}
	fmt.Fprintf(m.out, "Book borrowed successfully! Due: %s\n", br.DueDate.Format("2006-01-02"))
}

func (m *menu) giveBack(ctx context.Context) {
	bookID, ok := m.askID("Enter book ID: ", "book")
	if !ok {
		return
	}
	memberID, ok := m.askID("Enter member ID: ", "member")
	if !ok {
		return
	}

	if _, err := m.s.ledger.ReturnBook(ctx, bookID, memberID); err != nil {
		m.fail(err)
		return
	}
	fmt.Fprintln(m.out, "Book returned successfully!")
}

func (m *menu) search(ctx context.Context) {
	query, ok := m.ask("Enter search query: ")
	if !ok {
		return
	}
	books, err := m.s.ledger.SearchBooks(ctx, query)
	if err != nil {
		m.fail(err)
		return
	}
	fmt.Fprintln(m.out, "\nSearch Results:")
	if err := m.s.printBooks(m.out, books); err != nil {
		m.fail(err)
	}
}

func (m *menu) overdue(ctx context.Context) {
	loans, err := m.s.ledger.GetOverdueBorrowings(ctx)
	if err != nil {
		m.fail(err)
		return
	}
	fmt.Fprintln(m.out, "\nOverdue Books:")
	if err := m.s.printOverdue(m.out, loans); err != nil {
		m.fail(err)
	}
}

func (m *menu) history(ctx context.Context) {
	memberID, ok := m.askID("Enter member ID: ", "member")
	if !ok {
		return
	}
	loans, err := m.s.ledger.GetMemberBorrowings(ctx, memberID)
	if err != nil {
		m.fail(err)
		return
	}
	fmt.Fprintln(m.out, "\nMember Borrowings:")
	if err := m.s.printMemberLoans(m.out, loans); err != nil {
		m.fail(err)
	}
}
