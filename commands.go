package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newAddBookCmd(s *shell) *cobra.Command {
	var title, author, isbn string
	var quantity int

	cmd := &cobra.Command{
		Use:   "add-book",
		Short: "Register a book in the catalog",
		Args:  cobra.NoArgs,
		RunE: s.withLedger(func(cmd *cobra.Command, _ []string) error {
			book, err := s.ledger.RegisterBook(cmd.Context(), title, author, isbn, quantity)
			if err != nil {
				return err
			}
			return s.printBook(cmd.OutOrStdout(), book)
		}),
	}
	cmd.Flags().StringVar(&title, "title", "", "book title")
	cmd.Flags().StringVar(&author, "author", "", "author name")
	cmd.Flags().StringVar(&isbn, "isbn", "", "ISBN (optional, unique)")
	cmd.Flags().IntVar(&quantity, "quantity", 1, "number of copies owned")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("author")
	return cmd
}

func newAddMemberCmd(s *shell) *cobra.Command {
	var name, email, phone string

	cmd := &cobra.Command{
		Use:   "add-member",
		Short: "Register a library member",
		Args:  cobra.NoArgs,
		RunE: s.withLedger(func(cmd *cobra.Command, _ []string) error {
			member, err := s.ledger.RegisterMember(cmd.Context(), name, email, phone)
			if err != nil {
				return err
			}
			return s.printMember(cmd.OutOrStdout(), member)
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "member name")
	cmd.Flags().StringVar(&email, "email", "", "email address (unique)")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newBorrowCmd(s *shell) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "borrow BOOK_ID MEMBER_ID",
		Short: "Lend a copy of a book to a member",
		Args:  cobra.ExactArgs(2),
		RunE: s.withLedger(func(cmd *cobra.Command, args []string) error {
			bookID, memberID, err := parseIDPair(args)
			if err != nil {
				return err
			}
			loanDays := days
			if loanDays == 0 {
				loanDays = s.ledger.DefaultLoanDays()
			}
			br, err := s.ledger.BorrowBook(cmd.Context(), bookID, memberID, loanDays)
			if err != nil {
				return err
			}
			return s.printBorrowing(cmd.OutOrStdout(), "Book borrowed successfully!", br)
		}),
	}
	cmd.Flags().IntVar(&days, "days", 0, "loan period in days (default: --loan-days)")
	return cmd
}

func newReturnCmd(s *shell) *cobra.Command {
	return &cobra.Command{
		Use:   "return BOOK_ID MEMBER_ID",
		Short: "Record the return of a borrowed book",
		Args:  cobra.ExactArgs(2),
		RunE: s.withLedger(func(cmd *cobra.Command, args []string) error {
			bookID, memberID, err := parseIDPair(args)
			if err != nil {
				return err
			}
			br, err := s.ledger.ReturnBook(cmd.Context(), bookID, memberID)
			if err != nil {
				return err
			}
			return s.printBorrowing(cmd.OutOrStdout(), "Book returned successfully!", br)
		}),
	}
}

func newSearchCmd(s *shell) *cobra.Command {
	return &cobra.Command{
		Use:   "search [QUERY...]",
		Short: "Search the catalog by title, author or ISBN",
		RunE: s.withLedger(func(cmd *cobra.Command, args []string) error {
			books, err := s.ledger.SearchBooks(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return s.printBooks(cmd.OutOrStdout(), books)
		}),
	}
}

func newOverdueCmd(s *shell) *cobra.Command {
	return &cobra.Command{
		Use:   "overdue",
		Short: "List open loans past their due date",
		Args:  cobra.NoArgs,
		RunE: s.withLedger(func(cmd *cobra.Command, _ []string) error {
			loans, err := s.ledger.GetOverdueBorrowings(cmd.Context())
			if err != nil {
				return err
			}
			return s.printOverdue(cmd.OutOrStdout(), loans)
		}),
	}
}

func newHistoryCmd(s *shell) *cobra.Command {
	return &cobra.Command{
		Use:   "history MEMBER_ID",
		Short: "Show a member's borrowings, most recent first",
		Args:  cobra.ExactArgs(1),
		RunE: s.withLedger(func(cmd *cobra.Command, args []string) error {
			memberID, err := parseID("member", args[0])
			if err != nil {
				return err
			}
			loans, err := s.ledger.GetMemberBorrowings(cmd.Context(), memberID)
			if err != nil {
				return err
			}
			return s.printMemberLoans(cmd.OutOrStdout(), loans)
		}),
	}
}

func newBooksCmd(s *shell) *cobra.Command {
	return &cobra.Command{
		Use:   "books",
		Short: "List the whole catalog",
		Args:  cobra.NoArgs,
		RunE: s.withLedger(func(cmd *cobra.Command, _ []string) error {
			books, err := s.ledger.ListBooks(cmd.Context())
			if err != nil {
				return err
			}
			return s.printBooks(cmd.OutOrStdout(), books)
		}),
	}
}

func newMembersCmd(s *shell) *cobra.Command {
	return &cobra.Command{
		Use:   "members",
		Short: "List registered members",
		Args:  cobra.NoArgs,
		RunE: s.withLedger(func(cmd *cobra.Command, _ []string) error {
			members, err := s.ledger.ListMembers(cmd.Context())
			if err != nil {
				return err
			}
			return s.printMembers(cmd.OutOrStdout(), members)
		}),
	}
}

func newMenuCmd(s *shell) *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Run the interactive numbered menu (default)",
		Args:  cobra.NoArgs,
		RunE:  s.withLedger(s.runMenu),
	}
}

func parseID(kind, raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s ID: %s", kind, raw)
	}
	return id, nil
}

func parseIDPair(args []string) (bookID, memberID int64, err error) {
	if bookID, err = parseID("book", args[0]); err != nil {
		return 0, 0, err
	}
	if memberID, err = parseID("member", args[1]); err != nil {
		return 0, 0, err
	}
	return bookID, memberID, nil
}
