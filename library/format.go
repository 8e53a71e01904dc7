package library

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Table headers matching the Pretty* row layouts.
var (
	BookHeader       = fmt.Sprintf("%-5s %-30s %-25s %-15s %-9s", "ID", "Title", "Author", "ISBN", "Available")
	MemberHeader     = fmt.Sprintf("%-5s %-25s %-30s %-15s %-10s", "ID", "Name", "Email", "Phone", "Joined")
	OverdueHeader    = fmt.Sprintf("%-5s %-30s %-25s %-10s", "Loan", "Title", "Member", "Due")
	MemberLoanHeader = fmt.Sprintf("%-5s %-30s %-10s %-10s %-10s", "Loan", "Book", "Borrowed", "Due", "Returned")
)

// PrettyBook formats a book for lists.
func PrettyBook(b *Book) string {
	return fmt.Sprintf("%-5d %-30s %-25s %-15s %-9s",
		b.ID, Truncate(b.Title, 30), Truncate(b.Author, 25), Truncate(b.ISBN, 15),
		fmt.Sprintf("%d/%d", b.Available, b.Quantity))
}

// PrettyMember formats a member for lists.
func PrettyMember(m *Member) string {
	return fmt.Sprintf("%-5d %-25s %-30s %-15s %-10s",
		m.ID, Truncate(m.Name, 25), Truncate(m.Email, 30), Truncate(m.Phone, 15), formatDate(&m.JoinDate))
}

// PrettyOverdue formats one overdue loan.
func PrettyOverdue(o OverdueLoan) string {
	return fmt.Sprintf("%-5d %-30s %-25s %-10s",
		o.BorrowingID, Truncate(o.Title, 30), Truncate(o.MemberName, 25), formatDate(&o.DueDate))
}

// PrettyMemberLoan formats one entry of a member's history. Open loans show "-" as return date.
func PrettyMemberLoan(ml MemberLoan) string {
	return fmt.Sprintf("%-5d %-30s %-10s %-10s %-10s",
		ml.BorrowingID, Truncate(ml.Title, 30), formatDate(&ml.BorrowDate), formatDate(&ml.DueDate), formatDate(ml.ReturnDate))
}

// Separator returns a rule as wide as header.
func Separator(header string) string { return strings.Repeat("-", len(header)) }

// Truncate shortens s to maxLen characters, marking the cut with "...".
func Truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	r := []rune(s)
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.DateOnly)
}
