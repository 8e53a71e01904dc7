package library

import "time"

// Book is a catalog entry together with its copy counts.
// Available never drops below zero or rises above Quantity.
type Book struct {
	ID        int64  `db:"id" json:"id"`
	Title     string `db:"title" json:"title"`
	Author    string `db:"author" json:"author"`
	ISBN      string `db:"isbn" json:"isbn,omitempty"`
	Quantity  int    `db:"quantity" json:"quantity"`
	Available int    `db:"available" json:"available"`
}

// Member represents a registered library member.
type Member struct {
	ID       int64     `db:"id" json:"id"`
	Name     string    `db:"name" json:"name"`
	Email    string    `db:"email" json:"email,omitempty"`
	Phone    string    `db:"phone" json:"phone,omitempty"`
	JoinDate time.Time `db:"join_date" json:"join_date"`
}

// Borrowing is a single loan of one copy of a book to a member.
// A nil ReturnDate marks the loan as open.
type Borrowing struct {
	ID         int64      `db:"id" json:"id"`
	BookID     int64      `db:"book_id" json:"book_id"`
	MemberID   int64      `db:"member_id" json:"member_id"`
	BorrowDate time.Time  `db:"borrow_date" json:"borrow_date"`
	DueDate    time.Time  `db:"due_date" json:"due_date"`
	ReturnDate *time.Time `db:"return_date" json:"return_date,omitempty"`
}

// IsOpen reports whether the book has not been returned yet.
func (b *Borrowing) IsOpen() bool { return b.ReturnDate == nil }

// OverdueLoan is one row of the overdue report.
type OverdueLoan struct {
	BorrowingID int64     `db:"borrowing_id" json:"borrowing_id"`
	BookID      int64     `db:"book_id" json:"book_id"`
	Title       string    `db:"title" json:"title"`
	MemberID    int64     `db:"member_id" json:"member_id"`
	MemberName  string    `db:"member_name" json:"member_name"`
	DueDate     time.Time `db:"due_date" json:"due_date"`
}

// MemberLoan is one row of a member's borrowing history.
type MemberLoan struct {
	BorrowingID int64      `db:"borrowing_id" json:"borrowing_id"`
	BookID      int64      `db:"book_id" json:"book_id"`
	Title       string     `db:"title" json:"title"`
	BorrowDate  time.Time  `db:"borrow_date" json:"borrow_date"`
	DueDate     time.Time  `db:"due_date" json:"due_date"`
	ReturnDate  *time.Time `db:"return_date" json:"return_date,omitempty"`
}
