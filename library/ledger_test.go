package library

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterBook(t *testing.T) {
	l, _ := tempLedger(t)
	ctx := context.Background()

	b, err := l.RegisterBook(ctx, "  Dune ", "Herbert", "111", 3)
	require.NoError(t, err)
	assert.Equal(t, "Dune", b.Title)
	assert.Equal(t, 3, b.Quantity)
	assert.Equal(t, 3, b.Available)

	stored, err := l.GetBook(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b, stored)
}

func TestRegisterBookDuplicateISBN(t *testing.T) {
	l, _ := tempLedger(t)
	ctx := context.Background()

	first := mustBook(t, l, "Dune", "111", 2)

	_, err := l.RegisterBook(ctx, "Dune Messiah", "Herbert", "111", 5)
	require.ErrorIs(t, err, ErrDuplicateKey)

	books, err := l.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, first, books[0])
}

func TestRegisterBookWithoutISBNTwice(t *testing.T) {
	l, _ := tempLedger(t)

	a := mustBook(t, l, "Pamphlet", "", 1)
	b := mustBook(t, l, "Pamphlet", "", 1)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Empty(t, b.ISBN)
}

func TestRegisterBookValidation(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		author   string
		quantity int
	}{
		{name: "empty title", title: "", author: "A", quantity: 1},
		{name: "blank title", title: "   ", author: "A", quantity: 1},
		{name: "empty author", title: "T", author: "", quantity: 1},
		{name: "zero quantity", title: "T", author: "A", quantity: 0},
		{name: "negative quantity", title: "T", author: "A", quantity: -2},
	}

	l, _ := tempLedger(t)
	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.RegisterBook(ctx, tt.title, tt.author, "", tt.quantity)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	books, err := l.ListBooks(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestRegisterMember(t *testing.T) {
	l, _ := tempLedger(t)
	ctx := context.Background()

	m, err := l.RegisterMember(ctx, "Alice", "alice@example.com", "555-0101")
	require.NoError(t, err)
	assert.True(t, m.JoinDate.Equal(base))

	stored, err := l.GetMember(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", stored.Name)
	assert.Equal(t, "alice@example.com", stored.Email)
	assert.Equal(t, "555-0101", stored.Phone)
	assert.WithinDuration(t, base, stored.JoinDate, time.Second)

	_, err = l.RegisterMember(ctx, "Alice Again", "alice@example.com", "")
	require.ErrorIs(t, err, ErrDuplicateKey)

	_, err = l.RegisterMember(ctx, " ", "nobody@example.com", "")
	require.ErrorIs(t, err, ErrInvalidInput)

	// Members without an email do not collide.
	mustMember(t, l, "Bob", "")
	mustMember(t, l, "Carol", "")

	members, err := l.ListMembers(ctx)
	require.NoError(t, err)
	assert.Len(t, members, 3)
}

func TestBorrowAndReturnScenario(t *testing.T) {
	l, _ := tempLedger(t)
	ctx := context.Background()

	dune := mustBook(t, l, "Dune", "111", 2)
	alice := mustMember(t, l, "Alice", "alice@example.com")
	assert.Equal(t, 2, available(t, l, dune.ID))

	for i := 0; i < 2; i++ {
		_, err := l.BorrowBook(ctx, dune.ID, alice.ID, 14)
		require.NoError(t, err)
	}
	assert.Equal(t, 0, available(t, l, dune.ID))
	open, err := l.OpenLoanCount(ctx, dune.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, open)

	_, err = l.BorrowBook(ctx, dune.ID, alice.ID, 14)
	require.ErrorIs(t, err, ErrUnavailable)

	_, err = l.ReturnBook(ctx, dune.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, available(t, l, dune.ID))

	history, err := l.GetMemberBorrowings(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	closed := 0
	for _, h := range history {
		if h.ReturnDate != nil {
			closed++
		}
	}
	assert.Equal(t, 1, closed)
}

func TestBorrowThenReturnRestoresAvailability(t *testing.T) {
	l, clock := tempLedger(t)
	ctx := context.Background()

	b := mustBook(t, l, "Emma", "222", 3)
	m := mustMember(t, l, "Alice", "")

	br, err := l.BorrowBook(ctx, b.ID, m.ID, 14)
	require.NoError(t, err)
	assert.True(t, br.IsOpen())
	assert.True(t, br.BorrowDate.Equal(base))
	assert.True(t, br.DueDate.Equal(base.AddDate(0, 0, 14)))
	assert.Equal(t, 2, available(t, l, b.ID))

	clock.Advance(48 * time.Hour)
	returned, err := l.ReturnBook(ctx, b.ID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, br.ID, returned.ID)
	require.NotNil(t, returned.ReturnDate)
	assert.True(t, returned.ReturnDate.Equal(clock.Now()))
	assert.Equal(t, 3, available(t, l, b.ID))

	history, err := l.GetMemberBorrowings(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.NotNil(t, history[0].ReturnDate)
}

func TestBorrowUnknownBookOrMember(t *testing.T) {
	l, _ := tempLedger(t)
	ctx := context.Background()

	b := mustBook(t, l, "Emma", "", 1)
	m := mustMember(t, l, "Alice", "")

	_, err := l.BorrowBook(ctx, 999, m.ID, 14)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = l.BorrowBook(ctx, b.ID, 999, 14)
	require.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, 1, available(t, l, b.ID))
	open, err := l.OpenLoanCount(ctx, b.ID)
	require.NoError(t, err)
	assert.Zero(t, open)
}

func TestBorrowRejectsNonPositiveLoanDays(t *testing.T) {
	l, _ := tempLedger(t)
	b := mustBook(t, l, "Emma", "", 1)
	m := mustMember(t, l, "Alice", "")

	for _, days := range []int{0, -3} {
		_, err := l.BorrowBook(context.Background(), b.ID, m.ID, days)
		require.ErrorIs(t, err, ErrInvalidInput)
	}
	assert.Equal(t, 1, available(t, l, b.ID))
}

func TestBorrowUnavailableLeavesStateUnchanged(t *testing.T) {
	l, _ := tempLedger(t)
	ctx := context.Background()

	b := mustBook(t, l, "Solo", "", 1)
	alice := mustMember(t, l, "Alice", "")
	bob := mustMember(t, l, "Bob", "")

	_, err := l.BorrowBook(ctx, b.ID, alice.ID, 7)
	require.NoError(t, err)

	_, err = l.BorrowBook(ctx, b.ID, bob.ID, 7)
	require.ErrorIs(t, err, ErrUnavailable)

	assert.Equal(t, 0, available(t, l, b.ID))
	history, err := l.GetMemberBorrowings(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestReturnWithoutOpenLoan(t *testing.T) {
	l, _ := tempLedger(t)
	ctx := context.Background()

	b := mustBook(t, l, "Emma", "", 2)
	alice := mustMember(t, l, "Alice", "")
	bob := mustMember(t, l, "Bob", "")

	// Never borrowed: nothing changes.
	_, err := l.ReturnBook(ctx, b.ID, alice.ID)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 2, available(t, l, b.ID))

	// Borrowed by Alice, "returned" by Bob.
	_, err = l.BorrowBook(ctx, b.ID, alice.ID, 14)
	require.NoError(t, err)
	_, err = l.ReturnBook(ctx, b.ID, bob.ID)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, available(t, l, b.ID))

	// Returned twice.
	_, err = l.ReturnBook(ctx, b.ID, alice.ID)
	require.NoError(t, err)
	_, err = l.ReturnBook(ctx, b.ID, alice.ID)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 2, available(t, l, b.ID))
}

func TestReturnClosesMostRecentOpenLoan(t *testing.T) {
	l, clock := tempLedger(t)
	ctx := context.Background()

	b := mustBook(t, l, "Emma", "", 2)
	m := mustMember(t, l, "Alice", "")

	first, err := l.BorrowBook(ctx, b.ID, m.ID, 14)
	require.NoError(t, err)
	clock.Advance(24 * time.Hour)
	second, err := l.BorrowBook(ctx, b.ID, m.ID, 14)
	require.NoError(t, err)

	clock.Advance(time.Hour)
	returned, err := l.ReturnBook(ctx, b.ID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, returned.ID)

	history, err := l.GetMemberBorrowings(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].BorrowingID)
	assert.NotNil(t, history[0].ReturnDate)
	assert.Equal(t, first.ID, history[1].BorrowingID)
	assert.Nil(t, history[1].ReturnDate)
}

func TestGetOverdueBorrowings(t *testing.T) {
	l, clock := tempLedger(t)
	ctx := context.Background()

	b := mustBook(t, l, "Emma", "", 2)
	other := mustBook(t, l, "Persuasion", "", 1)
	alice := mustMember(t, l, "Alice", "")

	_, err := l.BorrowBook(ctx, b.ID, alice.ID, 1)
	require.NoError(t, err)
	_, err = l.BorrowBook(ctx, other.ID, alice.ID, 30)
	require.NoError(t, err)

	overdue, err := l.GetOverdueBorrowings(ctx)
	require.NoError(t, err)
	assert.Empty(t, overdue)

	// Due exactly now is not yet overdue.
	clock.Advance(24 * time.Hour)
	overdue, err = l.GetOverdueBorrowings(ctx)
	require.NoError(t, err)
	assert.Empty(t, overdue)

	clock.Advance(time.Minute)
	overdue, err = l.GetOverdueBorrowings(ctx)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "Emma", overdue[0].Title)
	assert.Equal(t, "Alice", overdue[0].MemberName)
	assert.True(t, overdue[0].DueDate.Equal(base.AddDate(0, 0, 1)))

	_, err = l.ReturnBook(ctx, b.ID, alice.ID)
	require.NoError(t, err)
	overdue, err = l.GetOverdueBorrowings(ctx)
	require.NoError(t, err)
	assert.Empty(t, overdue)
}

func TestGetMemberBorrowingsOrder(t *testing.T) {
	l, clock := tempLedger(t)
	ctx := context.Background()

	m := mustMember(t, l, "Alice", "")
	titles := []string{"First", "Second", "Third"}
	for _, title := range titles {
		b := mustBook(t, l, title, "", 1)
		_, err := l.BorrowBook(ctx, b.ID, m.ID, 14)
		require.NoError(t, err)
		clock.Advance(time.Hour)
	}

	history, err := l.GetMemberBorrowings(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "Third", history[0].Title)
	assert.Equal(t, "Second", history[1].Title)
	assert.Equal(t, "First", history[2].Title)
	for _, h := range history {
		assert.Nil(t, h.ReturnDate)
	}

	_, err = l.GetMemberBorrowings(ctx, 999)
	require.ErrorIs(t, err, ErrNotFound)

	empty := mustMember(t, l, "Bob", "")
	history, err = l.GetMemberBorrowings(ctx, empty.ID)
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)
}

func TestSearchBooks(t *testing.T) {
	l, _ := tempLedger(t)
	ctx := context.Background()

	dune := mustBook(t, l, "Dune", "111", 1)
	_, err := l.RegisterBook(ctx, "Children of Dune", "Frank Herbert", "9780441104024", 1)
	require.NoError(t, err)
	emma := mustBook(t, l, "Emma", "", 1)
	odd := mustBook(t, l, "100% Pure_Fun", "", 1)
	_, err = l.RegisterBook(ctx, "Ética a Nicómaco", "Aristóteles", "", 1)
	require.NoError(t, err)
	_, err = l.RegisterBook(ctx, "Ökonomie", "Ludwig Straße", "", 1)
	require.NoError(t, err)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "lowercase title", query: "dune", want: []string{"Dune", "Children of Dune"}},
		{name: "author", query: "HERBERT", want: []string{"Children of Dune"}},
		{name: "isbn fragment", query: "0441", want: []string{"Children of Dune"}},
		{name: "exact isbn", query: "111", want: []string{"Dune"}},
		{name: "percent is literal", query: "%", want: []string{"100% Pure_Fun"}},
		{name: "underscore is literal", query: "e_f", want: []string{"100% Pure_Fun"}},
		{name: "no match", query: "tolstoy", want: []string{}},
		{name: "non-ascii exact case", query: "Ética", want: []string{"Ética a Nicómaco"}},
		{name: "non-ascii lowercase query", query: "ética", want: []string{"Ética a Nicómaco"}},
		{name: "non-ascii uppercase query", query: "ÖKONOMIE", want: []string{"Ökonomie"}},
		{name: "non-ascii inside word", query: "NICÓMACO", want: []string{"Ética a Nicómaco"}},
		{name: "non-ascii author", query: "straße", want: []string{"Ökonomie"}},
		{name: "empty query lists all", query: "", want: []string{"Dune", "Children of Dune", "Emma", "100% Pure_Fun", "Ética a Nicómaco", "Ökonomie"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			books, err := l.SearchBooks(ctx, tt.query)
			require.NoError(t, err)
			got := make([]string, 0, len(books))
			for _, b := range books {
				got = append(got, b.Title)
			}
			assert.Equal(t, tt.want, got)
		})
	}

	all, err := l.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, all, 6)
	assert.Equal(t, dune.ID, all[0].ID)
	assert.Equal(t, emma.ID, all[2].ID)
	assert.Equal(t, odd.ID, all[3].ID)
}

func TestLedgerOptions(t *testing.T) {
	l, _ := tempLedger(t, WithDefaultLoanDays(21))
	assert.Equal(t, 21, l.DefaultLoanDays())

	_, err := NewLedger(t.TempDir()+"/x.db", WithDefaultLoanDays(0))
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewLedger(t.TempDir()+"/y.db", WithClock(nil))
	require.ErrorIs(t, err, ErrInvalidInput)

	plain, err := NewLedger(t.TempDir() + "/z.db")
	require.NoError(t, err)
	defer plain.Close()
	assert.Equal(t, DefaultLoanDays, plain.DefaultLoanDays())
}

func TestLedgerLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	l, _ := tempLedger(t, WithLogger(logger))
	ctx := context.Background()

	b := mustBook(t, l, "Solo", "", 1)
	m := mustMember(t, l, "Alice", "")
	_, err := l.BorrowBook(ctx, b.ID, m.ID, 14)
	require.NoError(t, err)
	_, err = l.BorrowBook(ctx, b.ID, m.ID, 14)
	require.ErrorIs(t, err, ErrUnavailable)

	out := buf.String()
	assert.Contains(t, out, logMsgBookRegistered)
	assert.Contains(t, out, logMsgBookBorrowed)
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "operation=borrow_book")
}
