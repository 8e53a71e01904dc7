package library

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func tempDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func tempLedger(t *testing.T, opts ...Option) (*Ledger, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: base}
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	l, err := NewLedger(filepath.Join(t.TempDir(), "lib.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l, clock
}

func mustBook(t *testing.T, l *Ledger, title, isbn string, quantity int) *Book {
	t.Helper()
	b, err := l.RegisterBook(context.Background(), title, "Author", isbn, quantity)
	require.NoError(t, err)
	return b
}

func mustMember(t *testing.T, l *Ledger, name, email string) *Member {
	t.Helper()
	m, err := l.RegisterMember(context.Background(), name, email, "555-0100")
	require.NoError(t, err)
	return m
}

func available(t *testing.T, l *Ledger, bookID int64) int {
	t.Helper()
	b, err := l.GetBook(context.Background(), bookID)
	require.NoError(t, err)
	return b.Available
}
