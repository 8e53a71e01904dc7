package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

// driverName is go-sqlite3 with a fold(text) SQL function registered on every
// connection. SQLite's own lower() only folds ASCII.
const driverName = "sqlite3_library"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("fold", strings.ToLower, true)
		},
	})
}

const (
	tableBooks      = "books"
	tableMembers    = "members"
	tableBorrowings = "borrowings"
)

// Database provides high-level helpers around a SQLite connection.
type Database struct {
	db *sqlx.DB

	addBookStmt      *sqlx.Stmt
	addMemberStmt    *sqlx.Stmt
	addBorrowingStmt *sqlx.Stmt
}

// NewDatabase opens (or creates) the SQLite database at dbPath, applies schema
// migrations, and prepares common statements.
func NewDatabase(dbPath string) (*Database, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	// Enable busy_timeout and foreign keys.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", dbPath)
	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One session, one connection: a transaction always sees its own writes.
	db.SetMaxOpenConns(1)

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	database := &Database{db: db}
	if err := database.prepareStatements(); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// Close releases prepared statements and closes the DB.
func (d *Database) Close() error {
	for _, stmt := range []*sqlx.Stmt{d.addBookStmt, d.addMemberStmt, d.addBorrowingStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return d.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sqlx.DB) error {
	// WAL keeps readers off the writer's back.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS books (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            isbn TEXT UNIQUE,
            quantity INTEGER NOT NULL DEFAULT 1 CHECK (quantity > 0),
            available INTEGER NOT NULL DEFAULT 1,
            CHECK (available BETWEEN 0 AND quantity)
        );`,
		`CREATE TABLE IF NOT EXISTS members (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            email TEXT UNIQUE,
            phone TEXT,
            join_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS borrowings (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            book_id INTEGER NOT NULL REFERENCES books(id),
            member_id INTEGER NOT NULL REFERENCES members(id),
            borrow_date DATETIME NOT NULL,
            due_date DATETIME NOT NULL,
            return_date DATETIME
        );`,
		`CREATE INDEX IF NOT EXISTS idx_borrowings_book_member ON borrowings(book_id, member_id);`,
		`CREATE INDEX IF NOT EXISTS idx_borrowings_member_date ON borrowings(member_id, borrow_date);`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	return tx.Commit()
}

// SchemaVersion reports the migration level recorded in the meta table.
func (d *Database) SchemaVersion() (int, error) {
	var v int
	err := d.db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&v)
	return v, err
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (d *Database) prepareStatements() error {
	var err error
	if d.addBookStmt, err = d.db.Preparex(`INSERT INTO books(title,author,isbn,quantity,available) VALUES(?,?,?,?,?)`); err != nil {
		return err
	}
	if d.addMemberStmt, err = d.db.Preparex(`INSERT INTO members(name,email,phone,join_date) VALUES(?,?,?,?)`); err != nil {
		return err
	}
	if d.addBorrowingStmt, err = d.db.Preparex(`INSERT INTO borrowings(book_id,member_id,borrow_date,due_date) VALUES(?,?,?,?)`); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Transactions
// ---------------------------------------------------------------------------

// InTx runs fn inside a single transaction. The transaction commits only when
// fn returns nil; every other exit path rolls it back.
func (d *Database) InTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// CRUD helpers
// ---------------------------------------------------------------------------

// nullable stores empty optional text as NULL so UNIQUE only applies to real values.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// AddBook inserts a book with every copy available.
func (d *Database) AddBook(ctx context.Context, title, author, isbn string, quantity int) (int64, error) {
	res, err := d.addBookStmt.ExecContext(ctx, title, author, nullable(isbn), quantity, quantity)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: isbn %q already registered", ErrDuplicateKey, isbn)
		}
		return 0, err
	}
	return res.LastInsertId()
}

// AddMember inserts a member joining at joined.
func (d *Database) AddMember(ctx context.Context, name, email, phone string, joined time.Time) (int64, error) {
	res, err := d.addMemberStmt.ExecContext(ctx, name, nullable(email), nullable(phone), joined)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: email %q already registered", ErrDuplicateKey, email)
		}
		return 0, err
	}
	return res.LastInsertId()
}

// GetBook fetches a single book through q, which may be the DB or an open transaction.
func (d *Database) GetBook(ctx context.Context, q sqlx.QueryerContext, id int64) (*Book, error) {
	query, args, err := bookByIDQuery(id)
	if err != nil {
		return nil, err
	}
	var b Book
	if err := sqlx.GetContext(ctx, q, &b, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: book %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &b, nil
}

// GetMember fetches a single member through q.
func (d *Database) GetMember(ctx context.Context, q sqlx.QueryerContext, id int64) (*Member, error) {
	query, args, err := memberByIDQuery(id)
	if err != nil {
		return nil, err
	}
	var m Member
	if err := sqlx.GetContext(ctx, q, &m, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: member %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &m, nil
}

// DB exposes the connection for read-only helpers that run outside a transaction.
func (d *Database) DB() *sqlx.DB { return d.db }

// TakeCopy decrements availability. It reports false when no copy was free.
func (d *Database) TakeCopy(ctx context.Context, tx *sqlx.Tx, bookID int64) (bool, error) {
	res, err := tx.ExecContext(ctx, `UPDATE books SET available = available - 1 WHERE id = ? AND available > 0`, bookID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// PutCopyBack increments availability, never past quantity.
func (d *Database) PutCopyBack(ctx context.Context, tx *sqlx.Tx, bookID int64) error {
	_, err := tx.ExecContext(ctx, `UPDATE books SET available = MIN(available + 1, quantity) WHERE id = ?`, bookID)
	return err
}

// AddBorrowing records an open loan inside tx.
func (d *Database) AddBorrowing(ctx context.Context, tx *sqlx.Tx, br *Borrowing) (int64, error) {
	res, err := tx.StmtxContext(ctx, d.addBorrowingStmt).ExecContext(ctx, br.BookID, br.MemberID, br.BorrowDate, br.DueDate)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// LatestOpenBorrowing finds the most recently issued open loan of bookID to memberID.
func (d *Database) LatestOpenBorrowing(ctx context.Context, q sqlx.QueryerContext, bookID, memberID int64) (*Borrowing, error) {
	query, args, err := latestOpenBorrowingQuery(bookID, memberID)
	if err != nil {
		return nil, err
	}
	var br Borrowing
	if err := sqlx.GetContext(ctx, q, &br, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: no open loan of book %d to member %d", ErrNotFound, bookID, memberID)
		}
		return nil, err
	}
	return &br, nil
}

// CloseBorrowing sets the return date of an open loan. A loan already closed is left alone.
func (d *Database) CloseBorrowing(ctx context.Context, tx *sqlx.Tx, id int64, returned time.Time) error {
	res, err := tx.ExecContext(ctx, `UPDATE borrowings SET return_date = ? WHERE id = ? AND return_date IS NULL`, returned, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("%w: open loan %d", ErrNotFound, id)
	}
	return nil
}

// SearchBooks returns books whose title, author or ISBN contains q, ignoring case.
func (d *Database) SearchBooks(ctx context.Context, q string) ([]*Book, error) {
	query, args, err := searchBooksQuery(q)
	if err != nil {
		return nil, err
	}
	books := []*Book{}
	if err := sqlx.SelectContext(ctx, d.db, &books, query, args...); err != nil {
		return nil, err
	}
	return books, nil
}

// GetAllBooks returns the catalog ordered by id.
func (d *Database) GetAllBooks(ctx context.Context) ([]*Book, error) {
	return d.SearchBooks(ctx, "")
}

// GetAllMembers returns all members ordered by id.
func (d *Database) GetAllMembers(ctx context.Context) ([]*Member, error) {
	query, args, err := allMembersQuery()
	if err != nil {
		return nil, err
	}
	members := []*Member{}
	if err := sqlx.SelectContext(ctx, d.db, &members, query, args...); err != nil {
		return nil, err
	}
	return members, nil
}

// OverdueBorrowings lists open loans due strictly before now.
func (d *Database) OverdueBorrowings(ctx context.Context, now time.Time) ([]OverdueLoan, error) {
	query, args, err := overdueQuery(now)
	if err != nil {
		return nil, err
	}
	loans := []OverdueLoan{}
	if err := sqlx.SelectContext(ctx, d.db, &loans, query, args...); err != nil {
		return nil, err
	}
	return loans, nil
}

// MemberBorrowings lists every loan of a member, most recent first.
func (d *Database) MemberBorrowings(ctx context.Context, memberID int64) ([]MemberLoan, error) {
	query, args, err := memberLoansQuery(memberID)
	if err != nil {
		return nil, err
	}
	loans := []MemberLoan{}
	if err := sqlx.SelectContext(ctx, d.db, &loans, query, args...); err != nil {
		return nil, err
	}
	return loans, nil
}

// OpenLoanCount counts loans of bookID that have not been returned.
func (d *Database) OpenLoanCount(ctx context.Context, bookID int64) (int, error) {
	query, args, err := openLoanCountQuery(bookID)
	if err != nil {
		return 0, err
	}
	var n int
	if err := sqlx.GetContext(ctx, d.db, &n, query, args...); err != nil {
		return 0, err
	}
	return n, nil
}
