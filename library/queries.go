package library

import (
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/doug-martin/goqu/v9/exp"
)

// ErrBuildingQueryFailed wraps goqu failures; it indicates a programming error.
var ErrBuildingQueryFailed = errors.New("building query failed")

const (
	dialectSQLite = "sqlite3"

	colID         = "id"
	colTitle      = "title"
	colAuthor     = "author"
	colISBN       = "isbn"
	colQuantity   = "quantity"
	colAvailable  = "available"
	colName       = "name"
	colEmail      = "email"
	colPhone      = "phone"
	colJoinDate   = "join_date"
	colBookID     = "book_id"
	colMemberID   = "member_id"
	colBorrowDate = "borrow_date"
	colDueDate    = "due_date"
	colReturnDate = "return_date"

	aliasBorrowings = "br"
	aliasBooks      = "b"
	aliasMembers    = "m"
)

var dialect = goqu.Dialect(dialectSQLite)

// toSQL renders ds with bind parameters so the sqlite3 driver formats
// time.Time values the same way it stored them.
func toSQL(ds *goqu.SelectDataset) (string, []any, error) {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return "", nil, errors.Join(ErrBuildingQueryFailed, err)
	}
	return query, args, nil
}

func col(alias, name string) exp.IdentifierExpression {
	return goqu.T(alias).Col(name)
}

func booksSelect() *goqu.SelectDataset {
	return dialect.From(tableBooks).
		Select(
			goqu.C(colID),
			goqu.C(colTitle),
			goqu.C(colAuthor),
			goqu.COALESCE(goqu.C(colISBN), "").As(colISBN),
			goqu.C(colQuantity),
			goqu.C(colAvailable),
		).
		Order(goqu.C(colID).Asc())
}

func membersSelect() *goqu.SelectDataset {
	return dialect.From(tableMembers).
		Select(
			goqu.C(colID),
			goqu.C(colName),
			goqu.COALESCE(goqu.C(colEmail), "").As(colEmail),
			goqu.COALESCE(goqu.C(colPhone), "").As(colPhone),
			goqu.C(colJoinDate),
		).
		Order(goqu.C(colID).Asc())
}

func bookByIDQuery(id int64) (string, []any, error) {
	return toSQL(booksSelect().Where(goqu.C(colID).Eq(id)))
}

func memberByIDQuery(id int64) (string, []any, error) {
	return toSQL(membersSelect().Where(goqu.C(colID).Eq(id)))
}

func allMembersQuery() (string, []any, error) {
	return toSQL(membersSelect())
}

// containsFold matches rows whose column contains needle, ignoring case.
// Both sides go through fold, registered by the driver in database.go.
// instr avoids LIKE, so '%' and '_' in the needle are literal.
func containsFold(column, needle string) exp.Expression {
	return goqu.Func("instr",
		goqu.Func("fold", goqu.COALESCE(goqu.C(column), "")),
		goqu.Func("fold", needle),
	).Gt(0)
}

func searchBooksQuery(q string) (string, []any, error) {
	ds := booksSelect()
	if q != "" {
		ds = ds.Where(goqu.Or(
			containsFold(colTitle, q),
			containsFold(colAuthor, q),
			containsFold(colISBN, q),
		))
	}
	return toSQL(ds)
}

func borrowingsSelect() *goqu.SelectDataset {
	return dialect.From(tableBorrowings).
		Select(colID, colBookID, colMemberID, colBorrowDate, colDueDate, colReturnDate)
}

func latestOpenBorrowingQuery(bookID, memberID int64) (string, []any, error) {
	ds := borrowingsSelect().
		Where(
			goqu.C(colBookID).Eq(bookID),
			goqu.C(colMemberID).Eq(memberID),
			goqu.C(colReturnDate).IsNull(),
		).
		Order(goqu.C(colBorrowDate).Desc(), goqu.C(colID).Desc()).
		Limit(1)
	return toSQL(ds)
}

func openLoanCountQuery(bookID int64) (string, []any, error) {
	ds := dialect.From(tableBorrowings).
		Select(goqu.COUNT(goqu.Star())).
		Where(goqu.C(colBookID).Eq(bookID), goqu.C(colReturnDate).IsNull())
	return toSQL(ds)
}

func overdueQuery(now time.Time) (string, []any, error) {
	ds := dialect.From(goqu.T(tableBorrowings).As(aliasBorrowings)).
		Join(goqu.T(tableBooks).As(aliasBooks), goqu.On(col(aliasBooks, colID).Eq(col(aliasBorrowings, colBookID)))).
		Join(goqu.T(tableMembers).As(aliasMembers), goqu.On(col(aliasMembers, colID).Eq(col(aliasBorrowings, colMemberID)))).
		Select(
			col(aliasBorrowings, colID).As("borrowing_id"),
			col(aliasBooks, colID).As("book_id"),
			col(aliasBooks, colTitle).As("title"),
			col(aliasMembers, colID).As("member_id"),
			col(aliasMembers, colName).As("member_name"),
			col(aliasBorrowings, colDueDate).As("due_date"),
		).
		Where(
			col(aliasBorrowings, colReturnDate).IsNull(),
			col(aliasBorrowings, colDueDate).Lt(now),
		).
		Order(col(aliasBorrowings, colDueDate).Asc(), col(aliasBorrowings, colID).Asc())
	return toSQL(ds)
}

func memberLoansQuery(memberID int64) (string, []any, error) {
	ds := dialect.From(goqu.T(tableBorrowings).As(aliasBorrowings)).
		Join(goqu.T(tableBooks).As(aliasBooks), goqu.On(col(aliasBooks, colID).Eq(col(aliasBorrowings, colBookID)))).
		Select(
			col(aliasBorrowings, colID).As("borrowing_id"),
			col(aliasBooks, colID).As("book_id"),
			col(aliasBooks, colTitle).As("title"),
			col(aliasBorrowings, colBorrowDate).As("borrow_date"),
			col(aliasBorrowings, colDueDate).As("due_date"),
			col(aliasBorrowings, colReturnDate).As("return_date"),
		).
		Where(col(aliasBorrowings, colMemberID).Eq(memberID)).
		Order(col(aliasBorrowings, colBorrowDate).Desc(), col(aliasBorrowings, colID).Desc())
	return toSQL(ds)
}
