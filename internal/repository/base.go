package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql" // registers the mysql dialect
	"github.com/doug-martin/goqu/v9/exp"
)

// dialect renders every generated statement with MySQL quoting and ?
// placeholders.
var dialect = goqu.Dialect("mysql")

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// Table describes how a model maps onto one table.
type Table[T any] struct {
	Name       string
	PrimaryKey string
	Columns    []string
	Scan       func(Scanner) (T, error)
}

func (t Table[T]) selectCols() []any {
	cols := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = c
	}
	return cols
}

// Base is the generic data-access object embedded by every entity
// repository. It covers plain single-table CRUD; joins and domain lookups
// live on the embedding type.
type Base[T any] struct {
	db    *sql.DB
	table Table[T]
}

// NewBase binds a table definition to a pool.
func NewBase[T any](db *sql.DB, table Table[T]) Base[T] {
	return Base[T]{db: db, table: table}
}

// DB exposes the pool for repository-specific queries.
func (b Base[T]) DB() *sql.DB { return b.db }

// FindAll returns every row ordered by primary key.
func (b Base[T]) FindAll(ctx context.Context) ([]T, error) {
	q, args, err := dialect.From(b.table.Name).
		Select(b.table.selectCols()...).
		Order(goqu.I(b.table.PrimaryKey).Asc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	return b.query(ctx, q, args...)
}

// FindByID returns the row with the given primary key or ErrNotFound.
func (b Base[T]) FindByID(ctx context.Context, id int64) (T, error) {
	q, args, err := dialect.From(b.table.Name).
		Select(b.table.selectCols()...).
		Where(goqu.Ex{b.table.PrimaryKey: id}).
		Limit(1).
		Prepared(true).ToSQL()
	if err != nil {
		var zero T
		return zero, err
	}
	return b.queryOne(ctx, q, args...)
}

// Create inserts rec and returns the stored row.
func (b Base[T]) Create(ctx context.Context, rec goqu.Record) (T, error) {
	var zero T
	if len(rec) == 0 {
		return zero, ErrEmptyRecord
	}
	q, args, err := dialect.Insert(b.table.Name).Rows(rec).Prepared(true).ToSQL()
	if err != nil {
		return zero, err
	}
	res, err := b.db.ExecContext(ctx, q, args...)
	if err != nil {
		return zero, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return zero, err
	}
	return b.FindByID(ctx, id)
}

// Update applies rec to the row and returns it. An empty record is a read.
func (b Base[T]) Update(ctx context.Context, id int64, rec goqu.Record) (T, error) {
	if len(rec) == 0 {
		return b.FindByID(ctx, id)
	}
	q, args, err := dialect.Update(b.table.Name).
		Set(rec).
		Where(goqu.Ex{b.table.PrimaryKey: id}).
		Prepared(true).ToSQL()
	if err != nil {
		var zero T
		return zero, err
	}
	if _, err := b.db.ExecContext(ctx, q, args...); err != nil {
		var zero T
		return zero, err
	}
	// MySQL reports zero affected rows for no-op updates, so existence is
	// decided by the read-back.
	return b.FindByID(ctx, id)
}

// Delete removes the row and reports whether it existed.
func (b Base[T]) Delete(ctx context.Context, id int64) (bool, error) {
	q, args, err := dialect.Delete(b.table.Name).
		Where(goqu.Ex{b.table.PrimaryKey: id}).
		Prepared(true).ToSQL()
	if err != nil {
		return false, err
	}
	res, err := b.db.ExecContext(ctx, q, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Count returns the number of rows matching where (all rows when nil).
func (b Base[T]) Count(ctx context.Context, where goqu.Ex) (int, error) {
	ds := dialect.From(b.table.Name).Select(goqu.COUNT(goqu.Star()))
	if len(where) > 0 {
		ds = ds.Where(where)
	}
	q, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return 0, err
	}
	var n int
	if err := b.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// FindWhere returns rows matching where, ordered by order (primary key
// when empty).
func (b Base[T]) FindWhere(ctx context.Context, where goqu.Ex, order ...exp.OrderedExpression) ([]T, error) {
	ds := dialect.From(b.table.Name).Select(b.table.selectCols()...)
	if len(where) > 0 {
		ds = ds.Where(where)
	}
	if len(order) == 0 {
		ds = ds.Order(goqu.I(b.table.PrimaryKey).Asc())
	} else {
		ds = ds.Order(order...)
	}
	q, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	return b.query(ctx, q, args...)
}

// FindOneWhere returns the first row matching where or ErrNotFound.
func (b Base[T]) FindOneWhere(ctx context.Context, where goqu.Ex) (T, error) {
	q, args, err := dialect.From(b.table.Name).
		Select(b.table.selectCols()...).
		Where(where).
		Limit(1).
		Prepared(true).ToSQL()
	if err != nil {
		var zero T
		return zero, err
	}
	return b.queryOne(ctx, q, args...)
}

func (b Base[T]) query(ctx context.Context, q string, args ...any) ([]T, error) {
	rows, err := b.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAll(rows, b.table.Scan)
}

func (b Base[T]) queryOne(ctx context.Context, q string, args ...any) (T, error) {
	v, err := b.table.Scan(b.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		var zero T
		return zero, fmt.Errorf("%s: %w", b.table.Name, ErrNotFound)
	}
	return v, err
}

// scanAll drains rows through scan. It never returns a nil slice so empty
// listings encode as [].
func scanAll[T any](rows *sql.Rows, scan func(Scanner) (T, error)) ([]T, error) {
	out := make([]T, 0)
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
