// Package record implements a generic create/read/update/delete adapter over
// Postgres, parameterized by entity type. Row mapping uses pgx struct
// scanning by column name, so one Store serves every resource table; the
// per-resource packages only declare their table, columns, and entity type.
package record

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/artfolio/service/internal/apperror"
	"github.com/artfolio/service/internal/query"
)

// DB is the subset of pgxpool.Pool the store uses. Narrowed to an interface
// so tests can record the generated SQL.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Fields is an ordered set of column/value pairs for inserts and updates.
// Order is preserved so generated SQL is deterministic.
type Fields struct {
	columns []string
	values  []any
}

// Set appends a column/value pair and returns the receiver for chaining.
func (f *Fields) Set(column string, value any) *Fields {
	f.columns = append(f.columns, column)
	f.values = append(f.values, value)
	return f
}

// Len returns the number of pairs set.
func (f *Fields) Len() int { return len(f.columns) }

// Each calls fn for every column/value pair in insertion order.
func (f *Fields) Each(fn func(column string, value any)) {
	for i, column := range f.columns {
		fn(column, f.values[i])
	}
}

// Store is a generic record store for one table. T must be a struct whose
// fields carry db tags matching the declared columns.
type Store[T any] struct {
	db      DB
	table   string
	columns []string
}

// New creates a Store for table with its declared public column list.
func New[T any](db DB, table string, columns []string) *Store[T] {
	return &Store[T]{db: db, table: table, columns: columns}
}

// Insert creates a record and returns the stored row.
func (s *Store[T]) Insert(ctx context.Context, fields *Fields) (*T, error) {
	if fields.Len() == 0 {
		return nil, apperror.Validation("body", "no fields to insert")
	}
	placeholders := make([]string, fields.Len())
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	sql := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		s.table,
		strings.Join(fields.columns, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(s.columns, ", "),
	)
	return s.queryOne(ctx, sql, fields.values...)
}

// FindByID fetches a record by primary key.
func (s *Store[T]) FindByID(ctx context.Context, id string) (*T, error) {
	sql := fmt.Sprintf(
		"SELECT %s FROM %s WHERE id = $1",
		strings.Join(s.columns, ", "), s.table,
	)
	return s.queryOne(ctx, sql, id)
}

// UpdateByID applies the given fields to an existing record and returns the
// updated row.
func (s *Store[T]) UpdateByID(ctx context.Context, id string, fields *Fields) (*T, error) {
	if fields.Len() == 0 {
		return s.FindByID(ctx, id)
	}
	assignments := make([]string, fields.Len())
	for i, column := range fields.columns {
		assignments[i] = fmt.Sprintf("%s = $%d", column, i+1)
	}
	sql := fmt.Sprintf(
		"UPDATE %s SET %s WHERE id = $%d RETURNING %s",
		s.table,
		strings.Join(assignments, ", "),
		fields.Len()+1,
		strings.Join(s.columns, ", "),
	)
	args := append(append([]any{}, fields.values...), id)
	return s.queryOne(ctx, sql, args...)
}

// DeleteByID removes a record by primary key.
func (s *Store[T]) DeleteByID(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.table), id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", s.table, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

// List executes the fetch request described by spec and returns one page of
// records. Projected-away struct fields are left at their zero value.
func (s *Store[T]) List(ctx context.Context, spec query.Spec) ([]*T, error) {
	columns := spec.Columns
	if len(columns) == 0 {
		columns = s.columns
	}
	where, args := spec.Where()
	sql := joinSQL(
		"SELECT "+strings.Join(columns, ", ")+" FROM "+s.table,
		where,
		spec.OrderBy(),
		spec.Pagination(),
	)
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.table, err)
	}
	items, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByNameLax[T])
	if err != nil {
		return nil, fmt.Errorf("scan %s rows: %w", s.table, err)
	}
	return items, nil
}

// Count returns the total number of records matching the spec's filters,
// ignoring sort, projection, and pagination.
func (s *Store[T]) Count(ctx context.Context, spec query.Spec) (int64, error) {
	where, args := spec.Where()
	sql := joinSQL("SELECT COUNT(*) FROM "+s.table, where)
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", s.table, err)
	}
	count, err := pgx.CollectOneRow(rows, pgx.RowTo[int64])
	if err != nil {
		return 0, fmt.Errorf("scan %s count: %w", s.table, err)
	}
	return count, nil
}

func (s *Store[T]) queryOne(ctx context.Context, sql string, args ...any) (*T, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}
	item, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByNameLax[T])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan %s row: %w", s.table, err)
	}
	return item, nil
}

// IsUniqueViolation checks whether an error is a PostgreSQL unique_violation
// (code 23505).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func joinSQL(parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
