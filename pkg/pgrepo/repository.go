package pgrepo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// touchColumn is refreshed on every update when the entity declares it.
const touchColumn = "updated_at"

// DB is the subset of pgxpool.Pool the repository needs. Transactions
// satisfy it too, so callers wanting atomicity can pass a pgx.Tx.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ScanFunc maps one result row onto the entity type. pgx.Rows satisfies
// pgx.Row, so the same function serves single- and multi-row reads.
type ScanFunc[T any] func(row pgx.Row) (*T, error)

// DefaultsFunc fills in generated column values (uuid, secrets) on a copy
// of the create payload before it is written.
type DefaultsFunc func(data Data) Data

// Repository is a generic CRUD/query engine over a single table described
// by a Descriptor. Filters, ordering and pagination all go through the
// field DSL, so every query it emits is parameterized.
type Repository[T any] struct {
	db       DB
	desc     Descriptor
	scan     ScanFunc[T]
	idColumn string
	defaults DefaultsFunc
}

type Option[T any] func(*Repository[T])

// WithIDColumn overrides the primary key column used by UpdateByID.
func WithIDColumn[T any](column string) Option[T] {
	return func(r *Repository[T]) { r.idColumn = column }
}

// WithCreateDefaults registers generated defaults applied by Create (and
// therefore by GetOrCreate / UpdateOrCreate when they fall through to a
// create).
func WithCreateDefaults[T any](fn DefaultsFunc) Option[T] {
	return func(r *Repository[T]) { r.defaults = fn }
}

func New[T any](db DB, desc Descriptor, scan ScanFunc[T], opts ...Option[T]) *Repository[T] {
	r := &Repository[T]{
		db:       db,
		desc:     desc,
		scan:     scan,
		idColumn: "id",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository[T]) Descriptor() Descriptor {
	return r.desc
}

// conditions resolves a filter into predicates. Keys are walked in sorted
// order so the same filter always renders the same SQL. A nil or empty
// filter matches every row.
func (r *Repository[T]) conditions(filter Filter) ([]sq.Sqlizer, error) {
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conds := make([]sq.Sqlizer, 0, len(keys))
	for _, k := range keys {
		cond, err := condition(r.desc, k, filter[k])
		if err != nil {
			return nil, err
		}
		conds = append(conds, cond)
	}
	return conds, nil
}

func (r *Repository[T]) Count(ctx context.Context, filter Filter) (int64, error) {
	conds, err := r.conditions(filter)
	if err != nil {
		return 0, err
	}

	builder := psql.Select("COUNT(*)").From(r.desc.Table)
	for _, c := range conds {
		builder = builder.Where(c)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query for %s: %w", r.desc.Table, err)
	}

	var count int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows in %s: %w", r.desc.Table, err)
	}
	return count, nil
}

func (r *Repository[T]) Exists(ctx context.Context, filter Filter) (bool, error) {
	conds, err := r.conditions(filter)
	if err != nil {
		return false, err
	}

	builder := psql.Select("1").From(r.desc.Table)
	for _, c := range conds {
		builder = builder.Where(c)
	}

	inner, args, err := builder.ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build exists query for %s: %w", r.desc.Table, err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx, "SELECT EXISTS ("+inner+")", args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check existence in %s: %w", r.desc.Table, err)
	}
	return exists, nil
}

// GetFirst returns the first matching row, or nil when nothing matches.
// No ORDER BY is applied: "first" means the storage's default row order,
// so callers should narrow the filter to at most one logical match.
func (r *Repository[T]) GetFirst(ctx context.Context, filter Filter) (*T, error) {
	conds, err := r.conditions(filter)
	if err != nil {
		return nil, err
	}

	builder := psql.Select(r.desc.Fields...).From(r.desc.Table).Limit(1)
	for _, c := range conds {
		builder = builder.Where(c)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query for %s: %w", r.desc.Table, err)
	}

	row, err := r.scan(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan %s row: %w", r.desc.Table, err)
	}
	return row, nil
}

// GetList applies filter, then ordering, then limit/offset. A nil orderBy
// falls back to the descriptor's default ordering; limit <= 0 means no
// limit.
func (r *Repository[T]) GetList(ctx context.Context, filter Filter, orderBy []string, limit, offset int) ([]*T, error) {
	builder, err := r.listQuery(r.desc.Fields, filter, orderBy, limit, offset)
	if err != nil {
		return nil, err
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list query for %s: %w", r.desc.Table, err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s rows: %w", r.desc.Table, err)
	}
	defer rows.Close()

	result := make([]*T, 0)
	for rows.Next() {
		row, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s row during iteration: %w", r.desc.Table, err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", r.desc.Table, err)
	}
	return result, nil
}

// GetFirstPartial reads a subset of columns from the first matching row.
// An empty field list falls back to the full descriptor field list.
func (r *Repository[T]) GetFirstPartial(ctx context.Context, fields []string, filter Filter) (map[string]any, error) {
	rows, err := r.GetListPartial(ctx, fields, filter, nil, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// GetListPartial is GetList restricted to the given columns, returning
// loosely-typed rows keyed by field name.
func (r *Repository[T]) GetListPartial(ctx context.Context, fields []string, filter Filter, orderBy []string, limit, offset int) ([]map[string]any, error) {
	if len(fields) == 0 {
		fields = r.desc.Fields
	}
	if err := r.desc.checkSelect(fields); err != nil {
		return nil, err
	}

	builder, err := r.listQuery(fields, filter, orderBy, limit, offset)
	if err != nil {
		return nil, err
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build partial list query for %s: %w", r.desc.Table, err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s rows: %w", r.desc.Table, err)
	}
	defer rows.Close()

	result := make([]map[string]any, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s row values: %w", r.desc.Table, err)
		}
		record := make(map[string]any, len(fields))
		for i, fd := range rows.FieldDescriptions() {
			record[fd.Name] = values[i]
		}
		result = append(result, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", r.desc.Table, err)
	}
	return result, nil
}

func (r *Repository[T]) listQuery(fields []string, filter Filter, orderBy []string, limit, offset int) (sq.SelectBuilder, error) {
	conds, err := r.conditions(filter)
	if err != nil {
		return sq.SelectBuilder{}, err
	}
	if orderBy == nil {
		orderBy = r.desc.DefaultOrder
	}
	order, err := r.desc.orderClauses(orderBy)
	if err != nil {
		return sq.SelectBuilder{}, err
	}

	builder := psql.Select(fields...).From(r.desc.Table)
	for _, c := range conds {
		builder = builder.Where(c)
	}
	if len(order) > 0 {
		builder = builder.OrderBy(order...)
	}
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	if offset > 0 {
		builder = builder.Offset(uint64(offset))
	}
	return builder, nil
}

// Create inserts a new row and returns it as stored, including
// storage-assigned columns (id, timestamps) and generated defaults.
func (r *Repository[T]) Create(ctx context.Context, data Data) (*T, error) {
	if r.defaults != nil {
		data = r.defaults(cloneData(data))
	}
	if err := r.desc.checkFields(data); err != nil {
		return nil, err
	}

	builder := psql.Insert(r.desc.Table).
		SetMap(map[string]any(data)).
		Suffix("RETURNING " + strings.Join(r.desc.Fields, ", "))

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert query for %s: %w", r.desc.Table, err)
	}

	row, err := r.scan(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("failed to insert into %s: %w", r.desc.Table, err)
	}
	return row, nil
}

// Update changes every row matching the filter. With returnUpdated it
// returns the first updated row (callers wanting a well-defined result
// should filter on a unique key); otherwise it returns (nil, nil).
func (r *Repository[T]) Update(ctx context.Context, filter Filter, data Data, returnUpdated bool) (*T, error) {
	if err := r.desc.checkFields(data); err != nil {
		return nil, err
	}
	conds, err := r.conditions(filter)
	if err != nil {
		return nil, err
	}

	builder := psql.Update(r.desc.Table).SetMap(map[string]any(data))
	if r.desc.HasField(touchColumn) {
		if _, ok := data[touchColumn]; !ok {
			builder = builder.Set(touchColumn, sq.Expr("NOW()"))
		}
	}
	for _, c := range conds {
		builder = builder.Where(c)
	}

	if !returnUpdated {
		query, args, err := builder.ToSql()
		if err != nil {
			return nil, fmt.Errorf("failed to build update query for %s: %w", r.desc.Table, err)
		}
		if _, err := r.db.Exec(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("failed to update %s: %w", r.desc.Table, err)
		}
		return nil, nil
	}

	builder = builder.Suffix("RETURNING " + strings.Join(r.desc.Fields, ", "))
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update query for %s: %w", r.desc.Table, err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", r.desc.Table, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to update %s: %w", r.desc.Table, err)
		}
		return nil, nil
	}
	row, err := r.scan(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan updated %s row: %w", r.desc.Table, err)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", r.desc.Table, err)
	}
	return row, nil
}

// UpdateByID updates a single row by primary key and returns it. The
// fastest and safest update path: no ambiguity about which row changes.
func (r *Repository[T]) UpdateByID(ctx context.Context, id any, data Data) (*T, error) {
	return r.Update(ctx, Filter{r.idColumn: id}, data, true)
}

// GetOrCreate returns the first row matching the filter, creating one from
// data when nothing matches. Check-then-act: two concurrent callers can
// both observe "absent" and race into Create, where the loser hits the
// unique constraint.
func (r *Repository[T]) GetOrCreate(ctx context.Context, filter Filter, data Data) (*T, error) {
	row, err := r.GetFirst(ctx, filter)
	if err != nil {
		return nil, err
	}
	if row != nil {
		return row, nil
	}
	return r.Create(ctx, data)
}

// UpdateOrCreate updates rows where field equals value, creating a fresh
// row when nothing was updated. Same non-atomic caveat as GetOrCreate.
func (r *Repository[T]) UpdateOrCreate(ctx context.Context, field string, value any, data Data) (*T, error) {
	row, err := r.Update(ctx, Filter{field: value}, data, true)
	if err != nil {
		return nil, err
	}
	if row != nil {
		return row, nil
	}
	return r.Create(ctx, data)
}

// Delete removes every matching row and reports whether any row went away.
// An empty filter deletes the whole table; that is deliberate, mind the
// blast radius.
func (r *Repository[T]) Delete(ctx context.Context, filter Filter) (bool, error) {
	conds, err := r.conditions(filter)
	if err != nil {
		return false, err
	}

	builder := psql.Delete(r.desc.Table)
	for _, c := range conds {
		builder = builder.Where(c)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build delete query for %s: %w", r.desc.Table, err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to delete from %s: %w", r.desc.Table, err)
	}
	return tag.RowsAffected() > 0, nil
}

func cloneData(data Data) Data {
	clone := make(Data, len(data))
	for k, v := range data {
		clone[k] = v
	}
	return clone
}
