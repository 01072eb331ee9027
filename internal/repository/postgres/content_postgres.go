package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"studioapi/internal/model"
	"studioapi/internal/repository"
)

// TableName maps a content kind to its table.
func TableName(kind string) string {
	return "content_" + strings.ReplaceAll(kind, "-", "_")
}

// ContentPostgres is a PostgreSQL implementation of repository.Repository.
// Each kind lives in its own table with the entity body stored as JSONB; id and
// timestamps are real columns so ordering and pagination stay indexed.
type ContentPostgres[T any, PT model.Entity[T]] struct {
	db    *sql.DB
	table string
}

// NewContentPostgres creates a repository over the table for kind.
func NewContentPostgres[T any, PT model.Entity[T]](db *sql.DB, kind string) *ContentPostgres[T, PT] {
	return &ContentPostgres[T, PT]{
		db:    db,
		table: pgx.Identifier{TableName(kind)}.Sanitize(),
	}
}

var _ repository.Repository[model.Hero] = (*ContentPostgres[model.Hero, *model.Hero])(nil)

const columns = "id, data, created_at, updated_at"

type scanner interface {
	Scan(dest ...any) error
}

func (r *ContentPostgres[T, PT]) scan(s scanner) (*T, error) {
	var (
		id       string
		data     []byte
		created  time.Time
		modified time.Time
	)
	if err := s.Scan(&id, &data, &created, &modified); err != nil {
		return nil, err
	}
	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("decode %s row %s: %w", r.table, id, err)
	}
	meta := PT(out).Meta()
	meta.ID = id
	meta.CreatedAt = created
	meta.UpdatedAt = modified
	return out, nil
}

func (r *ContentPostgres[T, PT]) scanAll(rows *sql.Rows) ([]T, error) {
	defer rows.Close()

	items := make([]T, 0)
	for rows.Next() {
		item, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Create inserts a new row and returns the stored record.
func (r *ContentPostgres[T, PT]) Create(ctx context.Context, item *T) (*T, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", r.table, err)
	}
	meta := PT(item).Meta()

	q := `INSERT INTO ` + r.table + ` (` + columns + `)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + columns
	return r.scan(r.db.QueryRowContext(ctx, q, meta.ID, string(data), meta.CreatedAt, meta.UpdatedAt))
}

// FindByID fetches a single record by its ID.
func (r *ContentPostgres[T, PT]) FindByID(ctx context.Context, id string) (*T, error) {
	q := `SELECT ` + columns + ` FROM ` + r.table + ` WHERE id = $1`
	item, err := r.scan(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return item, err
}

// List returns records using LIMIT/OFFSET pagination and a total count.
func (r *ContentPostgres[T, PT]) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[T], error) {
	where, args := whereClause(pq.Filter)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+r.table+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	q := fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		columns, r.table, where, orderBy(pq.Sort), len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, q, append(args, pq.Limit, pq.Offset)...)
	if err != nil {
		return nil, err
	}
	items, err := r.scanAll(rows)
	if err != nil {
		return nil, err
	}

	return &repository.PageResult[T]{
		Items: items,
		Total: total,
	}, nil
}

// Update replaces the JSON body of an existing row.
func (r *ContentPostgres[T, PT]) Update(ctx context.Context, item *T) (*T, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", r.table, err)
	}
	meta := PT(item).Meta()

	q := `UPDATE ` + r.table + ` SET data = $2, updated_at = $3 WHERE id = $1 RETURNING ` + columns
	out, err := r.scan(r.db.QueryRowContext(ctx, q, meta.ID, string(data), meta.UpdatedAt))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return out, err
}

// Delete removes a row by ID. It does not return an error if the row does not exist.
func (r *ContentPostgres[T, PT]) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM `+r.table+` WHERE id = $1`, id)
	return err
}

// Count returns the number of rows in the table.
func (r *ContentPostgres[T, PT]) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+r.table).Scan(&n)
	return n, err
}

// Oldest returns up to n rows ordered by creation time ascending.
func (r *ContentPostgres[T, PT]) Oldest(ctx context.Context, n int) ([]T, error) {
	q := `SELECT ` + columns + ` FROM ` + r.table + ` ORDER BY created_at ASC, id ASC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, q, n)
	if err != nil {
		return nil, err
	}
	return r.scanAll(rows)
}

// whereClause builds "data->>key = value" predicates. Keys are bound as
// parameters too, so arbitrary filter keys never reach the SQL text.
func whereClause(filter map[string]string) (string, []any) {
	if len(filter) == 0 {
		return "", nil
	}
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("data->>$%d = $%d", len(args)+1, len(args)+2))
		args = append(args, k, filter[k])
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

func orderBy(s string) string {
	switch s {
	case repository.SortOldest:
		return "created_at ASC, id ASC"
	case repository.SortOrder:
		return "COALESCE((data->>'order')::int, 0) ASC, created_at DESC, id DESC"
	default:
		return "created_at DESC, id DESC"
	}
}
