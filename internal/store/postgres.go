package store

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workflicks/backoffice/internal/platform/db"
	"github.com/workflicks/backoffice/internal/platform/httpx"
)

// batchChunkSize bounds the number of statements per pgx batch; chunks still
// commit inside one transaction so the whole batch stays all-or-nothing.
const batchChunkSize = 500

const schemaDDL = `
CREATE TABLE IF NOT EXISTS documents (
    collection  TEXT        NOT NULL,
    id          TEXT        NOT NULL,
    fields      JSONB       NOT NULL DEFAULT '{}'::jsonb,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS documents_fields_idx ON documents USING GIN (fields);
`

// Postgres implements Store on a jsonb documents table. A nil tx means the
// pool handles queries directly; a non-nil tx pins every call to one
// transaction.
type Postgres struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

// NewPostgres constructs a Postgres-backed store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema creates the documents table when missing.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schemaDDL)
	if err != nil {
		return wrapError("ensure schema", err)
	}
	return nil
}

func (s *Postgres) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if s.tx != nil {
		return s.tx.QueryRow(ctx, sql, args...)
	}
	return s.pool.QueryRow(ctx, sql, args...)
}

func (s *Postgres) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if s.tx != nil {
		return s.tx.Query(ctx, sql, args...)
	}
	return s.pool.Query(ctx, sql, args...)
}

func (s *Postgres) exec(ctx context.Context, sql string, args ...any) error {
	var err error
	if s.tx != nil {
		_, err = s.tx.Exec(ctx, sql, args...)
	} else {
		_, err = s.pool.Exec(ctx, sql, args...)
	}
	return err
}

// Get fetches a single document.
func (s *Postgres) Get(ctx context.Context, collection, id string) (Document, error) {
	row := s.queryRow(ctx,
		`SELECT id, fields, created_at, updated_at FROM documents WHERE collection = $1 AND id = $2`,
		collection, id)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, wrapError(fmt.Sprintf("get %s/%s", collection, id), err)
	}
	return doc, nil
}

// Query returns documents matching the filters in the requested order.
func (s *Postgres) Query(ctx context.Context, collection string, filters []Filter, order Order, limit int) ([]Document, error) {
	sql := `SELECT id, fields, created_at, updated_at FROM documents WHERE collection = $1`
	args := []any{collection}
	where, err := appendFilters(&args, filters)
	if err != nil {
		return nil, err
	}
	sql += where
	sql += orderClause(&args, order)
	if limit > 0 {
		args = append(args, limit)
		sql += " LIMIT $" + strconv.Itoa(len(args))
	}

	rows, err := s.query(ctx, sql, args...)
	if err != nil {
		return nil, wrapError("query "+collection, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, wrapError("query "+collection, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("query "+collection, err)
	}
	return docs, nil
}

// Set writes a single document atomically. With merge the incoming fields are
// shallow-merged over the stored ones; otherwise they replace the document.
func (s *Postgres) Set(ctx context.Context, collection, id string, fields map[string]any, merge bool) error {
	if err := s.exec(ctx, setStatement(merge), collection, id, fields); err != nil {
		return wrapError(fmt.Sprintf("set %s/%s", collection, id), err)
	}
	return nil
}

// BatchWrite applies every write or none. Large batches are chunked but the
// chunks share one transaction.
func (s *Postgres) BatchWrite(ctx context.Context, writes []Write) error {
	if len(writes) == 0 {
		return nil
	}
	if s.tx != nil {
		return batchWriteTx(ctx, s.tx, writes)
	}
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return batchWriteTx(ctx, tx, writes)
	})
}

// Count counts documents matching the filters.
func (s *Postgres) Count(ctx context.Context, collection string, filters []Filter) (int64, error) {
	sql := `SELECT COUNT(*) FROM documents WHERE collection = $1`
	args := []any{collection}
	where, err := appendFilters(&args, filters)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := s.queryRow(ctx, sql+where, args...).Scan(&n); err != nil {
		return 0, wrapError("count "+collection, err)
	}
	return n, nil
}

// RunTransaction runs fn against a transactional store view.
func (s *Postgres) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if s.tx != nil {
		return fn(ctx, s)
	}
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(ctx, &Postgres{pool: s.pool, tx: tx})
	})
}

// uniqueViolation is the Postgres error code for unique constraint failures.
const uniqueViolation = "23505"

// wrapError tags store failures with the sentinel the HTTP layer maps to a
// status code. Network failures and timeouts become ErrStoreUnavailable,
// constraint violations become ErrDuplicate, everything else passes through.
func wrapError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("store: %s: %w: %w", op, httpx.ErrDuplicate, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("store: %s: %w: %w", op, httpx.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("store: %s: %w", op, err)
}

func batchWriteTx(ctx context.Context, tx pgx.Tx, writes []Write) error {
	for start := 0; start < len(writes); start += batchChunkSize {
		end := start + batchChunkSize
		if end > len(writes) {
			end = len(writes)
		}
		batch := &pgx.Batch{}
		for _, w := range writes[start:end] {
			batch.Queue(setStatement(w.Merge), w.Collection, w.ID, w.Fields)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return wrapError("batch write", err)
		}
	}
	return nil
}

func setStatement(merge bool) string {
	if merge {
		return `INSERT INTO documents (collection, id, fields) VALUES ($1, $2, $3)
            ON CONFLICT (collection, id)
            DO UPDATE SET fields = documents.fields || EXCLUDED.fields, updated_at = NOW()`
	}
	return `INSERT INTO documents (collection, id, fields) VALUES ($1, $2, $3)
        ON CONFLICT (collection, id)
        DO UPDATE SET fields = EXCLUDED.fields, updated_at = NOW()`
}

func appendFilters(args *[]any, filters []Filter) (string, error) {
	clause := ""
	for _, f := range filters {
		switch {
		case f.Field == "id" && f.Op == "==":
			*args = append(*args, f.Value)
			clause += " AND id = $" + strconv.Itoa(len(*args))
		case f.Field == "id" && f.Op == "in":
			*args = append(*args, toTextSlice(f.Value))
			clause += " AND id = ANY($" + strconv.Itoa(len(*args)) + ")"
		case f.Op == "==":
			*args = append(*args, f.Field, textValue(f.Value))
			clause += fmt.Sprintf(" AND fields->>$%d = $%d", len(*args)-1, len(*args))
		case f.Op == "in":
			*args = append(*args, f.Field, toTextSlice(f.Value))
			clause += fmt.Sprintf(" AND fields->>$%d = ANY($%d)", len(*args)-1, len(*args))
		default:
			return "", fmt.Errorf("store: unsupported filter op %q", f.Op)
		}
	}
	return clause, nil
}

func orderClause(args *[]any, order Order) string {
	if order.Field == "" {
		return ""
	}
	dir := " ASC"
	if order.Desc {
		dir = " DESC"
	}
	switch order.Field {
	case "createdAt":
		return " ORDER BY created_at" + dir
	case "updatedAt":
		return " ORDER BY updated_at" + dir
	default:
		*args = append(*args, order.Field)
		return fmt.Sprintf(" ORDER BY fields->>$%d%s", len(*args), dir)
	}
}

func scanDocument(row pgx.Row) (Document, error) {
	var (
		doc    Document
		fields map[string]any
	)
	var createdAt, updatedAt time.Time
	if err := row.Scan(&doc.ID, &fields, &createdAt, &updatedAt); err != nil {
		return Document{}, err
	}
	doc.Fields = fields
	doc.CreatedAt = createdAt
	doc.UpdatedAt = updatedAt
	return doc, nil
}

func textValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func toTextSlice(v any) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []any:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			out = append(out, textValue(item))
		}
		return out
	default:
		return []string{textValue(v)}
	}
}
