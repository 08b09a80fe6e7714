// Package postgres implements the transfer ledger using PostgreSQL
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/closureme/closureme"
	"github.com/closureme/closureme/database/internal"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repo struct {
	pool      *pgxpool.Pool
	tableName string // sanitized
}

func (r *repo) Record(ctx context.Context, t closureme.Transfer) (closureme.Transfer, error) {
	t, err := t.Prepare()
	if err != nil {
		return closureme.Transfer{}, fmt.Errorf("record: %w", err)
	}

	query := fmt.Sprintf(
		`INSERT INTO %s (id, job, direction, object_key, local_path, size_bytes, status, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`, r.tableName)

	_, err = r.pool.Exec(ctx, query,
		t.ID, t.Job, string(t.Direction), t.ObjectKey, t.LocalPath, t.SizeBytes,
		string(t.Status), t.Error, t.CreatedAt,
	)
	if err != nil {
		return closureme.Transfer{}, fmt.Errorf("record: insert: %w", err)
	}

	return t, nil
}

func (r *repo) List(ctx context.Context, q closureme.TransferQuery) (closureme.TransferPage, error) {
	q = q.Normalize()

	cursor, err := internal.DecodeCursor(q.Cursor)
	if err != nil {
		return closureme.TransferPage{}, fmt.Errorf("list: %w", err)
	}

	var conditions []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.Job != "" {
		conditions = append(conditions, "job = "+arg(q.Job))
	}
	if q.Status != "" {
		conditions = append(conditions, "status = "+arg(string(q.Status)))
	}
	if q.KeyPrefix != "" {
		conditions = append(conditions, fmt.Sprintf(`object_key LIKE %s || '%%' ESCAPE '\'`, arg(internal.EscapeLikePattern(q.KeyPrefix))))
	}
	if q.Cursor != "" {
		id, parseErr := uuid.Parse(cursor.ID)
		if parseErr != nil {
			return closureme.TransferPage{}, fmt.Errorf("list: invalid cursor id: %w", parseErr)
		}
		conditions = append(conditions, fmt.Sprintf("(created_at, id) < (%s, %s)", arg(cursor.CreatedAt), arg(id)))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(
		`SELECT id, job, direction, object_key, local_path, size_bytes, status, error, created_at
		FROM %s
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT %s`, r.tableName, where, arg(q.Limit+1))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return closureme.TransferPage{}, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	items := make([]closureme.Transfer, 0, q.Limit)
	for rows.Next() {
		var t closureme.Transfer
		var direction, status string

		if err := rows.Scan(&t.ID, &t.Job, &direction, &t.ObjectKey, &t.LocalPath, &t.SizeBytes, &status, &t.Error, &t.CreatedAt); err != nil {
			return closureme.TransferPage{}, fmt.Errorf("list: scan: %w", err)
		}

		t.CreatedAt = t.CreatedAt.UTC()
		t.Direction = closureme.TransferDirection(direction)
		t.Status = closureme.TransferStatus(status)
		items = append(items, t)
	}

	if err := rows.Err(); err != nil {
		return closureme.TransferPage{}, fmt.Errorf("list: rows: %w", err)
	}

	var nextCursor string
	if len(items) > q.Limit {
		// Cursor points to the last item of the current page
		lastItem := items[q.Limit-1]
		nextCursor = internal.EncodeCursor(lastItem.CreatedAt, lastItem.ID.String())
		items = items[:q.Limit]
	}

	return closureme.TransferPage{Items: items, NextCursor: nextCursor}, nil
}

// compile-time check
var _ closureme.TransferRepo = (*repo)(nil)
