// Package sqlite implements the transfer ledger using SQLite
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/closureme/closureme"
	"github.com/closureme/closureme/database/internal"
	"github.com/google/uuid"
)

// timeLayout is fixed width so text comparison orders like time.
const timeLayout = "2006-01-02T15:04:05.000000Z"

type repo struct {
	db        *sql.DB
	tableName string // quoted
}

func (r *repo) Record(ctx context.Context, t closureme.Transfer) (closureme.Transfer, error) {
	t, err := t.Prepare()
	if err != nil {
		return closureme.Transfer{}, fmt.Errorf("record: %w", err)
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (id, job, direction, object_key, local_path, size_bytes, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, r.tableName)

	_, err = r.db.ExecContext(ctx, query,
		t.ID.String(), t.Job, string(t.Direction), t.ObjectKey, t.LocalPath, t.SizeBytes,
		string(t.Status), t.Error, t.CreatedAt.Format(timeLayout),
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

	if q.Job != "" {
		conditions = append(conditions, "job = ?")
		args = append(args, q.Job)
	}
	if q.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(q.Status))
	}
	if q.KeyPrefix != "" {
		conditions = append(conditions, `object_key LIKE ? || '%' ESCAPE '\'`)
		args = append(args, internal.EscapeLikePattern(q.KeyPrefix))
	}
	if q.Cursor != "" {
		conditions = append(conditions, "(created_at, id) < (?, ?)")
		args = append(args, cursor.CreatedAt.UTC().Format(timeLayout), cursor.ID)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated, conditions are constants
		`SELECT id, job, direction, object_key, local_path, size_bytes, status, error, created_at
		FROM %s
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, r.tableName, where)
	args = append(args, q.Limit+1)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return closureme.TransferPage{}, fmt.Errorf("list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]closureme.Transfer, 0, q.Limit)
	for rows.Next() {
		var t closureme.Transfer
		var idStr, direction, status, createdAt string

		if scanErr := rows.Scan(&idStr, &t.Job, &direction, &t.ObjectKey, &t.LocalPath, &t.SizeBytes, &status, &t.Error, &createdAt); scanErr != nil {
			return closureme.TransferPage{}, fmt.Errorf("list: scan: %w", scanErr)
		}

		var parseErr error
		t.ID, parseErr = uuid.Parse(idStr)
		if parseErr != nil {
			return closureme.TransferPage{}, fmt.Errorf("list: parse uuid: %w", parseErr)
		}

		t.CreatedAt, parseErr = time.Parse(timeLayout, createdAt)
		if parseErr != nil {
			return closureme.TransferPage{}, fmt.Errorf("list: parse created_at: %w", parseErr)
		}

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
