package sqlite_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/closureme/closureme"
	"github.com/closureme/closureme/database/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTransfer(job, key string, status closureme.TransferStatus, at time.Time) closureme.Transfer {
	return closureme.Transfer{
		Job:       job,
		Direction: closureme.DirectionDownload,
		ObjectKey: key,
		LocalPath: "/data/" + key,
		SizeBytes: 42,
		Status:    status,
		CreatedAt: at,
	}
}

func TestRepo_Record(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := setupTestRepo(t)

	t.Run("fills id and created_at", func(t *testing.T) {
		before := time.Now().UTC().Add(-time.Second)

		rec, err := repo.Record(ctx, closureme.Transfer{
			Job:       "memory",
			Direction: closureme.DirectionDownload,
			ObjectKey: "uploads/hero_memory.txt",
			LocalPath: "/data/memory/hero.txt",
			SizeBytes: 12,
			Status:    closureme.TransferDone,
		})
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, rec.ID)
		assert.True(t, rec.CreatedAt.After(before))
		assert.Equal(t, time.UTC, rec.CreatedAt.Location())
	})

	t.Run("keeps error text", func(t *testing.T) {
		rec, err := repo.Record(ctx, closureme.Transfer{
			Job:       "upload-fbx",
			Direction: closureme.DirectionUpload,
			ObjectKey: "fbx/temp/a_init.fbx",
			Status:    closureme.TransferFailed,
			Error:     "access denied",
		})
		require.NoError(t, err)

		page, err := repo.List(ctx, closureme.TransferQuery{Job: "upload-fbx"})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, rec.ID, page.Items[0].ID)
		assert.Equal(t, "access denied", page.Items[0].Error)
		assert.Equal(t, closureme.DirectionUpload, page.Items[0].Direction)
	})

	t.Run("rejects invalid transfers", func(t *testing.T) {
		tests := []struct {
			name     string
			transfer closureme.Transfer
		}{
			{"empty job", closureme.Transfer{Direction: closureme.DirectionDownload, ObjectKey: "k", Status: closureme.TransferDone}},
			{"bad direction", closureme.Transfer{Job: "j", Direction: "sideways", ObjectKey: "k", Status: closureme.TransferDone}},
			{"bad status", closureme.Transfer{Job: "j", Direction: closureme.DirectionDownload, ObjectKey: "k", Status: "maybe"}},
			{"empty key", closureme.Transfer{Job: "j", Direction: closureme.DirectionDownload, Status: closureme.TransferDone}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := repo.Record(ctx, tt.transfer)
				assert.ErrorIs(t, err, closureme.ErrInvalidInput)
			})
		}
	})
}

func TestRepo_List(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := setupTestRepo(t)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := range 5 {
		_, err := repo.Record(ctx, newTransfer("images", fmt.Sprintf("uploads/img_%d.png", i), closureme.TransferDone, base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}
	_, err := repo.Record(ctx, newTransfer("memory", "uploads/hero_memory.txt", closureme.TransferSkipped, base.Add(time.Hour)))
	require.NoError(t, err)
	_, err = repo.Record(ctx, newTransfer("images", "other/x.png", closureme.TransferFailed, base.Add(2*time.Hour)))
	require.NoError(t, err)

	t.Run("newest first", func(t *testing.T) {
		page, err := repo.List(ctx, closureme.TransferQuery{})
		require.NoError(t, err)
		require.Len(t, page.Items, 7)
		assert.Equal(t, "other/x.png", page.Items[0].ObjectKey)
		assert.Equal(t, "uploads/img_0.png", page.Items[6].ObjectKey)
		assert.Empty(t, page.NextCursor)
	})

	t.Run("filter by job and status", func(t *testing.T) {
		page, err := repo.List(ctx, closureme.TransferQuery{Job: "images", Status: closureme.TransferDone})
		require.NoError(t, err)
		assert.Len(t, page.Items, 5)

		page, err = repo.List(ctx, closureme.TransferQuery{Status: closureme.TransferSkipped})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "memory", page.Items[0].Job)
	})

	t.Run("filter by key prefix escapes wildcards", func(t *testing.T) {
		page, err := repo.List(ctx, closureme.TransferQuery{KeyPrefix: "uploads/img_"})
		require.NoError(t, err)
		assert.Len(t, page.Items, 5)

		page, err = repo.List(ctx, closureme.TransferQuery{KeyPrefix: "uploads/img%"})
		require.NoError(t, err)
		assert.Empty(t, page.Items)
	})

	t.Run("pagination", func(t *testing.T) {
		var keys []string
		cursor := ""
		for {
			page, err := repo.List(ctx, closureme.TransferQuery{Job: "images", Limit: 2, Cursor: cursor})
			require.NoError(t, err)
			for _, item := range page.Items {
				keys = append(keys, item.ObjectKey)
			}
			if page.NextCursor == "" {
				break
			}
			cursor = page.NextCursor
		}

		assert.Equal(t, []string{
			"other/x.png",
			"uploads/img_4.png",
			"uploads/img_3.png",
			"uploads/img_2.png",
			"uploads/img_1.png",
			"uploads/img_0.png",
		}, keys)
	})

	t.Run("invalid cursor", func(t *testing.T) {
		_, err := repo.List(ctx, closureme.TransferQuery{Cursor: "%%%"})
		assert.Error(t, err)
	})
}

func TestMigrate_DropTables(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	tables := closureme.Tables{Transfers: "transfers_" + getRandomString(t)}

	require.NoError(t, sqlite.Migrate(ctx, db, tables))
	require.NoError(t, sqlite.Migrate(ctx, db, tables), "migrate should be idempotent")
	require.NoError(t, sqlite.ValidateSchema(ctx, db, tables))

	require.NoError(t, sqlite.DropTables(ctx, db, tables))
	err = sqlite.ValidateSchema(ctx, db, tables)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestValidateSchema_Mismatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.ExecContext(ctx, `CREATE TABLE "broken_transfers" (id TEXT NOT NULL PRIMARY KEY, job INTEGER, created_at TEXT NOT NULL)`)
	require.NoError(t, err)

	err = sqlite.ValidateSchema(ctx, db, closureme.Tables{Transfers: "broken_transfers"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing columns")
	assert.Contains(t, err.Error(), "job: expected text, got integer")
}
