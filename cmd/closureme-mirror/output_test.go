package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/closureme/closureme"
	"github.com/closureme/closureme/config"
	"github.com/closureme/closureme/mirror"
)

func TestTransferLine(t *testing.T) {
	tests := []struct {
		name string
		in   closureme.Transfer
		want string
	}{
		{
			name: "download",
			in:   closureme.Transfer{Direction: closureme.DirectionDownload, Status: closureme.TransferDone, ObjectKey: "uploads/a.png", LocalPath: "img/a.png"},
			want: "Downloaded uploads/a.png -> img/a.png",
		},
		{
			name: "upload",
			in:   closureme.Transfer{Direction: closureme.DirectionUpload, Status: closureme.TransferDone, ObjectKey: "fbx/temp/a_init.fbx", LocalPath: "fbx/a.fbx"},
			want: "Uploaded fbx/a.fbx -> fbx/temp/a_init.fbx",
		},
		{
			name: "skipped",
			in:   closureme.Transfer{Direction: closureme.DirectionDownload, Status: closureme.TransferSkipped, ObjectKey: "uploads/a.png", LocalPath: "img/a.png"},
			want: "Skipped uploads/a.png: img/a.png already exists",
		},
		{
			name: "failed",
			in:   closureme.Transfer{Direction: closureme.DirectionDownload, Status: closureme.TransferFailed, ObjectKey: "uploads/a.png", Error: "not found"},
			want: "Failed uploads/a.png: not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, transferLine(tt.in))
		})
	}
}

func TestPrintBatch(t *testing.T) {
	var buf bytes.Buffer
	report := &mirror.BatchReport{Downloaded: 1, Failed: 1, Transfers: []closureme.Transfer{
		{Direction: closureme.DirectionDownload, Status: closureme.TransferDone, ObjectKey: "k1", LocalPath: "p1"},
		{Direction: closureme.DirectionDownload, Status: closureme.TransferFailed, ObjectKey: "k2", Error: "boom"},
	}}

	require.NoError(t, printBatch(&buf, report))

	out := buf.String()
	assert.Contains(t, out, "Downloaded k1 -> p1")
	assert.Contains(t, out, "Failed k2: boom")
	assert.Contains(t, out, "1 downloaded, 0 uploaded, 0 skipped, 1 failed")
}

func TestPrintHistory(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printHistory(&buf, closureme.TransferPage{}))
	assert.Equal(t, "No transfers recorded\n", buf.String())

	buf.Reset()
	page := closureme.TransferPage{
		Items: []closureme.Transfer{{
			Job: mirror.JobModel, Direction: closureme.DirectionDownload, Status: closureme.TransferDone,
			ObjectKey: "uploads/hero.fbx", CreatedAt: time.Now(),
		}},
		NextCursor: "abc",
	}
	require.NoError(t, printHistory(&buf, page))
	assert.Contains(t, buf.String(), "uploads/hero.fbx")
	assert.Contains(t, buf.String(), "--cursor abc")
}

func TestNewObjectStore(t *testing.T) {
	ctx := context.Background()

	s3Store, err := newObjectStore(ctx, config.StorageConfig{Backend: "s3", Bucket: "b", Region: "ap-east-2", AccessKey: "ak", SecretKey: "sk"})
	require.NoError(t, err)
	assert.IsType(t, &mirror.S3Store{}, s3Store)

	stowryStore, err := newObjectStore(ctx, config.StorageConfig{Backend: "stowry", Region: "us-east-1", Endpoint: "http://localhost:5708"})
	require.NoError(t, err)
	assert.IsType(t, &mirror.StowryStore{}, stowryStore)

	_, err = newObjectStore(ctx, config.StorageConfig{Backend: "ftp"})
	assert.ErrorContains(t, err, "unsupported storage backend")
}

func TestNewMirror_RequiresConfig(t *testing.T) {
	_, _, err := newMirror(context.Background())
	assert.Error(t, err)
}

func TestNewMirror_WithLedger(t *testing.T) {
	cfg, err := config.Load(nil, nil)
	require.NoError(t, err)
	cfg.Ledger.Enabled = true
	cfg.Ledger.DSN = t.TempDir() + "/ledger.db"

	ctx := config.WithContext(context.Background(), cfg)
	m, closeFn, err := newMirror(ctx)
	require.NoError(t, err)
	defer closeFn()

	page, err := m.History(ctx, closureme.TransferQuery{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}
