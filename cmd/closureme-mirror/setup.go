package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/closureme/closureme/config"
	"github.com/closureme/closureme/database"
	"github.com/closureme/closureme/mirror"
)

// newMirror builds a Mirror from the loaded config. The returned close
// function releases the ledger connection and is always safe to call.
func newMirror(ctx context.Context) (*mirror.Mirror, func(), error) {
	cfg, err := config.FromContext(ctx)
	if err != nil {
		return nil, nil, err
	}

	store, err := newObjectStore(ctx, cfg.Storage)
	if err != nil {
		return nil, nil, err
	}

	closeFn := func() {}
	opts := []mirror.Option{mirror.WithLogger(slog.Default())}

	if cfg.Ledger.Enabled {
		db, dbErr := database.Open(ctx, cfg.Ledger.Config)
		if dbErr != nil {
			return nil, nil, fmt.Errorf("open ledger: %w", dbErr)
		}
		closeFn = func() { _ = db.Close() }
		opts = append(opts, mirror.WithLedger(db.GetRepo()))
		slog.Debug("ledger opened", "type", cfg.Ledger.Type, "table", cfg.Ledger.Tables.Transfers)
	}

	m, err := mirror.New(mirrorConfig(cfg), store, opts...)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return m, closeFn, nil
}

func newObjectStore(ctx context.Context, cfg config.StorageConfig) (mirror.ObjectStore, error) {
	switch cfg.Backend {
	case "s3":
		client, err := mirror.NewS3Client(ctx, mirror.S3Options{
			Region:    cfg.Region,
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 client: %w", err)
		}
		slog.Debug("using s3 store", "bucket", cfg.Bucket, "region", cfg.Region)
		return mirror.NewS3Store(client, cfg.Bucket), nil
	case "stowry":
		slog.Debug("using stowry store", "endpoint", cfg.Endpoint)
		return mirror.NewStowryStore(cfg.Endpoint, cfg.AccessKey, cfg.SecretKey, nil), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}

func mirrorConfig(cfg *config.Config) mirror.Config {
	return mirror.Config{
		APIURL:     cfg.APIURL,
		ImageDir:   cfg.ImageDownloadDir,
		MemoryDir:  cfg.MemoryDownloadDir,
		ProfileDir: cfg.ProfileDownloadDir,
		ModelDir:   cfg.ModelDownloadDir,
		VoiceDir:   cfg.VoiceDownloadDir,
		FBXDir:     cfg.FBXUploadDir,
		IndexDir:   cfg.IndexOutputDir,
	}
}
