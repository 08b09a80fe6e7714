package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/closureme/closureme"
	"github.com/closureme/closureme/clientcli"
)

// Job names recorded in the ledger.
const (
	JobImages    = "images"
	JobMemory    = "memory"
	JobProfile   = "profile"
	JobModel     = "model"
	JobVoice     = "voice"
	JobUploadFBX = "upload-fbx"
)

const (
	modelFileName = "AIAgentModel.fbx"
	voiceFileName = "default.wav"
	indexFileName = "index.txt"
)

// Config holds the API location and the local directories of each job.
type Config struct {
	APIURL     string
	ImageDir   string
	MemoryDir  string
	ProfileDir string
	ModelDir   string
	VoiceDir   string
	FBXDir     string
	IndexDir   string
}

// Mirror runs the jobs that copy character assets between the bucket and
// the local machine.
type Mirror struct {
	cfg    Config
	store  ObjectStore
	api    *clientcli.Client
	ledger closureme.TransferRepo
	logger *slog.Logger
}

// Option configures a Mirror.
type Option func(*Mirror)

// WithLedger records every transfer in repo.
func WithLedger(repo closureme.TransferRepo) Option {
	return func(m *Mirror) {
		m.ledger = repo
	}
}

// WithLogger sets the logger used for progress and diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mirror) {
		m.logger = logger
	}
}

// WithAPIClient sets the client used to read the pending image queue.
func WithAPIClient(client *clientcli.Client) Option {
	return func(m *Mirror) {
		m.api = client
	}
}

// New creates a Mirror. When no API client is given one is built from
// cfg.APIURL, which may carry the /api suffix or not.
func New(cfg Config, store ObjectStore, opts ...Option) (*Mirror, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}

	m := &Mirror{
		cfg:    cfg,
		store:  store,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.api == nil && cfg.APIURL != "" {
		api, err := clientcli.New(&clientcli.Config{Endpoint: apiOrigin(cfg.APIURL)}, clientcli.WithLogger(m.logger))
		if err != nil {
			return nil, fmt.Errorf("new mirror: %w", err)
		}
		m.api = api
	}

	return m, nil
}

func apiOrigin(apiURL string) string {
	return strings.TrimSuffix(strings.TrimRight(apiURL, "/"), "/api")
}

// History lists recorded transfers, newest first.
func (m *Mirror) History(ctx context.Context, q closureme.TransferQuery) (closureme.TransferPage, error) {
	if m.ledger == nil {
		return closureme.TransferPage{}, ErrNoLedger
	}
	page, err := m.ledger.List(ctx, q)
	if err != nil {
		return closureme.TransferPage{}, fmt.Errorf("history: %w", err)
	}
	return page, nil
}

// record stores t in the ledger when one is configured. A ledger failure is
// logged and never fails the transfer itself.
func (m *Mirror) record(ctx context.Context, t closureme.Transfer) closureme.Transfer {
	if m.ledger == nil {
		if prepared, err := t.Prepare(); err == nil {
			return prepared
		}
		return t
	}

	stored, err := m.ledger.Record(ctx, t)
	if err != nil {
		m.logger.WarnContext(ctx, "failed to record transfer", "job", t.Job, "key", t.ObjectKey, "err", err)
		return t
	}
	return stored
}

// fail records t as failed and returns err.
func (m *Mirror) fail(ctx context.Context, t closureme.Transfer, err error) (closureme.Transfer, error) {
	t.Status = closureme.TransferFailed
	t.Error = err.Error()
	m.logger.ErrorContext(ctx, "transfer failed", "job", t.Job, "key", t.ObjectKey, "err", err)
	return m.record(ctx, t), err
}
