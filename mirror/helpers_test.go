package mirror_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/closureme/closureme"
	"github.com/closureme/closureme/mirror"
)

// memStore is an in-memory ObjectStore.
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  map[string]error
	gets    []string
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}, putErr: map[string]error{}}
}

func (s *memStore) set(key, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = []byte(content)
}

func (s *memStore) object(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.objects[key]
	return string(b), ok
}

func (s *memStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets = append(s.gets, key)
	b, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", key, closureme.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (s *memStore) Put(_ context.Context, key string, r io.Reader, size int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.putErr[key]; err != nil {
		return err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if int64(len(b)) != size {
		return fmt.Errorf("size mismatch: got %d, declared %d", len(b), size)
	}
	s.objects[key] = b
	return nil
}

// SpyTransferRepo is a mock ledger.
type SpyTransferRepo struct {
	mock.Mock
}

func (s *SpyTransferRepo) Record(ctx context.Context, t closureme.Transfer) (closureme.Transfer, error) {
	args := s.Called(ctx, t)
	return args.Get(0).(closureme.Transfer), args.Error(1)
}

func (s *SpyTransferRepo) List(ctx context.Context, q closureme.TransferQuery) (closureme.TransferPage, error) {
	args := s.Called(ctx, q)
	return args.Get(0).(closureme.TransferPage), args.Error(1)
}

func testConfig(t *testing.T) mirror.Config {
	t.Helper()
	root := t.TempDir()
	return mirror.Config{
		ImageDir:   filepath.Join(root, "images"),
		MemoryDir:  filepath.Join(root, "memory"),
		ProfileDir: filepath.Join(root, "profile"),
		ModelDir:   filepath.Join(root, "model"),
		VoiceDir:   filepath.Join(root, "voice"),
		FBXDir:     filepath.Join(root, "fbx"),
		IndexDir:   filepath.Join(root, "index"),
	}
}

func newTestMirror(t *testing.T, cfg mirror.Config, store mirror.ObjectStore, opts ...mirror.Option) *mirror.Mirror {
	t.Helper()
	m, err := mirror.New(cfg, store, opts...)
	require.NoError(t, err)
	return m
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
