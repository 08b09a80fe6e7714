package mirror

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	stowry "github.com/sagarc03/stowry-go"

	"github.com/closureme/closureme"
)

// presignExpires is the presigned URL lifetime in seconds.
const presignExpires = 900

// StowryStore is an ObjectStore backed by a Stowry server. Requests use
// presigned URLs so no credential travels in a header.
type StowryStore struct {
	signer     *stowry.Client
	httpClient *http.Client
}

// NewStowryStore returns a store for the Stowry server at endpoint.
// A nil httpClient uses http.DefaultClient.
func NewStowryStore(endpoint, accessKey, secretKey string, httpClient *http.Client) *StowryStore {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &StowryStore{
		signer:     stowry.NewClient(strings.TrimSuffix(endpoint, "/"), accessKey, secretKey),
		httpClient: httpClient,
	}
}

func (s *StowryStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.signer.PresignGet(objectPath(key), presignExpires), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("stowry get %s: create request: %w", key, err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stowry get %s: %w", key, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer func() { _ = resp.Body.Close() }()
		return nil, fmt.Errorf("stowry get %s: %w", key, stowryError(resp))
	}
	return resp.Body, nil
}

func (s *StowryStore) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.signer.PresignPut(objectPath(key), presignExpires), r)
	if err != nil {
		return fmt.Errorf("stowry put %s: create request: %w", key, err)
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("stowry put %s: %w", key, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("stowry put %s: %w", key, stowryError(resp))
	}
	return nil
}

// objectPath turns a bucket key into the absolute path Stowry signs.
func objectPath(key string) string {
	return "/" + strings.TrimPrefix(key, "/")
}

// stowryError reads a Stowry error response. 404 maps to closureme.ErrNotFound.
func stowryError(resp *http.Response) error {
	if resp.StatusCode == http.StatusNotFound {
		return closureme.ErrNotFound
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("server error: %d - %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
