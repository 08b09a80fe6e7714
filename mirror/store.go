package mirror

import (
	"context"
	"io"
)

// ObjectStore is the bucket the mirror jobs copy objects from and to.
// Get returns closureme.ErrNotFound (wrapped) when the key does not exist.
type ObjectStore interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Put(ctx context.Context, key string, r io.Reader, size int64) error
}
