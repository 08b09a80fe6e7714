package closureme

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// TransferRepo persists the ledger of mirror transfers.
type TransferRepo interface {
	// Record stores a transfer. A zero ID or CreatedAt is filled in and the
	// stored entry is returned.
	Record(ctx context.Context, t Transfer) (Transfer, error)
	// List returns transfers newest first.
	List(ctx context.Context, q TransferQuery) (TransferPage, error)
}

// TransferQuery filters and pages a ledger listing. Empty fields match all.
type TransferQuery struct {
	Job       string
	Status    TransferStatus
	KeyPrefix string
	Limit     int
	Cursor    string
}

// TransferPage is one page of ledger entries.
type TransferPage struct {
	Items      []Transfer `json:"items"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 1000
)

// Normalize clamps the limit into [1, MaxListLimit], defaulting to DefaultListLimit.
func (q TransferQuery) Normalize() TransferQuery {
	if q.Limit <= 0 {
		q.Limit = DefaultListLimit
	}
	if q.Limit > MaxListLimit {
		q.Limit = MaxListLimit
	}
	return q
}

// Prepare validates t and fills its ID and CreatedAt when unset.
// CreatedAt is truncated to microseconds so every backend stores the same value.
func (t Transfer) Prepare() (Transfer, error) {
	if t.Job == "" {
		return Transfer{}, fmt.Errorf("%w: transfer job is empty", ErrInvalidInput)
	}
	if t.Direction != DirectionDownload && t.Direction != DirectionUpload {
		return Transfer{}, fmt.Errorf("%w: transfer direction %q", ErrInvalidInput, t.Direction)
	}
	if !t.Status.IsValid() {
		return Transfer{}, fmt.Errorf("%w: transfer status %q", ErrInvalidInput, t.Status)
	}
	if t.ObjectKey == "" {
		return Transfer{}, fmt.Errorf("%w: transfer object key is empty", ErrInvalidInput)
	}

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	t.CreatedAt = t.CreatedAt.UTC().Truncate(time.Microsecond)

	return t, nil
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.Transfers == "" {
		return errors.New("validate tables: transfers table name cannot be empty")
	}

	if !IsValidTableName(t.Transfers) {
		return fmt.Errorf("validate tables: invalid transfers table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.Transfers)
	}

	return nil
}
