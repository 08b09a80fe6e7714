package mirror

import "errors"

var (
	ErrStoreRequired  = errors.New("object store is required")
	ErrAPIURLRequired = errors.New("api url is not configured")
	ErrDirRequired    = errors.New("directory is not configured")
	ErrNoLedger       = errors.New("transfer ledger is not enabled")
)
