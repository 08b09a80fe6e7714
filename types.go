package closureme

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DownloadType selects which artifacts of a character are fetched.
type DownloadType string

const (
	DownloadImage      DownloadType = "image"
	DownloadAppearance DownloadType = "appearance"
	DownloadMemory     DownloadType = "memory"
	DownloadAll        DownloadType = "all"
)

func (t DownloadType) IsValid() bool {
	switch t {
	case DownloadImage, DownloadAppearance, DownloadMemory, DownloadAll:
		return true
	default:
		return false
	}
}

func ParseDownloadType(s string) (DownloadType, error) {
	t := DownloadType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("%w: download type %q (valid types: image, appearance, memory, all)", ErrInvalidInput, s)
	}
	return t, nil
}

// Includes reports whether artifacts of the given kind are part of this download.
func (t DownloadType) Includes(kind ArtifactKind) bool {
	return t == DownloadAll || string(t) == string(kind)
}

// ArtifactKind names one of the files attached to a character record.
type ArtifactKind string

const (
	ArtifactImage      ArtifactKind = "image"
	ArtifactAppearance ArtifactKind = "appearance"
	ArtifactMemory     ArtifactKind = "memory"
)

// ArtifactKinds lists every artifact kind in dispatch order.
var ArtifactKinds = []ArtifactKind{ArtifactImage, ArtifactAppearance, ArtifactMemory}

// CharacterRecord is the server's view of a stored character.
// Paths are relative URL paths; nil or empty means the artifact is absent.
type CharacterRecord struct {
	FileName       string  `json:"filename,omitempty"`
	ImagePath      *string `json:"imagePath"`
	AppearancePath *string `json:"appearancePath"`
	MemoryPath     *string `json:"memoryPath"`
	// ProfilePath is what older servers send in place of appearancePath.
	ProfilePath *string `json:"profilePath,omitempty"`
}

// Path returns the remote path for the artifact kind and whether it is present.
func (r CharacterRecord) Path(kind ArtifactKind) (string, bool) {
	var p *string
	switch kind {
	case ArtifactImage:
		p = r.ImagePath
	case ArtifactAppearance:
		p = r.AppearancePath
		if p == nil || *p == "" {
			p = r.ProfilePath
		}
	case ArtifactMemory:
		p = r.MemoryPath
	}
	if p == nil || *p == "" {
		return "", false
	}
	return *p, true
}

// FileEntry is one row of the character file listing.
type FileEntry struct {
	ImageID        json.Number `json:"image_id"`
	FileName       string      `json:"file_name"`
	UploadedAt     string      `json:"uploaded_at"`
	ImagePath      *string     `json:"image_path"`
	AppearancePath *string     `json:"appearance_path"`
	MemoryPath     *string     `json:"memory_path"`
}

// User is the account returned by register and login.
type User struct {
	ID       json.Number `json:"id,omitempty"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
}

// PendingImage is an uploaded image the server has queued for mirroring.
type PendingImage struct {
	FilePath    string  `json:"file_path"`
	UploadBatch BatchID `json:"upload_batch"`
}

// BatchID identifies an upload batch. The server sends it as a string or a number.
type BatchID string

func (b *BatchID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*b = BatchID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("upload batch: %w", err)
	}
	*b = BatchID(n.String())
	return nil
}

// TransferDirection tells whether a mirror transfer pulled or pushed an object.
type TransferDirection string

const (
	DirectionDownload TransferDirection = "download"
	DirectionUpload   TransferDirection = "upload"
)

// TransferStatus is the outcome of a single mirror transfer.
type TransferStatus string

const (
	TransferDone    TransferStatus = "done"
	TransferSkipped TransferStatus = "skipped"
	TransferFailed  TransferStatus = "failed"
)

func (s TransferStatus) IsValid() bool {
	switch s {
	case TransferDone, TransferSkipped, TransferFailed:
		return true
	default:
		return false
	}
}

// Transfer is a ledger entry describing one object copied between the
// bucket and the local disk.
type Transfer struct {
	ID        uuid.UUID         `json:"id"`
	Job       string            `json:"job"`
	Direction TransferDirection `json:"direction"`
	ObjectKey string            `json:"object_key"`
	LocalPath string            `json:"local_path"`
	SizeBytes int64             `json:"size_bytes"`
	Status    TransferStatus    `json:"status"`
	Error     string            `json:"error,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Tables holds configurable table names for the transfer ledger.
type Tables struct {
	Transfers string `mapstructure:"transfers"`
}
