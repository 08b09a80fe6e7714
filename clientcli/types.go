package clientcli

import (
	"encoding/json"

	"github.com/closureme/closureme"
)

// UploadRequest describes a character upload.
type UploadRequest struct {
	ImagePath  string // local image file
	Appearance string
	Memory     string
	FileName   string // logical name stored on the server
}

// UploadResult is the decoded success payload of an upload.
type UploadResult struct {
	Message string                    `json:"message"`
	Record  closureme.CharacterRecord `json:"data"`
}

// DownloadRequest selects a character and the artifacts to fetch.
type DownloadRequest struct {
	Name string
	Type closureme.DownloadType
}

// Resolution is the outcome of probing candidate file names.
type Resolution struct {
	Name     string                    `json:"name"`
	Resolved string                    `json:"resolved"`
	Record   closureme.CharacterRecord `json:"record"`
}

// ArtifactStatus is the outcome of one artifact in a download.
type ArtifactStatus string

const (
	ArtifactDownloaded ArtifactStatus = "downloaded"
	ArtifactMissing    ArtifactStatus = "missing"
	ArtifactFailed     ArtifactStatus = "failed"
)

// ArtifactResult is the per-artifact part of a DownloadReport.
type ArtifactResult struct {
	Kind      closureme.ArtifactKind `json:"kind"`
	Status    ArtifactStatus         `json:"status"`
	RemoteURL string                 `json:"remote_url,omitempty"`
	LocalPath string                 `json:"local_path,omitempty"`
	Size      int64                  `json:"size_bytes,omitempty"`
	Err       error                  `json:"-"` // nil unless Status is failed
}

// MarshalJSON includes the error message, which error values do not carry.
func (r ArtifactResult) MarshalJSON() ([]byte, error) {
	type plain ArtifactResult
	out := struct {
		plain
		Error string `json:"error,omitempty"`
	}{plain: plain(r)}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return json.Marshal(out)
}

// DownloadReport summarizes a character download.
type DownloadReport struct {
	Name      string           `json:"name"`
	Resolved  string           `json:"resolved"`
	Artifacts []ArtifactResult `json:"artifacts"`
}

// HasErrors returns true if any artifact failed to download.
func (r *DownloadReport) HasErrors() bool {
	for _, a := range r.Artifacts {
		if a.Status == ArtifactFailed {
			return true
		}
	}
	return false
}

// Downloaded returns the number of artifacts written to disk.
func (r *DownloadReport) Downloaded() int {
	n := 0
	for _, a := range r.Artifacts {
		if a.Status == ArtifactDownloaded {
			n++
		}
	}
	return n
}

// filesEnvelope is the wrapped form of the files listing some servers send.
type filesEnvelope struct {
	Data []closureme.FileEntry `json:"data"`
}

type loginResponse struct {
	Token string         `json:"token"`
	User  closureme.User `json:"user"`
}

type registerResponse struct {
	User closureme.User `json:"user"`
}

type lookupResponse struct {
	Data *closureme.CharacterRecord `json:"data"`
}
