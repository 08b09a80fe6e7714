package clientcli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/closureme/closureme"
	"github.com/closureme/closureme/filesystem"
)

// ArtifactWriter persists a downloaded artifact under a local name.
// *filesystem.Store implements it with atomic replace semantics.
type ArtifactWriter interface {
	Write(ctx context.Context, name string, content io.Reader) (filesystem.WriteResult, error)
}

// ResolveCharacter finds the stored file name for a logical name by looking
// up each candidate from closureme.CandidateNames in order and stopping at
// the first success.
//
// When every candidate is rejected the error of the last attempt is
// returned; earlier ones are dropped. A transport failure aborts at once
// without trying further candidates.
func (c *Client) ResolveCharacter(ctx context.Context, s *Session, name string) (*Resolution, error) {
	if name == "" {
		return nil, fmt.Errorf("resolve: %w", ErrEmptyName)
	}
	if !s.Valid() {
		return nil, closureme.ErrNotLoggedIn
	}

	var lastErr error
	for _, candidate := range closureme.CandidateNames(name) {
		rec, err := c.LookupCharacter(ctx, s, candidate)
		if err == nil {
			return &Resolution{Name: name, Resolved: candidate, Record: rec}, nil
		}

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			return nil, err
		}

		c.logger.DebugContext(ctx, "candidate rejected", "candidate", candidate, "status", apiErr.StatusCode)
		lastErr = apiErr
	}

	return nil, lastErr
}

// DownloadCharacter resolves req.Name and fetches each requested artifact
// into dst. Artifacts are handled independently: an absent path is reported
// as missing and a failed fetch as failed, and neither stops the others.
// The returned error is non-nil only when resolution itself fails.
func (c *Client) DownloadCharacter(ctx context.Context, s *Session, req DownloadRequest, dst ArtifactWriter) (*DownloadReport, error) {
	if !closureme.IsValidName(req.Name) {
		return nil, fmt.Errorf("download: %w: name %q", closureme.ErrInvalidInput, req.Name)
	}
	if !req.Type.IsValid() {
		return nil, fmt.Errorf("download: %w: type %q", closureme.ErrInvalidInput, req.Type)
	}

	res, err := c.ResolveCharacter(ctx, s, req.Name)
	if err != nil {
		return nil, err
	}

	report := &DownloadReport{Name: req.Name, Resolved: res.Resolved}

	for _, kind := range closureme.ArtifactKinds {
		if !req.Type.Includes(kind) {
			continue
		}

		remote, ok := res.Record.Path(kind)
		if !ok {
			c.logger.InfoContext(ctx, "artifact path absent", "name", req.Name, "kind", kind)
			report.Artifacts = append(report.Artifacts, ArtifactResult{Kind: kind, Status: ArtifactMissing})
			continue
		}

		report.Artifacts = append(report.Artifacts, c.downloadArtifact(ctx, kind, req.Name, remote, dst))
	}

	return report, nil
}

func (c *Client) downloadArtifact(ctx context.Context, kind closureme.ArtifactKind, name, remote string, dst ArtifactWriter) ArtifactResult {
	result := ArtifactResult{
		Kind:      kind,
		RemoteURL: c.artifactURL(remote),
	}

	localName := closureme.ArtifactFileName(kind, name, remote)

	body, err := c.fetch(ctx, result.RemoteURL)
	if err != nil {
		result.Status = ArtifactFailed
		result.Err = err
		return result
	}
	defer func() { _ = body.Close() }()

	written, err := dst.Write(ctx, localName, body)
	if err != nil {
		result.Status = ArtifactFailed
		result.Err = fmt.Errorf("save %s: %w", localName, err)
		return result
	}

	result.Status = ArtifactDownloaded
	result.LocalPath = written.Path
	result.Size = written.BytesWritten
	return result
}
