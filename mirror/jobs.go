package mirror

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/closureme/closureme"
	"github.com/closureme/closureme/filesystem"
)

// BatchReport summarizes a job that moves many objects.
type BatchReport struct {
	Downloaded int                  `json:"downloaded"`
	Uploaded   int                  `json:"uploaded"`
	Skipped    int                  `json:"skipped"`
	Failed     int                  `json:"failed"`
	Dir        string               `json:"dir"`
	Transfers  []closureme.Transfer `json:"transfers"`
}

func (r *BatchReport) add(t closureme.Transfer) {
	r.Transfers = append(r.Transfers, t)
	switch t.Status {
	case closureme.TransferSkipped:
		r.Skipped++
	case closureme.TransferFailed:
		r.Failed++
	case closureme.TransferDone:
		if t.Direction == closureme.DirectionUpload {
			r.Uploaded++
		} else {
			r.Downloaded++
		}
	}
}

// PendingImages downloads every image in the server's pending queue into
// the image directory. Images already present locally are skipped and a
// failed image does not stop the rest.
func (m *Mirror) PendingImages(ctx context.Context) (*BatchReport, error) {
	if m.api == nil {
		return nil, ErrAPIURLRequired
	}
	if m.cfg.ImageDir == "" {
		return nil, fmt.Errorf("pending images: image %w", ErrDirRequired)
	}

	images, err := m.api.PendingImages(ctx)
	if err != nil {
		return nil, fmt.Errorf("pending images: %w", err)
	}

	report := &BatchReport{Dir: m.cfg.ImageDir, Transfers: []closureme.Transfer{}}
	if len(images) == 0 {
		m.logger.InfoContext(ctx, "no pending images")
		return report, nil
	}

	for _, img := range images {
		key, name, parseErr := objectKeyFromURL(img.FilePath)
		if parseErr != nil {
			t, _ := m.fail(ctx, closureme.Transfer{
				Job:       JobImages,
				Direction: closureme.DirectionDownload,
				ObjectKey: img.FilePath,
			}, parseErr)
			report.add(t)
			continue
		}

		t, err := m.download(ctx, JobImages, key, m.cfg.ImageDir, name, false)
		if err == nil && t.Status == closureme.TransferDone {
			m.logger.InfoContext(ctx, "downloaded image", "file", name, "batch", img.UploadBatch)
		}
		report.add(t)
	}

	return report, nil
}

// Memory downloads uploads/<name>_memory.txt to <memory dir>/<name>.txt
// unless that file already exists.
func (m *Mirror) Memory(ctx context.Context, name string) (closureme.Transfer, error) {
	if err := validateName(name); err != nil {
		return closureme.Transfer{}, err
	}
	if m.cfg.MemoryDir == "" {
		return closureme.Transfer{}, fmt.Errorf("memory: %w", ErrDirRequired)
	}
	return m.download(ctx, JobMemory, "uploads/"+name+"_memory.txt", m.cfg.MemoryDir, name+".txt", false)
}

// Profile downloads uploads/<name>_profile.json to <profile dir>/<name>.json
// unless that file already exists.
func (m *Mirror) Profile(ctx context.Context, name string) (closureme.Transfer, error) {
	if err := validateName(name); err != nil {
		return closureme.Transfer{}, err
	}
	if m.cfg.ProfileDir == "" {
		return closureme.Transfer{}, fmt.Errorf("profile: %w", ErrDirRequired)
	}
	return m.download(ctx, JobProfile, "uploads/"+name+"_profile.json", m.cfg.ProfileDir, name+".json", false)
}

// Model downloads uploads/<name>.fbx as the single model file, replacing
// the previous one.
func (m *Mirror) Model(ctx context.Context, name string) (closureme.Transfer, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return closureme.Transfer{}, err
	}
	if m.cfg.ModelDir == "" {
		return closureme.Transfer{}, fmt.Errorf("model: %w", ErrDirRequired)
	}
	return m.download(ctx, JobModel, "uploads/"+name+".fbx", m.cfg.ModelDir, modelFileName, true)
}

// Voice downloads the object behind voiceURL as the default voice file,
// replacing the previous one.
func (m *Mirror) Voice(ctx context.Context, voiceURL string) (closureme.Transfer, error) {
	key, _, err := objectKeyFromURL(voiceURL)
	if err != nil {
		return closureme.Transfer{}, fmt.Errorf("voice: %w", err)
	}
	if m.cfg.VoiceDir == "" {
		return closureme.Transfer{}, fmt.Errorf("voice: %w", ErrDirRequired)
	}
	return m.download(ctx, JobVoice, key, m.cfg.VoiceDir, voiceFileName, true)
}

// UploadFBX uploads every .fbx file of the upload directory to
// fbx/temp/<stem>_init.fbx. Per-file failures are reported, not returned.
func (m *Mirror) UploadFBX(ctx context.Context) (*BatchReport, error) {
	if m.cfg.FBXDir == "" {
		return nil, fmt.Errorf("upload fbx: %w", ErrDirRequired)
	}

	src, err := filesystem.Open(m.cfg.FBXDir)
	if err != nil {
		return nil, fmt.Errorf("upload fbx: %w", err)
	}
	defer func() { _ = src.Close() }()

	entries, err := src.List(ctx, ".fbx")
	if err != nil {
		return nil, fmt.Errorf("upload fbx: %w", err)
	}

	report := &BatchReport{Dir: m.cfg.FBXDir, Transfers: []closureme.Transfer{}}
	for _, entry := range entries {
		report.add(m.upload(ctx, src, entry))
	}

	return report, nil
}

func (m *Mirror) upload(ctx context.Context, src *filesystem.Store, entry filesystem.Entry) closureme.Transfer {
	stem := strings.TrimSuffix(entry.Name, filepath.Ext(entry.Name))
	t := closureme.Transfer{
		Job:       JobUploadFBX,
		Direction: closureme.DirectionUpload,
		ObjectKey: "fbx/temp/" + stem + "_init.fbx",
		LocalPath: src.Path(entry.Name),
		SizeBytes: entry.Size,
	}

	f, err := src.Get(ctx, entry.Name)
	if err != nil {
		t, _ = m.fail(ctx, t, err)
		return t
	}
	defer func() { _ = f.Close() }()

	if err := m.store.Put(ctx, t.ObjectKey, f, entry.Size); err != nil {
		t, _ = m.fail(ctx, t, err)
		return t
	}

	t.Status = closureme.TransferDone
	m.logger.InfoContext(ctx, "uploaded", "key", t.ObjectKey, "size", t.SizeBytes)
	return m.record(ctx, t)
}

// WriteIndex writes name followed by a newline to index.txt in the index
// directory and returns the file path.
func (m *Mirror) WriteIndex(ctx context.Context, name string) (string, error) {
	if m.cfg.IndexDir == "" {
		return "", fmt.Errorf("write index: index %w", ErrDirRequired)
	}

	dst, err := filesystem.Open(m.cfg.IndexDir)
	if err != nil {
		return "", fmt.Errorf("write index: %w", err)
	}
	defer func() { _ = dst.Close() }()

	res, err := dst.Write(ctx, indexFileName, strings.NewReader(name+"\n"))
	if err != nil {
		return "", fmt.Errorf("write index: %w", err)
	}
	return res.Path, nil
}

// download copies key into dir/name. Without replace an existing file is
// kept and the transfer is recorded as skipped.
func (m *Mirror) download(ctx context.Context, job, key, dir, name string, replace bool) (closureme.Transfer, error) {
	t := closureme.Transfer{
		Job:       job,
		Direction: closureme.DirectionDownload,
		ObjectKey: key,
		LocalPath: filepath.Join(dir, name),
	}

	dst, err := filesystem.Open(dir)
	if err != nil {
		return m.fail(ctx, t, err)
	}
	defer func() { _ = dst.Close() }()

	if !replace {
		exists, err := dst.Exists(name)
		if err != nil {
			return m.fail(ctx, t, err)
		}
		if exists {
			t.Status = closureme.TransferSkipped
			m.logger.InfoContext(ctx, "already exists locally, skipping", "path", t.LocalPath)
			return m.record(ctx, t), nil
		}
	}

	body, err := m.store.Get(ctx, key)
	if err != nil {
		return m.fail(ctx, t, err)
	}
	defer func() { _ = body.Close() }()

	res, err := dst.Write(ctx, name, body)
	if err != nil {
		return m.fail(ctx, t, err)
	}

	t.Status = closureme.TransferDone
	t.SizeBytes = res.BytesWritten
	m.logger.DebugContext(ctx, "downloaded", "key", key, "path", res.Path, "size", res.BytesWritten)
	return m.record(ctx, t), nil
}

// objectKeyFromURL returns the bucket key (URL path without the leading
// slash) and the base file name of an object URL.
func objectKeyFromURL(raw string) (key, name string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("%w: object url %q: %v", closureme.ErrInvalidInput, raw, err)
	}

	key = strings.TrimPrefix(u.Path, "/")
	name = path.Base(u.Path)
	if key == "" || name == "." || name == "/" {
		return "", "", fmt.Errorf("%w: object url %q has no path", closureme.ErrInvalidInput, raw)
	}
	return key, name, nil
}

func validateName(name string) error {
	if !closureme.IsValidName(name) {
		return fmt.Errorf("%w: name %q", closureme.ErrInvalidInput, name)
	}
	return nil
}
