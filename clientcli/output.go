package clientcli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/closureme/closureme"
)

// Formatter formats results for output.
type Formatter interface {
	FormatRegister(w io.Writer, user closureme.User) error
	FormatLogin(w io.Writer, session *Session) error
	FormatUpload(w io.Writer, result *UploadResult) error
	FormatDownload(w io.Writer, report *DownloadReport) error
	FormatFiles(w io.Writer, files []closureme.FileEntry) error
	FormatDelete(w io.Writer, fileName, message string) error
	FormatRename(w io.Writer, fileName, newName, message string) error
	FormatError(w io.Writer, err error) error
	FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error
	FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error
}

// NewFormatter returns the appropriate formatter based on flags.
func NewFormatter(jsonOutput, quiet bool) Formatter {
	if jsonOutput {
		return &JSONFormatter{}
	}
	return &HumanFormatter{Quiet: quiet}
}

// HumanFormatter outputs human-readable text.
type HumanFormatter struct {
	Quiet bool
}

// FormatRegister formats a created account as human-readable text.
func (f *HumanFormatter) FormatRegister(w io.Writer, user closureme.User) error {
	if !f.Quiet {
		_, _ = fmt.Fprintf(w, "Registered: %s <%s>\n", user.Username, user.Email)
	}
	return nil
}

// FormatLogin formats a new session as human-readable text.
func (f *HumanFormatter) FormatLogin(w io.Writer, session *Session) error {
	if !f.Quiet {
		_, _ = fmt.Fprintf(w, "Logged in as %s\n", session.User.Username)
	}
	return nil
}

// FormatUpload formats an upload result as human-readable text.
func (f *HumanFormatter) FormatUpload(w io.Writer, result *UploadResult) error {
	if f.Quiet {
		return nil
	}
	_, _ = fmt.Fprintf(w, "Uploaded: %s\n", result.Record.FileName)
	for _, kind := range closureme.ArtifactKinds {
		if p, ok := result.Record.Path(kind); ok {
			_, _ = fmt.Fprintf(w, "  %-10s %s\n", kind+":", p)
		}
	}
	return nil
}

// FormatDownload formats a download report as human-readable text.
// Missing artifacts are informational; failures are printed as errors.
func (f *HumanFormatter) FormatDownload(w io.Writer, report *DownloadReport) error {
	if !f.Quiet && report.Resolved != report.Name {
		_, _ = fmt.Fprintf(w, "Resolved: %s -> %s\n", report.Name, report.Resolved)
	}

	for i := range report.Artifacts {
		a := &report.Artifacts[i]
		switch a.Status {
		case ArtifactDownloaded:
			if !f.Quiet {
				_, _ = fmt.Fprintf(w, "Downloaded %s: %s (%s)\n", a.Kind, a.LocalPath, formatSize(a.Size))
			}
		case ArtifactMissing:
			if !f.Quiet {
				_, _ = fmt.Fprintf(w, "No %s path found\n", a.Kind)
			}
		case ArtifactFailed:
			_, _ = fmt.Fprintf(w, "Error: %s download failed: %v\n", a.Kind, a.Err)
		}
	}
	return nil
}

// FormatFiles formats the file listing as human-readable text.
func (f *HumanFormatter) FormatFiles(w io.Writer, files []closureme.FileEntry) error {
	if len(files) == 0 {
		_, _ = fmt.Fprintln(w, "No files found")
		return nil
	}

	// Calculate column widths
	maxNameLen := 4 // "NAME"
	for i := range files {
		if len(files[i].FileName) > maxNameLen {
			maxNameLen = len(files[i].FileName)
		}
	}
	if maxNameLen > 40 {
		maxNameLen = 40
	}

	_, _ = fmt.Fprintf(w, "%6s  %-*s  %-20s  %s\n", "ID", maxNameLen, "NAME", "UPLOADED", "ARTIFACTS")
	_, _ = fmt.Fprintf(w, "%s  %s  %s  %s\n", strings.Repeat("-", 6), strings.Repeat("-", maxNameLen), strings.Repeat("-", 20), strings.Repeat("-", 9))

	for i := range files {
		file := &files[i]
		name := file.FileName
		if len(name) > maxNameLen {
			name = name[:maxNameLen-3] + "..."
		}
		_, _ = fmt.Fprintf(w, "%6s  %-*s  %-20s  %s\n",
			file.ImageID.String(),
			maxNameLen,
			name,
			file.UploadedAt,
			artifactFlags(file),
		)
	}

	_, _ = fmt.Fprintf(w, "\n%d file(s)\n", len(files))
	return nil
}

// artifactFlags renders which artifacts a listed file has, e.g. "i-m".
func artifactFlags(file *closureme.FileEntry) string {
	flag := func(p *string, c string) string {
		if p == nil || *p == "" {
			return "-"
		}
		return c
	}
	return flag(file.ImagePath, "i") + flag(file.AppearancePath, "a") + flag(file.MemoryPath, "m")
}

// FormatDelete formats a delete confirmation as human-readable text.
func (f *HumanFormatter) FormatDelete(w io.Writer, fileName, message string) error {
	if !f.Quiet {
		_, _ = fmt.Fprintf(w, "Deleted: %s%s\n", fileName, suffixMessage(message))
	}
	return nil
}

// FormatRename formats a rename confirmation as human-readable text.
func (f *HumanFormatter) FormatRename(w io.Writer, fileName, newName, message string) error {
	if !f.Quiet {
		_, _ = fmt.Fprintf(w, "Renamed: %s -> %s%s\n", fileName, newName, suffixMessage(message))
	}
	return nil
}

func suffixMessage(message string) string {
	if message == "" {
		return ""
	}
	return " (" + message + ")"
}

// FormatError formats an error as human-readable text.
func (f *HumanFormatter) FormatError(w io.Writer, err error) error {
	if IsTransport(err) {
		_, _ = fmt.Fprintf(w, "Error: network error: %v\n", err)
		return nil
	}
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	return nil
}

// JSONFormatter outputs JSON.
type JSONFormatter struct{}

// FormatRegister formats a created account as JSON.
func (f *JSONFormatter) FormatRegister(w io.Writer, user closureme.User) error {
	return writeJSON(w, struct {
		User closureme.User `json:"user"`
	}{User: user})
}

// FormatLogin formats a new session as JSON. The token is included so the
// output can be fed to CLOSUREME_TOKEN.
func (f *JSONFormatter) FormatLogin(w io.Writer, session *Session) error {
	return writeJSON(w, session)
}

// FormatUpload formats an upload result as JSON.
func (f *JSONFormatter) FormatUpload(w io.Writer, result *UploadResult) error {
	return writeJSON(w, result)
}

// FormatDownload formats a download report as JSON.
func (f *JSONFormatter) FormatDownload(w io.Writer, report *DownloadReport) error {
	return writeJSON(w, report)
}

// FormatFiles formats the file listing as JSON.
func (f *JSONFormatter) FormatFiles(w io.Writer, files []closureme.FileEntry) error {
	if files == nil {
		files = []closureme.FileEntry{}
	}
	return writeJSON(w, struct {
		Files []closureme.FileEntry `json:"files"`
	}{Files: files})
}

// FormatDelete formats a delete confirmation as JSON.
func (f *JSONFormatter) FormatDelete(w io.Writer, fileName, message string) error {
	return writeJSON(w, struct {
		FileName string `json:"file_name"`
		Deleted  bool   `json:"deleted"`
		Message  string `json:"message,omitempty"`
	}{FileName: fileName, Deleted: true, Message: message})
}

// FormatRename formats a rename confirmation as JSON.
func (f *JSONFormatter) FormatRename(w io.Writer, fileName, newName, message string) error {
	return writeJSON(w, struct {
		FileName string `json:"file_name"`
		NewName  string `json:"new_name"`
		Message  string `json:"message,omitempty"`
	}{FileName: fileName, NewName: newName, Message: message})
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	output := struct {
		Error  string `json:"error"`
		Status int    `json:"status,omitempty"`
	}{
		Error: err.Error(),
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		output.Status = apiErr.StatusCode
	}
	return writeJSON(w, output)
}

// writeJSON writes a value as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatSize formats bytes as human-readable size.
func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case bytes >= TB:
		return fmt.Sprintf("%.1f TB", float64(bytes)/TB)
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatProfileList formats a list of profiles as human-readable text.
func (f *HumanFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error {
	// Calculate column widths
	maxNameLen := 4     // "NAME"
	maxEndpointLen := 8 // "ENDPOINT"
	for i := range profiles {
		if len(profiles[i].Name) > maxNameLen {
			maxNameLen = len(profiles[i].Name)
		}
		if len(profiles[i].Endpoint) > maxEndpointLen {
			maxEndpointLen = len(profiles[i].Endpoint)
		}
	}
	if maxNameLen > 20 {
		maxNameLen = 20
	}
	if maxEndpointLen > 50 {
		maxEndpointLen = 50
	}

	_, _ = fmt.Fprintf(w, "  %-*s  %-*s  %s\n", maxNameLen, "NAME", maxEndpointLen, "ENDPOINT", "TOKEN")
	_, _ = fmt.Fprintf(w, "  %s  %s  %s\n", strings.Repeat("-", maxNameLen), strings.Repeat("-", maxEndpointLen), strings.Repeat("-", 20))

	for i := range profiles {
		p := &profiles[i]
		marker := " "
		if p.Name == defaultName {
			marker = "*"
		}

		name := p.Name
		if len(name) > maxNameLen {
			name = name[:maxNameLen-3] + "..."
		}

		endpoint := p.Endpoint
		if len(endpoint) > maxEndpointLen {
			endpoint = endpoint[:maxEndpointLen-3] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s %-*s  %-*s  %s\n", marker, maxNameLen, name, maxEndpointLen, endpoint, maskSecret(p.Token, showSecrets))
	}

	return nil
}

// FormatProfileShow formats a single profile as human-readable text.
func (f *HumanFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error {
	_, _ = fmt.Fprintf(w, "Name:      %s", profile.Name)
	if isDefault {
		_, _ = fmt.Fprintf(w, " (default)")
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Endpoint:  %s\n", profile.Endpoint)
	downloads := profile.DownloadsDir
	if downloads == "" {
		downloads = "(platform default)"
	}
	_, _ = fmt.Fprintf(w, "Downloads: %s\n", downloads)
	_, _ = fmt.Fprintf(w, "Token:     %s\n", maskSecret(profile.Token, showSecrets))
	return nil
}

type jsonProfile struct {
	Name         string `json:"name"`
	Endpoint     string `json:"endpoint"`
	DownloadsDir string `json:"downloads_dir,omitempty"`
	Token        string `json:"token,omitempty"`
	Default      bool   `json:"default"`
}

func toJSONProfile(p *Profile, isDefault, showSecrets bool) jsonProfile {
	return jsonProfile{
		Name:         p.Name,
		Endpoint:     p.Endpoint,
		DownloadsDir: p.DownloadsDir,
		Token:        maskSecret(p.Token, showSecrets),
		Default:      isDefault,
	}
}

// FormatProfileList formats a list of profiles as JSON.
func (f *JSONFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error {
	output := struct {
		Profiles []jsonProfile `json:"profiles"`
	}{
		Profiles: make([]jsonProfile, len(profiles)),
	}

	for i := range profiles {
		output.Profiles[i] = toJSONProfile(&profiles[i], profiles[i].Name == defaultName, showSecrets)
	}

	return writeJSON(w, output)
}

// FormatProfileShow formats a single profile as JSON.
func (f *JSONFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error {
	return writeJSON(w, toJSONProfile(&profile, isDefault, showSecrets))
}

// maskSecret masks a secret string, showing only first 4 and last 4 characters.
// If showSecrets is true, returns the original value.
// If the secret is too short, returns all asterisks.
func maskSecret(secret string, showSecrets bool) string {
	if showSecrets {
		return secret
	}
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 8 {
		return "********"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}
