package closureme

import (
	"net/url"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"
)

// candidateSuffixes are tried in order when resolving a logical name.
var candidateSuffixes = []string{"", ".png", ".jpg"}

// CandidateNames returns the stored-name variants probed for a logical name,
// in probe order.
func CandidateNames(name string) []string {
	names := make([]string, len(candidateSuffixes))
	for i, suffix := range candidateSuffixes {
		names[i] = name + suffix
	}
	return names
}

// ArtifactFileName returns the local file name for an artifact of a character.
// Images keep the extension of the remote path; text artifacts get a fixed suffix.
func ArtifactFileName(kind ArtifactKind, name, remotePath string) string {
	switch kind {
	case ArtifactImage:
		return name + path.Ext(stripQuery(remotePath))
	case ArtifactAppearance:
		return name + "_appearance.txt"
	case ArtifactMemory:
		return name + "_memory.txt"
	default:
		return name
	}
}

// stripQuery drops any query string or fragment from a relative URL path.
func stripQuery(p string) string {
	if u, err := url.Parse(p); err == nil {
		return u.Path
	}
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		return p[:i]
	}
	return p
}

// IsValidName validates that a logical character name can be used as a local
// file name. It checks that the name:
//   - is not empty, "." or ".."
//   - contains no path separators (/ or \)
//   - is valid UTF-8
//   - does not contain null bytes or control characters
func IsValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}

	if strings.ContainsAny(name, `/\`) {
		return false
	}

	if !utf8.ValidString(name) {
		return false
	}

	for _, r := range name {
		if r == 0 || unicode.IsControl(r) {
			return false
		}
	}

	return true
}
