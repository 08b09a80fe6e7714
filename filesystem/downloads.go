package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

// DownloadsDir returns the user's downloads directory:
// %USERPROFILE%\Downloads on Windows and ~/Downloads elsewhere.
func DownloadsDir() (string, error) {
	return downloadsDir(runtime.GOOS, os.Getenv, os.UserHomeDir)
}

func downloadsDir(goos string, getenv func(string) string, home func() (string, error)) (string, error) {
	if goos == "windows" {
		profile := getenv("USERPROFILE")
		if profile == "" {
			return "", errors.New("downloads dir: USERPROFILE is not set")
		}
		return filepath.Join(profile, "Downloads"), nil
	}

	dir, err := home()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "Downloads"), nil
}
