package clientcli

import (
	"errors"
	"fmt"
	"os"
)

// Errors for profile operations.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrNoProfiles      = errors.New("no profiles configured")
	ErrProfileExists   = errors.New("profile already exists")
)

// Errors for configuration validation.
var (
	ErrConfigRequired = errors.New("config is required")
)

// Errors for input validation.
var (
	ErrEmptyName     = errors.New("file name is required")
	ErrEmptyPath     = errors.New("path is required")
	ErrImageNotFound = fmt.Errorf("image file not found: %w", os.ErrNotExist)
)
