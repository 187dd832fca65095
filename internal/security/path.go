// Package security guards filesystem access for the stdio transport, which
// reads documents by path instead of receiving uploads.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator confines document paths to one configured directory.
type PathValidator struct {
	documentDirectory string
}

// NewPathValidator creates a validator rooted at the given directory. The
// directory does not have to exist yet; validation is skipped until it does.
func NewPathValidator(documentDirectory string) (*PathValidator, error) {
	if documentDirectory == "" {
		return nil, fmt.Errorf("document directory cannot be empty")
	}
	return &PathValidator{documentDirectory: documentDirectory}, nil
}

// DocumentDirectory returns the configured root.
func (v *PathValidator) DocumentDirectory() string {
	return v.documentDirectory
}

// ValidatePath checks that a path stays inside the document directory.
func (v *PathValidator) ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	// If the document directory doesn't exist yet, skip validation
	if _, err := os.Stat(v.documentDirectory); os.IsNotExist(err) {
		return nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	isWithin, err := v.isWithinDirectory(absPath)
	if err != nil {
		return fmt.Errorf("path validation failed: %w", err)
	}
	if !isWithin {
		return fmt.Errorf("path is outside document directory: %s", path)
	}
	return nil
}

// isWithinDirectory reports whether a path lies inside the document
// directory, comparing both the literal path and its symlink target.
func (v *PathValidator) isWithinDirectory(path string) (bool, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve path: %w", err)
	}
	absDir, err := filepath.Abs(v.documentDirectory)
	if err != nil {
		return false, fmt.Errorf("failed to resolve document directory: %w", err)
	}

	cleanPath := filepath.Clean(absPath)
	cleanDir := filepath.Clean(absDir)

	// Resolve symlinks on both sides so a link escaping the directory is
	// caught even when its literal path looks fine.
	realPath := cleanPath
	if info, err := os.Lstat(cleanPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		if resolved, err := filepath.EvalSymlinks(cleanPath); err == nil {
			realPath = resolved
		}
	}
	realDir := cleanDir
	if resolved, err := filepath.EvalSymlinks(cleanDir); err == nil {
		realDir = resolved
	}

	dirWithSep := cleanDir
	if !strings.HasSuffix(dirWithSep, string(filepath.Separator)) {
		dirWithSep += string(filepath.Separator)
	}
	realDirWithSep := realDir
	if !strings.HasSuffix(realDirWithSep, string(filepath.Separator)) {
		realDirWithSep += string(filepath.Separator)
	}

	pathOk := strings.HasPrefix(cleanPath, dirWithSep) || cleanPath == cleanDir ||
		strings.HasPrefix(cleanPath, realDirWithSep) || cleanPath == realDir
	realPathOk := strings.HasPrefix(realPath, dirWithSep) || realPath == cleanDir ||
		strings.HasPrefix(realPath, realDirWithSep) || realPath == realDir

	return pathOk && realPathOk, nil
}

// NormalizePath resolves a possibly relative path against the document
// directory and validates the result.
func (v *PathValidator) NormalizePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(v.documentDirectory, path)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	if err := v.ValidatePath(absPath); err != nil {
		return "", err
	}
	return absPath, nil
}

// SanitizePath strips null bytes before normalizing.
func (v *PathValidator) SanitizePath(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	return v.NormalizePath(path)
}
