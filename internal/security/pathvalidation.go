// Package security guards file paths derived from catalogue content. Galaxy
// names become postage-stamp filenames, so a name such as "../../etc/x" must
// not reach outside the stamp directory.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolveWithin joins name onto dir and returns the cleaned path, or an
// error if the result (after resolving symlinks of existing components)
// leaves dir.
func ResolveWithin(dir, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty file name")
	}
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("absolute file name %q not allowed", name)
	}
	joined := filepath.Join(dir, name)
	if err := ValidatePathWithinDirectory(joined, dir); err != nil {
		return "", err
	}
	return joined, nil
}

// ValidatePathWithinDirectory checks that filePath stays inside safeDir once
// both are made absolute and symlinks of their existing prefixes resolved.
func ValidatePathWithinDirectory(filePath, safeDir string) error {
	absPath, err := filepath.Abs(filepath.Clean(filePath))
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	absSafeDir, err := filepath.Abs(safeDir)
	if err != nil {
		return fmt.Errorf("failed to resolve safe directory path: %w", err)
	}

	canonicalPath := canonical(absPath)
	canonicalSafeDir := canonical(absSafeDir)

	relPath, err := filepath.Rel(canonicalSafeDir, canonicalPath)
	if err != nil {
		return fmt.Errorf("path is outside safe directory: %w", err)
	}
	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) || filepath.IsAbs(relPath) {
		return fmt.Errorf("path traversal detected: %s attempts to escape %s", filePath, safeDir)
	}
	return nil
}

// canonical resolves symlinks on the longest existing prefix of p. A path
// that does not exist yet keeps its missing tail.
func canonical(p string) string {
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		return resolved
	}
	check := p
	for {
		parent := filepath.Dir(check)
		if parent == check {
			return p
		}
		if resolved, err := filepath.EvalSymlinks(parent); err == nil {
			rel, _ := filepath.Rel(parent, p)
			return filepath.Join(resolved, rel)
		}
		check = parent
	}
}

// EnsureDir creates dir (and parents) for output files.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	return nil
}
