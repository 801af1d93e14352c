// Package security confines exported artefacts to allowed directories.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// maxFilenameLen bounds names produced by SanitizeFilename.
const maxFilenameLen = 128

// JoinWithin joins name onto dir and rejects names that are absolute or
// climb out of dir. The check is lexical, so it also serves in-memory
// filesystems.
func JoinWithin(dir, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty file name")
	}
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("file name %q must be relative to %s", name, dir)
	}
	joined := filepath.Join(dir, name)
	if escapes(filepath.Clean(dir), joined) {
		return "", fmt.Errorf("path traversal detected: %s attempts to escape %s", name, dir)
	}
	return joined, nil
}

// ValidatePathWithinDirectory reports whether filePath, once made absolute
// and resolved through any symlinks, lies inside safeDir. Paths that do
// not exist yet are resolved through their nearest existing parent.
func ValidatePathWithinDirectory(filePath, safeDir string) error {
	path, err := canonical(filePath)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", filePath, err)
	}
	absDir, err := filepath.Abs(safeDir)
	if err != nil {
		return fmt.Errorf("failed to resolve safe directory path: %w", err)
	}
	dir, err := filepath.EvalSymlinks(absDir)
	if err != nil {
		return fmt.Errorf("failed to resolve safe directory symlinks: %w", err)
	}
	if escapes(dir, path) {
		return fmt.Errorf("path traversal detected: %s attempts to escape %s", filePath, safeDir)
	}
	return nil
}

// canonical returns the absolute, symlink-free form of p. The missing tail
// of a path that does not exist is appended to its resolved parent, so a
// symlinked parent cannot smuggle a new file outside.
func canonical(p string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(p))
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	for parent := filepath.Dir(abs); ; parent = filepath.Dir(parent) {
		if resolved, err := filepath.EvalSymlinks(parent); err == nil {
			rel, err := filepath.Rel(parent, abs)
			if err != nil {
				return "", err
			}
			return filepath.Join(resolved, rel), nil
		}
		if parent == filepath.Dir(parent) {
			return abs, nil
		}
	}
}

func escapes(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return true
	}
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel)
}

// ValidatePathWithinAllowedDirs checks filePath against each directory in
// turn and succeeds on the first that contains it.
func ValidatePathWithinAllowedDirs(filePath string, allowedDirs []string) error {
	if len(allowedDirs) == 0 {
		return fmt.Errorf("no allowed directories specified")
	}
	for _, dir := range allowedDirs {
		if err := ValidatePathWithinDirectory(filePath, dir); err == nil {
			return nil
		}
	}
	return fmt.Errorf("path must be within one of the allowed directories: %v", allowedDirs)
}

// ValidateExportPath checks that an export target is inside the working
// directory or the system temp directory, plus any extra directories.
func ValidateExportPath(filePath string, extra ...string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	return ValidatePathWithinAllowedDirs(filePath, append([]string{cwd, os.TempDir()}, extra...))
}

// SanitizeFilename turns an arbitrary label, typically a log file's base
// name without extension, into a safe file name stem. Runs of characters
// other than ASCII letters, digits, dot, underscore and dash collapse to
// one underscore. An empty result becomes "unknown".
func SanitizeFilename(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxFilenameLen {
			break
		}
		switch {
		case r < 0x80 && (r == '.' || r == '-' || r == '_' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')):
			b.WriteRune(r)
			lastUnderscore = r == '_'
		case !lastUnderscore:
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}

// StemFor returns the sanitised base name of path without its extension.
func StemFor(path string) string {
	base := filepath.Base(path)
	return SanitizeFilename(strings.TrimSuffix(base, filepath.Ext(base)))
}
