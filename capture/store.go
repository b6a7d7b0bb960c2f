package capture

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store writes artifact files under one directory with
// content-addressed-by-fieldKey filenames. Returned references are
// relative paths, suitable for the artifact metadata JSON.
type Store struct {
	dir string
}

// NewStore creates the directory when missing.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("capture: store dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("capture: store dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store's base directory.
func (s *Store) Dir() string { return s.dir }

// Save persists one artifact file and verifies the written file is
// non-empty before declaring success.
func (s *Store) Save(fieldKey, ext string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyArtifact
	}

	sum := sha256.Sum256(data)
	name := fmt.Sprintf("%s_%s%s", sanitizeKey(fieldKey), hex.EncodeToString(sum[:6]), ext)
	full := filepath.Join(s.dir, name)

	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("capture: write %s: %w", name, err)
	}
	info, err := os.Stat(full)
	if err != nil {
		return "", fmt.Errorf("capture: verify %s: %w", name, err)
	}
	if info.Size() == 0 {
		os.Remove(full)
		return "", ErrEmptyArtifact
	}
	return name, nil
}

// sanitizeKey makes a fieldKey filesystem-safe.
func sanitizeKey(key string) string {
	var sb strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	if sb.Len() == 0 {
		return "artifact"
	}
	return sb.String()
}
