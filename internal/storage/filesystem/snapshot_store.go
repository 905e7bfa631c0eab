// Package filesystem persists cookie snapshots as JSON or YAML files.
package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/artpar/cookiestore/internal/cookies"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Format is a snapshot file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the encoding from the file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// ParseFormat validates a user supplied format name.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown snapshot format: %s", name)
}

// SnapshotStore manages a snapshot file.
type SnapshotStore struct {
	fs     afero.Fs
	path   string
	format Format
}

var _ cookies.SnapshotStore = (*SnapshotStore)(nil)

// NewSnapshotStore creates a snapshot store for path on fsys.
func NewSnapshotStore(fsys afero.Fs, path string) *SnapshotStore {
	return &SnapshotStore{
		fs:     fsys,
		path:   path,
		format: FormatFromPath(path),
	}
}

// Path returns the snapshot file path.
func (s *SnapshotStore) Path() string {
	return s.path
}

// Load reads the snapshot file. A missing file yields an empty snapshot.
func (s *SnapshotStore) Load(ctx context.Context) (cookies.Snapshot, error) {
	content, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return cookies.Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	snap, err := Decode(content, s.format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", s.path, err)
	}
	return snap, nil
}

// Save writes the snapshot through a temporary file so readers never see a
// partial file.
func (s *SnapshotStore) Save(ctx context.Context, snap cookies.Snapshot) error {
	content, err := Encode(snap, s.format)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, content, 0600); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		s.fs.Remove(tmp)
		return fmt.Errorf("failed to replace snapshot file: %w", err)
	}
	return nil
}

// Encode renders a snapshot in the given format.
func Encode(snap cookies.Snapshot, format Format) ([]byte, error) {
	if snap == nil {
		snap = cookies.Snapshot{}
	}
	if format == FormatYAML {
		return yaml.Marshal(snap)
	}
	return json.MarshalIndent(snap, "", "  ")
}

// Decode parses a snapshot in the given format. Empty input is an empty
// snapshot.
func Decode(content []byte, format Format) (cookies.Snapshot, error) {
	snap := cookies.Snapshot{}
	if len(strings.TrimSpace(string(content))) == 0 {
		return snap, nil
	}

	var err error
	if format == FormatYAML {
		err = yaml.Unmarshal(content, &snap)
	} else {
		err = json.Unmarshal(content, &snap)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", cookies.ErrMalformedSnapshot, err)
	}
	if snap == nil {
		snap = cookies.Snapshot{}
	}
	return snap, nil
}
