package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rogpeppe/go-internal/lockedfile"
)

// FileSlot is a Slot backed by a single file. Reads and writes take an
// advisory file lock, so concurrent processes never observe a torn value.
type FileSlot struct {
	path string
}

// NewFileSlot returns a FileSlot stored at path, creating the parent
// directory if needed.
func NewFileSlot(path string) (*FileSlot, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create slot directory: %w", err)
	}
	return &FileSlot{path: path}, nil
}

// Path returns the file the slot is stored in.
func (s *FileSlot) Path() string {
	return s.path
}

// Load implements Slot.
func (s *FileSlot) Load(_ context.Context) (string, error) {
	data, err := lockedfile.Read(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrSlotEmpty
	}
	if err != nil {
		return "", fmt.Errorf("failed to read slot: %w", err)
	}
	return string(data), nil
}

// Store implements Slot.
func (s *FileSlot) Store(_ context.Context, value string) error {
	if err := lockedfile.Write(s.path, bytes.NewReader([]byte(value)), 0600); err != nil {
		return fmt.Errorf("failed to write slot: %w", err)
	}
	return nil
}
