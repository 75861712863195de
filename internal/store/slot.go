package store

import (
	"context"
	"errors"
	"sync"
)

// FingerprintSlot is the name of the slot holding the fingerprint digest.
const FingerprintSlot = "vpn_fp"

// ErrSlotEmpty is returned by Load when the slot has never been written.
var ErrSlotEmpty = errors.New("slot is empty")

// Slot is a single named persistent value.
// Implementations are safe for concurrent use.
type Slot interface {
	// Load returns the stored value or ErrSlotEmpty.
	Load(ctx context.Context) (string, error)

	// Store replaces the stored value.
	Store(ctx context.Context, value string) error
}

// MemorySlot is a Slot kept in memory.
type MemorySlot struct {
	mu    sync.Mutex
	value string
	set   bool
}

// NewMemorySlot returns an empty MemorySlot.
func NewMemorySlot() *MemorySlot {
	return &MemorySlot{}
}

// Load implements Slot.
func (s *MemorySlot) Load(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return "", ErrSlotEmpty
	}
	return s.value, nil
}

// Store implements Slot.
func (s *MemorySlot) Store(_ context.Context, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = value
	s.set = true
	return nil
}
