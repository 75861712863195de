package model

import "strings"

// LeakAddressSet is the set of addresses observed during WebRTC candidate
// gathering. Addresses are deduplicated by exact string equality and kept
// in insertion order for display; scoring treats the set as unordered.
// The zero value is an empty set ready to use.
type LeakAddressSet struct {
	addrs []string
	seen  map[string]struct{}
}

// NewLeakAddressSet returns a set holding the given addresses.
func NewLeakAddressSet(addrs ...string) LeakAddressSet {
	var s LeakAddressSet
	for _, a := range addrs {
		s.Add(a)
	}
	return s
}

// Add inserts addr and reports whether it was not present yet.
// Empty strings are ignored.
func (s *LeakAddressSet) Add(addr string) bool {
	if addr == "" {
		return false
	}
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if _, ok := s.seen[addr]; ok {
		return false
	}
	s.seen[addr] = struct{}{}
	s.addrs = append(s.addrs, addr)
	return true
}

// Contains reports whether addr is in the set.
func (s LeakAddressSet) Contains(addr string) bool {
	_, ok := s.seen[addr]
	return ok
}

// Len returns the number of addresses.
func (s LeakAddressSet) Len() int {
	return len(s.addrs)
}

// Addresses returns a copy of the addresses in insertion order.
func (s LeakAddressSet) Addresses() []string {
	out := make([]string, len(s.addrs))
	copy(out, s.addrs)
	return out
}

// Clone returns an independent copy of the set.
func (s LeakAddressSet) Clone() LeakAddressSet {
	return NewLeakAddressSet(s.addrs...)
}

// String returns the addresses joined with commas.
func (s LeakAddressSet) String() string {
	return strings.Join(s.addrs, ",")
}
