// Package store persists the device fingerprint between detection passes
// and keeps a history of verdicts.
//
// A Slot holds exactly one opaque string under a fixed name. Three
// implementations exist:
//   - DB.Slot: a row in the SQLite database, next to the verdict history
//   - FileSlot: a single file guarded by an advisory lock
//   - MemorySlot: process-local, used in tests and with --no-store
//
// Reading a slot that was never written returns ErrSlotEmpty, which the
// detection pass treats as "no previous fingerprint".
package store
