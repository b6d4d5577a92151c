// Package store defines the handshake record model and the persistence
// contract the coordinator writes through.
//
// Real retention is an external concern; the core only requires that reads
// and writes of a single record are consistent and that concurrent updates
// are resolved by optimistic concurrency. Package memory provides the
// in-process implementation.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no record exists for an id.
	ErrNotFound = errors.New("store: handshake record not found")

	// ErrExists is returned when creating a record whose id is taken.
	ErrExists = errors.New("store: handshake record already exists")

	// ErrVersionConflict is returned by Update when the record changed
	// since it was read. The losing writer must not retry blindly: for a
	// handshake record it means another call already applied a transition.
	ErrVersionConflict = errors.New("store: record version conflict")
)

// Status is the handshake record lifecycle state.
type Status uint8

const (
	// StatusInitiated is the only creation state.
	StatusInitiated Status = iota + 1
	// StatusCompleted is the terminal accept outcome; the session key was
	// released to the caller.
	StatusCompleted
	// StatusSuspicious is the terminal reject outcome of the anomaly gate.
	StatusSuspicious
	// StatusFailed is reached on an internal error during validation.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusInitiated:
		return "initiated"
	case StatusCompleted:
		return "completed"
	case StatusSuspicious:
		return "suspicious"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is expected from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusSuspicious || s == StatusFailed
}

// Record is the unit of protocol state threaded between the two handshake
// phases. It is created by Initiate, mutated only by Validate, and never
// deleted by the core.
//
// LocalPrivateKey stays inside the process with the in-memory store;
// persistent Store implementations must keep it out of any serialized form.
type Record struct {
	ID    string
	Owner string

	RemotePublicKey []byte
	LocalPublicKey  []byte
	LocalPrivateKey []byte

	Status Status

	// SessionKey is populated only on the transition to StatusCompleted.
	SessionKey []byte

	// RetryCount counts validation attempts against this record, including
	// attempts made after a terminal state was reached.
	RetryCount int

	CreatedAt   time.Time
	CompletedAt time.Time

	// Version supports optimistic concurrency in Update.
	Version uint64
}

// Clone returns a deep copy so callers never alias stored byte slices.
func (r Record) Clone() Record {
	c := r
	c.RemotePublicKey = append([]byte(nil), r.RemotePublicKey...)
	c.LocalPublicKey = append([]byte(nil), r.LocalPublicKey...)
	c.LocalPrivateKey = append([]byte(nil), r.LocalPrivateKey...)
	c.SessionKey = append([]byte(nil), r.SessionKey...)
	if r.SessionKey == nil {
		c.SessionKey = nil
	}
	return c
}

// Store is the persistence contract for handshake records.
//
// Update applies a full-record write conditioned on Version: it succeeds
// only if the stored record still carries rec.Version, and bumps the stored
// version by one. Two racing validations of one record therefore resolve to
// exactly one winner; the loser observes ErrVersionConflict.
type Store interface {
	Create(ctx context.Context, rec Record) error
	Get(ctx context.Context, id string) (Record, error)
	Update(ctx context.Context, rec Record) error
}
