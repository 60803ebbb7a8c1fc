package types

import (
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Current schema version - increment when the snapshot layout changes.
const snapshotSchemaVersion uint16 = 1

// ErrSnapshotSchema is returned when a snapshot was written by an
// incompatible version.
var ErrSnapshotSchema = errors.New("snapshot schema mismatch")

type snapshotPayload struct {
	Schema  uint16
	Entries []Descriptor
}

// WriteSnapshot serializes every interned descriptor in ID order.
func (in *Interner) WriteSnapshot(w io.Writer) error {
	payload := snapshotPayload{
		Schema:  snapshotSchemaVersion,
		Entries: in.Snapshot(),
	}
	enc := msgpack.NewEncoder(w)
	if err := enc.Encode(&payload); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot rebuilds an interner whose IDs match the snapshotted store.
func ReadSnapshot(r io.Reader) (*Interner, error) {
	var payload snapshotPayload
	if err := msgpack.NewDecoder(r).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if payload.Schema != snapshotSchemaVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSnapshotSchema, payload.Schema, snapshotSchemaVersion)
	}
	if len(payload.Entries) == 0 || payload.Entries[0].Kind != KindInvalid {
		return nil, fmt.Errorf("%w: missing sentinel entry", ErrInvalidDescriptor)
	}

	seed := NewInterner()
	in := &Interner{
		entries:  make([]Descriptor, 1, len(payload.Entries)),
		index:    make(map[string]ID, len(payload.Entries)),
		builtins: seed.builtins,
	}
	for i, d := range payload.Entries[1:] {
		// entries reference only earlier IDs, so replaying in order re-validates them
		id, err := in.Intern(d)
		if err != nil {
			return nil, fmt.Errorf("snapshot entry %d: %w", i+1, err)
		}
		if int(id) != i+1 {
			return nil, fmt.Errorf("%w: snapshot entry %d is not canonical", ErrInvalidDescriptor, i+1)
		}
	}
	if in.Len() < seed.Len() {
		return nil, fmt.Errorf("%w: snapshot lacks builtin entries", ErrInvalidDescriptor)
	}
	return in, nil
}
