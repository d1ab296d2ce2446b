// Copyright 2026 The Atelier Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/atelier-foundation/atelier/lib/codec"
)

// snapshotFormat is the on-disk envelope format version.
const snapshotFormat = 1

// Entity is the constraint for records stored in a Collection. The ID
// keys unknown-field preservation across transactions, and Clone
// isolates callers from the collection's cached values (entities carry
// slices and maps that must not be shared).
type Entity[T any] interface {
	EntityID() string
	Clone() T
}

// Collection is one named, file-backed set of entities. All access is
// serialized by an exclusive mutex: ReadAll returns a consistent
// snapshot, and Transact runs load-apply-persist without interleaving
// with any other transaction on the same collection.
type Collection[T Entity[T]] struct {
	name string
	path string

	mu     sync.Mutex
	loaded bool
	items  []item[T]
}

// item pairs a decoded entity with the raw fields of its stored record
// that the entity type did not claim.
type item[T Entity[T]] struct {
	value T
	extra codec.Fields
}

// snapshot is the on-disk envelope of a collection file.
type snapshot struct {
	Format   int                `cbor:"format"`
	Checksum []byte             `cbor:"checksum"`
	Records  []codec.RawMessage `cbor:"records"`
}

// CorruptionError reports a snapshot file that could not be decoded.
// The file is left in place for inspection; the store never resets
// damaged data to an empty collection.
type CorruptionError struct {
	// Path is the snapshot file that failed to decode.
	Path string
	// Detail describes what failed, including a CBOR diagnostic
	// rendering of the damaged bytes when one could be produced.
	Detail string
	// Err is the underlying decode error, if any.
	Err error
}

func (e *CorruptionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("store: corrupt snapshot %s: %s: %v", e.Path, e.Detail, e.Err)
	}
	return fmt.Sprintf("store: corrupt snapshot %s: %s", e.Path, e.Detail)
}

func (e *CorruptionError) Unwrap() error { return e.Err }

// IsCorruption reports whether err is a snapshot corruption error.
func IsCorruption(err error) bool {
	var corruption *CorruptionError
	return errors.As(err, &corruption)
}

// NewCollection creates a collection named name with its snapshot at
// <dir>/<name>.cbor. The file is read lazily on first access; a
// missing file is an empty collection, not an error.
func NewCollection[T Entity[T]](dir, name string) *Collection[T] {
	return &Collection[T]{
		name: name,
		path: filepath.Join(dir, name+".cbor"),
	}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string { return c.name }

// ReadAll returns a consistent snapshot of the collection. The
// returned entities are clones; mutating them does not affect the
// store.
func (c *Collection[T]) ReadAll() ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.loadLocked(); err != nil {
		return nil, err
	}
	return c.cloneLocked(), nil
}

// Transact runs fn against the current snapshot and persists the
// sequence it returns. fn receives cloned entities and must return
// the complete new contents of the collection. If fn returns an
// error, nothing is persisted and the error is returned unchanged.
//
// Transactions on one collection are fully serialized; fn must not
// call back into the same collection. Results beyond the entity
// sequence travel out of fn through closure capture.
func (c *Collection[T]) Transact(fn func([]T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.loadLocked(); err != nil {
		return err
	}

	updated, err := fn(c.cloneLocked())
	if err != nil {
		return err
	}

	// Carry each surviving record's unclaimed fields over by entity ID,
	// and enforce ID uniqueness within the collection.
	extras := make(map[string]codec.Fields, len(c.items))
	for _, existing := range c.items {
		extras[existing.value.EntityID()] = existing.extra
	}
	next := make([]item[T], 0, len(updated))
	seen := make(map[string]bool, len(updated))
	for _, entity := range updated {
		id := entity.EntityID()
		if id == "" {
			return fmt.Errorf("store: %s: entity with empty ID", c.name)
		}
		if seen[id] {
			return fmt.Errorf("store: %s: duplicate entity ID %q", c.name, id)
		}
		seen[id] = true
		next = append(next, item[T]{value: entity, extra: extras[id]})
	}

	if err := c.persistLocked(next); err != nil {
		return err
	}
	c.items = next
	return nil
}

// cloneLocked returns cloned values of the cached entities.
func (c *Collection[T]) cloneLocked() []T {
	out := make([]T, len(c.items))
	for i, it := range c.items {
		out[i] = it.value.Clone()
	}
	return out
}

// loadLocked reads the snapshot file into the cache on first access.
func (c *Collection[T]) loadLocked() error {
	if c.loaded {
		return nil
	}

	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		c.items = nil
		c.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("store: reading %s: %w", c.path, err)
	}

	var envelope snapshot
	if err := codec.Unmarshal(data, &envelope); err != nil {
		return &CorruptionError{
			Path:   c.path,
			Detail: "envelope is not valid CBOR: " + diagnosePrefix(data),
			Err:    err,
		}
	}
	if envelope.Format != snapshotFormat {
		return &CorruptionError{
			Path:   c.path,
			Detail: fmt.Sprintf("unsupported snapshot format %d (want %d)", envelope.Format, snapshotFormat),
		}
	}
	if sum := recordsChecksum(envelope.Records); string(sum) != string(envelope.Checksum) {
		return &CorruptionError{
			Path:   c.path,
			Detail: fmt.Sprintf("checksum mismatch over %d records", len(envelope.Records)),
		}
	}

	items := make([]item[T], 0, len(envelope.Records))
	for i, raw := range envelope.Records {
		var entity T
		extra, err := codec.UnmarshalRecord(raw, &entity)
		if err != nil {
			return &CorruptionError{
				Path:   c.path,
				Detail: fmt.Sprintf("record %d does not decode: %s", i, diagnosePrefix(raw)),
				Err:    err,
			}
		}
		items = append(items, item[T]{value: entity, extra: extra})
	}

	c.items = items
	c.loaded = true
	return nil
}

// persistLocked writes the snapshot atomically: full marshal to a temp
// file in the same directory, then rename over the previous snapshot.
// A crash at any point leaves either the old file or the new file,
// never a mix.
func (c *Collection[T]) persistLocked(items []item[T]) error {
	records := make([]codec.RawMessage, 0, len(items))
	for _, it := range items {
		raw, err := codec.MarshalRecord(it.value, it.extra)
		if err != nil {
			return fmt.Errorf("store: encoding %s record %q: %w", c.name, it.value.EntityID(), err)
		}
		records = append(records, raw)
	}

	envelope := snapshot{
		Format:   snapshotFormat,
		Checksum: recordsChecksum(records),
		Records:  records,
	}
	data, err := codec.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("store: encoding %s snapshot: %w", c.name, err)
	}

	dir := filepath.Dir(c.path)
	tmpFile, err := os.CreateTemp(dir, "."+c.name+"-*.cbor")
	if err != nil {
		return fmt.Errorf("store: creating temp snapshot: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("store: writing %s snapshot: %w", c.name, err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("store: syncing %s snapshot: %w", c.name, err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("store: closing temp snapshot: %w", err)
	}

	if err := os.Rename(tmpPath, c.path); err != nil {
		return fmt.Errorf("store: replacing %s snapshot: %w", c.name, err)
	}

	success = true
	return nil
}

// recordsChecksum hashes the concatenated record bytes with BLAKE3.
func recordsChecksum(records []codec.RawMessage) []byte {
	hasher := blake3.New()
	for _, raw := range records {
		_, _ = hasher.Write(raw)
	}
	return hasher.Sum(nil)
}

// diagnosePrefix renders up to the first 64 bytes of data in CBOR
// diagnostic notation for corruption reports. Falls back to a hex
// length note when the bytes defeat the diagnostic decoder too.
func diagnosePrefix(data []byte) string {
	const limit = 64
	prefix := data
	truncated := ""
	if len(prefix) > limit {
		prefix = prefix[:limit]
		truncated = " (truncated)"
	}
	rendered, err := codec.Diagnose(prefix)
	if err != nil {
		return fmt.Sprintf("%d bytes, not diagnosable", len(data))
	}
	return rendered + truncated
}
