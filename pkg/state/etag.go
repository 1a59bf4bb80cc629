package state

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

// ETag returns the hex blake3 digest of snapshot's deterministic CBOR
// encoding. Equal snapshots always produce equal tags.
func ETag(snapshot any) (string, error) {
	encoded, err := cborEncMode.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("state: encode snapshot: %w", err)
	}
	sum := blake3.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}

// checkETag rejects a save whose expected tag differs from the current one.
// Nothing to compare against when either side is empty.
func checkETag(expected, current string) error {
	if expected == "" || current == "" || expected == current {
		return nil
	}
	return fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, expected, current)
}

// stamp assigns the storage-owned fields of meta for a snapshot about to be
// written.
func stamp(snapshot any, meta Meta) (Meta, error) {
	tag, err := ETag(snapshot)
	if err != nil {
		return Meta{}, err
	}
	out := cloneMeta(meta)
	out.SnapshotID = uuid.NewString()
	out.ETag = tag
	out.UpdatedAt = time.Now().UTC()
	return out, nil
}
