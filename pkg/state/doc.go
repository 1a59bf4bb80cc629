// Package state persists option snapshots and adapts them to the get/set
// store contract consumed by the formopts resolver.
//
// Responsibilities:
//   - Store[T] loads and saves a single snapshot for a single Ref.
//   - MemoryStore, FileStore and SQLiteStore are the bundled Store
//     implementations. FileStore picks its codec from the file extension
//     (YAML, JSON, JSONC or CBOR); SQLiteStore keeps one row per Ref with a
//     CBOR encoded body.
//   - Mutate loads one snapshot, applies a mutator and saves it back under
//     optimistic concurrency.
//   - Settings wraps a Store[formopts.Values] so a Registry can read and
//     write individual keys, falling back to registry defaults.
//
// Data flow:
//
//	Registry.Resolve -> Settings.Get/Set -> Mutate -> Store.Load/Save
//
// Concurrency:
//
//	Every Save stamps a fresh Meta.SnapshotID (uuid) and Meta.ETag (blake3 of
//	the deterministic CBOR encoding of the snapshot). A Save whose Meta.ETag is
//	set and differs from the stored one fails with ErrETagMismatch.
//
// Deterministic keys:
//
//	Ref.Identifier() renders `<scope>/<domain>` and is the key every bundled
//	store uses. An empty scope is stored as `global`.
package state
