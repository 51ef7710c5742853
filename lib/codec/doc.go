// Copyright 2026 The Tabmirror Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides Tabmirror's standard CBOR encoding
// configuration.
//
// Tabmirror uses three serialization formats with a clear boundary:
//
//   - YAML for configuration files (lib/config).
//   - JSONC for scenario files and JSON for CLI --json output.
//   - CBOR for binary artifacts: encoded snapshots (digesting, journal
//     records) and the journal frame payloads.
//
// This package provides the shared CBOR encoding and decoding modes so
// that every Tabmirror package encodes identically without duplicating
// configuration. The encoder uses Core Deterministic Encoding (RFC
// 8949 §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items. Same logical data always produces identical
// bytes, which is what makes snapshot digests comparable and rebuild
// idempotence checkable at the byte level.
//
// Usage:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// # Struct Tag Rules
//
// Model types carry only `json` struct tags. fxamacker/cbor v2 reads
// `json` tags as fallback when `cbor` tags are absent, so a single
// `json` tag controls field naming and omitempty for both formats.
// Never add a separate `cbor` tag to a type that also serializes as
// JSON — doubling up is noise that obscures which format a field
// participates in.
package codec
