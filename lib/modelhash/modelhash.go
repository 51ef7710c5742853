// Copyright 2026 The Tabmirror Authors
// SPDX-License-Identifier: Apache-2.0

// Package modelhash computes digests of encoded model snapshots.
//
// A snapshot digest is the BLAKE3 keyed hash of the deterministic CBOR
// encoding of a group sequence. Because the encoding is deterministic,
// equal models always digest equally: two rebuilds from the same
// authoritative state yield the same digest, and a journal verifier
// can recompute digests from stored bytes. Digests appear in engine
// logs, journal records, and test assertions.
package modelhash

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Hash is a 32-byte BLAKE3 digest of an encoded snapshot.
type Hash [32]byte

// domainKey is a 32-byte key for BLAKE3 keyed hashing. Domain
// separation ensures that the same input bytes produce different
// hashes in different contexts, preventing cross-domain collisions.
// The byte values are the ASCII encoding of the domain name,
// zero-padded to 32 bytes: readable in hex dumps and debuggers without
// sacrificing any cryptographic property (BLAKE3 keyed mode treats the
// key as an opaque 32-byte value). Changing a key invalidates every
// existing digest in that domain.
type domainKey [32]byte

var snapshotDomainKey = domainKey{
	't', 'a', 'b', 'm', 'i', 'r', 'r', 'o', 'r', '.', 'm', 'o', 'd', 'e', 'l', '.',
	's', 'n', 'a', 'p', 's', 'h', 'o', 't', 0, 0, 0, 0, 0, 0, 0, 0,
}

// HashSnapshot computes the snapshot-domain digest of an encoded group
// sequence. Pass the exact bytes produced by codec.Marshal; hashing a
// re-encoding is only equivalent because the encoding is
// deterministic.
func HashSnapshot(encoded []byte) Hash {
	return keyedHash(snapshotDomainKey, encoded)
}

// Format returns the hex-encoded string representation of a hash. This
// is the canonical format used in logs, journal output, and CLI
// display.
func Format(hash Hash) string {
	return hex.EncodeToString(hash[:])
}

// FormatShort returns the first 12 hex characters of a hash, for
// compact log and listing output.
func FormatShort(hash Hash) string {
	return hex.EncodeToString(hash[:6])
}

// Parse parses a 64-character hex string into a Hash.
func Parse(hexString string) (Hash, error) {
	var hash Hash
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return hash, fmt.Errorf("parsing snapshot hash: %w", err)
	}
	if len(decoded) != 32 {
		return hash, fmt.Errorf("snapshot hash is %d bytes, want 32", len(decoded))
	}
	copy(hash[:], decoded)
	return hash, nil
}

// keyedHash computes the BLAKE3 keyed hash with the given domain key.
func keyedHash(key domainKey, data []byte) Hash {
	// NewKeyed requires exactly 32 bytes, which domainKey guarantees.
	// The error is only returned for wrong key length, so this cannot
	// fail with our fixed-size type.
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("modelhash: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var hash Hash
	copy(hash[:], hasher.Sum(nil))
	return hash
}
