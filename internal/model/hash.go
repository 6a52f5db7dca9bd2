package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainSnapshot = "lag/snapshot/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null separator prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SnapshotID computes the content-addressed id of a graph snapshot.
// Identical graphs hash identically, which is what makes the pipeline's
// idempotence checkable: re-running on unchanged input and unchanged clock
// must reproduce the same snapshot id.
func SnapshotID(g *Graph) (string, error) {
	canonical, err := MarshalCanonical(g)
	if err != nil {
		return "", fmt.Errorf("SnapshotID: %w", err)
	}
	return hashWithDomain(DomainSnapshot, canonical), nil
}

// MustSnapshotID is like SnapshotID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustSnapshotID(g *Graph) string {
	id, err := SnapshotID(g)
	if err != nil {
		panic(err)
	}
	return id
}
