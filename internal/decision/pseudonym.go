package decision

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashClientID pseudonymizes a raw client identifier with a process-wide
// secret salt. One-way: raw client identifiers are never persisted, only this
// fixed-length hex digest. The salt itself is configuration and must never be
// logged or stored alongside the hash.
func HashClientID(salt, clientID string) string {
	sum := sha256.Sum256([]byte(salt + "|" + clientID))
	return hex.EncodeToString(sum[:])
}
