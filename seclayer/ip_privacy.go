package seclayer

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
)

// hashIP hashes a client address for log records so a leaked log does
// not leak the address itself. Truncated SHA-256 (12 hex chars) is
// enough to correlate records without recovering the input.
func hashIP(ip net.IP) string {
	h := sha256.Sum256(ip)

	return hex.EncodeToString(h[:6])
}
