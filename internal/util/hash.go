package util

import (
	"crypto/sha256"
	"encoding/hex"
)

func SHA256Hex(b []byte) string {
	x := sha256.Sum256(b)
	return hex.EncodeToString(x[:])
}

// ShortHash is the first n hex characters of SHA256Hex, or the full digest when n is out of range.
func ShortHash(b []byte, n int) string {
	h := SHA256Hex(b)
	if n <= 0 || n >= len(h) {
		return h
	}
	return h[:n]
}
