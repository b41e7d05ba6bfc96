// Package requestid generates opaque per-request correlation IDs.
package requestid

import (
	"crypto/rand"
	"encoding/hex"
)

// New returns a 32-character hex-encoded random ID.
func New() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
