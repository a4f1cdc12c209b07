// Package checksum computes content digests used as note ETags.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/starford/hashnotes/internal/models"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Note digests every persisted field of n. Fields are NUL-separated so
// that adjacent values cannot run into each other.
func Note(n models.Note) string {
	var buf []byte
	write := func(s string) {
		buf = append(buf, s...)
		buf = append(buf, 0)
	}
	write(strconv.FormatInt(n.ID, 10))
	write(n.Title)
	write(n.Description)
	write(n.Date)
	for _, t := range n.Tags {
		write(t)
	}
	return Sum(buf)
}
