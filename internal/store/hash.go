package store

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"fx-data/internal/model"
)

// hashTimeLayout renders timestamps as ISO-8601 seconds with an explicit
// +00:00 offset. The rendering is part of the hash contract; changing it
// invalidates every persisted hash.
const hashTimeLayout = "2006-01-02T15:04:05+00:00"

// HashBar returns the deterministic content fingerprint of a bar:
// sha256 over timestamp|open|high|low|close|volume|source. Floats are
// rendered with the shortest representation that round-trips, so the hash
// is stable across runs for identical field values.
func HashBar(b model.Bar) string {
	var sb strings.Builder
	sb.WriteString(b.Timestamp.UTC().Format(hashTimeLayout))
	for _, v := range [5]float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
		sb.WriteByte('|')
		sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	sb.WriteByte('|')
	sb.WriteString(b.Source)

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}
