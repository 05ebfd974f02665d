package markdown

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashContent computes the content digest used for both item change
// detection and asset deduplication: lower-case hex SHA-256.
func HashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
