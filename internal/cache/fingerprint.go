package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint derives the cache key for a (library, version, intent) triple.
// Equal triples always produce the equal fingerprint; that is the invariant
// cache hits depend on. Fields are NUL-joined so boundaries stay unambiguous.
func Fingerprint(library, version, intent string) string {
	h := sha256.New()
	h.Write([]byte(library))
	h.Write([]byte{0})
	h.Write([]byte(version))
	h.Write([]byte{0})
	h.Write([]byte(intent))
	return hex.EncodeToString(h.Sum(nil))[:16]
}
