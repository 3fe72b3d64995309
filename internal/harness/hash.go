package harness

import (
	"crypto/sha256"
	"encoding/hex"
)

// DomainConfig separates configuration hashes from any other SHA-256 use.
// The version suffix allows changing the scheme later.
const DomainConfig = "tallyreg/config/v1"

// ConfigHash identifies a serialized configuration.
// Format: hex(SHA256(domain + 0x00 + data)).
func ConfigHash(data []byte) string {
	h := sha256.New()
	h.Write([]byte(DomainConfig))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
