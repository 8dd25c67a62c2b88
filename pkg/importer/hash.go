package importer

import (
	"crypto/sha1"
	"encoding/base64"
)

// HashFunc maps a texture path to its content key in the resource store.
type HashFunc func(path string) string

// ResourceHash is the default HashFunc: base64 of the SHA-1 digest of the
// UTF-8 path.
func ResourceHash(path string) string {
	sum := sha1.Sum([]byte(path))
	return base64.StdEncoding.EncodeToString(sum[:])
}
