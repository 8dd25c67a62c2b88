// Package encoding provides text encoding utilities for the interchange
// documents the importers read.
package encoding

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrUnsupportedCharset is returned for XML encoding declarations that
// cannot be decoded.
var ErrUnsupportedCharset = errors.New("unsupported document charset")

// CharsetReader converts a document declared in a non-UTF-8 encoding
// (e.g. encoding="ISO-8859-1" or "Shift_JIS") into UTF-8.
// It matches the signature of xml.Decoder.CharsetReader.
func CharsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCharset, label)
	}
	return transform.NewReader(input, enc.NewDecoder()), nil
}

// NormalizePath converts a document path into the canonical form used for
// content hashing: forward slashes, no redundant elements, NFC Unicode.
func NormalizePath(p string) string {
	if p == "" {
		return ""
	}
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean(p)
	return norm.NFC.String(p)
}

// JoinPath joins a prefix and a relative path and normalizes the result.
// An empty prefix leaves the relative path as is.
func JoinPath(prefix, rel string) string {
	if prefix == "" {
		return NormalizePath(rel)
	}
	return NormalizePath(strings.ReplaceAll(prefix, "\\", "/") + "/" + rel)
}

// TrimFragment strips the leading '#' of a COLLADA local URL
// ("#geom-1" -> "geom-1").
func TrimFragment(url string) string {
	return strings.TrimPrefix(url, "#")
}
