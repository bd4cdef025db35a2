// Package fingerprint computes stable content fingerprints for clipboard
// payloads. Fingerprints are hex-encoded xxhash64 sums: cheap enough to run
// on every poll tick and stable across restarts, which is all the dedup
// path needs — this is not a cryptographic identity.
package fingerprint

import (
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Text fingerprints a text payload.
func Text(s string) string {
	return strconv.FormatUint(xxhash.Sum64String(s), 16)
}

// Bytes fingerprints a raw byte payload (encoded image bytes).
func Bytes(b []byte) string {
	return strconv.FormatUint(xxhash.Sum64(b), 16)
}

// FileSet fingerprints a list of file paths as an order-independent set.
// Two captures of the same paths in different order produce the same
// fingerprint; a subset or superset does not.
func FileSet(paths []string) string {
	return Text(strings.Join(NormalizeFileSet(paths), "|"))
}

// NormalizeFileSet lowercases and sorts a copy of paths. The result is the
// canonical comparison key for file-set equality; callers keep the original
// slice for clipboard re-emission order.
func NormalizeFileSet(paths []string) []string {
	norm := make([]string, len(paths))
	for i, p := range paths {
		norm[i] = strings.ToLower(p)
	}
	sort.Strings(norm)
	return norm
}
