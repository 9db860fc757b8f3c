package project

import (
	"crypto/sha256"
)

// Digest is a sha256 hash, the same shape as source.File.Hash.
type Digest [32]byte

// Combine hashes content followed by every extra digest in order:
// H(content || d1 || d2 ...).
func Combine(content Digest, extra ...Digest) Digest {
	h := sha256.New()
	_, _ = h.Write(content[:])
	for _, d := range extra {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// DigestString hashes an arbitrary string, e.g. a tool version or an
// options fingerprint that a cache key must depend on.
func DigestString(s string) Digest {
	return sha256.Sum256([]byte(s))
}
