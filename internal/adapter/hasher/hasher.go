// Package hasher produces the content fingerprints that drive cache
// validity. File and directory digests are SHA-256 lowercase hex; a
// directory digest is derived from its children's digests in order, so any
// change below a node propagates to every ancestor.
package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// childDelim joins child digests before hashing. It never appears in a hex
// digest, so joined sequences cannot collide across boundaries.
const childDelim = "|"

// HashFile streams the file through SHA-256 and returns the hex digest.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, 8192)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashBytes returns the SHA-256 hex digest of b.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// HashContent returns the SHA-256 hex digest of s.
func HashContent(s string) string {
	return HashBytes([]byte(s))
}

// HashChildren combines an ordered sequence of child digests into one
// digest. Reordering the sequence changes the result: child order is part
// of a directory's content.
func HashChildren(digests []string) string {
	return HashContent(strings.Join(digests, childDelim))
}
