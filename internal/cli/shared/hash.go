package shared

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

const (
	DigestBLAKE3 = "blake3"
	DigestSHA256 = "sha256"
	DigestMD5    = "md5"
)

func newHash(algorithm string) (hash.Hash, error) {
	switch algorithm {
	case DigestBLAKE3:
		return blake3.New(), nil
	case DigestSHA256:
		return sha256.New(), nil
	case DigestMD5:
		return md5.New(), nil
	default:
		return nil, fmt.Errorf("unsupported checksum algorithm %q", algorithm)
	}
}

// DigestHex streams r through algorithm and returns the lowercase hex digest.
func DigestHex(r io.Reader, algorithm string) (string, error) {
	h, err := newHash(algorithm)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FileDigestHex returns the lowercase hex digest of the file at path.
func FileDigestHex(path, algorithm string) (string, error) {
	if _, err := newHash(algorithm); err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return DigestHex(f, algorithm)
}
