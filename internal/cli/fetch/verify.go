package fetch

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/pirakansa/depot/internal/cli/shared"
	"github.com/pirakansa/depot/pkg/manifest"
)

var (
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrBadSignature     = errors.New("signature verification failed")
)

// VerifyDigest compares the file at path with an "algorithm:hex" digest.
func VerifyDigest(path, digest string) error {
	algorithm, want, err := manifest.ParseDigest(digest)
	if err != nil {
		return err
	}
	got, err := shared.FileDigestHex(path, algorithm)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("%w: %s %s:%s", ErrChecksumMismatch, path, algorithm, got)
	}
	return nil
}

// VerifySignature checks a detached OpenPGP signature of the file at path
// against the public keys in keyRingPath. Both the signature and the key
// ring may be armored or binary.
func VerifySignature(path string, signature []byte, keyRingPath string) error {
	keyData, err := os.ReadFile(keyRingPath)
	if err != nil {
		return err
	}
	var keyring openpgp.EntityList
	if isArmored(keyData) {
		keyring, err = openpgp.ReadArmoredKeyRing(bytes.NewReader(keyData))
	} else {
		keyring, err = openpgp.ReadKeyRing(bytes.NewReader(keyData))
	}
	if err != nil {
		return fmt.Errorf("reading key ring %s: %w", keyRingPath, err)
	}

	signed, err := os.Open(path)
	if err != nil {
		return err
	}
	defer signed.Close()

	if isArmored(signature) {
		_, err = openpgp.CheckArmoredDetachedSignature(keyring, signed, bytes.NewReader(signature), nil)
	} else {
		_, err = openpgp.CheckDetachedSignature(keyring, signed, bytes.NewReader(signature), nil)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBadSignature, path, err)
	}
	return nil
}

func isArmored(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(data), []byte("-----BEGIN "))
}
