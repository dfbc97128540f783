// Package vcscore implements the storage and change-tracking engine: the
// content-addressed object store, the staging index, tree building, refs,
// and the working-tree status computation.
package vcscore

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// RawHashSize is the byte length of a raw object identifier.
const RawHashSize = sha256.Size

// HexHashSize is the character length of a hex-encoded object identifier.
const HexHashSize = RawHashSize * 2

// MaxBlobSize caps the content size of a single blob at 2 GiB. Files larger
// than this are rejected before any object is written.
const MaxBlobSize = 2 << 30

// Hash is a hex-encoded SHA-256 object identifier.
type Hash string

// NewHash validates a 64-character hex string and returns it as a Hash.
func NewHash(s string) (Hash, error) {
	if len(s) != HexHashSize {
		return "", fmt.Errorf("%w: bad length %d", ErrInvalidHash, len(s))
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidHash, s)
	}
	return Hash(s), nil
}

// NewHashFromBytes converts a raw 32-byte digest into its hex Hash form.
func NewHashFromBytes(b [RawHashSize]byte) Hash {
	return Hash(hex.EncodeToString(b[:]))
}

// Raw decodes the hash back into its 32 raw bytes.
func (h Hash) Raw() ([RawHashSize]byte, error) {
	var out [RawHashSize]byte
	if len(h) != HexHashSize {
		return out, fmt.Errorf("%w: bad length %d", ErrInvalidHash, len(h))
	}
	b, err := hex.DecodeString(string(h))
	if err != nil {
		return out, fmt.Errorf("%w: %q", ErrInvalidHash, h)
	}
	copy(out[:], b)
	return out, nil
}

// Short returns the first 7 characters of the hash for display.
func (h Hash) Short() string {
	if len(h) < 7 {
		return string(h)
	}
	return string(h)[:7]
}

// HashBytes computes the SHA-256 of buf.
func HashBytes(buf []byte) Hash {
	sum := sha256.Sum256(buf)
	return NewHashFromBytes(sum)
}

// HashObject computes the identity of a framed object: the SHA-256 of
// "<kind> <size>\x00" followed by the payload. This is the hash used for
// store lookup; it never depends on the compressed form.
func HashObject(kind ObjectType, payload []byte) Hash {
	h := sha256.New()
	fmt.Fprintf(h, "%s %d\x00", kind, len(payload))
	h.Write(payload)
	var sum [RawHashSize]byte
	copy(sum[:], h.Sum(nil))
	return NewHashFromBytes(sum)
}

// HashFile computes a streaming SHA-256 over the raw contents of the file at
// path. Fails with ErrFileTooLarge when the file exceeds MaxBlobSize.
func HashFile(path string) (Hash, error) {
	f, _, err := openBlobFile(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	var sum [RawHashSize]byte
	copy(sum[:], h.Sum(nil))
	return NewHashFromBytes(sum), nil
}

// HashBlobFile computes the framed blob identity of the file at path, i.e.
// the hash that ObjectStore.Write would assign to its contents, without
// loading the file into memory. Returns the content size alongside.
func HashBlobFile(path string) (Hash, int64, error) {
	f, size, err := openBlobFile(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := sha256.New()
	fmt.Fprintf(h, "%s %d\x00", BlobObject, size)
	if _, err := io.Copy(h, f); err != nil {
		return "", 0, fmt.Errorf("hashing %s: %w", path, err)
	}
	var sum [RawHashSize]byte
	copy(sum[:], h.Sum(nil))
	return NewHashFromBytes(sum), size, nil
}

// openBlobFile opens path for hashing and enforces the blob size limit.
func openBlobFile(path string) (*os.File, int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, 0, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > MaxBlobSize {
		return nil, 0, fmt.Errorf("%s: %w", path, ErrFileTooLarge)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", path, err)
	}
	return f, info.Size(), nil
}
