// Package digest computes the 128-bit content hash used to address blobs,
// tree nodes, and commit payloads, and converts it to and from its on-disk
// hex form.
package digest

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/xxh3"
)

// Size is the byte width of a Digest.
const Size = 16

// HexSize is the number of lowercase hex nibbles in a Digest's text form.
const HexSize = Size * 2

// streamBufSize is the read buffer used by ComputeFile.
const streamBufSize = 8 * 1024

// Digest is a 128-bit content hash. The zero value is the reserved
// "absent/uncomputed" digest.
type Digest [Size]byte

// Zero is the reserved "absent/uncomputed" digest.
var Zero Digest

// IsZero reports whether d is the reserved absent digest.
func (d Digest) IsZero() bool {
	return d == Zero
}

// String renders d as 32 lowercase hex characters, big-endian.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Bytes returns the big-endian byte representation of d.
func (d Digest) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, d[:])
	return out
}

// ComputeBytes returns the 128-bit digest of b.
func ComputeBytes(b []byte) Digest {
	h := xxh3.Hash128(b)
	return fromUint128(h)
}

// ComputeFile streams path through an 8 KiB buffer and returns its digest
// and size. Errors are filesystem I/O failures from opening or reading the
// file.
func ComputeFile(path string) (Digest, uint64, error) {
	//nolint:gosec // G304: path is supplied by the caller's own workspace walk
	f, err := os.Open(path)
	if err != nil {
		return Zero, 0, fmt.Errorf("digest: opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	h := xxh3.New()
	buf := make([]byte, streamBufSize)
	var size uint64
	for {
		n, readErr := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n]) //nolint:errcheck // hash.Hash.Write never fails
			size += uint64(n)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return Zero, 0, fmt.Errorf("digest: reading %s: %w", path, readErr)
		}
	}

	return fromUint128(h.Sum128()), size, nil
}

// ToHex produces the 32-lowercase-hex-character form of d.
func ToHex(d Digest) string {
	return d.String()
}

// FromHex parses the inverse of ToHex. It fails on the wrong length or
// invalid hex characters.
func FromHex(s string) (Digest, error) {
	if len(s) != HexSize {
		return Zero, fmt.Errorf("digest: hex string has length %d, want %d", len(s), HexSize)
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Zero, fmt.Errorf("digest: invalid hex: %w", err)
	}
	var d Digest
	copy(d[:], raw)
	return d, nil
}

func fromUint128(h xxh3.Uint128) Digest {
	var d Digest
	binary.BigEndian.PutUint64(d[0:8], h.Hi)
	binary.BigEndian.PutUint64(d[8:16], h.Lo)
	return d
}

// BranchID returns the 64-bit hash of a branch name, as used for branch
// store keys.
func BranchID(name string) uint64 {
	return xxh3.HashString(name)
}
