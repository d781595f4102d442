package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/sbalabanov/vx/internal/digest"
	"github.com/sbalabanov/vx/internal/vxerr"
	"github.com/sbalabanov/vx/internal/vxmodel"
)

const blobBucket = "blobs"

// blobPath returns the on-disk path for a blob's compressed bytes, split
// into a two-hex-nibble directory and the remaining 30 nibbles, the same
// loose-object layout style used for SHA-1 object stores but sized for a
// 128-bit digest.
func (s *Store) blobPath(d digest.Digest) string {
	hex := digest.ToHex(d)
	return filepath.Join(s.blobsDir, hex[:2], hex[2:])
}

// PutFile hashes srcPath and, if the digest is not already present in the
// blob KV table, zstd-compresses and copies its bytes into the blob store.
// The KV table is the source of truth: a present KV record implies the
// compressed bytes exist on disk, so a second PutFile for the same content
// is a cheap no-op after the hash.
func (s *Store) PutFile(srcPath string) (*vxmodel.Blob, error) {
	d, size, err := digest.ComputeFile(srcPath)
	if err != nil {
		return nil, err
	}

	key := digest.ToHex(d)
	if existing, ok, getErr := s.blobDB.Get(blobBucket, key); getErr != nil {
		return nil, fmt.Errorf("%w: reading blob record: %v", vxerr.ErrDatabase, getErr)
	} else if ok {
		return decodeBlobRecord(existing)
	}

	dst := s.blobPath(d)
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return nil, fmt.Errorf("%w: creating blob directory: %v", vxerr.ErrIO, err)
	}

	if err := compressFileTo(srcPath, dst); err != nil {
		return nil, fmt.Errorf("%w: writing blob: %v", vxerr.ErrIO, err)
	}

	blob := &vxmodel.Blob{ContentHash: d, Size: size}
	if err := s.blobDB.Put(blobBucket, key, encodeBlobRecord(blob)); err != nil {
		return nil, fmt.Errorf("%w: saving blob record: %v", vxerr.ErrDatabase, err)
	}

	return blob, nil
}

// GetFile requires the digest to be present in the blob KV table, then
// decompresses the stored bytes to dstPath, creating parent directories on
// demand and replacing any existing file there.
func (s *Store) GetFile(d digest.Digest, dstPath string) error {
	key := digest.ToHex(d)
	raw, ok, err := s.blobDB.Get(blobBucket, key)
	if err != nil {
		return fmt.Errorf("%w: reading blob record: %v", vxerr.ErrDatabase, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", vxerr.ErrBlobNotFound, key)
	}
	if _, err := decodeBlobRecord(raw); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dstPath), 0o750); err != nil {
		return fmt.Errorf("%w: creating destination directory: %v", vxerr.ErrIO, err)
	}

	if err := decompressFileTo(s.blobPath(d), dstPath); err != nil {
		return fmt.Errorf("%w: reading blob: %v", vxerr.ErrIO, err)
	}
	return nil
}

// ReadBlob decompresses a stored blob's full content into memory, for
// read-only inspection (e.g. cat-file) where writing to a path is
// unnecessary.
func (s *Store) ReadBlob(d digest.Digest) ([]byte, error) {
	key := digest.ToHex(d)
	ok, err := s.blobDB.Has(blobBucket, key)
	if err != nil {
		return nil, fmt.Errorf("%w: reading blob record: %v", vxerr.ErrDatabase, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", vxerr.ErrBlobNotFound, key)
	}

	//nolint:gosec // G304: path is derived from a validated digest, not user input
	f, err := os.Open(s.blobPath(d))
	if err != nil {
		return nil, fmt.Errorf("%w: opening blob: %v", vxerr.ErrIO, err)
	}
	defer func() { _ = f.Close() }()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: opening zstd reader: %v", vxerr.ErrIO, err)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: decompressing blob: %v", vxerr.ErrIO, err)
	}
	return data, nil
}

func compressFileTo(srcPath, dstPath string) error {
	//nolint:gosec // G304: srcPath is supplied by the caller's own workspace walk
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	tmp := dstPath + ".tmp"
	dst, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}

	zw, err := zstd.NewWriter(dst)
	if err != nil {
		_ = dst.Close()
		_ = os.Remove(tmp)
		return err
	}

	if _, err := io.Copy(zw, src); err != nil {
		_ = zw.Close()
		_ = dst.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := zw.Close(); err != nil {
		_ = dst.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, dstPath)
}

func decompressFileTo(srcPath, dstPath string) error {
	//nolint:gosec // G304: srcPath is derived from a validated digest
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	zr, err := zstd.NewReader(src)
	if err != nil {
		return err
	}
	defer zr.Close()

	tmp := dstPath + ".tmp"
	dst, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, zr); err != nil {
		_ = dst.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, dstPath)
}

// blobRecord is the KV value stored for each blob: the digest (redundant
// with the key but kept for self-describing records) plus the uncompressed
// size used for stats.
func encodeBlobRecord(b *vxmodel.Blob) []byte {
	out := make([]byte, digest.Size+8)
	copy(out, b.ContentHash.Bytes())
	putUint64(out[digest.Size:], b.Size)
	return out
}

func decodeBlobRecord(data []byte) (*vxmodel.Blob, error) {
	if len(data) != digest.Size+8 {
		return nil, fmt.Errorf("%w: blob record has length %d", vxerr.ErrSerialization, len(data))
	}
	var d digest.Digest
	copy(d[:], data[:digest.Size])
	return &vxmodel.Blob{ContentHash: d, Size: getUint64(data[digest.Size:])}, nil
}
