// Package store implements the on-disk persistence layer: content-addressed
// blob storage, tree-node storage, the versioned commit graph, and the
// branch table, each backed by its own bbolt database file under the
// repository's .vx directory, matching the on-disk layout named by the
// on-disk layout this package implements.
package store

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sbalabanov/vx/internal/kv"
)

// Store bundles the five KV tables and the blob file tree that make up a
// repository's persisted state.
type Store struct {
	vxDir    string
	blobsDir string

	blobDB   *kv.DB
	treeDB   *kv.DB
	branchDB *kv.DB
	commitDB *kv.DB
	repoDB   *kv.DB
}

// Open opens (creating on first use) every KV table and the blob directory
// under vxDir, which is the repository's <repo>/.vx folder.
func Open(vxDir string) (*Store, error) {
	blobsDir := filepath.Join(vxDir, "blobs")
	if err := os.MkdirAll(blobsDir, 0o750); err != nil {
		return nil, fmt.Errorf("store: creating blobs directory: %w", err)
	}

	blobDB, err := kv.Open(filepath.Join(vxDir, "blob.db"), blobBucket)
	if err != nil {
		return nil, err
	}
	treeDB, err := kv.Open(filepath.Join(vxDir, "tree.db"), treeBucket)
	if err != nil {
		return nil, err
	}
	branchDB, err := kv.Open(filepath.Join(vxDir, "branches.db"), branchBucket)
	if err != nil {
		return nil, err
	}
	commitDB, err := kv.Open(filepath.Join(vxDir, "commits.db"), commitsBucket, sequencesBucket)
	if err != nil {
		return nil, err
	}
	repoDB, err := kv.Open(filepath.Join(vxDir, "repo.db"), repoBucket)
	if err != nil {
		return nil, err
	}

	return &Store{
		vxDir:    vxDir,
		blobsDir: blobsDir,
		blobDB:   blobDB,
		treeDB:   treeDB,
		branchDB: branchDB,
		commitDB: commitDB,
		repoDB:   repoDB,
	}, nil
}

// Close releases every underlying database file.
func (s *Store) Close() error {
	var firstErr error
	for _, db := range []*kv.DB{s.blobDB, s.treeDB, s.branchDB, s.commitDB, s.repoDB} {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// repo.db holds flat string keys "<name>:<k>" -> v.
const repoBucket = "repo"

// SetMeta writes repo.db[name:key] = value.
func (s *Store) SetMeta(name, key, value string) error {
	return s.repoDB.Put(repoBucket, name+":"+key, []byte(value))
}

// GetMeta reads repo.db[name:key].
func (s *Store) GetMeta(name, key string) (string, bool, error) {
	v, ok, err := s.repoDB.Get(repoBucket, name+":"+key)
	if err != nil || !ok {
		return "", ok, err
	}
	return string(v), true, nil
}

func putUint64(dst []byte, v uint64) {
	binary.BigEndian.PutUint64(dst, v)
}

func getUint64(src []byte) uint64 {
	return binary.BigEndian.Uint64(src)
}
