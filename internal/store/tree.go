package store

import (
	"fmt"

	"github.com/sbalabanov/vx/internal/digest"
	"github.com/sbalabanov/vx/internal/vxerr"
	"github.com/sbalabanov/vx/internal/vxmodel"
)

const treeBucket = "trees"

// PutTree persists t, keyed by its own Hash. Each call commits its own bbolt
// transaction, so there is no batching or deferred flush at this layer; the
// snapshot engine calls PutTree for every child before its parent.
func (s *Store) PutTree(t *vxmodel.Tree) error {
	key := digest.ToHex(t.Hash)
	if err := s.treeDB.Put(treeBucket, key, vxmodel.EncodeTree(t)); err != nil {
		return fmt.Errorf("%w: saving tree %s: %v", vxerr.ErrDatabase, key, err)
	}
	return nil
}

// GetTree loads the tree node named by d.
func (s *Store) GetTree(d digest.Digest) (*vxmodel.Tree, error) {
	key := digest.ToHex(d)
	raw, ok, err := s.treeDB.Get(treeBucket, key)
	if err != nil {
		return nil, fmt.Errorf("%w: reading tree %s: %v", vxerr.ErrDatabase, key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", vxerr.ErrTreeNotFound, key)
	}
	t, err := vxmodel.DecodeTree(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding tree %s: %v", vxerr.ErrSerialization, key, err)
	}
	return t, nil
}

// HasTree reports whether a tree node named by d is already persisted.
func (s *Store) HasTree(d digest.Digest) (bool, error) {
	ok, err := s.treeDB.Has(treeBucket, digest.ToHex(d))
	if err != nil {
		return false, fmt.Errorf("%w: checking tree: %v", vxerr.ErrDatabase, err)
	}
	return ok, nil
}
