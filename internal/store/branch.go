package store

import (
	"errors"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/sbalabanov/vx/internal/digest"
	"github.com/sbalabanov/vx/internal/vxerr"
	"github.com/sbalabanov/vx/internal/vxmodel"
)

const branchBucket = "branches"

// Create atomically inserts a new branch record keyed by xxh3_64(name),
// refusing to overwrite an existing key. A key collision with a record of
// the same name reports BranchExists; a collision with a different name
// reports HashCollision, since the 64-bit id space is not guaranteed
// collision-free for machine-generated names.
func (s *Store) Create(name string, headSeq, parent, parentSeq uint64) (*vxmodel.Branch, error) {
	id := digest.BranchID(name)
	key := string(vxmodel.BranchKey(id))

	branch := &vxmodel.Branch{
		ID:        id,
		Name:      name,
		HeadSeq:   headSeq,
		Ver:       0,
		Parent:    parent,
		ParentSeq: parentSeq,
	}

	var conflict error
	err := s.branchDB.Update(branchBucket, func(b *bolt.Bucket) error {
		if existing := b.Get([]byte(key)); existing != nil {
			prior, decodeErr := vxmodel.DecodeBranch(existing)
			if decodeErr != nil {
				return fmt.Errorf("%w: decoding existing branch: %v", vxerr.ErrSerialization, decodeErr)
			}
			if prior.Name == name {
				conflict = fmt.Errorf("%w: %s", vxerr.ErrBranchExists, name)
			} else {
				conflict = fmt.Errorf("%w: %q and %q both hash to %d", vxerr.ErrHashCollision, prior.Name, name, id)
			}
			return nil
		}
		return b.Put([]byte(key), vxmodel.EncodeBranch(branch))
	})
	if err != nil {
		return nil, fmt.Errorf("%w: creating branch %s: %v", vxerr.ErrDatabase, name, err)
	}
	if conflict != nil {
		return nil, conflict
	}

	return branch, nil
}

// Get looks up a branch by id.
func (s *Store) Get(id uint64) (*vxmodel.Branch, error) {
	key := string(vxmodel.BranchKey(id))
	raw, ok, err := s.branchDB.Get(branchBucket, key)
	if err != nil {
		return nil, fmt.Errorf("%w: reading branch %d: %v", vxerr.ErrDatabase, id, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: id %d", vxerr.ErrBranchNotFound, id)
	}
	b, err := vxmodel.DecodeBranch(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding branch %d: %v", vxerr.ErrSerialization, id, err)
	}
	return b, nil
}

// GetByName resolves name to its id via xxh3_64 and looks it up.
func (s *Store) GetByName(name string) (*vxmodel.Branch, error) {
	b, err := s.Get(digest.BranchID(name))
	if err != nil {
		if errors.Is(err, vxerr.ErrBranchNotFound) {
			return nil, fmt.Errorf("%w: %s", vxerr.ErrBranchNotFound, name)
		}
		return nil, err
	}
	if b.Name != name {
		return nil, fmt.Errorf("%w: %q and %q both hash to the same id", vxerr.ErrHashCollision, b.Name, name)
	}
	return b, nil
}

// List returns every branch record, in no particular order.
func (s *Store) List() ([]*vxmodel.Branch, error) {
	var out []*vxmodel.Branch
	err := s.branchDB.ForEach(branchBucket, func(_, value []byte) error {
		b, err := vxmodel.DecodeBranch(value)
		if err != nil {
			return fmt.Errorf("%w: decoding branch record: %v", vxerr.ErrSerialization, err)
		}
		out = append(out, b)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: listing branches: %v", vxerr.ErrDatabase, err)
	}
	return out, nil
}

// AdvanceHead updates a branch's HeadSeq and Ver in a single read-modify-
// write, atomic at the level of this one key.
func (s *Store) AdvanceHead(id, newHeadSeq, newVer uint64) error {
	key := string(vxmodel.BranchKey(id))

	var notFound bool
	err := s.branchDB.Update(branchBucket, func(b *bolt.Bucket) error {
		raw := b.Get([]byte(key))
		if raw == nil {
			notFound = true
			return nil
		}
		branch, err := vxmodel.DecodeBranch(raw)
		if err != nil {
			return fmt.Errorf("%w: decoding branch %d: %v", vxerr.ErrSerialization, id, err)
		}
		branch.HeadSeq = newHeadSeq
		branch.Ver = newVer
		return b.Put([]byte(key), vxmodel.EncodeBranch(branch))
	})
	if err != nil {
		return fmt.Errorf("%w: advancing head of branch %d: %v", vxerr.ErrDatabase, id, err)
	}
	if notFound {
		return fmt.Errorf("%w: id %d", vxerr.ErrBranchNotFound, id)
	}
	return nil
}
