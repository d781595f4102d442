package store

import (
	"encoding/binary"
	"fmt"
	"sort"

	bolt "go.etcd.io/bbolt"

	"github.com/sbalabanov/vx/internal/vxerr"
	"github.com/sbalabanov/vx/internal/vxmodel"
)

const (
	commitsBucket   = "commits"
	sequencesBucket = "sequences"
	currentKey      = "current"
)

// Save performs an atomic read-modify-write of the version stack at
// commit.ID: the commits under one (branch, seq) key, sorted by Ver in
// descending order. The common case — a Ver above every stored one, as
// written by a new commit, an amendment, or a rebuild step — prepends; a
// repeated write at an existing Ver (such as a re-run rebuild step)
// overwrites that entry in place; anything else is inserted at its sorted
// position.
func (s *Store) Save(commit *vxmodel.Commit) error {
	key := string(vxmodel.CommitKey(commit.ID))

	err := s.commitDB.Update(commitsBucket, func(b *bolt.Bucket) error {
		raw := b.Get([]byte(key))
		stack, err := decodeCommitStack(raw)
		if err != nil {
			return err
		}

		stack = insertIntoStack(stack, commit)

		encoded, err := encodeCommitStack(stack)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), encoded)
	})
	if err != nil {
		return fmt.Errorf("%w: saving commit %+v: %v", vxerr.ErrDatabase, commit.ID, err)
	}
	return nil
}

// insertIntoStack returns stack with commit inserted in descending-Ver
// order, overwriting any existing entry at the same Ver.
func insertIntoStack(stack []*vxmodel.Commit, commit *vxmodel.Commit) []*vxmodel.Commit {
	for i, existing := range stack {
		if existing.Ver == commit.Ver {
			stack[i] = commit
			return stack
		}
	}

	// sort.Search requires an ascending predicate; stack is descending, so
	// search for the first index whose Ver is <= commit.Ver.
	idx := sort.Search(len(stack), func(i int) bool {
		return stack[i].Ver <= commit.Ver
	})

	stack = append(stack, nil)
	copy(stack[idx+1:], stack[idx:])
	stack[idx] = commit
	return stack
}

// GetCommit returns the commit at id whose Ver is the greatest value <= ver. The
// stack is kept sorted descending, so this is a linear scan that typically
// returns on the first entry.
func (s *Store) GetCommit(id vxmodel.CommitID, ver uint64) (*vxmodel.Commit, error) {
	key := string(vxmodel.CommitKey(id))
	raw, ok, err := s.commitDB.Get(commitsBucket, key)
	if err != nil {
		return nil, fmt.Errorf("%w: reading commit %+v: %v", vxerr.ErrDatabase, id, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %+v", vxerr.ErrCommitNotFound, id)
	}

	stack, err := decodeCommitStack(raw)
	if err != nil {
		return nil, err
	}

	for _, c := range stack {
		if c.Ver <= ver {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %+v has no version <= %d", vxerr.ErrCommitNotFound, id, ver)
}

// List walks seq = headSeq, headSeq-1, ..., 0, resolving each via Get at
// branchVer, and returns the result tip-first.
func (s *Store) List(branchID, branchVer, headSeq uint64) ([]*vxmodel.Commit, error) {
	out := make([]*vxmodel.Commit, 0, headSeq+1)
	for seq := headSeq; ; seq-- {
		c, err := s.GetCommit(vxmodel.CommitID{Branch: branchID, Seq: seq}, branchVer)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
		if seq == 0 {
			break
		}
	}
	return out, nil
}

// GetCurrent loads the process-wide current-commit pointer.
func (s *Store) GetCurrent() (*vxmodel.CurrentCommitSpec, error) {
	raw, ok, err := s.commitDB.Get(sequencesBucket, currentKey)
	if err != nil {
		return nil, fmt.Errorf("%w: reading current commit pointer: %v", vxerr.ErrDatabase, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: current commit pointer is unset", vxerr.ErrNoBranchSelected)
	}
	spec, err := vxmodel.DecodeCurrentCommitSpec(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding current commit pointer: %v", vxerr.ErrSerialization, err)
	}
	return spec, nil
}

// SaveCurrent overwrites the process-wide current-commit pointer.
func (s *Store) SaveCurrent(spec *vxmodel.CurrentCommitSpec) error {
	if err := s.commitDB.Put(sequencesBucket, currentKey, vxmodel.EncodeCurrentCommitSpec(spec)); err != nil {
		return fmt.Errorf("%w: saving current commit pointer: %v", vxerr.ErrDatabase, err)
	}
	return nil
}

func encodeCommitStack(stack []*vxmodel.Commit) ([]byte, error) {
	var out []byte
	var countBuf [4]byte
	binary.BigEndian.PutUint32(countBuf[:], uint32(len(stack)))
	out = append(out, countBuf[:]...)

	for _, c := range stack {
		encoded := vxmodel.EncodeCommit(c)
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(encoded)))
		out = append(out, lenBuf[:]...)
		out = append(out, encoded...)
	}
	return out, nil
}

func decodeCommitStack(data []byte) ([]*vxmodel.Commit, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: truncated commit stack", vxerr.ErrSerialization)
	}

	count := binary.BigEndian.Uint32(data[:4])
	offset := 4
	stack := make([]*vxmodel.Commit, 0, count)
	for i := uint32(0); i < count; i++ {
		if offset+4 > len(data) {
			return nil, fmt.Errorf("%w: truncated commit stack entry length", vxerr.ErrSerialization)
		}
		entryLen := int(binary.BigEndian.Uint32(data[offset : offset+4]))
		offset += 4
		if offset+entryLen > len(data) {
			return nil, fmt.Errorf("%w: truncated commit stack entry", vxerr.ErrSerialization)
		}
		c, err := vxmodel.DecodeCommit(data[offset : offset+entryLen])
		if err != nil {
			return nil, fmt.Errorf("%w: decoding commit stack entry: %v", vxerr.ErrSerialization, err)
		}
		stack = append(stack, c)
		offset += entryLen
	}
	return stack, nil
}
