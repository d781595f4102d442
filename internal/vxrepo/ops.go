package vxrepo

import (
	"fmt"

	"github.com/sbalabanov/vx/internal/digest"
	"github.com/sbalabanov/vx/internal/snapshot"
	"github.com/sbalabanov/vx/internal/vxmodel"
)

// Status reports the difference between the working tree and the commit
// the current pointer names: a thin wrapper around the two-cursor walk run
// in status mode.
func (r *Repo) Status() ([]snapshot.Change, error) {
	current, err := r.store.GetCurrent()
	if err != nil {
		return nil, err
	}
	commit, err := r.store.GetCommit(current.CommitID, current.Ver)
	if err != nil {
		return nil, err
	}
	return r.engine.Status(commit.TreeHash, r.ctx.CheckoutPath)
}

// Log returns the tip-first commit history of name, or of the current
// branch when name is empty.
func (r *Repo) Log(name string) ([]*vxmodel.Commit, error) {
	branch, err := r.resolveBranch(name)
	if err != nil {
		return nil, err
	}
	return r.store.List(branch.ID, branch.Ver, branch.HeadSeq)
}

// CurrentBranch returns the branch the current-commit pointer sits on.
func (r *Repo) CurrentBranch() (*vxmodel.Branch, error) {
	return r.resolveBranch("")
}

func (r *Repo) resolveBranch(name string) (*vxmodel.Branch, error) {
	if name != "" {
		return r.store.GetByName(name)
	}
	current, err := r.store.GetCurrent()
	if err != nil {
		return nil, err
	}
	return r.store.Get(current.CommitID.Branch)
}

// ObjectKind distinguishes which store CatFile resolved a digest against.
type ObjectKind int

const (
	ObjectUnknown ObjectKind = iota
	ObjectTree
	ObjectBlob
)

func (k ObjectKind) String() string {
	switch k {
	case ObjectTree:
		return "tree"
	case ObjectBlob:
		return "blob"
	default:
		return "unknown"
	}
}

// CatFile resolves hexDigest against the tree store, then the blob store,
// and returns its raw bytes: a tree's canonical encoding, or a blob's
// decompressed content.
func (r *Repo) CatFile(hexDigest string) (ObjectKind, []byte, error) {
	d, err := digest.FromHex(hexDigest)
	if err != nil {
		return ObjectUnknown, nil, fmt.Errorf("parsing digest %q: %w", hexDigest, err)
	}

	if tree, err := r.store.GetTree(d); err == nil {
		return ObjectTree, vxmodel.EncodeTree(tree), nil
	}

	if blob, err := r.store.ReadBlob(d); err == nil {
		return ObjectBlob, blob, nil
	}

	return ObjectUnknown, nil, fmt.Errorf("object %s not found in tree or blob store", hexDigest)
}
