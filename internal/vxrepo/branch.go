package vxrepo

import (
	"fmt"

	"github.com/sbalabanov/vx/internal/vxerr"
	"github.com/sbalabanov/vx/internal/vxmodel"
)

// CreateBranch implements Branch::new: it may only be called while the
// current commit sits on the foundational branch, keeping the rebase space
// flat. It creates the branch record, a sentinel commit copying the
// current commit's tree and message, and advances the current-commit
// pointer to that sentinel.
//
// Known hazard (documented, not solved here): this sequence is not atomic
// across the branch store and the commit store. A crash between creating
// the branch record and saving its sentinel leaves a branch with no
// sentinel commit, violating the "every branch has at least one commit"
// invariant; recovering from that is left to a future repair procedure.
func (r *Repo) CreateBranch(name string) (*vxmodel.Branch, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	current, err := r.store.GetCurrent()
	if err != nil {
		return nil, err
	}

	curBranch, err := r.store.Get(current.CommitID.Branch)
	if err != nil {
		return nil, err
	}
	if curBranch.Parent != 0 {
		return nil, fmt.Errorf("%w: %s is not the foundational branch", vxerr.ErrInvalidParent, curBranch.Name)
	}

	curCommit, err := r.store.GetCommit(current.CommitID, current.Ver)
	if err != nil {
		return nil, err
	}

	newBranch, err := r.store.Create(name, 0, curBranch.ID, current.CommitID.Seq)
	if err != nil {
		return nil, err
	}

	sentinel := &vxmodel.Commit{
		ID:       vxmodel.CommitID{Branch: newBranch.ID, Seq: 0},
		Ver:      0,
		TreeHash: curCommit.TreeHash,
		Message:  curCommit.Message,
	}
	sentinel.Hash = sentinel.ComputeHash()
	if err := r.store.Save(sentinel); err != nil {
		return nil, err
	}

	if err := r.store.SaveCurrent(&vxmodel.CurrentCommitSpec{CommitID: sentinel.ID, Ver: 0}); err != nil {
		return nil, err
	}

	r.logger.Info("branch created", "name", name, "parent", curBranch.Name, "parent_seq", current.CommitID.Seq)
	return newBranch, nil
}

// ListBranches returns every branch record.
func (r *Repo) ListBranches() ([]*vxmodel.Branch, error) {
	return r.store.List()
}
