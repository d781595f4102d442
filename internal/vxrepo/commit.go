package vxrepo

import (
	"fmt"

	"github.com/sbalabanov/vx/internal/vxerr"
	"github.com/sbalabanov/vx/internal/vxmodel"
)

// Commit persists the live working tree and records a new commit on the
// current branch, following Commit::new. A tree identical to the current
// commit's is reported as NoChanges rather than silently accepted. Landing
// in the middle of the branch (the current pointer sits below the branch
// head, e.g. after checking out an earlier commit) triggers a metadata-only
// rebuild of every commit above it.
func (r *Repo) Commit(message string) (*vxmodel.Commit, error) {
	tree, err := r.engine.PersistTree(r.ctx.CheckoutPath)
	if err != nil {
		return nil, err
	}

	current, err := r.store.GetCurrent()
	if err != nil {
		return nil, err
	}
	curCommit, err := r.store.GetCommit(current.CommitID, current.Ver)
	if err != nil {
		return nil, err
	}
	if curCommit.TreeHash == tree.Hash {
		return nil, vxerr.ErrNoChanges
	}

	branch, err := r.store.Get(current.CommitID.Branch)
	if err != nil {
		return nil, err
	}

	newVer := branch.Ver + 1
	newSeq := current.CommitID.Seq + 1

	newCommit := &vxmodel.Commit{
		ID:       vxmodel.CommitID{Branch: branch.ID, Seq: newSeq},
		Ver:      newVer,
		TreeHash: tree.Hash,
		Message:  message,
	}
	newCommit.Hash = newCommit.ComputeHash()
	if err := r.store.Save(newCommit); err != nil {
		return nil, err
	}

	if newSeq <= branch.HeadSeq {
		if err := r.rebuildVersions(branch.ID, newSeq, branch.HeadSeq, branch.Ver, newVer); err != nil {
			return nil, err
		}
	}

	if err := r.store.SaveCurrent(&vxmodel.CurrentCommitSpec{CommitID: newCommit.ID, Ver: newVer}); err != nil {
		return nil, err
	}

	newHeadSeq := branch.HeadSeq
	if newSeq > newHeadSeq {
		newHeadSeq = newSeq
	}
	if err := r.store.AdvanceHead(branch.ID, newHeadSeq, newVer); err != nil {
		return nil, err
	}

	r.logger.Info("commit created", "branch", branch.Name, "seq", newSeq, "ver", newVer)
	return newCommit, nil
}

// Amend implements Commit::amend: it replaces the current commit's tree
// and/or message with a new version at the same (branch, seq), then
// rebuilds every commit above it so the branch's ver stays monotonic. A
// rebuild triggered purely by a message edit is a cheap metadata bump; one
// triggered by changed file content additionally sets a rebuild-in-progress
// marker on the current pointer while the commits above are bumped, and
// clears it afterwards. Nothing reads the marker back to resume an
// interrupted rebuild, and no diffs are reapplied to the commits above: they
// keep their trees (see DESIGN.md).
func (r *Repo) Amend(newMessage *string) (*vxmodel.Commit, error) {
	current, err := r.store.GetCurrent()
	if err != nil {
		return nil, err
	}
	if current.CommitID.Seq == 0 {
		return nil, vxerr.ErrCannotAmendSentinel
	}

	curCommit, err := r.store.GetCommit(current.CommitID, current.Ver)
	if err != nil {
		return nil, err
	}

	tree, err := r.engine.PersistTree(r.ctx.CheckoutPath)
	if err != nil {
		return nil, err
	}

	messageChanged := newMessage != nil && *newMessage != curCommit.Message
	treeChanged := tree.Hash != curCommit.TreeHash
	if !treeChanged && !messageChanged {
		return nil, vxerr.ErrNoChanges
	}

	branch, err := r.store.Get(current.CommitID.Branch)
	if err != nil {
		return nil, err
	}

	message := curCommit.Message
	if newMessage != nil {
		message = *newMessage
	}

	newVer := branch.Ver + 1
	amended := &vxmodel.Commit{
		ID:       current.CommitID,
		Ver:      newVer,
		TreeHash: tree.Hash,
		Message:  message,
	}
	amended.Hash = amended.ComputeHash()
	if err := r.store.Save(amended); err != nil {
		return nil, err
	}

	if current.CommitID.Seq < branch.HeadSeq {
		if treeChanged {
			if err := r.rebuildWithContentChange(branch.ID, current.CommitID.Seq, newVer); err != nil {
				return nil, err
			}
		} else {
			if err := r.rebuildVersions(branch.ID, current.CommitID.Seq, branch.HeadSeq, branch.Ver, newVer); err != nil {
				return nil, err
			}
		}
	}

	if err := r.store.SaveCurrent(&vxmodel.CurrentCommitSpec{CommitID: amended.ID, Ver: newVer}); err != nil {
		return nil, err
	}
	if err := r.store.AdvanceHead(branch.ID, branch.HeadSeq, newVer); err != nil {
		return nil, err
	}

	r.logger.Info("commit amended", "branch", branch.Name, "seq", current.CommitID.Seq, "ver", newVer)
	return amended, nil
}

// rebuildVersions bumps every commit strictly above fromSeq through headSeq
// to newVer without touching their tree or message: the metadata-only path
// used when an amendment below the tip changed nothing but its message.
// save is idempotent at a given ver, so a rebuild interrupted midway can
// simply be re-run.
func (r *Repo) rebuildVersions(branchID, fromSeq, headSeq, oldVer, newVer uint64) error {
	for seq := fromSeq + 1; seq <= headSeq; seq++ {
		id := vxmodel.CommitID{Branch: branchID, Seq: seq}
		c, err := r.store.GetCommit(id, oldVer)
		if err != nil {
			return fmt.Errorf("rebuilding commit %+v: %w", id, err)
		}
		bumped := &vxmodel.Commit{ID: id, Ver: newVer, TreeHash: c.TreeHash, Message: c.Message}
		bumped.Hash = bumped.ComputeHash()
		if err := r.store.Save(bumped); err != nil {
			return err
		}
	}
	return nil
}

// rebuildWithContentChange is the content-changed rebuild path: it marks the
// current pointer as mid-rebuild before touching any commit above fromSeq,
// then bumps each one to newVer. Diff reapplication and conflict resolution
// for the commits above the amended one are not implemented; each commit
// above the amendment point keeps its existing tree, only its ver advances.
func (r *Repo) rebuildWithContentChange(branchID, fromSeq, newVer uint64) error {
	branch, err := r.store.Get(branchID)
	if err != nil {
		return err
	}

	marker := &vxmodel.CurrentCommitSpec{
		CommitID:   vxmodel.CommitID{Branch: branchID, Seq: fromSeq},
		Ver:        newVer,
		RebuildSeq: fromSeq,
		RebuildVer: newVer,
	}
	if err := r.store.SaveCurrent(marker); err != nil {
		return err
	}

	if err := r.rebuildVersions(branchID, fromSeq, branch.HeadSeq, branch.Ver, newVer); err != nil {
		return err
	}

	cleared := &vxmodel.CurrentCommitSpec{CommitID: vxmodel.CommitID{Branch: branchID, Seq: fromSeq}, Ver: newVer}
	return r.store.SaveCurrent(cleared)
}
