package vxrepo

import "github.com/sbalabanov/vx/internal/vxmodel"

// Checkout resolves spec to a commit, materializes its tree onto the
// working directory via the two-cursor walk in checkout mode, and moves
// the current-commit pointer to match.
func (r *Repo) Checkout(spec string) error {
	id, err := r.ResolveSpec(spec)
	if err != nil {
		return err
	}

	branch, err := r.store.Get(id.Branch)
	if err != nil {
		return err
	}

	commit, err := r.store.GetCommit(id, branch.Ver)
	if err != nil {
		return err
	}

	if err := r.engine.Checkout(commit.TreeHash, r.ctx.CheckoutPath); err != nil {
		return err
	}

	return r.store.SaveCurrent(&vxmodel.CurrentCommitSpec{CommitID: id, Ver: branch.Ver})
}
