package vxrepo

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sbalabanov/vx/internal/vxerr"
	"github.com/sbalabanov/vx/internal/vxmodel"
)

// ResolveSpec parses a commit-spec string against the repository's current
// state:
//
//   - "<branch>:<seq>" — look up branch by name, parse seq as an unsigned
//     integer;
//   - a bare unsigned integer — seq on the current branch;
//   - anything else — a branch name, resolved to (branch.id, branch.headseq).
func (r *Repo) ResolveSpec(spec string) (vxmodel.CommitID, error) {
	if idx := strings.IndexByte(spec, ':'); idx >= 0 {
		name, seqStr := spec[:idx], spec[idx+1:]
		branch, err := r.store.GetByName(name)
		if err != nil {
			return vxmodel.CommitID{}, err
		}
		seq, err := strconv.ParseUint(seqStr, 10, 64)
		if err != nil {
			return vxmodel.CommitID{}, fmt.Errorf("%w: %q", vxerr.ErrInvalidSequence, seqStr)
		}
		return vxmodel.CommitID{Branch: branch.ID, Seq: seq}, nil
	}

	if seq, err := strconv.ParseUint(spec, 10, 64); err == nil {
		current, err := r.store.GetCurrent()
		if err != nil {
			return vxmodel.CommitID{}, err
		}
		return vxmodel.CommitID{Branch: current.CommitID.Branch, Seq: seq}, nil
	}

	branch, err := r.store.GetByName(spec)
	if err != nil {
		return vxmodel.CommitID{}, err
	}
	return vxmodel.CommitID{Branch: branch.ID, Seq: branch.HeadSeq}, nil
}
