package vxrepo

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/sbalabanov/vx/internal/snapshot"
	"github.com/sbalabanov/vx/internal/store"
	"github.com/sbalabanov/vx/internal/vxerr"
	"github.com/sbalabanov/vx/internal/vxmodel"
)

// lockAcquireTimeout bounds how long Repo.New waits for another vx process
// to release the repository lock during initialization.
const lockAcquireTimeout = 5 * time.Second

const (
	mainBranchName   = "main"
	initialCommitMsg = "Initial commit"
	metaKeyRepoName  = "name"
)

func deadlineContext(d time.Duration) context.Context {
	ctx, _ := context.WithTimeout(context.Background(), d) //nolint:lostcancel // lock attempt is bounded by d itself
	return ctx
}

// Repo is an opened repository: its store, snapshot engine, and the
// process-scoped Context every operation is performed against.
type Repo struct {
	ctx    Context
	store  *store.Store
	engine *snapshot.Engine
	logger *slog.Logger
}

// New creates the on-disk layout for a repository named name under cwd —
// <cwd>/<name>/.vx — and sequences its initial state: an empty root tree,
// the foundational "main" branch, a sentinel commit pointing at that tree,
// and the current-commit pointer. The lifecycle sequence runs under an
// advisory file lock at .vx/lock, released once New returns, so two
// processes cannot initialize the same directory concurrently; it does not
// by itself solve the cross-store atomicity hazard documented on
// CreateBranch.
func New(cwd, name string, logger *slog.Logger) (*Repo, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	workspacePath := filepath.Join(cwd, name)
	if err := os.Mkdir(workspacePath, 0o750); err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("%w: %s", vxerr.ErrRepoExists, name)
		}
		return nil, fmt.Errorf("%w: creating workspace %s: %v", vxerr.ErrIO, workspacePath, err)
	}

	vxDir := filepath.Join(workspacePath, ".vx")
	if err := os.MkdirAll(vxDir, 0o750); err != nil {
		return nil, fmt.Errorf("%w: creating %s: %v", vxerr.ErrIO, vxDir, err)
	}

	lock := flock.New(filepath.Join(vxDir, "lock"))
	locked, err := lock.TryLockContext(deadlineContext(lockAcquireTimeout), 50*time.Millisecond)
	if err != nil || !locked {
		return nil, fmt.Errorf("%w: acquiring repository lock: %v", vxerr.ErrIO, err)
	}
	defer func() { _ = lock.Unlock() }()

	s, err := store.Open(vxDir)
	if err != nil {
		return nil, err
	}

	r := &Repo{
		ctx: Context{
			WorkspacePath: workspacePath,
			VxDir:         vxDir,
			CheckoutPath:  workspacePath,
		},
		store:  s,
		engine: snapshot.New(s),
		logger: logger,
	}

	if err := r.initializeEmptyRepo(name); err != nil {
		_ = s.Close()
		return nil, err
	}

	logger.Info("repository initialized", "name", name, "path", workspacePath)
	return r, nil
}

// Open loads an already-initialized repository rooted at <cwd>/<name>.
func Open(cwd, name string, logger *slog.Logger) (*Repo, error) {
	return OpenAt(filepath.Join(cwd, name), logger)
}

// OpenAt loads an already-initialized repository whose workspace root is
// workspacePath directly (workspacePath/.vx), for callers that already
// have the full path rather than a (cwd, name) pair.
func OpenAt(workspacePath string, logger *slog.Logger) (*Repo, error) {
	if logger == nil {
		logger = slog.Default()
	}
	vxDir := filepath.Join(workspacePath, ".vx")

	if _, err := os.Stat(vxDir); err != nil {
		return nil, fmt.Errorf("%w: %s", vxerr.ErrRepoNotFound, workspacePath)
	}

	s, err := store.Open(vxDir)
	if err != nil {
		return nil, err
	}

	return &Repo{
		ctx: Context{
			WorkspacePath: workspacePath,
			VxDir:         vxDir,
			CheckoutPath:  workspacePath,
		},
		store:  s,
		engine: snapshot.New(s),
		logger: logger,
	}, nil
}

// Close releases the repository's underlying databases.
func (r *Repo) Close() error {
	return r.store.Close()
}

// Context returns the process-scoped handle for this repository.
func (r *Repo) Context() Context {
	return r.ctx
}

func (r *Repo) initializeEmptyRepo(name string) error {
	if err := r.store.SetMeta(name, metaKeyRepoName, name); err != nil {
		return err
	}

	emptyTree, err := r.engine.CreateEmpty()
	if err != nil {
		return err
	}

	branch, err := r.store.Create(mainBranchName, 0, 0, 0)
	if err != nil {
		return err
	}

	sentinel := &vxmodel.Commit{
		ID:       vxmodel.CommitID{Branch: branch.ID, Seq: 0},
		Ver:      0,
		TreeHash: emptyTree.Hash,
		Message:  initialCommitMsg,
	}
	sentinel.Hash = sentinel.ComputeHash()
	if err := r.store.Save(sentinel); err != nil {
		return err
	}

	return r.store.SaveCurrent(&vxmodel.CurrentCommitSpec{CommitID: sentinel.ID, Ver: 0})
}
