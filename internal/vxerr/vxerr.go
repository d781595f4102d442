// Package vxerr defines the sentinel errors shared across vx's core
// packages. Callers match them with errors.Is; wrapped causes (I/O,
// database) are attached with fmt.Errorf("...: %w", ...) so both the
// sentinel and the underlying cause survive.
package vxerr

import "errors"

var (
	// Input / validation.
	ErrInvalidName     = errors.New("vx: name does not match [a-z0-9./-]+")
	ErrInvalidParent   = errors.New("vx: new branch must be created off the foundational branch")
	ErrInvalidSequence = errors.New("vx: commit spec has an unparseable sequence")

	// Not-found.
	ErrBranchNotFound = errors.New("vx: branch not found")
	ErrCommitNotFound = errors.New("vx: commit not found")
	ErrBlobNotFound   = errors.New("vx: blob not found")
	ErrTreeNotFound   = errors.New("vx: tree not found")
	ErrRepoNotFound   = errors.New("vx: repository not found")

	// Already-exists.
	ErrBranchExists = errors.New("vx: branch already exists")
	ErrRepoExists   = errors.New("vx: repository already exists")

	// No-op.
	ErrNoChanges = errors.New("vx: no changes to commit")

	// State.
	ErrNoBranchSelected    = errors.New("vx: no branch selected")
	ErrCannotAmendSentinel = errors.New("vx: sentinel commit cannot be amended")

	// I/O.
	ErrIO            = errors.New("vx: io error")
	ErrDatabase      = errors.New("vx: database error")
	ErrSerialization = errors.New("vx: serialization error")

	// Unsupported.
	ErrSymlinkNotSupported = errors.New("vx: symlinks are not supported")
	ErrHashCollision       = errors.New("vx: branch name hash collides with an existing branch")
)
