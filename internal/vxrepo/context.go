// Package vxrepo ties the digest, store, and snapshot packages together
// into the repository lifecycle, branch and commit operations, and commit-
// spec resolution described by the core design. Every operation here is a
// method on Repo, which holds the Context: the process-scoped handle naming
// the workspace and checkout paths.
package vxrepo

import (
	"fmt"
	"regexp"

	"github.com/sbalabanov/vx/internal/vxerr"
)

// nameRegexp is the grammar shared by branch and repository names.
var nameRegexp = regexp.MustCompile(`^[a-z0-9./-]+$`)

// ValidateName reports an error unless name matches [a-z0-9./-]+.
func ValidateName(name string) error {
	if name == "" || !nameRegexp.MatchString(name) {
		return fmt.Errorf("%w: %q", vxerr.ErrInvalidName, name)
	}
	return nil
}

// Context is the process-scoped handle every core operation receives: the
// on-disk workspace root and the path status/checkout operate against.
type Context struct {
	WorkspacePath string
	VxDir         string
	CheckoutPath  string
}
