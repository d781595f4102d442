package vxrepo

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sbalabanov/vx/internal/vxerr"
)

func newTestRepo(t *testing.T) (*Repo, string) {
	t.Helper()
	cwd := t.TempDir()
	r, err := New(cwd, "proj", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r, cwd
}

func TestNewInitializesSentinelCommit(t *testing.T) {
	r, _ := newTestRepo(t)

	current, err := r.store.GetCurrent()
	if err != nil {
		t.Fatalf("GetCurrent: %v", err)
	}
	if current.CommitID.Seq != 0 {
		t.Fatalf("expected sentinel seq 0, got %d", current.CommitID.Seq)
	}

	branches, err := r.ListBranches()
	if err != nil {
		t.Fatal(err)
	}
	if len(branches) != 1 || branches[0].Name != mainBranchName {
		t.Fatalf("expected one main branch, got %+v", branches)
	}
}

func TestNewRejectsExistingWorkspace(t *testing.T) {
	cwd := t.TempDir()
	if err := os.Mkdir(filepath.Join(cwd, "proj"), 0o750); err != nil {
		t.Fatal(err)
	}

	_, err := New(cwd, "proj", nil)
	if !errors.Is(err, vxerr.ErrRepoExists) {
		t.Fatalf("expected ErrRepoExists, got %v", err)
	}
}

func TestOpenMissingRepoFails(t *testing.T) {
	cwd := t.TempDir()
	_, err := Open(cwd, "nope", nil)
	if !errors.Is(err, vxerr.ErrRepoNotFound) {
		t.Fatalf("expected ErrRepoNotFound, got %v", err)
	}
}

func TestOpenRoundTrip(t *testing.T) {
	r, cwd := newTestRepo(t)
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(cwd, "proj", nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reopened.Close()

	branches, err := reopened.ListBranches()
	if err != nil {
		t.Fatal(err)
	}
	if len(branches) != 1 {
		t.Fatalf("expected persisted branch, got %+v", branches)
	}
}

func TestValidateNameRejectsBadInput(t *testing.T) {
	for _, bad := range []string{"", "Has-Upper", "has space", "has_underscore"} {
		if err := ValidateName(bad); !errors.Is(err, vxerr.ErrInvalidName) {
			t.Fatalf("ValidateName(%q) = %v, want ErrInvalidName", bad, err)
		}
	}
	if err := ValidateName("feature/my-branch.2"); err != nil {
		t.Fatalf("ValidateName rejected a valid name: %v", err)
	}
}
