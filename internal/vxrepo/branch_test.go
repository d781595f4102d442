package vxrepo

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sbalabanov/vx/internal/vxerr"
	"github.com/sbalabanov/vx/internal/vxmodel"
)

func TestCreateBranchFromFoundational(t *testing.T) {
	r, _ := newTestRepo(t)

	b, err := r.CreateBranch("feature/x")
	if err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	if b.Parent == 0 {
		t.Fatalf("expected non-zero parent branch id")
	}

	current, err := r.store.GetCurrent()
	if err != nil {
		t.Fatal(err)
	}
	if current.CommitID.Branch != b.ID || current.CommitID.Seq != 0 {
		t.Fatalf("current pointer not moved to new branch sentinel: %+v", current)
	}
}

func TestCreateBranchRejectsNonFoundationalParent(t *testing.T) {
	r, _ := newTestRepo(t)

	if _, err := r.CreateBranch("feature/x"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.CreateBranch("feature/y"); !errors.Is(err, vxerr.ErrInvalidParent) {
		t.Fatalf("expected ErrInvalidParent, got %v", err)
	}
}

func TestCreateBranchRejectsInvalidName(t *testing.T) {
	r, _ := newTestRepo(t)
	if _, err := r.CreateBranch("Bad Name"); !errors.Is(err, vxerr.ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
}

func TestCreateBranchCopiesCurrentTreeAndMessage(t *testing.T) {
	r, _ := newTestRepo(t)
	if err := os.WriteFile(filepath.Join(r.ctx.CheckoutPath, "a.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Commit("add a.txt"); err != nil {
		t.Fatal(err)
	}

	b, err := r.CreateBranch("feature/x")
	if err != nil {
		t.Fatal(err)
	}

	sentinel, err := r.store.GetCommit(vxmodel.CommitID{Branch: b.ID, Seq: 0}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if sentinel.Message != "add a.txt" {
		t.Fatalf("sentinel message = %q, want %q", sentinel.Message, "add a.txt")
	}
}
