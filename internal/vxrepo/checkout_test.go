package vxrepo

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckoutRestoresEarlierCommit(t *testing.T) {
	r, _ := newTestRepo(t)
	path := filepath.Join(r.ctx.CheckoutPath, "a.txt")

	if err := os.WriteFile(path, []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Commit("first"); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("HI"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Commit("second"); err != nil {
		t.Fatal(err)
	}

	if err := r.Checkout("main:1"); err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "hi" {
		t.Fatalf("content = %q, want %q", content, "hi")
	}

	current, err := r.store.GetCurrent()
	if err != nil {
		t.Fatal(err)
	}
	if current.CommitID.Seq != 1 {
		t.Fatalf("current pointer seq = %d, want 1", current.CommitID.Seq)
	}
}

func TestCheckoutThenPersistTreeRehashesIdentically(t *testing.T) {
	r, _ := newTestRepo(t)
	path := filepath.Join(r.ctx.CheckoutPath, "a.txt")
	if err := os.WriteFile(path, []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}
	first, err := r.Commit("first")
	if err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(r.ctx.CheckoutPath)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() == ".vx" {
			continue
		}
		if err := os.RemoveAll(filepath.Join(r.ctx.CheckoutPath, e.Name())); err != nil {
			t.Fatal(err)
		}
	}

	if err := r.Checkout("main:1"); err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	restored, err := r.engine.PersistTree(r.ctx.CheckoutPath)
	if err != nil {
		t.Fatal(err)
	}
	if restored.Hash != first.TreeHash {
		t.Fatalf("rehash %v != original treehash %v", restored.Hash, first.TreeHash)
	}
}
