package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sbalabanov/vx/internal/digest"
	"github.com/sbalabanov/vx/internal/vxerr"
	"github.com/sbalabanov/vx/internal/vxmodel"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), ".vx"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPutFileDeduplicates(t *testing.T) {
	s := openTestStore(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	b1, err := s.PutFile(path)
	if err != nil {
		t.Fatalf("PutFile: %v", err)
	}
	b2, err := s.PutFile(path)
	if err != nil {
		t.Fatalf("PutFile (second): %v", err)
	}
	if b1.ContentHash != b2.ContentHash || b1.Size != b2.Size {
		t.Fatalf("repeated PutFile produced different records: %+v vs %+v", b1, b2)
	}

	dst := filepath.Join(dir, "out.txt")
	if err := s.GetFile(b1.ContentHash, dst); err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Fatalf("GetFile content = %q, want %q", got, "hello")
	}
}

func TestGetFileMissingIsBlobNotFound(t *testing.T) {
	s := openTestStore(t)
	err := s.GetFile(digest.ComputeBytes([]byte("nope")), filepath.Join(t.TempDir(), "x"))
	if !errors.Is(err, vxerr.ErrBlobNotFound) {
		t.Fatalf("got %v, want ErrBlobNotFound", err)
	}
}

func TestTreePutGet(t *testing.T) {
	s := openTestStore(t)

	tr := &vxmodel.Tree{Files: []vxmodel.FileRef{{Name: "a.txt", Blob: vxmodel.Blob{ContentHash: digest.ComputeBytes([]byte("hi")), Size: 2}}}}
	tr.Hash = tr.ComputeHash()

	if err := s.PutTree(tr); err != nil {
		t.Fatalf("PutTree: %v", err)
	}

	got, err := s.GetTree(tr.Hash)
	if err != nil {
		t.Fatalf("GetTree: %v", err)
	}
	if got.Hash != tr.Hash || len(got.Files) != 1 || got.Files[0].Name != "a.txt" {
		t.Fatalf("GetTree mismatch: %+v", got)
	}
}

func TestGetTreeMissing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetTree(digest.ComputeBytes([]byte("nope")))
	if !errors.Is(err, vxerr.ErrTreeNotFound) {
		t.Fatalf("got %v, want ErrTreeNotFound", err)
	}
}

func TestBranchCreateAndCollision(t *testing.T) {
	s := openTestStore(t)

	b, err := s.Create("main", 0, 0, 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if b.Name != "main" || b.Parent != 0 {
		t.Fatalf("unexpected branch: %+v", b)
	}

	_, err = s.Create("main", 0, 0, 0)
	if !errors.Is(err, vxerr.ErrBranchExists) {
		t.Fatalf("got %v, want ErrBranchExists", err)
	}

	got, err := s.GetByName("main")
	if err != nil {
		t.Fatalf("GetByName: %v", err)
	}
	if got.ID != b.ID {
		t.Fatalf("GetByName id mismatch")
	}
}

func TestBranchAdvanceHead(t *testing.T) {
	s := openTestStore(t)
	b, err := s.Create("main", 0, 0, 0)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.AdvanceHead(b.ID, 1, 1); err != nil {
		t.Fatalf("AdvanceHead: %v", err)
	}

	got, err := s.Get(b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.HeadSeq != 1 || got.Ver != 1 {
		t.Fatalf("got %+v, want HeadSeq=1 Ver=1", got)
	}
}

func TestAdvanceHeadMissingBranch(t *testing.T) {
	s := openTestStore(t)
	err := s.AdvanceHead(999, 1, 1)
	if !errors.Is(err, vxerr.ErrBranchNotFound) {
		t.Fatalf("got %v, want ErrBranchNotFound", err)
	}
}

func TestCommitSaveAndGetVersioned(t *testing.T) {
	s := openTestStore(t)

	id := vxmodel.CommitID{Branch: 1, Seq: 1}
	c1 := &vxmodel.Commit{ID: id, Ver: 1, Message: "first"}
	if err := s.Save(c1); err != nil {
		t.Fatalf("Save: %v", err)
	}

	c2 := &vxmodel.Commit{ID: id, Ver: 2, Message: "second"}
	if err := s.Save(c2); err != nil {
		t.Fatalf("Save: %v", err)
	}

	gotNew, err := s.GetCommit(id, 2)
	if err != nil {
		t.Fatal(err)
	}
	if gotNew.Message != "second" {
		t.Fatalf("Get(ver=2).Message = %q, want second", gotNew.Message)
	}

	gotOld, err := s.GetCommit(id, 1)
	if err != nil {
		t.Fatal(err)
	}
	if gotOld.Message != "first" {
		t.Fatalf("Get(ver=1).Message = %q, want first", gotOld.Message)
	}

	// A ver above every stored version resolves to the greatest <= requested.
	gotAbove, err := s.GetCommit(id, 10)
	if err != nil {
		t.Fatal(err)
	}
	if gotAbove.Message != "second" {
		t.Fatalf("Get(ver=10).Message = %q, want second", gotAbove.Message)
	}
}

func TestCommitSaveOverwritesSameVer(t *testing.T) {
	s := openTestStore(t)
	id := vxmodel.CommitID{Branch: 1, Seq: 1}

	if err := s.Save(&vxmodel.Commit{ID: id, Ver: 1, Message: "attempt 1"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(&vxmodel.Commit{ID: id, Ver: 1, Message: "attempt 2 (retry)"}); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetCommit(id, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got.Message != "attempt 2 (retry)" {
		t.Fatalf("Save did not overwrite same-ver entry in place: got %q", got.Message)
	}
}

func TestCommitListTipFirst(t *testing.T) {
	s := openTestStore(t)
	const branchID = uint64(7)

	for seq := uint64(0); seq <= 2; seq++ {
		c := &vxmodel.Commit{ID: vxmodel.CommitID{Branch: branchID, Seq: seq}, Ver: 1, Message: "m"}
		if err := s.Save(c); err != nil {
			t.Fatal(err)
		}
	}

	list, err := s.List(branchID, 1, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("len(list) = %d, want 3", len(list))
	}
	for i, want := range []uint64{2, 1, 0} {
		if list[i].ID.Seq != want {
			t.Fatalf("list[%d].Seq = %d, want %d", i, list[i].ID.Seq, want)
		}
	}
}

func TestCurrentCommitPointerRoundTrip(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetCurrent()
	if err == nil {
		t.Fatal("expected error before SaveCurrent")
	}

	spec := &vxmodel.CurrentCommitSpec{CommitID: vxmodel.CommitID{Branch: 1, Seq: 2}, Ver: 3}
	if err := s.SaveCurrent(spec); err != nil {
		t.Fatalf("SaveCurrent: %v", err)
	}

	got, err := s.GetCurrent()
	if err != nil {
		t.Fatalf("GetCurrent: %v", err)
	}
	if *got != *spec {
		t.Fatalf("got %+v, want %+v", got, spec)
	}
}

func TestMetaRoundTrip(t *testing.T) {
	s := openTestStore(t)
	if err := s.SetMeta("proj", "created_at", "2026-07-31"); err != nil {
		t.Fatal(err)
	}
	v, ok, err := s.GetMeta("proj", "created_at")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || v != "2026-07-31" {
		t.Fatalf("GetMeta = (%q, %v)", v, ok)
	}
}
