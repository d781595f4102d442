// Package snapshot implements the recursive directory scanner that builds
// and persists tree nodes, and the two-cursor walk that powers status,
// commit, and checkout by merging a live filesystem directory against a
// stored tree in lock-step.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/sbalabanov/vx/internal/store"
	"github.com/sbalabanov/vx/internal/vxerr"
	"github.com/sbalabanov/vx/internal/vxmodel"
)

// Reserved directory names the scanner never descends into or reports.
const (
	dataDirName = ".vx"
	tempDirName = ".vxtemp"
)

// parallelThreshold is the minimum number of sub-directories before a
// directory's children are scanned concurrently rather than in sequence.
const parallelThreshold = 4

// Engine owns the stores persist_tree writes into and the two-cursor walk
// reads from.
type Engine struct {
	store       *store.Store
	concurrency int
}

// New creates an Engine bounded by runtime.NumCPU() concurrent directory
// scans, matching the "fixed-size worker pool used only by the snapshot
// engine's parallel directory recursion" resource model.
func New(s *store.Store) *Engine {
	return &Engine{store: s, concurrency: runtime.NumCPU()}
}

// CreateEmpty writes and returns a tree node with no folders, no files,
// zero counts, and the distinguished empty-content digest.
func (e *Engine) CreateEmpty() (*vxmodel.Tree, error) {
	t := &vxmodel.Tree{}
	t.Hash = t.ComputeHash()
	if err := e.store.PutTree(t); err != nil {
		return nil, err
	}
	return t, nil
}

// PersistTree recursively scans the live directory at path, writing blobs
// and tree nodes as it goes, and returns the persisted root tree node.
// Symlinks anywhere under path abort the whole operation with
// ErrSymlinkNotSupported; a cancelled or failed run may leave already-
// written blobs and tree nodes as harmless orphans, since both stores are
// content-addressed and referenced only once a commit using them succeeds.
func (e *Engine) PersistTree(path string) (*vxmodel.Tree, error) {
	return e.persistDir(path)
}

// dirResult carries a sub-directory's persisted hash alongside its
// recursive totals, so the parent can fold the totals in without
// re-reading the child tree node back out of the store.
type dirResult struct {
	hash        vxmodel.FolderRef
	size        uint64
	fileCount   uint64
	folderCount uint64
}

func (e *Engine) persistDir(path string) (*vxmodel.Tree, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading directory %s: %v", vxerr.ErrIO, path, err)
	}

	var dirNames, fileNames []string
	for _, entry := range entries {
		name := entry.Name()
		if name == dataDirName || name == tempDirName {
			continue
		}
		if entry.Type()&os.ModeSymlink != 0 {
			return nil, fmt.Errorf("%w: %s", vxerr.ErrSymlinkNotSupported, filepath.Join(path, name))
		}
		if entry.IsDir() {
			dirNames = append(dirNames, name)
		} else {
			fileNames = append(fileNames, name)
		}
	}
	sort.Strings(dirNames)
	sort.Strings(fileNames)

	results, err := e.persistSubdirs(path, dirNames)
	if err != nil {
		return nil, err
	}

	files, err := e.persistFiles(path, fileNames)
	if err != nil {
		return nil, err
	}

	folders := make([]vxmodel.FolderRef, len(results))
	var size, fileCount, folderCount uint64
	for i, r := range results {
		folders[i] = r.hash
		size += r.size
		fileCount += r.fileCount
		folderCount += r.folderCount + 1
	}
	for _, f := range files {
		size += f.Blob.Size
		fileCount++
	}

	t := &vxmodel.Tree{
		Folders:     folders,
		Files:       files,
		Size:        size,
		FileCount:   fileCount,
		FolderCount: folderCount,
	}
	t.Hash = t.ComputeHash()

	if err := e.store.PutTree(t); err != nil {
		return nil, err
	}
	return t, nil
}

// persistFiles hashes and stores each file sequentially: files are I/O-
// bound and usually fit in a streaming pattern, so they are not
// parallelized the way sub-directories are.
func (e *Engine) persistFiles(dir string, names []string) ([]vxmodel.FileRef, error) {
	files := make([]vxmodel.FileRef, len(names))
	for i, name := range names {
		blob, err := e.store.PutFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		files[i] = vxmodel.FileRef{Name: name, Blob: *blob}
	}
	return files, nil
}

// persistSubdirs recurses into each named sub-directory of dir. When there
// are at least parallelThreshold of them, they are scanned concurrently
// through a bounded errgroup; each result is written into a slot indexed by
// its original position, so the returned order matches names regardless of
// completion order — the "collect then build parent" discipline the root
// hash's determinism depends on.
func (e *Engine) persistSubdirs(dir string, names []string) ([]dirResult, error) {
	results := make([]dirResult, len(names))

	process := func(i int) error {
		name := names[i]
		sub, err := e.persistDir(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		results[i] = dirResult{
			hash:        vxmodel.FolderRef{Name: name, Hash: sub.Hash},
			size:        sub.Size,
			fileCount:   sub.FileCount,
			folderCount: sub.FolderCount,
		}
		return nil
	}

	if len(names) >= parallelThreshold {
		g := new(errgroup.Group)
		g.SetLimit(e.concurrency)
		for i := range names {
			i := i
			g.Go(func() error { return process(i) })
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i := range names {
			if err := process(i); err != nil {
				return nil, err
			}
		}
	}

	return results, nil
}
