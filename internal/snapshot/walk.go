package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sbalabanov/vx/internal/digest"
	"github.com/sbalabanov/vx/internal/vxmodel"
)

// initialFrameCapacity is the explicit stack's starting capacity. The walk
// is implemented iteratively, not recursively, so it can be paused,
// inspected, or interrupted without relying on call-stack unwinding.
const initialFrameCapacity = 32

// EntryType distinguishes structural changes (whole directories) from
// content changes (files) in a reported Change.
type EntryType int

const (
	EntryFile EntryType = iota
	EntryFolder
)

func (t EntryType) String() string {
	if t == EntryFolder {
		return "Folder"
	}
	return "File"
}

// ChangeKind classifies one merge outcome.
type ChangeKind int

const (
	Added ChangeKind = iota
	Modified
	Deleted
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "Added"
	case Modified:
		return "Modified"
	case Deleted:
		return "Deleted"
	default:
		return "Unknown"
	}
}

// Change describes one merge outcome from the two-cursor walk: a path
// present on only one side (Added/Deleted) or present on both with
// differing content (Modified).
type Change struct {
	Kind        ChangeKind
	Path        string
	EntryType   EntryType
	ContentHash digest.Digest
}

// mode selects the two-cursor walk's side effects.
type mode int

const (
	modeStatus mode = iota
	modeCheckout
)

// frame is one explicit stack entry: a directory pairing between the live
// filesystem (by relative path, re-read lazily when the frame is
// processed) and the stored Tree node it is being compared against.
type frame struct {
	relDir string
	tree   *vxmodel.Tree
}

// walker holds the state threaded through one two_cursor_walk invocation.
type walker struct {
	engine  *Engine
	root    string
	mode    mode
	changes []Change
}

// Status runs the two-cursor walk in Status mode: no filesystem writes,
// just the list of changes between the live directory at root and the
// stored tree named by treeHash.
func (e *Engine) Status(treeHash digest.Digest, root string) ([]Change, error) {
	w := &walker{engine: e, root: root, mode: modeStatus}
	return w.run(treeHash)
}

// Checkout runs the two-cursor walk in Checkout mode: it materializes the
// stored tree named by treeHash onto the filesystem at root, deleting
// anything present on disk but not in the tree and overwriting anything
// whose content differs.
func (e *Engine) Checkout(treeHash digest.Digest, root string) error {
	w := &walker{engine: e, root: root, mode: modeCheckout}
	_, err := w.run(treeHash)
	return err
}

func (w *walker) run(treeHash digest.Digest) ([]Change, error) {
	rootTree, err := w.engine.store.GetTree(treeHash)
	if err != nil {
		return nil, err
	}

	stack := make([]frame, 0, initialFrameCapacity)
	stack = append(stack, frame{relDir: "", tree: rootTree})

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		next, err := w.processFrame(f)
		if err != nil {
			return nil, err
		}
		stack = append(stack, next...)
	}

	return w.changes, nil
}

// processFrame merges one directory pairing and returns any sub-frames
// produced by equally-named directories on both sides, which the caller
// pushes back onto the explicit stack.
func (w *walker) processFrame(f frame) ([]frame, error) {
	fsDirNames, fsFileNames, err := w.readLiveDir(f.relDir)
	if err != nil {
		return nil, err
	}

	pending, err := w.mergeDirs(f.relDir, fsDirNames, f.tree.Folders)
	if err != nil {
		return nil, err
	}

	if err := w.mergeFiles(f.relDir, fsFileNames, f.tree.Files); err != nil {
		return nil, err
	}

	return pending, nil
}

// readLiveDir lists and sorts the live sub-directory and file names at
// relDir, skipping the store's own reserved folders and rejecting
// symlinks. A missing directory (already deleted, or not yet materialized
// during checkout) is not an error: it reads as empty, so every stored
// entry below it is treated as store-only.
func (w *walker) readLiveDir(relDir string) ([]string, []string, error) {
	abs := filepath.Join(w.root, relDir)
	entries, err := os.ReadDir(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("snapshot: reading %s: %w", abs, err)
	}

	var dirNames, fileNames []string
	for _, entry := range entries {
		name := entry.Name()
		if name == dataDirName || name == tempDirName {
			continue
		}
		if entry.Type()&os.ModeSymlink != 0 {
			return nil, nil, fmt.Errorf("snapshot: %s: symlinks are not supported", filepath.Join(abs, name))
		}
		if entry.IsDir() {
			dirNames = append(dirNames, name)
		} else {
			fileNames = append(fileNames, name)
		}
	}
	sort.Strings(dirNames)
	sort.Strings(fileNames)
	return dirNames, fileNames, nil
}

func joinRel(relDir, name string) string {
	if relDir == "" {
		return name
	}
	return relDir + "/" + name
}

// mergeDirs applies the merge rule to the sorted fsNames against the
// sorted storedFolders. Equal names produce a sub-frame for the caller to
// push; otherwise the mismatched side is Added or Deleted as a whole
// directory, with no need to descend further.
func (w *walker) mergeDirs(relDir string, fsNames []string, storedFolders []vxmodel.FolderRef) ([]frame, error) {
	var sub []frame
	i, j := 0, 0
	for i < len(fsNames) || j < len(storedFolders) {
		switch {
		case j >= len(storedFolders) || (i < len(fsNames) && fsNames[i] < storedFolders[j].Name):
			if err := w.handleAdded(joinRel(relDir, fsNames[i]), EntryFolder, digest.Zero); err != nil {
				return nil, err
			}
			i++
		case i >= len(fsNames) || fsNames[i] > storedFolders[j].Name:
			if err := w.handleDeleted(joinRel(relDir, storedFolders[j].Name), EntryFolder, storedFolders[j].Hash); err != nil {
				return nil, err
			}
			j++
		default:
			childTree, err := w.engine.store.GetTree(storedFolders[j].Hash)
			if err != nil {
				return nil, err
			}
			sub = append(sub, frame{relDir: joinRel(relDir, fsNames[i]), tree: childTree})
			i++
			j++
		}
	}
	return sub, nil
}

// mergeFiles applies the merge rule to files; unlike directories, an equal
// name never recurses — it compares content hashes directly.
func (w *walker) mergeFiles(relDir string, fsNames []string, storedFiles []vxmodel.FileRef) error {
	i, j := 0, 0
	for i < len(fsNames) || j < len(storedFiles) {
		switch {
		case j >= len(storedFiles) || (i < len(fsNames) && fsNames[i] < storedFiles[j].Name):
			if err := w.handleAdded(joinRel(relDir, fsNames[i]), EntryFile, digest.Zero); err != nil {
				return err
			}
			i++
		case i >= len(fsNames) || fsNames[i] > storedFiles[j].Name:
			if err := w.handleDeleted(joinRel(relDir, storedFiles[j].Name), EntryFile, storedFiles[j].Blob.ContentHash); err != nil {
				return err
			}
			j++
		default:
			path := joinRel(relDir, fsNames[i])
			liveHash, _, hashErr := digest.ComputeFile(filepath.Join(w.root, path))
			if hashErr != nil {
				return hashErr
			}
			if liveHash != storedFiles[j].Blob.ContentHash {
				if err := w.handleModified(path, storedFiles[j].Blob.ContentHash); err != nil {
					return err
				}
			}
			i++
			j++
		}
	}
	return nil
}

// handleAdded processes an entry present on disk but not in the stored
// tree. In Status mode it is recorded; in Checkout mode the stored tree is
// authoritative, so the entry is removed from the filesystem.
func (w *walker) handleAdded(path string, et EntryType, _ digest.Digest) error {
	if w.mode == modeStatus {
		w.changes = append(w.changes, Change{Kind: Added, Path: path, EntryType: et})
		return nil
	}

	abs := filepath.Join(w.root, path)
	if et == EntryFolder {
		return os.RemoveAll(abs)
	}
	return os.Remove(abs)
}

// handleDeleted processes an entry present in the stored tree but not on
// disk. In Status mode it is recorded; in Checkout mode it is materialized
// back onto the filesystem unconditionally — the stored side running ahead
// entirely needs no hash check.
func (w *walker) handleDeleted(path string, et EntryType, storedHash digest.Digest) error {
	if w.mode == modeStatus {
		w.changes = append(w.changes, Change{Kind: Deleted, Path: path, EntryType: et, ContentHash: storedHash})
		return nil
	}

	abs := filepath.Join(w.root, path)
	if et == EntryFolder {
		tree, err := w.engine.store.GetTree(storedHash)
		if err != nil {
			return err
		}
		return w.materialize(tree, abs)
	}
	return w.engine.store.GetFile(storedHash, abs)
}

// handleModified processes a file present on both sides with differing
// content. In Status mode it is recorded; in Checkout mode the stored
// bytes overwrite the file on disk.
func (w *walker) handleModified(path string, storedHash digest.Digest) error {
	if w.mode == modeStatus {
		w.changes = append(w.changes, Change{Kind: Modified, Path: path, EntryType: EntryFile, ContentHash: storedHash})
		return nil
	}
	return w.engine.store.GetFile(storedHash, filepath.Join(w.root, path))
}

// materialize unconditionally writes an entire stored tree onto disk at
// dir, used when a directory exists only in the store (the filesystem
// side has nothing to compare against, so no hash check is meaningful).
func (w *walker) materialize(tree *vxmodel.Tree, dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("snapshot: creating %s: %w", dir, err)
	}
	for _, folder := range tree.Folders {
		childTree, err := w.engine.store.GetTree(folder.Hash)
		if err != nil {
			return err
		}
		if err := w.materialize(childTree, filepath.Join(dir, folder.Name)); err != nil {
			return err
		}
	}
	for _, file := range tree.Files {
		if err := w.engine.store.GetFile(file.Blob.ContentHash, filepath.Join(dir, file.Name)); err != nil {
			return err
		}
	}
	return nil
}
