// Package vxmodel defines the data model shared by every core store —
// blobs, tree nodes, commits, and branches — along with the canonical
// binary encoding used for their KV values. Field order and width are
// fixed: a header of fixed-width integers followed by a tail of
// length-prefixed variable-width fields.
package vxmodel

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/sbalabanov/vx/internal/digest"
)

// Blob is immutable file content addressed by its digest.
type Blob struct {
	ContentHash digest.Digest
	Size        uint64
}

// FolderRef points to a child tree node.
type FolderRef struct {
	Name string
	Hash digest.Digest
}

// FileRef points to a blob.
type FileRef struct {
	Name string
	Blob Blob
}

// Tree is an immutable directory snapshot. Folders and Files are kept
// strictly ascending by Name and contain no duplicates; Hash is computed
// from their content, not stored independently of it.
type Tree struct {
	Hash        digest.Digest
	Folders     []FolderRef
	Files       []FileRef
	Size        uint64
	FileCount   uint64
	FolderCount uint64
}

// CommitID identifies a commit slot. Seq 0 is the sentinel commit created
// when the branch is made; it is never user-visible and cannot be amended.
type CommitID struct {
	Branch uint64
	Seq    uint64
}

// Commit is one version of the content recorded at a CommitID. Ver is the
// branch version at which this commit became current; amendment and
// rebuild append new versions at the same CommitID rather than mutating
// one in place.
type Commit struct {
	ID       CommitID
	Ver      uint64
	Hash     digest.Digest
	TreeHash digest.Digest
	Message  string
}

// Branch is a named line of commits. Parent == 0 identifies the
// foundational branch (by convention named "main"); a derived branch
// records the parent's id and the sequence it branched from.
type Branch struct {
	ID        uint64
	Name      string
	HeadSeq   uint64
	Ver       uint64
	Parent    uint64
	ParentSeq uint64
}

// CurrentCommitSpec is the process-wide pointer to what the working
// directory reflects. RebuildVer > 0 means the branch is mid-rebuild.
type CurrentCommitSpec struct {
	CommitID   CommitID
	Ver        uint64
	RebuildSeq uint64
	RebuildVer uint64
}

// ComputeHash derives a tree node's content hash from its sorted folder
// and file references: the concatenation of (name bytes || hash bytes) for
// each folder in order, then the same for each file. Aggregate size/count
// fields play no part in the hash.
func (t *Tree) ComputeHash() digest.Digest {
	var buf bytes.Buffer
	for _, f := range t.Folders {
		buf.WriteString(f.Name)
		buf.Write(f.Hash.Bytes())
	}
	for _, f := range t.Files {
		buf.WriteString(f.Name)
		buf.Write(f.Blob.ContentHash.Bytes())
	}
	return digest.ComputeBytes(buf.Bytes())
}

// ComputeHash derives a commit's content hash from its message bytes
// followed by its tree hash bytes.
func (c *Commit) ComputeHash() digest.Digest {
	var buf bytes.Buffer
	buf.WriteString(c.Message)
	buf.Write(c.TreeHash.Bytes())
	return digest.ComputeBytes(buf.Bytes())
}

// CommitKey returns the 16-byte composite commit-store key:
// branch_id (big-endian u64) || seq (big-endian u64).
func CommitKey(id CommitID) []byte {
	key := make([]byte, 16)
	binary.BigEndian.PutUint64(key[0:8], id.Branch)
	binary.BigEndian.PutUint64(key[8:16], id.Seq)
	return key
}

// BranchKey returns the 8-byte big-endian branch-store key for id.
func BranchKey(id uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, id)
	return key
}

// TreeKey returns the 16-byte big-endian tree-store key for a digest.
func TreeKey(d digest.Digest) []byte {
	return d.Bytes()
}

func putString(buf *bytes.Buffer, s string) {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(s)))
	buf.Write(lenBuf[:])
	buf.WriteString(s)
}

func readString(r *bytes.Reader) (string, error) {
	var lenBuf [4]byte
	if _, err := r.Read(lenBuf[:]); err != nil {
		return "", fmt.Errorf("vxmodel: reading string length: %w", err)
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	out := make([]byte, n)
	if _, err := r.Read(out); err != nil {
		return "", fmt.Errorf("vxmodel: reading string body: %w", err)
	}
	return string(out), nil
}

func readDigest(r *bytes.Reader) (digest.Digest, error) {
	var raw [digest.Size]byte
	if _, err := r.Read(raw[:]); err != nil {
		return digest.Zero, fmt.Errorf("vxmodel: reading digest: %w", err)
	}
	return digest.Digest(raw), nil
}

func readUint64(r *bytes.Reader) (uint64, error) {
	var raw [8]byte
	if _, err := r.Read(raw[:]); err != nil {
		return 0, fmt.Errorf("vxmodel: reading uint64: %w", err)
	}
	return binary.BigEndian.Uint64(raw[:]), nil
}

// EncodeTree serializes t into its canonical binary form.
func EncodeTree(t *Tree) []byte {
	var buf bytes.Buffer
	buf.Write(t.Hash.Bytes())

	var counts [24]byte
	binary.BigEndian.PutUint64(counts[0:8], t.Size)
	binary.BigEndian.PutUint64(counts[8:16], t.FileCount)
	binary.BigEndian.PutUint64(counts[16:24], t.FolderCount)
	buf.Write(counts[:])

	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(t.Folders)))
	buf.Write(n[:])
	for _, f := range t.Folders {
		putString(&buf, f.Name)
		buf.Write(f.Hash.Bytes())
	}

	binary.BigEndian.PutUint32(n[:], uint32(len(t.Files)))
	buf.Write(n[:])
	for _, f := range t.Files {
		putString(&buf, f.Name)
		buf.Write(f.Blob.ContentHash.Bytes())
		var size [8]byte
		binary.BigEndian.PutUint64(size[:], f.Blob.Size)
		buf.Write(size[:])
	}

	return buf.Bytes()
}

// DecodeTree is the inverse of EncodeTree.
func DecodeTree(data []byte) (*Tree, error) {
	r := bytes.NewReader(data)

	hash, err := readDigest(r)
	if err != nil {
		return nil, err
	}

	var counts [24]byte
	if _, err := r.Read(counts[:]); err != nil {
		return nil, fmt.Errorf("vxmodel: reading tree counts: %w", err)
	}
	t := &Tree{
		Hash:        hash,
		Size:        binary.BigEndian.Uint64(counts[0:8]),
		FileCount:   binary.BigEndian.Uint64(counts[8:16]),
		FolderCount: binary.BigEndian.Uint64(counts[16:24]),
	}

	var n [4]byte
	if _, err := r.Read(n[:]); err != nil {
		return nil, fmt.Errorf("vxmodel: reading folder count: %w", err)
	}
	folderN := binary.BigEndian.Uint32(n[:])
	t.Folders = make([]FolderRef, folderN)
	for i := range t.Folders {
		name, err := readString(r)
		if err != nil {
			return nil, err
		}
		h, err := readDigest(r)
		if err != nil {
			return nil, err
		}
		t.Folders[i] = FolderRef{Name: name, Hash: h}
	}

	if _, err := r.Read(n[:]); err != nil {
		return nil, fmt.Errorf("vxmodel: reading file count: %w", err)
	}
	fileN := binary.BigEndian.Uint32(n[:])
	t.Files = make([]FileRef, fileN)
	for i := range t.Files {
		name, err := readString(r)
		if err != nil {
			return nil, err
		}
		contentHash, err := readDigest(r)
		if err != nil {
			return nil, err
		}
		size, err := readUint64(r)
		if err != nil {
			return nil, err
		}
		t.Files[i] = FileRef{Name: name, Blob: Blob{ContentHash: contentHash, Size: size}}
	}

	return t, nil
}

// EncodeCommit serializes c into its canonical binary form.
func EncodeCommit(c *Commit) []byte {
	var buf bytes.Buffer
	var fixed [40]byte
	binary.BigEndian.PutUint64(fixed[0:8], c.ID.Branch)
	binary.BigEndian.PutUint64(fixed[8:16], c.ID.Seq)
	binary.BigEndian.PutUint64(fixed[16:24], c.Ver)
	buf.Write(fixed[:24])
	buf.Write(c.Hash.Bytes())
	buf.Write(c.TreeHash.Bytes())
	putString(&buf, c.Message)
	return buf.Bytes()
}

// DecodeCommit is the inverse of EncodeCommit.
func DecodeCommit(data []byte) (*Commit, error) {
	r := bytes.NewReader(data)

	var fixed [24]byte
	if _, err := r.Read(fixed[:]); err != nil {
		return nil, fmt.Errorf("vxmodel: reading commit header: %w", err)
	}
	c := &Commit{
		ID: CommitID{
			Branch: binary.BigEndian.Uint64(fixed[0:8]),
			Seq:    binary.BigEndian.Uint64(fixed[8:16]),
		},
		Ver: binary.BigEndian.Uint64(fixed[16:24]),
	}

	hash, err := readDigest(r)
	if err != nil {
		return nil, err
	}
	c.Hash = hash

	treeHash, err := readDigest(r)
	if err != nil {
		return nil, err
	}
	c.TreeHash = treeHash

	msg, err := readString(r)
	if err != nil {
		return nil, err
	}
	c.Message = msg

	return c, nil
}

// EncodeBranch serializes b into its canonical binary form.
func EncodeBranch(b *Branch) []byte {
	var buf bytes.Buffer
	var fixed [40]byte
	binary.BigEndian.PutUint64(fixed[0:8], b.ID)
	binary.BigEndian.PutUint64(fixed[8:16], b.HeadSeq)
	binary.BigEndian.PutUint64(fixed[16:24], b.Ver)
	binary.BigEndian.PutUint64(fixed[24:32], b.Parent)
	binary.BigEndian.PutUint64(fixed[32:40], b.ParentSeq)
	buf.Write(fixed[:])
	putString(&buf, b.Name)
	return buf.Bytes()
}

// DecodeBranch is the inverse of EncodeBranch.
func DecodeBranch(data []byte) (*Branch, error) {
	r := bytes.NewReader(data)

	var fixed [40]byte
	if _, err := r.Read(fixed[:]); err != nil {
		return nil, fmt.Errorf("vxmodel: reading branch header: %w", err)
	}
	b := &Branch{
		ID:        binary.BigEndian.Uint64(fixed[0:8]),
		HeadSeq:   binary.BigEndian.Uint64(fixed[8:16]),
		Ver:       binary.BigEndian.Uint64(fixed[16:24]),
		Parent:    binary.BigEndian.Uint64(fixed[24:32]),
		ParentSeq: binary.BigEndian.Uint64(fixed[32:40]),
	}

	name, err := readString(r)
	if err != nil {
		return nil, err
	}
	b.Name = name

	return b, nil
}

// EncodeCurrentCommitSpec serializes s into its canonical binary form.
func EncodeCurrentCommitSpec(s *CurrentCommitSpec) []byte {
	var buf [40]byte
	binary.BigEndian.PutUint64(buf[0:8], s.CommitID.Branch)
	binary.BigEndian.PutUint64(buf[8:16], s.CommitID.Seq)
	binary.BigEndian.PutUint64(buf[16:24], s.Ver)
	binary.BigEndian.PutUint64(buf[24:32], s.RebuildSeq)
	binary.BigEndian.PutUint64(buf[32:40], s.RebuildVer)
	return buf[:]
}

// DecodeCurrentCommitSpec is the inverse of EncodeCurrentCommitSpec.
func DecodeCurrentCommitSpec(data []byte) (*CurrentCommitSpec, error) {
	if len(data) != 40 {
		return nil, fmt.Errorf("vxmodel: current commit spec has length %d, want 40", len(data))
	}
	return &CurrentCommitSpec{
		CommitID: CommitID{
			Branch: binary.BigEndian.Uint64(data[0:8]),
			Seq:    binary.BigEndian.Uint64(data[8:16]),
		},
		Ver:        binary.BigEndian.Uint64(data[16:24]),
		RebuildSeq: binary.BigEndian.Uint64(data[24:32]),
		RebuildVer: binary.BigEndian.Uint64(data[32:40]),
	}, nil
}
