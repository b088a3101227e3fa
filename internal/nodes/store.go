// Package nodes implements the inode-addressed node store: a directory/file
// graph keyed by inode, with file children of a directory materialized
// lazily on first listing via a per-directory generator.
package nodes

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/jacobsa/fuse/fuseops"
)

// RootInode is the reserved inode of the root directory.
const RootInode = fuseops.RootInodeID

// ChildGenerator produces a directory's file children the first time the
// directory is listed. It is discarded (logically consumed) once it has run.
type ChildGenerator func(dirInode fuseops.InodeID) []*Entry

// Directory is a directory node: display name, an optional child-generator,
// the unmaterialized flag, and the ordered list of child inodes (both
// directories and files).
type Directory struct {
	Inode    fuseops.InodeID
	Parent   fuseops.InodeID
	Name     string
	Children []fuseops.InodeID // insertion order

	generator      ChildGenerator
	unmaterialized bool
}

// File wraps an Entry with its inode and parent directory inode.
type File struct {
	Inode  fuseops.InodeID
	Parent fuseops.InodeID
	Entry  *Entry
}

// Store is the inode-keyed graph of directories and files. All access is
// guarded by mu; the fuse server dispatches each op on its own goroutine.
type Store struct {
	mu sync.Mutex

	uid uint32
	gid uint32

	next        fuseops.InodeID
	directories map[fuseops.InodeID]*Directory
	files       map[fuseops.InodeID]*File
}

// NewStore creates a Store with only the root directory present, owned by
// uid/gid (the mounting process's effective ids).
func NewStore(uid, gid uint32) *Store {
	s := &Store{
		uid:         uid,
		gid:         gid,
		next:        RootInode + 1,
		directories: make(map[fuseops.InodeID]*Directory),
		files:       make(map[fuseops.InodeID]*File),
	}
	s.directories[RootInode] = &Directory{
		Inode:  RootInode,
		Parent: RootInode,
		Name:   "",
	}
	return s
}

// GetRoot returns the root directory. Total: the root always exists.
func (s *Store) GetRoot() *Directory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.directories[RootInode]
}

// NewInode increments and returns the monotonic inode counter.
func (s *Store) NewInode() fuseops.InodeID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.newInodeLocked()
}

func (s *Store) newInodeLocked() fuseops.InodeID {
	id := s.next
	s.next++
	return id
}

// InsertDirectory inserts dir and appends its inode to parent's child list.
// Panics if parent does not exist.
func (s *Store) InsertDirectory(dir *Directory, parent fuseops.InodeID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertDirectoryLocked(dir, parent)
}

func (s *Store) insertDirectoryLocked(dir *Directory, parent fuseops.InodeID) {
	p, ok := s.directories[parent]
	if !ok {
		panic(fmt.Sprintf("nodes: unknown parent directory inode %d", parent))
	}
	dir.Parent = parent
	s.directories[dir.Inode] = dir
	p.Children = append(p.Children, dir.Inode)
}

// CreateAndInsertDirectory allocates an inode, builds an empty,
// already-materialized directory (no generator), and inserts it under
// parent.
func (s *Store) CreateAndInsertDirectory(name string, parent fuseops.InodeID) fuseops.InodeID {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newInodeLocked()
	dir := &Directory{
		Inode: id,
		Name:  name,
	}
	s.insertDirectoryLocked(dir, parent)
	return id
}

// CreateAndInsertGeneratedDirectory is like CreateAndInsertDirectory but
// leaves the directory unmaterialized, to be populated lazily by gen on
// first listing.
func (s *Store) CreateAndInsertGeneratedDirectory(name string, parent fuseops.InodeID, gen ChildGenerator) fuseops.InodeID {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newInodeLocked()
	dir := &Directory{
		Inode:          id,
		Name:           name,
		generator:      gen,
		unmaterialized: true,
	}
	s.insertDirectoryLocked(dir, parent)
	return id
}

// CreateAndInsertFile allocates an inode, wraps entry as a File node, and
// appends it to dir's child list.
func (s *Store) CreateAndInsertFile(entry *Entry, dir fuseops.InodeID) fuseops.InodeID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createAndInsertFileLocked(entry, dir)
}

func (s *Store) createAndInsertFileLocked(entry *Entry, dir fuseops.InodeID) fuseops.InodeID {
	d, ok := s.directories[dir]
	if !ok {
		panic(fmt.Sprintf("nodes: unknown parent directory inode %d", dir))
	}

	id := s.newInodeLocked()
	s.files[id] = &File{Inode: id, Parent: dir, Entry: entry}
	d.Children = append(d.Children, id)
	return id
}

// GetFile returns the file node for inode, if any.
func (s *Store) GetFile(inode fuseops.InodeID) (*File, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[inode]
	return f, ok
}

// GetDirectory returns the directory node for inode, if any.
func (s *Store) GetDirectory(inode fuseops.InodeID) (*Directory, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.directories[inode]
	return d, ok
}

// NodeKind tags the result of GetNode.
type NodeKind int

const (
	NodeNone NodeKind = iota
	NodeDirectory
	NodeFile
)

// GetNode resolves inode to whichever kind of node it names.
func (s *Store) GetNode(inode fuseops.InodeID) (NodeKind, *Directory, *File) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.directories[inode]; ok {
		return NodeDirectory, d, nil
	}
	if f, ok := s.files[inode]; ok {
		return NodeFile, nil, f
	}
	return NodeNone, nil, nil
}

// materializeLocked runs parent's child-generator exactly once, inserting
// each produced Entry via createAndInsertFileLocked, then clears the
// unmaterialized flag. REQUIRES: s.mu held.
func (s *Store) materializeLocked(parent *Directory) {
	if !parent.unmaterialized {
		return
	}
	gen := parent.generator
	parent.generator = nil
	parent.unmaterialized = false
	if gen == nil {
		return
	}

	for _, e := range gen(parent.Inode) {
		s.createAndInsertFileLocked(e, parent.Inode)
	}
}

// LookupChild resolves name within parent by linear scan over the parent's
// materialized children, triggering materialization first.
func (s *Store) LookupChild(name string, parent fuseops.InodeID) (NodeKind, fuseops.InodeID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir, ok := s.directories[parent]
	if !ok {
		return NodeNone, 0, false
	}
	s.materializeLocked(dir)

	for _, childID := range dir.Children {
		if d, ok := s.directories[childID]; ok && d.Name == name {
			return NodeDirectory, childID, true
		}
		if f, ok := s.files[childID]; ok && f.Entry.Name == name {
			return NodeFile, childID, true
		}
	}
	return NodeNone, 0, false
}

// ListChildren materializes parent if necessary and returns its resolved
// children in insertion order.
func (s *Store) ListChildren(parent fuseops.InodeID) []fuseops.InodeID {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir, ok := s.directories[parent]
	if !ok {
		return nil
	}
	s.materializeLocked(dir)

	out := make([]fuseops.InodeID, len(dir.Children))
	copy(out, dir.Children)
	return out
}

// PromoteListed marks a file entry as listed (visible in readdir). Image
// entries start unlisted and are promoted the first time they are looked up
// or read.
func (s *Store) PromoteListed(inode fuseops.InodeID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.files[inode]; ok {
		f.Entry.Listed = true
	}
}

// WriteFile applies data to the file at inode via Entry.SetData.
func (s *Store) WriteFile(inode fuseops.InodeID, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[inode]
	if !ok {
		return fmt.Errorf("nodes: unknown file inode %d", inode)
	}
	return f.Entry.SetData(data)
}

// Attributes computes the attribute record for inode. Directory attributes
// are effectively static; file attributes are computed fresh so Size always
// reflects the current producer output.
func (s *Store) Attributes(inode fuseops.InodeID) (fuseops.InodeAttributes, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.directories[inode]; ok {
		return fuseops.InodeAttributes{
			Nlink:  1,
			Mode:   os.ModeDir | 0o550,
			Uid:    s.uid,
			Gid:    s.gid,
			Atime:  epoch,
			Mtime:  epoch,
			Ctime:  epoch,
			Crtime: epoch,
		}, true
	}
	if f, ok := s.files[inode]; ok {
		mode := os.FileMode(0o440)
		if f.Entry.Writable {
			mode |= 0o220
		}
		if f.Entry.Executable {
			mode |= 0o110
		}
		return fuseops.InodeAttributes{
			Size:   uint64(f.Entry.Size()),
			Nlink:  1,
			Mode:   mode,
			Uid:    s.uid,
			Gid:    s.gid,
			Atime:  epoch,
			Mtime:  epoch,
			Ctime:  epoch,
			Crtime: epoch,
		}, true
	}
	return fuseops.InodeAttributes{}, false
}

var epoch = time.Unix(0, 0).UTC()
