// Package fs exposes a nodes.Store through the kernel-facing operation
// surface of github.com/jacobsa/fuse, via fuseutil.FileSystem.
package fs

import (
	"context"
	"sync"
	"syscall"
	"time"

	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/fuse/fuseutil"
	"github.com/jacobsa/timeutil"

	"github.com/frameloop/videofs/internal/nodes"
)

// VideoFS implements fuseutil.FileSystem over a nodes.Store. Operations this
// filesystem doesn't support (mkdir, create, rmdir, unlink, rename, symlink,
// xattrs, fallocate) fall through to fuseutil.NotImplementedFileSystem's
// ENOSYS replies; the tree's shape is never mutated from the host side.
type VideoFS struct {
	fuseutil.NotImplementedFileSystem

	store *nodes.Store
	clock timeutil.Clock

	mu         sync.Mutex
	nextHandle fuseops.HandleID
}

// New builds a VideoFS backed by store, whose root tree has already been
// constructed (see internal/viewfs).
func New(store *nodes.Store, clock timeutil.Clock) *VideoFS {
	return &VideoFS{store: store, clock: clock}
}

// NewServer wraps a VideoFS as the fuse.Server fuse.Mount expects.
func NewServer(store *nodes.Store, clock timeutil.Clock) fuse.Server {
	return fuseutil.NewFileSystemServer(New(store, clock))
}

func (fs *VideoFS) newHandle() fuseops.HandleID {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.nextHandle++
	return fs.nextHandle
}

const attributesTTL = 1 * time.Second

func (fs *VideoFS) expiration() time.Time {
	return fs.clock.Now().Add(attributesTTL)
}

// StatFS reports nothing of interest; all sizes are zero.
func (fs *VideoFS) StatFS(ctx context.Context, op *fuseops.StatFSOp) error {
	return nil
}

// LookUpInode resolves (parent, name) via the store, materializing parent's
// children if necessary. A hit on an unlisted file promotes it to listed.
func (fs *VideoFS) LookUpInode(ctx context.Context, op *fuseops.LookUpInodeOp) error {
	kind, inode, ok := fs.store.LookupChild(op.Name, op.Parent)
	if !ok {
		return fuse.ENOENT
	}

	attrs, ok := fs.store.Attributes(inode)
	if !ok {
		return fuse.ENOENT
	}

	op.Entry.Child = inode
	op.Entry.Attributes = attrs
	op.Entry.AttributesExpiration = fs.expiration()
	op.Entry.EntryExpiration = fs.expiration()

	if kind == nodes.NodeFile {
		fs.store.PromoteListed(inode)
	}
	return nil
}

// GetInodeAttributes returns the current attribute record for op.Inode. File
// sizes are computed fresh so they track the current producer output.
func (fs *VideoFS) GetInodeAttributes(ctx context.Context, op *fuseops.GetInodeAttributesOp) error {
	attrs, ok := fs.store.Attributes(op.Inode)
	if !ok {
		return fuse.ENOENT
	}
	op.Attributes = attrs
	op.AttributesExpiration = fs.expiration()
	return nil
}

// SetInodeAttributes honors no field: it accepts the request silently for a
// file inode and replies with the file's current attributes. A non-file inode
// is an internal error.
func (fs *VideoFS) SetInodeAttributes(ctx context.Context, op *fuseops.SetInodeAttributesOp) error {
	kind, _, _ := fs.store.GetNode(op.Inode)
	if kind != nodes.NodeFile {
		return fuse.EIO
	}

	attrs, ok := fs.store.Attributes(op.Inode)
	if !ok {
		return fuse.EIO
	}
	op.Attributes = attrs
	op.AttributesExpiration = fs.expiration()
	return nil
}

// OpenDir allows opening any directory inode, minting a fresh handle.
func (fs *VideoFS) OpenDir(ctx context.Context, op *fuseops.OpenDirOp) error {
	kind, _, _ := fs.store.GetNode(op.Inode)
	if kind != nodes.NodeDirectory {
		return fuse.ENOENT
	}
	op.Handle = fs.newHandle()
	return nil
}

// ReadDir assembles "." and ".." (both reported under the directory's own
// inode; callers walking upward via ".." are on their own) followed by every
// child that is a directory or a listed file, in child-list order, starting
// at op.Offset.
func (fs *VideoFS) ReadDir(ctx context.Context, op *fuseops.ReadDirOp) error {
	kind, _, _ := fs.store.GetNode(op.Inode)
	if kind != nodes.NodeDirectory {
		return fuse.ENOENT
	}

	children := fs.store.ListChildren(op.Inode)

	entries := make([]fuseutil.Dirent, 0, len(children)+2)
	entries = append(entries,
		fuseutil.Dirent{Inode: op.Inode, Name: ".", Type: fuseutil.DT_Directory},
		fuseutil.Dirent{Inode: op.Inode, Name: "..", Type: fuseutil.DT_Directory},
	)

	for _, childID := range children {
		childKind, dir, file := fs.store.GetNode(childID)
		switch childKind {
		case nodes.NodeDirectory:
			entries = append(entries, fuseutil.Dirent{Inode: childID, Name: dir.Name, Type: fuseutil.DT_Directory})
		case nodes.NodeFile:
			if file.Entry.Listed {
				entries = append(entries, fuseutil.Dirent{Inode: childID, Name: file.Entry.Name, Type: fuseutil.DT_File})
			}
		}
	}

	if int(op.Offset) > len(entries) {
		return fuse.EIO
	}
	entries = entries[op.Offset:]

	for i := range entries {
		entries[i].Offset = op.Offset + fuseops.DirOffset(i) + 1
		n := fuseutil.WriteDirent(op.Dst[op.BytesRead:], entries[i])
		if n == 0 {
			break
		}
		op.BytesRead += n
	}
	return nil
}

// ReleaseDirHandle is a no-op: directory handles carry no state.
func (fs *VideoFS) ReleaseDirHandle(ctx context.Context, op *fuseops.ReleaseDirHandleOp) error {
	return nil
}

// OpenFile allows opening any file inode, minting a fresh handle. Promotion
// to listed happens on lookup/read, not open.
func (fs *VideoFS) OpenFile(ctx context.Context, op *fuseops.OpenFileOp) error {
	kind, _, _ := fs.store.GetNode(op.Inode)
	if kind != nodes.NodeFile {
		return fuse.ENOENT
	}
	op.Handle = fs.newHandle()
	return nil
}

// ReadFile serves a slice of the file entry's current producer output and
// promotes the entry to listed.
func (fs *VideoFS) ReadFile(ctx context.Context, op *fuseops.ReadFileOp) error {
	kind, _, file := fs.store.GetNode(op.Inode)
	if kind != nodes.NodeFile {
		return fuse.ENOENT
	}

	data := file.Entry.GetData()
	fs.store.PromoteListed(op.Inode)

	if op.Offset >= int64(len(data)) {
		return nil
	}
	op.BytesRead = copy(op.Dst, data[op.Offset:])
	return nil
}

// WriteFile composes the incoming bytes into the entry's current contents: a
// write at offset 0 replaces the contents outright; any other offset
// zero-extends the current bytes as needed and splices the payload in. The
// composed buffer goes through Entry.SetData, so a rejected write (generated
// file, bad UTF-8, config parse failure) persists nothing and surfaces EPERM.
func (fs *VideoFS) WriteFile(ctx context.Context, op *fuseops.WriteFileOp) error {
	kind, _, file := fs.store.GetNode(op.Inode)
	if kind != nodes.NodeFile {
		return fuse.EIO
	}

	var composed []byte
	if op.Offset == 0 {
		composed = append([]byte(nil), op.Data...)
	} else {
		composed = file.Entry.GetData()
		need := int(op.Offset) + len(op.Data)
		if len(composed) < need {
			composed = append(composed, make([]byte, need-len(composed))...)
		}
		copy(composed[op.Offset:], op.Data)
	}

	if err := fs.store.WriteFile(op.Inode, composed); err != nil {
		return syscall.EPERM
	}
	return nil
}

// FlushFile is a no-op; writes take effect synchronously in WriteFile.
func (fs *VideoFS) FlushFile(ctx context.Context, op *fuseops.FlushFileOp) error {
	return nil
}

// ReleaseFileHandle is a no-op: file handles carry no state.
func (fs *VideoFS) ReleaseFileHandle(ctx context.Context, op *fuseops.ReleaseFileHandleOp) error {
	return nil
}
