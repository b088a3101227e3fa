package nodes

import (
	"testing"

	"github.com/jacobsa/fuse/fuseops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Store {
	return NewStore(1000, 1000)
}

func TestNewInode_StrictlyMonotone(t *testing.T) {
	s := newTestStore()
	var seen []fuseops.InodeID
	for i := 0; i < 5; i++ {
		seen = append(seen, s.NewInode())
	}
	for i := 1; i < len(seen); i++ {
		assert.Greater(t, seen[i], seen[i-1])
	}
}

func TestListChildren_MaterializesOnceAndIsStable(t *testing.T) {
	s := newTestStore()
	calls := 0
	dir := s.CreateAndInsertGeneratedDirectory("view", RootInode, func(dirInode fuseops.InodeID) []*Entry {
		calls++
		return []*Entry{
			NewThunkEntry("a.jpg", func() []byte { return []byte("a") }, false, false),
			NewThunkEntry("b.jpg", func() []byte { return []byte("b") }, false, false),
		}
	})

	first := s.ListChildren(dir)
	second := s.ListChildren(dir)

	assert.Equal(t, 1, calls, "generator must run at most once per directory")
	assert.Equal(t, first, second, "repeated listings return identical inode sequences")
	assert.Len(t, first, 2)

	d, ok := s.GetDirectory(dir)
	require.True(t, ok)
	assert.False(t, d.unmaterialized)
}

func TestLookupChild_TriggersMaterialization(t *testing.T) {
	s := newTestStore()
	dir := s.CreateAndInsertGeneratedDirectory("view", RootInode, func(fuseops.InodeID) []*Entry {
		return []*Entry{NewThunkEntry("config.yml", func() []byte { return []byte("x") }, true, false)}
	})

	kind, inode, ok := s.LookupChild("config.yml", dir)
	require.True(t, ok)
	assert.Equal(t, NodeFile, kind)
	assert.NotZero(t, inode)

	_, _, ok = s.LookupChild("missing", dir)
	assert.False(t, ok)
}

func TestAttributes_SizeMatchesCurrentProducerOutput(t *testing.T) {
	s := newTestStore()
	data := []byte("hello")
	fileInode := s.CreateAndInsertFile(NewThunkEntry("f", func() []byte { return data }, false, false), RootInode)

	attrs, ok := s.Attributes(fileInode)
	require.True(t, ok)
	assert.EqualValues(t, len(data), attrs.Size)

	data = []byte("a longer string now")
	attrs, ok = s.Attributes(fileInode)
	require.True(t, ok)
	assert.EqualValues(t, len(data), attrs.Size)
}

func TestAttributes_ModeBitsReflectWritableAndExecutable(t *testing.T) {
	s := newTestStore()

	ro := s.CreateAndInsertFile(NewBufferEntry("manifest.csv", nil, true, false, false, nil), RootInode)
	rw := s.CreateAndInsertFile(NewBufferEntry("config.yml", nil, true, false, true, nil), RootInode)
	exe := s.CreateAndInsertFile(NewBufferEntry("initialise.sh", nil, true, true, false, nil), RootInode)

	roAttrs, _ := s.Attributes(ro)
	rwAttrs, _ := s.Attributes(rw)
	exeAttrs, _ := s.Attributes(exe)

	assert.Equal(t, uint32(0o440), uint32(roAttrs.Mode.Perm()))
	assert.Equal(t, uint32(0o660), uint32(rwAttrs.Mode.Perm()))
	assert.Equal(t, uint32(0o550), uint32(exeAttrs.Mode.Perm()))
}

func TestWriteFile_LeavesEntryUnchangedOnError(t *testing.T) {
	s := newTestStore()
	fileInode := s.CreateAndInsertFile(
		NewBufferEntry("config.yml", []byte("threshold: 10\n"), true, false, true, func(text string) error {
			return assert.AnError
		}),
		RootInode,
	)

	err := s.WriteFile(fileInode, []byte("threshold: 20\n"))
	assert.Error(t, err)

	f, ok := s.GetFile(fileInode)
	require.True(t, ok)
	assert.Equal(t, []byte("threshold: 10\n"), f.Entry.GetData())
}

func TestPromoteListed(t *testing.T) {
	s := newTestStore()
	fileInode := s.CreateAndInsertFile(NewThunkEntry("frame-1.jpg", func() []byte { return []byte("x") }, false, false), RootInode)

	f, _ := s.GetFile(fileInode)
	assert.False(t, f.Entry.Listed)

	s.PromoteListed(fileInode)

	f, _ = s.GetFile(fileInode)
	assert.True(t, f.Entry.Listed)
}

func TestInsertDirectory_PanicsOnUnknownParent(t *testing.T) {
	s := newTestStore()
	assert.Panics(t, func() {
		s.CreateAndInsertDirectory("orphan", fuseops.InodeID(99999))
	})
}

func TestGetNode_ResolvesBothKinds(t *testing.T) {
	s := newTestStore()
	dirInode := s.CreateAndInsertDirectory("d", RootInode)
	fileInode := s.CreateAndInsertFile(NewBufferEntry("f", []byte("x"), true, false, false, nil), RootInode)

	kind, d, _ := s.GetNode(dirInode)
	assert.Equal(t, NodeDirectory, kind)
	assert.Equal(t, "d", d.Name)

	kind, _, f := s.GetNode(fileInode)
	assert.Equal(t, NodeFile, kind)
	assert.Equal(t, "f", f.Entry.Name)

	kind, _, _ = s.GetNode(fuseops.InodeID(123456))
	assert.Equal(t, NodeNone, kind)
}
