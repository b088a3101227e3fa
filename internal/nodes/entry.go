package nodes

import (
	"fmt"
	"unicode/utf8"
)

// OnWrite is invoked with the decoded text of a write to a buffer-backed
// Entry. Returning an error rejects the write and leaves the buffer
// unchanged.
type OnWrite func(text string) error

// Thunk produces a file's current contents. It is called fresh on every
// read; it may observe mutable state such as a view's shared parameter cell.
type Thunk func() []byte

// Entry is a virtual file: a name, exactly one of {buffer, thunk} as its
// data source, mode flags, and an optional write callback.
type Entry struct {
	Name string

	// Exactly one of these is set.
	buffer []byte
	thunk  Thunk

	Listed     bool
	Executable bool
	Writable   bool

	onWrite OnWrite
}

// NewThunkEntry builds a thunk-backed entry: implicitly not writable, no
// on-write callback.
func NewThunkEntry(name string, thunk Thunk, listed, executable bool) *Entry {
	return &Entry{
		Name:       name,
		thunk:      thunk,
		Listed:     listed,
		Executable: executable,
	}
}

// NewBufferEntry builds a buffer-backed entry.
func NewBufferEntry(name string, initial []byte, listed, executable, writable bool, onWrite OnWrite) *Entry {
	buf := make([]byte, len(initial))
	copy(buf, initial)
	return &Entry{
		Name:       name,
		buffer:     buf,
		Listed:     listed,
		Executable: executable,
		Writable:   writable,
		onWrite:    onWrite,
	}
}

// GetData returns the entry's current contents: the thunk's output (called
// fresh) or a copy of the buffer.
func (e *Entry) GetData() []byte {
	if e.thunk != nil {
		return e.thunk()
	}
	out := make([]byte, len(e.buffer))
	copy(out, e.buffer)
	return out
}

// Size reports the length of the entry's current producer output, so that
// a file's reported size always matches what a read of it returns.
func (e *Entry) Size() int {
	if e.thunk != nil {
		return len(e.thunk())
	}
	return len(e.buffer)
}

// SetData interprets data as UTF-8 text and attempts to write it to the
// entry. Thunk-backed and non-writable entries always fail. A non-nil
// on-write callback is given the first veto; its error (if any) is returned
// unmodified and the buffer is left unchanged.
func (e *Entry) SetData(data []byte) error {
	if e.thunk != nil || !e.Writable {
		return fmt.Errorf("not writable / generated")
	}
	if !utf8.Valid(data) {
		return fmt.Errorf("invalid UTF-8 in write")
	}
	text := string(data)

	if e.onWrite != nil {
		if err := e.onWrite(text); err != nil {
			return err
		}
	}

	e.buffer = append([]byte(nil), data...)
	return nil
}
