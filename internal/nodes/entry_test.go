package nodes

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRejected = errors.New("rejected")

func TestThunkEntry_GetData(t *testing.T) {
	calls := 0
	e := NewThunkEntry("f.txt", func() []byte {
		calls++
		return []byte("hello")
	}, false, false)

	assert.Equal(t, []byte("hello"), e.GetData())
	assert.Equal(t, []byte("hello"), e.GetData())
	assert.Equal(t, 2, calls, "thunk should be called fresh on every read")
}

func TestThunkEntry_SetDataFails(t *testing.T) {
	e := NewThunkEntry("f.txt", func() []byte { return []byte("x") }, false, false)

	err := e.SetData([]byte("new"))

	assert.Error(t, err)
	assert.Equal(t, []byte("x"), e.GetData(), "thunk output must be unaffected by a rejected write")
}

func TestBufferEntry_SetDataFailsWhenNotWritable(t *testing.T) {
	e := NewBufferEntry("manifest.csv", []byte("image-type,location\n"), true, false, false, nil)

	err := e.SetData([]byte("tampered"))

	assert.Error(t, err)
	assert.Equal(t, []byte("image-type,location\n"), e.GetData())
}

func TestBufferEntry_SetDataReplacesBuffer(t *testing.T) {
	e := NewBufferEntry("config.yml", []byte("a: 1\n"), true, false, true, nil)

	require.NoError(t, e.SetData([]byte("a: 2\n")))

	assert.Equal(t, []byte("a: 2\n"), e.GetData())
}

func TestBufferEntry_SetDataRejectsNonUTF8(t *testing.T) {
	e := NewBufferEntry("config.yml", []byte("a: 1\n"), true, false, true, nil)

	err := e.SetData([]byte{0xff, 0xfe, 0xfd})

	assert.Error(t, err)
	assert.Equal(t, []byte("a: 1\n"), e.GetData())
}

func TestBufferEntry_OnWriteRejectionLeavesBufferUnchanged(t *testing.T) {
	e := NewBufferEntry("config.yml", []byte("a: 1\n"), true, false, true, func(text string) error {
		return errRejected
	})

	err := e.SetData([]byte("a: 2\n"))

	assert.ErrorIs(t, err, errRejected)
	assert.Equal(t, []byte("a: 1\n"), e.GetData())
}

func TestBufferEntry_OnWriteAcceptanceUpdatesBuffer(t *testing.T) {
	var seen string
	e := NewBufferEntry("config.yml", []byte("a: 1\n"), true, false, true, func(text string) error {
		seen = text
		return nil
	})

	require.NoError(t, e.SetData([]byte("a: 2\n")))

	assert.Equal(t, "a: 2\n", seen)
	assert.Equal(t, []byte("a: 2\n"), e.GetData())
}

func TestEntry_SizeMatchesDataLength(t *testing.T) {
	e := NewBufferEntry("manifest.csv", []byte("image-type,location\n"), true, false, false, nil)
	assert.Equal(t, len(e.GetData()), e.Size())

	thunk := NewThunkEntry("frame-1.jpg", func() []byte { return make([]byte, 42) }, false, false)
	assert.Equal(t, 42, thunk.Size())
}
