package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilder_HeaderOnlyWhenEmpty(t *testing.T) {
	b := NewBuilder()
	assert.Equal(t, "image-type,location\n", string(b.Bytes()))
}

func TestBuilder_RowsInInsertionOrder(t *testing.T) {
	b := NewBuilder()
	b.Add("jpg", "frame-1.jpg")
	b.Add("png", "frame-1.png")

	want := "image-type,location\njpg,frame-1.jpg\npng,frame-1.png\n"
	assert.Equal(t, want, string(b.Bytes()))
}
