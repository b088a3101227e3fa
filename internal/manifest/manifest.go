// Package manifest builds the manifest.csv blob every view directory
// exposes: a fixed two-column header followed by one record per image file,
// in insertion order.
package manifest

import (
	"bytes"
	"encoding/csv"
)

// Builder accumulates (format, location) rows in insertion order.
type Builder struct {
	rows [][2]string
}

// NewBuilder returns an empty manifest builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add records one image file belonging to the directory this manifest
// describes.
func (b *Builder) Add(imageType, location string) {
	b.rows = append(b.rows, [2]string{imageType, location})
}

// Bytes renders the manifest as CSV with header "image-type,location",
// using standard CSV quoting.
func (b *Builder) Bytes() []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"image-type", "location"})
	for _, row := range b.rows {
		_ = w.Write(row[:])
	}
	w.Flush()
	return buf.Bytes()
}
