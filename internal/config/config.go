// Package config implements the per-view typed parameter records and the
// shared, read/write-guarded parameter cell that a view's config.yml write
// path and its sibling image thunks both touch.
package config

import (
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

// Parameters holds the current tuning for one view directory. A
// parameterless view keeps the zero value. Only the black-and-white view
// currently carries a parameter.
type Parameters struct {
	// Threshold is nil for automatic (bimodal-histogram) selection, or an
	// explicit 8-bit binarization threshold in [0, 255].
	Threshold *uint8
}

// blackAndWhiteDoc is the YAML-shaped line-oriented text format for a
// black-and-white config.yml: a single key, threshold, whose value is
// either null or an integer in [0, 255].
type blackAndWhiteDoc struct {
	Threshold *int `yaml:"threshold"`
}

// Parser parses a config.yml payload into Parameters, or returns the parse
// error, which rejects the write; the writer sees EPERM.
type Parser func(text string) (Parameters, error)

// Serializer renders Parameters back into config.yml's text format, seeding
// the file's initial contents.
type Serializer func(p Parameters) []byte

// ParseBlackAndWhite is the parser for the black-and-white view.
func ParseBlackAndWhite(text string) (Parameters, error) {
	var doc blackAndWhiteDoc
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return Parameters{}, fmt.Errorf("parsing config.yml: %w", err)
	}
	if doc.Threshold == nil {
		return Parameters{}, nil
	}
	if *doc.Threshold < 0 || *doc.Threshold > 255 {
		return Parameters{}, fmt.Errorf("threshold %d out of range [0, 255]", *doc.Threshold)
	}
	t := uint8(*doc.Threshold)
	return Parameters{Threshold: &t}, nil
}

// SerializeBlackAndWhite is the inverse of ParseBlackAndWhite, used both to
// seed config.yml's initial bytes and in round-trip tests.
func SerializeBlackAndWhite(p Parameters) []byte {
	var doc blackAndWhiteDoc
	if p.Threshold != nil {
		v := int(*p.Threshold)
		doc.Threshold = &v
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		// yaml.Marshal on a plain struct of *int cannot fail.
		panic(err)
	}
	return out
}

// Cell is the shared, read/write-guarded holder of one view directory's
// current Parameters. Readers (image thunks) take a shared-access snapshot
// copy before calling the codec; writers (config.yml's on-write callback)
// swap the value under exclusive access.
type Cell struct {
	mu     sync.RWMutex
	params Parameters
}

// NewCell creates a Cell holding the given default parameters.
func NewCell(defaults Parameters) *Cell {
	return &Cell{params: defaults}
}

// Get returns a snapshot of the current parameters.
func (c *Cell) Get() Parameters {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.params
}

// Set atomically replaces the current parameters.
func (c *Cell) Set(p Parameters) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params = p
}

// Key returns a stable, comparable representation of p suitable for use as
// (part of) a cache key, since Parameters itself holds a pointer field and
// so is not directly comparable by value in the way a cache key needs.
func (p Parameters) Key() string {
	if p.Threshold == nil {
		return "auto"
	}
	return fmt.Sprintf("t%d", *p.Threshold)
}
