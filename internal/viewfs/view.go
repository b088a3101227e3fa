// Package viewfs builds the virtual tree: the per-(frame, view) directory
// generator and the by-frame/frame-N skeleton assembled at mount time.
package viewfs

import (
	"fmt"
	"log/slog"

	"github.com/jacobsa/fuse/fuseops"

	"github.com/frameloop/videofs/internal/cache"
	"github.com/frameloop/videofs/internal/codec"
	"github.com/frameloop/videofs/internal/config"
	"github.com/frameloop/videofs/internal/manifest"
	"github.com/frameloop/videofs/internal/nodes"
)

// ImageProducer computes the encoded bytes for one format of one view's
// current frame, given the current parameter snapshot.
type ImageProducer func(path string, frame int, format codec.Format, params config.Parameters) []byte

// Builder describes one registered view (original/greyscale/black-and-white):
// its id (used as the directory name and as part of cache keys), its
// image-producing function, and an optional config parser/default for views
// that accept tuning.
type Builder struct {
	ID       string
	Producer ImageProducer

	// Parser, Serializer, and Defaults are nil/zero for parameterless views.
	Parser     config.Parser
	Serializer config.Serializer
	Defaults   config.Parameters
}

// InitScript is the static helper payload every view directory's
// initialise.sh carries, supplied at build time.
var InitScript = []byte(`#!/bin/sh
# Regenerates every image file in this directory by reading it once.
# Image names come from manifest.csv, since unread images are not listed.
set -e
tail -n +2 manifest.csv | while IFS=, read -r _ location; do
  cat "$location" > /dev/null
done
`)

// NewViewDirectory registers a generated, unmaterialized directory named
// b.ID under parent, wired to build the view's children (images, manifest,
// script, config) the first time it is listed.
func NewViewDirectory(store *nodes.Store, parent fuseops.InodeID, path string, frame int, b Builder, images *cache.ImageCache, logger *slog.Logger) fuseops.InodeID {
	cell := config.NewCell(b.Defaults)

	gen := func(dirInode fuseops.InodeID) []*nodes.Entry {
		var entries []*nodes.Entry
		mb := manifest.NewBuilder()

		for _, format := range codec.Formats {
			format := format
			name := fmt.Sprintf("frame-%d.%s", frame, format.Ext())
			mb.Add(string(format), name)

			thunk := func() []byte {
				params := cell.Get()
				key := cache.ImageKey{
					Path:      path,
					Frame:     frame,
					View:      b.ID,
					ParamsKey: params.Key(),
					Format:    string(format),
				}
				if data, ok := images.Get(key); ok {
					return data
				}
				data := b.Producer(path, frame, format, params)
				if len(data) > 0 {
					images.Put(key, data)
				} else if logger != nil {
					logger.Warn("empty image producer output", "path", path, "frame", frame, "view", b.ID, "format", format)
				}
				return data
			}
			entries = append(entries, nodes.NewThunkEntry(name, thunk, false, false))
		}

		entries = append(entries, nodes.NewBufferEntry("manifest.csv", mb.Bytes(), true, false, false, nil))
		entries = append(entries, nodes.NewBufferEntry("initialise.sh", InitScript, true, true, false, nil))

		var onWrite nodes.OnWrite
		if b.Parser != nil {
			onWrite = func(text string) error {
				params, err := b.Parser(text)
				if err != nil {
					return err
				}
				cell.Set(params)
				return nil
			}
		}
		var initial []byte
		if b.Serializer != nil {
			initial = b.Serializer(b.Defaults)
		}
		entries = append(entries, nodes.NewBufferEntry("config.yml", initial, true, false, true, onWrite))

		return entries
	}

	return store.CreateAndInsertGeneratedDirectory(b.ID, parent, gen)
}
