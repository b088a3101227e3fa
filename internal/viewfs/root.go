package viewfs

import (
	"fmt"
	"log/slog"

	"github.com/frameloop/videofs/internal/cache"
	"github.com/frameloop/videofs/internal/nodes"
)

// BuildRootTree creates by-frame under root and, for every frame index in
// [1, frameCount), a frame-N directory holding one view directory per
// builder. Frame 0 is intentionally skipped: some containers mis-seek when
// asked for index 0.
func BuildRootTree(store *nodes.Store, path string, frameCount int, builders []Builder, images *cache.ImageCache, logger *slog.Logger) {
	byFrame := store.CreateAndInsertDirectory("by-frame", nodes.RootInode)

	for frame := 1; frame < frameCount; frame++ {
		frameDir := store.CreateAndInsertDirectory(fmt.Sprintf("frame-%d", frame), byFrame)
		for _, b := range builders {
			NewViewDirectory(store, frameDir, path, frame, b, images, logger)
		}
	}
}
