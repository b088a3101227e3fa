package viewfs

import (
	"image"
	"log/slog"

	"github.com/frameloop/videofs/internal/cache"
	"github.com/frameloop/videofs/internal/codec"
	"github.com/frameloop/videofs/internal/config"
)

// decodeCached decodes (path, frame) through the matrix cache, so repeated
// reads of sibling formats/views for the same frame only pay for one ffmpeg
// invocation.
func decodeCached(codecImpl codec.Codec, matrices *cache.MatrixCache, path string, frame int) (image.Image, error) {
	key := cache.MatrixKey{Path: path, Frame: frame}
	if m, ok := matrices.Get(key); ok {
		return m, nil
	}
	m, err := codecImpl.Decode(path, frame)
	if err != nil {
		return nil, err
	}
	matrices.Put(key, m)
	return m, nil
}

// StandardBuilders returns the three registered views: original, greyscale,
// black-and-white. logger receives warnings for recovered codec failures;
// producers never panic, returning an empty byte string instead so a
// malformed frame can't crash the mount.
func StandardBuilders(codecImpl codec.Codec, matrices *cache.MatrixCache, logger *slog.Logger) []Builder {
	warn := func(path string, frame int, view string, err error) {
		if logger != nil {
			logger.Warn("codec failure recovered", "path", path, "frame", frame, "view", view, "err", err)
		}
	}

	original := Builder{
		ID: "original",
		Producer: func(path string, frame int, format codec.Format, params config.Parameters) []byte {
			m, err := decodeCached(codecImpl, matrices, path, frame)
			if err != nil {
				warn(path, frame, "original", err)
				return nil
			}
			data, err := codecImpl.Encode(m, format)
			if err != nil {
				warn(path, frame, "original", err)
				return nil
			}
			return data
		},
	}

	greyscale := Builder{
		ID: "greyscale",
		Producer: func(path string, frame int, format codec.Format, params config.Parameters) []byte {
			m, err := decodeCached(codecImpl, matrices, path, frame)
			if err != nil {
				warn(path, frame, "greyscale", err)
				return nil
			}
			g, err := codecImpl.ToGreyscale(m)
			if err != nil {
				warn(path, frame, "greyscale", err)
				return nil
			}
			data, err := codecImpl.Encode(g, format)
			if err != nil {
				warn(path, frame, "greyscale", err)
				return nil
			}
			return data
		},
	}

	blackAndWhite := Builder{
		ID: "black-and-white",
		Producer: func(path string, frame int, format codec.Format, params config.Parameters) []byte {
			m, err := decodeCached(codecImpl, matrices, path, frame)
			if err != nil {
				warn(path, frame, "black-and-white", err)
				return nil
			}
			g, err := codecImpl.ToGreyscale(m)
			if err != nil {
				warn(path, frame, "black-and-white", err)
				return nil
			}
			b, err := codecImpl.ToBinary(g, params.Threshold)
			if err != nil {
				warn(path, frame, "black-and-white", err)
				return nil
			}
			data, err := codecImpl.Encode(b, format)
			if err != nil {
				warn(path, frame, "black-and-white", err)
				return nil
			}
			return data
		},
		Parser:     config.ParseBlackAndWhite,
		Serializer: config.SerializeBlackAndWhite,
		Defaults:   config.Parameters{},
	}

	return []Builder{original, greyscale, blackAndWhite}
}
