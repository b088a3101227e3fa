// Package cache bounds the two hot paths of frame materialization: the
// decoded pixel matrix for a (path, frame) pair, and the final encoded bytes
// for a (path, frame, view, parameters, format) tuple. Both are backed by
// github.com/hashicorp/golang-lru/v2.
package cache

import (
	"image"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Capacity is the fixed entry limit for both caches.
const Capacity = 25

// MatrixKey addresses a decoded, untransformed frame.
type MatrixKey struct {
	Path  string
	Frame int
}

// ImageKey addresses a fully encoded view output.
type ImageKey struct {
	Path      string
	Frame     int
	View      string
	ParamsKey string
	Format    string
}

// MatrixCache memoizes decoded frames.
type MatrixCache struct {
	lru *lru.Cache[MatrixKey, image.Image]
}

// NewMatrixCache builds a MatrixCache with the fixed capacity.
func NewMatrixCache() *MatrixCache {
	c, err := lru.New[MatrixKey, image.Image](Capacity)
	if err != nil {
		// Only fails for a non-positive size, which Capacity never is.
		panic(err)
	}
	return &MatrixCache{lru: c}
}

// Get returns the cached matrix for key, if present.
func (c *MatrixCache) Get(key MatrixKey) (image.Image, bool) {
	return c.lru.Get(key)
}

// Put admits a successfully decoded matrix into the cache. Failed decodes
// are never cached.
func (c *MatrixCache) Put(key MatrixKey, m image.Image) {
	c.lru.Add(key, m)
}

// ImageCache memoizes encoded view output bytes.
type ImageCache struct {
	lru *lru.Cache[ImageKey, []byte]
}

// NewImageCache builds an ImageCache with the fixed capacity.
func NewImageCache() *ImageCache {
	c, err := lru.New[ImageKey, []byte](Capacity)
	if err != nil {
		panic(err)
	}
	return &ImageCache{lru: c}
}

// Get returns the cached bytes for key, if present.
func (c *ImageCache) Get(key ImageKey) ([]byte, bool) {
	return c.lru.Get(key)
}

// Put admits successfully encoded bytes into the cache.
func (c *ImageCache) Put(key ImageKey, data []byte) {
	c.lru.Add(key, data)
}
