// Package codec decodes frames from a video into pixel matrices, transforms
// them, and encodes them into conventional image formats. It defines the
// interface the rest of videofs depends on and one concrete implementation
// that shells out to ffmpeg/ffprobe.
package codec

import (
	"image"
)

// Format is one of the conventional image formats videofs can encode to.
type Format string

const (
	JPG  Format = "jpg"
	PNG  Format = "png"
	BMP  Format = "bmp"
	WEBP Format = "webp"
)

// Formats lists every supported format, in the order view directories
// advertise them.
var Formats = []Format{JPG, PNG, BMP, WEBP}

// Ext returns the format's conventional file extension, identical to its
// serialized name.
func (f Format) Ext() string { return string(f) }

// Codec is the external collaborator's interface.
type Codec interface {
	// FrameCount reports the total number of frames in the video at path.
	FrameCount(path string) (int, error)

	// Decode returns the pixel matrix for frame frameIndex of the video at
	// path. frameIndex must be in [0, FrameCount(path)).
	Decode(path string, frameIndex int) (image.Image, error)

	// ToGreyscale converts m to a greyscale matrix.
	ToGreyscale(m image.Image) (image.Image, error)

	// ToBinary converts m to a black-and-white matrix. When threshold is
	// nil, the codec selects one automatically via a bimodal-histogram
	// method (Otsu's method).
	ToBinary(m image.Image, threshold *uint8) (image.Image, error)

	// Encode serializes m in the given format.
	Encode(m image.Image, format Format) ([]byte, error)
}
