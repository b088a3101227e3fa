package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os/exec"
	"strconv"
	"strings"

	"golang.org/x/image/bmp"

	"github.com/chai2010/webp"
)

// FFmpegCodec is the concrete Codec implementation: it shells out to the
// ffmpeg and ffprobe binaries to decode frames.
type FFmpegCodec struct {
	// FFprobePath and FFmpegPath default to the bare binary names, resolved
	// against PATH, but can be overridden.
	FFprobePath string
	FFmpegPath  string
}

// NewFFmpegCodec returns a codec that invokes ffmpeg/ffprobe from PATH.
func NewFFmpegCodec() *FFmpegCodec {
	return &FFmpegCodec{FFprobePath: "ffprobe", FFmpegPath: "ffmpeg"}
}

func (c *FFmpegCodec) ffprobe() string {
	if c.FFprobePath != "" {
		return c.FFprobePath
	}
	return "ffprobe"
}

func (c *FFmpegCodec) ffmpeg() string {
	if c.FFmpegPath != "" {
		return c.FFmpegPath
	}
	return "ffmpeg"
}

// FrameCount asks ffprobe for the number of decodable video frames in path.
func (c *FFmpegCodec) FrameCount(path string) (int, error) {
	cmd := exec.Command(
		c.ffprobe(),
		"-v", "error",
		"-select_streams", "v:0",
		"-count_packets",
		"-show_entries", "stream=nb_read_packets",
		"-of", "csv=p=0",
		path,
	)
	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe frame count for %s: %w: %s", path, err, stderr.String())
	}

	text := strings.TrimSpace(out.String())
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("ffprobe frame count for %s: unparseable output %q: %w", path, text, err)
	}
	return n, nil
}

// Decode extracts frameIndex from the video at path as a PNG byte stream via
// ffmpeg, then decodes that stream into an image.Image. PNG is used as the
// intermediate transport format because it's lossless, avoiding compounding
// artifacts for views that later re-encode to JPG.
func (c *FFmpegCodec) Decode(path string, frameIndex int) (image.Image, error) {
	cmd := exec.Command(
		c.ffmpeg(),
		"-v", "error",
		"-i", path,
		"-vf", fmt.Sprintf("select='eq(n\\,%d)'", frameIndex),
		"-vframes", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"pipe:1",
	)
	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg decode frame %d of %s: %w: %s", frameIndex, path, err, stderr.String())
	}

	m, err := png.Decode(&out)
	if err != nil {
		return nil, fmt.Errorf("decoding ffmpeg output for frame %d of %s: %w", frameIndex, path, err)
	}
	return m, nil
}

// ToGreyscale delegates to the package-level transform.
func (c *FFmpegCodec) ToGreyscale(m image.Image) (image.Image, error) {
	return ToGreyscale(m)
}

// ToBinary delegates to the package-level transform.
func (c *FFmpegCodec) ToBinary(m image.Image, threshold *uint8) (image.Image, error) {
	return ToBinary(m, threshold)
}

// Encode serializes m in the requested format using the stdlib codecs for
// JPG/PNG, golang.org/x/image/bmp for BMP, and github.com/chai2010/webp for
// WEBP.
func (c *FFmpegCodec) Encode(m image.Image, format Format) ([]byte, error) {
	var buf bytes.Buffer
	var err error

	switch format {
	case JPG:
		err = jpeg.Encode(&buf, m, &jpeg.Options{Quality: 90})
	case PNG:
		err = png.Encode(&buf, m)
	case BMP:
		err = bmp.Encode(&buf, m)
	case WEBP:
		err = webp.Encode(&buf, m, &webp.Options{Lossless: true})
	default:
		return nil, fmt.Errorf("codec: unsupported format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

var _ Codec = (*FFmpegCodec)(nil)
