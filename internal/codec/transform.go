package codec

import (
	"fmt"
	"image"
	"image/color"
)

// ToGreyscale converts m pixel-by-pixel into an image.Gray, the stdlib's
// natural greyscale matrix representation.
func ToGreyscale(m image.Image) (image.Image, error) {
	if m == nil {
		return nil, fmt.Errorf("codec: nil matrix")
	}
	b := m.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(x, y, m.At(x, y))
		}
	}
	return out, nil
}

// ToBinary converts m to a pure black/white image.Gray. When threshold is
// nil, the cut point is chosen automatically by Otsu's bimodal-histogram
// method.
func ToBinary(m image.Image, threshold *uint8) (image.Image, error) {
	if m == nil {
		return nil, fmt.Errorf("codec: nil matrix")
	}

	grey, err := ToGreyscale(m)
	if err != nil {
		return nil, err
	}
	g := grey.(*image.Gray)

	cut := uint8(0)
	if threshold != nil {
		cut = *threshold
	} else {
		cut = otsuThreshold(g)
	}

	b := g.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := g.GrayAt(x, y).Y
			if v >= cut {
				out.SetGray(x, y, color.Gray{Y: 255})
			} else {
				out.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	return out, nil
}

// otsuThreshold computes the between-class-variance-maximizing threshold
// over g's 256-bucket grey-level histogram.
func otsuThreshold(g *image.Gray) uint8 {
	var histogram [256]int
	b := g.Bounds()
	total := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			histogram[g.GrayAt(x, y).Y]++
			total++
		}
	}
	if total == 0 {
		return 128
	}

	var sumAll float64
	for i, count := range histogram {
		sumAll += float64(i * count)
	}

	var sumBackground float64
	var weightBackground int
	var bestThreshold uint8
	var bestVariance float64

	for t := 0; t < 256; t++ {
		weightBackground += histogram[t]
		if weightBackground == 0 {
			continue
		}
		weightForeground := total - weightBackground
		if weightForeground == 0 {
			break
		}

		sumBackground += float64(t * histogram[t])
		meanBackground := sumBackground / float64(weightBackground)
		meanForeground := (sumAll - sumBackground) / float64(weightForeground)

		variance := float64(weightBackground) * float64(weightForeground) *
			(meanBackground - meanForeground) * (meanBackground - meanForeground)

		if variance > bestVariance {
			bestVariance = variance
			bestThreshold = uint8(t)
		}
	}

	return bestThreshold
}
