// Package imageproc conditions photographed pages for the recognition
// models: grayscale, background-divide denoising, then contrast-limited
// adaptive histogram equalization.
package imageproc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/disintegration/imaging"
)

// ErrInvalidImage reports input that cannot be decoded as an image.
var ErrInvalidImage = errors.New("invalid image format")

const (
	// Sigma of the background blur used for illumination flattening.
	backgroundSigma = 2.0

	// CLAHE parameters. The clip limit bounds per-tile contrast gain so
	// near-uniform tiles don't have their noise amplified.
	claheClipLimit = 2.0
	claheTileGrid  = 8
)

// Condition turns a raw photographed page into a conditioned grayscale
// image ready for recognition. Pure function of its input; no partial
// output on failure.
func Condition(raw []byte) (*image.Gray, error) {
	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	gray := toGray(imaging.Grayscale(img))
	denoised := divideNormalize(gray)
	return equalizeAdaptive(denoised), nil
}

// EncodePNG renders a conditioned image back to bytes for the model
// adapters, which take encoded images on the wire.
func EncodePNG(img *image.Gray) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode conditioned image: %w", err)
	}
	return buf.Bytes(), nil
}

// toGray collapses a grayscale-valued NRGBA into a single luminance plane.
// Grayscale() and Blur() equalize the channels, so R carries the value.
func toGray(img *image.NRGBA) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			i := img.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
			gray.SetGray(x, y, color.Gray{Y: img.Pix[i]})
		}
	}
	return gray
}

// divideNormalize estimates local background illumination with a Gaussian
// blur and divides the image by it, scaled back to the 0-255 range. Unlike
// a blur-replace this bounds local contrast by the local background
// instead of erasing it, which keeps stroke edges intact while flattening
// uneven lighting and speckle.
func divideNormalize(gray *image.Gray) *image.Gray {
	background := toGray(imaging.Blur(gray, backgroundSigma))

	bounds := gray.Bounds()
	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := int(gray.GrayAt(x, y).Y)
			bg := int(background.GrayAt(x, y).Y)
			if bg == 0 {
				out.SetGray(x, y, color.Gray{Y: 255})
				continue
			}
			scaled := (v*255 + bg/2) / bg
			if scaled > 255 {
				scaled = 255
			}
			out.SetGray(x, y, color.Gray{Y: uint8(scaled)})
		}
	}
	return out
}

// equalizeAdaptive applies CLAHE over a fixed tile grid: each tile gets a
// clipped-histogram equalization mapping, and pixels are remapped by
// bilinear interpolation between the four surrounding tile mappings.
func equalizeAdaptive(gray *image.Gray) *image.Gray {
	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return gray
	}

	tilesX, tilesY := claheTileGrid, claheTileGrid
	if tilesX > w {
		tilesX = w
	}
	if tilesY > h {
		tilesY = h
	}

	// Per-tile equalization mappings.
	maps := make([][][256]uint8, tilesY)
	for ty := 0; ty < tilesY; ty++ {
		maps[ty] = make([][256]uint8, tilesX)
		for tx := 0; tx < tilesX; tx++ {
			x0, x1 := tx*w/tilesX, (tx+1)*w/tilesX
			y0, y1 := ty*h/tilesY, (ty+1)*h/tilesY
			maps[ty][tx] = tileMapping(gray, bounds.Min.X+x0, bounds.Min.Y+y0, x1-x0, y1-y0)
		}
	}

	out := image.NewGray(bounds)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y

			// Position relative to tile centers.
			fx := (float64(x)+0.5)*float64(tilesX)/float64(w) - 0.5
			fy := (float64(y)+0.5)*float64(tilesY)/float64(h) - 0.5

			tx0 := clampInt(int(fx), 0, tilesX-1)
			ty0 := clampInt(int(fy), 0, tilesY-1)
			if fx < 0 {
				tx0 = 0
			}
			if fy < 0 {
				ty0 = 0
			}
			tx1 := clampInt(tx0+1, 0, tilesX-1)
			ty1 := clampInt(ty0+1, 0, tilesY-1)

			wx := fx - float64(tx0)
			wy := fy - float64(ty0)
			if wx < 0 {
				wx = 0
			} else if wx > 1 {
				wx = 1
			}
			if wy < 0 {
				wy = 0
			} else if wy > 1 {
				wy = 1
			}

			top := (1-wx)*float64(maps[ty0][tx0][v]) + wx*float64(maps[ty0][tx1][v])
			bottom := (1-wx)*float64(maps[ty1][tx0][v]) + wx*float64(maps[ty1][tx1][v])
			out.SetGray(bounds.Min.X+x, bounds.Min.Y+y, color.Gray{Y: uint8((1-wy)*top + wy*bottom + 0.5)})
		}
	}
	return out
}

// tileMapping builds the clipped-histogram equalization lookup table for
// one tile.
func tileMapping(gray *image.Gray, x0, y0, tw, th int) [256]uint8 {
	var hist [256]int
	for y := y0; y < y0+th; y++ {
		for x := x0; x < x0+tw; x++ {
			hist[gray.GrayAt(x, y).Y]++
		}
	}

	total := tw * th
	var mapping [256]uint8
	if total == 0 {
		for i := range mapping {
			mapping[i] = uint8(i)
		}
		return mapping
	}

	// Clip the histogram and redistribute the excess uniformly.
	clip := int(claheClipLimit * float64(total) / 256)
	if clip < 1 {
		clip = 1
	}
	excess := 0
	for i := range hist {
		if hist[i] > clip {
			excess += hist[i] - clip
			hist[i] = clip
		}
	}
	share := excess / 256
	remainder := excess % 256
	for i := range hist {
		hist[i] += share
		if i < remainder {
			hist[i]++
		}
	}

	// Cumulative distribution to lookup table.
	cdf := 0
	for i := range hist {
		cdf += hist[i]
		mapping[i] = uint8((cdf*255 + total/2) / total)
	}
	return mapping
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

