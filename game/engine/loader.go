package engine

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
)

// trapLuminanceThreshold is the 0-255 luminance above which a pixel
// becomes a trap cell (0.299R + 0.587G + 0.114B > 127.5).
const trapLuminanceThreshold = 127.5

// LoadGrid decodes a raster image at path into a Grid. Each pixel maps to
// one grid cell in column-major form (x indexes columns, the outer loop):
// a cell becomes a trap tile ("##") when its luminance exceeds the
// threshold, otherwise it stays empty.
func LoadGrid(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("engine: open map file: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("engine: decode map image %s: %w", path, err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	grid, err := NewGrid(width, height)
	if err != nil {
		return nil, fmt.Errorf("engine: build grid from map %s: %w", path, err)
	}

	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// image/color.Color.RGBA returns values in [0, 0xffff]; scale
			// the 16-bit channels down to the 0-255 range the formula expects.
			r8 := float64(r >> 8)
			g8 := float64(g >> 8)
			b8 := float64(b >> 8)
			luminance := 0.299*r8 + 0.587*g8 + 0.114*b8
			if luminance > trapLuminanceThreshold {
				grid.setTrap(x, y, TrapTile)
			}
		}
	}

	return grid, nil
}
