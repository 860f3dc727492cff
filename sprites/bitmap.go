package sprites

import (
	"image"
	"image/color"
)

// Bitmap is a grid of palette-absolute pixels: the palette row times 16 plus
// the index within the row for 4bpp art.
type Bitmap struct {
	Width  int
	Height int
	Pix    []int
}

// NewBitmap allocates a blank bitmap.
func NewBitmap(width, height int) *Bitmap {
	return &Bitmap{Width: width, Height: height, Pix: make([]int, width*height)}
}

// At returns the pixel at (x, y), or 0 outside the bitmap.
func (b *Bitmap) At(x, y int) int {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return 0
	}
	return b.Pix[y*b.Width+x]
}

// Set writes the pixel at (x, y). Writes outside the bitmap are dropped.
func (b *Bitmap) Set(x, y, v int) {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return
	}
	b.Pix[y*b.Width+x] = v
}

// Paletted converts to an image using the given palette. Pixels beyond the
// palette are clipped to its last entry.
func (b *Bitmap) Paletted(palette color.Palette) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, b.Width, b.Height), palette)
	last := len(palette) - 1
	for i, v := range b.Pix {
		if v > last {
			v = last
		}
		img.Pix[i] = uint8(v)
	}
	return img
}

// BitmapFromImage reads the palette indices of a paletted image. Other image
// types are mapped through palette by nearest color.
func BitmapFromImage(img image.Image, palette color.Palette) *Bitmap {
	bounds := img.Bounds()
	bm := NewBitmap(bounds.Dx(), bounds.Dy())
	p, paletted := img.(*image.Paletted)
	for y := 0; y < bm.Height; y++ {
		for x := 0; x < bm.Width; x++ {
			px, py := bounds.Min.X+x, bounds.Min.Y+y
			if paletted {
				bm.Set(x, y, int(p.ColorIndexAt(px, py)))
			} else {
				bm.Set(x, y, palette.Index(img.At(px, py)))
			}
		}
	}
	return bm
}

// GrayPalette is a 256-entry palette for previewing sprites without their
// color data. Each 16-color row runs from black to white.
func GrayPalette() color.Palette {
	palette := make(color.Palette, 256)
	for i := range palette {
		v := uint8((i % 16) * 17)
		palette[i] = color.RGBA{R: v, G: v, B: v, A: 0xFF}
	}
	return palette
}
