package sprites

import (
	"fmt"
	"strconv"
	"strings"
)

// Format tag prefixes. Tags are wrapped in backticks.
const (
	TilesetPrefix = "lzt"
	TilemapPrefix = "lzm"
)

// TilesetFormat describes an LZ-compressed tileset: `lzt4` or `lzt8`,
// optionally followed by the palette it is drawn with: `lzt4|pal`.
type TilesetFormat struct {
	BitsPerPixel int
	PaletteHint  string
}

func (f TilesetFormat) String() string {
	if f.PaletteHint != "" {
		return fmt.Sprintf("`%s%d|%s`", TilesetPrefix, f.BitsPerPixel, f.PaletteHint)
	}
	return fmt.Sprintf("`%s%d`", TilesetPrefix, f.BitsPerPixel)
}

// TilemapFormat describes an LZ-compressed tilemap:
//
//	`lzm4x30x20|tileset`
//	`lzm4x30x20|table|column`
//
// Tileset names either a tileset anchor or a table whose rows point at
// tilesets. Column picks the table's pointer column; empty means any.
type TilemapFormat struct {
	BitsPerPixel int
	TileWidth    int
	TileHeight   int
	Tileset      string
	Column       string
}

func (f TilemapFormat) String() string {
	s := fmt.Sprintf("`%s%dx%dx%d", TilemapPrefix, f.BitsPerPixel, f.TileWidth, f.TileHeight)
	if f.Tileset != "" {
		s += "|" + f.Tileset
		if f.Column != "" {
			s += "|" + f.Column
		}
	}
	return s + "`"
}

// DataLength is the decompressed size of the tilemap.
func (f TilemapFormat) DataLength() int {
	return f.TileWidth * f.TileHeight * 2
}

// PaletteMod is the number of colors in one palette row.
func (f TilemapFormat) PaletteMod() int {
	return paletteMod(f.BitsPerPixel)
}

func paletteMod(bitsPerPixel int) int {
	if bitsPerPixel == 8 {
		return 256
	}
	return 16
}

func unwrapTag(text, prefix string) (string, bool) {
	if len(text) < 2 || text[0] != '`' || text[len(text)-1] != '`' {
		return "", false
	}
	return strings.CutPrefix(text[1:len(text)-1], prefix)
}

func parseBitsPerPixel(text string) (int, bool) {
	switch text {
	case "4":
		return 4, true
	case "8":
		return 8, true
	}
	return 0, false
}

// IsTilesetFormat reports whether text is a tileset tag.
func IsTilesetFormat(text string) bool {
	_, err := ParseTilesetFormat(text)
	return err == nil
}

// IsTilemapFormat reports whether text is a tilemap tag.
func IsTilemapFormat(text string) bool {
	_, err := ParseTilemapFormat(text)
	return err == nil
}

// ParseTilesetFormat parses a tileset tag such as `lzt4` or `lzt4|pal`.
func ParseTilesetFormat(text string) (TilesetFormat, error) {
	body, ok := unwrapTag(text, TilesetPrefix)
	if !ok {
		return TilesetFormat{}, fmt.Errorf("%w: %q", ErrBadFormat, text)
	}
	body, hint, hasHint := strings.Cut(body, "|")
	if hasHint && hint == "" {
		return TilesetFormat{}, fmt.Errorf("%w: empty palette in %q", ErrBadFormat, text)
	}
	bpp, ok := parseBitsPerPixel(body)
	if !ok {
		return TilesetFormat{}, fmt.Errorf("%w: bits per pixel in %q", ErrBadFormat, text)
	}
	return TilesetFormat{BitsPerPixel: bpp, PaletteHint: hint}, nil
}

// ParseTilemapFormat parses a tilemap tag such as `lzm4x30x20|tiles`.
func ParseTilemapFormat(text string) (TilemapFormat, error) {
	body, ok := unwrapTag(text, TilemapPrefix)
	if !ok {
		return TilemapFormat{}, fmt.Errorf("%w: %q", ErrBadFormat, text)
	}

	parts := strings.Split(body, "|")
	if len(parts) > 3 {
		return TilemapFormat{}, fmt.Errorf("%w: too many parts in %q", ErrBadFormat, text)
	}
	dims := strings.Split(parts[0], "x")
	if len(dims) != 3 {
		return TilemapFormat{}, fmt.Errorf("%w: dimensions in %q", ErrBadFormat, text)
	}

	var f TilemapFormat
	if f.BitsPerPixel, ok = parseBitsPerPixel(dims[0]); !ok {
		return TilemapFormat{}, fmt.Errorf("%w: bits per pixel in %q", ErrBadFormat, text)
	}
	var err error
	if f.TileWidth, err = strconv.Atoi(dims[1]); err != nil || f.TileWidth < 1 {
		return TilemapFormat{}, fmt.Errorf("%w: width in %q", ErrBadFormat, text)
	}
	if f.TileHeight, err = strconv.Atoi(dims[2]); err != nil || f.TileHeight < 1 {
		return TilemapFormat{}, fmt.Errorf("%w: height in %q", ErrBadFormat, text)
	}
	if len(parts) > 1 {
		f.Tileset = parts[1]
	}
	if len(parts) > 2 {
		f.Column = parts[2]
	}
	return f, nil
}
