// Package sprites converts between bitmaps and the compressed tile data the
// GBA draws them from: tilesets of 8x8 tiles and tilemaps of 16-bit cells that
// pick a tile, a flip and a palette row.
//
// Tiles are deduplicated under horizontal, vertical and double flips. Several
// tilemaps may share one tileset; writing a tilemap merges its tiles into the
// tileset without moving the slots the other tilemaps use.
package sprites

// Tile geometry and limits.
const (
	TileSize = 8

	// MaxTiles is the number of slots a tilemap cell can address.
	MaxTiles = 0x400
)

// Tile is an 8x8 block of palette-relative pixels, indexed [y][x].
type Tile [TileSize][TileSize]uint8

// MatchType says how one tile maps onto another.
type MatchType int

const (
	MatchNone MatchType = iota
	MatchNormal
	MatchHFlip
	MatchVFlip
	MatchBFlip // both flips
)

func (m MatchType) String() string {
	switch m {
	case MatchNormal:
		return "normal"
	case MatchHFlip:
		return "hflip"
	case MatchVFlip:
		return "vflip"
	case MatchBFlip:
		return "bflip"
	default:
		return "none"
	}
}

// FlipH returns the tile mirrored left to right.
func (t Tile) FlipH() Tile {
	var result Tile
	for y := 0; y < TileSize; y++ {
		for x := 0; x < TileSize; x++ {
			result[y][x] = t[y][TileSize-1-x]
		}
	}
	return result
}

// FlipV returns the tile mirrored top to bottom.
func (t Tile) FlipV() Tile {
	var result Tile
	for y := 0; y < TileSize; y++ {
		result[y] = t[TileSize-1-y]
	}
	return result
}

// TilesMatch reports how b can be drawn to look like a. Identity is
// preferred, then a horizontal flip, a vertical flip and both.
func TilesMatch(a, b Tile) MatchType {
	normal, hFlip, vFlip, bFlip := true, true, true, true
	for y := 0; y < TileSize; y++ {
		for x := 0; x < TileSize; x++ {
			normal = normal && a[y][x] == b[y][x]
			hFlip = hFlip && a[y][x] == b[y][TileSize-1-x]
			vFlip = vFlip && a[y][x] == b[TileSize-1-y][x]
			bFlip = bFlip && a[y][x] == b[TileSize-1-y][TileSize-1-x]
		}
		if !normal && !hFlip && !vFlip && !bFlip {
			return MatchNone
		}
	}
	switch {
	case normal:
		return MatchNormal
	case hFlip:
		return MatchHFlip
	case vFlip:
		return MatchVFlip
	default:
		return MatchBFlip
	}
}

// FindMatch returns the first tile in tiles that matches tile, or -1.
func FindMatch(tile Tile, tiles []Tile) (int, MatchType) {
	for i, candidate := range tiles {
		if match := TilesMatch(tile, candidate); match != MatchNone {
			return i, match
		}
	}
	return -1, MatchNone
}

// TileBytes is the encoded size of one tile.
func TileBytes(bitsPerPixel int) int {
	return TileSize * bitsPerPixel
}

// DecodeTiles splits raw 4bpp or 8bpp tile data into tiles. A trailing
// partial tile is ignored. 4bpp pixels are packed low nibble first.
func DecodeTiles(data []byte, bitsPerPixel int) []Tile {
	size := TileBytes(bitsPerPixel)
	tiles := make([]Tile, 0, len(data)/size)
	for start := 0; start+size <= len(data); start += size {
		var tile Tile
		for i := 0; i < TileSize*TileSize; i++ {
			y, x := i/TileSize, i%TileSize
			if bitsPerPixel == 4 {
				b := data[start+i/2]
				if i%2 == 0 {
					tile[y][x] = b & 0xF
				} else {
					tile[y][x] = b >> 4
				}
			} else {
				tile[y][x] = data[start+i]
			}
		}
		tiles = append(tiles, tile)
	}
	return tiles
}

// EncodeTiles is the inverse of DecodeTiles.
func EncodeTiles(tiles []Tile, bitsPerPixel int) []byte {
	size := TileBytes(bitsPerPixel)
	data := make([]byte, len(tiles)*size)
	for n, tile := range tiles {
		start := n * size
		for i := 0; i < TileSize*TileSize; i++ {
			y, x := i/TileSize, i%TileSize
			if bitsPerPixel == 4 {
				data[start+i/2] |= (tile[y][x] & 0xF) << (4 * (i % 2))
			} else {
				data[start+i] = tile[y][x]
			}
		}
	}
	return data
}
