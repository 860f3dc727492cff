package sprites

import "github.com/rs/zerolog/log"

// Cell is one decoded tilemap entry.
type Cell struct {
	Tile    int
	HFlip   bool
	VFlip   bool
	Palette int
}

// Pack encodes the cell as the GBA stores it:
// bits 0-9 tile, 10 hflip, 11 vflip, 12-15 palette.
func (c Cell) Pack() uint16 {
	v := uint16(c.Tile&0x3FF) | uint16(c.Palette&0xF)<<12
	if c.HFlip {
		v |= 1 << 10
	}
	if c.VFlip {
		v |= 1 << 11
	}
	return v
}

// UnpackCell decodes a packed tilemap entry.
func UnpackCell(v uint16) Cell {
	return Cell{
		Tile:    int(v & 0x3FF),
		HFlip:   v&(1<<10) != 0,
		VFlip:   v&(1<<11) != 0,
		Palette: int(v >> 12),
	}
}

func cellFor(index int, match MatchType, palette int) Cell {
	return Cell{
		Tile:    index,
		HFlip:   match == MatchHFlip || match == MatchBFlip,
		VFlip:   match == MatchVFlip || match == MatchBFlip,
		Palette: palette,
	}
}

// Block is one 8x8 region of a bitmap split into a tile and its palette row.
type Block struct {
	Tile    Tile
	Palette int
}

// Tilize splits a bitmap into blocks indexed [ty][tx]. The palette row of
// a block is taken from its top-left pixel. Partial edge tiles are padded
// with zeros.
func Tilize(bm *Bitmap, bitsPerPixel int) [][]Block {
	mod := paletteMod(bitsPerPixel)
	rows := (bm.Height + TileSize - 1) / TileSize
	cols := (bm.Width + TileSize - 1) / TileSize
	blocks := make([][]Block, rows)
	for ty := range blocks {
		blocks[ty] = make([]Block, cols)
		for tx := range blocks[ty] {
			x0, y0 := tx*TileSize, ty*TileSize
			block := Block{Palette: bm.At(x0, y0) / mod}
			for y := 0; y < TileSize; y++ {
				for x := 0; x < TileSize; x++ {
					block.Tile[y][x] = uint8(bm.At(x0+x, y0+y) % mod)
				}
			}
			blocks[ty][tx] = block
		}
	}
	return blocks
}

// UniqueTiles returns the distinct tiles of blocks in row-major order,
// treating flipped copies as equal. The list starts with the blank tile and
// stops growing at MaxTiles.
func UniqueTiles(blocks [][]Block) []Tile {
	tiles := []Tile{{}}
	for _, row := range blocks {
		for _, block := range row {
			if index, _ := FindMatch(block.Tile, tiles); index != -1 {
				continue
			}
			if len(tiles) == MaxTiles {
				log.Debug().Int("limit", MaxTiles).Msg("tile limit reached; dropping tiles")
				return tiles
			}
			tiles = append(tiles, block.Tile)
		}
	}
	return tiles
}

// MergeTilesets combines a tileset shared with other tilemaps with the tiles
// one tilemap now needs. Slots in keep hold their previous tile at the same
// index. Other slots are reused for new tiles not already present. When the
// new tiles run out the remaining previous tiles are carried over, and any
// new tiles still unplaced are appended.
func MergeTilesets(previous []Tile, keep map[int]bool, newTiles []Tile) []Tile {
	merged := make([]Tile, 0, len(previous)+len(newTiles))
	next := 0

	placeNext := func() bool {
		for next < len(newTiles) {
			tile := newTiles[next]
			next++
			if index, _ := FindMatch(tile, merged); index == -1 {
				merged = append(merged, tile)
				return true
			}
		}
		return false
	}

	i := 0
	for ; i < len(previous); i++ {
		if keep[i] {
			merged = append(merged, previous[i])
			continue
		}
		if !placeNext() {
			break
		}
	}
	merged = append(merged, previous[i:]...)
	for placeNext() {
	}
	return merged
}

// DecodeTilemap draws packed cells using tiles. Every sample is offset by the
// cell's palette row shifted left by 4. Cells that name a tile past the end
// of tiles draw blank. Missing cells draw as cell 0.
func DecodeTilemap(mapData []byte, tiles []Tile, format TilemapFormat) *Bitmap {
	bm := NewBitmap(format.TileWidth*TileSize, format.TileHeight*TileSize)
	for ty := 0; ty < format.TileHeight; ty++ {
		for tx := 0; tx < format.TileWidth; tx++ {
			offset := (ty*format.TileWidth + tx) * 2
			var packed uint16
			if offset+1 < len(mapData) {
				packed = uint16(mapData[offset]) | uint16(mapData[offset+1])<<8
			}
			cell := UnpackCell(packed)

			var tile Tile
			if cell.Tile < len(tiles) {
				tile = tiles[cell.Tile]
			}
			if cell.HFlip {
				tile = tile.FlipH()
			}
			if cell.VFlip {
				tile = tile.FlipV()
			}
			base := cell.Palette << 4
			for y := 0; y < TileSize; y++ {
				for x := 0; x < TileSize; x++ {
					bm.Set(tx*TileSize+x, ty*TileSize+y, base+int(tile[y][x]))
				}
			}
		}
	}
	return bm
}
