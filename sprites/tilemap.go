package sprites

import (
	"fmt"

	"github.com/HimoriK/HexManiacAdvance/lz"
	"github.com/HimoriK/HexManiacAdvance/model"
	"github.com/HimoriK/HexManiacAdvance/runs"
	"github.com/rs/zerolog/log"
)

// LzTilemapRun is an LZ-compressed tilemap drawn from a tileset that is
// found through its format's hint.
type LzTilemapRun struct {
	format  TilemapFormat
	start   int
	length  int
	sources []int
}

// NewLzTilemapRun parses format and checks that start holds valid LZ data.
func NewLzTilemapRun(m model.Model, format string, start int, sources []int) (LzTilemapRun, error) {
	f, err := ParseTilemapFormat(format)
	if err != nil {
		return LzTilemapRun{}, err
	}
	_, length, err := lz.Decompress(m, start)
	if err != nil {
		return LzTilemapRun{}, fmt.Errorf("tilemap at %06X: %w", start, err)
	}
	return LzTilemapRun{format: f, start: start, length: length, sources: sources}, nil
}

func (r LzTilemapRun) Start() int            { return r.start }
func (r LzTilemapRun) Length() int           { return r.length }
func (r LzTilemapRun) PointerSources() []int { return r.sources }
func (r LzTilemapRun) FormatString() string  { return r.format.String() }
func (r LzTilemapRun) Format() TilemapFormat { return r.format }

func (r LzTilemapRun) Clone(sources []int) model.Run {
	r.sources = sources
	return r
}

func (r LzTilemapRun) Relocated(start int) model.Run {
	r.start = start
	return r
}

// ResolveTileset finds the address of the tileset this tilemap draws from.
//
// The hint is the anchor named in the format, or when there is none the run
// holding this tilemap's first pointer. A tileset hint is used directly. A
// table hint is indexed by this tilemap's row in its own table, and the first
// pointer column (or the named one) that targets a tileset wins.
func (r LzTilemapRun) ResolveTileset(m model.Model) (int, bool) {
	var hintAddress int
	var hint model.Run
	if r.format.Tileset != "" {
		hintAddress = m.AddressOfAnchor(r.format.Tileset)
		if hintAddress == model.NULL {
			return 0, false
		}
		hint = m.NextRun(hintAddress)
	} else {
		if len(r.sources) == 0 {
			return 0, false
		}
		hint = m.NextRun(r.sources[0])
		hintAddress = hint.Start()
	}
	if hint.Start() != hintAddress {
		return 0, false
	}

	if tileset, ok := hint.(LzTilesetRun); ok {
		return tileset.Start(), true
	}
	table, ok := hint.(runs.ArrayRun)
	if !ok || len(r.sources) == 0 {
		return 0, false
	}

	index, ok := r.tableIndex(m)
	if !ok || index >= table.ElementCount() {
		return 0, false
	}
	offset := 0
	for _, segment := range table.Segments() {
		if segment.Kind == runs.KindPointer && (r.format.Column == "" || segment.Name == r.format.Column) {
			destination := m.ReadPointer(table.ElementStart(index) + offset)
			if run := m.NextRun(destination); run.Start() == destination {
				if _, ok := run.(LzTilesetRun); ok {
					return destination, true
				}
			}
		}
		offset += segment.Length
	}
	return 0, false
}

// tableIndex returns the row of the table holding this tilemap's first pointer.
func (r LzTilemapRun) tableIndex(m model.Model) (int, bool) {
	source := r.sources[0]
	table, ok := m.NextRun(source).(runs.ArrayRun)
	if !ok || table.Start() > source {
		return 0, false
	}
	return (source - table.Start()) / table.ElementLength(), true
}

// SupportsImport reports whether the tilemap's tileset can be resolved.
func (r LzTilemapRun) SupportsImport(m model.Model) bool {
	_, ok := r.ResolveTileset(m)
	return ok
}

func (r LzTilemapRun) mapData(m model.Model) ([]byte, error) {
	data, _, err := lz.Decompress(m, r.start)
	if err != nil {
		return nil, fmt.Errorf("tilemap at %06X: %w", r.start, err)
	}
	return data, nil
}

func (r LzTilemapRun) tileset(m model.Model) (LzTilesetRun, error) {
	address, ok := r.ResolveTileset(m)
	if !ok {
		return LzTilesetRun{}, fmt.Errorf("tilemap at %06X: %w", r.start, ErrNoTileset)
	}
	tileset, ok := m.NextRun(address).(LzTilesetRun)
	if !ok {
		return LzTilesetRun{}, fmt.Errorf("tilemap at %06X: %w", r.start, ErrNoTileset)
	}
	return tileset, nil
}

// UsedTiles returns the tile index of every cell in row-major order.
func (r LzTilemapRun) UsedTiles(m model.Model) ([]int, error) {
	data, err := r.mapData(m)
	if err != nil {
		return nil, err
	}
	used := make([]int, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		used = append(used, UnpackCell(uint16(data[i])|uint16(data[i+1])<<8).Tile)
	}
	return used, nil
}

// Pixels draws the tilemap. Without a tileset every cell draws blank.
func (r LzTilemapRun) Pixels(m model.Model) (*Bitmap, error) {
	data, err := r.mapData(m)
	if err != nil {
		return nil, err
	}
	tileset, err := r.tileset(m)
	if err != nil {
		log.Warn().Err(err).Msg("drawing tilemap without tiles")
		return DecodeTilemap(data, nil, r.format), nil
	}
	tiles, err := tileset.Tiles(m)
	if err != nil {
		return nil, err
	}
	return DecodeTilemap(data, tiles, r.format), nil
}

// SetPixels imports bm into the tilemap and its tileset. Tiles used by other
// tilemaps sharing the tileset keep their slots. Both runs are relocated if
// they grow. It returns the tilemap as written.
func (r LzTilemapRun) SetPixels(m model.Model, token *model.ChangeToken, bm *Bitmap) (LzTilemapRun, error) {
	if bm.Width != r.format.TileWidth*TileSize || bm.Height != r.format.TileHeight*TileSize {
		return LzTilemapRun{}, fmt.Errorf("%w: %dx%d for %dx%d tiles",
			ErrSizeMismatch, bm.Width, bm.Height, r.format.TileWidth, r.format.TileHeight)
	}
	tileset, err := r.tileset(m)
	if err != nil {
		return LzTilemapRun{}, err
	}

	blocks := Tilize(bm, r.format.BitsPerPixel)
	newTiles := UniqueTiles(blocks)

	keep := make(map[int]bool)
	for _, other := range tileset.DependentTilemaps(m) {
		if other.Start() == r.start {
			continue
		}
		used, err := other.UsedTiles(m)
		if err != nil {
			return LzTilemapRun{}, err
		}
		for _, index := range used {
			keep[index] = true
		}
	}

	previous, err := tileset.Tiles(m)
	if err != nil {
		return LzTilemapRun{}, err
	}
	merged := MergeTilesets(previous, keep, newTiles)
	if _, err := tileset.SetTiles(m, token, merged); err != nil {
		return LzTilemapRun{}, err
	}

	data, err := r.mapData(m)
	if err != nil {
		return LzTilemapRun{}, err
	}
	if len(data) < r.format.DataLength() {
		data = append(data, make([]byte, r.format.DataLength()-len(data))...)
	}
	for ty, row := range blocks {
		for tx, block := range row {
			index, match := FindMatch(block.Tile, merged)
			if index == -1 || index >= MaxTiles {
				log.Warn().Int("x", tx).Int("y", ty).Msg("tile missing from tileset; using slot 0")
				index, match = 0, MatchNormal
			}
			packed := cellFor(index, match, block.Palette).Pack()
			offset := (ty*r.format.TileWidth + tx) * 2
			data[offset] = byte(packed)
			data[offset+1] = byte(packed >> 8)
		}
	}

	compressed := lz.Compress(data)
	current, ok := currentRun(m, r)
	if !ok {
		return LzTilemapRun{}, fmt.Errorf("tilemap at %06X: %w", r.start, model.ErrUnknownRun)
	}
	start, sources, err := writeCompressed(m, token, current, compressed)
	if err != nil {
		return LzTilemapRun{}, err
	}
	written := LzTilemapRun{format: r.format, start: start, length: len(compressed), sources: sources}
	m.ObserveRunWritten(token, written)
	log.Debug().
		Int("start", start).
		Int("tiles", len(merged)).
		Int("bytes", len(compressed)).
		Msg("tilemap written")
	return written, nil
}

// currentRun returns the registered copy of r, whose sources may have
// changed since r was read.
func currentRun(m model.Model, r LzTilemapRun) (LzTilemapRun, bool) {
	current, ok := m.NextRun(r.start).(LzTilemapRun)
	return current, ok && current.start == r.start
}
