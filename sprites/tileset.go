package sprites

import (
	"fmt"

	"github.com/HimoriK/HexManiacAdvance/lz"
	"github.com/HimoriK/HexManiacAdvance/model"
	"github.com/rs/zerolog/log"
)

// LzTilesetRun is an LZ-compressed block of tiles.
type LzTilesetRun struct {
	format  TilesetFormat
	start   int
	length  int
	sources []int
}

// NewLzTilesetRun parses format and checks that start holds valid LZ data.
func NewLzTilesetRun(m model.Model, format string, start int, sources []int) (LzTilesetRun, error) {
	f, err := ParseTilesetFormat(format)
	if err != nil {
		return LzTilesetRun{}, err
	}
	_, length, err := lz.Decompress(m, start)
	if err != nil {
		return LzTilesetRun{}, fmt.Errorf("tileset at %06X: %w", start, err)
	}
	return LzTilesetRun{format: f, start: start, length: length, sources: sources}, nil
}

func (r LzTilesetRun) Start() int            { return r.start }
func (r LzTilesetRun) Length() int           { return r.length }
func (r LzTilesetRun) PointerSources() []int { return r.sources }
func (r LzTilesetRun) FormatString() string  { return r.format.String() }
func (r LzTilesetRun) Format() TilesetFormat { return r.format }

func (r LzTilesetRun) Clone(sources []int) model.Run {
	r.sources = sources
	return r
}

func (r LzTilesetRun) Relocated(start int) model.Run {
	r.start = start
	return r
}

// Tiles decompresses the tileset.
func (r LzTilesetRun) Tiles(m model.Model) ([]Tile, error) {
	data, _, err := lz.Decompress(m, r.start)
	if err != nil {
		return nil, fmt.Errorf("tileset at %06X: %w", r.start, err)
	}
	return DecodeTiles(data, r.format.BitsPerPixel), nil
}

// SetTiles compresses tiles over the run, moving it if the new data no
// longer fits. It returns the run as written.
func (r LzTilesetRun) SetTiles(m model.Model, token *model.ChangeToken, tiles []Tile) (LzTilesetRun, error) {
	compressed := lz.Compress(EncodeTiles(tiles, r.format.BitsPerPixel))
	start, sources, err := writeCompressed(m, token, r, compressed)
	if err != nil {
		return LzTilesetRun{}, err
	}
	written := LzTilesetRun{format: r.format, start: start, length: len(compressed), sources: sources}
	m.ObserveRunWritten(token, written)
	log.Debug().
		Int("start", start).
		Int("tiles", len(tiles)).
		Int("bytes", len(compressed)).
		Msg("tileset written")
	return written, nil
}

// DependentTilemaps returns every tilemap in m that resolves to this tileset.
func (r LzTilesetRun) DependentTilemaps(m model.Model) []LzTilemapRun {
	var result []LzTilemapRun
	for _, run := range m.Runs() {
		tilemap, ok := run.(LzTilemapRun)
		if !ok {
			continue
		}
		if address, ok := tilemap.ResolveTileset(m); ok && address == r.start {
			result = append(result, tilemap)
		}
	}
	return result
}

// writeCompressed stores data over run, relocating it when data is longer.
// Bytes of the old run past the new data are filled with 0xFF.
func writeCompressed(m model.Model, token *model.ChangeToken, run model.Run, data []byte) (int, []int, error) {
	moved, err := m.Relocate(token, run, len(data))
	if err != nil {
		return 0, nil, err
	}
	start := moved.Start()
	for i, b := range data {
		m.ChangeByte(token, start+i, b)
	}
	for i := len(data); i < moved.Length(); i++ {
		m.ChangeByte(token, start+i, 0xFF)
	}
	return start, moved.PointerSources(), nil
}
