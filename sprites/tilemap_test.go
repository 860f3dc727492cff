package sprites

import (
	"errors"
	"slices"
	"testing"

	"github.com/HimoriK/HexManiacAdvance/lz"
	"github.com/HimoriK/HexManiacAdvance/model"
	"github.com/HimoriK/HexManiacAdvance/runs"
)

func newSpriteBuffer(t *testing.T, size int) *model.Buffer {
	t.Helper()
	data := make([]byte, size)
	for i := range data {
		data[i] = 0xFF
	}
	return model.NewBuffer(data)
}

func writeBytes(b *model.Buffer, address int, data []byte) {
	for i, v := range data {
		b.ChangeByte(nil, address+i, v)
	}
}

// addTileset compresses tiles at address and names the run.
func addTileset(t *testing.T, b *model.Buffer, name string, address int, tiles []Tile) LzTilesetRun {
	t.Helper()
	writeBytes(b, address, lz.Compress(EncodeTiles(tiles, 4)))
	run, err := NewLzTilesetRun(b, "`lzt4`", address, nil)
	if err != nil {
		t.Fatalf("NewLzTilesetRun: %v", err)
	}
	b.ObserveAnchorWritten(nil, name, run)
	return run
}

// addTilemap compresses cells at address and registers the run.
func addTilemap(t *testing.T, b *model.Buffer, format string, address int, sources []int, cells ...Cell) LzTilemapRun {
	t.Helper()
	data := make([]byte, 0, len(cells)*2)
	for _, c := range cells {
		packed := c.Pack()
		data = append(data, byte(packed), byte(packed>>8))
	}
	writeBytes(b, address, lz.Compress(data))
	run, err := NewLzTilemapRun(b, format, address, sources)
	if err != nil {
		t.Fatalf("NewLzTilemapRun: %v", err)
	}
	b.ObserveRunWritten(nil, run)
	return run
}

func tileBitmap(tile Tile, palette int) *Bitmap {
	bm := NewBitmap(TileSize, TileSize)
	for y := 0; y < TileSize; y++ {
		for x := 0; x < TileSize; x++ {
			bm.Set(x, y, palette*16+int(tile[y][x]))
		}
	}
	return bm
}

func TestNewLzRunsRejectBadData(t *testing.T) {
	b := newSpriteBuffer(t, 0x40)
	if _, err := NewLzTilesetRun(b, "`lzt4`", 0, nil); !errors.Is(err, lz.ErrNotCompressed) {
		t.Errorf("tileset over blank bytes: %v", err)
	}
	if _, err := NewLzTilemapRun(b, "`lzm4x1x1|t`", 0, nil); !errors.Is(err, lz.ErrNotCompressed) {
		t.Errorf("tilemap over blank bytes: %v", err)
	}
	if _, err := NewLzTilemapRun(b, "`lzm4`", 0, nil); !errors.Is(err, ErrBadFormat) {
		t.Errorf("bad tag: %v", err)
	}
}

func TestPixelsAndSetPixels(t *testing.T) {
	b := newSpriteBuffer(t, 0x1000)
	addTileset(t, b, "tiles", 0x000, []Tile{{}})
	tilemap := addTilemap(t, b, "`lzm4x2x2|tiles`", 0x100, nil, Cell{}, Cell{}, Cell{}, Cell{})

	g := gradient(0)
	bm := NewBitmap(16, 16)
	for y := 0; y < TileSize; y++ {
		for x := 0; x < TileSize; x++ {
			bm.Set(x, y, 0x10+int(g[y][x]))
			bm.Set(8+x, y, 0x10+int(g[y][TileSize-1-x]))
			bm.Set(8+x, 8+y, 0x35)
		}
	}

	token := model.NewChangeToken()
	written, err := tilemap.SetPixels(b, token, bm)
	if err != nil {
		t.Fatalf("SetPixels: %v", err)
	}
	if !token.HasChanged() {
		t.Error("SetPixels recorded no changes")
	}

	got, err := written.Pixels(b)
	if err != nil {
		t.Fatalf("Pixels: %v", err)
	}
	if !slices.Equal(got.Pix, bm.Pix) {
		t.Error("Pixels after SetPixels differ from the imported bitmap")
	}

	used, err := written.UsedTiles(b)
	if err != nil || !slices.Equal(used, []int{1, 1, 0, 2}) {
		t.Errorf("UsedTiles = %v, %v", used, err)
	}

	address, ok := written.ResolveTileset(b)
	if !ok || address != b.AddressOfAnchor("tiles") {
		t.Fatalf("ResolveTileset = %X, %v", address, ok)
	}
	tiles, err := b.NextRun(address).(LzTilesetRun).Tiles(b)
	if err != nil || !slices.Equal(tiles, []Tile{{}, g, solid(5)}) {
		t.Errorf("tileset holds %d tiles, %v", len(tiles), err)
	}

	if _, err := written.SetPixels(b, nil, NewBitmap(8, 8)); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("wrong size: %v", err)
	}
}

func TestSetPixelsKeepsSharedTiles(t *testing.T) {
	b := newSpriteBuffer(t, 0x1000)
	tileset := addTileset(t, b, "tiles", 0x000, []Tile{{}})
	first := addTilemap(t, b, "`lzm4x1x1|tiles`", 0x100, nil, Cell{})
	second := addTilemap(t, b, "`lzm4x1x1|tiles`", 0x180, nil, Cell{})

	if deps := tileset.DependentTilemaps(b); len(deps) != 2 {
		t.Fatalf("DependentTilemaps = %d, want 2", len(deps))
	}

	g := gradient(0)
	first, err := first.SetPixels(b, nil, tileBitmap(g, 0))
	if err != nil {
		t.Fatalf("first SetPixels: %v", err)
	}
	if _, err := second.SetPixels(b, nil, tileBitmap(solid(7), 1)); err != nil {
		t.Fatalf("second SetPixels: %v", err)
	}

	got, err := first.Pixels(b)
	if err != nil {
		t.Fatalf("Pixels: %v", err)
	}
	if !slices.Equal(got.Pix, tileBitmap(g, 0).Pix) {
		t.Error("writing the second tilemap changed the first")
	}
	if used, _ := first.UsedTiles(b); !slices.Equal(used, []int{1}) {
		t.Errorf("first tilemap uses %v", used)
	}
}

func TestResolveTilesetThroughTable(t *testing.T) {
	b := newSpriteBuffer(t, 0x400)
	addTileset(t, b, "tiles", 0x200, []Tile{{}})
	tilemap := addTilemap(t, b, "`lzm4x1x1|graphics|sheet`", 0x300, []int{0x004}, Cell{})
	model.WritePointer(b, nil, 0x000, 0x200)
	model.WritePointer(b, nil, 0x004, 0x300)
	table, err := runs.NewArrayRun(b, nil, `[sheet<> map<>]1`, 0x000, nil)
	if err != nil {
		t.Fatalf("NewArrayRun: %v", err)
	}
	b.ObserveAnchorWritten(nil, "graphics", table)

	if address, ok := tilemap.ResolveTileset(b); !ok || address != 0x200 {
		t.Errorf("ResolveTileset = %X, %v; want 200, true", address, ok)
	}
	if !tilemap.SupportsImport(b) {
		t.Error("SupportsImport = false")
	}

	tests := []struct {
		name    string
		format  string
		sources []int
	}{
		{"column without a tileset", "`lzm4x1x1|graphics|map`", []int{0x004}},
		{"missing anchor", "`lzm4x1x1|nothing`", []int{0x004}},
		{"table hint without a source", "`lzm4x1x1|graphics`", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _ := ParseTilemapFormat(tt.format)
			run := LzTilemapRun{format: f, start: 0x300, length: tilemap.Length(), sources: tt.sources}
			if _, ok := run.ResolveTileset(b); ok {
				t.Error("tileset resolved")
			}
			if _, err := run.SetPixels(b, nil, NewBitmap(8, 8)); !errors.Is(err, ErrNoTileset) {
				t.Errorf("SetPixels error = %v, want ErrNoTileset", err)
			}
		})
	}
}

func TestSetPixelsTilesetFull(t *testing.T) {
	const width, height = 33, 32
	b := newSpriteBuffer(t, 0x1000)
	addTileset(t, b, "tiles", 0x000, []Tile{{}})
	tilemap := addTilemap(t, b, "`lzm4x33x32|tiles`", 0x100, nil, Cell{})

	bm := NewBitmap(width*TileSize, height*TileSize)
	for i := 0; i < width*height; i++ {
		x, y := (i%width)*TileSize, (i/width)*TileSize
		n := i + 1
		bm.Set(x, y, n&0xF)
		bm.Set(x+1, y, n>>4&0xF)
		bm.Set(x+2, y, n>>8&0xF)
	}

	written, err := tilemap.SetPixels(b, nil, bm)
	if err != nil {
		t.Fatalf("SetPixels: %v", err)
	}
	used, err := written.UsedTiles(b)
	if err != nil || len(used) != width*height {
		t.Fatalf("UsedTiles = %d cells, %v", len(used), err)
	}
	for i, index := range used {
		want := i + 1
		if want >= MaxTiles {
			want = 0
		}
		if index != want {
			t.Fatalf("cell %d uses tile %d, want %d", i, index, want)
		}
	}
}

func TestSetPixelsShrinkPadsOldData(t *testing.T) {
	b := newSpriteBuffer(t, 0x1000)
	addTileset(t, b, "tiles", 0x000, []Tile{{}})
	cells := make([]Cell, 16)
	for i := range cells {
		cells[i] = Cell{Tile: i * 67 % MaxTiles, HFlip: i%2 == 0, Palette: i % 16}
	}
	tilemap := addTilemap(t, b, "`lzm4x4x4|tiles`", 0x100, nil, cells...)

	written, err := tilemap.SetPixels(b, nil, NewBitmap(32, 32))
	if err != nil {
		t.Fatalf("SetPixels: %v", err)
	}
	if written.Start() != tilemap.Start() {
		t.Fatalf("shrinking tilemap moved to %X", written.Start())
	}
	if written.Length() >= tilemap.Length() {
		t.Fatalf("tilemap length %d did not shrink from %d", written.Length(), tilemap.Length())
	}
	for a := written.Start() + written.Length(); a < tilemap.Start()+tilemap.Length(); a++ {
		if b.Byte(a) != 0xFF {
			t.Errorf("byte %X = %02X after shrinking, want FF", a, b.Byte(a))
		}
	}

	got, err := written.Pixels(b)
	if err != nil || slices.ContainsFunc(got.Pix, func(p int) bool { return p != 0 }) {
		t.Errorf("Pixels after a blank import = %v", err)
	}
}
