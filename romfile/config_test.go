package romfile

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/HimoriK/HexManiacAdvance/lz"
	"github.com/HimoriK/HexManiacAdvance/model"
	"github.com/HimoriK/HexManiacAdvance/pcs"
	"github.com/HimoriK/HexManiacAdvance/runs"
	"github.com/HimoriK/HexManiacAdvance/sprites"
)

const testConfig = `
discover_pointers: true
anchors:
  - name: names
    address: 0x000
    format: '[name""4]2'
  - name: stats
    address: 0x010
    format: '[hp. kind.names]names'
  - name: statsptr
    address: 0x020
    format: '<>'
  - name: tiles
    address: 0x040
    format: '` + "`lzt4`" + `'
  - name: map
    address: 0x080
    format: '` + "`lzm4x1x1|tiles`" + `'
  - name: free
    address: 48
`

// newROM lays out the data testConfig describes.
func newROM(t *testing.T) *model.Buffer {
	t.Helper()
	data := make([]byte, 0x100)
	for i := range data {
		data[i] = 0xFF
	}
	b := model.NewBuffer(data)
	write := func(address int, bytes []byte) {
		for i, v := range bytes {
			b.ChangeByte(nil, address+i, v)
		}
	}
	write(0x00, append(pcs.Encode("A"), 0, 0))
	write(0x04, append(pcs.Encode("B"), 0, 0))
	write(0x10, []byte{5, 1, 7, 0})
	model.WritePointer(b, nil, 0x20, 0x10)
	write(0x40, lz.Compress(make([]byte, 32)))
	write(0x80, lz.Compress([]byte{0, 0}))
	return b
}

func TestParseConfig(t *testing.T) {
	c, err := ParseConfig([]byte(testConfig))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if !c.DiscoverPointers || len(c.Anchors) != 6 {
		t.Fatalf("config = %+v", c)
	}
	if a := c.Anchors[1]; a.Name != "stats" || a.Address != 0x10 || a.Format != "[hp. kind.names]names" {
		t.Errorf("second anchor = %+v", a)
	}
	if a := c.Anchors[5]; a.Address != 48 || a.Format != "" {
		t.Errorf("last anchor = %+v", a)
	}

	if _, err := ParseConfig([]byte("anchors:\n  - address: 4\n")); err == nil {
		t.Error("anchor without a name accepted")
	}
	if _, err := ParseConfig([]byte("anchors: [")); err == nil {
		t.Error("malformed yaml accepted")
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anchors.yaml")
	if err := os.WriteFile(path, []byte(testConfig), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadConfig(path)
	if err != nil || len(c.Anchors) != 6 {
		t.Fatalf("LoadConfig = %+v, %v", c, err)
	}
}

func TestApply(t *testing.T) {
	c, err := ParseConfig([]byte(testConfig))
	if err != nil {
		t.Fatal(err)
	}
	b := newROM(t)
	token := model.NewChangeToken()
	if err := c.Apply(b, token, nil); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	stats, ok := b.NextRun(0x10).(runs.ArrayRun)
	if !ok || b.AddressOfAnchor("stats") != 0x10 {
		t.Fatalf("stats run = %T", b.NextRun(0x10))
	}
	if stats.ElementCount() != 2 {
		t.Errorf("stats has %d elements, want 2", stats.ElementCount())
	}
	if !slices.Contains(stats.PointerSources(), 0x20) {
		t.Errorf("stats sources = %v, want 0x20 among them", stats.PointerSources())
	}
	if got := stats.Segments()[1].Decode(b, nil, 0x13); got != "A" {
		t.Errorf("second kind = %q, want A", got)
	}

	if _, ok := b.NextRun(0x20).(model.PointerRun); !ok {
		t.Errorf("statsptr run = %T", b.NextRun(0x20))
	}
	if b.AnchorAt(48) != "free" {
		t.Errorf("anchor at 48 = %q", b.AnchorAt(48))
	}

	tilemap, ok := b.NextRun(0x80).(sprites.LzTilemapRun)
	if !ok {
		t.Fatalf("map run = %T", b.NextRun(0x80))
	}
	if address, ok := tilemap.ResolveTileset(b); !ok || address != 0x40 {
		t.Errorf("ResolveTileset = %X, %v", address, ok)
	}
}

func TestApplyErrors(t *testing.T) {
	tests := []struct {
		name   string
		anchor Anchor
		want   error
	}{
		{"unknown format", Anchor{Name: "x", Address: 0, Format: "{}"}, ErrUnknownAnchorFormat},
		{"out of range", Anchor{Name: "x", Address: 0x100}, ErrAnchorOutOfRange},
		{"not compressed", Anchor{Name: "x", Address: 0xC0, Format: "`lzt4`"}, lz.ErrNotCompressed},
		{"bad tilemap tag", Anchor{Name: "x", Address: 0x80, Format: "`lzm4`"}, sprites.ErrBadFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{Anchors: []Anchor{tt.anchor}}
			if err := c.Apply(newROM(t), nil, nil); !errors.Is(err, tt.want) {
				t.Errorf("Apply error = %v, want %v", err, tt.want)
			}
		})
	}

	c := &Config{Anchors: []Anchor{{Name: "x", Address: 0, Format: "[name]2"}}}
	var perr *runs.ParseError
	if err := c.Apply(newROM(t), nil, nil); !errors.As(err, &perr) {
		t.Errorf("bad array format error = %v, want *runs.ParseError", err)
	}
}
