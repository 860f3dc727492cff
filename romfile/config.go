package romfile

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/HimoriK/HexManiacAdvance/model"
	"github.com/HimoriK/HexManiacAdvance/runs"
	"github.com/HimoriK/HexManiacAdvance/sprites"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config errors
var (
	ErrUnknownAnchorFormat = errors.New("unknown anchor format")
	ErrAnchorOutOfRange    = errors.New("anchor address outside the rom")
)

// Anchor names an address and optionally gives it a format.
type Anchor struct {
	Name    string `yaml:"name"`
	Address int    `yaml:"address"`
	Format  string `yaml:"format"`
}

// Config is the anchor list applied to a ROM after loading.
type Config struct {
	// DiscoverPointers registers every pointer-like word before anchors
	// are applied, so anchored runs start with their sources.
	DiscoverPointers bool     `yaml:"discover_pointers"`
	Anchors          []Anchor `yaml:"anchors"`
}

// ParseConfig decodes a YAML anchor configuration.
func ParseConfig(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	for i, a := range c.Anchors {
		if a.Name == "" {
			return nil, fmt.Errorf("parse config: anchor %d has no name", i)
		}
	}
	return &c, nil
}

// LoadConfig reads and decodes the configuration at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

// Apply registers every anchor in order. Linked arrays must come after the
// array they take their length from.
func (c *Config) Apply(b *model.Buffer, token *model.ChangeToken, lk *runs.Lookup) error {
	if c.DiscoverPointers {
		b.DiscoverPointers(token)
	}
	for _, a := range c.Anchors {
		if err := applyAnchor(b, token, lk, a); err != nil {
			return fmt.Errorf("anchor %s: %w", a.Name, err)
		}
		log.Debug().Str("anchor", a.Name).Int("address", a.Address).Str("format", a.Format).Msg("anchor applied")
	}
	return nil
}

func applyAnchor(b *model.Buffer, token *model.ChangeToken, lk *runs.Lookup, a Anchor) error {
	if a.Address < 0 || a.Address >= b.Count() {
		return fmt.Errorf("%w: %06X", ErrAnchorOutOfRange, a.Address)
	}

	var sources []int
	if existing := b.NextRun(a.Address); existing.Start() == a.Address {
		sources = existing.PointerSources()
	}

	var run model.Run
	var err error
	switch format := a.Format; {
	case format == "":
		b.AddAnchor(token, a.Name, a.Address)
		return nil
	case runs.IsArrayFormat(format):
		var array runs.ArrayRun
		array, err = runs.NewArrayRun(b, lk, format, a.Address, sources)
		if err == nil && array.SupportsInnerPointers() {
			array = array.RecomputeInnerSources(b)
		}
		run = array
	case strings.HasPrefix(format, "`"+sprites.TilemapPrefix):
		run, err = sprites.NewLzTilemapRun(b, format, a.Address, sources)
	case strings.HasPrefix(format, "`"+sprites.TilesetPrefix):
		run, err = sprites.NewLzTilesetRun(b, format, a.Address, sources)
	case format == "<>":
		run = model.NewPointerRun(a.Address, sources)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAnchorFormat, format)
	}
	if err != nil {
		return err
	}
	b.ObserveAnchorWritten(token, a.Name, run)
	return nil
}
