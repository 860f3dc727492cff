// hma - typed run inspector for GBA ROM images
//
// Usage:
//
//	hma info <rom>                                          Print the cartridge header
//	hma table [options] <rom> <anchor>                      Print an array as text
//	hma search [options] <rom> <format>                     Find an array by format
//	hma headers [options] <rom> <address>                   Print column headers
//	hma tilemap export [options] <rom> <anchor> <png>       Draw a tilemap to PNG
//	hma tilemap import [options] <rom> <anchor> <png> <out> Write a PNG into a tilemap
//	hma version                                             Print version info
//
// ROM images may be plain or compressed with zstd, xz or lzma.
package main

import (
	"fmt"
	"image/png"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/HimoriK/HexManiacAdvance/model"
	"github.com/HimoriK/HexManiacAdvance/romfile"
	"github.com/HimoriK/HexManiacAdvance/runs"
	"github.com/HimoriK/HexManiacAdvance/sprites"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

const version = "0.1.0"

type options struct {
	config     string
	width      int
	minSources int
	verbose    bool
	args       []string
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	rest := os.Args[2:]
	if cmd == "tilemap" {
		if len(rest) < 1 {
			fatal("tilemap: missing subcommand (export, import)")
		}
		cmd, rest = "tilemap "+rest[0], rest[1:]
	}
	opts := parseOptions(rest)
	setupLogging(opts.verbose)

	switch cmd {
	case "info":
		cmdInfo(opts)
	case "table":
		cmdTable(opts)
	case "search":
		cmdSearch(opts)
	case "headers":
		cmdHeaders(opts)
	case "tilemap export":
		cmdTilemapExport(opts)
	case "tilemap import":
		cmdTilemapImport(opts)
	case "version", "--version":
		fmt.Printf("hma %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `hma - typed run inspector for GBA ROM images

Usage:
  hma info <rom>                                          Print the cartridge header
  hma table [options] <rom> <anchor>                      Print an array as text
  hma search [options] <rom> <format>                     Find an array by format
  hma headers [options] <rom> <address>                   Print column headers
  hma tilemap export [options] <rom> <anchor> <png>       Draw a tilemap to PNG
  hma tilemap import [options] <rom> <anchor> <png> <out> Write a PNG into a tilemap
  hma version                                             Print version info

Options:
  --config=FILE       YAML anchor configuration applied after loading
  --width=N           Row width in bytes for headers (default: 16)
  --min-sources=N     Minimum pointers to a search result (default: 1)
  -v                  Debug logging

Examples:
  hma table --config=emerald.yaml emerald.gba stats
  hma search emerald.gba '[name""11 ptr<>]'
  hma tilemap export --config=emerald.yaml emerald.gba.zst title title.png
`)
}

func parseOptions(args []string) options {
	opts := options{width: 16, minSources: 1}
	for _, arg := range args {
		switch {
		case arg == "-v" || arg == "--verbose":
			opts.verbose = true
		case strings.HasPrefix(arg, "--config="):
			opts.config = strings.TrimPrefix(arg, "--config=")
		case strings.HasPrefix(arg, "--width="):
			opts.width = parseIntArg(arg, "--width=")
		case strings.HasPrefix(arg, "--min-sources="):
			opts.minSources = parseIntArg(arg, "--min-sources=")
		default:
			opts.args = append(opts.args, arg)
		}
	}
	return opts
}

func setupLogging(verbose bool) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

// load reads the ROM and applies the configuration, if any.
func load(opts options, token *model.ChangeToken) (*model.Buffer, *runs.Lookup) {
	b, err := romfile.Load(opts.args[0])
	if err != nil {
		fatal("%v", err)
	}
	lk := runs.NewLookup(runs.DefaultLookupSize)
	if opts.config != "" {
		c, err := romfile.LoadConfig(opts.config)
		if err != nil {
			fatal("%v", err)
		}
		if err := c.Apply(b, token, lk); err != nil {
			fatal("apply %s: %v", opts.config, err)
		}
	}
	return b, lk
}

func requireArgs(opts options, n int, usage string) {
	if len(opts.args) != n {
		fatal("usage: hma %s", usage)
	}
}

func anchorRun(b *model.Buffer, name string) model.Run {
	address := b.AddressOfAnchor(name)
	if address == model.NULL {
		fatal("no anchor named %s", name)
	}
	return b.NextRun(address)
}

func cmdInfo(opts options) {
	requireArgs(opts, 1, "info <rom>")
	b, _ := load(opts, nil)
	data := b.Bytes()
	h, err := romfile.ReadHeader(data)
	if err != nil {
		fatal("%v", err)
	}
	status := "ok"
	if !romfile.VerifyHeader(data) {
		status = "bad"
	}
	fmt.Printf("title:    %s\n", h.Title)
	fmt.Printf("code:     %s\n", h.GameCode)
	fmt.Printf("maker:    %s\n", h.Maker)
	fmt.Printf("version:  %d\n", h.Version)
	fmt.Printf("checksum: %02X (%s)\n", h.Checksum, status)
	fmt.Printf("crc32:    %08X\n", romfile.CRC32(data))
	fmt.Printf("size:     %d bytes\n", len(data))
}

func cmdTable(opts options) {
	requireArgs(opts, 2, "table [options] <rom> <anchor>")
	b, lk := load(opts, nil)
	array, ok := anchorRun(b, opts.args[1]).(runs.ArrayRun)
	if !ok {
		fatal("%s is not an array", opts.args[1])
	}

	names := array.ElementNames(b, lk)
	text := array.ExportText(b, lk, array.Start(), array.Length())
	for i, line := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		if i < len(names) {
			fmt.Printf("%-12s %s\n", names[i], line)
		} else {
			fmt.Println(line)
		}
	}
}

func cmdSearch(opts options) {
	requireArgs(opts, 2, "search [options] <rom> <format>")
	b, lk := load(opts, nil)
	if opts.config == "" {
		b.DiscoverPointers(nil)
	}
	array, err := runs.Search(b, lk, opts.args[1], runs.MinSources(opts.minSources))
	if err != nil {
		fatal("search %s: %v", opts.args[1], err)
	}
	fmt.Printf("%06X %s (%d elements, %d pointers)\n",
		array.Start(), array.FormatString(), array.ElementCount(), len(array.PointerSources()))
}

func cmdHeaders(opts options) {
	requireArgs(opts, 2, "headers [options] <rom> <address>")
	b, _ := load(opts, nil)
	address, err := strconv.ParseInt(opts.args[1], 16, 64)
	if err != nil {
		fatal("address %s: %v", opts.args[1], err)
	}

	rows := runs.DefaultHeaderRows(opts.width, int(address))
	if array, ok := b.NextRun(int(address)).(runs.ArrayRun); ok && array.Start() <= int(address) {
		if custom, ok := array.HeaderRows(opts.width, int(address)); ok {
			rows = custom
		}
	}
	for _, row := range rows {
		fmt.Println(row.String())
	}
}

func tilemapRun(b *model.Buffer, name string) sprites.LzTilemapRun {
	tilemap, ok := anchorRun(b, name).(sprites.LzTilemapRun)
	if !ok {
		fatal("%s is not a tilemap", name)
	}
	return tilemap
}

func cmdTilemapExport(opts options) {
	requireArgs(opts, 3, "tilemap export [options] <rom> <anchor> <png>")
	b, _ := load(opts, nil)
	bm, err := tilemapRun(b, opts.args[1]).Pixels(b)
	if err != nil {
		fatal("draw %s: %v", opts.args[1], err)
	}

	f, err := os.Create(opts.args[2])
	if err != nil {
		fatal("create file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, bm.Paletted(sprites.GrayPalette())); err != nil {
		fatal("encode png: %v", err)
	}
}

func cmdTilemapImport(opts options) {
	requireArgs(opts, 4, "tilemap import [options] <rom> <anchor> <png> <out>")
	token := model.NewChangeToken()
	b, _ := load(opts, token)
	tilemap := tilemapRun(b, opts.args[1])
	if !tilemap.SupportsImport(b) {
		fatal("%s has no tileset to import into", opts.args[1])
	}

	f, err := os.Open(opts.args[2])
	if err != nil {
		fatal("open file: %v", err)
	}
	img, err := png.Decode(f)
	f.Close()
	if err != nil {
		fatal("decode png: %v", err)
	}

	written, err := tilemap.SetPixels(b, token, sprites.BitmapFromImage(img, sprites.GrayPalette()))
	if err != nil {
		fatal("import %s: %v", opts.args[1], err)
	}
	if err := romfile.Save(opts.args[3], b.Bytes()); err != nil {
		fatal("%v", err)
	}
	log.Info().
		Str("anchor", opts.args[1]).
		Str("start", fmt.Sprintf("%06X", written.Start())).
		Int("changes", len(token.Changes())).
		Msg("tilemap imported")
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "hma: "+format+"\n", args...)
	os.Exit(1)
}

func parseIntArg(arg, prefix string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(arg, prefix))
	if err != nil {
		fatal("invalid %s: %v", strings.TrimSuffix(prefix, "="), err)
	}
	return n
}
