// Package romfile reads ROM images from disk and applies anchor
// configuration to them.
//
// Images may be stored plain or compressed with zstd, xz or lzma. Anchor
// configuration is YAML listing named addresses and their formats.
package romfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HimoriK/HexManiacAdvance/model"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

// Compression identifies how a ROM image is stored.
type Compression int

const (
	None Compression = iota
	Zstd
	XZ
	LZMA
)

func (c Compression) String() string {
	switch c {
	case Zstd:
		return "zstd"
	case XZ:
		return "xz"
	case LZMA:
		return "lzma"
	default:
		return "none"
	}
}

var (
	zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}
	xzMagic   = []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}
)

// Detect picks the compression from the leading bytes of the file, falling
// back to its extension. Raw lzma streams have no magic number.
func Detect(name string, header []byte) Compression {
	switch {
	case bytes.HasPrefix(header, zstdMagic):
		return Zstd
	case bytes.HasPrefix(header, xzMagic):
		return XZ
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".zst", ".zstd":
		return Zstd
	case ".xz":
		return XZ
	case ".lzma":
		return LZMA
	}
	return None
}

// Load reads the ROM at path into a buffer.
func Load(path string) (*model.Buffer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data, err := Decode(raw, Detect(path, raw))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	log.Debug().Str("path", path).Int("size", len(data)).Msg("rom loaded")
	return model.NewBuffer(data), nil
}

// Save writes data to path, compressed according to the path's extension.
func Save(path string, data []byte) error {
	encoded, err := Encode(data, Detect(path, nil))
	if err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return os.WriteFile(path, encoded, 0o644)
}

// Decode undoes compression c.
func Decode(raw []byte, c Compression) ([]byte, error) {
	var r io.Reader
	switch c {
	case None:
		return raw, nil
	case Zstd:
		dec, err := zstd.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("zstd decode: %w", err)
		}
		defer dec.Close()
		r = dec
	case XZ:
		xr, err := xz.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("xz decode: %w", err)
		}
		r = xr
	case LZMA:
		lr, err := lzma.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("lzma decode: %w", err)
		}
		r = lr
	default:
		return nil, errors.New("unknown compression")
	}

	var out bytes.Buffer
	if _, err := out.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("%s decode: %w", c, err)
	}
	return out.Bytes(), nil
}

// Encode applies compression c.
func Encode(data []byte, c Compression) ([]byte, error) {
	var buf bytes.Buffer
	var w io.WriteCloser
	var err error
	switch c {
	case None:
		return data, nil
	case Zstd:
		w, err = zstd.NewWriter(&buf)
	case XZ:
		w, err = xz.NewWriter(&buf)
	case LZMA:
		w, err = lzma.NewWriter(&buf)
	default:
		return nil, errors.New("unknown compression")
	}
	if err != nil {
		return nil, fmt.Errorf("%s encode: %w", c, err)
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("%s encode: %w", c, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%s encode: %w", c, err)
	}
	return buf.Bytes(), nil
}
