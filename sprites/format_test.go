package sprites

import (
	"errors"
	"testing"
)

func TestParseTilemapFormat(t *testing.T) {
	tests := []struct {
		text    string
		want    TilemapFormat
		wantErr bool
	}{
		{text: "`lzm4x30x20|tiles`", want: TilemapFormat{4, 30, 20, "tiles", ""}},
		{text: "`lzm8x2x1|graphics|sheet`", want: TilemapFormat{8, 2, 1, "graphics", "sheet"}},
		{text: "`lzm4x1x1`", want: TilemapFormat{4, 1, 1, "", ""}},
		{text: "`lzm5x1x1`", wantErr: true},
		{text: "`lzm4x0x1`", wantErr: true},
		{text: "`lzm4x1`", wantErr: true},
		{text: "`lzm4x1x1|a|b|c`", wantErr: true},
		{text: "lzm4x1x1", wantErr: true},
		{text: "`lzt4`", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseTilemapFormat(tt.text)
		if tt.wantErr {
			if !errors.Is(err, ErrBadFormat) {
				t.Errorf("ParseTilemapFormat(%s) error = %v, want ErrBadFormat", tt.text, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTilemapFormat(%s): %v", tt.text, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTilemapFormat(%s) = %+v, want %+v", tt.text, got, tt.want)
		}
		if got.String() != tt.text {
			t.Errorf("String() = %s, want %s", got.String(), tt.text)
		}
	}
}

func TestParseTilesetFormat(t *testing.T) {
	if f, err := ParseTilesetFormat("`lzt8`"); err != nil || f.BitsPerPixel != 8 || f.String() != "`lzt8`" {
		t.Errorf("ParseTilesetFormat = %+v, %v", f, err)
	}
	if f, err := ParseTilesetFormat("`lzt4|pal`"); err != nil || f.PaletteHint != "pal" || f.String() != "`lzt4|pal`" {
		t.Errorf("ParseTilesetFormat with palette = %+v, %v", f, err)
	}
	for _, text := range []string{"`lzt`", "`lzt2`", "lzt4", "`lzm4x1x1`", "`lzt4|`"} {
		if IsTilesetFormat(text) {
			t.Errorf("%s accepted as a tileset", text)
		}
	}
	if !IsTilemapFormat("`lzm4x1x1|t`") {
		t.Error("tilemap tag rejected")
	}
}
