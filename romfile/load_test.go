package romfile

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name   string
		header []byte
		want   Compression
	}{
		{"rom.gba", []byte{0x2E, 0x00, 0x00, 0xEA}, None},
		{"rom.gba", []byte{0x28, 0xB5, 0x2F, 0xFD, 0x00}, Zstd},
		{"rom.gba", []byte{0xFD, '7', 'z', 'X', 'Z', 0x00, 0x00}, XZ},
		{"rom.ZST", nil, Zstd},
		{"rom.xz", nil, XZ},
		{"rom.lzma", []byte{0x5D, 0x00}, LZMA},
		{"rom", nil, None},
	}
	for _, tt := range tests {
		if got := Detect(tt.name, tt.header); got != tt.want {
			t.Errorf("Detect(%s, % X) = %v, want %v", tt.name, tt.header, got, tt.want)
		}
	}
}

func TestSaveLoad(t *testing.T) {
	data := bytes.Repeat([]byte("POKEMON EMER\x00\x01\x02\xFF"), 256)
	dir := t.TempDir()

	tests := []struct {
		file  string
		magic Compression
	}{
		{"plain.gba", None},
		{"rom.gba.zst", Zstd},
		{"rom.gba.xz", XZ},
		{"rom.gba.lzma", None},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			if err := Save(path, data); err != nil {
				t.Fatalf("Save: %v", err)
			}
			raw, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if got := Detect("rom", raw); got != tt.magic {
				t.Errorf("saved file detected as %v, want %v", got, tt.magic)
			}

			b, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if !bytes.Equal(b.Bytes(), data) {
				t.Errorf("Load returned %d bytes, want %d", b.Count(), len(data))
			}
		})
	}
}

func TestLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.xz")
	if err := os.WriteFile(path, []byte("not xz at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load accepted a corrupt xz file")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.gba")); !os.IsNotExist(err) {
		t.Errorf("missing file error = %v", err)
	}
}
