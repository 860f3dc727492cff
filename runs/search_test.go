package runs

import (
	"errors"
	"testing"

	"github.com/HimoriK/HexManiacAdvance/model"
)

func TestSearchUnknownLength(t *testing.T) {
	b := newTestBuffer(t, 0x100)
	for i := 0; i < 20; i++ {
		model.WritePointer(b, nil, 0x40+i*4, 0x10)
	}
	b.AddAnchor(nil, "good", 0x40)
	b.AddAnchor(nil, "bad", 0xA0)
	b.AddAnchor(nil, "short", 0xC0)
	model.WritePointer(b, nil, 0xC0, 0x10)

	array, err := Search(b, nil, `[p<>]`, nil)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if array.Start() != 0x40 || array.ElementCount() != 20 {
		t.Errorf("found %d elements at %X, want 20 at 40", array.ElementCount(), array.Start())
	}
	if array.FormatString() != `[p<>]20` || array.LengthMode() != LengthFixed {
		t.Errorf("format = %q mode %v", array.FormatString(), array.LengthMode())
	}
}

func TestSearchUnknownLengthNotFound(t *testing.T) {
	b := newTestBuffer(t, 0x100)
	b.AddAnchor(nil, "bad", 0x40)
	b.AddAnchor(nil, "worse", 0x80)

	if _, err := Search(b, nil, `[p<>]`, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestSearchStopsAtNextAnchor(t *testing.T) {
	b := newTestBuffer(t, 0x100)
	for i := 0; i < 10; i++ {
		writeText(t, b, 0x40+i*4, 4, "Ab")
	}
	b.AddAnchor(nil, "first", 0x40)
	b.AddAnchor(nil, "second", 0x50)

	array, err := Search(b, nil, `[name""4]`, nil)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if array.Start() != 0x50 || array.ElementCount() != 6 {
		t.Errorf("found %d at %X, want 6 at 50", array.ElementCount(), array.Start())
	}
}

// newSearchBuffer has pointers at 0x00 (to junk at 0x40) and 0x04 (to four
// valid pointers at 0x80), plus a 4-element text array at 0xC0.
func newSearchBuffer(t *testing.T) *model.Buffer {
	t.Helper()
	b := newTestBuffer(t, 0x100)
	for i := 0; i < 4; i++ {
		model.WritePointer(b, nil, 0x80+i*4, 0x10)
	}
	model.WritePointer(b, nil, 0x00, 0x40)
	model.WritePointer(b, nil, 0x04, 0x80)
	b.ObserveRunWritten(nil, model.NewPointerRun(0x00, nil))
	b.ObserveRunWritten(nil, model.NewPointerRun(0x04, nil))
	addNames(t, b, "names", 0xC0, "A", "B", "C", "D")
	return b
}

func TestSearchKnownLength(t *testing.T) {
	tests := []struct {
		format string
		count  int
	}{
		{`[p<>]4`, 4},
		{`[p<>]names`, 4},
		{`^[p<>]3`, 3},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			b := newSearchBuffer(t)
			array, err := Search(b, nil, tt.format, nil)
			if err != nil {
				t.Fatalf("Search error: %v", err)
			}
			if array.Start() != 0x80 || array.ElementCount() != tt.count {
				t.Errorf("found %d at %X, want %d at 80", array.ElementCount(), array.Start(), tt.count)
			}
			if array.FormatString() != tt.format {
				t.Errorf("format = %q", array.FormatString())
			}
			if len(array.PointerSources()) != 1 || array.PointerSources()[0] != 0x04 {
				t.Errorf("sources = %v", array.PointerSources())
			}
		})
	}
}

func TestSearchKnownLengthNotFound(t *testing.T) {
	tests := []struct {
		name   string
		format string
		filter RunFilter
	}{
		{"too long", `[p<>]40`, nil},
		{"filtered", `[p<>]4`, MinSources(2)},
		{"unknown link", `[p<>]missing`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newSearchBuffer(t)
			if _, err := Search(b, nil, tt.format, tt.filter); !errors.Is(err, ErrNotFound) {
				t.Errorf("got %v, want ErrNotFound", err)
			}
		})
	}
}

func TestSearchSkipsExistingArrays(t *testing.T) {
	b := newSearchBuffer(t)
	addArray(t, b, "taken", `[p<>]4`, 0x80)

	if _, err := Search(b, nil, `[p<>]4`, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestSearchBadFormat(t *testing.T) {
	b := newTestBuffer(t, 0x10)
	var pe *ParseError
	if _, err := Search(b, nil, `[p?]`, nil); !errors.As(err, &pe) {
		t.Errorf("got %v, want *ParseError", err)
	}
}
