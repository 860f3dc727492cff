package runs

import (
	"strconv"
	"strings"

	"github.com/HimoriK/HexManiacAdvance/model"
)

// ArrayRun is a table of elements sharing one segment layout.
type ArrayRun struct {
	start   int
	format  Format
	text    string // format string, rewritten when a literal count changes
	count   int
	sources []int
	inner   [][]int // per-element sources when format.InnerPointers; inner[0] == sources
}

var (
	_ model.Run            = ArrayRun{}
	_ model.ElementTargets = ArrayRun{}
)

// NewArrayRun parses format and builds an array at start.
//
// The element count depends on the format's length token. A literal is used
// as is. A linked name copies that array's count, or 0 when the name is
// unknown or not an array. With no token, elements are counted from start
// while they validate and stay clear of the next array. A start inside an
// existing array counts no elements.
func NewArrayRun(m model.Model, lk *Lookup, format string, start int, sources []int) (ArrayRun, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return ArrayRun{}, err
	}

	var count int
	switch f.Mode {
	case LengthFixed:
		count = f.Count
	case LengthLinked:
		count = linkedCount(m, f.LengthAnchor)
	default:
		limit := nextArrayStart(m, start+1)
		if containing, ok := m.NextRun(start).(ArrayRun); ok && containing.start < start {
			limit = start
		}
		for start+(count+1)*f.ElementLength <= limit &&
			ElementMatches(m, lk, start+count*f.ElementLength, f.Segments, limit) {
			count++
		}
	}

	return newArrayRun(f, format, start, count, sources), nil
}

func newArrayRun(f Format, text string, start, count int, sources []int) ArrayRun {
	a := ArrayRun{start: start, format: f, text: text, count: count, sources: sources}
	if f.InnerPointers {
		a.inner = make([][]int, max(count, 1))
		a.inner[0] = sources
	}
	return a
}

// linkedCount returns the element count of the array anchored at name, or 0.
func linkedCount(m model.Model, name string) int {
	address := m.AddressOfAnchor(name)
	if address == model.NULL {
		return 0
	}
	array, ok := m.NextRun(address).(ArrayRun)
	if !ok || array.start != address {
		return 0
	}
	return array.count
}

// nextArrayStart returns the start of the first array at or after address,
// or the end of the buffer.
func nextArrayStart(m model.Model, address int) int {
	for r := m.NextRun(address); r.Start() < m.Count(); r = m.NextRun(model.End(r)) {
		if _, ok := r.(ArrayRun); ok && r.Start() >= address {
			return r.Start()
		}
	}
	return m.Count()
}

// ============================================================
// model.Run
// ============================================================

func (a ArrayRun) Start() int            { return a.start }
func (a ArrayRun) Length() int           { return a.format.ElementLength * a.count }
func (a ArrayRun) PointerSources() []int { return a.sources }
func (a ArrayRun) FormatString() string  { return a.text }

// Clone returns the array with new top-level sources. Element 0's inner
// sources follow.
func (a ArrayRun) Clone(sources []int) model.Run { return a.WithSources(sources) }

// Relocated returns the array moved to start.
func (a ArrayRun) Relocated(start int) model.Run { return a.Move(start) }

// ============================================================
// Accessors
// ============================================================

func (a ArrayRun) ElementCount() int      { return a.count }
func (a ArrayRun) ElementLength() int     { return a.format.ElementLength }
func (a ArrayRun) Segments() []Segment    { return a.format.Segments }
func (a ArrayRun) Format() Format         { return a.format }
func (a ArrayRun) LengthMode() LengthMode { return a.format.Mode }
func (a ArrayRun) LengthAnchor() string   { return a.format.LengthAnchor }

// SupportsInnerPointers reports whether pointers may target elements after the first.
func (a ArrayRun) SupportsInnerPointers() bool { return a.format.InnerPointers }

// ElementSources returns the sources pointing at each element, or nil when
// the array does not accept pointers to elements.
func (a ArrayRun) ElementSources() [][]int { return a.inner }

// ElementStart returns the address of element index.
func (a ArrayRun) ElementStart(index int) int {
	return a.start + index*a.format.ElementLength
}

// SegmentOffset returns the offset of a segment within an element, or -1.
func (a ArrayRun) SegmentOffset(name string) int {
	offset := 0
	for _, s := range a.format.Segments {
		if s.Name == name {
			return offset
		}
		offset += s.Length
	}
	return -1
}

// ============================================================
// Mutation
// ============================================================

// Append returns the array grown by n elements. A literal count in the
// format string is rewritten to the new total.
func (a ArrayRun) Append(n int) ArrayRun {
	b := a.copyInner()
	b.count += n
	if a.format.Mode == LengthFixed {
		closeArray := strings.LastIndexByte(a.text, ArrayEnd)
		b.text = a.text[:closeArray+1] + strconv.Itoa(b.count)
		b.format.Count = b.count
	}
	if b.inner != nil {
		for len(b.inner) < max(b.count, 1) {
			b.inner = append(b.inner, nil)
		}
	}
	return b
}

// Move returns the same array starting at start.
func (a ArrayRun) Move(start int) ArrayRun {
	b := a.copyInner()
	b.start = start
	return b
}

// WithSources returns the array with new top-level sources.
func (a ArrayRun) WithSources(sources []int) ArrayRun {
	b := a.copyInner()
	b.sources = sources
	if b.inner != nil {
		b.inner[0] = sources
	}
	return b
}

// AddSource returns the array with source added to its top-level sources.
func (a ArrayRun) AddSource(source int) ArrayRun {
	return a.WithSources(model.AddSource(a.sources, source))
}

// RemoveSource returns the array with source removed from its top-level
// sources and from every element's sources.
func (a ArrayRun) RemoveSource(source int) ArrayRun {
	b := a.WithSources(model.RemoveSource(a.sources, source))
	for i := 1; i < len(b.inner); i++ {
		b.inner[i] = model.RemoveSource(b.inner[i], source)
	}
	return b
}

// AddInnerSource records source as pointing at the element containing
// destination. Element 0 is rejected: its sources are the top-level sources.
func (a ArrayRun) AddInnerSource(source, destination int) (ArrayRun, error) {
	if !a.format.InnerPointers {
		return a, ErrNoInnerPointers
	}
	offset := destination - a.start
	if offset < 0 || offset >= a.Length() {
		return a, ErrIndexOutOfRange
	}
	index := offset / a.format.ElementLength
	if index == 0 {
		return a, ErrTopLevelSource
	}
	b := a.copyInner()
	b.inner[index] = model.AddSource(b.inner[index], source)
	return b, nil
}

// AcceptInnerPointer records a pointer to the start of an element after the first.
func (a ArrayRun) AcceptInnerPointer(source, destination int) (model.Run, bool) {
	if (destination-a.start)%a.format.ElementLength != 0 {
		return a, false
	}
	b, err := a.AddInnerSource(source, destination)
	return b, err == nil
}

// RecomputeInnerSources rescans the buffer for pointers into the array and
// buckets them by element. Element 0 keeps the top-level sources.
func (a ArrayRun) RecomputeInnerSources(m model.Model) ArrayRun {
	if !a.format.InnerPointers {
		return a
	}
	b := a
	b.inner = make([][]int, max(a.count, 1))
	b.inner[0] = a.sources
	for _, source := range m.PointersInto(a.start, a.start+a.Length()) {
		index := (m.ReadPointer(source) - a.start) / a.format.ElementLength
		if index == 0 {
			continue
		}
		b.inner[index] = model.AddSource(b.inner[index], source)
	}
	return b
}

// copyInner returns a copy whose inner bucket list can be changed without
// touching the receiver.
func (a ArrayRun) copyInner() ArrayRun {
	b := a
	if a.inner != nil {
		b.inner = make([][]int, len(a.inner))
		copy(b.inner, a.inner)
	}
	return b
}
