// Package model is the byte store that typed runs are layered on: raw ROM bytes,
// a table of named anchors, and a sorted list of formatted runs.
//
// The rest of the module talks to it through the Model interface so the run
// engines never depend on how the bytes are held.
package model

import "sort"

// Pointer constants. GBA pointers are stored as little-endian words offset
// by the cartridge base address.
const (
	PointerOffset = 0x08000000

	// NULL is the address a raw pointer value of zero reads as.
	NULL = -PointerOffset

	// PointerLength is the byte width of a stored pointer.
	PointerLength = 4
)

// Run is a typed, addressed region of the buffer.
// Runs are values: every change produces a new run.
type Run interface {
	Start() int
	Length() int

	// PointerSources lists the addresses of pointers that target Start.
	PointerSources() []int

	// FormatString is the textual format tag this run was created from.
	FormatString() string

	// Clone returns the same run with a different set of pointer sources.
	Clone(sources []int) Run

	// Relocated returns the same run starting at a new address.
	Relocated(start int) Run
}

// ElementTargets is implemented by runs that accept pointers to positions
// inside themselves, not just to their start.
type ElementTargets interface {
	Run

	// AcceptInnerPointer records source as pointing at destination, which lies
	// inside the run. ok is false when the run refuses the pointer.
	AcceptInnerPointer(source, destination int) (updated Run, ok bool)

	// ElementSources returns the per-element source lists; entry 0 mirrors PointerSources.
	ElementSources() [][]int

	// ElementLength is the distance between element starts.
	ElementLength() int
}

// Model is the capability set the run engines need from a buffer.
type Model interface {
	Count() int
	Byte(index int) byte

	// ReadValue reads a little-endian unsigned value of length bytes.
	ReadValue(start, length int) int

	// ReadPointer reads a stored pointer and returns the address it targets,
	// NULL for a zero word.
	ReadPointer(start int) int

	// AnchorAt returns the anchor name at address, or "".
	AnchorAt(address int) string

	// AddressOfAnchor returns the address of a named anchor, or NULL.
	AddressOfAnchor(name string) int

	// NextRun returns the run containing address, or the first run after it.
	// Past the last run it returns a NoInfoRun starting at Count().
	NextRun(address int) Run

	// NextAnchor returns the first run at or after address that is named or
	// pointed to.
	NextAnchor(address int) Run

	// Runs returns every formatted run in address order.
	Runs() []Run

	// PointersInto returns the address of every stored pointer whose target
	// lies in [start, end).
	PointersInto(start, end int) []int

	ChangeByte(token *ChangeToken, address int, value byte)

	// Relocate makes room for a run to grow to length bytes. It returns the
	// run unchanged when it already fits, otherwise the run moved to free space
	// with all of its sources repointed.
	Relocate(token *ChangeToken, run Run, length int) (Run, error)

	// ObserveRunWritten registers run, replacing any runs it overlaps.
	ObserveRunWritten(token *ChangeToken, run Run)

	// Revision increases whenever bytes, runs or anchors change.
	Revision() uint64
}

// ============================================================
// Basic runs
// ============================================================

// NoInfoRun marks an address that is known (named or pointed to) but has no format.
type NoInfoRun struct {
	start   int
	sources []int
}

// NewNoInfoRun creates an unformatted run at start.
func NewNoInfoRun(start int, sources []int) NoInfoRun {
	return NoInfoRun{start: start, sources: sources}
}

func (r NoInfoRun) Start() int              { return r.start }
func (r NoInfoRun) Length() int             { return 1 }
func (r NoInfoRun) PointerSources() []int   { return r.sources }
func (r NoInfoRun) FormatString() string    { return "" }
func (r NoInfoRun) Clone(sources []int) Run { return NoInfoRun{start: r.start, sources: sources} }
func (r NoInfoRun) Relocated(start int) Run { return NoInfoRun{start: start, sources: r.sources} }

// PointerRun is a stored 4-byte pointer.
type PointerRun struct {
	start   int
	sources []int
}

// NewPointerRun creates a pointer run at start.
func NewPointerRun(start int, sources []int) PointerRun {
	return PointerRun{start: start, sources: sources}
}

func (r PointerRun) Start() int              { return r.start }
func (r PointerRun) Length() int             { return PointerLength }
func (r PointerRun) PointerSources() []int   { return r.sources }
func (r PointerRun) FormatString() string    { return "<>" }
func (r PointerRun) Clone(sources []int) Run { return PointerRun{start: r.start, sources: sources} }
func (r PointerRun) Relocated(start int) Run { return PointerRun{start: start, sources: r.sources} }

// ============================================================
// Helpers
// ============================================================

// WriteValue writes value as a little-endian integer of length bytes.
func WriteValue(m Model, token *ChangeToken, start, length, value int) {
	for i := 0; i < length; i++ {
		m.ChangeByte(token, start+i, byte(value>>(8*i)))
	}
}

// WritePointer stores a pointer to destination at start. NULL writes a zero word.
func WritePointer(m Model, token *ChangeToken, start, destination int) {
	WriteValue(m, token, start, PointerLength, destination+PointerOffset)
}

// AddSource returns sources with source added, keeping the list sorted and unique.
func AddSource(sources []int, source int) []int {
	i := sort.SearchInts(sources, source)
	if i < len(sources) && sources[i] == source {
		return sources
	}
	result := make([]int, 0, len(sources)+1)
	result = append(result, sources[:i]...)
	result = append(result, source)
	return append(result, sources[i:]...)
}

// RemoveSource returns sources without source.
func RemoveSource(sources []int, source int) []int {
	result := make([]int, 0, len(sources))
	for _, s := range sources {
		if s != source {
			result = append(result, s)
		}
	}
	return result
}

// End returns the first address after run, treating empty runs as one byte wide.
func End(run Run) int {
	return run.Start() + max(1, run.Length())
}
