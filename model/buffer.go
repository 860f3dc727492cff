package model

import (
	"sort"

	"github.com/rs/zerolog/log"
)

// Buffer is the in-memory Model: raw bytes, anchors and sorted runs.
type Buffer struct {
	data     []byte
	runs     []Run          // sorted by Start, never overlapping
	names    map[string]int // anchor name → address
	anchors  map[int]string // address → anchor name
	revision uint64
}

// NewBuffer creates a buffer over a copy of data.
func NewBuffer(data []byte) *Buffer {
	b := &Buffer{
		data:    make([]byte, len(data)),
		names:   make(map[string]int),
		anchors: make(map[int]string),
	}
	copy(b.data, data)
	return b
}

// Count returns the number of bytes in the buffer.
func (b *Buffer) Count() int {
	return len(b.data)
}

// Byte returns the byte at index.
func (b *Buffer) Byte(index int) byte {
	return b.data[index]
}

// Bytes returns a copy of the buffer contents.
func (b *Buffer) Bytes() []byte {
	result := make([]byte, len(b.data))
	copy(result, b.data)
	return result
}

// ReadValue reads a little-endian unsigned value. Bytes past the end read as zero.
func (b *Buffer) ReadValue(start, length int) int {
	result := 0
	for i := length - 1; i >= 0; i-- {
		result <<= 8
		if start+i >= 0 && start+i < len(b.data) {
			result |= int(b.data[start+i])
		}
	}
	return result
}

// ReadPointer returns the address targeted by the pointer stored at start.
func (b *Buffer) ReadPointer(start int) int {
	return b.ReadValue(start, PointerLength) - PointerOffset
}

// AnchorAt returns the name anchored at address, or "".
func (b *Buffer) AnchorAt(address int) string {
	return b.anchors[address]
}

// AddressOfAnchor returns the address of a named anchor, or NULL.
func (b *Buffer) AddressOfAnchor(name string) int {
	if address, ok := b.names[name]; ok {
		return address
	}
	return NULL
}

// Revision increases on every change to bytes, runs or anchors.
func (b *Buffer) Revision() uint64 {
	return b.revision
}

// NextRun returns the run containing address, or the first run after it.
func (b *Buffer) NextRun(address int) Run {
	i := sort.Search(len(b.runs), func(i int) bool { return End(b.runs[i]) > address })
	if i == len(b.runs) {
		return NoInfoRun{start: len(b.data)}
	}
	return b.runs[i]
}

// NextAnchor returns the first named or pointed-to run starting at or after address.
func (b *Buffer) NextAnchor(address int) Run {
	i := sort.Search(len(b.runs), func(i int) bool { return b.runs[i].Start() >= address })
	for ; i < len(b.runs); i++ {
		r := b.runs[i]
		if len(r.PointerSources()) > 0 || b.anchors[r.Start()] != "" {
			return r
		}
	}
	return NoInfoRun{start: len(b.data)}
}

// Runs returns every run in address order.
func (b *Buffer) Runs() []Run {
	result := make([]Run, len(b.runs))
	copy(result, b.runs)
	return result
}

// PointersInto scans every aligned word for pointers targeting [start, end).
func (b *Buffer) PointersInto(start, end int) []int {
	var sources []int
	for a := 0; a+PointerLength <= len(b.data); a += PointerLength {
		destination := b.ReadPointer(a)
		if destination >= start && destination < end {
			sources = append(sources, a)
		}
	}
	return sources
}

// ChangeByte changes one byte, recording the edit on token.
func (b *Buffer) ChangeByte(token *ChangeToken, address int, value byte) {
	if address < 0 || address >= len(b.data) {
		return
	}
	token.Record(address, b.data[address], value)
	b.data[address] = value
	b.revision++
}

// ============================================================
// Run bookkeeping
// ============================================================

// ObserveRunWritten registers run, replacing overlapping runs.
// Sources of a replaced run at the same start carry over.
func (b *Buffer) ObserveRunWritten(token *ChangeToken, run Run) {
	start, end := run.Start(), End(run)
	kept := make([]Run, 0, len(b.runs)+1)
	for _, r := range b.runs {
		if r.Start() < end && End(r) > start {
			if r.Start() == start {
				sources := run.PointerSources()
				for _, s := range r.PointerSources() {
					sources = AddSource(sources, s)
				}
				run = run.Clone(sources)
			}
			continue
		}
		kept = append(kept, r)
	}
	b.runs = kept
	b.insert(run)
	b.revision++

	if _, ok := run.(PointerRun); ok {
		b.addSource(run.Start(), b.ReadPointer(run.Start()))
	}
}

// ObserveAnchorWritten names run's start and registers the run.
// An existing anchor with the same name moves.
func (b *Buffer) ObserveAnchorWritten(token *ChangeToken, name string, run Run) {
	if old, ok := b.names[name]; ok {
		delete(b.anchors, old)
	}
	if oldName, ok := b.anchors[run.Start()]; ok {
		delete(b.names, oldName)
	}
	b.names[name] = run.Start()
	b.anchors[run.Start()] = name
	b.ObserveRunWritten(token, run)
}

// AddAnchor names address, creating an unformatted run there if none starts there.
func (b *Buffer) AddAnchor(token *ChangeToken, name string, address int) {
	run := b.NextRun(address)
	if run.Start() != address {
		run = NoInfoRun{start: address}
	}
	b.ObserveAnchorWritten(token, name, run)
}

// DiscoverPointers registers a PointerRun for every aligned word not already
// inside a formatted run whose value points into the buffer.
// It returns the number of pointers found.
func (b *Buffer) DiscoverPointers(token *ChangeToken) int {
	found := 0
	for a := 0; a+PointerLength <= len(b.data); a += PointerLength {
		if r := b.NextRun(a); r.Start() <= a {
			if _, blank := r.(NoInfoRun); !blank {
				continue
			}
		}
		value := b.ReadValue(a, PointerLength)
		if value < PointerOffset || value-PointerOffset >= len(b.data) {
			continue
		}
		b.ObserveRunWritten(token, PointerRun{start: a})
		found++
	}
	log.Debug().Int("pointers", found).Msg("pointer discovery finished")
	return found
}

// addSource records source as pointing at destination.
func (b *Buffer) addSource(source, destination int) {
	if destination < 0 || destination >= len(b.data) {
		return
	}
	run := b.NextRun(destination)
	switch {
	case run.Start() == destination:
		b.replace(run.Clone(AddSource(run.PointerSources(), source)))
	case run.Start() < destination:
		if et, ok := run.(ElementTargets); ok {
			if updated, ok := et.AcceptInnerPointer(source, destination); ok {
				b.replace(updated)
			}
		}
	default:
		b.insert(NoInfoRun{start: destination, sources: []int{source}})
	}
}

func (b *Buffer) insert(run Run) {
	i := sort.Search(len(b.runs), func(i int) bool { return b.runs[i].Start() >= run.Start() })
	b.runs = append(b.runs, nil)
	copy(b.runs[i+1:], b.runs[i:])
	b.runs[i] = run
}

func (b *Buffer) replace(run Run) {
	i := sort.Search(len(b.runs), func(i int) bool { return b.runs[i].Start() >= run.Start() })
	if i < len(b.runs) && b.runs[i].Start() == run.Start() {
		b.runs[i] = run
		b.revision++
	}
}

func (b *Buffer) indexOf(start int) int {
	i := sort.Search(len(b.runs), func(i int) bool { return b.runs[i].Start() >= start })
	if i < len(b.runs) && b.runs[i].Start() == start {
		return i
	}
	return -1
}

// ============================================================
// Relocation
// ============================================================

// Relocate moves run to free space large enough for length bytes.
// The run's bytes are copied, the old region is filled with 0xFF and every
// source is repointed.
func (b *Buffer) Relocate(token *ChangeToken, run Run, length int) (Run, error) {
	if length <= run.Length() {
		return run, nil
	}
	index := b.indexOf(run.Start())
	if index == -1 {
		return nil, ErrUnknownRun
	}
	newStart := b.findFreeSpace(length)
	if newStart == -1 {
		newStart = alignUp(len(b.data))
		grown := make([]byte, newStart+length)
		copy(grown, b.data)
		for i := len(b.data); i < len(grown); i++ {
			grown[i] = 0xFF
		}
		b.data = grown
		log.Debug().Int("size", len(b.data)).Msg("buffer expanded for relocation")
	}

	oldStart := run.Start()
	for i := 0; i < run.Length(); i++ {
		b.ChangeByte(token, newStart+i, b.data[oldStart+i])
		b.ChangeByte(token, oldStart+i, 0xFF)
	}
	for _, source := range run.PointerSources() {
		WritePointer(b, token, source, newStart)
	}
	if et, ok := run.(ElementTargets); ok {
		for i, sources := range et.ElementSources() {
			if i == 0 {
				continue
			}
			for _, source := range sources {
				WritePointer(b, token, source, newStart+i*et.ElementLength())
			}
		}
	}

	b.runs = append(b.runs[:index], b.runs[index+1:]...)
	moved := run.Relocated(newStart)
	b.insert(moved)
	if name, ok := b.anchors[oldStart]; ok {
		delete(b.anchors, oldStart)
		b.anchors[newStart] = name
		b.names[name] = newStart
	}
	b.revision++

	log.Debug().
		Int("from", oldStart).
		Int("to", newStart).
		Int("length", length).
		Msg("run relocated")
	return moved, nil
}

// findFreeSpace returns an aligned address with length bytes of 0xFF and no runs, or -1.
func (b *Buffer) findFreeSpace(length int) int {
	for a := 0; a+length <= len(b.data); {
		dirty := -1
		for i := a + length - 1; i >= a; i-- {
			if b.data[i] != 0xFF {
				dirty = i
				break
			}
		}
		if dirty != -1 {
			a = alignUp(dirty + 1)
			continue
		}
		if r := b.NextRun(a); r.Start() < a+length {
			a = alignUp(End(r))
			continue
		}
		return a
	}
	return -1
}

func alignUp(address int) int {
	return (address + 3) &^ 3
}
