package runs

import (
	"slices"
	"strings"

	"github.com/HimoriK/HexManiacAdvance/model"
)

// ArrayOffset locates an address inside an array.
type ArrayOffset struct {
	ElementIndex  int
	SegmentIndex  int
	SegmentStart  int // address where the segment starts
	SegmentOffset int // distance from SegmentStart
}

// OffsetAt maps an address inside the array to its element and segment.
func (a ArrayRun) OffsetAt(address int) ArrayOffset {
	offset := address - a.start
	elementIndex := offset / a.format.ElementLength
	segmentOffset := offset % a.format.ElementLength
	segmentIndex := 0
	for a.format.Segments[segmentIndex].Length <= segmentOffset {
		segmentOffset -= a.format.Segments[segmentIndex].Length
		segmentIndex++
	}
	return ArrayOffset{
		ElementIndex:  elementIndex,
		SegmentIndex:  segmentIndex,
		SegmentStart:  address - segmentOffset,
		SegmentOffset: segmentOffset,
	}
}

// Cell is the decoded content of the segment covering one address.
type Cell struct {
	Kind         Kind
	Name         string
	SegmentStart int
	Offset       int    // address - SegmentStart
	Length       int    // segment length
	Text         string // display text
	Value        int    // integer and enum segments
	Destination  int    // pointer segments
}

// CellAt decodes the segment covering address.
func (a ArrayRun) CellAt(m model.Model, lk *Lookup, address int) Cell {
	offsets := a.OffsetAt(address)
	segment := a.format.Segments[offsets.SegmentIndex]
	cell := Cell{
		Kind:         segment.Kind,
		Name:         segment.Name,
		SegmentStart: offsets.SegmentStart,
		Offset:       offsets.SegmentOffset,
		Length:       segment.Length,
		Text:         segment.Decode(m, lk, offsets.SegmentStart),
	}
	switch segment.Kind {
	case KindInteger, KindEnum:
		cell.Value = ToInteger(m, offsets.SegmentStart, segment.Length)
	case KindPointer:
		cell.Destination = m.ReadPointer(offsets.SegmentStart)
	}
	return cell
}

// ExportText writes the elements covering [start, start+length) as text,
// one element per line. Lines that begin with an element's first segment
// start with '+'. Export stops at the end of the buffer.
func (a ArrayRun) ExportText(m model.Model, lk *Lookup, start, length int) string {
	var sb strings.Builder
	offsets := a.OffsetAt(start)
	length += offsets.SegmentOffset
	length = min(length, m.Count()-offsets.SegmentStart)
	for i := offsets.ElementIndex; i < a.count && length > 0; i++ {
		address := a.ElementStart(i)
		if offsets.SegmentIndex == 0 {
			sb.WriteRune(ExtendArray)
		}
		for j := 0; j < offsets.SegmentIndex; j++ {
			address += a.format.Segments[j].Length
		}
		for j := offsets.SegmentIndex; j < len(a.format.Segments) && length > 0; j++ {
			segment := a.format.Segments[j]
			sb.WriteString(strings.TrimSpace(segment.Decode(m, lk, address)))
			sb.WriteByte(' ')
			address += segment.Length
			length -= segment.Length
		}
		sb.WriteByte('\n')
		offsets = ArrayOffset{}
	}
	return sb.String()
}

// ElementNames names the elements of an array whose count is linked to a
// text array, using that array's text. Names keep their quotes only when
// they contain a space. Other arrays have no names.
func (a ArrayRun) ElementNames(m model.Model, lk *Lookup) []string {
	if a.format.Mode != LengthLinked {
		return nil
	}
	options, ok := lk.Options(m, a.format.LengthAnchor)
	if !ok {
		return nil
	}
	return slices.Clone(options[:min(len(options), a.count)])
}
