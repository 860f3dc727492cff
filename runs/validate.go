package runs

import (
	"github.com/HimoriK/HexManiacAdvance/model"
	"github.com/HimoriK/HexManiacAdvance/pcs"
)

// ElementMatches reports whether the bytes at start could hold one element
// with the given segments. No segment may cross limit, the start of the
// next region the element must stay clear of.
func ElementMatches(m model.Model, lk *Lookup, start int, segments []Segment, limit int) bool {
	for _, s := range segments {
		if start+s.Length > m.Count() || start+s.Length > limit {
			return false
		}
		if !segmentMatches(m, lk, start, s) {
			return false
		}
		start += s.Length
	}
	return true
}

func segmentMatches(m model.Model, lk *Lookup, start int, s Segment) bool {
	switch s.Kind {
	case KindText:
		length := pcs.ReadString(m, start, s.Length)
		if length == -1 {
			return false
		}
		unused := true
		for i := start; i < start+s.Length; i++ {
			if m.Byte(i) != 0xFF {
				unused = false
				break
			}
		}
		if unused {
			return false
		}
		for i := start + length; i < start+s.Length; i++ {
			if b := m.Byte(i); b != 0x00 && b != 0xFF {
				return false
			}
		}
		return true
	case KindEnum:
		options, _ := lk.Options(m, s.EnumName)
		return ToInteger(m, start, s.Length) < len(options)
	case KindPointer:
		destination := m.ReadPointer(start)
		return destination == model.NULL || 0 <= destination && destination <= m.Count()
	default:
		return true
	}
}
