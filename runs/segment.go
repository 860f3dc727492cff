package runs

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/HimoriK/HexManiacAdvance/model"
	"github.com/HimoriK/HexManiacAdvance/pcs"
)

// NullPointerText is how a NULL pointer renders.
const NullPointerText = "<null>"

// Reader is the read access ToInteger needs.
type Reader interface {
	Count() int
	Byte(index int) byte
}

// ToInteger reads a little-endian unsigned value of length bytes.
// Bytes outside the data read as zero.
func ToInteger(data Reader, offset, length int) int {
	result, multiplier := 0, 1
	for i := 0; i < length; i++ {
		if a := offset + i; a >= 0 && a < data.Count() {
			result += int(data.Byte(a)) * multiplier
		}
		multiplier *= 0x100
	}
	return result
}

// ============================================================
// Decode
// ============================================================

// Decode renders the segment stored at offset as text.
func (s Segment) Decode(m model.Model, lk *Lookup, offset int) string {
	switch s.Kind {
	case KindText:
		return pcs.Convert(m, offset, s.Length)
	case KindPointer:
		return pointerText(m, m.ReadPointer(offset))
	case KindEnum:
		if text, ok := s.enumText(m, lk, ToInteger(m, offset, s.Length)); ok {
			return text
		}
	}
	return strconv.Itoa(ToInteger(m, offset, s.Length))
}

func pointerText(m model.Model, destination int) string {
	if destination == model.NULL {
		return NullPointerText
	}
	if name := m.AnchorAt(destination); name != "" {
		return "<" + name + ">"
	}
	return fmt.Sprintf("<%06X>", destination)
}

// enumText renders value as an option name. A name that also appears at
// earlier indexes gets a ~k suffix, k counting occurrences from index 0.
func (s Segment) enumText(m model.Model, lk *Lookup, value int) (string, bool) {
	options, ok := lk.Options(m, s.EnumName)
	if !ok || value >= len(options) {
		return "", false
	}
	text := options[value]
	occurrence := 0
	for i := 0; i <= value; i++ {
		if options[i] == text {
			occurrence++
		}
	}
	text = unquote(text)
	if occurrence > 1 {
		text += "~" + strconv.Itoa(occurrence)
	}
	if strings.Contains(text, " ") {
		text = `"` + text + `"`
	}
	return text, true
}

// ============================================================
// Encode
// ============================================================

// Encode parses text and writes it into the segment at offset.
func (s Segment) Encode(m model.Model, lk *Lookup, token *model.ChangeToken, offset int, text string) error {
	text = strings.TrimSpace(text)
	switch s.Kind {
	case KindText:
		encoded := pcs.Encode(text)
		if len(encoded) > s.Length {
			encoded = append(encoded[:s.Length-1], pcs.Terminator)
		}
		for i := 0; i < s.Length; i++ {
			var b byte
			if i < len(encoded) {
				b = encoded[i]
			}
			m.ChangeByte(token, offset+i, b)
		}
		return nil
	case KindPointer:
		destination, err := ParsePointer(m, text)
		if err != nil {
			return err
		}
		model.WritePointer(m, token, offset, destination)
		return nil
	case KindEnum:
		value, err := s.ParseEnum(m, lk, text)
		if err != nil {
			if v, convErr := strconv.ParseInt(text, 0, 64); convErr == nil {
				value, err = int(v), nil
			}
		}
		if err != nil {
			return err
		}
		model.WriteValue(m, token, offset, s.Length, value)
		return nil
	default:
		value, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			return fmt.Errorf("%w: %q is not an integer", ErrBadValue, text)
		}
		model.WriteValue(m, token, offset, s.Length, int(value))
		return nil
	}
}

// ParsePointer resolves pointer text: <anchor>, <hex address> or <null>.
// The angle brackets are optional.
func ParsePointer(m model.Model, text string) (int, error) {
	text = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(text), "<"), ">")
	switch {
	case text == "" || strings.EqualFold(text, "null"):
		return model.NULL, nil
	case m.AddressOfAnchor(text) != model.NULL:
		return m.AddressOfAnchor(text), nil
	}
	address, err := strconv.ParseInt(strings.TrimPrefix(strings.ToLower(text), "0x"), 16, 64)
	if err != nil || address < 0 || int(address) >= m.Count() {
		return 0, fmt.Errorf("%w: unknown pointer target %q", ErrBadValue, text)
	}
	return int(address), nil
}

// ParseEnum returns the index of the option named by text.
// Matching ignores case and surrounding quotes. A ~k suffix picks the k-th
// option with that name. Exact matches win; a prefix match is used only when
// no option matches exactly.
func (s Segment) ParseEnum(m model.Model, lk *Lookup, text string) (int, error) {
	if s.Kind != KindEnum {
		return 0, ErrNotEnum
	}
	options, ok := lk.Options(m, s.EnumName)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotEnum, s.EnumName)
	}

	text = unquote(strings.TrimSpace(text))
	desired := 1
	if split := strings.IndexByte(text, '~'); split != -1 {
		n, err := strconv.Atoi(text[split+1:])
		if err != nil || n < 1 {
			return 0, fmt.Errorf("%w: bad occurrence in %q", ErrNoEnumMatch, text)
		}
		desired, text = n, text[:split]
	}

	fold := cases.Fold()
	text = fold.String(text)
	folded := make([]string, len(options))
	for i, option := range options {
		folded[i] = fold.String(unquote(option))
	}

	for _, match := range []func(string) bool{
		func(option string) bool { return option == text },
		func(option string) bool { return strings.HasPrefix(option, text) },
	} {
		seen := 0
		for i, option := range folded {
			if match(option) {
				seen++
				if seen == desired {
					return i, nil
				}
			}
		}
	}
	return 0, fmt.Errorf("%w: %q in %s", ErrNoEnumMatch, text, s.EnumName)
}
