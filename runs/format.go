package runs

import (
	"strconv"
	"strings"
)

// Format sigils.
const (
	ArrayStart    = '['
	ArrayEnd      = ']'
	InnerPointers = '^'
	ExtendArray   = '+'
)

// Kind is the content type of a segment.
type Kind int

const (
	KindText Kind = iota
	KindInteger
	KindPointer
	KindEnum
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInteger:
		return "integer"
	case KindPointer:
		return "pointer"
	case KindEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// Segment is one typed field of an element.
type Segment struct {
	Name     string
	Kind     Kind
	Length   int
	EnumName string // anchor of the option array, KindEnum only
}

// LengthMode is how an array decides its element count.
type LengthMode int

const (
	LengthAuto   LengthMode = iota // detected from the data
	LengthFixed                    // literal count
	LengthLinked                   // count of another named array
)

// Format is a parsed array format string.
type Format struct {
	Source        string
	Segments      []Segment
	ElementLength int
	InnerPointers bool
	Mode          LengthMode
	Count         int    // LengthFixed only
	LengthAnchor  string // LengthLinked only
}

// IsArrayFormat reports whether format looks like an array format.
func IsArrayFormat(format string) bool {
	format = strings.TrimPrefix(format, string(InnerPointers))
	return strings.HasPrefix(format, string(ArrayStart))
}

// ParseFormat parses an array format string.
// It returns a *ParseError and no partial result when the format is malformed.
func ParseFormat(format string) (Format, error) {
	f := Format{Source: format}
	body, offset := format, 0
	if strings.HasPrefix(body, string(InnerPointers)) {
		f.InnerPointers = true
		body, offset = body[1:], 1
	}
	if !strings.HasPrefix(body, string(ArrayStart)) {
		return Format{}, &ParseError{Message: "array content must be wrapped in []", Pos: offset}
	}
	closeArray := strings.LastIndexByte(body, ArrayEnd)
	if closeArray == -1 {
		return Format{}, &ParseError{Message: "missing closing ]", Pos: len(format)}
	}

	segments, err := parseSegments(body[1:closeArray], offset+1)
	if err != nil {
		return Format{}, err
	}
	if len(segments) == 0 {
		return Format{}, &ParseError{Message: "array content must not be empty", Pos: offset + 1}
	}
	f.Segments = segments
	for _, s := range segments {
		f.ElementLength += s.Length
	}

	lengthToken := strings.TrimSpace(body[closeArray+1:])
	lengthPos := offset + closeArray + 1
	switch {
	case lengthToken == "":
		f.Mode = LengthAuto
	case isDigits(lengthToken):
		count, err := strconv.Atoi(lengthToken)
		if err != nil {
			return Format{}, &ParseError{Message: "invalid element count", Pos: lengthPos}
		}
		f.Mode, f.Count = LengthFixed, count
	case isName(lengthToken):
		f.Mode, f.LengthAnchor = LengthLinked, lengthToken
	default:
		return Format{}, &ParseError{Message: "invalid length token " + strconv.Quote(lengthToken), Pos: lengthPos}
	}

	return f, nil
}

// typeTokens lists the fixed-width type tokens, longest first.
var typeTokens = []struct {
	token  string
	kind   Kind
	length int
}{
	{"::", KindInteger, 4},
	{":.", KindInteger, 3},
	{".:", KindInteger, 3},
	{"<>", KindPointer, 4},
	{":", KindInteger, 2},
	{".", KindInteger, 1},
}

func parseSegments(text string, base int) ([]Segment, error) {
	var segments []Segment
	pos := skipSpace(text, 0)
	for pos < len(text) {
		nameEnd := pos
		for nameEnd < len(text) && isNameRune(rune(text[nameEnd])) {
			nameEnd++
		}
		if nameEnd == pos {
			return nil, &ParseError{Message: "expected segment name", Pos: base + pos}
		}
		seg := Segment{Name: text[pos:nameEnd]}
		pos = nameEnd

		if strings.HasPrefix(text[pos:], `""`) {
			pos = skipSpace(text, pos+2)
			digitsEnd := pos
			for digitsEnd < len(text) && text[digitsEnd] >= '0' && text[digitsEnd] <= '9' {
				digitsEnd++
			}
			n, err := strconv.Atoi(text[pos:digitsEnd])
			if err != nil || n <= 0 {
				return nil, &ParseError{Message: "text segment needs a positive length", Pos: base + pos}
			}
			seg.Kind, seg.Length = KindText, n
			segments = append(segments, seg)
			pos = skipSpace(text, digitsEnd)
			continue
		}

		matched := false
		for _, tt := range typeTokens {
			if strings.HasPrefix(text[pos:], tt.token) {
				seg.Kind, seg.Length = tt.kind, tt.length
				pos += len(tt.token)
				matched = true
				break
			}
		}
		if !matched {
			return nil, &ParseError{Message: "unknown segment type for " + strconv.Quote(seg.Name), Pos: base + pos}
		}

		if seg.Kind == KindInteger && pos < len(text) && !isSpace(text[pos]) {
			end := pos
			for end < len(text) && !isSpace(text[end]) {
				end++
			}
			enumName := text[pos:end]
			if isDigits(enumName) || !isName(enumName) {
				return nil, &ParseError{Message: "invalid enum name " + strconv.Quote(enumName), Pos: base + pos}
			}
			seg.Kind, seg.EnumName = KindEnum, enumName
			pos = end
		} else if seg.Kind == KindPointer && pos < len(text) && !isSpace(text[pos]) {
			return nil, &ParseError{Message: "unexpected text after pointer", Pos: base + pos}
		}

		segments = append(segments, seg)
		pos = skipSpace(text, pos)
	}
	return segments, nil
}

func skipSpace(text string, pos int) int {
	for pos < len(text) && isSpace(text[pos]) {
		pos++
	}
	return pos
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isNameRune(r rune) bool {
	return r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}

func isName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isNameRune(r) && r != '.' && r != '-' {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
