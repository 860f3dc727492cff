// Package pcs converts between the compact in-ROM character encoding and text.
//
// Strings end with a 0xFF terminator. A run of 0xFF bytes is unused space, never text.
// Bytes with no character mapping round-trip as \XX escapes.
package pcs

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// Terminator ends every encoded string.
	Terminator = 0xFF

	// Quote wraps converted text.
	Quote = '"'
)

// Reader is the read access Convert and ReadString need.
type Reader interface {
	Count() int
	Byte(index int) byte
}

var (
	decodeTable [256]string
	encodeTable = map[rune]byte{}
)

func init() {
	set := func(b byte, s string) {
		decodeTable[b] = s
		for _, r := range s {
			encodeTable[r] = b
		}
	}
	set(0x00, " ")
	for i := 0; i < 10; i++ {
		set(byte(0xA1+i), string(rune('0'+i)))
	}
	set(0xAB, "!")
	set(0xAC, "?")
	set(0xAD, ".")
	set(0xAE, "-")
	set(0xB0, "…")
	set(0xB1, "“")
	set(0xB2, "”")
	set(0xB3, "‘")
	set(0xB4, "'")
	set(0xB8, ",")
	set(0xBA, "/")
	for i := 0; i < 26; i++ {
		set(byte(0xBB+i), string(rune('A'+i)))
		set(byte(0xD5+i), string(rune('a'+i)))
	}
	set(0xF0, ":")
	set(0xFE, "\n")
}

// ReadString measures the string at start, reading at most maxLength bytes.
// It returns the length including the terminator, or -1 when no terminator
// is found in range.
func ReadString(data Reader, start, maxLength int) int {
	for i := 0; i < maxLength; i++ {
		if start+i >= data.Count() {
			return -1
		}
		if data.Byte(start+i) == Terminator {
			return i + 1
		}
	}
	return -1
}

// Convert decodes up to length bytes at start and returns the text wrapped in quotes.
func Convert(data Reader, start, length int) string {
	var sb strings.Builder
	sb.WriteRune(Quote)
	for i := 0; i < length && start+i < data.Count(); i++ {
		b := data.Byte(start + i)
		if b == Terminator {
			break
		}
		if s := decodeTable[b]; s != "" {
			sb.WriteString(s)
			continue
		}
		fmt.Fprintf(&sb, "\\%02X", b)
	}
	sb.WriteRune(Quote)
	return sb.String()
}

// Encode converts text to bytes, including the terminator.
// Surrounding quotes are optional.
func Encode(text string) []byte {
	if len(text) >= 2 && text[0] == Quote && text[len(text)-1] == Quote {
		text = text[1 : len(text)-1]
	}
	result := make([]byte, 0, len(text)+1)
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '\\' && i+2 < len(runes) {
			if v, err := strconv.ParseUint(string(runes[i+1:i+3]), 16, 8); err == nil {
				result = append(result, byte(v))
				i += 2
				continue
			}
		}
		if b, ok := encodeTable[r]; ok {
			result = append(result, b)
		}
	}
	return append(result, Terminator)
}
