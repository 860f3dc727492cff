// Package lz implements the GBA BIOS LZ77 format (type 0x10).
//
// A stream is a 4-byte header (0x10, then the 24-bit little-endian decompressed
// size) followed by groups of one flag byte and up to eight tokens. A set flag bit
// (most significant first) marks a 2-byte back-reference, a clear bit a literal.
package lz

import (
	"bytes"
	"errors"
)

const (
	// Magic is the first byte of every stream.
	Magic = 0x10

	headerLength = 4
	minMatch     = 3
	maxMatch     = 18
	windowSize   = 0x1000

	// VRAM-safe decompression writes halfwords, so a back-reference may not
	// copy from the byte directly before it.
	minDistance = 2
)

// Decoding errors
var (
	// ErrNotCompressed indicates that the data does not start with an LZ header.
	ErrNotCompressed = errors.New("not lz compressed data")

	// ErrTruncated indicates that the stream ends before the declared size is produced.
	ErrTruncated = errors.New("lz stream truncated")

	// ErrBadReference indicates a back-reference before the start of the output.
	ErrBadReference = errors.New("lz back-reference out of range")
)

// Reader is the read access Decompress needs.
type Reader interface {
	Count() int
	Byte(index int) byte
}

// Decompress decodes the stream at start. It returns the decoded bytes and
// the number of compressed bytes consumed.
func Decompress(data Reader, start int) ([]byte, int, error) {
	if start < 0 || start+headerLength > data.Count() || data.Byte(start) != Magic {
		return nil, 0, ErrNotCompressed
	}
	size := int(data.Byte(start+1)) | int(data.Byte(start+2))<<8 | int(data.Byte(start+3))<<16
	out := make([]byte, 0, size)
	src := start + headerLength

	for len(out) < size {
		if src >= data.Count() {
			return nil, 0, ErrTruncated
		}
		flags := data.Byte(src)
		src++
		for bit := 7; bit >= 0 && len(out) < size; bit-- {
			if flags&(1<<bit) == 0 {
				if src >= data.Count() {
					return nil, 0, ErrTruncated
				}
				out = append(out, data.Byte(src))
				src++
				continue
			}
			if src+1 >= data.Count() {
				return nil, 0, ErrTruncated
			}
			b1, b2 := int(data.Byte(src)), int(data.Byte(src+1))
			src += 2
			length := b1>>4 + minMatch
			distance := (b1&0xF)<<8 | b2 + 1
			if distance > len(out) {
				return nil, 0, ErrBadReference
			}
			for i := 0; i < length && len(out) < size; i++ {
				out = append(out, out[len(out)-distance])
			}
		}
	}

	return out, src - start, nil
}

// DecompressBytes decodes a stream held in a byte slice.
func DecompressBytes(data []byte) ([]byte, error) {
	out, _, err := Decompress(byteReader(data), 0)
	return out, err
}

// Compress encodes data with a greedy longest-match search.
// The result is padded to a multiple of 4 bytes.
func Compress(data []byte) []byte {
	var dst bytes.Buffer
	size := len(data)
	dst.Write([]byte{Magic, byte(size), byte(size >> 8), byte(size >> 16)})

	var group bytes.Buffer
	var flags byte
	count := 0
	flush := func() {
		dst.WriteByte(flags)
		dst.Write(group.Bytes())
		group.Reset()
		flags, count = 0, 0
	}

	for pos := 0; pos < size; {
		length, distance := longestMatch(data, pos)
		if length >= minMatch {
			flags |= 0x80 >> count
			token := (length-minMatch)<<12 | (distance - 1)
			group.WriteByte(byte(token >> 8))
			group.WriteByte(byte(token))
			pos += length
		} else {
			group.WriteByte(data[pos])
			pos++
		}
		count++
		if count == 8 {
			flush()
		}
	}
	if count > 0 {
		flush()
	}

	for dst.Len()%4 != 0 {
		dst.WriteByte(0)
	}
	return dst.Bytes()
}

// longestMatch finds the longest earlier copy of the bytes at pos.
// Matches may overlap pos, which encodes runs.
func longestMatch(data []byte, pos int) (length, distance int) {
	limit := min(maxMatch, len(data)-pos)
	if limit < minMatch {
		return 0, 0
	}
	for d := minDistance; d <= windowSize && d <= pos; d++ {
		n := 0
		for n < limit && data[pos+n-d] == data[pos+n] {
			n++
		}
		if n > length {
			length, distance = n, d
			if n == limit {
				break
			}
		}
	}
	return length, distance
}

type byteReader []byte

func (b byteReader) Count() int          { return len(b) }
func (b byteReader) Byte(index int) byte { return b[index] }
