package romfile

import (
	"errors"
	"hash/crc32"
	"strings"
)

// Cartridge header layout.
const (
	titleOffset    = 0xA0
	titleLength    = 12
	codeOffset     = 0xAC
	codeLength     = 4
	makerOffset    = 0xB0
	versionOffset  = 0xBC
	checksumOffset = 0xBD
	HeaderLength   = 0xC0
)

// ErrShortImage indicates an image too small to hold a cartridge header.
var ErrShortImage = errors.New("image shorter than the cartridge header")

// crcTable is the IEEE CRC-32 table.
var crcTable = crc32.MakeTable(crc32.IEEE)

// Header is the identifying part of the cartridge header.
type Header struct {
	Title    string
	GameCode string
	Maker    string
	Version  byte
	Checksum byte
}

// ReadHeader decodes the cartridge header at the start of data.
func ReadHeader(data []byte) (Header, error) {
	if len(data) < HeaderLength {
		return Header{}, ErrShortImage
	}
	return Header{
		Title:    headerText(data[titleOffset : titleOffset+titleLength]),
		GameCode: headerText(data[codeOffset : codeOffset+codeLength]),
		Maker:    headerText(data[makerOffset : makerOffset+2]),
		Version:  data[versionOffset],
		Checksum: data[checksumOffset],
	}, nil
}

func headerText(b []byte) string {
	return strings.TrimRight(string(b), "\x00 ")
}

// HeaderChecksum computes the complement check over 0xA0-0xBC.
func HeaderChecksum(data []byte) (byte, error) {
	if len(data) < HeaderLength {
		return 0, ErrShortImage
	}
	var sum byte
	for _, b := range data[titleOffset:checksumOffset] {
		sum -= b
	}
	return sum - 0x19, nil
}

// VerifyHeader reports whether the stored complement check matches.
func VerifyHeader(data []byte) bool {
	sum, err := HeaderChecksum(data)
	return err == nil && sum == data[checksumOffset]
}

// FixHeader stores the correct complement check.
func FixHeader(data []byte) error {
	sum, err := HeaderChecksum(data)
	if err != nil {
		return err
	}
	data[checksumOffset] = sum
	return nil
}

// CRC32 computes the IEEE CRC-32 of the whole image, as ROM databases
// identify dumps.
func CRC32(data []byte) uint32 {
	return crc32.Checksum(data, crcTable)
}
