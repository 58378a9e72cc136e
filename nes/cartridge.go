package nes

import "fmt"

const (
	chrROMSizeUnit      int  = 0x2000 // 8 KiB
	prgROMSizeUnit      int  = 0x4000 // 16 KiB
	inesHeaderSizeBytes int  = 16     // The valid INES header has 16 bytes
	trainerSizeBytes    int  = 512
	msDOSEOF            byte = 0x1A
)

type tableMirrorMode int

const (
	horizontal tableMirrorMode = iota
	vertical
)

// Cartridge holds the decoded program and character data of an iNES image.
// Both ROMs are immutable after construction, the mapper decides what the
// buses may read and rejects writes.
// https://www.nesdev.org/wiki/INES
type Cartridge struct {
	prgROM []byte
	chrROM []byte
	mapper byte
	flags6 byte // https://www.nesdev.org/wiki/INES#Flags_6
	flags7 byte // https://www.nesdev.org/wiki/INES#Flags_7
}

// isValid checks whether the buffer starts with a valid INES magic tag.
func isValid(data []byte) bool {
	return len(data) >= inesHeaderSizeBytes &&
		data[0] == byte('N') &&
		data[1] == byte('E') &&
		data[2] == byte('S') &&
		data[3] == msDOSEOF
}

// NewCartridge decodes an iNES image. It fails on anything the console
// cannot run: bad magic, iNES 2.0, truncated data.
func NewCartridge(data []byte) (*Cartridge, error) {
	if !isValid(data) {
		return nil, fmt.Errorf("the buffer is not a valid NES format")
	}
	flags6 := data[6]
	flags7 := data[7]
	// flags7 bits 2-3 == 0b10 marks iNES 2.0, whose extended fields this
	// decoder does not understand.
	if (flags7>>2)&0b11 == 0b10 {
		return nil, fmt.Errorf("iNES 2.0 images are not supported")
	}
	prgStart := inesHeaderSizeBytes
	if flags6&0b100 != 0 {
		// A 512-byte trainer precedes PRG ROM, skip it.
		prgStart += trainerSizeBytes
	}
	prgSize := int(data[4]) * prgROMSizeUnit
	chrSize := int(data[5]) * chrROMSizeUnit
	if len(data) < prgStart+prgSize+chrSize {
		return nil, fmt.Errorf("image truncated: header promises %d PRG + %d CHR bytes, got %d",
			prgSize, chrSize, len(data)-prgStart)
	}
	c := &Cartridge{
		prgROM: data[prgStart : prgStart+prgSize],
		chrROM: data[prgStart+prgSize : prgStart+prgSize+chrSize],
		// The mapper id is split across the upper nibbles of flags 6 and 7.
		mapper: (flags7 & 0xF0) | (flags6 >> 4),
		flags6: flags6,
		flags7: flags7,
	}
	return c, nil
}

func (c *Cartridge) getTableMirrorMode() tableMirrorMode {
	if c.flags6&1 == 1 {
		return vertical
	}
	return horizontal
}
