package nes

import "fmt"

// Mapper is the cartridge-side address logic. Reads and writes are total:
// a write into ROM is dropped and a read of an unpopulated region returns 0,
// the way the real cartridge edge connector behaves.
type Mapper interface {
	ReadFromCPU(uint16) byte
	WriteFromCPU(uint16, byte)
	ReadFromPPU(uint16) byte
	WriteFromPPU(uint16, byte)
}

// NewMapper builds the mapper circuit for the cartridge. Only NROM (mapper 0)
// is supported, anything else fails before execution begins.
func NewMapper(cartridge *Cartridge) (Mapper, error) {
	switch cartridge.mapper {
	case 0:
		return newMapper0(cartridge.prgROM, cartridge.chrROM), nil
	default:
		return nil, fmt.Errorf("unsupported mapper id: %d", cartridge.mapper)
	}
}
