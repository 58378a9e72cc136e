package nes

import "github.com/golang/glog"

// PPUBus routes the PPU's internal 14-bit address space: pattern tables on
// the cartridge, 2 KiB of nametable RAM with cartridge-controlled mirroring.
// Palette memory is not behind this bus, the PPU keeps it itself.
//
// Address        Size	  Description
// -------------------------------------
// $0000-$0FFF	  $1000	  Pattern table 0
// $1000-$1FFF	  $1000	  Pattern table 1
// $2000-$23FF	  $0400	  Nametable 0
// $2400-$27FF	  $0400	  Nametable 1
// $2800-$2BFF	  $0400	  Nametable 2
// $2C00-$2FFF	  $0400	  Nametable 3
// $3000-$3EFF	  $0F00	  Mirrors of $2000-$2EFF
// Reference: https://www.nesdev.org/wiki/PPU_memory_map
type PPUBus struct {
	vram   *RAM
	mapper Mapper
	mirror tableMirrorMode
}

// NewPPUBus creates a new Bus for PPU.
func NewPPUBus(vram *RAM, mapper Mapper, mirror tableMirrorMode) *PPUBus {
	return &PPUBus{vram, mapper, mirror}
}

// mirrorAddress folds a nametable address into the 2 KiB VRAM.
// The console has VRAM for two screens; the other two nametables alias them
// depending on how the cartridge wires its mirroring pin:
//
//	horizontal   [ A ][ a ]      vertical   [ A ][ B ]
//	             [ B ][ b ]                 [ a ][ b ]
func (b *PPUBus) mirrorAddress(address uint16) uint16 {
	index := (address & 0x2FFF) - 0x2000 // fold $3000-$3EFF down first
	table := index / 0x400
	switch b.mirror {
	case vertical:
		if table >= 2 {
			index -= 0x800
		}
	case horizontal:
		switch table {
		case 1, 2:
			index -= 0x400
		case 3:
			index -= 0x800
		}
	}
	return index
}

// read reads data.
func (b *PPUBus) read(address uint16) byte {
	address &= 0x3FFF
	switch {
	case address < 0x2000:
		return b.mapper.ReadFromPPU(address)
	case address < 0x3F00:
		return b.vram.read(b.mirrorAddress(address))
	default:
		// Palette addresses belong to the PPU itself.
		glog.V(1).Infof("Unexpected PPU bus read: address=0x%04x", address)
		return 0
	}
}

// write writes data.
func (b *PPUBus) write(address uint16, data byte) {
	address &= 0x3FFF
	switch {
	case address < 0x2000:
		b.mapper.WriteFromPPU(address, data)
	case address < 0x3F00:
		b.vram.write(b.mirrorAddress(address), data)
	default:
		glog.V(1).Infof("Unexpected PPU bus write: address=0x%04x, data=0x%02x", address, data)
	}
}
