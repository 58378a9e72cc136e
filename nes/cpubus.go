package nes

import "github.com/golang/glog"

// CPUBus routes the CPU's 16-bit address space. Every address resolves to
// exactly one region, so reads and writes are total: unmapped peripheral
// addresses behave as open bus (read 0, dropped writes) with a log line.
//
// CPU memory map
// 0x0000 - 0x07FF	WRAM
// 0x0800 - 0x1FFF	WRAM Mirror
// 0x2000 - 0x2007	PPU Registers
// 0x2008 - 0x3FFF	PPU Registers Mirror
// 0x4000 - 0x401F	APU / DMA / Controller ports
// 0x4020 - 0xFFFF	Cartridge (expansion, PRG RAM, PRG ROM)
type CPUBus struct {
	wram       *RAM
	ppu        *PPU
	apu        *APU
	mapper     Mapper
	controller *Controller
}

// NewCPUBus creates a new Bus for CPU.
func NewCPUBus(wram *RAM, ppu *PPU, apu *APU, mapper Mapper, controller *Controller) *CPUBus {
	return &CPUBus{wram, ppu, apu, mapper, controller}
}

// writeOAMDMA forwards a DMA page to the PPU, this will be called by CPU.
func (b *CPUBus) writeOAMDMA(data [256]byte) {
	b.ppu.writeOAMDMA(data)
}

// read reads a byte.
func (b *CPUBus) read(address uint16) byte {
	switch {
	case address < 0x2000:
		return b.wram.read(address % 0x0800)
	case address < 0x4000:
		// The 8 PPU ports repeat through the whole window.
		return b.ppu.readRegister(0x2000 | address&0b111)
	case address == 0x4016: // 1P
		return b.controller.read()
	case address < 0x4020:
		glog.V(1).Infof("Open bus I/O read: address=0x%04x", address)
		return 0
	default:
		return b.mapper.ReadFromCPU(address)
	}
}

// read16 reads 2 bytes.
func (b *CPUBus) read16(address uint16) uint16 {
	l := b.read(address)
	h := b.read(address + 1)
	return uint16(h)<<8 | uint16(l)
}

// write writes a byte.
func (b *CPUBus) write(address uint16, data byte) {
	switch {
	case address < 0x2000:
		b.wram.write(address%0x0800, data)
	case address < 0x4000:
		b.ppu.writeRegister(0x2000|address&0b111, data)
	case address == 0x4014:
		// OAMDMA is intercepted by the CPU so it can account for the
		// stall cycles; a write landing here is a wiring mistake.
		glog.Errorf("OAMDMA write reached the bus: data=0x%02x", data)
	case address == 0x4016: // 1P
		b.controller.write(data)
	case address < 0x4020:
		b.apu.writeRegister(address, data)
	default:
		b.mapper.WriteFromCPU(address, data)
	}
}
