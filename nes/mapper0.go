package nes

import "github.com/golang/glog"

// Mapper0: https://www.nesdev.org/wiki/NROM

type mapper0 struct {
	prgROM []byte
	chr    []byte
	chrRAM bool         // boards without CHR ROM carry 8 KiB of CHR RAM instead
	prgRAM [0x2000]byte // 0x6000-0x7FFF, Family Basic style PRG RAM
}

func newMapper0(prgROM []byte, chrROM []byte) *mapper0 {
	m := &mapper0{prgROM: prgROM, chr: chrROM}
	if len(m.chr) == 0 {
		m.chr = make([]byte, 0x2000)
		m.chrRAM = true
	}
	return m
}

func (m *mapper0) ReadFromCPU(address uint16) byte {
	switch {
	case 0x8000 <= address:
		// CPU $C000-$FFFF: Last 16 KB of ROM (NROM-256) or mirror of $8000-$BFFF (NROM-128).
		return m.prgROM[int(address-0x8000)%len(m.prgROM)]
	case 0x6000 <= address:
		return m.prgRAM[address-0x6000]
	default:
		// 0x4020-0x5FFF expansion area, nothing connected.
		glog.V(1).Infof("Open bus cartridge read: address=0x%04x", address)
		return 0
	}
}

func (m *mapper0) WriteFromCPU(address uint16, data byte) {
	switch {
	case 0x8000 <= address:
		glog.V(1).Infof("Dropped write to PrgROM: address=0x%04x, data=0x%02x", address, data)
	case 0x6000 <= address:
		m.prgRAM[address-0x6000] = data
	default:
		glog.V(1).Infof("Dropped cartridge write: address=0x%04x, data=0x%02x", address, data)
	}
}

func (m *mapper0) ReadFromPPU(address uint16) byte {
	return m.chr[int(address)%len(m.chr)]
}

func (m *mapper0) WriteFromPPU(address uint16, data byte) {
	if m.chrRAM {
		m.chr[int(address)%len(m.chr)] = data
		return
	}
	glog.V(1).Infof("Dropped write to pattern tables: address=0x%04x, data=0x%02x", address, data)
}
