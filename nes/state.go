package nes

import (
	"encoding/gob"
	"fmt"
	"io"
)

// State is a complete machine snapshot: restoring it resumes execution
// byte-exactly from where it was captured. The frame buffer is not part of
// the snapshot, the next frame repaints it from PPU memory.
type State struct {
	CPU        CPUState
	PPU        PPUState
	Controller ControllerState
	WRAM       [2048]byte
	VRAM       [2048]byte
	PRGRAM     []byte // cartridge work RAM, when the mapper has any
	CHRRAM     []byte // pattern memory, only for boards with CHR RAM
}

type CPUState struct {
	A, X, Y      byte
	PC           uint16
	S            byte
	P            byte
	Cycles       uint64
	Stall        int
	NMITriggered bool
}

type PPUState struct {
	Ctrl, Mask, Status byte
	V, T               uint16
	X                  byte
	W                  bool
	Buffer, Latch      byte
	PaletteRAM         [32]byte
	OAM                [256]byte
	OAMAddr            byte
	Cycle, Scanline    int
	NMIPending         bool
	Sprites            [8]SpriteState
	SpriteCount        int
}

type SpriteState struct {
	Index      int
	Y          int
	Tile       byte
	Attributes byte
	X          int
}

type ControllerState struct {
	Buttons [8]bool
	Index   byte
	Strobe  byte
}

// State captures a snapshot. Call it between Steps; mid-instruction there is
// no consistent state to capture.
func (c *Console) State() *State {
	s := &State{
		CPU: CPUState{
			A:            c.cpu.a,
			X:            c.cpu.x,
			Y:            c.cpu.y,
			PC:           c.cpu.pc,
			S:            c.cpu.s,
			P:            c.cpu.p.encode(),
			Cycles:       c.cpu.cycles,
			Stall:        c.cpu.stall,
			NMITriggered: c.cpu.nmiTriggered,
		},
		PPU: PPUState{
			Ctrl:        c.ppu.ctrl.encode(),
			Mask:        c.ppu.mask.encode(),
			Status:      c.ppu.status.encode(),
			V:           c.ppu.v,
			T:           c.ppu.t,
			X:           c.ppu.x,
			W:           c.ppu.w,
			Buffer:      c.ppu.buffer,
			Latch:       c.ppu.latch,
			PaletteRAM:  c.ppu.paletteRAM,
			OAM:         c.ppu.oam,
			OAMAddr:     c.ppu.oamAddr,
			Cycle:       c.ppu.cycle,
			Scanline:    c.ppu.scanline,
			NMIPending:  c.ppu.nmiPending,
			SpriteCount: c.ppu.spriteCount,
		},
		Controller: ControllerState{
			Buttons: c.controller.buttons,
			Index:   c.controller.index,
			Strobe:  c.controller.strobe,
		},
		WRAM: c.wram.data,
		VRAM: c.vram.data,
	}
	for i, sp := range c.ppu.scanlineSprites {
		s.PPU.Sprites[i] = SpriteState{sp.index, sp.y, sp.tile, sp.attributes, sp.x}
	}
	if m, ok := c.mapper.(*mapper0); ok {
		s.PRGRAM = make([]byte, len(m.prgRAM))
		copy(s.PRGRAM, m.prgRAM[:])
		if m.chrRAM {
			s.CHRRAM = make([]byte, len(m.chr))
			copy(s.CHRRAM, m.chr)
		}
	}
	return s
}

// Restore applies a snapshot taken from a console running the same ROM.
func (c *Console) Restore(s *State) {
	c.cpu.a = s.CPU.A
	c.cpu.x = s.CPU.X
	c.cpu.y = s.CPU.Y
	c.cpu.pc = s.CPU.PC
	c.cpu.s = s.CPU.S
	c.cpu.p.decodeFrom(s.CPU.P)
	c.cpu.cycles = s.CPU.Cycles
	c.cpu.stall = s.CPU.Stall
	c.cpu.nmiTriggered = s.CPU.NMITriggered

	c.ppu.ctrl.decodeFrom(s.PPU.Ctrl)
	c.ppu.mask.decodeFrom(s.PPU.Mask)
	c.ppu.status.decodeFrom(s.PPU.Status)
	c.ppu.v = s.PPU.V
	c.ppu.t = s.PPU.T
	c.ppu.x = s.PPU.X
	c.ppu.w = s.PPU.W
	c.ppu.buffer = s.PPU.Buffer
	c.ppu.latch = s.PPU.Latch
	c.ppu.paletteRAM = s.PPU.PaletteRAM
	c.ppu.oam = s.PPU.OAM
	c.ppu.oamAddr = s.PPU.OAMAddr
	c.ppu.cycle = s.PPU.Cycle
	c.ppu.scanline = s.PPU.Scanline
	c.ppu.nmiPending = s.PPU.NMIPending
	c.ppu.spriteCount = s.PPU.SpriteCount
	for i, sp := range s.PPU.Sprites {
		c.ppu.scanlineSprites[i] = sprite{sp.Index, sp.Y, sp.Tile, sp.Attributes, sp.X}
	}

	c.controller.buttons = s.Controller.Buttons
	c.controller.index = s.Controller.Index
	c.controller.strobe = s.Controller.Strobe

	c.wram.data = s.WRAM
	c.vram.data = s.VRAM
	if m, ok := c.mapper.(*mapper0); ok {
		if len(s.PRGRAM) == len(m.prgRAM) {
			copy(m.prgRAM[:], s.PRGRAM)
		}
		if m.chrRAM && len(s.CHRRAM) == len(m.chr) {
			copy(m.chr, s.CHRRAM)
		}
	}
	c.frameReady = false
}

// Save writes a snapshot to w.
func (c *Console) Save(w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(c.State()); err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	return nil
}

// Load reads a snapshot from r and restores it.
func (c *Console) Load(r io.Reader) error {
	var s State
	if err := gob.NewDecoder(r).Decode(&s); err != nil {
		return fmt.Errorf("failed to decode state: %w", err)
	}
	c.Restore(&s)
	return nil
}
