package nes

import (
	"fmt"
	"image"

	"github.com/golang/glog"
)

// Console wires the chips together: one CPU step, three PPU dots per CPU
// cycle, interrupt delivery in between. It is the only type the presentation
// layer needs.
type Console struct {
	cpu        *CPU
	ppu        *PPU
	apu        *APU
	cpuBus     *CPUBus
	ppuBus     *PPUBus
	wram       *RAM
	vram       *RAM
	mapper     Mapper
	controller *Controller
	debug      bool
	frameReady bool
}

// NewConsole assembles a console around an iNES image. This is the only
// place construction can fail; once it returns, every bus access is total.
func NewConsole(buf []byte, debug bool) (*Console, error) {
	cartridge, err := NewCartridge(buf)
	if err != nil {
		return nil, fmt.Errorf("failed to load cartridge: %w", err)
	}
	mapper, err := NewMapper(cartridge)
	if err != nil {
		return nil, fmt.Errorf("failed to create mapper: %w", err)
	}
	vram := NewRAM()
	ppuBus := NewPPUBus(vram, mapper, cartridge.getTableMirrorMode())
	ppu := NewPPU(ppuBus)
	apu := NewAPU()
	wram := NewRAM()
	controller := NewController()
	cpuBus := NewCPUBus(wram, ppu, apu, mapper, controller)
	cpu := NewCPU(cpuBus)
	glog.Infof("Console ready: mapper=%d, PRG=%dKiB, CHR=%dKiB",
		cartridge.mapper, len(cartridge.prgROM)/1024, len(cartridge.chrROM)/1024)
	return &Console{
		cpu:        cpu,
		ppu:        ppu,
		apu:        apu,
		cpuBus:     cpuBus,
		ppuBus:     ppuBus,
		wram:       wram,
		vram:       vram,
		mapper:     mapper,
		controller: controller,
		debug:      debug,
	}, nil
}

// Reset performs a console reset: the CPU jumps through its reset vector and
// the PPU returns to the top of the frame. RAM keeps its contents, as on the
// real machine's reset button.
func (c *Console) Reset() {
	c.cpu.Reset()
	c.ppu.Reset()
}

// Step runs one CPU instruction (or one stall/interrupt service) and keeps
// the PPU three dots per CPU cycle. Returns the CPU cycles spent.
func (c *Console) Step() int {
	cpuCycles := c.cpu.Step()
	for i := 0; i < cpuCycles*3; i++ {
		if c.ppu.Step() {
			c.frameReady = true
		}
	}
	// NMI raised during those dots is visible to the very next instruction.
	if c.ppu.PendingNMI() {
		c.cpu.TriggerNMI()
	}
	for i := 0; i < cpuCycles; i++ {
		c.apu.Step()
	}
	return cpuCycles
}

// StepFrame runs until the PPU finishes the current frame and returns the
// frame buffer. The buffer is owned by the PPU and overwritten by the next
// frame, so draw or copy it before stepping again.
func (c *Console) StepFrame() *image.RGBA {
	for !c.frameReady {
		c.Step()
	}
	c.frameReady = false
	return c.ppu.Buffer()
}

// SetButtons updates the 1P pad state:
// A, B, Select, Start, Up, Down, Left, Right.
func (c *Console) SetButtons(buttons [8]bool) {
	c.controller.Set(buttons)
}

// SetAudioOut attaches the channel the audio backend drains.
func (c *Console) SetAudioOut(ch chan float32) {
	c.apu.SetAudioOut(ch)
}
