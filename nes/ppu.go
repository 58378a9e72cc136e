package nes

import (
	"image"
	"image/color"
)

// NES PPU generates 256x240 pixels.
const (
	width  = 256
	height = 240
)

// Palette colors borrowed from "RGB".
// Reference: https://emulation.gametechwiki.com/index.php/Famicom_color_palette
var colors = [64]color.RGBA{
	{0x6D, 0x6D, 0x6D, 255}, {0x00, 0x24, 0x92, 255}, {0x00, 0x00, 0xDB, 255}, {0x6D, 0x49, 0xDB, 255},
	{0x92, 0x00, 0x6D, 255}, {0xB6, 0x00, 0x6D, 255}, {0xB6, 0x24, 0x00, 255}, {0x92, 0x49, 0x00, 255},
	{0x6D, 0x49, 0x00, 255}, {0x24, 0x49, 0x00, 255}, {0x00, 0x6D, 0x24, 255}, {0x00, 0x92, 0x00, 255},
	{0x00, 0x49, 0x49, 255}, {0x00, 0x00, 0x00, 255}, {0x00, 0x00, 0x00, 255}, {0x00, 0x00, 0x00, 255},
	{0xB6, 0xB6, 0xB6, 255}, {0x00, 0x6D, 0xDB, 255}, {0x00, 0x49, 0xFF, 255}, {0x92, 0x00, 0xFF, 255},
	{0xB6, 0x00, 0xFF, 255}, {0xFF, 0x00, 0x92, 255}, {0xFF, 0x00, 0x00, 255}, {0xDB, 0x6D, 0x00, 255},
	{0x92, 0x6D, 0x00, 255}, {0x24, 0x92, 0x00, 255}, {0x00, 0x92, 0x00, 255}, {0x00, 0xB6, 0x6D, 255},
	{0x00, 0x92, 0x92, 255}, {0x24, 0x24, 0x24, 255}, {0x00, 0x00, 0x00, 255}, {0x00, 0x00, 0x00, 255},
	{0xFF, 0xFF, 0xFF, 255}, {0x6D, 0xB6, 0xFF, 255}, {0x92, 0x92, 0xFF, 255}, {0xDB, 0x6D, 0xFF, 255},
	{0xFF, 0x00, 0xFF, 255}, {0xFF, 0x6D, 0xFF, 255}, {0xFF, 0x92, 0x00, 255}, {0xFF, 0xB6, 0x00, 255},
	{0xDB, 0xDB, 0x00, 255}, {0x6D, 0xDB, 0x00, 255}, {0x00, 0xFF, 0x00, 255}, {0x49, 0xFF, 0xDB, 255},
	{0x00, 0xFF, 0xFF, 255}, {0x49, 0x49, 0x49, 255}, {0x00, 0x00, 0x00, 255}, {0x00, 0x00, 0x00, 255},
	{0xFF, 0xFF, 0xFF, 255}, {0xB6, 0xDB, 0xFF, 255}, {0xDB, 0xB6, 0xFF, 255}, {0xFF, 0xB6, 0xFF, 255},
	{0xFF, 0x92, 0xFF, 255}, {0xFF, 0xB6, 0xB6, 255}, {0xFF, 0xDB, 0x92, 255}, {0xFF, 0xFF, 0x49, 255},
	{0xFF, 0xFF, 0x6D, 255}, {0xB6, 0xFF, 0x49, 255}, {0x92, 0xFF, 0x6D, 255}, {0x49, 0xFF, 0xDB, 255},
	{0x92, 0xDB, 0xFF, 255}, {0x92, 0x92, 0x92, 255}, {0x00, 0x00, 0x00, 255}, {0x00, 0x00, 0x00, 255},
}

// ppuCtrl is PPUCTRL ($2000), write only.
type ppuCtrl struct {
	nametable       byte // base nametable select, 0-3
	incrementBy32   bool // PPUDATA address increment, 1 or 32
	spriteTable     bool // pattern table for 8x8 sprites
	backgroundTable bool // pattern table for the background
	spriteSize16    bool // 8x16 sprites
	masterSlave     bool // unused on a stock console
	enableNMI       bool // raise NMI at vblank start
}

func (c *ppuCtrl) decodeFrom(data byte) {
	c.nametable = data & 0b11
	c.incrementBy32 = (data>>2)&1 == 1
	c.spriteTable = (data>>3)&1 == 1
	c.backgroundTable = (data>>4)&1 == 1
	c.spriteSize16 = (data>>5)&1 == 1
	c.masterSlave = (data>>6)&1 == 1
	c.enableNMI = (data>>7)&1 == 1
}

func (c *ppuCtrl) encode() byte {
	res := c.nametable & 0b11
	if c.incrementBy32 {
		res |= 1 << 2
	}
	if c.spriteTable {
		res |= 1 << 3
	}
	if c.backgroundTable {
		res |= 1 << 4
	}
	if c.spriteSize16 {
		res |= 1 << 5
	}
	if c.masterSlave {
		res |= 1 << 6
	}
	if c.enableNMI {
		res |= 1 << 7
	}
	return res
}

// ppuMask is PPUMASK ($2001), write only.
type ppuMask struct {
	greyscale          bool
	showLeftBackground bool // show background in the leftmost 8 pixels
	showLeftSprites    bool // show sprites in the leftmost 8 pixels
	showBackground     bool
	showSprites        bool
	emphasizeRed       bool
	emphasizeGreen     bool
	emphasizeBlue      bool
}

func (m *ppuMask) decodeFrom(data byte) {
	m.greyscale = data&1 == 1
	m.showLeftBackground = (data>>1)&1 == 1
	m.showLeftSprites = (data>>2)&1 == 1
	m.showBackground = (data>>3)&1 == 1
	m.showSprites = (data>>4)&1 == 1
	m.emphasizeRed = (data>>5)&1 == 1
	m.emphasizeGreen = (data>>6)&1 == 1
	m.emphasizeBlue = (data>>7)&1 == 1
}

func (m *ppuMask) encode() byte {
	var res byte
	if m.greyscale {
		res |= 1 << 0
	}
	if m.showLeftBackground {
		res |= 1 << 1
	}
	if m.showLeftSprites {
		res |= 1 << 2
	}
	if m.showBackground {
		res |= 1 << 3
	}
	if m.showSprites {
		res |= 1 << 4
	}
	if m.emphasizeRed {
		res |= 1 << 5
	}
	if m.emphasizeGreen {
		res |= 1 << 6
	}
	if m.emphasizeBlue {
		res |= 1 << 7
	}
	return res
}

// ppuStatus is PPUSTATUS ($2002), read only. The low 5 bits of a status read
// come from the data latch, not from here.
type ppuStatus struct {
	spriteOverflow bool
	sprite0Hit     bool
	vblank         bool
}

func (s *ppuStatus) encode() byte {
	var res byte
	if s.spriteOverflow {
		res |= 1 << 5
	}
	if s.sprite0Hit {
		res |= 1 << 6
	}
	if s.vblank {
		res |= 1 << 7
	}
	return res
}

func (s *ppuStatus) decodeFrom(data byte) {
	s.spriteOverflow = (data>>5)&1 == 1
	s.sprite0Hit = (data>>6)&1 == 1
	s.vblank = (data>>7)&1 == 1
}

// PPU emulates the picture processing unit: its register file, its private
// memory (OAM and palette here, nametables and pattern data behind PPUBus)
// and the scanline/cycle state machine that fills the frame buffer.
//
// References:
//   https://www.nesdev.org/wiki/PPU_registers
//   https://www.nesdev.org/wiki/PPU_rendering
//   https://www.nesdev.org/wiki/PPU_scrolling
type PPU struct {
	bus *PPUBus

	ctrl   ppuCtrl
	mask   ppuMask
	status ppuStatus

	// Loopy registers: current and temporary VRAM address (15 bit), fine X
	// scroll and the shared write toggle for PPUSCROLL/PPUADDR.
	v uint16
	t uint16
	x byte
	w bool

	// buffer holds the delayed PPUDATA read, latch the last value seen on
	// the register ports (what a read of a write-only port returns).
	buffer byte
	latch  byte

	paletteRAM [32]byte
	oam        [256]byte
	oamAddr    byte

	// cycle, scanline indicate which dot is processing. One frame is
	// 341x262 dots: scanlines 0-239 visible, 240 post-render, 241-260
	// vblank, 261 pre-render.
	cycle    int
	scanline int

	// Sprites selected for the scanline being drawn, at most 8.
	scanlineSprites [8]sprite
	spriteCount     int

	nmiPending bool
	frame      *image.RGBA
}

type sprite struct {
	index      int // position in OAM, 0-63
	y          int
	tile       byte
	attributes byte
	x          int
}

// NewPPU creates a PPU.
func NewPPU(bus *PPUBus) *PPU {
	p := &PPU{
		bus:   bus,
		frame: image.NewRGBA(image.Rect(0, 0, width, height)),
	}
	p.Reset()
	return p
}

// Reset puts the PPU into its power-on state at the top of the frame.
func (p *PPU) Reset() {
	p.ctrl.decodeFrom(0)
	p.mask.decodeFrom(0)
	p.status = ppuStatus{}
	p.v = 0
	p.t = 0
	p.x = 0
	p.w = false
	p.buffer = 0
	p.latch = 0
	p.oamAddr = 0
	p.cycle = 0
	p.scanline = 0
	p.spriteCount = 0
	p.nmiPending = false
}

// readRegister dispatches a CPU read of ports $2000-$2007 (already mirrored
// down by the bus). Reading a write-only port yields the latched last value.
func (p *PPU) readRegister(address uint16) byte {
	switch address {
	case 0x2002:
		return p.readPPUSTATUS()
	case 0x2004:
		return p.readOAMDATA()
	case 0x2007:
		return p.readPPUDATA()
	default:
		return p.latch
	}
}

// writeRegister dispatches a CPU write of ports $2000-$2007. Every write
// refreshes the data latch, writes to the read-only status port do nothing
// else.
func (p *PPU) writeRegister(address uint16, data byte) {
	p.latch = data
	switch address {
	case 0x2000:
		p.writePPUCTRL(data)
	case 0x2001:
		p.mask.decodeFrom(data)
	case 0x2003:
		p.oamAddr = data
	case 0x2004:
		p.writeOAMDATA(data)
	case 0x2005:
		p.writePPUSCROLL(data)
	case 0x2006:
		p.writePPUADDR(data)
	case 0x2007:
		p.writePPUDATA(data)
	}
}

// writePPUCTRL writes PPUCTRL ($2000).
func (p *PPU) writePPUCTRL(data byte) {
	wasEnabled := p.ctrl.enableNMI
	p.ctrl.decodeFrom(data)
	p.t = (p.t & 0xF3FF) | (uint16(data)&0b11)<<10
	// Enabling NMI while the vblank flag is already set fires one
	// immediately, games rely on this when they turn rendering on late.
	if !wasEnabled && p.ctrl.enableNMI && p.status.vblank {
		p.nmiPending = true
	}
}

// readPPUSTATUS reads PPUSTATUS ($2002). The read clears the vblank flag and
// the scroll/address write toggle; the low 5 bits are stale latch contents.
func (p *PPU) readPPUSTATUS() byte {
	res := p.status.encode() | p.latch&0x1F
	p.status.vblank = false
	p.w = false
	return res
}

// writeOAMDATA writes OAMDATA ($2004) and advances OAMADDR.
func (p *PPU) writeOAMDATA(data byte) {
	p.oam[p.oamAddr] = data
	p.oamAddr++
}

// readOAMDATA reads OAMDATA ($2004). Reads do not advance OAMADDR.
func (p *PPU) readOAMDATA() byte {
	return p.oam[p.oamAddr]
}

// writePPUSCROLL writes PPUSCROLL ($2005), fine/coarse X first, Y second.
func (p *PPU) writePPUSCROLL(data byte) {
	if !p.w {
		p.t = (p.t & 0xFFE0) | uint16(data)>>3
		p.x = data & 0b111
		p.w = true
	} else {
		p.t = (p.t & 0x8FFF) | (uint16(data)&0b111)<<12
		p.t = (p.t & 0xFC1F) | (uint16(data)&0xF8)<<2
		p.w = false
	}
}

// writePPUADDR writes PPUADDR ($2006), high byte first, low byte second.
func (p *PPU) writePPUADDR(data byte) {
	if !p.w {
		p.t = (p.t & 0x80FF) | (uint16(data)&0x3F)<<8
		p.w = true
	} else {
		p.t = (p.t & 0xFF00) | uint16(data)
		p.v = p.t
		p.w = false
	}
}

// incrementV advances the VRAM address after a PPUDATA access, by 1 across
// or 32 down per PPUCTRL.
func (p *PPU) incrementV() {
	if p.ctrl.incrementBy32 {
		p.v += 32
	} else {
		p.v++
	}
	p.v &= 0x3FFF
}

// paletteIndex folds a $3F00-$3FFF address into the 32-byte palette.
// $3F10/$3F14/$3F18/$3F1C are mirrors of $3F00/$3F04/$3F08/$3F0C.
func paletteIndex(address uint16) int {
	i := int(address & 0x1F)
	if i >= 0x10 && i%4 == 0 {
		i -= 0x10
	}
	return i
}

// writePPUDATA writes PPUDATA ($2007).
func (p *PPU) writePPUDATA(data byte) {
	address := p.v & 0x3FFF
	if address >= 0x3F00 {
		p.paletteRAM[paletteIndex(address)] = data
	} else {
		p.bus.write(address, data)
	}
	p.incrementV()
}

// readPPUDATA reads PPUDATA ($2007). Non-palette reads go through the
// internal buffer, so the first read after moving the address returns stale
// data. Palette reads are direct, but still refresh the buffer from the
// nametable underneath the palette address.
func (p *PPU) readPPUDATA() byte {
	address := p.v & 0x3FFF
	var data byte
	if address >= 0x3F00 {
		data = p.paletteRAM[paletteIndex(address)]
		p.buffer = p.bus.read(address & 0x2FFF)
	} else {
		data = p.buffer
		p.buffer = p.bus.read(address)
	}
	p.incrementV()
	return data
}

// writeOAMDMA copies a full 256-byte page into OAM starting at the current
// OAMADDR. The CPU-side stall is accounted for by the CPU, not here.
func (p *PPU) writeOAMDMA(data [256]byte) {
	for i := 0; i < 256; i++ {
		p.oam[p.oamAddr+byte(i)] = data[i]
	}
}

// PendingNMI reports whether the vblank interrupt line is raised and lowers
// it. The clock coordinator calls this after every PPU batch.
func (p *PPU) PendingNMI() bool {
	if p.nmiPending {
		p.nmiPending = false
		return true
	}
	return false
}

// Buffer returns the frame buffer. The content is only complete right after
// Step reported a finished frame.
func (p *PPU) Buffer() *image.RGBA {
	return p.frame
}

// Step advances the PPU by one dot and reports whether this dot completed a
// frame. Vblank begins at (241,1), the status flags clear on the pre-render
// line 261, and the counters wrap from (261,340) back to (0,0).
func (p *PPU) Step() bool {
	p.cycle++
	if p.cycle > 340 {
		p.cycle = 0
		p.scanline++
		if p.scanline > 261 {
			p.scanline = 0
			return true
		}
	}
	switch {
	case p.scanline < height:
		if p.cycle == 1 {
			p.evaluateSprites()
		}
		if p.cycle >= 1 && p.cycle <= width {
			p.renderPixel(p.cycle-1, p.scanline)
		}
	case p.scanline == 241 && p.cycle == 1:
		p.status.vblank = true
		if p.ctrl.enableNMI {
			p.nmiPending = true
		}
	case p.scanline == 261 && p.cycle == 1:
		// Pre-render line: the frame's flags clear and a leftover
		// interrupt that was never serviced is dropped.
		p.status.vblank = false
		p.status.sprite0Hit = false
		p.status.spriteOverflow = false
		p.nmiPending = false
	}
	return false
}

// spriteHeight is 8 or 16 depending on PPUCTRL.
func (p *PPU) spriteHeight() int {
	if p.ctrl.spriteSize16 {
		return 16
	}
	return 8
}

// evaluateSprites scans OAM in order and keeps the first 8 sprites that
// intersect the current scanline. A 9th sets the overflow flag. The OAM Y
// coordinate is the line above the sprite's first visible line.
func (p *PPU) evaluateSprites() {
	p.spriteCount = 0
	h := p.spriteHeight()
	for i := 0; i < 64; i++ {
		y := int(p.oam[i*4])
		if p.scanline < y+1 || p.scanline >= y+1+h {
			continue
		}
		if p.spriteCount == 8 {
			p.status.spriteOverflow = true
			break
		}
		p.scanlineSprites[p.spriteCount] = sprite{
			index:      i,
			y:          y,
			tile:       p.oam[i*4+1],
			attributes: p.oam[i*4+2],
			x:          int(p.oam[i*4+3]),
		}
		p.spriteCount++
	}
}

// backgroundColorIndex returns the 2-bit pattern value and the palette
// select for the background at (x, y), honoring the scroll registers.
func (p *PPU) backgroundColorIndex(x, y int) (byte, byte) {
	// Scroll comes from the temporary address and fine X: coarse scroll in
	// t's low bits, fine Y in t's top bits.
	scrollX := int(p.t&0x1F)<<3 | int(p.x)
	scrollY := int((p.t>>5)&0x1F)<<3 | int((p.t>>12)&0b111)
	table := byte((p.t >> 10) & 0b11)

	worldX := x + scrollX
	if worldX >= width {
		table ^= 1
		worldX -= width
	}
	worldY := y + scrollY
	for worldY >= height {
		table ^= 2
		worldY -= height
	}

	tileX := worldX / 8
	tileY := worldY / 8
	nameAddress := 0x2000 | uint16(table)<<10 | uint16(tileY*32+tileX)
	tile := p.bus.read(nameAddress)

	base := uint16(0)
	if p.ctrl.backgroundTable {
		base = 0x1000
	}
	row := uint16(worldY % 8)
	low := p.bus.read(base + uint16(tile)*16 + row)
	high := p.bus.read(base + uint16(tile)*16 + row + 8)
	shift := 7 - worldX%8
	value := (low>>shift)&1 | ((high>>shift)&1)<<1

	// One attribute byte covers a 4x4 tile block, 2 bits per 2x2 quadrant.
	attrAddress := 0x23C0 | uint16(table)<<10 | uint16((tileY/4)*8+tileX/4)
	attr := p.bus.read(attrAddress)
	quadrant := (tileY%4/2)*2 + tileX%4/2
	palette := (attr >> (quadrant * 2)) & 0b11

	return value, palette
}

// spriteAt returns the first opaque sprite pixel at (x, y) among the sprites
// selected for this scanline. OAM order is priority order, so the first hit
// wins. ok is false when every sprite is transparent here.
func (p *PPU) spriteAt(x, y int) (s sprite, value byte, ok bool) {
	h := p.spriteHeight()
	for i := 0; i < p.spriteCount; i++ {
		s = p.scanlineSprites[i]
		if x < s.x || x >= s.x+8 {
			continue
		}
		col := x - s.x
		row := y - (s.y + 1)
		if s.attributes&0x40 != 0 {
			col = 7 - col
		}
		if s.attributes&0x80 != 0 {
			row = h - 1 - row
		}
		tile := s.tile
		var base uint16
		if p.ctrl.spriteSize16 {
			// For 8x16 sprites bit 0 of the tile index selects the
			// pattern table and the pair of tiles is consecutive.
			base = uint16(tile&1) * 0x1000
			tile &= 0xFE
			if row >= 8 {
				tile++
				row -= 8
			}
		} else if p.ctrl.spriteTable {
			base = 0x1000
		}
		low := p.bus.read(base + uint16(tile)*16 + uint16(row))
		high := p.bus.read(base + uint16(tile)*16 + uint16(row) + 8)
		shift := 7 - col
		value = (low>>shift)&1 | ((high>>shift)&1)<<1
		if value != 0 {
			return s, value, true
		}
	}
	return sprite{}, 0, false
}

// paletteColor maps a palette slot to an RGB value. Slot 0 of every palette
// falls through to the universal backdrop color.
func (p *PPU) paletteColor(base int, palette byte, value byte) color.RGBA {
	if value == 0 {
		return colors[p.paletteRAM[0]&0x3F]
	}
	return colors[p.paletteRAM[base+int(palette)*4+int(value)]&0x3F]
}

// renderPixel resolves the background and sprite pixel at (x, y) and writes
// the winner into the frame buffer. Priority rules: a transparent background
// always loses to an opaque sprite, an opaque background beats a sprite
// whose behind-background attribute bit is set, and an opaque overlap with
// sprite 0 records the sprite-0 hit.
func (p *PPU) renderPixel(x, y int) {
	bgValue := byte(0)
	bgPalette := byte(0)
	if p.mask.showBackground && (x >= 8 || p.mask.showLeftBackground) {
		bgValue, bgPalette = p.backgroundColorIndex(x, y)
	}

	if p.mask.showSprites && (x >= 8 || p.mask.showLeftSprites) {
		if s, value, ok := p.spriteAt(x, y); ok {
			if s.index == 0 && bgValue != 0 && x < 255 {
				p.status.sprite0Hit = true
			}
			behind := s.attributes&0x20 != 0
			if bgValue == 0 || !behind {
				p.frame.SetRGBA(x, y, p.paletteColor(0x10, s.attributes&0b11, value))
				return
			}
		}
	}
	p.frame.SetRGBA(x, y, p.paletteColor(0, bgPalette, bgValue))
}
