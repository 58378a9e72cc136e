package nes

import "testing"

func TestMirrorAddress(t *testing.T) {
	tests := []struct {
		mode    tableMirrorMode
		address uint16
		want    uint16
	}{
		// Horizontal: tables 0,1 share the first bank, 2,3 the second.
		{horizontal, 0x2000, 0x0000},
		{horizontal, 0x2400, 0x0000},
		{horizontal, 0x2800, 0x0400},
		{horizontal, 0x2C00, 0x0400},
		{horizontal, 0x23FF, 0x03FF},
		// Vertical: tables 0,2 share the first bank, 1,3 the second.
		{vertical, 0x2000, 0x0000},
		{vertical, 0x2400, 0x0400},
		{vertical, 0x2800, 0x0000},
		{vertical, 0x2C00, 0x0400},
		// $3000-$3EFF folds down onto $2000-$2EFF first.
		{horizontal, 0x3000, 0x0000},
		{vertical, 0x3400, 0x0400},
	}
	for _, tt := range tests {
		b := &PPUBus{vram: NewRAM(), mirror: tt.mode}
		if got := b.mirrorAddress(tt.address); got != tt.want {
			t.Errorf("mirrorAddress(0x%04x) mode=%v: got=0x%04x, want=0x%04x",
				tt.address, tt.mode, got, tt.want)
		}
	}
}

func TestPPUBusNametableAliasing(t *testing.T) {
	console := newTestConsole(t, nil) // horizontal mirroring
	bus := console.ppuBus
	bus.write(0x2000, 0x11)
	if got := bus.read(0x2400); got != 0x11 {
		t.Errorf("read 0x2400: got=0x%02x, want=0x11", got)
	}
	if got := bus.read(0x2800); got == 0x11 {
		t.Error("read 0x2800 aliased across banks under horizontal mirroring")
	}
	bus.write(0x2C00, 0x22)
	if got := bus.read(0x2800); got != 0x22 {
		t.Errorf("read 0x2800: got=0x%02x, want=0x22", got)
	}
}
