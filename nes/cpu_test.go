package nes

import "testing"

// newTestConsole assembles a console around a 16 KiB NROM image: the program
// sits at $8000 (the reset vector points there), the NMI and IRQ vectors
// point at RTI instructions at $9000/$9001.
func newTestConsole(t *testing.T, program []byte) *Console {
	t.Helper()
	prg := make([]byte, prgROMSizeUnit)
	copy(prg, program)
	prg[0x1000] = 0x40 // NMI handler: RTI
	prg[0x1001] = 0x40 // IRQ handler: RTI
	prg[0x3FFA] = 0x00 // NMI vector -> $9000
	prg[0x3FFB] = 0x90
	prg[0x3FFC] = 0x00 // reset vector -> $8000
	prg[0x3FFD] = 0x80
	prg[0x3FFE] = 0x01 // IRQ vector -> $9001
	prg[0x3FFF] = 0x90
	console, err := NewConsole(buildINES(prg, make([]byte, chrROMSizeUnit), 0, 0), false)
	if err != nil {
		t.Fatalf("NewConsole: %v", err)
	}
	return console
}

func newTestCPU(t *testing.T, program []byte) *CPU {
	t.Helper()
	return newTestConsole(t, program).cpu
}

func TestReset(t *testing.T) {
	cpu := newTestCPU(t, nil)
	if cpu.pc != 0x8000 {
		t.Errorf("pc: got=0x%04x, want=0x8000", cpu.pc)
	}
	if cpu.s != 0xFD {
		t.Errorf("s: got=0x%02x, want=0xfd", cpu.s)
	}
	if got := cpu.p.encode(); got != 0x24 {
		t.Errorf("p: got=0x%02x, want=0x24", got)
	}
}

func TestInstructionTableTotal(t *testing.T) {
	cpu := newTestCPU(t, nil)
	for op, in := range cpu.instructions {
		if in.execute == nil || in.size == 0 || in.cycles == 0 {
			t.Errorf("opcode 0x%02x: incomplete entry %+v", op, in)
		}
	}
}

func TestUndocumentedOpcode(t *testing.T) {
	cpu := newTestCPU(t, []byte{0x02})
	if got := cpu.Step(); got != 2 {
		t.Errorf("cycles: got=%d, want=2", got)
	}
	if cpu.pc != 0x8001 {
		t.Errorf("pc: got=0x%04x, want=0x8001", cpu.pc)
	}
}

func TestLoadFlags(t *testing.T) {
	tests := []struct {
		name    string
		program []byte
		wantA   byte
		wantZ   bool
		wantN   bool
	}{
		{"positive", []byte{0xA9, 0x01}, 0x01, false, false},
		{"zero", []byte{0xA9, 0x00}, 0x00, true, false},
		{"negative", []byte{0xA9, 0x80}, 0x80, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cpu := newTestCPU(t, tt.program)
			if got := cpu.Step(); got != 2 {
				t.Errorf("cycles: got=%d, want=2", got)
			}
			if cpu.a != tt.wantA {
				t.Errorf("a: got=0x%02x, want=0x%02x", cpu.a, tt.wantA)
			}
			if cpu.p.z != tt.wantZ || cpu.p.n != tt.wantN {
				t.Errorf("flags: got z=%v n=%v, want z=%v n=%v", cpu.p.z, cpu.p.n, tt.wantZ, tt.wantN)
			}
		})
	}
}

func TestADC(t *testing.T) {
	tests := []struct {
		name         string
		a, operand   byte
		carryIn      bool
		want         byte
		wantC, wantV bool
	}{
		{"simple", 0x01, 0x01, false, 0x02, false, false},
		{"with carry in", 0x01, 0x01, true, 0x03, false, false},
		{"carry out", 0xFF, 0x01, false, 0x00, true, false},
		{"positive overflow", 0x50, 0x50, false, 0xA0, false, true},
		{"negative overflow", 0xD0, 0x90, false, 0x60, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cpu := newTestCPU(t, []byte{0x69, tt.operand})
			cpu.a = tt.a
			cpu.p.c = tt.carryIn
			cpu.Step()
			if cpu.a != tt.want {
				t.Errorf("a: got=0x%02x, want=0x%02x", cpu.a, tt.want)
			}
			if cpu.p.c != tt.wantC || cpu.p.v != tt.wantV {
				t.Errorf("flags: got c=%v v=%v, want c=%v v=%v", cpu.p.c, cpu.p.v, tt.wantC, tt.wantV)
			}
		})
	}
}

func TestSBC(t *testing.T) {
	tests := []struct {
		name         string
		a, operand   byte
		carryIn      bool
		want         byte
		wantC, wantV bool
	}{
		{"simple", 0x03, 0x01, true, 0x02, true, false},
		{"borrow in", 0x03, 0x01, false, 0x01, true, false},
		{"borrow out", 0x01, 0x02, true, 0xFF, false, false},
		{"no overflow", 0x50, 0xF0, true, 0x60, false, false},
		{"overflow", 0xD0, 0x70, true, 0x60, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cpu := newTestCPU(t, []byte{0xE9, tt.operand})
			cpu.a = tt.a
			cpu.p.c = tt.carryIn
			cpu.Step()
			if cpu.a != tt.want {
				t.Errorf("a: got=0x%02x, want=0x%02x", cpu.a, tt.want)
			}
			if cpu.p.c != tt.wantC || cpu.p.v != tt.wantV {
				t.Errorf("flags: got c=%v v=%v, want c=%v v=%v", cpu.p.c, cpu.p.v, tt.wantC, tt.wantV)
			}
		})
	}
}

func TestCMP(t *testing.T) {
	tests := []struct {
		name                string
		a, operand          byte
		wantC, wantZ, wantN bool
	}{
		{"equal", 0x10, 0x10, true, true, false},
		{"greater", 0x20, 0x10, true, false, false},
		{"less", 0x10, 0x20, false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cpu := newTestCPU(t, []byte{0xC9, tt.operand})
			cpu.a = tt.a
			cpu.Step()
			if cpu.p.c != tt.wantC || cpu.p.z != tt.wantZ || cpu.p.n != tt.wantN {
				t.Errorf("flags: got c=%v z=%v n=%v, want c=%v z=%v n=%v",
					cpu.p.c, cpu.p.z, cpu.p.n, tt.wantC, tt.wantZ, tt.wantN)
			}
		})
	}
}

func TestShiftsAndRotates(t *testing.T) {
	tests := []struct {
		name    string
		opcode  byte
		a       byte
		carryIn bool
		want    byte
		wantC   bool
	}{
		{"ASL", 0x0A, 0x81, false, 0x02, true},
		{"LSR", 0x4A, 0x01, false, 0x00, true},
		{"ROL", 0x2A, 0x80, true, 0x01, true},
		{"ROR", 0x6A, 0x01, true, 0x80, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cpu := newTestCPU(t, []byte{tt.opcode})
			cpu.a = tt.a
			cpu.p.c = tt.carryIn
			if got := cpu.Step(); got != 2 {
				t.Errorf("cycles: got=%d, want=2", got)
			}
			if cpu.a != tt.want {
				t.Errorf("a: got=0x%02x, want=0x%02x", cpu.a, tt.want)
			}
			if cpu.p.c != tt.wantC {
				t.Errorf("c: got=%v, want=%v", cpu.p.c, tt.wantC)
			}
		})
	}
}

func TestShiftMemory(t *testing.T) {
	// ASL $10 shifts in place with 5 cycles.
	cpu := newTestCPU(t, []byte{0x06, 0x10})
	cpu.bus.write(0x0010, 0x40)
	if got := cpu.Step(); got != 5 {
		t.Errorf("cycles: got=%d, want=5", got)
	}
	if got := cpu.bus.read(0x0010); got != 0x80 {
		t.Errorf("memory: got=0x%02x, want=0x80", got)
	}
	if !cpu.p.n {
		t.Error("n: got=false, want=true")
	}
}

func TestBranchCycles(t *testing.T) {
	// BNE not taken costs 2 cycles.
	cpu := newTestCPU(t, []byte{0xD0, 0x10})
	cpu.p.z = true
	if got := cpu.Step(); got != 2 {
		t.Errorf("not taken cycles: got=%d, want=2", got)
	}
	if cpu.pc != 0x8002 {
		t.Errorf("pc: got=0x%04x, want=0x8002", cpu.pc)
	}

	// Taken within the same page costs 3.
	cpu = newTestCPU(t, []byte{0xD0, 0x10})
	if got := cpu.Step(); got != 3 {
		t.Errorf("taken cycles: got=%d, want=3", got)
	}
	if cpu.pc != 0x8012 {
		t.Errorf("pc: got=0x%04x, want=0x8012", cpu.pc)
	}

	// Taken across a page boundary costs 4.
	program := make([]byte, 0xF2)
	program[0xF0] = 0xD0
	program[0xF1] = 0x20
	cpu = newTestCPU(t, program)
	cpu.pc = 0x80F0
	if got := cpu.Step(); got != 4 {
		t.Errorf("page-cross cycles: got=%d, want=4", got)
	}
	if cpu.pc != 0x8112 {
		t.Errorf("pc: got=0x%04x, want=0x8112", cpu.pc)
	}

	// Backward branch.
	cpu = newTestCPU(t, []byte{0xEA, 0xD0, 0xFD}) // NOP; BNE -3
	cpu.Step()
	cpu.Step()
	if cpu.pc != 0x8000 {
		t.Errorf("pc: got=0x%04x, want=0x8000", cpu.pc)
	}
}

func TestPageCrossPenalty(t *testing.T) {
	// LDA $80FF,X with X=1 crosses into $8100: 5 cycles instead of 4.
	cpu := newTestCPU(t, []byte{0xBD, 0xFF, 0x80})
	cpu.x = 1
	if got := cpu.Step(); got != 5 {
		t.Errorf("crossed cycles: got=%d, want=5", got)
	}

	cpu = newTestCPU(t, []byte{0xBD, 0x00, 0x80})
	cpu.x = 1
	if got := cpu.Step(); got != 4 {
		t.Errorf("uncrossed cycles: got=%d, want=4", got)
	}

	// Stores never take the penalty.
	cpu = newTestCPU(t, []byte{0x9D, 0xFF, 0x01}) // STA $01FF,X
	cpu.x = 1
	if got := cpu.Step(); got != 5 {
		t.Errorf("STA cycles: got=%d, want=5", got)
	}
}

func TestZeroPageWrap(t *testing.T) {
	// LDA $FF,X with X=2 wraps to $0001, not $0101.
	cpu := newTestCPU(t, []byte{0xB5, 0xFF})
	cpu.x = 2
	cpu.bus.write(0x0001, 0x5A)
	cpu.bus.write(0x0101, 0xFF)
	cpu.Step()
	if cpu.a != 0x5A {
		t.Errorf("a: got=0x%02x, want=0x5a", cpu.a)
	}
}

func TestIndirectY(t *testing.T) {
	// LDA ($10),Y where the pointer is $00FF and Y=1: crosses to $0100.
	cpu := newTestCPU(t, []byte{0xB1, 0x10})
	cpu.y = 1
	cpu.bus.write(0x0010, 0xFF)
	cpu.bus.write(0x0011, 0x00)
	cpu.bus.write(0x0100, 0x77)
	if got := cpu.Step(); got != 6 {
		t.Errorf("cycles: got=%d, want=6", got)
	}
	if cpu.a != 0x77 {
		t.Errorf("a: got=0x%02x, want=0x77", cpu.a)
	}
}

func TestJMPIndirectPageBug(t *testing.T) {
	// JMP ($02FF) fetches the high byte from $0200, not $0300.
	cpu := newTestCPU(t, []byte{0x6C, 0xFF, 0x02})
	cpu.bus.write(0x02FF, 0x34)
	cpu.bus.write(0x0200, 0x12)
	cpu.bus.write(0x0300, 0xFF)
	if got := cpu.Step(); got != 5 {
		t.Errorf("cycles: got=%d, want=5", got)
	}
	if cpu.pc != 0x1234 {
		t.Errorf("pc: got=0x%04x, want=0x1234", cpu.pc)
	}
}

func TestStack(t *testing.T) {
	// PHA, then clobber A, then PLA restores it.
	cpu := newTestCPU(t, []byte{0xA9, 0x42, 0x48, 0xA9, 0x00, 0x68})
	for i := 0; i < 4; i++ {
		cpu.Step()
	}
	if cpu.a != 0x42 {
		t.Errorf("a: got=0x%02x, want=0x42", cpu.a)
	}
	if cpu.s != 0xFD {
		t.Errorf("s: got=0x%02x, want=0xfd", cpu.s)
	}
}

func TestPHPPLP(t *testing.T) {
	cpu := newTestCPU(t, []byte{0x08})
	cpu.Step()
	// The stacked copy carries the break bits on top of P=0x24.
	if got := cpu.bus.read(0x01FD); got != 0x34 {
		t.Errorf("stacked p: got=0x%02x, want=0x34", got)
	}

	// PLP drops the break bit and forces the reserved bit.
	cpu = newTestCPU(t, []byte{0xA9, 0xFF, 0x48, 0x28})
	for i := 0; i < 3; i++ {
		cpu.Step()
	}
	if got := cpu.p.encode(); got != 0xEF {
		t.Errorf("p: got=0x%02x, want=0xef", got)
	}
}

func TestJSRRTS(t *testing.T) {
	// JSR $8010; the subroutine loads A and returns.
	program := make([]byte, 0x12)
	copy(program, []byte{0x20, 0x10, 0x80})
	program[0x10] = 0xEA // NOP
	program[0x11] = 0x60 // RTS
	cpu := newTestCPU(t, program)
	if got := cpu.Step(); got != 6 {
		t.Errorf("JSR cycles: got=%d, want=6", got)
	}
	if cpu.pc != 0x8010 {
		t.Errorf("pc: got=0x%04x, want=0x8010", cpu.pc)
	}
	cpu.Step() // NOP
	if got := cpu.Step(); got != 6 {
		t.Errorf("RTS cycles: got=%d, want=6", got)
	}
	if cpu.pc != 0x8003 {
		t.Errorf("pc after RTS: got=0x%04x, want=0x8003", cpu.pc)
	}
	if cpu.s != 0xFD {
		t.Errorf("s: got=0x%02x, want=0xfd", cpu.s)
	}
}

func TestBRKRTI(t *testing.T) {
	cpu := newTestCPU(t, []byte{0x00, 0xEA, 0xEA})
	if got := cpu.Step(); got != 7 {
		t.Errorf("BRK cycles: got=%d, want=7", got)
	}
	if cpu.pc != 0x9001 {
		t.Errorf("pc: got=0x%04x, want=0x9001", cpu.pc)
	}
	if !cpu.p.i {
		t.Error("i: got=false, want=true")
	}
	if got := cpu.Step(); got != 6 { // RTI
		t.Errorf("RTI cycles: got=%d, want=6", got)
	}
	// BRK returns past its padding byte.
	if cpu.pc != 0x8002 {
		t.Errorf("pc after RTI: got=0x%04x, want=0x8002", cpu.pc)
	}
}

func TestNMI(t *testing.T) {
	cpu := newTestCPU(t, []byte{0xEA, 0xEA})
	cpu.TriggerNMI()
	if got := cpu.Step(); got != 7 {
		t.Errorf("NMI cycles: got=%d, want=7", got)
	}
	if cpu.pc != 0x9000 {
		t.Errorf("pc: got=0x%04x, want=0x9000", cpu.pc)
	}
	if !cpu.p.i {
		t.Error("i: got=false, want=true")
	}
	// The stacked status has the break bit clear.
	if got := cpu.bus.read(0x01FB); got&0x10 != 0 {
		t.Errorf("stacked p: got=0x%02x, want break bit clear", got)
	}
	// RTI resumes the interrupted program.
	cpu.Step()
	if cpu.pc != 0x8000 {
		t.Errorf("pc after RTI: got=0x%04x, want=0x8000", cpu.pc)
	}
	cpu.Step()
	if cpu.pc != 0x8001 {
		t.Errorf("pc after NOP: got=0x%04x, want=0x8001", cpu.pc)
	}
}

func TestOAMDMA(t *testing.T) {
	console := newTestConsole(t, []byte{0xA9, 0x02, 0x8D, 0x14, 0x40}) // LDA #$02; STA $4014
	cpu := console.cpu
	for i := 0; i < 256; i++ {
		cpu.bus.write(0x0200+uint16(i), byte(i))
	}
	cpu.Step() // LDA
	cpu.Step() // STA triggers the copy
	for i := 0; i < 256; i++ {
		if console.ppu.oam[i] != byte(i) {
			t.Fatalf("oam[%d]: got=0x%02x, want=0x%02x", i, console.ppu.oam[i], byte(i))
		}
	}
	// 2 + 4 cycles so far: even parity stalls 513.
	if got := cpu.Step(); got != 513 {
		t.Errorf("stall cycles: got=%d, want=513", got)
	}

	// Odd parity stalls 514.
	console = newTestConsole(t, []byte{0xEA, 0xA9, 0x02, 0x8D, 0x14, 0x40})
	cpu = console.cpu
	cpu.Step() // NOP, 2 cycles
	cpu.Step() // LDA, 2 cycles
	cpu.cycles++
	cpu.Step() // STA
	if got := cpu.Step(); got != 514 {
		t.Errorf("stall cycles: got=%d, want=514", got)
	}
}

func TestIncDec(t *testing.T) {
	cpu := newTestCPU(t, []byte{0xE6, 0x10, 0xC6, 0x10, 0xC6, 0x10}) // INC $10; DEC $10; DEC $10
	cpu.Step()
	if got := cpu.bus.read(0x0010); got != 1 {
		t.Errorf("after INC: got=%d, want=1", got)
	}
	cpu.Step()
	if !cpu.p.z {
		t.Error("z after DEC to zero: got=false, want=true")
	}
	cpu.Step()
	if got := cpu.bus.read(0x0010); got != 0xFF {
		t.Errorf("after DEC wrap: got=0x%02x, want=0xff", got)
	}
	if !cpu.p.n {
		t.Error("n after DEC wrap: got=false, want=true")
	}
}

func TestTransfers(t *testing.T) {
	cpu := newTestCPU(t, []byte{0xAA, 0xA8, 0x9A, 0xBA}) // TAX; TAY; TXS; TSX
	cpu.a = 0x33
	cpu.Step()
	cpu.Step()
	if cpu.x != 0x33 || cpu.y != 0x33 {
		t.Errorf("x,y: got=0x%02x,0x%02x, want=0x33,0x33", cpu.x, cpu.y)
	}
	cpu.Step()
	if cpu.s != 0x33 {
		t.Errorf("s: got=0x%02x, want=0x33", cpu.s)
	}
	cpu.x = 0
	cpu.Step()
	if cpu.x != 0x33 {
		t.Errorf("x after TSX: got=0x%02x, want=0x33", cpu.x)
	}
}
