package nes

import (
	"bufio"
	"fmt"
	"image"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// DebugConsole wraps a Console with an interactive stdio stepper.
// commands:
//   s [n|<n>s|<n>d]:
//     execute step(s); a trailing s runs n emulated seconds, d prints after
//     every step.
//   p [cpu|ppu|ct|wr|vr]:
//     print state.
//   br 0xADDR:
//     set a break point.
//   save/load FILE:
//     snapshot to/from a file.
//   r:
//     reset.
//   q:
//     quit.
type DebugConsole struct {
	*Console
	frames      uint64
	breakpoints []uint16
}

func NewDebugConsole(c *Console) *DebugConsole {
	return &DebugConsole{Console: c}
}

func (c *DebugConsole) step() int {
	cycles := c.Console.Step()
	if c.frameReady {
		c.frames++
		c.frameReady = false
	}
	return cycles
}

func (c *DebugConsole) basePrint() {
	fmt.Println("--------------------------------------------------")
	fmt.Printf("Executed cycles: %d\n", c.cpu.cycles)
	fmt.Printf("Rendered frames: %d\n", c.frames)
	fmt.Println("Last: " + c.cpu.lastExecution)
	fmt.Printf("CPU: PC=0x%04x, A=0x%02x, X=0x%02x, Y=0x%02x, S=0x%02x, P=0x%02x\n",
		c.cpu.pc, c.cpu.a, c.cpu.x, c.cpu.y, c.cpu.s, c.cpu.p.encode())
	fmt.Printf("PPU: cycle=%d, scanline=%d, v=0x%04x, t=0x%04x\n",
		c.ppu.cycle, c.ppu.scanline, c.ppu.v, c.ppu.t)
}

func (c *DebugConsole) printStack() {
	for i := 0; i < 256; i++ {
		idx := uint16(0x100 | i)
		fmt.Printf("0x%04x: 0x%02x, ", idx, c.cpuBus.read(idx))
		if i%16 == 15 {
			fmt.Println()
		}
	}
}

func (c *DebugConsole) printCommand(args []string) {
	if len(args) < 2 {
		c.basePrint()
		return
	}
	switch args[1] {
	case "c", "cpu":
		fmt.Printf("%+v\n", *c.cpu.p)
		c.basePrint()
	case "p", "ppu":
		fmt.Printf("%+v\n", *c.ppu)
	case "ct", "controller":
		fmt.Printf("%+v\n", *c.controller)
	case "st", "stack":
		c.printStack()
	case "wr", "wram":
		fmt.Printf("%+v\n", *c.wram)
	case "vr", "vram":
		fmt.Printf("%+v\n", *c.vram)
	}
}

func (c *DebugConsole) checkBreak() bool {
	for _, bp := range c.breakpoints {
		if bp == c.cpu.pc {
			fmt.Printf("Break at: 0x%04x\n", bp)
			return true
		}
	}
	return false
}

func (c *DebugConsole) stepCommand(args []string) int {
	if len(args) < 2 {
		return c.step()
	}
	re := regexp.MustCompile("^([0-9]+)")
	if !re.MatchString(args[1]) {
		return 0
	}
	num, _ := strconv.Atoi(re.FindString(args[1]))
	unit := args[1][len(args[1])-1]
	cycles := 0
	switch unit {
	case 's':
		// Emulated seconds: CPUFrequency cycles each, about 60 frames.
		for cycles < CPUFrequency*num {
			cycles += c.step()
			if c.checkBreak() {
				return cycles
			}
		}
	case 'd':
		for i := 0; i < num; i++ {
			cycles += c.step()
			c.basePrint()
			if c.checkBreak() {
				return cycles
			}
		}
	default:
		for i := 0; i < num; i++ {
			cycles += c.step()
			if c.checkBreak() {
				return cycles
			}
		}
	}
	return cycles
}

func (c *DebugConsole) breakPointCommand(args []string) {
	if len(args) < 2 {
		return
	}
	var i int
	fmt.Sscanf(args[1], "0x%x", &i)
	c.breakpoints = append(c.breakpoints, uint16(i))
	fmt.Printf("Breakpoint at 0x%04x\n", i)
}

func (c *DebugConsole) saveCommand(args []string) {
	if len(args) < 2 {
		fmt.Println("save FILE")
		return
	}
	f, err := os.Create(args[1])
	if err != nil {
		fmt.Println(err)
		return
	}
	defer f.Close()
	if err := c.Save(f); err != nil {
		fmt.Println(err)
	}
}

func (c *DebugConsole) loadCommand(args []string) {
	if len(args) < 2 {
		fmt.Println("load FILE")
		return
	}
	f, err := os.Open(args[1])
	if err != nil {
		fmt.Println(err)
		return
	}
	defer f.Close()
	if err := c.Load(f); err != nil {
		fmt.Println(err)
	}
}

// StepFrame prompts for one command and returns the frame buffer as it is,
// complete or not, so the window keeps showing progress while stepping.
func (c *DebugConsole) StepFrame() *image.RGBA {
	fmt.Printf("Debugger mode, 'q' to quit \n>> ")
	in := bufio.NewReader(os.Stdin)
	line, err := in.ReadString('\n')
	if err != nil {
		fmt.Println(err)
		return c.ppu.Buffer()
	}
	args := strings.Split(strings.TrimSuffix(line, "\n"), " ")
	switch args[0] {
	case "p", "print":
		c.printCommand(args)
	case "s", "step":
		cycles := c.stepCommand(args)
		c.basePrint()
		fmt.Printf("Executed %d CPU cycles, %d PPU cycles.\n", cycles, 3*cycles)
	case "br", "breakpoint":
		c.breakPointCommand(args)
	case "save":
		c.saveCommand(args)
	case "load":
		c.loadCommand(args)
	case "r", "reset":
		c.Reset()
	case "q", "quit":
		fmt.Println("Quitting.")
		os.Exit(0)
	default:
		fmt.Printf("Unknown command %q\n", args[0])
	}
	return c.ppu.Buffer()
}
