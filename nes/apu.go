package nes

import "math"

const audioSampleRate = 44100

// APU is a register-port stub for $4000-$4017. It accepts every write so the
// bus dispatch stays total and produces a placeholder tone so the audio path
// is exercised end to end. Faithful synthesis is not a goal of this core.
type APU struct {
	pulse1 pulse
	pulse2 pulse
	out    chan float32
	sample int
}

func NewAPU() *APU {
	return &APU{}
}

// writeRegister accepts a CPU write in the $4000-$4017 window.
func (a *APU) writeRegister(address uint16, data byte) {
	switch address {
	case 0x4000:
		a.pulse1.writeControl(data)
	case 0x4001:
		a.pulse1.writeSweep(data)
	case 0x4002:
		a.pulse1.writeTimerLow(data)
	case 0x4003:
		a.pulse1.writeTimerHigh(data)
	case 0x4004:
		a.pulse2.writeControl(data)
	case 0x4005:
		a.pulse2.writeSweep(data)
	case 0x4006:
		a.pulse2.writeTimerLow(data)
	case 0x4007:
		a.pulse2.writeTimerHigh(data)
	case 0x4015:
		a.writeControl(data)
	}
}

// Step pushes one stereo sample pair if anyone is listening.
func (a *APU) Step() {
	if a.out == nil {
		return
	}
	x := float32(math.Sin(2.0 * math.Pi * 440 * float64(a.sample) / float64(audioSampleRate)))
	select {
	case a.out <- x: // l
	default:
	}
	select {
	case a.out <- x: // r
	default:
	}
	a.sample++
	if a.sample >= audioSampleRate*10 {
		a.sample = 0
	}
}

// SetAudioOut attaches the sample sink the presentation layer drains.
func (a *APU) SetAudioOut(c chan float32) {
	a.out = c
}

func (a *APU) writeControl(data byte) {
}

// Pulse channel register latches.
type pulse struct {
	control   byte
	sweep     byte
	timerLow  byte
	timerHigh byte
}

func (p *pulse) writeControl(data byte) {
	p.control = data
}

func (p *pulse) writeSweep(data byte) {
	p.sweep = data
}

func (p *pulse) writeTimerLow(data byte) {
	p.timerLow = data
}

func (p *pulse) writeTimerHigh(data byte) {
	p.timerHigh = data
}
