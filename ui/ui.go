package ui

import (
	"image"
	"runtime"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/golang/glog"
)

func init() {
	// GLFW event handling must run on the main OS thread.
	runtime.LockOSThread()
}

// Console is what the window needs from the emulator core.
type Console interface {
	StepFrame() *image.RGBA
	SetButtons(buttons [8]bool)
	SetAudioOut(ch chan float32)
	Reset()
}

func mainLoop(window *glfw.Window, console Console, texture uint32) {
	for !window.ShouldClose() {
		console.SetButtons(getKeys(window))
		frame := console.StepFrame()
		updateTexture(texture, frame)
		gl.Clear(gl.COLOR_BUFFER_BIT)
		gl.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)
		// SwapInterval 1 paces this loop to the display, close enough
		// to the console's 60Hz.
		window.SwapBuffers()
		glfw.PollEvents()
	}
}

// Start opens the window and runs the console until the window closes.
func Start(console Console, width int, height int) {
	if err := glfw.Init(); err != nil {
		glog.Fatalln(err)
	}
	defer glfw.Terminate()
	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.False)
	window, err := glfw.CreateWindow(width, height, "famicore", nil, nil)
	if err != nil {
		glog.Fatalln(err)
	}
	window.MakeContextCurrent()
	glfw.SwapInterval(1)
	if err := gl.Init(); err != nil {
		glog.Fatalln(err)
	}
	program, err := newProgram()
	if err != nil {
		glog.Fatalln(err)
	}
	gl.UseProgram(program)
	texture := createTexture()

	audio := newAudio()
	if err := audio.start(); err != nil {
		// Video still works without a sound device.
		glog.Errorf("Audio disabled: %v", err)
	} else {
		console.SetAudioOut(audio.channel)
		defer audio.terminate()
	}

	mainLoop(window, console, texture)
}
