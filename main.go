package main

import (
	"flag"
	"os"
	"runtime/pprof"

	"github.com/golang/glog"

	"github.com/famicore/famicore/nes"
	"github.com/famicore/famicore/ui"
)

var (
	path       = flag.String("path", "", "path to NES ROM file")
	width      = flag.Int("width", 256*4, "window width")
	height     = flag.Int("height", 240*4, "window height")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	debug      = flag.Bool("debug", false, "run the interactive debugger instead of realtime")
	statePath  = flag.String("state", "", "snapshot to restore at startup")
)

func main() {
	flag.Parse()
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			glog.Fatal("Failed to create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			glog.Fatal("Failed to start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}
	if *path == "" {
		glog.Fatalln("-path is required")
	}
	buf, err := os.ReadFile(*path)
	if err != nil {
		glog.Fatalln("Failed to read: "+*path+": ", err)
	}
	console, err := nes.NewConsole(buf, *debug)
	if err != nil {
		glog.Fatalln("Failed to initiate Console: ", err)
	}
	if *statePath != "" {
		f, err := os.Open(*statePath)
		if err != nil {
			glog.Fatalln("Failed to open snapshot: ", err)
		}
		if err := console.Load(f); err != nil {
			glog.Fatalln("Failed to restore snapshot: ", err)
		}
		f.Close()
	}
	if *debug {
		ui.Start(nes.NewDebugConsole(console), *width, *height)
		return
	}
	ui.Start(console, *width, *height)
}
