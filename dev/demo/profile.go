package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"time"

	"github.com/golang/glog"
)

const (
	memProfileRate = 4096
	timeFormat     = "20060102_150405"
)

// profiler is one profiling session toggled by SIGUSR2. Every profile it
// starts registers a stop func that flushes the data file.
type profiler struct {
	dir   string
	stops []func()
}

func startProfiler(dir string) *profiler {
	p := &profiler{dir: dir}

	p.start("cpu", func(f *os.File) (func(), error) {
		if err := pprof.StartCPUProfile(f); err != nil {
			return nil, err
		}
		return pprof.StopCPUProfile, nil
	})
	p.start("mem", func(f *os.File) (func(), error) {
		old := runtime.MemProfileRate
		runtime.MemProfileRate = memProfileRate
		return func() {
			_ = pprof.Lookup("heap").WriteTo(f, 0)
			runtime.MemProfileRate = old
		}, nil
	})
	p.start("mutex", func(f *os.File) (func(), error) {
		runtime.SetMutexProfileFraction(1)
		return func() {
			_ = pprof.Lookup("mutex").WriteTo(f, 0)
			runtime.SetMutexProfileFraction(0)
		}, nil
	})
	p.start("block", func(f *os.File) (func(), error) {
		runtime.SetBlockProfileRate(1)
		return func() {
			_ = pprof.Lookup("block").WriteTo(f, 0)
			runtime.SetBlockProfileRate(0)
		}, nil
	})
	p.start("trace", func(f *os.File) (func(), error) {
		if err := trace.Start(f); err != nil {
			return nil, err
		}
		return trace.Stop, nil
	})
	return p
}

func (p *profiler) start(kind string, begin func(f *os.File) (func(), error)) {
	name := p.file(kind, "pprof")
	f, err := os.Create(name)
	if err != nil {
		glog.Errorf("pprof: create %s profile %q: %v", kind, name, err)
		return
	}
	end, err := begin(f)
	if err != nil {
		f.Close()
		glog.Errorf("pprof: start %s profile: %v", kind, err)
		return
	}
	glog.Infof("pprof: %s profiling enabled, %s", kind, name)
	p.stops = append(p.stops, func() {
		end()
		f.Close()
		glog.Infof("pprof: %s profiling disabled, %s", kind, name)
	})
}

func (p *profiler) stop() {
	for _, fn := range p.stops {
		fn()
	}
	p.stops = nil
}

func (p *profiler) file(kind, ext string) string {
	return filepath.Join(p.dir, fmt.Sprintf("%s-%s.%s", kind, time.Now().Format(timeFormat), ext))
}

// dumpGoroutines writes the stacks of all goroutines, e.g. to find a
// channel loop that did not exit.
func dumpGoroutines(dir string) {
	name := filepath.Join(dir, fmt.Sprintf("goroutines-%s.dump", time.Now().Format(timeFormat)))
	f, err := os.Create(name)
	if err != nil {
		glog.Errorf("pprof: dump goroutines: %v", err)
		return
	}
	defer f.Close()
	if err := pprof.Lookup("goroutine").WriteTo(f, 2); err != nil {
		glog.Errorf("pprof: write goroutines to %s: %v", name, err)
		return
	}
	glog.Infof("pprof: goroutines dumped to %s", name)
}
