package app

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"sync"
	"time"
)

// profiler appends per-frame section timings to a CSV file. A nil profiler
// is valid and does nothing, so call sites stay unconditional.
type profiler struct {
	mu    sync.Mutex
	file  *os.File
	w     *bufio.Writer
	frame uint64
	start time.Time
	last  time.Time
}

func newProfiler(path string, logger *log.Logger) *profiler {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		if logger != nil {
			logger.Printf("profiler disabled: %v", err)
		}
		return nil
	}
	p := &profiler{file: f, w: bufio.NewWriter(f)}
	fmt.Fprintln(p.w, "frame,section,ms")
	return p
}

func (p *profiler) beginFrame() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frame++
	now := time.Now()
	p.start = now
	p.last = now
}

func (p *profiler) markSection(name string) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	fmt.Fprintf(p.w, "%d,%s,%.3f\n", p.frame, name, now.Sub(p.last).Seconds()*1000)
	p.last = now
}

func (p *profiler) endFrame() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "%d,total,%.3f\n", p.frame, time.Since(p.start).Seconds()*1000)
}

func (p *profiler) Close() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.w.Flush()
	return p.file.Close()
}
