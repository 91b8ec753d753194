// Package progress reports elapsed bytes/rate/ETA for a running
// compress/decompress/encrypt/decrypt operation on a background ticker,
// using github.com/dustin/go-humanize for size/rate formatting.
//
// The core engine (chupy/pkg/core, chupy/lib) never imports this package.
// The CLI dispatcher wraps whole operations with Init/Stop, reporting the
// input size up front, since the core works over in-memory buffers rather
// than chunked streaming I/O.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

var (
	totalBytesProcessed atomic.Uint64
	totalSize           uint64
	done                chan struct{}
	running             bool
	mu                  sync.Mutex
)

// Init starts the background ticker, reporting progress against size
// bytes of expected work. Calling Init while already running is a no-op.
func Init(size uint64) {
	mu.Lock()
	defer mu.Unlock()

	if running {
		return
	}
	totalBytesProcessed.Store(0)
	totalSize = size
	if totalSize == 0 {
		totalSize = 1
	}
	done = make(chan struct{})
	running = true
	go logger()
}

// Stop signals the background ticker to stop; the ticker goroutine then
// prints a final summary line. Stop does not wait for that line.
func Stop() {
	mu.Lock()
	defer mu.Unlock()

	if running {
		close(done)
		running = false
	}
}

// AddBytes records n additional bytes processed.
func AddBytes(n uint64) {
	if n > 0 {
		totalBytesProcessed.Add(n)
	}
}

func logger() {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	var prevBytes uint64
	var prevPercentage float64
	start := time.Now()
	lastOutput := time.Now()

	fmt.Println("Starting processing...")

	for {
		select {
		case <-ticker.C:
			current := totalBytesProcessed.Load()
			rate := (current - prevBytes) * 4 // bytes/sec over a 250ms tick
			prevBytes = current

			pct := float64(current) / float64(totalSize) * 100
			if time.Since(lastOutput) >= time.Second || pct-prevPercentage >= 10 ||
				(pct >= 100 && prevPercentage < 100) {
				lastOutput = time.Now()

				eta := "calculating..."
				if rate > 0 && totalSize > 1 {
					remaining := float64(totalSize-current) / float64(rate)
					eta = fmt.Sprintf("%.0fs", remaining)
				}
				fmt.Printf("Processed %s of %s (%.1f%%) | Rate: %s/s | ETA: %s\n",
					humanize.Bytes(current), humanize.Bytes(totalSize), pct, humanize.Bytes(rate), eta)
			}
			prevPercentage = pct
			os.Stdout.Sync()
		case <-done:
			elapsed := time.Since(start).Seconds()
			if elapsed < 0.001 {
				elapsed = 0.001
			}
			avgRate := uint64(float64(totalBytesProcessed.Load()) / elapsed)
			fmt.Printf("Completed processing %s in %.1f seconds (avg rate: %s/s)\n",
				humanize.Bytes(totalBytesProcessed.Load()), elapsed, humanize.Bytes(avgRate))
			return
		}
	}
}

// Writer tracks bytes written through it for progress reporting; kept for
// any future streaming writer that wants byte-level granularity instead
// of the whole-operation report the CLI currently uses.
type Writer struct {
	W io.Writer
}

// Write implements io.Writer, recording bytes as they pass through.
func (pw *Writer) Write(p []byte) (n int, err error) {
	n, err = pw.W.Write(p)
	if err == nil && n > 0 {
		AddBytes(uint64(n))
	}
	return
}
