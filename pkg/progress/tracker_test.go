package progress

import (
	"testing"
	"time"
)

func TestInitAddBytesStop(t *testing.T) {
	Init(1024)
	AddBytes(512)
	AddBytes(512)
	time.Sleep(10 * time.Millisecond)
	Stop()

	if got := totalBytesProcessed.Load(); got != 1024 {
		t.Fatalf("expected 1024 bytes recorded, got %d", got)
	}
}

func TestInitIsIdempotentWhileRunning(t *testing.T) {
	Init(100)
	Init(200) // no-op: already running
	Stop()
}
