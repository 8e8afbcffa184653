package exec

import (
	"runtime"
	"sync/atomic"
	"time"

	"github.com/scidb-go/arraydb/internal/logutil"
	"github.com/scidb-go/arraydb/internal/sysmem"
	"go.uber.org/zap"
)

// Watchdog periodically compares process heap usage against a host memory
// threshold and logs once when it is exceeded, the ambient resource-guard
// ported from util/expensivequery/expensivequery.go's Handle.Run loop
// (generalized here from "expensive query" detection, out of this
// execution core's scope, to the memory-pressure half of that same
// goroutine).
type Watchdog struct {
	threshold uint64
	exitCh    chan struct{}
	lastOOM   atomic.Value // time.Time
}

// NewWatchdog builds a watchdog; threshold 0 means derive it from
// sysmem.Total() * 0.8, mirroring expensivequery.go's own fallback.
func NewWatchdog(threshold uint64) *Watchdog {
	w := &Watchdog{threshold: threshold, exitCh: make(chan struct{})}
	w.lastOOM.Store(time.Time{})
	return w
}

// Run starts the ticker loop; it returns when Stop is called.
func (w *Watchdog) Run() {
	threshold := w.threshold
	if threshold == 0 {
		if total, err := sysmem.Total(); err == nil {
			threshold = total / 10 * 8
		} else {
			logutil.BgLogger().Warn("watchdog: get system memory failed", zap.Error(err))
		}
	}
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.check(threshold)
		case <-w.exitCh:
			return
		}
	}
}

func (w *Watchdog) check(threshold uint64) {
	if threshold == 0 {
		return
	}
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	if stats.HeapAlloc <= threshold {
		return
	}
	last := w.lastOOM.Load().(time.Time)
	if time.Since(last) > 10*time.Second {
		logutil.BgLogger().Warn("process memory exceeds watchdog threshold, risk of OOM",
			zap.Uint64("heapAlloc", stats.HeapAlloc), zap.Uint64("threshold", threshold))
	}
	w.lastOOM.Store(time.Now())
}

// Stop ends the watchdog's goroutine.
func (w *Watchdog) Stop() { close(w.exitCh) }
