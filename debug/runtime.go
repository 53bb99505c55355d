package debug

// Runtime stats logger, started only when config.Debug is true. Logs goroutine
// count, stack and heap usage and process RSS so long capture sessions can be
// checked for leaked pumps or native memory growth.

import (
	"context"
	"log/slog"
	"runtime"
	"runtime/metrics"
	"time"
)

// StartRuntimeLogger logs runtime stats every interval until ctx is done. The
// returned channel is closed when the logger goroutine exits.
func StartRuntimeLogger(ctx context.Context, interval time.Duration, logger *slog.Logger) <-chan struct{} {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		t := time.NewTicker(interval)
		defer t.Stop()
		samples := []metrics.Sample{{Name: "/sched/goroutines:goroutines"}}
		var rssErrLogged bool
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
			metrics.Read(samples)
			var goroutines uint64
			if samples[0].Value.Kind() == metrics.KindUint64 {
				goroutines = samples[0].Value.Uint64()
			}
			var ms runtime.MemStats
			runtime.ReadMemStats(&ms)
			rss, err := readRSS()
			if err != nil && !rssErrLogged {
				logger.Warn("runtime stats: rss unavailable", slog.String("err", err.Error()))
				rssErrLogged = true
			}
			logger.Info("runtime.stats",
				slog.Uint64("goroutines", goroutines),
				slog.Uint64("stack_inuse", ms.StackInuse),
				slog.Uint64("heap_alloc", ms.HeapAlloc),
				slog.Uint64("heap_inuse", ms.HeapInuse),
				slog.Uint64("heap_sys", ms.HeapSys),
				slog.Uint64("next_gc", ms.NextGC),
				slog.Uint64("num_gc", uint64(ms.NumGC)),
				slog.Uint64("rss", rss),
			)
		}
	}()
	return done
}
