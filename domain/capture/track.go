package capture

import (
	"context"
	"image"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/soocke/screenshare-test/domain/screenshare"
)

const captureStatsLogInterval = 5 * time.Second

// VideoTrack is a live video track backed by a frame pump goroutine. The
// pump grabs frames at the ideal frame rate and keeps the latest one. After
// maxFailures consecutive grab errors the source is considered gone and the
// track ends, firing its termination callback.
type VideoTrack struct {
	id          string
	settings    screenshare.TrackSettings
	grab        Grabber
	logger      *slog.Logger
	limiter     *rate.Limiter
	maxFailures int

	mu      sync.Mutex
	onEnded func()
	ended   bool
	cancel  context.CancelFunc
	done    chan struct{}

	latest       atomic.Pointer[FrameSnapshot]
	captures     atomic.Uint64
	skipped      atomic.Uint64
	captureNanos atomic.Uint64
	sequence     atomic.Uint64
}

func startVideoTrack(first *image.RGBA, surface string, grab Grabber, fps float64, maxFailures int, logger *slog.Logger) *VideoTrack {
	if fps <= 0 {
		fps = screenshare.DefaultIdealFrameRate
	}
	if maxFailures <= 0 {
		maxFailures = 1
	}
	b := first.Bounds()
	ctx, cancel := context.WithCancel(context.Background())
	t := &VideoTrack{
		id:          uuid.NewString(),
		settings:    screenshare.TrackSettings{Width: b.Dx(), Height: b.Dy(), FrameRate: fps, DisplaySurface: surface},
		grab:        grab,
		logger:      logger,
		limiter:     rate.NewLimiter(rate.Limit(fps), 1),
		maxFailures: maxFailures,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
	t.store(first, 0)
	go t.loop(ctx)
	return t
}

func (t *VideoTrack) ID() string                          { return t.id }
func (t *VideoTrack) Kind() screenshare.TrackKind         { return screenshare.TrackVideo }
func (t *VideoTrack) Settings() screenshare.TrackSettings { return t.settings }

// Done is closed once the pump goroutine has exited.
func (t *VideoTrack) Done() <-chan struct{} { return t.done }

func (t *VideoTrack) SetOnEnded(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onEnded = fn
}

// Stop ends the track without firing the termination callback. It does not
// wait for the pump to exit.
func (t *VideoTrack) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ended {
		return
	}
	t.ended = true
	t.cancel()
}

func (t *VideoTrack) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.ended
}

func (t *VideoTrack) LatestFrame() FrameSnapshot {
	snap := t.latest.Load()
	if snap == nil {
		return FrameSnapshot{}
	}
	return *snap
}

func (t *VideoTrack) Stats() CaptureStats {
	captures := t.captures.Load()
	total := t.captureNanos.Load()
	var avg time.Duration
	avgMicros := 0.0
	if captures > 0 && total > 0 {
		avg = time.Duration(total / captures)
		avgMicros = float64(avg) / float64(time.Microsecond)
	}
	snapshot := t.LatestFrame()
	age := time.Duration(0)
	if !snapshot.CapturedAt.IsZero() {
		age = time.Since(snapshot.CapturedAt)
	}
	return CaptureStats{
		Captures:         captures,
		Skipped:          t.skipped.Load(),
		AvgCapture:       avg,
		AvgCaptureMicros: avgMicros,
		LastCapture:      snapshot.CapturedAt,
		LatestFrameAge:   age,
		Sequence:         snapshot.Sequence,
	}
}

func (t *VideoTrack) loop(ctx context.Context) {
	defer close(t.done)
	defer func() {
		if r := recover(); r != nil {
			if t.logger != nil {
				t.logger.Error("track pump panic", "track", t.id, "error", r, "stack", string(debug.Stack()))
			}
			t.end()
		}
	}()
	logTicker := time.NewTicker(captureStatsLogInterval)
	defer logTicker.Stop()
	failures := 0
	for {
		if err := t.limiter.Wait(ctx); err != nil {
			return
		}
		start := time.Now()
		img, err := t.grab()
		if err != nil || img == nil {
			t.skipped.Add(1)
			failures++
			if t.logger != nil {
				t.logger.Warn("capture frame", "track", t.id, "failures", failures, "error", err)
			}
			if failures >= t.maxFailures {
				t.end()
				return
			}
			continue
		}
		failures = 0
		t.store(img, time.Since(start))

		select {
		case <-logTicker.C:
			t.logStats()
		default:
		}
	}
}

func (t *VideoTrack) store(img *image.RGBA, elapsed time.Duration) {
	t.captureNanos.Add(uint64(elapsed.Nanoseconds()))
	t.captures.Add(1)
	seq := t.sequence.Add(1)
	t.latest.Store(&FrameSnapshot{Image: img, CapturedAt: time.Now(), Sequence: seq})
}

// end marks the track ended by the platform and fires the termination
// callback outside the track lock.
func (t *VideoTrack) end() {
	t.mu.Lock()
	if t.ended {
		t.mu.Unlock()
		return
	}
	t.ended = true
	t.cancel()
	cb := t.onEnded
	t.mu.Unlock()
	if t.logger != nil {
		t.logger.Info("capture track ended by source", "track", t.id)
	}
	if cb != nil {
		cb()
	}
}

func (t *VideoTrack) logStats() {
	if t.logger == nil {
		return
	}
	stats := t.Stats()
	t.logger.Debug("capture.stats",
		"track", t.id,
		"captures", stats.Captures,
		"skipped", stats.Skipped,
		"avg_capture", stats.AvgCapture,
		"age", stats.LatestFrameAge,
	)
}

// Stream is a capture stream holding a single video track.
type Stream struct {
	id    string
	video *VideoTrack
}

func newStream(video *VideoTrack) *Stream { return &Stream{id: uuid.NewString(), video: video} }

func (s *Stream) ID() string                  { return s.id }
func (s *Stream) Tracks() []screenshare.Track { return []screenshare.Track{s.video} }
func (s *Stream) Video() *VideoTrack          { return s.video }

var (
	_ screenshare.Track  = (*VideoTrack)(nil)
	_ screenshare.Stream = (*Stream)(nil)
	_ FrameSource        = (*VideoTrack)(nil)
)
