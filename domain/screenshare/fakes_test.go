package screenshare

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"
)

var discardLogger = slog.New(slog.NewTextHandler(&discardWriter{}, nil))

type discardWriter struct{}

func (d *discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// eventLog records side effects across fakes in the order they happen.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
}

func (l *eventLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

type fakeTrack struct {
	id       string
	kind     TrackKind
	settings TrackSettings
	log      *eventLog

	mu         sync.Mutex
	onEnded    func()
	registered int
	stops      int
}

func newVideoTrack(id string, w, h int, surface string, log *eventLog) *fakeTrack {
	return &fakeTrack{id: id, kind: TrackVideo, settings: TrackSettings{Width: w, Height: h, DisplaySurface: surface}, log: log}
}

func (t *fakeTrack) ID() string              { return t.id }
func (t *fakeTrack) Kind() TrackKind         { return t.kind }
func (t *fakeTrack) Settings() TrackSettings { return t.settings }

func (t *fakeTrack) SetOnEnded(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onEnded = fn
	if fn == nil {
		t.registered = 0
		t.log.add(t.id + ":deregister")
		return
	}
	t.registered = 1
	t.log.add(t.id + ":register")
}

func (t *fakeTrack) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stops++
	t.log.add(t.id + ":stop")
}

// end simulates the platform ending the track out-of-band.
func (t *fakeTrack) end() {
	t.mu.Lock()
	fn := t.onEnded
	t.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (t *fakeTrack) stopCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stops
}

func (t *fakeTrack) callbacks() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.registered
}

func (t *fakeTrack) endedCallback() func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.onEnded
}

type fakeStream struct {
	id     string
	tracks []Track
}

func (s *fakeStream) ID() string      { return s.id }
func (s *fakeStream) Tracks() []Track { return s.tracks }

func streamOf(id string, tracks ...*fakeTrack) *fakeStream {
	s := &fakeStream{id: id}
	for _, t := range tracks {
		s.tracks = append(s.tracks, t)
	}
	return s
}

type acquireResult struct {
	stream Stream
	err    error
}

type pendingAcquire struct {
	ctx         context.Context
	constraints Constraints
	reply       chan acquireResult
}

func (p *pendingAcquire) resolve(s Stream, err error) { p.reply <- acquireResult{stream: s, err: err} }

// scriptedProvider hands each acquisition to the test, which resolves it.
type scriptedProvider struct {
	calls     chan *pendingAcquire
	ignoreCtx bool
	log       *eventLog
}

func newScriptedProvider(log *eventLog) *scriptedProvider {
	return &scriptedProvider{calls: make(chan *pendingAcquire, 16), log: log}
}

func (p *scriptedProvider) Acquire(ctx context.Context, cs Constraints) (Stream, error) {
	p.log.add("acquire")
	req := &pendingAcquire{ctx: ctx, constraints: cs, reply: make(chan acquireResult, 1)}
	p.calls <- req
	if p.ignoreCtx {
		r := <-req.reply
		return r.stream, r.err
	}
	select {
	case r := <-req.reply:
		return r.stream, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *scriptedProvider) next(t *testing.T) *pendingAcquire {
	t.Helper()
	select {
	case req := <-p.calls:
		return req
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for acquisition request")
		return nil
	}
}

// waitForStatus waits up to one second for the controller to reach expected.
func waitForStatus(t *testing.T, c *Controller, expected Status) {
	t.Helper()
	waitFor(t, func() bool { return c.Current() == expected }, "status "+expected.String()+" (got "+c.Current().String()+")")
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %s", what)
}

// invariantListener fails the test if a transition ever breaks stream ownership.
func invariantListener(t *testing.T) StateListener {
	return func(prev, next State) {
		if (next.Stream != nil) != (next.Status == StatusPermissionGranted) {
			t.Errorf("invariant violated after %s -> %s: stream=%v", prev.Status, next.Status, next.Stream)
		}
	}
}
