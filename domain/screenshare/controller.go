package screenshare

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
)

// Controller owns a capture session: it issues acquisition requests,
// classifies their failures, owns the resulting stream and reacts to the
// platform ending a track. All methods are safe for concurrent use and none
// of them blocks on the provider.
//
// Listeners and the sink are invoked with the controller lock held and must
// not call back into the Controller.
type Controller struct {
	mu          sync.Mutex
	id          string
	provider    Provider
	logger      *slog.Logger
	constraints Constraints
	state       State
	seq         uint64 // token of the most recent request
	owner       uint64 // token that acquired the owned stream; 0 when none
	cancel      context.CancelFunc
	sink        Sink
	listeners   []StateListener
	closed      bool
	inflight    sync.WaitGroup
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(l *slog.Logger) Option { return func(c *Controller) { c.logger = l } }

// WithConstraints overrides DefaultConstraints.
func WithConstraints(cs Constraints) Option { return func(c *Controller) { c.constraints = cs } }

// WithSink binds the presentation sink at construction.
func WithSink(s Sink) Option { return func(c *Controller) { c.sink = s } }

// NewController returns an idle controller acquiring streams from provider.
func NewController(provider Provider, opts ...Option) *Controller {
	c := &Controller{id: uuid.NewString(), provider: provider, constraints: DefaultConstraints()}
	for _, o := range opts {
		o(c)
	}
	if c.logger != nil {
		c.logger = c.logger.With("session", c.id)
	}
	return c
}

// ID returns the session identifier.
func (c *Controller) ID() string { return c.id }

// State returns a snapshot of the session.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Current returns the session status.
func (c *Controller) Current() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Status
}

// Live reports whether a stream is currently owned.
func (c *Controller) Live() bool { return c.Current() == StatusPermissionGranted }

// AddListener registers l for every subsequent transition.
func (c *Controller) AddListener(l StateListener) {
	if l == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// SetSink replaces the presentation sink. The currently owned stream, if any,
// is written into the new sink immediately.
func (c *Controller) SetSink(s Sink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sink = s
	if s != nil && c.state.Stream != nil {
		s(c.state.Stream)
	}
}

// SetConstraints replaces the constraints used by subsequent Start calls.
func (c *Controller) SetConstraints(cs Constraints) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.constraints = cs
}

// Start releases any owned stream and issues a new acquisition request.
// An outstanding request is superseded: its context is cancelled and its
// eventual result discarded.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.provider == nil {
		return
	}
	c.releaseLocked()
	c.abandonLocked()
	token := c.seq
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.transitionLocked(State{Status: StatusRequestingPermission})
	c.inflight.Add(1)
	go c.acquire(ctx, token, c.constraints)
}

// Stop releases the owned stream and moves to stream-ended. It does nothing
// when no stream is owned.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.owner == 0 {
		return
	}
	c.releaseLocked()
	c.transitionLocked(State{Status: StatusStreamEnded})
}

// Cleanup resets the session to idle, releasing any owned stream and
// discarding any outstanding request. Safe to call repeatedly.
func (c *Controller) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupLocked()
}

// Close cleans up and waits for outstanding acquisition goroutines to
// return. Start is a no-op afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	c.cleanupLocked()
	c.closed = true
	c.mu.Unlock()
	c.inflight.Wait()
}

func (c *Controller) cleanupLocked() {
	c.releaseLocked()
	c.abandonLocked()
	c.transitionLocked(State{})
}

func (c *Controller) acquire(ctx context.Context, token uint64, cs Constraints) {
	defer c.inflight.Done()

	stream, err := c.callProvider(ctx, cs)

	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.seq {
		if stream != nil {
			stopTracks(stream)
		}
		if c.logger != nil {
			c.logger.Debug("discarding superseded acquisition", "token", token, "current", c.seq)
		}
		return
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if err != nil || stream == nil {
		outcome := ClassifyError(err)
		if c.logger != nil {
			c.logger.Info("screen share acquisition failed", "outcome", outcome.Kind.String(), "error", err)
		}
		c.transitionLocked(State{Status: outcome.Status(), ErrorMessage: outcome.Message})
		return
	}
	c.adoptLocked(stream, token)
}

func (c *Controller) adoptLocked(stream Stream, token uint64) {
	var meta *Metadata
	if vt := firstVideoTrack(stream); vt != nil {
		s := vt.Settings()
		meta = &Metadata{Width: dimension(s.Width), Height: dimension(s.Height), Surface: ParseSurfaceKind(s.DisplaySurface)}
	}
	for _, t := range stream.Tracks() {
		if t == nil {
			continue
		}
		t.SetOnEnded(func() { c.trackEnded(token) })
	}
	c.owner = token
	if c.logger != nil {
		c.logger.Info("screen share granted", "stream", stream.ID(), "metadata", meta)
	}
	c.transitionLocked(State{Status: StatusPermissionGranted, Stream: stream, Metadata: meta})
	if c.sink != nil {
		c.sink(stream)
	}
}

// callProvider runs the provider, turning a panic into an error so the
// request still resolves.
func (c *Controller) callProvider(ctx context.Context, cs Constraints) (stream Stream, err error) {
	defer func() {
		if r := recover(); r != nil {
			if c.logger != nil {
				c.logger.Error("acquisition panic", "error", r, "stack", string(debug.Stack()))
			}
			stream, err = nil, fmt.Errorf("screenshare: provider panic: %v", r)
		}
	}()
	return c.provider.Acquire(ctx, cs)
}

// trackEnded handles the platform ending a track of the stream acquired by token.
func (c *Controller) trackEnded(token uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.owner == 0 || c.owner != token {
		return
	}
	if c.logger != nil {
		c.logger.Info("screen share ended by platform")
	}
	c.releaseLocked()
	c.transitionLocked(State{Status: StatusStreamEnded})
}

// releaseLocked deregisters every termination callback and stops every track
// of the owned stream, then drops it and clears the sink.
func (c *Controller) releaseLocked() {
	stream := c.state.Stream
	if stream == nil {
		return
	}
	stopTracks(stream)
	c.owner = 0
	c.state.Stream = nil
	if c.sink != nil {
		c.sink(nil)
	}
}

// abandonLocked invalidates the outstanding request, if any.
func (c *Controller) abandonLocked() {
	c.seq++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) transitionLocked(next State) {
	prev := c.state
	c.state = next
	if prev.Status == next.Status && prev.ErrorMessage == next.ErrorMessage && prev.Stream == nil && next.Stream == nil {
		return
	}
	if c.logger != nil {
		c.logger.Debug("screen share state transition", "from", prev.Status.String(), "to", next.Status.String())
	}
	for _, l := range c.listeners {
		l(prev, next)
	}
}

func stopTracks(s Stream) {
	for _, t := range s.Tracks() {
		if t == nil {
			continue
		}
		t.SetOnEnded(nil)
		t.Stop()
	}
}

func dimension(v int) uint {
	if v < 0 {
		return 0
	}
	return uint(v)
}
