package screenshare

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestController(t *testing.T, p Provider, opts ...Option) *Controller {
	t.Helper()
	c := NewController(p, append([]Option{WithLogger(discardLogger)}, opts...)...)
	c.AddListener(invariantListener(t))
	t.Cleanup(c.Close)
	return c
}

func grant(t *testing.T, c *Controller, p *scriptedProvider, s Stream) {
	t.Helper()
	c.Start()
	p.next(t).resolve(s, nil)
	waitForStatus(t, c, StatusPermissionGranted)
}

func TestController_InitialStateIsIdle(t *testing.T) {
	c := newTestController(t, newScriptedProvider(nil))
	assert.Equal(t, State{}, c.State())
	assert.False(t, c.Live())
	assert.NotEmpty(t, c.ID())
}

func TestController_GrantedDerivesMetadata(t *testing.T) {
	p := newScriptedProvider(nil)
	c := newTestController(t, p)
	track := newVideoTrack("v", 1920, 1080, "monitor", nil)
	stream := streamOf("s", track)

	c.Start()
	assert.Equal(t, StatusRequestingPermission, c.Current())
	req := p.next(t)
	assert.Equal(t, DefaultConstraints(), req.constraints)
	assert.False(t, req.constraints.Audio)
	req.resolve(stream, nil)
	waitForStatus(t, c, StatusPermissionGranted)

	st := c.State()
	require.NotNil(t, st.Metadata)
	assert.Equal(t, Metadata{Width: 1920, Height: 1080, Surface: SurfaceMonitor}, *st.Metadata)
	assert.Equal(t, Stream(stream), st.Stream)
	assert.Empty(t, st.ErrorMessage)
	assert.Equal(t, 1, track.callbacks())
	assert.True(t, c.Live())
}

func TestController_MetadataFallbacks(t *testing.T) {
	p := newScriptedProvider(nil)
	c := newTestController(t, p)
	audio := &fakeTrack{id: "a", kind: TrackAudio}
	video := newVideoTrack("v", -1, 0, "", nil)
	grant(t, c, p, streamOf("s", audio, video))

	st := c.State()
	require.NotNil(t, st.Metadata)
	assert.Equal(t, Metadata{Surface: SurfaceUnknown}, *st.Metadata)
	assert.Equal(t, 1, audio.callbacks(), "every owned track gets a termination callback")
	assert.Equal(t, 1, video.callbacks())
}

func TestController_NoVideoTrackLeavesMetadataNil(t *testing.T) {
	p := newScriptedProvider(nil)
	c := newTestController(t, p)
	grant(t, c, p, streamOf("s"))
	assert.Nil(t, c.State().Metadata)
}

func TestController_FailureTransitions(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  Status
		message string
	}{
		{"dismissed picker", &Failure{Category: CategoryPermissionRefused, Message: "Permission denied"}, StatusUserCancelled, "You cancelled the screen selection."},
		{"policy denial", &Failure{Category: CategoryPermissionRefused, Message: "Denied by policy"}, StatusPermissionDenied, "Screen sharing permission was denied."},
		{"security", &Failure{Category: CategorySecurityRestricted}, StatusPermissionDenied, "Screen sharing permission was denied."},
		{"aborted", &Failure{Category: CategoryAborted, Message: "gone"}, StatusUserCancelled, "Screen selection was aborted."},
		{"not found", &Failure{Category: CategorySourceNotFound}, StatusUnexpectedError, "No screen sharing source was found."},
		{"not readable", &Failure{Category: CategorySourceNotReadable}, StatusUnexpectedError, "Could not read the selected screen. It may be restricted by the OS."},
		{"raw error", errors.New("driver exploded"), StatusUnexpectedError, "driver exploded"},
		{"no stream", nil, StatusUnexpectedError, "An unexpected error occurred while screen sharing."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := newScriptedProvider(nil)
			c := newTestController(t, p)
			c.Start()
			p.next(t).resolve(nil, tc.err)
			waitForStatus(t, c, tc.status)
			st := c.State()
			assert.Equal(t, tc.message, st.ErrorMessage)
			assert.Nil(t, st.Stream)
			assert.Nil(t, st.Metadata)
		})
	}
}

func TestController_StartReleasesOwnedStreamBeforeRequesting(t *testing.T) {
	log := &eventLog{}
	p := newScriptedProvider(log)
	c := newTestController(t, p)
	old := newVideoTrack("old", 800, 600, "window", log)
	grant(t, c, p, streamOf("s1", old))

	var sunk []Stream
	var mu sync.Mutex
	c.SetSink(func(s Stream) { mu.Lock(); sunk = append(sunk, s); mu.Unlock() })

	c.Start()
	req := p.next(t)
	assert.Equal(t, []string{"acquire", "old:register", "old:deregister", "old:stop", "acquire"}, log.snapshot())
	assert.Equal(t, 1, old.stopCount())
	assert.Equal(t, 0, old.callbacks())
	st := c.State()
	assert.Equal(t, StatusRequestingPermission, st.Status)
	assert.Nil(t, st.Stream)
	assert.Nil(t, st.Metadata)

	mu.Lock()
	require.Len(t, sunk, 2)
	assert.NotNil(t, sunk[0], "SetSink replays the owned stream")
	assert.Nil(t, sunk[1], "release clears the sink")
	mu.Unlock()

	req.resolve(nil, &Failure{Category: CategoryAborted})
	waitForStatus(t, c, StatusUserCancelled)
}

func TestController_StaleSuccessDoesNotOverwriteNewerRequest(t *testing.T) {
	p := newScriptedProvider(nil)
	p.ignoreCtx = true
	c := newTestController(t, p)

	c.Start()
	reqA := p.next(t)
	c.Start()
	reqB := p.next(t)
	assert.Error(t, reqA.ctx.Err(), "superseded request is cancelled cooperatively")
	assert.NoError(t, reqB.ctx.Err())

	trackB := newVideoTrack("b", 1280, 720, "window", nil)
	reqB.resolve(streamOf("B", trackB), nil)
	waitForStatus(t, c, StatusPermissionGranted)

	trackA := newVideoTrack("a", 1920, 1080, "monitor", nil)
	reqA.resolve(streamOf("A", trackA), nil)
	waitFor(t, func() bool { return trackA.stopCount() == 1 }, "stale stream stopped")

	st := c.State()
	assert.Equal(t, "B", st.Stream.ID())
	assert.Equal(t, SurfaceWindow, st.Metadata.Surface)
	assert.Equal(t, 0, trackA.callbacks())
	assert.Equal(t, 0, trackB.stopCount())
}

func TestController_StaleFailureDoesNotOverwriteNewerRequest(t *testing.T) {
	p := newScriptedProvider(nil)
	p.ignoreCtx = true
	c := newTestController(t, p)

	c.Start()
	reqA := p.next(t)
	c.Start()
	reqB := p.next(t)

	reqA.resolve(nil, &Failure{Category: CategoryPermissionRefused, Message: "Denied by policy"})
	reqB.resolve(streamOf("B", newVideoTrack("b", 10, 10, "monitor", nil)), nil)
	waitForStatus(t, c, StatusPermissionGranted)
	assert.Empty(t, c.State().ErrorMessage)
}

func TestController_CleanupDiscardsInFlightRequest(t *testing.T) {
	p := newScriptedProvider(nil)
	p.ignoreCtx = true
	c := newTestController(t, p)

	c.Start()
	req := p.next(t)
	c.Cleanup()
	track := newVideoTrack("v", 1, 1, "monitor", nil)
	req.resolve(streamOf("late", track), nil)
	waitFor(t, func() bool { return track.stopCount() == 1 }, "late stream stopped")
	assert.Equal(t, State{}, c.State())
}

func TestController_PlatformEndsTrack(t *testing.T) {
	p := newScriptedProvider(nil)
	c := newTestController(t, p)
	track := newVideoTrack("v", 1920, 1080, "monitor", nil)
	var sinkCleared bool
	c.SetSink(func(s Stream) {
		if s == nil {
			sinkCleared = true
		}
	})
	grant(t, c, p, streamOf("s", track))

	track.end()

	st := c.State()
	assert.Equal(t, StatusStreamEnded, st.Status)
	assert.Nil(t, st.Stream)
	assert.Nil(t, st.Metadata)
	assert.True(t, sinkCleared)
	assert.Equal(t, 0, track.callbacks())
}

func TestController_LateTerminationOfReleasedStreamIgnored(t *testing.T) {
	p := newScriptedProvider(nil)
	c := newTestController(t, p)
	first := newVideoTrack("first", 1, 1, "monitor", nil)
	grant(t, c, p, streamOf("s1", first))
	staleCallback := first.endedCallback()
	require.NotNil(t, staleCallback)

	second := newVideoTrack("second", 2, 2, "window", nil)
	grant(t, c, p, streamOf("s2", second))

	staleCallback()
	st := c.State()
	assert.Equal(t, StatusPermissionGranted, st.Status)
	assert.Equal(t, "s2", st.Stream.ID())
}

func TestController_StopReleasesStream(t *testing.T) {
	log := &eventLog{}
	p := newScriptedProvider(log)
	c := newTestController(t, p)
	track := newVideoTrack("v", 1, 1, "monitor", log)
	grant(t, c, p, streamOf("s", track))

	c.Stop()
	assert.Equal(t, StatusStreamEnded, c.Current())
	assert.Nil(t, c.State().Stream)
	assert.Equal(t, []string{"acquire", "v:register", "v:deregister", "v:stop"}, log.snapshot())

	c.Stop()
	assert.Equal(t, 1, track.stopCount())
	assert.Equal(t, StatusStreamEnded, c.Current())
}

func TestController_StopWithoutStreamIsNoop(t *testing.T) {
	p := newScriptedProvider(nil)
	c := newTestController(t, p)
	c.Stop()
	assert.Equal(t, StatusIdle, c.Current())

	c.Start()
	req := p.next(t)
	c.Stop()
	assert.Equal(t, StatusRequestingPermission, c.Current())
	req.resolve(nil, &Failure{Category: CategorySourceNotFound})
	waitForStatus(t, c, StatusUnexpectedError)
	c.Stop()
	assert.Equal(t, StatusUnexpectedError, c.Current())
}

func TestController_CleanupFromGrantedStopsTrackOnce(t *testing.T) {
	p := newScriptedProvider(nil)
	c := newTestController(t, p)
	track := newVideoTrack("v", 1, 1, "monitor", nil)
	grant(t, c, p, streamOf("s", track))

	c.Cleanup()
	c.Cleanup()
	assert.Equal(t, State{}, c.State())
	assert.Equal(t, 1, track.stopCount())
}

func TestController_CleanupFromEveryState(t *testing.T) {
	reach := map[Status]func(*testing.T, *Controller, *scriptedProvider){
		StatusIdle: func(*testing.T, *Controller, *scriptedProvider) {},
		StatusRequestingPermission: func(t *testing.T, c *Controller, p *scriptedProvider) {
			c.Start()
			p.next(t)
		},
		StatusPermissionGranted: func(t *testing.T, c *Controller, p *scriptedProvider) {
			grant(t, c, p, streamOf("s", newVideoTrack("v", 1, 1, "monitor", nil)))
		},
		StatusUserCancelled: func(t *testing.T, c *Controller, p *scriptedProvider) {
			c.Start()
			p.next(t).resolve(nil, &Failure{Category: CategoryAborted})
			waitForStatus(t, c, StatusUserCancelled)
		},
		StatusPermissionDenied: func(t *testing.T, c *Controller, p *scriptedProvider) {
			c.Start()
			p.next(t).resolve(nil, &Failure{Category: CategorySecurityRestricted})
			waitForStatus(t, c, StatusPermissionDenied)
		},
		StatusStreamEnded: func(t *testing.T, c *Controller, p *scriptedProvider) {
			grant(t, c, p, streamOf("s", newVideoTrack("v", 1, 1, "monitor", nil)))
			c.Stop()
		},
		StatusUnexpectedError: func(t *testing.T, c *Controller, p *scriptedProvider) {
			c.Start()
			p.next(t).resolve(nil, errors.New("boom"))
			waitForStatus(t, c, StatusUnexpectedError)
		},
	}
	for status, setup := range reach {
		t.Run(status.String(), func(t *testing.T) {
			p := newScriptedProvider(nil)
			c := newTestController(t, p)
			setup(t, c, p)
			require.Equal(t, status, c.Current())
			c.Cleanup()
			assert.Equal(t, State{}, c.State())
		})
	}
}

func TestController_ListenerSeesTransitions(t *testing.T) {
	p := newScriptedProvider(nil)
	c := newTestController(t, p)
	var mu sync.Mutex
	var seq []Status
	c.AddListener(func(_, next State) {
		mu.Lock()
		seq = append(seq, next.Status)
		mu.Unlock()
	})
	grant(t, c, p, streamOf("s", newVideoTrack("v", 1, 1, "monitor", nil)))
	c.Stop()
	c.Cleanup()
	c.Cleanup()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Status{StatusRequestingPermission, StatusPermissionGranted, StatusStreamEnded, StatusIdle}, seq)
}

func TestController_SetConstraintsAppliesToNextStart(t *testing.T) {
	p := newScriptedProvider(nil)
	c := newTestController(t, p)
	want := Constraints{Video: VideoConstraints{IdealFrameRate: 15}}
	c.SetConstraints(want)
	c.Start()
	req := p.next(t)
	assert.Equal(t, want, req.constraints)
	req.resolve(nil, &Failure{Category: CategoryAborted})
	waitForStatus(t, c, StatusUserCancelled)
}

func TestController_StartAfterCloseIsNoop(t *testing.T) {
	p := newScriptedProvider(nil)
	c := NewController(p)
	c.Close()
	c.Start()
	assert.Equal(t, StatusIdle, c.Current())
	assert.Empty(t, p.calls)
}

func TestController_CloseUnblocksCooperativeProvider(t *testing.T) {
	p := newScriptedProvider(nil)
	c := NewController(p, WithLogger(discardLogger))
	c.Start()
	req := p.next(t)
	c.Close()
	assert.ErrorIs(t, req.ctx.Err(), context.Canceled)
	assert.Equal(t, State{}, c.State())
}

func TestController_ProviderPanicBecomesUnexpectedError(t *testing.T) {
	p := ProviderFunc(func(context.Context, Constraints) (Stream, error) { panic("boom") })
	c := newTestController(t, p)
	c.Start()
	waitForStatus(t, c, StatusUnexpectedError)
	assert.Contains(t, c.State().ErrorMessage, "boom")
}

// Random operation sequences must never break stream ownership, and cleanup
// must always restore the idle snapshot.
func TestController_RandomSequencesKeepInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	var mu sync.Mutex
	var tracks []*fakeTrack
	n := 0
	provider := ProviderFunc(func(ctx context.Context, _ Constraints) (Stream, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		if n%3 == 0 {
			return nil, &Failure{Category: CategoryPermissionRefused, Message: "Permission denied"}
		}
		tr := newVideoTrack("t", 640, 480, "monitor", nil)
		tracks = append(tracks, tr)
		return streamOf("s", tr), nil
	})
	c := newTestController(t, provider)
	for i := 0; i < 300; i++ {
		switch rng.Intn(4) {
		case 0, 1:
			c.Start()
		case 2:
			c.Stop()
		case 3:
			c.Cleanup()
			assert.Equal(t, State{}, c.State())
		}
		st := c.State()
		assert.Equal(t, st.Status == StatusPermissionGranted, st.Stream != nil)
	}
	c.Close()

	mu.Lock()
	defer mu.Unlock()
	for _, tr := range tracks {
		assert.Equal(t, 1, tr.stopCount(), "every acquired track is stopped exactly once")
		assert.Equal(t, 0, tr.callbacks())
	}
}
