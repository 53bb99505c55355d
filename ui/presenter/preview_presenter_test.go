package presenter

import (
	"image"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soocke/screenshare-test/domain/capture"
	"github.com/soocke/screenshare-test/domain/screenshare"
)

type frameTrack struct {
	snap atomic.Pointer[capture.FrameSnapshot]
}

func (t *frameTrack) ID() string                          { return "t" }
func (t *frameTrack) Kind() screenshare.TrackKind         { return screenshare.TrackVideo }
func (t *frameTrack) Settings() screenshare.TrackSettings { return screenshare.TrackSettings{} }
func (t *frameTrack) SetOnEnded(func())                   {}
func (t *frameTrack) Stop()                               {}
func (t *frameTrack) Running() bool { return true }
func (t *frameTrack) LatestFrame() capture.FrameSnapshot {
	if s := t.snap.Load(); s != nil {
		return *s
	}
	return capture.FrameSnapshot{}
}

func (t *frameTrack) push(w, h int, seq uint64) {
	t.snap.Store(&capture.FrameSnapshot{Image: image.NewRGBA(image.Rect(0, 0, w, h)), Sequence: seq})
}

type frameStream struct {
	id    string
	track screenshare.Track
}

func (s *frameStream) ID() string                  { return s.id }
func (s *frameStream) Tracks() []screenshare.Track { return []screenshare.Track{s.track} }

type mockPreview struct {
	updates []image.Rectangle
	resets  int
}

func (v *mockPreview) UpdatePreview(img image.Image) { v.updates = append(v.updates, img.Bounds()) }
func (v *mockPreview) ResetPreview()                 { v.resets++ }

func TestPreviewPresenter_PushesNewFramesScaled(t *testing.T) {
	view := &mockPreview{}
	p := NewPreviewPresenter(view, 320, 180)
	track := &frameTrack{}
	p.Sink()(&frameStream{id: "a", track: track})

	p.Tick() // no frame yet
	assert.Empty(t, view.updates)

	track.push(1920, 1080, 1)
	p.Tick()
	p.Tick() // same sequence, no update
	require.Len(t, view.updates, 1)
	assert.Equal(t, 320, view.updates[0].Dx())
	assert.Equal(t, 180, view.updates[0].Dy())

	track.push(100, 50, 2)
	p.Tick()
	require.Len(t, view.updates, 2)
	assert.Equal(t, image.Rect(0, 0, 100, 50), view.updates[1])
}

func TestPreviewPresenter_UnbindResetsOnce(t *testing.T) {
	view := &mockPreview{}
	p := NewPreviewPresenter(view, 320, 180)
	track := &frameTrack{}
	track.push(10, 10, 1)
	p.Bind(&frameStream{id: "a", track: track})
	p.Tick()

	p.Bind(nil)
	p.Tick()
	p.Tick()
	assert.Equal(t, 1, view.resets)
}

func TestPreviewPresenter_NewStreamRestartsSequence(t *testing.T) {
	view := &mockPreview{}
	p := NewPreviewPresenter(view, 320, 180)
	first := &frameTrack{}
	first.push(10, 10, 1)
	p.Bind(&frameStream{id: "a", track: first})
	p.Tick()

	second := &frameTrack{}
	second.push(20, 20, 1)
	p.Bind(&frameStream{id: "b", track: second})
	p.Tick()
	require.Len(t, view.updates, 2)
	assert.Equal(t, 20, view.updates[1].Dx())
}

func TestPreviewPresenter_StreamWithoutFramesIsDetached(t *testing.T) {
	view := &mockPreview{}
	p := NewPreviewPresenter(view, 320, 180)
	p.Bind(stubStream{})
	p.Tick()
	assert.Empty(t, view.updates)
	assert.Zero(t, view.resets)
}
