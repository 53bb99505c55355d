package presenter

import (
	"image"
	"sync/atomic"

	"github.com/soocke/screenshare-test/domain/capture"
	"github.com/soocke/screenshare-test/domain/screenshare"
	"github.com/soocke/screenshare-test/ui/images"
)

// PreviewView displays captured frames.
type PreviewView interface {
	UpdatePreview(img image.Image)
	ResetPreview()
}

type binding struct {
	streamID string
	frames   capture.FrameSource
}

// PreviewPresenter binds the session's stream to the preview. Bind is the
// controller's sink and may run on any goroutine; Tick runs on the UI thread
// and pushes a scaled frame whenever a new one was captured.
type PreviewPresenter struct {
	view    PreviewView
	current atomic.Pointer[binding]

	shown   string
	lastSeq uint64
	maxW    int
	maxH    int
}

func NewPreviewPresenter(view PreviewView, maxW, maxH int) *PreviewPresenter {
	p := &PreviewPresenter{view: view}
	p.SetBounds(maxW, maxH)
	return p
}

// SetBounds sets the maximum preview size.
func (p *PreviewPresenter) SetBounds(w, h int) {
	if p == nil {
		return
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	p.maxW, p.maxH = w, h
}

// Bind attaches stream to the preview, or detaches it when stream is nil.
// Streams whose video track exposes no frames are shown as detached.
func (p *PreviewPresenter) Bind(stream screenshare.Stream) {
	if p == nil {
		return
	}
	if stream == nil {
		p.current.Store(nil)
		return
	}
	for _, t := range stream.Tracks() {
		if t.Kind() != screenshare.TrackVideo {
			continue
		}
		if fs, ok := t.(capture.FrameSource); ok {
			p.current.Store(&binding{streamID: stream.ID(), frames: fs})
			return
		}
	}
	p.current.Store(nil)
}

// Sink returns Bind as a screenshare.Sink.
func (p *PreviewPresenter) Sink() screenshare.Sink { return p.Bind }

// Tick refreshes the preview from the bound stream.
func (p *PreviewPresenter) Tick() {
	if p == nil || p.view == nil {
		return
	}
	b := p.current.Load()
	if b == nil {
		if p.shown != "" {
			p.shown, p.lastSeq = "", 0
			p.view.ResetPreview()
		}
		return
	}
	if b.streamID != p.shown {
		p.shown, p.lastSeq = b.streamID, 0
	}
	snap := b.frames.LatestFrame()
	if snap.Image == nil || snap.Sequence == p.lastSeq {
		return
	}
	p.lastSeq = snap.Sequence
	p.view.UpdatePreview(images.ScaleToFit(snap.Image, p.maxW, p.maxH))
}
