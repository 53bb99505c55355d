package presenter

import (
	"context"
	"log/slog"

	"github.com/soocke/screenshare-test/domain/capture"
)

// PickerView shows the source selection dialog. done is called on the UI
// thread with the chosen index, or ok=false when the dialog was dismissed.
type PickerView interface {
	OpenPicker(sources []capture.Source, done func(idx int, ok bool))
	ClosePicker()
}

type pickReply struct {
	src capture.Source
	err error
}

type pickRequest struct {
	ctx     context.Context
	sources []capture.Source
	reply   chan pickReply
}

// PickerBridge implements capture.Picker on top of a UI-thread dialog. Pick
// runs on the acquisition goroutine and hands the request to Tick, which
// opens the dialog on the UI thread.
type PickerBridge struct {
	view     PickerView
	logger   *slog.Logger
	requests chan *pickRequest
	active   *pickRequest
}

func NewPickerBridge(view PickerView, logger *slog.Logger) *PickerBridge {
	return &PickerBridge{view: view, logger: logger, requests: make(chan *pickRequest)}
}

// Pick blocks until the user picks a source, dismisses the dialog or ctx is
// done.
func (b *PickerBridge) Pick(ctx context.Context, sources []capture.Source) (capture.Source, error) {
	req := &pickRequest{ctx: ctx, sources: sources, reply: make(chan pickReply, 1)}
	select {
	case b.requests <- req:
	case <-ctx.Done():
		return capture.Source{}, ctx.Err()
	}
	select {
	case r := <-req.reply:
		return r.src, r.err
	case <-ctx.Done():
		return capture.Source{}, ctx.Err()
	}
}

// Tick closes the dialog of an abandoned request and opens the dialog for a
// waiting one. It must run on the UI thread.
func (b *PickerBridge) Tick() {
	if b == nil {
		return
	}
	if b.active != nil {
		if b.active.ctx.Err() == nil {
			return
		}
		if b.logger != nil {
			b.logger.Debug("source picker abandoned")
		}
		b.active = nil
		if b.view != nil {
			b.view.ClosePicker()
		}
	}
	select {
	case req := <-b.requests:
		if req.ctx.Err() != nil {
			return
		}
		b.active = req
		if b.view == nil {
			b.resolve(req, -1, false)
			return
		}
		b.view.OpenPicker(req.sources, func(idx int, ok bool) { b.resolve(req, idx, ok) })
	default:
	}
}

// Active reports whether a dialog is open.
func (b *PickerBridge) Active() bool { return b != nil && b.active != nil }

func (b *PickerBridge) resolve(req *pickRequest, idx int, ok bool) {
	if b.active != req {
		return
	}
	b.active = nil
	if ok && idx >= 0 && idx < len(req.sources) {
		req.reply <- pickReply{src: req.sources[idx]}
		return
	}
	req.reply <- pickReply{err: capture.ErrSelectionCancelled}
}

var _ capture.Picker = (*PickerBridge)(nil)
