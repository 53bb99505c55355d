package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync/atomic"

	"github.com/soocke/screenshare-test/domain/screenshare"
)

// DesktopProvider acquires capture streams of desktop displays and regions.
// It implements screenshare.Provider: the picker plays the role of the
// platform's selection and permission UI.
type DesktopProvider struct {
	logger   *slog.Logger
	picker   Picker
	settings atomic.Pointer[Settings]

	listSources func(region image.Rectangle) []Source
	grabberFor  func(Source) Grabber
}

// NewDesktopProvider constructs a provider. A nil picker selects the first
// source without asking.
func NewDesktopProvider(s Settings, picker Picker, logger *slog.Logger) *DesktopProvider {
	if picker == nil {
		picker = FirstSource{}
	}
	p := &DesktopProvider{logger: logger, picker: picker, listSources: ListSources, grabberFor: GrabberFor}
	p.Apply(s)
	return p
}

// Apply replaces the settings used by subsequent acquisitions.
func (p *DesktopProvider) Apply(s Settings) {
	p.settings.Store(&s)
}

// Acquire lists sources, asks the picker for one and starts a video track on
// it. Failures are reported as *screenshare.Failure.
func (p *DesktopProvider) Acquire(ctx context.Context, cs screenshare.Constraints) (screenshare.Stream, error) {
	s := *p.settings.Load()
	if !s.AllowCapture {
		return nil, &screenshare.Failure{Category: screenshare.CategorySecurityRestricted, Message: "Screen capture is disabled by configuration."}
	}
	if cs.Audio && p.logger != nil {
		p.logger.Debug("audio capture requested but not supported; ignoring")
	}
	sources := p.listSources(s.Region)
	if len(sources) == 0 {
		return nil, &screenshare.Failure{Category: screenshare.CategorySourceNotFound, Message: "no active displays"}
	}

	src, err := p.picker.Pick(ctx, sources)
	switch {
	case err == nil:
	case errors.Is(err, ErrSelectionCancelled):
		return nil, &screenshare.Failure{Category: screenshare.CategoryPermissionRefused, Message: "Permission denied"}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, &screenshare.Failure{Category: screenshare.CategoryAborted, Message: "The screen selection was aborted."}
	default:
		return nil, fmt.Errorf("capture: picker: %w", err)
	}

	grab := p.grabberFor(src)
	first, err := grab()
	if err != nil || first == nil {
		msg := "capture returned no frame"
		if err != nil {
			msg = err.Error()
		}
		if p.logger != nil {
			p.logger.Error("capture first frame", "source", src.ID, "error", err)
		}
		return nil, &screenshare.Failure{Category: screenshare.CategorySourceNotReadable, Message: msg}
	}

	track := startVideoTrack(first, src.Surface, grab, cs.Video.IdealFrameRate, s.MaxFrameFailures, p.logger)
	if p.logger != nil {
		p.logger.Info("capture started", "source", src.ID, "surface", src.Surface, "width", track.settings.Width, "height", track.settings.Height)
	}
	return newStream(track), nil
}

var _ screenshare.Provider = (*DesktopProvider)(nil)
