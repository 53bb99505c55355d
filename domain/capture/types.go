package capture

import (
	"context"
	"errors"
	"image"

	"github.com/soocke/screenshare-test/config"
)

// FrameSource provides read-only access to captured frames.
// LatestFrame returns the freshest snapshot while Running reports activity.
type FrameSource interface {
	LatestFrame() FrameSnapshot
	Running() bool
}

// Grabber captures one frame of a source.
type Grabber func() (*image.RGBA, error)

// Source is a capturable surface offered to the user.
type Source struct {
	ID      string
	Label   string
	Surface string // display surface reported on the track: "monitor" or "window"
	Bounds  image.Rectangle
	Display int // display index, -1 for regions
}

// Picker is the platform selection UI. Pick blocks until the user picks a
// source, dismisses the picker (ErrSelectionCancelled) or ctx is done.
type Picker interface {
	Pick(ctx context.Context, sources []Source) (Source, error)
}

// ErrSelectionCancelled is returned by a Picker the user dismissed.
var ErrSelectionCancelled = errors.New("capture: selection cancelled")

// FirstSource is a Picker that selects the first offered source without
// showing any UI.
type FirstSource struct{}

func (FirstSource) Pick(ctx context.Context, sources []Source) (Source, error) {
	if err := ctx.Err(); err != nil {
		return Source{}, err
	}
	if len(sources) == 0 {
		return Source{}, ErrSelectionCancelled
	}
	return sources[0], nil
}

// Settings are the provider options that may change between acquisitions.
type Settings struct {
	AllowCapture     bool
	MaxFrameFailures int
	Region           image.Rectangle
}

// SettingsFromConfig extracts provider settings from cfg.
func SettingsFromConfig(cfg *config.Config) Settings {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return Settings{AllowCapture: cfg.AllowCapture, MaxFrameFailures: cfg.MaxFrameFailures, Region: cfg.Selection()}
}
