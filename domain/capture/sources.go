package capture

import (
	"fmt"
	"image"

	kscreenshot "github.com/kbinani/screenshot"
	vscreenshot "github.com/vova616/screenshot"
)

// Supported reports whether the desktop exposes any capturable display.
// It is a static capability check made before a capture is requested.
func Supported() bool {
	return kscreenshot.NumActiveDisplays() > 0
}

// ListSources enumerates active displays and, when region is non-empty, the
// region itself as a window surface.
func ListSources(region image.Rectangle) []Source {
	n := kscreenshot.NumActiveDisplays()
	out := make([]Source, 0, n+1)
	for i := 0; i < n; i++ {
		b := kscreenshot.GetDisplayBounds(i)
		out = append(out, Source{
			ID:      fmt.Sprintf("display:%d", i),
			Label:   fmt.Sprintf("Display %d (%dx%d)", i+1, b.Dx(), b.Dy()),
			Surface: "monitor",
			Bounds:  b,
			Display: i,
		})
	}
	if !region.Empty() {
		out = append(out, Source{
			ID:      "region",
			Label:   fmt.Sprintf("Selected Region (%dx%d)", region.Dx(), region.Dy()),
			Surface: "window",
			Bounds:  region,
			Display: -1,
		})
	}
	return out
}

// GrabberFor returns the frame grabber for src. Displays are captured whole;
// regions are captured by rectangle.
func GrabberFor(src Source) Grabber {
	if src.Display >= 0 {
		idx := src.Display
		return func() (*image.RGBA, error) { return kscreenshot.CaptureDisplay(idx) }
	}
	rect := src.Bounds
	return func() (*image.RGBA, error) {
		if rect.Empty() {
			return nil, fmt.Errorf("capture: empty region")
		}
		return vscreenshot.CaptureRect(rect)
	}
}
