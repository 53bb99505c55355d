package screenshare

import (
	"context"
	"fmt"
)

// Status enumerates finite states of a capture session.
type Status int

const (
	StatusIdle Status = iota
	StatusRequestingPermission
	StatusPermissionGranted
	StatusUserCancelled
	StatusPermissionDenied
	StatusStreamEnded
	StatusUnexpectedError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRequestingPermission:
		return "requesting-permission"
	case StatusPermissionGranted:
		return "permission-granted"
	case StatusUserCancelled:
		return "user-cancelled"
	case StatusPermissionDenied:
		return "permission-denied"
	case StatusStreamEnded:
		return "stream-ended"
	case StatusUnexpectedError:
		return "unexpected-error"
	default:
		return "unknown"
	}
}

// SurfaceKind is the kind of display surface a capture stream shows.
type SurfaceKind int

const (
	SurfaceUnknown SurfaceKind = iota
	SurfaceMonitor
	SurfaceWindow
	SurfaceBrowser
)

func (k SurfaceKind) String() string {
	switch k {
	case SurfaceMonitor:
		return "monitor"
	case SurfaceWindow:
		return "window"
	case SurfaceBrowser:
		return "browser"
	default:
		return "unknown"
	}
}

// Label returns the user-facing name of the surface kind.
func (k SurfaceKind) Label() string {
	switch k {
	case SurfaceMonitor:
		return "Entire Screen"
	case SurfaceWindow:
		return "Application Window"
	case SurfaceBrowser:
		return "Browser Tab"
	default:
		return "Unknown Source"
	}
}

// ParseSurfaceKind maps a platform display surface name to a SurfaceKind.
// Unrecognized or empty names yield SurfaceUnknown.
func ParseSurfaceKind(s string) SurfaceKind {
	switch s {
	case "monitor":
		return SurfaceMonitor
	case "window":
		return SurfaceWindow
	case "browser":
		return SurfaceBrowser
	default:
		return SurfaceUnknown
	}
}

// Metadata describes the captured surface at acquisition time.
type Metadata struct {
	Width   uint
	Height  uint
	Surface SurfaceKind
}

// Resolution formats the dimensions as "W × H".
func (m Metadata) Resolution() string { return fmt.Sprintf("%d × %d", m.Width, m.Height) }

// TrackKind identifies the media channel of a track.
type TrackKind string

const (
	TrackVideo TrackKind = "video"
	TrackAudio TrackKind = "audio"
)

// TrackSettings are the effective settings a platform reports for a live track.
type TrackSettings struct {
	Width          int
	Height         int
	FrameRate      float64
	DisplaySurface string
}

// Track is one media channel of a capture stream.
type Track interface {
	ID() string
	Kind() TrackKind
	Settings() TrackSettings
	// SetOnEnded replaces the termination callback. A nil fn deregisters it.
	// The callback fires when the platform ends the track, never as a result of Stop.
	SetOnEnded(fn func())
	// Stop instructs the platform to stop the track. Safe to call repeatedly.
	Stop()
}

// Stream is a platform-provided capture stream.
type Stream interface {
	ID() string
	Tracks() []Track
}

// firstVideoTrack returns the first video track of s, or nil.
func firstVideoTrack(s Stream) Track {
	if s == nil {
		return nil
	}
	for _, t := range s.Tracks() {
		if t != nil && t.Kind() == TrackVideo {
			return t
		}
	}
	return nil
}

// VideoConstraints configures the requested video track.
type VideoConstraints struct {
	IdealFrameRate float64
}

// Constraints are passed to the provider on every acquisition.
type Constraints struct {
	Video VideoConstraints
	Audio bool
}

// DefaultIdealFrameRate is the frame rate requested when none is configured.
const DefaultIdealFrameRate = 30

// DefaultConstraints requests video at the default ideal frame rate and no audio.
func DefaultConstraints() Constraints {
	return Constraints{Video: VideoConstraints{IdealFrameRate: DefaultIdealFrameRate}}
}

// Provider acquires capture streams from the host platform. Acquire blocks
// until the user finishes with the platform's selection UI. Implementations
// should return a *Failure for classified failures and may honour ctx
// cancellation, which the controller uses when a request is superseded.
type Provider interface {
	Acquire(ctx context.Context, c Constraints) (Stream, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, c Constraints) (Stream, error)

func (f ProviderFunc) Acquire(ctx context.Context, c Constraints) (Stream, error) { return f(ctx, c) }

// Failure categories reported by providers.
const (
	CategoryPermissionRefused  = "permission-refused"
	CategorySecurityRestricted = "security-restricted"
	CategoryAborted            = "aborted"
	CategorySourceNotFound     = "source-not-found"
	CategorySourceNotReadable  = "source-not-readable"
)

// Failure is a platform-reported acquisition failure.
type Failure struct {
	Category string
	Message  string
}

func (f *Failure) Error() string {
	if f.Message == "" {
		return f.Category
	}
	return f.Category + ": " + f.Message
}

// State is the snapshot of a capture session emitted to the presentation layer.
// Stream is the handle the presentation binds to a rendering surface.
type State struct {
	Status       Status
	Stream       Stream
	Metadata     *Metadata
	ErrorMessage string
}

// StateListener is called on each transition.
type StateListener func(prev, next State)

// Sink receives the stream to render, or nil when it must be cleared.
type Sink func(Stream)
