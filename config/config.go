package config

import (
	"encoding/json"
	"fmt"
	"image"
	"os"
)

// Config holds runtime configuration for capture and app behavior.
// Fields may be loaded from a JSON file and overridden by command-line flags.
type Config struct {
	Debug       bool   `json:"debug"`
	DarkMode    bool   `json:"dark_mode"`
	MetricsAddr string `json:"metrics_addr"`

	// Capture parameters
	FrameRate        float64 `json:"frame_rate"`
	AllowCapture     bool    `json:"allow_capture"`
	MaxFrameFailures int     `json:"max_frame_failures"`

	// Preview bounds in pixels
	PreviewWidth  int `json:"preview_width"`
	PreviewHeight int `json:"preview_height"`

	// Screen region offered as a window source
	SelectionX int `json:"selection_x"`
	SelectionY int `json:"selection_y"`
	SelectionW int `json:"selection_w"`
	SelectionH int `json:"selection_h"`
}

const (
	defaultFrameRate        = 30
	maxFrameRate            = 60
	defaultMaxFrameFailures = 10
	defaultPreviewWidth     = 640
	defaultPreviewHeight    = 360
	minPreviewSide          = 50
)

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Debug:            false,
		FrameRate:        defaultFrameRate,
		AllowCapture:     true,
		MaxFrameFailures: defaultMaxFrameFailures,
		PreviewWidth:     defaultPreviewWidth,
		PreviewHeight:    defaultPreviewHeight,
	}
}

// Validate clamps/normalizes values to safe ranges.
func (c *Config) Validate() error {
	if c.FrameRate <= 0 {
		c.FrameRate = defaultFrameRate
	}
	if c.FrameRate > maxFrameRate {
		c.FrameRate = maxFrameRate
	}
	if c.MaxFrameFailures <= 0 {
		c.MaxFrameFailures = defaultMaxFrameFailures
	}
	if c.PreviewWidth < minPreviewSide {
		c.PreviewWidth = defaultPreviewWidth
	}
	if c.PreviewHeight < minPreviewSide {
		c.PreviewHeight = defaultPreviewHeight
	}
	if c.SelectionW < 0 || c.SelectionH < 0 {
		c.SelectionW, c.SelectionH = 0, 0
	}
	return nil
}

// Selection returns the configured region, or an empty rectangle.
func (c *Config) Selection() image.Rectangle {
	if c == nil || c.SelectionW <= 0 || c.SelectionH <= 0 {
		return image.Rectangle{}
	}
	return image.Rect(c.SelectionX, c.SelectionY, c.SelectionX+c.SelectionW, c.SelectionY+c.SelectionH)
}

// SetSelection stores r as the region; an empty r clears it.
func (c *Config) SetSelection(r image.Rectangle) {
	if r.Empty() {
		c.SelectionX, c.SelectionY, c.SelectionW, c.SelectionH = 0, 0, 0, 0
		return
	}
	c.SelectionX, c.SelectionY = r.Min.X, r.Min.Y
	c.SelectionW, c.SelectionH = r.Dx(), r.Dy()
}

// Load attempts to read configuration from the given JSON file path. If the file does not
// exist it returns DefaultConfig(). On JSON error it returns defaults with the error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("config: decode %s: %w", path, err)
	}
	_ = cfg.Validate()
	return cfg, nil
}

// Save writes the configuration to the given path in JSON format.
func (c *Config) Save(path string) error {
	_ = c.Validate()
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
