package view

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/soocke/screenshare-test/config"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// ConfigPanel encapsulates the configuration form widgets and apply logic.
// It owns its widgets and writes back into *config.Config on ApplyChanges.
type ConfigPanel interface {
	Build(parent *FrameWidget, startRow int) (endRow int) // constructs widgets starting at startRow, returns next free row
	SetEditable(enabled bool)
	ApplyChanges() // parses widget text into underlying config and persists
}

type configPanel struct {
	cfg       *config.Config
	cfgPath   string
	logger    *slog.Logger
	onApplied func(*config.Config)
	applyBtn  *ButtonWidget
	widgets   map[string]*TextWidget // keyed by internal field id
}

// NewConfigPanel creates the view bound to cfg. onApplied runs after a
// successful apply and may be nil.
func NewConfigPanel(cfg *config.Config, cfgPath string, logger *slog.Logger, onApplied func(*config.Config)) ConfigPanel {
	return &configPanel{cfg: cfg, cfgPath: cfgPath, logger: logger, onApplied: onApplied, widgets: make(map[string]*TextWidget)}
}

func (v *configPanel) Build(parent *FrameWidget, startRow int) (row int) {
	c := v.cfg
	row = startRow
	makeRow := func(id, label, value string) {
		lbl := parent.Label(Txt(label), Anchor("w"))
		Grid(lbl, Row(row), Column(0), Sticky("w"), Padx("0.4m"), Pady("0.15m"))
		w := parent.Text(Height(1), Width(16))
		Grid(w, Row(row), Column(1), Sticky("we"), Padx("0.4m"), Pady("0.15m"))
		w.Delete("1.0", END)
		w.Insert("1.0", value)
		v.widgets[id] = w
		row++
	}
	makeRow("frameRate", "Frame Rate (fps)", fmt.Sprintf("%.0f", c.FrameRate))
	makeRow("maxFrameFailures", "Max Frame Failures", fmt.Sprintf("%d", c.MaxFrameFailures))
	makeRow("previewWidth", "Preview Width Px", fmt.Sprintf("%d", c.PreviewWidth))
	makeRow("previewHeight", "Preview Height Px", fmt.Sprintf("%d", c.PreviewHeight))
	makeRow("allowCapture", "Allow Capture (true/false)", fmt.Sprintf("%t", c.AllowCapture))
	v.applyBtn = parent.Button(Txt("Apply Changes"), Command(func() { v.ApplyChanges() }))
	Grid(v.applyBtn, Row(row), Column(0), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	row++
	return row
}

func (v *configPanel) SetEditable(enabled bool) {
	state := "disabled"
	if enabled {
		state = "normal"
	}
	for _, w := range v.widgets {
		if w != nil {
			w.Configure(State(state))
		}
	}
	if v.applyBtn != nil {
		v.applyBtn.Configure(State(state))
	}
}

func (v *configPanel) text(w *TextWidget) string {
	if w == nil {
		return ""
	}
	parts := w.Get("1.0", END)
	return strings.Join(parts, "")
}

func (v *configPanel) ApplyChanges() {
	if v.cfg == nil {
		return
	}
	cfg := *v.cfg // copy
	assignFloat := func(id string, dst *float64) {
		if f, ok := parseFloatField(v.text(v.widgets[id])); ok {
			*dst = f
		}
	}
	assignInt := func(id string, dst *int) {
		if i, ok := parseIntField(v.text(v.widgets[id])); ok {
			*dst = i
		}
	}
	assignBool := func(id string, dst *bool) {
		if b, ok := parseBoolLoose(v.text(v.widgets[id])); ok {
			*dst = b
		}
	}
	assignFloat("frameRate", &cfg.FrameRate)
	assignInt("maxFrameFailures", &cfg.MaxFrameFailures)
	assignInt("previewWidth", &cfg.PreviewWidth)
	assignInt("previewHeight", &cfg.PreviewHeight)
	assignBool("allowCapture", &cfg.AllowCapture)
	if verr := cfg.Validate(); verr != nil {
		return
	}
	*v.cfg = cfg
	if err := v.cfg.Save(v.cfgPath); err != nil {
		if v.logger != nil {
			v.logger.Error("config save failed", "error", err)
		}
	} else if v.logger != nil {
		v.logger.Info("config saved", "path", v.cfgPath)
	}
	if v.onApplied != nil {
		v.onApplied(v.cfg)
	}
}

// parsing helpers (unexported)
func parseFloatField(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
func parseIntField(s string) (int, bool) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return i, true
}
func parseBoolLoose(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y", "on", "t":
		return true, true
	case "false", "0", "no", "n", "off", "f":
		return false, true
	default:
		return false, false
	}
}
