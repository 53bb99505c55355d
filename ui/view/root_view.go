package view

import (
	"image"
	"log/slog"
	"time"

	"github.com/soocke/screenshare-test/config"
	"github.com/soocke/screenshare-test/domain/capture"
	"github.com/soocke/screenshare-test/ui/presenter"
	"github.com/soocke/screenshare-test/ui/theme"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// RootView composes the top-level layout: a header with live stats and the
// home and screen test pages, of which one is gridded at a time.
type RootView struct {
	cfg     *config.Config
	cfgPath string
	logger  *slog.Logger

	// Subviews
	Session     SessionStats
	ConfigPanel ConfigPanel
	Overlay     SelectionOverlay
	Picker      *SourcePicker // nil until Build

	home     *homePage
	test     *screenTestPage
	homeBody *FrameWidget
	testBody *FrameWidget
}

// Handlers are the user actions the root view forwards.
type Handlers struct {
	StartTest     func()
	Action        func(presenter.Action)
	RegionChanged func(image.Rectangle)
	ConfigApplied func(*config.Config)
	ToggleDark    func()
	Exit          func()
}

// UI is the subset of view operations presenters need.
type UI interface {
	presenter.Pages
	presenter.ScreenTestView
	presenter.PreviewView
	presenter.SessionView
	presenter.PickerView
}

func NewRootView(cfg *config.Config, cfgPath string, logger *slog.Logger) *RootView {
	return &RootView{cfg: cfg, cfgPath: cfgPath, logger: logger}
}

// Build constructs the layout and shows the home page.
func (rv *RootView) Build(h Handlers) {
	if rv == nil {
		return
	}
	GridColumnConfigure(App, 0, Weight(1))

	// Row 0: session stats and window buttons
	header := Frame()
	Grid(header, Row(0), Column(0), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	rv.Session = NewSessionStats(header, 0, 0)
	GridColumnConfigure(header.Window, 2, Weight(1))
	dark := header.TButton(Txt("Dark Mode"), Command(h.ToggleDark))
	Grid(dark, Row(0), Column(3), Sticky("e"), Padx("0.2m"))
	exit := header.TButton(Txt("Exit"), Style(theme.StyleDangerButton), Command(h.Exit))
	Grid(exit, Row(0), Column(4), Sticky("e"), Padx("0.2m"))

	// Home page: intro plus config form
	rv.homeBody = Frame()
	rv.Overlay = NewSelectionOverlay(rv.cfg, rv.cfgPath, rv.logger, h.RegionChanged)
	rv.home = newHomePage(rv.homeBody, h.StartTest, func() { rv.Overlay.OpenOrFocus() })
	rv.ConfigPanel = NewConfigPanel(rv.cfg, rv.cfgPath, rv.logger, h.ConfigApplied)
	rv.ConfigPanel.Build(rv.homeBody, 6)

	// Screen test page
	rv.testBody = Frame()
	rv.test = newScreenTestPage(rv.testBody, rv.cfg.PreviewWidth, rv.cfg.PreviewHeight, h.Action)

	rv.Picker = NewSourcePicker(rv.logger)
	rv.ShowHome()
}

// ShowHome grids the home page.
func (rv *RootView) ShowHome() {
	if rv == nil || rv.homeBody == nil {
		return
	}
	GridForget(rv.testBody.Window)
	Grid(rv.homeBody, Row(1), Column(0), Sticky("nsew"), Padx("1m"), Pady("1m"))
}

// ShowScreenTest grids the screen test page.
func (rv *RootView) ShowScreenTest() {
	if rv == nil || rv.testBody == nil {
		return
	}
	GridForget(rv.homeBody.Window)
	Grid(rv.testBody, Row(1), Column(0), Sticky("nsew"), Padx("1m"), Pady("1m"))
}

// SetHomeError shows msg above the start button, or hides it when empty.
func (rv *RootView) SetHomeError(msg string) {
	if rv != nil && rv.home != nil {
		rv.home.setError(msg)
	}
}

// Render proxies to the screen test page.
func (rv *RootView) Render(vm presenter.ViewModel) {
	if rv != nil && rv.test != nil {
		rv.test.Render(vm)
	}
}

// UpdatePreview proxies to the screen test preview.
func (rv *RootView) UpdatePreview(img image.Image) {
	if rv != nil && rv.test != nil {
		rv.test.preview.UpdatePreview(img)
	}
}

// ResetPreview clears the screen test preview.
func (rv *RootView) ResetPreview() {
	if rv != nil && rv.test != nil {
		rv.test.preview.ResetPreview()
	}
}

// SetSession updates the live and total durations.
func (rv *RootView) SetSession(session, total time.Duration) {
	if rv == nil || rv.Session == nil {
		return
	}
	rv.Session.SetSession(session)
	rv.Session.SetTotal(total)
}

// ConfigEditable toggles config panel editability.
func (rv *RootView) ConfigEditable(enabled bool) {
	if rv != nil && rv.ConfigPanel != nil {
		rv.ConfigPanel.SetEditable(enabled)
	}
}

var _ UI = (*RootView)(nil)

// OpenPicker shows the source picker dialog.
func (rv *RootView) OpenPicker(sources []capture.Source, done func(idx int, ok bool)) {
	if rv == nil || rv.Picker == nil {
		if done != nil {
			done(-1, false)
		}
		return
	}
	rv.Picker.OpenPicker(sources, done)
}

// ClosePicker closes the source picker dialog if open.
func (rv *RootView) ClosePicker() {
	if rv != nil && rv.Picker != nil {
		rv.Picker.ClosePicker()
	}
}
