package app

import (
	"log/slog"

	"github.com/soocke/screenshare-test/config"
	"github.com/soocke/screenshare-test/domain/capture"
	"github.com/soocke/screenshare-test/domain/screenshare"
	"github.com/soocke/screenshare-test/metrics"
	"github.com/soocke/screenshare-test/ui/model"
	"github.com/soocke/screenshare-test/ui/presenter"
	"github.com/soocke/screenshare-test/ui/view"
)

// AppContainer assembles the session, its provider, presenters and the root view.
type AppContainer struct {
	Config     *config.Config
	ConfigPath string
	Logger     *slog.Logger
	Metrics    *metrics.Recorder
	Provider   *capture.DesktopProvider
	Session    *screenshare.Controller
	Clock      *model.LiveClock
	RootView   *view.RootView
	UI         view.UI

	// Presenters
	Picker           *presenter.PickerBridge
	Preview          *presenter.PreviewPresenter
	ScreenTest       *presenter.ScreenTestPresenter
	Navigation       *presenter.NavigationPresenter
	SessionPresenter *presenter.SessionPresenter
	Loop             *presenter.Loop
}

// BuildContainer constructs all components. No Tk widgets are created; the
// root view is built by the app once Tk is running.
func BuildContainer(cfg *config.Config, cfgPath string, logger *slog.Logger, supported func() bool) *AppContainer {
	c := &AppContainer{Config: cfg, ConfigPath: cfgPath, Logger: logger}
	c.RootView = view.NewRootView(cfg, cfgPath, logger)
	c.UI = c.RootView
	c.Clock = model.NewLiveClock()
	c.Metrics = metrics.NewRecorder()

	c.Picker = presenter.NewPickerBridge(c.UI, logger)
	c.Provider = capture.NewDesktopProvider(capture.SettingsFromConfig(cfg), c.Picker, logger)
	c.Preview = presenter.NewPreviewPresenter(c.UI, cfg.PreviewWidth, cfg.PreviewHeight)
	c.Session = screenshare.NewController(c.Provider,
		screenshare.WithLogger(logger),
		screenshare.WithConstraints(constraintsFromConfig(cfg)),
		screenshare.WithSink(c.Preview.Sink()),
	)
	c.Session.AddListener(c.Metrics.Observe)

	c.Navigation = presenter.NewNavigationPresenter(supported, c.UI, c.Session, func() { c.ScreenTest.Invalidate() })
	c.ScreenTest = presenter.NewScreenTestPresenter(c.Session, c.UI, c.Navigation)
	c.SessionPresenter = presenter.NewSessionPresenter(c.Clock, c.Session, c.UI)
	return c
}

// ApplyConfig pushes the current config to the provider, the session and the
// preview. Changes take effect on the next capture request.
func (c *AppContainer) ApplyConfig() {
	c.Provider.Apply(capture.SettingsFromConfig(c.Config))
	c.Session.SetConstraints(constraintsFromConfig(c.Config))
	c.Preview.SetBounds(c.Config.PreviewWidth, c.Config.PreviewHeight)
}

func constraintsFromConfig(cfg *config.Config) screenshare.Constraints {
	cs := screenshare.DefaultConstraints()
	if cfg != nil && cfg.FrameRate > 0 {
		cs.Video.IdealFrameRate = cfg.FrameRate
	}
	return cs
}
