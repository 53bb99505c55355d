package app

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"

	"github.com/soocke/screenshare-test/config"
	"github.com/soocke/screenshare-test/debug"
	"github.com/soocke/screenshare-test/domain/capture"
	"github.com/soocke/screenshare-test/ui/presenter"
	"github.com/soocke/screenshare-test/ui/theme"
	"github.com/soocke/screenshare-test/ui/view"
)

const (
	tick          = 50 * time.Millisecond
	debugInterval = 5 * time.Second
)

// Application owns the Tk lifecycle: it builds the views, drives the presenter loop
// on the Tk thread and tears the session down when the window closes.
type Application struct {
	c       *AppContainer
	logger  *slog.Logger
	width   int
	height  int
	afterID string

	ctx    context.Context
	cancel context.CancelFunc
	bg     sync.WaitGroup
}

func NewApp(title string, width, height int, cfg *config.Config, cfgPath string, logger *slog.Logger) *Application {
	a := &Application{logger: logger, width: width, height: height}
	a.c = BuildContainer(cfg, cfgPath, logger, capture.Supported)

	App.WmTitle(title)
	WmProtocol(App, "WM_DELETE_WINDOW", a.exitHandler)
	WmGeometry(App, fmt.Sprintf("%dx%d+100+100", width, height))
	return a
}

// Start builds the UI, starts background services and blocks until the main
// window is closed. The capture session is closed before Start returns.
func (a *Application) Start(ctx context.Context) {
	a.ctx, a.cancel = context.WithCancel(ctx)
	defer a.shutdown()

	c := a.c
	theme.SetDark(c.Config.DarkMode)
	c.RootView.Build(view.Handlers{
		StartTest: c.Navigation.StartScreenTest,
		Action:    c.ScreenTest.Do,
		RegionChanged: func(image.Rectangle) {
			c.ApplyConfig()
		},
		ConfigApplied: func(*config.Config) {
			c.ApplyConfig()
		},
		ToggleDark: a.toggleDark,
		Exit:       a.exitHandler,
	})

	if c.Config.Debug {
		done := debug.StartRuntimeLogger(a.ctx, debugInterval, a.logger.With("component", "debug"))
		a.bg.Add(1)
		go func() { defer a.bg.Done(); <-done }()
	}
	if addr := c.Config.MetricsAddr; addr != "" {
		a.bg.Add(1)
		go func() {
			defer a.bg.Done()
			if err := c.Metrics.Serve(a.ctx, addr, a.logger); err != nil {
				a.logger.Error("metrics server", "addr", addr, "error", err)
			}
		}()
	}

	c.Loop = presenter.NewLoop(c.SessionPresenter, c.ScreenTest, c.Preview, c.Picker, a.scheduleUpdate)
	a.logger.Info("app started", "session", c.Session.ID(), "supported", capture.Supported())
	a.scheduleUpdate()
	App.Wait()
}

func (a *Application) scheduleUpdate() {
	// TclAfter keeps every presenter tick on Tk's event loop thread.
	a.afterID = TclAfter(tick, func() { a.c.Loop.Tick() })
}

func (a *Application) toggleDark() {
	cfg := a.c.Config
	cfg.DarkMode = theme.ToggleDark()
	if err := cfg.Save(a.c.ConfigPath); err != nil {
		a.logger.Error("config save failed", "error", err)
	}
}

func (a *Application) exitHandler() {
	a.c.Navigation.Leave()
	if a.afterID != "" {
		TclAfterCancel(a.afterID)
		a.afterID = ""
	}
	Destroy(App)
}

func (a *Application) shutdown() {
	a.c.Session.Close()
	if a.cancel != nil {
		a.cancel()
	}
	a.bg.Wait()
	a.logger.Info("app stopped")
}
