package view

import (
	"fmt"
	"image"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/soocke/screenshare-test/config"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders
	. "modernc.org/tk9.0"
)

// SelectionOverlay manages the region window. The confirmed rectangle is
// offered by the source picker as an application window source.
type SelectionOverlay interface {
	OpenOrFocus()
	Clear()
}

type selectionOverlay struct {
	logger   *slog.Logger
	cfg      *config.Config
	cfgPath  string
	onChange func(image.Rectangle)
	win      *ToplevelWidget
}

// NewSelectionOverlay creates a new overlay manager. onChange receives the
// new region (empty after Clear) and may be nil.
func NewSelectionOverlay(cfg *config.Config, cfgPath string, logger *slog.Logger, onChange func(image.Rectangle)) SelectionOverlay {
	return &selectionOverlay{logger: logger, cfg: cfg, cfgPath: cfgPath, onChange: onChange}
}

func (v *selectionOverlay) OpenOrFocus() {
	if v.win != nil {
		Focus(v.win)
		return
	}
	win := App.Toplevel(Borderwidth(2), Background("#008080"))
	win.WmTitle("Capture Region")
	v.win = win
	WmGeometry(win.Window, v.initialGeometry())
	WmAttributes(win.Window, "-topmost", 1)
	WmAttributes(win.Window, "-toolwindow", true)
	WmAttributes(win.Window, "-transparentcolor", "#008080")
	WmProtocol(win.Window, "WM_DELETE_WINDOW", v.cancel)
	GridRowConfigure(win.Window, 0, Weight(1))
	GridColumnConfigure(win.Window, 0, Weight(0))
	GridColumnConfigure(win.Window, 1, Weight(1))
	GridColumnConfigure(win.Window, 2, Weight(0))
	left := win.Frame(Width(4), Background("#FFFFFF"))
	Grid(left, Row(0), Column(0), Sticky("ns"))
	center := win.Frame(Background("#008080"))
	Grid(center, Row(0), Column(1), Sticky("nsew"))
	right := win.Frame(Width(4), Background("#FFFFFF"))
	Grid(right, Row(0), Column(2), Sticky("ns"))
	controls := win.Frame()
	Grid(controls, Row(1), Column(0), Columnspan(3), Sticky("we"))
	confirm := win.Button(Txt("Confirm [Enter]"), Command(v.confirm))
	Grid(confirm, In(controls), Row(0), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	cancel := win.Button(Txt("Cancel [Esc]"), Command(v.cancel))
	Grid(cancel, In(controls), Row(0), Column(1), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	clear := win.Button(Txt("Clear"), Command(func() { v.Clear(); v.destroy() }))
	Grid(clear, In(controls), Row(0), Column(2), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	Bind(win, "<Return>", Command(v.confirm))
	Bind(win, "<Escape>", Command(v.cancel))
}

// initialGeometry reopens on the saved region, or centres a default window.
func (v *selectionOverlay) initialGeometry() string {
	if r := v.cfg.Selection(); !r.Empty() {
		return fmt.Sprintf("%dx%d+%d+%d", r.Dx(), r.Dy(), r.Min.X, r.Min.Y)
	}
	screenW, screenH := 1920, 1080
	w, h := screenW*2/3, screenH*5/9
	return fmt.Sprintf("%dx%d+%d+%d", w, h, (screenW-w)/2, (screenH-h)/2)
}

func (v *selectionOverlay) Clear() {
	v.store(image.Rectangle{})
}

func (v *selectionOverlay) confirm() {
	if v.win == nil {
		return
	}
	if rect, ok := parseGeometrySel(WmGeometry(v.win.Window)); ok {
		v.store(rect)
	} else if v.logger != nil {
		v.logger.Warn("region geometry not understood")
	}
	v.destroy()
}

func (v *selectionOverlay) store(rect image.Rectangle) {
	if v.cfg != nil {
		v.cfg.SetSelection(rect)
		if err := v.cfg.Save(v.cfgPath); err != nil && v.logger != nil {
			v.logger.Error("config save failed", "error", err)
		}
	}
	if v.logger != nil {
		v.logger.Info("capture region updated", "region", rect.String())
	}
	if v.onChange != nil {
		v.onChange(rect)
	}
}

func (v *selectionOverlay) cancel() { v.destroy() }

func (v *selectionOverlay) destroy() {
	if v.win != nil {
		Destroy(v.win)
		v.win = nil
	}
}

// geomReSel matches window geometry strings in the format "WIDTHxHEIGHT+X+Y"
var geomReSel = regexp.MustCompile(`^(\d+)x(\d+)\+(-?\d+)\+(-?\d+)$`)

// parseGeometrySel parses a Tk geometry string and returns the corresponding rectangle.
func parseGeometrySel(g string) (image.Rectangle, bool) {
	g = strings.TrimSpace(g)
	m := geomReSel.FindStringSubmatch(g)
	if len(m) != 5 {
		return image.Rectangle{}, false
	}
	w, _ := strconv.Atoi(m[1])
	h, _ := strconv.Atoi(m[2])
	x, _ := strconv.Atoi(m[3])
	y, _ := strconv.Atoi(m[4])
	if w <= 0 || h <= 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(x, y, x+w, y+h), true
}
