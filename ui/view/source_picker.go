package view

import (
	"log/slog"
	"strconv"

	"github.com/soocke/screenshare-test/domain/capture"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// SourcePicker is the modal dialog asking the user what to share. Closing the
// window counts as dismissing it.
type SourcePicker struct {
	logger *slog.Logger
	win    *ToplevelWidget
	combo  *TComboboxWidget
	done   func(idx int, ok bool)
}

func NewSourcePicker(logger *slog.Logger) *SourcePicker {
	return &SourcePicker{logger: logger}
}

// OpenPicker shows the dialog listing sources. done is called once.
func (p *SourcePicker) OpenPicker(sources []capture.Source, done func(idx int, ok bool)) {
	p.ClosePicker()
	p.done = done

	labels := make([]string, len(sources))
	for i, s := range sources {
		labels[i] = s.Label
	}
	win := App.Toplevel(Borderwidth(2))
	win.WmTitle("Choose what to share")
	WmAttributes(win.Window, "-topmost", 1)
	WmProtocol(win.Window, "WM_DELETE_WINDOW", func() { p.finish(-1, false) })
	p.win = win

	prompt := win.Label(Txt("Select a screen or region to share."), Anchor("w"))
	Grid(prompt, Row(0), Column(0), Columnspan(2), Sticky("we"), Padx("1m"), Pady("1m"))
	p.combo = win.TCombobox(Values(labels), Width(36), State("readonly"))
	Grid(p.combo, Row(1), Column(0), Columnspan(2), Sticky("we"), Padx("1m"), Pady("0.5m"))
	if len(labels) > 0 {
		p.combo.Current(0)
	}
	share := win.Button(Txt("Share"), Command(p.share))
	Grid(share, Row(2), Column(0), Sticky("we"), Padx("1m"), Pady("1m"))
	cancel := win.Button(Txt("Cancel"), Command(func() { p.finish(-1, false) }))
	Grid(cancel, Row(2), Column(1), Sticky("we"), Padx("1m"), Pady("1m"))
	Bind(win, "<Return>", Command(p.share))
	Bind(win, "<Escape>", Command(func() { p.finish(-1, false) }))
	Focus(p.combo)
}

// ClosePicker destroys the dialog without answering.
func (p *SourcePicker) ClosePicker() {
	p.done = nil
	p.destroy()
}

func (p *SourcePicker) share() {
	if p.combo == nil {
		p.finish(-1, false)
		return
	}
	idx, err := strconv.Atoi(p.combo.Current(nil))
	if err != nil {
		if p.logger != nil {
			p.logger.Error("source selection parse error", "error", err)
		}
		p.finish(-1, false)
		return
	}
	p.finish(idx, true)
}

func (p *SourcePicker) finish(idx int, ok bool) {
	done := p.done
	p.done = nil
	p.destroy()
	if done != nil {
		done(idx, ok)
	}
}

func (p *SourcePicker) destroy() {
	if p.win != nil {
		Destroy(p.win)
		p.win = nil
		p.combo = nil
	}
}
