package view

import (
	"github.com/soocke/screenshare-test/ui/presenter"
	"github.com/soocke/screenshare-test/ui/theme"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

const maxPageButtons = 2

// screenTestPage renders presenter.ViewModel. All widgets are created once;
// Render grids the ones the view model needs and forgets the rest.
type screenTestPage struct {
	frame    *FrameWidget
	live     *TLabelWidget
	title    *TLabelWidget
	desc     *LabelWidget
	spinner  *TLabelWidget
	banner   *TLabelWidget
	hint     *LabelWidget
	chips    *FrameWidget
	chipLbls [2]*TLabelWidget
	preview  CapturePreview
	buttons  *FrameWidget
	btns     [maxPageButtons]*TButtonWidget
	onAction func(presenter.Action)
}

func newScreenTestPage(parent *FrameWidget, previewW, previewH int, onAction func(presenter.Action)) *screenTestPage {
	p := &screenTestPage{frame: parent, onAction: onAction}

	header := parent.Frame()
	Grid(header, Row(0), Column(0), Sticky("we"), Pady("0.5m"))
	back := header.Button(Txt("← Back"), Command(func() { p.act(presenter.ActionBack) }))
	Grid(back, Row(0), Column(0), Sticky("w"), Padx("0.4m"))
	heading := header.Label(Txt("Screen Test"), Font("TkHeadingFont"))
	Grid(heading, Row(0), Column(1), Sticky("w"), Padx("0.4m"))
	GridColumnConfigure(header.Window, 2, Weight(1))
	p.live = header.TLabel(Txt("● Live"), Style(theme.StyleLiveLabel))
	Grid(p.live, Row(0), Column(3), Sticky("e"), Padx("0.4m"))

	p.title = parent.TLabel(Txt(""), Font("TkHeadingFont"))
	p.desc = parent.Label(Txt(""), Wraplength("110m"), Justify("center"))
	p.spinner = parent.TLabel(Txt(""), Style(theme.StyleMutedLabel))
	p.banner = parent.TLabel(Txt(""), Style(theme.BannerStyle("info")))
	p.hint = parent.Label(Txt(""), Wraplength("100m"), Justify("center"))
	p.chips = parent.Frame()
	for i := range p.chipLbls {
		p.chipLbls[i] = p.chips.TLabel(Txt(""), Style(theme.StyleChipLabel))
		Grid(p.chipLbls[i], Row(0), Column(i), Padx("0.4m"))
	}
	p.preview = NewCapturePreview(parent, previewW, previewH)
	p.buttons = parent.Frame()
	for i := range p.btns {
		p.btns[i] = p.buttons.TButton(Txt(""))
	}
	return p
}

// Render lays the page out for vm.
func (p *screenTestPage) Render(vm presenter.ViewModel) {
	if p == nil {
		return
	}
	p.forgetBody()
	show := func(w Widget, row int) {
		Grid(w, Row(row), Column(0), Padx("1m"), Pady("0.6m"))
	}
	if vm.Live {
		Grid(p.live, Row(0), Column(3), Sticky("e"), Padx("0.4m"))
	} else {
		GridForget(p.live.Window)
	}

	row := 1
	switch vm.Card {
	case presenter.CardIdle:
		p.title.Configure(Txt(vm.Title))
		show(p.title, row)
		row++
		p.desc.Configure(Txt(vm.Description))
		show(p.desc, row)
		row++
	case presenter.CardRequesting:
		p.spinner.Configure(Txt(vm.SpinnerText))
		show(p.spinner, row)
		row++
	}
	if vm.Banner != "" {
		p.banner.Configure(Txt(vm.Banner), Style(theme.BannerStyle(vm.Tone.String())))
		show(p.banner, row)
		row++
	}
	if len(vm.Chips) > 0 {
		for i, lbl := range p.chipLbls {
			if i < len(vm.Chips) {
				lbl.Configure(Txt(vm.Chips[i]))
			}
		}
		show(p.chips, row)
		row++
	}
	if vm.ShowPreview {
		show(p.preview.Widget(), row)
		row++
	} else {
		p.preview.ResetPreview()
	}
	if vm.Hint != "" {
		p.hint.Configure(Txt(vm.Hint))
		show(p.hint, row)
		row++
	}
	for i, btn := range p.btns {
		if i >= len(vm.Buttons) {
			GridForget(btn.Window)
			continue
		}
		spec := vm.Buttons[i]
		state := "disabled"
		if spec.Enabled {
			state = "normal"
		}
		style := theme.StylePrimaryButton
		if spec.Action == presenter.ActionStop || spec.Action == presenter.ActionBack {
			style = "TButton"
		}
		btn.Configure(Txt(spec.Label), State(state), Style(style), Command(func() { p.act(spec.Action) }))
		Grid(btn, Row(0), Column(i), Padx("0.6m"))
	}
	show(p.buttons, row)
}

func (p *screenTestPage) forgetBody() {
	GridForget(p.title.Window, p.desc.Window, p.spinner.Window, p.banner.Window,
		p.hint.Window, p.chips.Window, p.preview.Widget().Window, p.buttons.Window)
}

func (p *screenTestPage) act(a presenter.Action) {
	if p.onAction != nil {
		p.onAction(a)
	}
}
