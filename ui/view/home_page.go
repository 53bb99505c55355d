package view

import (
	"github.com/soocke/screenshare-test/ui/theme"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

type homePage struct {
	frame *FrameWidget
	err   *TLabelWidget
}

func newHomePage(parent *FrameWidget, onStart, onRegion func()) *homePage {
	h := &homePage{frame: parent}
	title := parent.Label(Txt("Screen Share Test App"), Font("TkHeadingFont"))
	Grid(title, Row(0), Column(0), Columnspan(2), Pady("1m"))
	desc := parent.Label(
		Txt("Verify your screen sharing setup. Test display capture, check resolution, and confirm everything works before your next call."),
		Wraplength("110m"), Justify("center"))
	Grid(desc, Row(1), Column(0), Columnspan(2), Pady("0.5m"))
	h.err = parent.TLabel(Txt(""), Style(theme.BannerStyle("error")))
	start := parent.TButton(Txt("Start Screen Test"), Style(theme.StylePrimaryButton), Command(onStart))
	Grid(start, Row(3), Column(0), Columnspan(2), Pady("1m"))
	region := parent.TButton(Txt("Capture Region…"), Command(onRegion))
	Grid(region, Row(4), Column(0), Columnspan(2), Pady("0.3m"))
	note := parent.TLabel(Txt("Uses your desktop's screen capture. No data leaves your device."), Style(theme.StyleMutedLabel))
	Grid(note, Row(5), Column(0), Columnspan(2), Pady("0.5m"))
	return h
}

func (h *homePage) setError(msg string) {
	if msg == "" {
		GridForget(h.err.Window)
		return
	}
	h.err.Configure(Txt(msg))
	Grid(h.err, Row(2), Column(0), Columnspan(2), Pady("0.5m"))
}
