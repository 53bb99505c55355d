package presenter

import (
	"slices"
	"time"

	"github.com/soocke/screenshare-test/domain/screenshare"
)

// Tone selects the banner style.
type Tone int

const (
	ToneInfo Tone = iota
	ToneSuccess
	ToneWarning
	ToneError
)

func (t Tone) String() string {
	switch t {
	case ToneSuccess:
		return "success"
	case ToneWarning:
		return "warning"
	case ToneError:
		return "error"
	default:
		return "info"
	}
}

// Action is a user intent raised by a screen test page button.
type Action int

const (
	ActionNone Action = iota
	ActionStart
	ActionStop
	ActionBack
)

// ButtonSpec describes one page button.
type ButtonSpec struct {
	Label   string
	Action  Action
	Enabled bool
}

// Card identifies the layout the page shows.
type Card int

const (
	CardIdle Card = iota
	CardRequesting
	CardActive
	CardMessage
)

// ViewModel is everything the screen test page renders for a session state.
type ViewModel struct {
	Card        Card
	Live        bool
	Title       string
	Description string
	SpinnerText string
	Banner      string
	Tone        Tone
	Hint        string
	Chips       []string
	ShowPreview bool
	Buttons     []ButtonSpec
}

// Equal reports whether two view models render identically.
func (vm ViewModel) Equal(o ViewModel) bool {
	return vm.Card == o.Card && vm.Live == o.Live && vm.Title == o.Title &&
		vm.Description == o.Description && vm.SpinnerText == o.SpinnerText &&
		vm.Banner == o.Banner && vm.Tone == o.Tone && vm.Hint == o.Hint &&
		vm.ShowPreview == o.ShowPreview &&
		slices.Equal(vm.Chips, o.Chips) && slices.Equal(vm.Buttons, o.Buttons)
}

const (
	startLabel   = "Start Screen Sharing"
	retryLabel   = "Retry Screen Test"
	backLabel    = "Back to Home"
	deniedHint   = "Your system blocked the request. Check your privacy settings and the capture setting in the configuration, then try again."
	errorDefault = "An unexpected error occurred."
)

// BuildViewModel maps a session state to the page contents.
func BuildViewModel(s screenshare.State) ViewModel {
	back := ButtonSpec{Label: backLabel, Action: ActionBack, Enabled: true}
	retry := ButtonSpec{Label: retryLabel, Action: ActionStart, Enabled: true}
	switch s.Status {
	case screenshare.StatusRequestingPermission:
		return ViewModel{
			Card:        CardRequesting,
			SpinnerText: "Waiting for screen selection…",
			Buttons:     []ButtonSpec{{Label: startLabel, Action: ActionStart}},
		}
	case screenshare.StatusPermissionGranted:
		vm := ViewModel{
			Card:        CardActive,
			Live:        true,
			Banner:      "Screen sharing active",
			Tone:        ToneSuccess,
			ShowPreview: s.Stream != nil,
			Buttons:     []ButtonSpec{{Label: "Stop Screen Sharing", Action: ActionStop, Enabled: true}},
		}
		if s.Metadata != nil {
			vm.Chips = []string{s.Metadata.Surface.Label(), s.Metadata.Resolution()}
		}
		return vm
	case screenshare.StatusUserCancelled:
		return ViewModel{
			Card:    CardMessage,
			Banner:  orDefault(s.ErrorMessage, screenshare.OutcomeCancelled.DefaultMessage()),
			Tone:    ToneWarning,
			Buttons: []ButtonSpec{{Label: "Try Again", Action: ActionStart, Enabled: true}, back},
		}
	case screenshare.StatusPermissionDenied:
		return ViewModel{
			Card:    CardMessage,
			Banner:  orDefault(s.ErrorMessage, screenshare.OutcomeDenied.DefaultMessage()),
			Tone:    ToneError,
			Hint:    deniedHint,
			Buttons: []ButtonSpec{retry, back},
		}
	case screenshare.StatusStreamEnded:
		return ViewModel{
			Card:    CardMessage,
			Banner:  "Screen sharing stopped.",
			Tone:    ToneInfo,
			Buttons: []ButtonSpec{retry, back},
		}
	case screenshare.StatusUnexpectedError:
		return ViewModel{
			Card:    CardMessage,
			Banner:  orDefault(s.ErrorMessage, errorDefault),
			Tone:    ToneError,
			Buttons: []ButtonSpec{retry, back},
		}
	default:
		return ViewModel{
			Card:        CardIdle,
			Title:       "Ready to Share",
			Description: "Click the button below to select a screen or region. A live preview will appear here once sharing begins.",
			Buttons:     []ButtonSpec{{Label: startLabel, Action: ActionStart, Enabled: true}},
		}
	}
}

func orDefault(msg, def string) string {
	if msg == "" {
		return def
	}
	return msg
}

// ScreenSession is the part of the session controller the page drives.
type ScreenSession interface {
	State() screenshare.State
	Start()
	Stop()
}

// ScreenTestView renders the screen test page.
type ScreenTestView interface {
	Render(vm ViewModel)
}

// Navigator leaves the screen test page.
type Navigator interface {
	BackToHome()
}

// ScreenTestPresenter polls the session on each tick and re-renders the page
// when its view model changes.
type ScreenTestPresenter struct {
	session  ScreenSession
	view     ScreenTestView
	nav      Navigator
	last     ViewModel
	rendered bool
}

func NewScreenTestPresenter(session ScreenSession, view ScreenTestView, nav Navigator) *ScreenTestPresenter {
	return &ScreenTestPresenter{session: session, view: view, nav: nav}
}

// Tick renders the current session state if it changed since the last tick.
func (p *ScreenTestPresenter) Tick(now time.Time) {
	if p == nil || p.session == nil || p.view == nil {
		return
	}
	vm := BuildViewModel(p.session.State())
	if p.rendered && vm.Equal(p.last) {
		return
	}
	p.last = vm
	p.rendered = true
	p.view.Render(vm)
}

// Invalidate forces the next Tick to render, e.g. after the page was shown.
func (p *ScreenTestPresenter) Invalidate() {
	if p != nil {
		p.rendered = false
	}
}

// Do performs a button action.
func (p *ScreenTestPresenter) Do(a Action) {
	if p == nil || p.session == nil {
		return
	}
	switch a {
	case ActionStart:
		p.session.Start()
	case ActionStop:
		p.session.Stop()
	case ActionBack:
		if p.nav != nil {
			p.nav.BackToHome()
		}
	}
}
