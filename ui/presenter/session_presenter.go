package presenter

import (
	"time"

	"github.com/soocke/screenshare-test/ui/model"
)

// LiveModel reports whether a capture stream is live.
type LiveModel interface{ Live() bool }

// SessionView displays formatted live durations and gates config editing.
type SessionView interface {
	SetSession(session, total time.Duration)
	ConfigEditable(bool)
}

// SessionPresenter formats live and total durations from the clock to the
// view. The config form is editable only while nothing is live.
type SessionPresenter struct {
	clock    *model.LiveClock
	live     LiveModel
	view     SessionView
	editable *bool
}

// NewSessionPresenter returns a new SessionPresenter.
func NewSessionPresenter(clock *model.LiveClock, live LiveModel, view SessionView) *SessionPresenter {
	return &SessionPresenter{clock: clock, live: live, view: view}
}

// Tick advances the clock and pushes values to the view.
func (p *SessionPresenter) Tick(now time.Time) {
	if p == nil || p.clock == nil || p.live == nil || p.view == nil {
		return
	}
	live := p.live.Live()
	p.clock.OnTick(live, now)
	s, t := p.clock.Values()
	p.view.SetSession(s, t)
	if p.editable == nil || *p.editable == live {
		editable := !live
		p.editable = &editable
		p.view.ConfigEditable(editable)
	}
}
