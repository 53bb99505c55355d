package model

import (
	"time"
)

// LiveClock tracks how long the current capture stream has been live and the
// accumulated live time across streams. It is decoupled from the UI;
// presenters should poll Values() and update views. The zero value is ready
// to use.
type LiveClock struct {
	live        bool
	liveSince   time.Time
	lastSession time.Duration
	accumulated time.Duration
	streams     int
}

// NewLiveClock returns a pointer to a ready-to-use LiveClock.
func NewLiveClock() *LiveClock { return &LiveClock{} }

// OnTick updates the clock using the current live flag and timestamp.
// Call periodically (for example, from a presenter tick).
func (m *LiveClock) OnTick(live bool, now time.Time) {
	if m == nil {
		return
	}
	if live {
		if !m.live { // off -> on
			m.live = true
			m.liveSince = now
			m.lastSession = 0
			m.streams++
		}
		m.lastSession = now.Sub(m.liveSince)
	} else if m.live { // on -> off
		m.lastSession = now.Sub(m.liveSince)
		m.accumulated += m.lastSession
		m.live = false
	}
}

// Values returns the current (or last) stream duration and the total live
// duration. The total includes the ongoing stream when live.
func (m *LiveClock) Values() (session, total time.Duration) {
	if m == nil {
		return 0, 0
	}
	session = m.lastSession
	total = m.accumulated
	if m.live {
		total += session
	}
	return
}

// Streams reports how many streams went live.
func (m *LiveClock) Streams() int {
	if m == nil {
		return 0
	}
	return m.streams
}
