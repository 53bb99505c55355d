package presenter

import "time"

// Loop aggregates feature presenters and drives periodic updates.
//
// It calls Tick on the sub-presenters and invokes a scheduler callback. The
// zero value is usable (methods are nil-safe).
type Loop struct {
	Session  *SessionPresenter
	Screen   *ScreenTestPresenter
	Preview  *PreviewPresenter
	Picker   *PickerBridge
	Schedule func()
}

func NewLoop(sess *SessionPresenter, screen *ScreenTestPresenter, preview *PreviewPresenter, picker *PickerBridge, schedule func()) *Loop {
	return &Loop{Session: sess, Screen: screen, Preview: preview, Picker: picker, Schedule: schedule}
}

func (l *Loop) Tick() {
	if l == nil {
		return
	}
	now := time.Now()
	// Picker first so a request raised by Start opens without an extra tick.
	if l.Picker != nil {
		l.Picker.Tick()
	}
	if l.Screen != nil {
		l.Screen.Tick(now)
	}
	if l.Session != nil {
		l.Session.Tick(now)
	}
	if l.Preview != nil {
		l.Preview.Tick()
	}
	if l.Schedule != nil {
		l.Schedule()
	}
}
