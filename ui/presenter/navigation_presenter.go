package presenter

// Pages switches between the home and screen test pages.
type Pages interface {
	ShowHome()
	ShowScreenTest()
	SetHomeError(msg string)
}

// SessionCleaner releases any capture held by the session.
type SessionCleaner interface{ Cleanup() }

const unsupportedMessage = "Your system does not support screen sharing. No display is available for capture."

// NavigationPresenter owns page changes. Entering the screen test page is
// gated on the static capability check; leaving it always cleans up the
// session.
type NavigationPresenter struct {
	supported func() bool
	pages     Pages
	session   SessionCleaner
	onEnter   func()
	onTest    bool
}

// NewNavigationPresenter returns a presenter. onEnter runs after the screen
// test page is shown and may be nil.
func NewNavigationPresenter(supported func() bool, pages Pages, session SessionCleaner, onEnter func()) *NavigationPresenter {
	if supported == nil {
		supported = func() bool { return true }
	}
	return &NavigationPresenter{supported: supported, pages: pages, session: session, onEnter: onEnter}
}

// StartScreenTest shows the screen test page, or the unsupported error on
// the home page.
func (p *NavigationPresenter) StartScreenTest() {
	if p == nil || p.pages == nil {
		return
	}
	if !p.supported() {
		p.pages.SetHomeError(unsupportedMessage)
		return
	}
	p.pages.SetHomeError("")
	p.pages.ShowScreenTest()
	p.onTest = true
	if p.onEnter != nil {
		p.onEnter()
	}
}

// BackToHome cleans up the session and shows the home page.
func (p *NavigationPresenter) BackToHome() {
	if p == nil {
		return
	}
	p.Leave()
	if p.pages != nil {
		p.pages.ShowHome()
	}
}

// Leave cleans up the session if the screen test page was open. It is also
// called when the window closes.
func (p *NavigationPresenter) Leave() {
	if p == nil || !p.onTest {
		return
	}
	p.onTest = false
	if p.session != nil {
		p.session.Cleanup()
	}
}

// OnScreenTest reports whether the screen test page is showing.
func (p *NavigationPresenter) OnScreenTest() bool { return p != nil && p.onTest }
