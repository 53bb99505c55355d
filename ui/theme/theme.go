package theme

// Centralized theming and styling initialization for the screen share test UI.
// Provides palette constants and InitStyles to activate a base theme and
// configure semantic widget styles, including one banner style per status tone.

import (
	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// Palette defines core semantic colors used across widgets.
// These can later be switched dynamically (e.g., dark mode) by re-calling InitStylesDark.
const (
	ColorBg        = "#f7f9fb" // app background
	ColorSurface   = "#ffffff" // panels, cards
	ColorBorder    = "#d0d7de"
	ColorPrimary   = "#2563eb" // buttons, accents
	ColorPrimaryHi = "#1d4ed8"
	ColorDanger    = "#dc2626"
	ColorDangerHi  = "#b91c1c"
	ColorAccent    = "#10b981"
	ColorWarning   = "#d97706"
	ColorInfo      = "#2563eb"
	ColorText      = "#1e293b"
	ColorTextMuted = "#64748b"
)

// PaletteSnapshot represents resolved colors for the active mode.
type PaletteSnapshot struct {
	AppBg     string
	Surface   string
	Border    string
	Primary   string
	Danger    string
	Accent    string
	Warning   string
	Info      string
	Text      string
	TextMuted string
}

// CurrentPalette returns colors for the current dark/light mode.
func CurrentPalette() PaletteSnapshot {
	if darkMode {
		return PaletteSnapshot{
			AppBg:     "#0f172a",
			Surface:   "#1e293b",
			Border:    "#334155",
			Primary:   "#3b82f6",
			Danger:    "#ef4444",
			Accent:    "#10b981",
			Warning:   "#f59e0b",
			Info:      "#60a5fa",
			Text:      "#f1f5f9",
			TextMuted: "#94a3b8",
		}
	}
	return PaletteSnapshot{
		AppBg:     ColorBg,
		Surface:   ColorSurface,
		Border:    ColorBorder,
		Primary:   ColorPrimary,
		Danger:    ColorDanger,
		Accent:    ColorAccent,
		Warning:   ColorWarning,
		Info:      ColorInfo,
		Text:      ColorText,
		TextMuted: ColorTextMuted,
	}
}

// style names used with Style("primary.TButton") etc.
const (
	StylePrimaryButton = "primary.TButton"
	StyleDangerButton  = "danger.TButton"
	StyleAccentLabel   = "accent.TLabel"
	StyleStateLabel    = "state.TLabel"
	StyleLiveLabel     = "live.TLabel"
	StyleChipLabel     = "chip.TLabel"
	StyleMutedLabel    = "muted.TLabel"
)

// BannerStyle returns the label style for a banner tone name
// ("success", "error", "warning" or "info").
func BannerStyle(tone string) string {
	switch tone {
	case "success", "error", "warning":
		return tone + ".TLabel"
	default:
		return "info.TLabel"
	}
}

// toneColor resolves the foreground of a banner tone.
func toneColor(p PaletteSnapshot, tone string) string {
	switch tone {
	case "success":
		return p.Accent
	case "error":
		return p.Danger
	case "warning":
		return p.Warning
	default:
		return p.Info
	}
}

// internal flag for current mode
var darkMode bool

// InitStyles (re)applies styles for the current darkMode value.
func InitStyles() { applyStyles(darkMode) }

// SetDark toggles dark mode and reapplies styles. Returns new mode value.
func SetDark(dark bool) bool {
	darkMode = dark
	applyStyles(darkMode)
	return darkMode
}

// ToggleDark flips dark mode and reapplies styles. Returns new mode value.
func ToggleDark() bool { return SetDark(!darkMode) }

// IsDark reports current mode.
func IsDark() bool { return darkMode }

// applyStyles encapsulates palette & style configuration for light/dark.
func applyStyles(dark bool) {
	_ = ActivateTheme("azure light") // baseline metrics
	if dark {
		App.Configure(Background("#0f172a"))
	} else {
		App.Configure(Background(ColorBg))
	}

	// Primary button
	StyleConfigure(StylePrimaryButton,
		Background(func() string {
			if dark {
				return "#3b82f6"
			}
			return ColorPrimary
		}()),
		Foreground("white"),
		Padding("4p 3p"),
		Borderwidth(1),
		Relief("ridge"),
	)
	// Danger button
	StyleConfigure(StyleDangerButton,
		Background(func() string {
			if dark {
				return "#ef4444"
			}
			return ColorDanger
		}()),
		Foreground("white"),
		Padding("4p 3p"),
		Borderwidth(1),
		Relief("ridge"),
	)
	// Accent label
	StyleConfigure(StyleAccentLabel,
		Foreground(func() string {
			if dark {
				return "#3b82f6"
			}
			return ColorPrimary
		}()),
		Background(func() string {
			if dark {
				return "#1e293b"
			}
			return ColorSurface
		}()),
		Padding("2p 1p"),
	)
	// State label
	StyleConfigure(StyleStateLabel,
		Foreground(func() string {
			if dark {
				return "#f0fdf4"
			}
			return "white"
		}()),
		Background(func() string {
			if dark {
				return "#10b981"
			}
			return ColorAccent
		}()),
		Padding("4p 2p"),
		Borderwidth(1),
		Relief("groove"),
	)

	p := CurrentPalette()
	for _, tone := range []string{"success", "error", "warning", "info"} {
		StyleConfigure(BannerStyle(tone),
			Foreground(toneColor(p, tone)),
			Background(p.Surface),
			Padding("6p 4p"),
			Borderwidth(1),
			Relief("solid"),
		)
	}
	StyleConfigure(StyleLiveLabel,
		Foreground(p.Accent),
		Background(p.Surface),
		Padding("4p 1p"),
		Borderwidth(1),
		Relief("solid"),
	)
	StyleConfigure(StyleChipLabel,
		Foreground(p.Text),
		Background(p.Surface),
		Padding("4p 1p"),
		Borderwidth(1),
		Relief("groove"),
	)
	StyleConfigure(StyleMutedLabel, Foreground(p.TextMuted))
}
