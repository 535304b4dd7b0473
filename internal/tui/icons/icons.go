// ABOUTME: Icon system with Nerd Font detection and Unicode fallback
// ABOUTME: Provides consistent iconography across different terminal capabilities

package icons

import (
	"os"
	"strconv"
	"strings"
	"sync"
)

// fontTerminals usually ship with a patched font
var fontTerminals = []string{"iterm.app", "alacritty", "wezterm", "kitty", "ghostty"}

var nerdFonts = sync.OnceValue(func() bool {
	if v, err := strconv.ParseBool(os.Getenv("CREDITEVAL_NERD_FONTS")); err == nil {
		return v
	}
	program := strings.ToLower(os.Getenv("TERM_PROGRAM") + " " + os.Getenv("TERM"))
	for _, t := range fontTerminals {
		if strings.Contains(program, t) {
			return true
		}
	}
	return false
})

// HasNerdFonts reports whether icons render with Nerd Font glyphs.
// CREDITEVAL_NERD_FONTS overrides terminal detection.
func HasNerdFonts() bool {
	return nerdFonts()
}

// Icon represents an icon with Nerd Font and Unicode fallback variants
type Icon struct {
	NerdFont string
	Fallback string
}

// String returns the appropriate icon based on font availability
func (i Icon) String() string {
	if HasNerdFonts() {
		return i.NerdFont
	}
	return i.Fallback
}

// Icon definitions - Nerd Font codepoints with Unicode fallbacks
var (
	// Accounts
	User  = Icon{"", "●"} // nf-fa-user
	Users = Icon{"", "◎"} // nf-fa-users
	Admin = Icon{"󰒃", "⛊"} // nf-md-shield_check

	// Finance
	Money   = Icon{"", "$"} // nf-fa-money
	Score   = Icon{"󰓅", "◐"} // nf-md-gauge
	History = Icon{"", "≡"} // nf-fa-history
	Chart   = Icon{"󰄭", "▁"} // nf-md-chart_line

	// Status indicators
	CheckOK  = Icon{"", "✓"} // nf-oct-check_circle
	Warning  = Icon{"", "⚠"} // nf-oct-alert
	Critical = Icon{"", "✗"} // nf-oct-x_circle
	Info     = Icon{"", "ℹ"} // nf-oct-info

	// Actions
	Refresh = Icon{"󰑓", "↻"} // nf-md-refresh
	New     = Icon{"", "+"} // nf-fa-plus
	Back    = Icon{"󰁍", "←"} // nf-md-arrow_left
	Logout  = Icon{"󰗼", "×"} // nf-md-exit_to_app

	// Application
	App = Icon{"", "◈"} // nf-fa-credit_card
)
