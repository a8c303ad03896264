// Package styles holds the ANSI color palette used by the run command's
// progress display and error output.
package styles

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// GlobalStyles is the default palette used across CLI output.
// It is initialized during package init and can be overridden in tests.
var GlobalStyles *Styles

const (
	// https://no-color.org/.
	noColorEnvVar = "NO_COLOR"
	// https://force-color.org/.
	forceColorEnvVar = "FORCE_COLOR"
)

func init() {
	lipgloss.SetColorProfile(termenv.TrueColor)
	if isTestEnvironment() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	GlobalStyles = DefaultStyles()
}

// Styles describes the colors used to render progress and error output.
type Styles struct {
	Info    lipgloss.Style
	Warning lipgloss.Style
	Danger  lipgloss.Style
	Comment lipgloss.Style
}

func DefaultStyles() *Styles {
	return &Styles{
		Info:    lipgloss.NewStyle().Foreground(ColorAqua),
		Warning: lipgloss.NewStyle().Foreground(ColorGold),
		Danger:  lipgloss.NewStyle().Foreground(ColorRed),
		Comment: lipgloss.NewStyle().Foreground(ColorGray),
	}
}

type Color = lipgloss.AdaptiveColor

var (
	ColorAqua = Color{Light: aqua, Dark: aqua}
	ColorGold = Color{Light: goldDarker, Dark: gold}
	ColorRed  = Color{Light: red, Dark: red}
	ColorGray = Color{Light: gray, Dark: gray}
)

const (
	red        = "#dc322f"
	gray       = "#808080"
	aqua       = "#38a7ab"
	gold       = "#BCB480"
	goldDarker = "#a39a5f"
)

// ColorDisabled returns true if colored output should be disabled.
// This function is not responsible for determining if output is a TTY;
// callers should perform that check and call DisableStyles if needed.
func ColorDisabled() bool {
	if strings.EqualFold(os.Getenv(noColorEnvVar), "1") || strings.EqualFold(os.Getenv(noColorEnvVar), "true") {
		return true
	}
	if isTestEnvironment() {
		return true
	}
	return false
}

// ColorForced returns true if colored output should be forced.
func ColorForced() bool {
	return strings.EqualFold(os.Getenv(forceColorEnvVar), "1") || strings.EqualFold(os.Getenv(forceColorEnvVar), "true")
}

func isTestEnvironment() bool {
	return strings.HasSuffix(os.Args[0], ".test")
}

// DisableStyles switches to an ASCII color profile.
func DisableStyles() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// EnableStyles switches to a TrueColor color profile.
func EnableStyles() {
	lipgloss.SetColorProfile(termenv.TrueColor)
}
