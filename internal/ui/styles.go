// Package ui renders CLI output: status glyphs, tables, structured output
// and interactive forms.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

func init() {
	if !ShouldUseColor() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// Semantic colors adapt to light and dark terminals.
var (
	ColorPass   = lipgloss.AdaptiveColor{Light: "#4e7f1a", Dark: "#9ccc65"}
	ColorWarn   = lipgloss.AdaptiveColor{Light: "#b26a00", Dark: "#ffb74d"}
	ColorFail   = lipgloss.AdaptiveColor{Light: "#c62828", Dark: "#ef5350"}
	ColorAccent = lipgloss.AdaptiveColor{Light: "#6a3fa0", Dark: "#b39ddb"}
	ColorMuted  = lipgloss.AdaptiveColor{Light: "#707070", Dark: "#9e9e9e"}
)

var (
	PassStyle   = lipgloss.NewStyle().Foreground(ColorPass)
	WarnStyle   = lipgloss.NewStyle().Foreground(ColorWarn)
	FailStyle   = lipgloss.NewStyle().Foreground(ColorFail)
	AccentStyle = lipgloss.NewStyle().Foreground(ColorAccent)
	MutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	BoldStyle   = lipgloss.NewStyle().Bold(true)
)

func RenderPass(s string) string   { return PassStyle.Render(s) }
func RenderWarn(s string) string   { return WarnStyle.Render(s) }
func RenderFail(s string) string   { return FailStyle.Render(s) }
func RenderAccent(s string) string { return AccentStyle.Render(s) }
func RenderMuted(s string) string  { return MutedStyle.Render(s) }
func RenderBold(s string) string   { return BoldStyle.Render(s) }

// ShouldUseColor follows the NO_COLOR and CLICOLOR_FORCE conventions and
// otherwise colors only a terminal stdout.
func ShouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if v := os.Getenv("CLICOLOR_FORCE"); v != "" && v != "0" {
		return true
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// IsInteractive reports whether both stdin and stdout are terminals, which
// forms need.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
