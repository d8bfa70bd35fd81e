// Package styles holds the TUI palette and the lipgloss styles built from it.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is the TUI palette. Each colour carries a light and a dark variant
// and lipgloss picks one from the terminal background.
type Theme struct {
	Accent    lipgloss.AdaptiveColor // assistant, titles
	UserColor lipgloss.AdaptiveColor
	Text      lipgloss.AdaptiveColor
	Subtle    lipgloss.AdaptiveColor // sources, hints, status bar
	Grounded  lipgloss.AdaptiveColor // replies answered from the knowledge base
	Direct    lipgloss.AdaptiveColor // replies that cite nothing
	Danger    lipgloss.AdaptiveColor
	Frame     lipgloss.AdaptiveColor
	BarFill   lipgloss.AdaptiveColor
}

// DefaultTheme is a Catppuccin-flavoured palette.
func DefaultTheme() *Theme {
	return &Theme{
		Accent:    lipgloss.AdaptiveColor{Light: "#8839EF", Dark: "#CBA6F7"},
		UserColor: lipgloss.AdaptiveColor{Light: "#04A5E5", Dark: "#89DCEB"},
		Text:      lipgloss.AdaptiveColor{Light: "#4C4F69", Dark: "#CDD6F4"},
		Subtle:    lipgloss.AdaptiveColor{Light: "#8C8FA1", Dark: "#6C7086"},
		Grounded:  lipgloss.AdaptiveColor{Light: "#40A02B", Dark: "#A6E3A1"},
		Direct:    lipgloss.AdaptiveColor{Light: "#DF8E1D", Dark: "#F9E2AF"},
		Danger:    lipgloss.AdaptiveColor{Light: "#D20F39", Dark: "#F38BA8"},
		Frame:     lipgloss.AdaptiveColor{Light: "#BCC0CC", Dark: "#45475A"},
		BarFill:   lipgloss.AdaptiveColor{Light: "#E6E9EF", Dark: "#181825"},
	}
}

// Styles are the rendered styles shared by the chat view and its components.
type Styles struct {
	theme *Theme

	Title     lipgloss.Style
	Normal    lipgloss.Style
	Muted     lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
	Error     lipgloss.Style
	Help      lipgloss.Style

	// Source renders one citation, indented under its answer.
	Source lipgloss.Style

	// RouteKnowledgeBase and RouteDirect tag a chat reply with how it was produced.
	RouteKnowledgeBase lipgloss.Style
	RouteDirect        lipgloss.Style

	Input     lipgloss.Style
	StatusBar lipgloss.Style
	Border    lipgloss.Style
}

// NewStyles builds styles from theme, or from DefaultTheme when nil.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	fg := func(c lipgloss.TerminalColor) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c)
	}
	framed := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Frame)

	return &Styles{
		theme:              theme,
		Title:              fg(theme.Accent).Bold(true),
		Normal:             fg(theme.Text),
		Muted:              fg(theme.Subtle),
		User:               fg(theme.UserColor).Bold(true),
		Assistant:          fg(theme.Accent).Bold(true),
		Error:              fg(theme.Danger),
		Help:               fg(theme.Subtle).Italic(true),
		Source:             fg(theme.Subtle).PaddingLeft(2),
		RouteKnowledgeBase: fg(theme.Grounded),
		RouteDirect:        fg(theme.Direct),
		Input:              framed.Padding(0, 1),
		StatusBar:          fg(theme.Subtle).Background(theme.BarFill).Padding(0, 1),
		Border:             framed,
	}
}

// DefaultStyles is NewStyles(nil).
func DefaultStyles() *Styles {
	return NewStyles(nil)
}

// Theme returns the palette the styles were built from.
func (s *Styles) Theme() *Theme {
	return s.theme
}
