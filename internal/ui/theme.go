package ui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/osuradio/internal/presence"
)

// Theme defines colors for the UI.
type Theme struct {
	Name string

	Background string // Outermost background
	Surface    string // Header and command bar
	SurfaceAlt string // Secondary surfaces

	SelectionBg   string
	SelectionText string

	Border      string
	BorderFocus string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string

	// Badge colors keyed by presence connection state.
	ConnectionColors map[string]string
}

// Styles contains pre-built Lipgloss styles for the theme.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style

	Header   lipgloss.Style
	Logo     lipgloss.Style
	Title    lipgloss.Style
	Section  lipgloss.Style
	Selected lipgloss.Style

	connectionColors map[string]string
	background       string
	muted            string
}

// Styles returns Lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	return Styles{
		Text:        lipgloss.NewStyle().Foreground(lipgloss.Color(t.Text)),
		MutedText:   lipgloss.NewStyle().Foreground(lipgloss.Color(t.Muted)),
		FaintText:   lipgloss.NewStyle().Foreground(lipgloss.Color(t.Faint)),
		AccentText:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.Accent)),
		SuccessText: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Success)).Bold(true),
		WarningText: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Warning)),
		DangerText:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.Danger)).Bold(true),
		InfoText:    lipgloss.NewStyle().Foreground(lipgloss.Color(t.Info)),

		Header: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Text)).
			Padding(0, 1),
		Logo: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)).
			Bold(true),
		Title: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Text)).
			Bold(true),
		Section: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)).
			Bold(true).
			MarginTop(1),
		Selected: lipgloss.NewStyle().
			Background(lipgloss.Color(t.SelectionBg)).
			Foreground(lipgloss.Color(t.SelectionText)),

		connectionColors: t.ConnectionColors,
		background:       t.Background,
		muted:            t.Muted,
	}
}

// ConnectionStyle returns a badge style for a presence connection state.
func (s Styles) ConnectionStyle(state string) lipgloss.Style {
	color := s.connectionColors[state]
	if color == "" {
		color = s.muted
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.background)).
		Background(lipgloss.Color(color)).
		Bold(true).
		Padding(0, 1)
}

// TableStyles adapts the theme to the bubbles table.
func (t Theme) TableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(t.Border)).
		BorderBottom(true).
		Foreground(lipgloss.Color(t.Accent)).
		Bold(true)
	s.Cell = s.Cell.Foreground(lipgloss.Color(t.Text))
	s.Selected = s.Selected.
		Foreground(lipgloss.Color(t.SelectionText)).
		Background(lipgloss.Color(t.SelectionBg)).
		Bold(false)
	return s
}

var themes = map[string]Theme{
	"Pink": pinkTheme(),
	"Nord": nordTheme(),
}

var themeOrder = []string{"Pink", "Nord"}

// GetTheme returns a theme by name, falling back to Pink.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return pinkTheme()
}

// NextTheme returns the next theme name in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames returns available theme names.
func ThemeNames() []string {
	return append([]string(nil), themeOrder...)
}

func connectionColors(ready, connecting, disconnected string) map[string]string {
	return map[string]string{
		presence.Ready.String():        ready,
		presence.Connecting.String():   connecting,
		presence.Disconnected.String(): disconnected,
	}
}

func pinkTheme() Theme {
	// osu! pink on a dark plum base
	return Theme{
		Name: "Pink",

		Background: "#1a1420",
		Surface:    "#241b2c",
		SurfaceAlt: "#2e2338",

		SelectionBg:   "#4a3357",
		SelectionText: "#fbe3f0",

		Border:      "#5b3f6b",
		BorderFocus: "#ff66aa",

		Text:    "#f2dff0",
		Muted:   "#a58aa8",
		Faint:   "#8a7090",
		Accent:  "#ff66aa",
		Success: "#8bd5a0",
		Warning: "#f5c87a",
		Danger:  "#ff5c7a",
		Info:    "#7fc8f8",

		ConnectionColors: connectionColors("#8bd5a0", "#f5c87a", "#ff5c7a"),
	}
}

func nordTheme() Theme {
	// Nord palette: https://www.nordtheme.com/docs/colors-and-palettes
	return Theme{
		Name: "Nord",

		Background: "#2e3440", // nord0
		Surface:    "#3b4252", // nord1
		SurfaceAlt: "#434c5e", // nord2

		SelectionBg:   "#4c566a", // nord3
		SelectionText: "#eceff4", // nord6

		Border:      "#4c566a",
		BorderFocus: "#88c0d0",

		Text:    "#d8dee9", // nord4
		Muted:   "#7b88a1",
		Faint:   "#616e88",
		Accent:  "#88c0d0", // nord8
		Success: "#a3be8c", // nord14
		Warning: "#ebcb8b", // nord13
		Danger:  "#bf616a", // nord11
		Info:    "#81a1c1", // nord9

		ConnectionColors: connectionColors("#a3be8c", "#ebcb8b", "#bf616a"),
	}
}
