package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/leitstand/leitstand/pkg/client"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("25")).
			Padding(0, 1)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			Background(lipgloss.Color("236")).
			Padding(0, 1)

	SectionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("252")).
				Underline(true)

	BlitzStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("124"))

	SprechwunschStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("232")).
				Background(lipgloss.Color("178"))

	TalkingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("114"))

	SelectedStyle = lipgloss.NewStyle().
			Bold(true).
			Background(lipgloss.Color("238"))

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	OfflineStyle = lipgloss.NewStyle().
			Strikethrough(true).
			Foreground(lipgloss.Color("240"))

	NoticeBannerStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("232")).
				Background(lipgloss.Color("214")).
				Padding(0, 1)

	KeypadActiveStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("255")).
				Background(lipgloss.Color("28")).
				Padding(0, 1)

	KeypadStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			Background(lipgloss.Color("237")).
			Padding(0, 1)

	ErrStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))
)

// Timer colors per staleness band.
var recencyColors = map[client.RecencyBand]lipgloss.Color{
	client.RecencyFresh:   lipgloss.Color("250"),
	client.RecencyAging:   lipgloss.Color("178"),
	client.RecencyStale:   lipgloss.Color("208"),
	client.RecencyOverdue: lipgloss.Color("196"),
}

// RecencyStyle returns the style for a status-age timer.
func RecencyStyle(band client.RecencyBand) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(recencyColors[band])
}

// StatusLabel maps a status code to its short console label.
func StatusLabel(code string) string {
	switch code {
	case "1":
		return "1 Frei Funk"
	case "2":
		return "2 Wache"
	case "3":
		return "3 Anfahrt"
	case "4":
		return "4 Vor Ort"
	case "7":
		return "7 Aufgenommen"
	case "8":
		return "8 Am Ziel"
	case "0":
		return "0 Blitz"
	case "5":
		return "5 Sprechwunsch"
	default:
		return code
	}
}
