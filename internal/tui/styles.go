package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/apswitch/internal/version"
)

// Application branding constants
const (
	AppName    = "APSWITCH"
	AppTagline = "Join one specific access point"
)

// AppVersion returns the release shown next to the title
func AppVersion() string {
	return version.Get().Version
}

// Layout constants for responsive terminal width
const (
	MinTerminalWidth = 60
	MaxContentWidth  = 120

	// rows used by everything except the console viewport
	chromeHeight = 16
	minLogHeight = 3
)

// Color palette
var (
	PrimaryColor   = lipgloss.Color("#7D56F4") // Purple
	SecondaryColor = lipgloss.Color("#43BF6D") // Green
	WarningColor   = lipgloss.Color("#FFA500") // Orange
	ErrorColor     = lipgloss.Color("#FF5555") // Red

	TextColor   = lipgloss.Color("#FFFFFF") // White
	SubtleColor = lipgloss.Color("#626262") // Gray
	BorderColor = lipgloss.Color("#7D56F4") // Purple (same as primary)
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Italic(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Width(12)

	FocusedLabelStyle = lipgloss.NewStyle().
				Foreground(PrimaryColor).
				Bold(true).
				Width(12)

	FocusedInputStyle = lipgloss.NewStyle().
				Foreground(PrimaryColor).
				Bold(true)

	BlurredInputStyle = lipgloss.NewStyle().
				Foreground(SubtleColor)

	// Toast style - transient one-line notifications
	ToastStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Background(PrimaryColor).
			Padding(0, 1)

	ErrorToastStyle = ToastStyle.
			Background(ErrorColor)

	NoticeStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(WarningColor)

	StatusStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	StateStyles = map[string]lipgloss.Style{
		"idle":      lipgloss.NewStyle().Foreground(SubtleColor),
		"requested": lipgloss.NewStyle().Foreground(WarningColor).Bold(true),
		"available": lipgloss.NewStyle().Foreground(SecondaryColor).Bold(true),
	}

	ConsoleStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	ConsoleTitleStyle = lipgloss.NewStyle().
				Foreground(SubtleColor).
				Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)
)

// clampWidth keeps the content width between the supported bounds
func clampWidth(width int) int {
	if width < MinTerminalWidth {
		return MinTerminalWidth
	}
	if width > MaxContentWidth {
		return MaxContentWidth
	}
	return width
}
