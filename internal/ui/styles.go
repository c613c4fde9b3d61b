package ui

import "github.com/charmbracelet/lipgloss"

// Semantic color palette.
var (
	colorPrimary    = lipgloss.Color("#00BFFF") // Cyan: headings
	colorAccent     = lipgloss.Color("#FFD700") // Gold: critical tasks
	colorSuccess    = lipgloss.Color("#00E676") // Green: completed/available
	colorDanger     = lipgloss.Color("#FF5252") // Red: errors/blocked
	colorMuted      = lipgloss.Color("#636363") // Gray: de-emphasized
	colorMutedLight = lipgloss.Color("#8C8C8C") // Lighter gray: normal text
	colorBlue       = lipgloss.Color("#5B8DEF") // Blue: in progress
)

// Status icons.
const (
	iconDone     = "✓"
	iconCritical = "◆"
	iconWaiting  = "·"
	iconWorking  = "◎"
	iconBlocked  = "⊘"
	iconSkipped  = "–"
)

// styles is the set of lipgloss styles bound to one renderer, so color
// output follows the capabilities of the writer it is printed to.
type styles struct {
	heading  lipgloss.Style
	label    lipgloss.Style
	muted    lipgloss.Style
	normal   lipgloss.Style
	critical lipgloss.Style
	done     lipgloss.Style
	working  lipgloss.Style
	blocked  lipgloss.Style
	errorMsg lipgloss.Style
	border   lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		heading:  r.NewStyle().Foreground(colorPrimary).Bold(true),
		label:    r.NewStyle().Foreground(colorPrimary),
		muted:    r.NewStyle().Foreground(colorMuted),
		normal:   r.NewStyle().Foreground(colorMutedLight),
		critical: r.NewStyle().Foreground(colorAccent).Bold(true),
		done:     r.NewStyle().Foreground(colorSuccess),
		working:  r.NewStyle().Foreground(colorBlue),
		blocked:  r.NewStyle().Foreground(colorDanger),
		errorMsg: r.NewStyle().Foreground(colorDanger).Bold(true),
		border:   r.NewStyle().Foreground(colorMuted),
	}
}
