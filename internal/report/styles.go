package report

import "github.com/charmbracelet/lipgloss"

// Color palette - keeping it minimal and accessible.
var (
	ColorPrimary   = lipgloss.Color("39")  // Blue
	ColorSecondary = lipgloss.Color("245") // Gray
	ColorSuccess   = lipgloss.Color("34")  // Green
	ColorWarning   = lipgloss.Color("214") // Orange
	ColorError     = lipgloss.Color("196") // Red
)

// styles holds the lipgloss styles of one rendering.
// The plain set carries no colors or attributes, so it emits no escape codes.
type styles struct {
	title   lipgloss.Style
	header  lipgloss.Style
	cell    lipgloss.Style
	border  lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
}

func stylesFor(style Style) styles {
	cell := lipgloss.NewStyle().Padding(0, 1)
	if style == StylePlain {
		return styles{
			title:   lipgloss.NewStyle(),
			header:  cell,
			cell:    cell,
			border:  lipgloss.NewStyle(),
			success: cell,
			warning: cell,
			failure: cell,
		}
	}
	return styles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary),
		header:  cell.Bold(true).Foreground(ColorPrimary),
		cell:    cell,
		border:  lipgloss.NewStyle().Foreground(ColorSecondary),
		success: cell.Foreground(ColorSuccess),
		warning: cell.Foreground(ColorWarning),
		failure: cell.Foreground(ColorError),
	}
}

// Symbols for table status.
const (
	SymbolCheck   = "✓"
	SymbolCross   = "✗"
	SymbolPartial = "!"
)
