package report

import (
	"os"

	"golang.org/x/term"
)

// Style selects how the run summary is rendered.
type Style int

const (
	// StylePlain renders without colors, for pipes, files and CI logs.
	StylePlain Style = iota
	// StyleColor renders with colors for a human at the terminal.
	StyleColor
)

// DetectStyle determines how to render the summary written to out.
//
// Returns StylePlain if:
//   - NO_COLOR is set (https://no-color.org)
//   - CI is set (common CI/CD convention)
//   - TERM is "dumb"
//   - out is not a terminal
//
// Returns StyleColor otherwise.
func DetectStyle(out *os.File) Style {
	if os.Getenv("NO_COLOR") != "" {
		return StylePlain
	}
	if os.Getenv("CI") != "" {
		return StylePlain
	}
	if os.Getenv("TERM") == "dumb" {
		return StylePlain
	}
	if out == nil || !term.IsTerminal(int(out.Fd())) {
		return StylePlain
	}
	return StyleColor
}
