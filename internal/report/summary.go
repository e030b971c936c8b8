// Package report renders the end-of-run summary table.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/vvka-141/belaz/pkg/belaz"
)

// maxDetailLength caps the error text shown in the summary.
// The full error has already been logged.
const maxDetailLength = 72

// Status is the one-word outcome of a table.
type Status string

const (
	StatusLoaded  Status = "loaded"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
	StatusDryRun  Status = "dry-run"
)

// StatusOf classifies a table report.
func StatusOf(tr belaz.TableReport, dryRun bool) Status {
	switch {
	case tr.Failed():
		return StatusFailed
	case tr.Malformed != nil:
		return StatusPartial
	case dryRun:
		return StatusDryRun
	default:
		return StatusLoaded
	}
}

// Write renders the summary of r to w.
func Write(w io.Writer, r belaz.RunReport, style Style) error {
	st := stylesFor(style)

	var b strings.Builder
	b.WriteString(st.title.Render(headline(r)))
	b.WriteString("\n")

	if len(r.Tables) > 0 {
		rows := make([][]string, 0, len(r.Tables))
		statuses := make([]Status, 0, len(r.Tables))
		for _, tr := range r.Tables {
			status := StatusOf(tr, r.DryRun)
			statuses = append(statuses, status)
			rows = append(rows, []string{
				tr.Table,
				strconv.Itoa(tr.Documents),
				strconv.FormatInt(tr.Inserted, 10),
				symbol(status) + " " + string(status),
				detail(tr),
			})
		}

		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(st.border).
			Headers("TABLE", "DOCUMENTS", "INSERTED", "STATUS", "DETAIL").
			Rows(rows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return st.header
				}
				if col != 3 || row < 0 || row >= len(statuses) {
					return st.cell
				}
				switch statuses[row] {
				case StatusFailed:
					return st.failure
				case StatusPartial:
					return st.warning
				default:
					return st.success
				}
			})
		b.WriteString(t.Render())
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func headline(r belaz.RunReport) string {
	failed := r.Failures()
	mode := "Load"
	if r.DryRun {
		mode = "Dry run"
	}
	return fmt.Sprintf("%s %s: %d table(s), %d succeeded, %d failed in %s",
		mode, r.RunID, len(r.Tables), len(r.Tables)-failed, failed, r.Duration.Round(time.Millisecond))
}

func symbol(s Status) string {
	switch s {
	case StatusFailed:
		return SymbolCross
	case StatusPartial:
		return SymbolPartial
	default:
		return SymbolCheck
	}
}

// detail is the first line of the error or decode warning, shortened.
func detail(tr belaz.TableReport) string {
	var err error
	switch {
	case tr.Err != nil:
		err = tr.Err
	case tr.Malformed != nil:
		err = tr.Malformed
	default:
		return ""
	}

	msg, _, _ := strings.Cut(err.Error(), "\n")
	if r := []rune(msg); len(r) > maxDetailLength {
		msg = string(r[:maxDetailLength-1]) + "…"
	}
	return msg
}
