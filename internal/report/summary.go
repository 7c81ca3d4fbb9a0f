package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/agusespa/diffscribe/internal/types"
)

// WriteSummary prints a console table of the classified changes followed by totals
func WriteSummary(w io.Writer, changes []types.ClassifiedChange) {
	if len(changes) == 0 {
		color.New(color.FgYellow).Fprintln(w, "No changes detected.")
		return
	}

	businessColor := color.New(color.FgRed, color.Bold)
	otherColor := color.New(color.FgGreen)

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"File", "Type", "Impact", "Signals", "Author"})

	business := 0
	for _, change := range changes {
		impact := otherColor.Sprint("Other")
		if change.BusinessLogicImpacted {
			business++
			impact = businessColor.Sprint("Business logic")
		}
		if change.Degraded {
			impact += " (fallback)"
		}

		tbl.AppendRow(table.Row{change.FilePath, change.Kind, impact, signalSummary(change.Signals), change.Author})
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d", len(changes)), "", fmt.Sprintf("Business logic: %d", business), "", ""})
	tbl.Render()
}

func signalSummary(signals []string) string {
	const shown = 3
	if len(signals) <= shown {
		return strings.Join(signals, ", ")
	}
	return fmt.Sprintf("%s (+%d more)", strings.Join(signals[:shown], ", "), len(signals)-shown)
}
