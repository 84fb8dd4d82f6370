package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/erik-esparza/rival-review/internal/model"
	"github.com/erik-esparza/rival-review/internal/trend"
)

// TextWriter outputs human-readable text reports for terminal display.
//
// Design decision: Tables are rendered with go-pretty rather than
// hand-aligned fmt.Printf columns; app names vary wildly in length and
// manual padding breaks as soon as one of them is long.
type TextWriter struct {
	baseWriter

	// showRankTable includes the full unified rank table in the output.
	// Off by default; it can run to hundreds of rows.
	showRankTable bool
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithRankTable includes the full unified rank table in the output.
func WithRankTable(show bool) TextWriterOption {
	return func(w *TextWriter) {
		w.showRankTable = show
	}
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the analysis in human-readable format.
func (w *TextWriter) Write(analysis *trend.Analysis) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, analysis)
	w.writeNewEntities(&sb, analysis)
	w.writeMovement(&sb, analysis)
	w.writeLeaderboard(&sb, analysis)
	w.writeReviewTrends(&sb, analysis)
	if w.showRankTable {
		w.writeRankTable(&sb, analysis)
	}

	return io.WriteString(w.output, sb.String())
}

// writeHeader writes the report title and snapshot dates.
func (w *TextWriter) writeHeader(sb *strings.Builder, analysis *trend.Analysis) {
	fmt.Fprintf(sb, "Trend Report: %q\n", analysis.Query)
	sb.WriteString(strings.Repeat("=", 60) + "\n\n")

	if analysis.PreviousCapturedAt.IsZero() {
		sb.WriteString("Previous snapshot: (none - first run)\n")
	} else {
		fmt.Fprintf(sb, "Previous snapshot: %s\n", analysis.PreviousCapturedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(sb, "Current snapshot:  %s\n", analysis.CurrentCapturedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(sb, "Alerts: %d\n", len(analysis.Alerts))
}

// writeNewEntities lists apps absent from the previous snapshot.
func (w *TextWriter) writeNewEntities(sb *strings.Builder, analysis *trend.Analysis) {
	alerts := analysis.AlertsOf(model.AlertNewEntity)
	if len(alerts) == 0 {
		return
	}

	fmt.Fprintf(sb, "\nNew Apps (%d):\n", len(alerts))
	for _, a := range alerts {
		fmt.Fprintf(sb, "  [+] %s (rank %d)\n", a.AppName, a.NewRank)
	}
}

// writeMovement renders the ranking jumps and drops tables.
func (w *TextWriter) writeMovement(sb *strings.Builder, analysis *trend.Analysis) {
	jumps := analysis.AlertsOf(model.AlertRankJump)
	drops := analysis.AlertsOf(model.AlertRankDrop)

	if len(jumps) > 0 {
		fmt.Fprintf(sb, "\nRanking Jumps (%d):\n", len(jumps))
		sb.WriteString(movementTable(jumps))
	}
	if len(drops) > 0 {
		fmt.Fprintf(sb, "\nRanking Drops (%d):\n", len(drops))
		sb.WriteString(movementTable(drops))
	}
}

// movementTable renders one jumps-or-drops table.
func movementTable(alerts []model.Alert) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"App", "Previous", "Current", "Change"})
	for _, a := range alerts {
		t.AppendRow(table.Row{a.AppName, a.OldRank, a.NewRank, formatDelta(a.Delta)})
	}
	return t.Render() + "\n"
}

// writeLeaderboard lists top-N entrants and evictees.
// The two sets are independent; nothing pairs an entrant with an evictee.
func (w *TextWriter) writeLeaderboard(sb *strings.Builder, analysis *trend.Analysis) {
	entrants := analysis.AlertsOf(model.AlertTopNEntrant)
	evictees := analysis.AlertsOf(model.AlertTopNEvictee)
	if len(entrants) == 0 && len(evictees) == 0 {
		return
	}

	sb.WriteString("\nLeaderboard Changes:\n")
	for _, a := range entrants {
		fmt.Fprintf(sb, "  [in]  %s (now rank %d)\n", a.AppName, a.NewRank)
	}
	for _, a := range evictees {
		fmt.Fprintf(sb, "  [out] %s (was rank %d)\n", a.AppName, a.OldRank)
	}
}

// writeReviewTrends renders the review growth and rating drop sections.
func (w *TextWriter) writeReviewTrends(sb *strings.Builder, analysis *trend.Analysis) {
	growth := analysis.AlertsOf(model.AlertExplosiveReviewGrowth)
	ratingDrops := analysis.AlertsOf(model.AlertRatingDrop)

	if len(growth) > 0 {
		fmt.Fprintf(sb, "\nExplosive Review Growth (last %d days):\n", analysis.LookbackDays)
		t := table.NewWriter()
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"App", "Reviews", "Window Mean", "Overall"})
		for _, a := range growth {
			t.AppendRow(table.Row{
				a.AppName,
				a.ReviewCount,
				windowCell(analysis, a.AppName, false),
				windowCell(analysis, a.AppName, true),
			})
		}
		sb.WriteString(t.Render() + "\n")
	}

	if len(ratingDrops) > 0 {
		fmt.Fprintf(sb, "\nRating Drops (%d):\n", len(ratingDrops))
		for _, a := range ratingDrops {
			fmt.Fprintf(sb, "  [!] %s: rating dropped by %.2f\n", a.AppName, a.RatingDropMagnitude)
		}
	}

	if len(analysis.Windows) == 0 {
		sb.WriteString("\nReview activity: no comparable data in the review log.\n")
	}
}

// writeRankTable renders the full unified rank table.
func (w *TextWriter) writeRankTable(sb *strings.Builder, analysis *trend.Analysis) {
	if len(analysis.Ranks) == 0 {
		return
	}

	fmt.Fprintf(sb, "\nRank Table (%d apps):\n", len(analysis.Ranks))
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"App", "Previous", "Current", "Change", "New"})
	for _, r := range analysis.Ranks {
		isNew := ""
		if r.New {
			isNew = "yes"
		}
		t.AppendRow(table.Row{r.AppName, r.PreviousRank, r.CurrentRank, formatDelta(r.RankChange), isNew})
	}
	sb.WriteString(t.Render() + "\n")
}

// windowCell looks up an app's window mean or overall score for display.
func windowCell(analysis *trend.Analysis, appName string, overall bool) string {
	for _, row := range analysis.Windows {
		if row.AppName != appName {
			continue
		}
		v := row.WindowMeanRating
		if overall {
			v = row.OverallScore
		}
		if v == nil {
			return "-"
		}
		return fmt.Sprintf("%.2f", *v)
	}
	return "-"
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return fmt.Sprintf("+%d", delta)
	}
	return fmt.Sprintf("%d", delta)
}
