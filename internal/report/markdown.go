package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/erik-esparza/rival-review/internal/model"
	"github.com/erik-esparza/rival-review/internal/trend"
)

// MarkdownWriter outputs reports in Markdown format, suitable for
// committing to a repository or posting in an issue.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the analysis in Markdown format.
func (w *MarkdownWriter) Write(analysis *trend.Analysis) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Trend Report: " + analysis.Query)
	md.PlainText("")

	current := analysis.CurrentCapturedAt.Format("2006-01-02 15:04:05")
	if analysis.PreviousCapturedAt.IsZero() {
		md.PlainTextf("Current snapshot captured at %s. No previous snapshot; this is a baseline run.", current)
	} else {
		md.PlainTextf("Comparing snapshot captured at %s against previous snapshot from %s.",
			current, analysis.PreviousCapturedAt.Format("2006-01-02 15:04:05"))
	}
	md.PlainText("")

	w.writeAlertSummary(md, analysis)
	w.writeNewEntities(md, analysis)
	w.writeMovement(md, analysis)
	w.writeLeaderboard(md, analysis)
	w.writeReviewTrends(md, analysis)

	return len(md.String()), md.Build()
}

// writeAlertSummary writes the per-kind alert counts.
func (w *MarkdownWriter) writeAlertSummary(md *markdown.Markdown, analysis *trend.Analysis) {
	md.H2("Summary")

	if len(analysis.Alerts) == 0 {
		md.Note("No alerts triggered in this run.")
		return
	}

	counts := make(map[model.AlertKind]int)
	for _, a := range analysis.Alerts {
		counts[a.Kind]++
	}

	rows := make([][]string, 0, len(counts))
	for _, kind := range []model.AlertKind{
		model.AlertNewEntity,
		model.AlertRankJump,
		model.AlertRankDrop,
		model.AlertTopNEntrant,
		model.AlertTopNEvictee,
		model.AlertExplosiveReviewGrowth,
		model.AlertRatingDrop,
	} {
		if counts[kind] == 0 {
			continue
		}
		rows = append(rows, []string{string(kind), strconv.Itoa(counts[kind])})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Alert", "Count"},
		Rows:   rows,
	})
}

// writeNewEntities lists apps absent from the previous snapshot.
func (w *MarkdownWriter) writeNewEntities(md *markdown.Markdown, analysis *trend.Analysis) {
	alerts := analysis.AlertsOf(model.AlertNewEntity)
	if len(alerts) == 0 {
		return
	}

	md.H2("New Apps")
	items := make([]string, 0, len(alerts))
	for _, a := range alerts {
		items = append(items, fmt.Sprintf("%s (rank %d)", a.AppName, a.NewRank))
	}
	md.BulletList(items...)
}

// writeMovement renders the ranking jumps and drops tables.
func (w *MarkdownWriter) writeMovement(md *markdown.Markdown, analysis *trend.Analysis) {
	jumps := analysis.AlertsOf(model.AlertRankJump)
	drops := analysis.AlertsOf(model.AlertRankDrop)

	if len(jumps) > 0 {
		md.H2("Ranking Jumps")
		md.Table(markdown.TableSet{
			Header: []string{"App", "Previous", "Current", "Change"},
			Rows:   movementRows(jumps),
		})
	}
	if len(drops) > 0 {
		md.H2("Ranking Drops")
		md.Table(markdown.TableSet{
			Header: []string{"App", "Previous", "Current", "Change"},
			Rows:   movementRows(drops),
		})
	}
}

// movementRows converts jump/drop alerts to table rows.
func movementRows(alerts []model.Alert) [][]string {
	rows := make([][]string, 0, len(alerts))
	for _, a := range alerts {
		rows = append(rows, []string{
			a.AppName,
			strconv.Itoa(a.OldRank),
			strconv.Itoa(a.NewRank),
			formatDelta(a.Delta),
		})
	}
	return rows
}

// writeLeaderboard lists top-N entrants and evictees.
func (w *MarkdownWriter) writeLeaderboard(md *markdown.Markdown, analysis *trend.Analysis) {
	entrants := analysis.AlertsOf(model.AlertTopNEntrant)
	evictees := analysis.AlertsOf(model.AlertTopNEvictee)
	if len(entrants) == 0 && len(evictees) == 0 {
		return
	}

	md.H2("Leaderboard Changes")
	items := make([]string, 0, len(entrants)+len(evictees))
	for _, a := range entrants {
		items = append(items, fmt.Sprintf("**Entered**: %s (now rank %d)", a.AppName, a.NewRank))
	}
	for _, a := range evictees {
		items = append(items, fmt.Sprintf("**Left**: %s (was rank %d)", a.AppName, a.OldRank))
	}
	md.BulletList(items...)
}

// writeReviewTrends renders the review growth and rating drop sections.
func (w *MarkdownWriter) writeReviewTrends(md *markdown.Markdown, analysis *trend.Analysis) {
	growth := analysis.AlertsOf(model.AlertExplosiveReviewGrowth)
	ratingDrops := analysis.AlertsOf(model.AlertRatingDrop)

	if len(growth) > 0 {
		md.H2(fmt.Sprintf("Explosive Review Growth (last %d days)", analysis.LookbackDays))
		rows := make([][]string, 0, len(growth))
		for _, a := range growth {
			rows = append(rows, []string{
				a.AppName,
				strconv.Itoa(a.ReviewCount),
				windowCell(analysis, a.AppName, false),
				windowCell(analysis, a.AppName, true),
			})
		}
		md.Table(markdown.TableSet{
			Header: []string{"App", "Reviews", "Window Mean", "Overall"},
			Rows:   rows,
		})
	}

	if len(ratingDrops) > 0 {
		md.H2("Rating Drops")
		for _, a := range ratingDrops {
			md.Warningf("%s: recent reviews average %.2f below the overall score", a.AppName, a.RatingDropMagnitude)
		}
	}

	if len(analysis.Windows) == 0 {
		md.Note("No dated reviews in the log; review-based alerts were skipped.")
	}
}
