package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/radar/internal/radar"
	"github.com/pders01/radar/internal/search"
	"github.com/pders01/radar/internal/storage"
)

var (
	dateStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4ECDC4")).
			MarginTop(1)

	newBadgeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#FF6B6B")).
			Padding(0, 1)

	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7A7A7A"))

	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA86B"))
)

func categoryStyle(c radar.Category) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(c.Color()))
}

// renderEvents prints events grouped by day in ascending date order. A
// non-empty day restricts the output to that date.
func renderEvents(w io.Writer, snap *radar.Snapshot, day string) {
	days := snap.Dates()
	if day != "" {
		days = []string{day}
	}

	byDate := snap.ByDate()
	printed := 0
	for _, d := range days {
		events := byDate[d]
		if len(events) == 0 {
			continue
		}
		fmt.Fprintln(w, dateStyle.Render(fmt.Sprintf("%s (%d)", d, len(events))))
		for _, e := range events {
			fmt.Fprintln(w, renderEvent(snap, e))
			printed++
		}
	}

	if printed == 0 {
		fmt.Fprintln(w, dimStyle.Render("No events."))
	}
}

func renderEvent(snap *radar.Snapshot, e radar.Event) string {
	var b strings.Builder
	b.WriteString("  ")
	b.WriteString(categoryStyle(e.Category).Render("● " + e.Title))
	if snap.IsNewAllTime(e) {
		b.WriteString(" ")
		b.WriteString(newBadgeStyle.Render("NEW"))
	}
	b.WriteString("\n    ")
	b.WriteString(e.Headline)
	b.WriteString("\n    ")
	b.WriteString(dimStyle.Render(fmt.Sprintf("%s · %s · %s", e.PublishedAt.Format("15:04"), e.SourceLabel, e.URL)))
	if e.Summary != "" {
		b.WriteString("\n    ")
		b.WriteString(e.Summary)
	}
	return b.String()
}

func renderCompanies(w io.Writer, order []string, firstSeen radar.CompanyFirstSeen) {
	if len(order) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No companies."))
		return
	}
	for _, name := range order {
		fmt.Fprintf(w, "%s  %s\n", dimStyle.Render(radar.DayOf(firstSeen[name])), name)
	}
}

func renderResults(w io.Writer, query string, results []*search.Result) {
	if len(results) == 0 {
		fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("No results for %q.", query)))
		return
	}
	for _, r := range results {
		e := r.Event
		fmt.Fprintf(w, "%s  %s\n    %s\n",
			dimStyle.Render(e.Date()),
			categoryStyle(e.Category).Render(e.Title),
			e.Headline,
		)
	}
}

func renderSourceErrors(w io.Writer, reports []radar.SourceReport) {
	for _, r := range reports {
		if r.Error != "" {
			fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("! %s: %s", r.Label, r.Error)))
		}
	}
}

func renderSnapshots(w io.Writer, infos []storage.SnapshotInfo) {
	if len(infos) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No stored snapshots."))
		return
	}
	for _, info := range infos {
		line := fmt.Sprintf("%s  %d events  %d companies",
			info.ComputedAt.Format("2006-01-02 15:04:05"), info.Events, info.Companies)
		fmt.Fprint(w, line)
		if len(info.Failed) > 0 {
			fmt.Fprint(w, "  ", warnStyle.Render("failed: "+strings.Join(info.Failed, ", ")))
		}
		fmt.Fprintln(w)
	}
}
