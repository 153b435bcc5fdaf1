package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	service "github.com/okian/judgeboard/internal/app"
	"github.com/okian/judgeboard/internal/domain/types"
	"github.com/okian/judgeboard/internal/seed"
)

func renderLeaderboard(w io.Writer, lb types.Leaderboard) {
	title := color.New(color.FgYellow, color.Bold)
	_, _ = title.Fprintf(w, "\nLeaderboard (%d ranked, generated %s)\n",
		lb.Count, formatTimestamp(lb.Timestamp))
	if len(lb.Rankings) == 0 {
		_, _ = color.New(color.FgRed).Fprintln(w, "No participant has a completed run.")
		return
	}

	metricNames := collectMetrics(lb.Rankings)
	header := append([]string{"Rank", "Participant", "Total"}, metricNames...)
	header = append(header, "Records", "Run")

	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	for _, e := range lb.Rankings {
		row := []string{
			strconv.Itoa(e.Rank),
			e.ParticipantID,
			formatScore(e.TotalScore),
		}
		for _, m := range metricNames {
			if v, ok := e.MetricScores[m]; ok {
				row = append(row, formatScore(v))
			} else {
				row = append(row, "-")
			}
		}
		row = append(row, strconv.Itoa(e.EvaluationCount), e.RunID)
		table.Append(row)
	}
	table.Render()
}

func renderInspection(w io.Writer, in service.Inspection) {
	_, _ = color.New(color.FgCyan, color.Bold).Fprintf(w, "\nParticipant %s: %s\n",
		in.ParticipantID, plural(len(in.Candidates), "candidate run"))

	if len(in.Candidates) > 0 {
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"", "Run", "Created", "Size", "Key"})
		table.SetAutoWrapText(false)
		for _, c := range in.Candidates {
			mark := ""
			if c.Key == in.SelectedKey {
				mark = "*"
			}
			table.Append([]string{mark, c.RunID, formatTimestamp(c.Timestamp), strconv.FormatInt(c.Size, 10), c.Key})
		}
		table.Render()
	}

	if in.Selected == nil {
		_, _ = color.New(color.FgRed).Fprintf(w, "Excluded: %s\n", in.Reason)
		return
	}
	s := in.Selected
	_, _ = color.New(color.FgGreen).Fprintf(w, "Selected %s: total %s over %s\n",
		s.RunID, formatScore(s.TotalScore), plural(s.EvaluationCount, "record"))

	names := make([]string, 0, len(s.MetricScores))
	for m := range s.MetricScores {
		names = append(names, m)
	}
	sort.Strings(names)
	for _, m := range names {
		fmt.Fprintf(w, "  %-32s %s\n", m, formatScore(s.MetricScores[m]))
	}
}

func renderSeedStats(w io.Writer, st seed.Stats) {
	_, _ = color.New(color.FgGreen).Fprintf(w, "Seeded %s, %s, %s (%d bytes)\n",
		plural(st.Participants, "participant"), plural(st.Runs, "run"), plural(st.Records, "record"), st.Bytes)
	if st.Malformed > 0 {
		_, _ = color.New(color.FgYellow).Fprintf(w, "%s deliberately malformed\n", plural(st.Malformed, "line"))
	}
}

// collectMetrics returns every metric name present in entries, sorted.
func collectMetrics(entries []types.Entry) []string {
	set := make(map[string]struct{})
	for _, e := range entries {
		for m := range e.MetricScores {
			set[m] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for m := range set {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

func formatScore(v float64) string {
	return strings.TrimRight(strings.TrimRight(strconv.FormatFloat(v, 'f', 4, 64), "0"), ".")
}
