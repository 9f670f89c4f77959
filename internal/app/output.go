package app

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"ppdmloader/internal/domain"
	"ppdmloader/internal/loader"
	"ppdmloader/internal/service"
)

func statusText(s domain.RunStatus) string {
	switch s {
	case domain.RunSuccess:
		return color.GreenString(string(s))
	case domain.RunError:
		return color.RedString(string(s))
	default:
		return color.YellowString(string(s))
	}
}

func printRun(w io.Writer, r *domain.RunLog) {
	fmt.Fprintf(w, "Run %s: %s in %s\n", r.ID, statusText(r.Status), r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	s := r.Stats
	fmt.Fprintf(w, "  surface rows read      %d\n", s.SurfaceRead)
	fmt.Fprintf(w, "  bottom-hole rows read  %d\n", s.BottomHoleRead)
	fmt.Fprintf(w, "  wells reconciled       %d\n", s.WellsReconciled)
	fmt.Fprintf(w, "  bottom-holes merged    %d\n", s.BottomHoleMerged)
	fmt.Fprintf(w, "  sidetracks inferred    %d\n", s.SidetracksInferred)
	fmt.Fprintf(w, "  orphans dropped        %d\n", s.OrphansDropped)
	for _, table := range sortedKeys(s.Inserted) {
		fmt.Fprintf(w, "  inserted %-14s %d\n", table, s.Inserted[table])
	}
	if r.Error != "" {
		fmt.Fprintln(w, color.RedString("  error: %s", r.Error))
	}
}

func printRuns(w io.Writer, runs []domain.RunLog) {
	if len(runs) == 0 {
		fmt.Fprintln(w, color.YellowString("No runs recorded yet"))
		return
	}
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tTRIGGER\tSTATUS\tWELLS\tINSERTED\tERROR")
	for _, r := range runs {
		total := 0
		for _, n := range r.Stats.Inserted {
			total += n
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Trigger, r.Status, r.Stats.WellsReconciled, total, oneLine(r.Error, 60))
	}
	tw.Flush()
}

func printSchema(w io.Writer, rep *loader.SchemaReport) {
	fmt.Fprintf(w, "Table %s\n", rep.Table)
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tLENGTH")
	for _, col := range sortedKeys(rep.Lengths) {
		fmt.Fprintf(tw, "%s\t%d\n", col, rep.Lengths[col])
	}
	tw.Flush()
	l := rep.Limits
	fmt.Fprintf(w, "Limits: WELL_NAME=%d OPERATOR=%d ASSIGNED_FIELD=%d DEPTH_DATUM=%d CURRENT_STATUS=%d REMARK=%d\n",
		l.WellName, l.Operator, l.AssignedField, l.DepthDatum, l.CurrentStatus, l.Remark)
	if len(rep.Missing) > 0 {
		fmt.Fprintln(w, color.YellowString("Using fallback length for: %s", strings.Join(rep.Missing, ", ")))
	}
}

func printPreview(w io.Writer, p *service.PreviewResult) {
	var cols []string
	if p.Schema != nil {
		for _, f := range p.Schema.Fields {
			cols = append(cols, f.Name)
		}
	}
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(cols, "\t"))
	for _, rec := range p.Records {
		vals := make([]string, len(cols))
		for i, c := range cols {
			if v, ok := rec.Data[c]; ok && v != nil {
				vals[i] = fmt.Sprint(v)
			}
		}
		fmt.Fprintln(tw, strings.Join(vals, "\t"))
	}
	tw.Flush()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func oneLine(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}
