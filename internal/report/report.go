package report

import (
	"TraceSpectra/internal/model"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
)

const rule = "------------------------------------------------------------"

// Best names the winning trace for each metric. A nil field means no trace
// qualified.
type Best struct {
	Goodput   *model.TraceResult
	Fairness  *model.TraceResult
	Stability *model.TraceResult
}

// FindBest picks the highest goodput, the highest fairness and the lowest
// defined CoV. Missing traces never win and neither does an undefined CoV.
// Ties go to the earlier trace.
func FindBest(results []model.TraceResult) Best {
	var b Best
	for i := range results {
		r := &results[i]
		if r.Missing {
			continue
		}
		if b.Goodput == nil || r.Metrics.GoodputMbps > b.Goodput.Metrics.GoodputMbps {
			b.Goodput = r
		}
		if b.Fairness == nil || r.Metrics.FairnessIndex > b.Fairness.Metrics.FairnessIndex {
			b.Fairness = r
		}
		cov, ok := r.Metrics.Stability.Value()
		if !ok {
			continue
		}
		if b.Stability == nil || cov < b.Stability.Metrics.Stability.CoV {
			b.Stability = r
		}
	}
	return b
}

// GroupSummary holds the mean metrics of one comparison group.
type GroupSummary struct {
	Group        string
	Traces       int // analyzed, excluding missing
	Missing      int
	GoodputMbps  float64
	PLRPercent   float64
	Fairness     float64
	CoV          model.Stability // mean over defined values only
	UndefinedCoV int
}

// SummarizeGroups averages each metric per group, in order of first
// appearance. Missing traces are counted but excluded from the means.
func SummarizeGroups(results []model.TraceResult) []GroupSummary {
	index := make(map[string]int)
	var groups []GroupSummary
	covSums := make([]float64, 0)
	covCounts := make([]int, 0)

	for _, r := range results {
		i, ok := index[r.Spec.Group]
		if !ok {
			i = len(groups)
			index[r.Spec.Group] = i
			groups = append(groups, GroupSummary{Group: r.Spec.Group})
			covSums = append(covSums, 0)
			covCounts = append(covCounts, 0)
		}
		g := &groups[i]
		if r.Missing {
			g.Missing++
			continue
		}
		g.Traces++
		g.GoodputMbps += r.Metrics.GoodputMbps
		g.PLRPercent += r.Metrics.PacketLossRatePercent
		g.Fairness += r.Metrics.FairnessIndex
		if cov, ok := r.Metrics.Stability.Value(); ok {
			covSums[i] += cov
			covCounts[i]++
		} else {
			g.UndefinedCoV++
		}
	}

	for i := range groups {
		g := &groups[i]
		if g.Traces > 0 {
			n := float64(g.Traces)
			g.GoodputMbps /= n
			g.PLRPercent /= n
			g.Fairness /= n
		}
		if covCounts[i] > 0 {
			g.CoV = model.DefinedStability(covSums[i] / float64(covCounts[i]))
		}
	}
	return groups
}

// WriteTables renders the comparison tables of a batch.
func WriteTables(w io.Writer, results []model.TraceResult) error {
	var sb strings.Builder

	sb.WriteString("Table 1: Goodput and packet loss\n" + rule + "\n")
	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Variant\tQueue\tGoodput (Mbps)\tPLR (%)\tLines\tReceived")
	for _, r := range results {
		if r.Missing {
			fmt.Fprintf(tw, "%s\t%s\tmissing\t-\t-\t-\n", r.Spec.Name, r.Spec.Group)
			continue
		}
		received := r.Flows[0].ReceivedBytes + r.Flows[1].ReceivedBytes
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.4f\t%s\t%s\n",
			r.Spec.Name, r.Spec.Group,
			r.Metrics.GoodputMbps, r.Metrics.PacketLossRatePercent,
			humanize.Comma(int64(r.Lines)), humanize.Bytes(received))
	}
	tw.Flush()
	sb.WriteString(rule + "\n\n")

	sb.WriteString("Table 2: Jain fairness index (trailing window)\n" + rule + "\n")
	tw = tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Variant\tQueue\tFairness Index")
	for _, r := range results {
		if r.Missing {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%.4f\n", r.Spec.Name, r.Spec.Group, r.Metrics.FairnessIndex)
	}
	tw.Flush()
	sb.WriteString(rule + "\n\n")

	sb.WriteString("Table 3: Throughput stability (CoV)\n" + rule + "\n")
	tw = tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Variant\tQueue\tCoV")
	for _, r := range results {
		if r.Missing {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Spec.Name, r.Spec.Group, r.Metrics.Stability.Format(4))
	}
	tw.Flush()
	sb.WriteString(rule + "\n\n")

	best := FindBest(results)
	if best.Goodput != nil {
		fmt.Fprintf(&sb, "Highest goodput: %s (%.2f Mbps)\n", label(best.Goodput), best.Goodput.Metrics.GoodputMbps)
	}
	if best.Fairness != nil {
		fmt.Fprintf(&sb, "Fairest: %s (index %.4f)\n", label(best.Fairness), best.Fairness.Metrics.FairnessIndex)
	}
	if best.Stability != nil {
		fmt.Fprintf(&sb, "Most stable: %s (CoV %s)\n", label(best.Stability), best.Stability.Metrics.Stability.Format(4))
	}

	groups := SummarizeGroups(results)
	if len(groups) > 1 {
		sb.WriteString("\n")
		writeGroups(&sb, groups)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func writeGroups(sb *strings.Builder, groups []GroupSummary) {
	sb.WriteString("Group comparison (mean over analyzed traces)\n" + rule + "\n")
	tw := tabwriter.NewWriter(sb, 0, 0, 2, ' ', 0)

	header := []string{"Metric"}
	goodput := []string{"Goodput (Mbps)"}
	plr := []string{"PLR (%)"}
	fairness := []string{"Fairness Index"}
	cov := []string{"Stability (CoV)"}
	for _, g := range groups {
		name := g.Group
		if name == "" {
			name = "(ungrouped)"
		}
		header = append(header, name)
		goodput = append(goodput, fmt.Sprintf("%.2f", g.GoodputMbps))
		plr = append(plr, fmt.Sprintf("%.4f", g.PLRPercent))
		fairness = append(fairness, fmt.Sprintf("%.4f", g.Fairness))
		c := g.CoV.Format(4)
		if g.UndefinedCoV > 0 {
			c += fmt.Sprintf(" (%d not comparable)", g.UndefinedCoV)
		}
		cov = append(cov, c)
	}
	for _, row := range [][]string{header, goodput, plr, fairness, cov} {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
	sb.WriteString(rule + "\n")
}

func label(r *model.TraceResult) string {
	if r.Spec.Group == "" {
		return strings.ToUpper(r.Spec.Name)
	}
	return fmt.Sprintf("%s (%s)", strings.ToUpper(r.Spec.Name), r.Spec.Group)
}
