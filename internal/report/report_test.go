package report

import (
	"TraceSpectra/internal/model"
	"bytes"
	"strings"
	"testing"
)

func result(name, group string, goodput, fairness float64, cov model.Stability) model.TraceResult {
	return model.TraceResult{
		Spec: model.TraceSpec{Name: name, Group: group},
		Metrics: model.MetricResult{
			GoodputMbps:   goodput,
			FairnessIndex: fairness,
			Stability:     cov,
		},
	}
}

func sampleResults() []model.TraceResult {
	missing := result("yeah", "DropTail", 0, 0, model.UndefinedStability)
	missing.Missing = true
	return []model.TraceResult{
		result("reno", "DropTail", 4.0, 0.90, model.DefinedStability(0.30)),
		result("cubic", "DropTail", 5.0, 0.80, model.UndefinedStability),
		result("vegas", "DropTail", 3.0, 0.99, model.DefinedStability(0.10)),
		missing,
		result("reno", "RED", 4.5, 0.95, model.DefinedStability(0.20)),
	}
}

func TestFindBest(t *testing.T) {
	best := FindBest(sampleResults())
	if best.Goodput == nil || best.Goodput.Spec.Name != "cubic" {
		t.Errorf("Expected cubic to have the highest goodput, got %+v", best.Goodput)
	}
	if best.Fairness == nil || best.Fairness.Spec.Name != "vegas" {
		t.Errorf("Expected vegas to be fairest, got %+v", best.Fairness)
	}
	if best.Stability == nil || best.Stability.Spec.Name != "vegas" {
		t.Errorf("Expected vegas to be most stable, got %+v", best.Stability)
	}
}

func TestFindBest_UndefinedNeverWins(t *testing.T) {
	best := FindBest([]model.TraceResult{result("reno", "", 1, 1, model.UndefinedStability)})
	if best.Stability != nil {
		t.Errorf("An undefined CoV must not win, got %+v", best.Stability)
	}
	if best.Goodput == nil {
		t.Errorf("Expected a goodput winner")
	}
	if b := FindBest(nil); b.Goodput != nil || b.Fairness != nil || b.Stability != nil {
		t.Errorf("Expected no winners for an empty batch, got %+v", b)
	}
}

func TestSummarizeGroups(t *testing.T) {
	groups := SummarizeGroups(sampleResults())
	if len(groups) != 2 || groups[0].Group != "DropTail" || groups[1].Group != "RED" {
		t.Fatalf("Unexpected groups: %+v", groups)
	}

	dt := groups[0]
	if dt.Traces != 3 || dt.Missing != 1 || dt.UndefinedCoV != 1 {
		t.Errorf("Unexpected DropTail counts: %+v", dt)
	}
	if dt.GoodputMbps != 4.0 {
		t.Errorf("Expected mean goodput 4.0, got %v", dt.GoodputMbps)
	}
	if cov, ok := dt.CoV.Value(); !ok || cov < 0.1999 || cov > 0.2001 {
		t.Errorf("Expected mean CoV 0.2 over defined values, got %v", dt.CoV)
	}

	red := groups[1]
	if red.Traces != 1 || red.GoodputMbps != 4.5 {
		t.Errorf("Unexpected RED summary: %+v", red)
	}
}

func TestWriteTables(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTables(&buf, sampleResults()); err != nil {
		t.Fatalf("WriteTables failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Table 1", "Table 2", "Table 3",
		"missing",
		"inf",
		"Highest goodput: CUBIC (DropTail) (5.00 Mbps)",
		"Most stable: VEGAS (DropTail) (CoV 0.1000)",
		"Group comparison",
		"1 not comparable",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Output does not contain %q:\n%s", want, out)
		}
	}
}
