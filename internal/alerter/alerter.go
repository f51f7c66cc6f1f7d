package alerter

import (
	"TraceSpectra/internal/config"
	"TraceSpectra/internal/model"
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/gomarkdown/markdown"
)

// Alert is a rule that fired on one trace.
type Alert struct {
	Rule  config.AlerterRule
	Trace string
	Value float64
}

// Markdown renders the alert as a list item.
func (a Alert) Markdown() string {
	return fmt.Sprintf("- **%s**: %s %s = %s (threshold %s %s)",
		a.Rule.Name, a.Trace, a.Rule.Metric, formatMetric(a.Rule.Metric, a.Value),
		a.Rule.Operator, formatMetric(a.Rule.Metric, a.Rule.Threshold))
}

// Evaluation is the outcome of checking a batch against the rules.
type Evaluation struct {
	Alerts []Alert
	// NotComparable lists "<rule>: <trace>" pairs whose CoV was undefined.
	NotComparable []string
}

// Alerter checks every batch of results against threshold rules and sends
// a consolidated notification when any of them fire. It implements
// model.Writer.
type Alerter struct {
	rules    []config.AlerterRule
	notifier model.Notifier
	analyzer model.Analyzer
}

// NewAlerter creates a new Alerter. analyzer may be nil.
func NewAlerter(cfg *config.AlerterConfig, notifier model.Notifier, analyzer model.Analyzer) *Alerter {
	return &Alerter{
		rules:    cfg.Rules,
		notifier: notifier,
		analyzer: analyzer,
	}
}

func (a *Alerter) Name() string {
	return "alerter"
}

// Evaluate applies every rule to every matching trace. Missing traces are
// never evaluated.
func (a *Alerter) Evaluate(results []model.TraceResult) Evaluation {
	var ev Evaluation
	for _, rule := range a.rules {
		for _, r := range results {
			if r.Missing || !matches(rule, r.Spec) {
				continue
			}
			value, ok := metricValue(rule.Metric, r.Metrics)
			if !ok {
				ev.NotComparable = append(ev.NotComparable, rule.Name+": "+r.Spec.Key())
				continue
			}
			if check(value, rule.Threshold, rule.Operator) {
				ev.Alerts = append(ev.Alerts, Alert{Rule: rule, Trace: r.Spec.Key(), Value: value})
			}
		}
	}
	return ev
}

// Write evaluates the batch and notifies when at least one rule fired.
func (a *Alerter) Write(ctx context.Context, results []model.TraceResult) error {
	ev := a.Evaluate(results)
	if len(ev.Alerts) == 0 {
		return nil
	}
	log.Printf("Alerter evaluation completed. %d alert(s) triggered.", len(ev.Alerts))

	md := BuildMessage(ev)
	if a.analyzer != nil {
		log.Println("Requesting AI analysis for alert summary...")
		analysis, err := a.analyzer.AnalyzeResults(ctx, md)
		if err != nil {
			log.Printf("Failed to get AI analysis: %v", err)
		} else if analysis != "" {
			md += "\n\n## AI-Powered Analysis\n\n" + analysis
		}
	}

	if a.notifier == nil {
		return nil
	}
	subject := fmt.Sprintf("TraceSpectra Alert Summary (%d Triggered)", len(ev.Alerts))
	body := string(markdown.ToHTML([]byte(md), nil, nil))
	if err := a.notifier.Send(subject, body); err != nil {
		return fmt.Errorf("failed to send alert notification: %w", err)
	}
	log.Printf("Consolidated alert notification sent successfully.")
	return nil
}

// BuildMessage renders an evaluation as markdown.
func BuildMessage(ev Evaluation) string {
	var sb strings.Builder
	sb.WriteString("# TraceSpectra Alert Summary\n\n")
	sb.WriteString("The following rules were triggered by the last batch:\n\n")
	for _, al := range ev.Alerts {
		sb.WriteString(al.Markdown())
		sb.WriteString("\n")
	}
	if len(ev.NotComparable) > 0 {
		sb.WriteString("\nNot comparable (stability undefined):\n\n")
		for _, nc := range ev.NotComparable {
			sb.WriteString("- " + nc + "\n")
		}
	}
	return sb.String()
}

func matches(rule config.AlerterRule, spec model.TraceSpec) bool {
	return rule.Trace == "" || rule.Trace == "*" || rule.Trace == spec.Key()
}

// metricValue returns false for an undefined CoV.
func metricValue(metric string, m model.MetricResult) (float64, bool) {
	switch metric {
	case "goodput":
		return m.GoodputMbps, true
	case "plr":
		return m.PacketLossRatePercent, true
	case "fairness":
		return m.FairnessIndex, true
	case "cov":
		return m.Stability.Value()
	}
	return 0, false
}

func check(value, threshold float64, operator string) bool {
	switch operator {
	case ">":
		return value > threshold
	case "<":
		return value < threshold
	case "=":
		return value == threshold
	case ">=":
		return value >= threshold
	case "<=":
		return value <= threshold
	}
	return false
}

func formatMetric(metric string, v float64) string {
	if metric == "goodput" {
		return fmt.Sprintf("%.2f", v)
	}
	return fmt.Sprintf("%.4f", v)
}
