package reducer

import (
	"TraceSpectra/internal/model"
	"math"
)

// DefaultStartFraction discards the first two thirds of each throughput
// series so fairness and stability are measured after convergence.
const DefaultStartFraction = 2.0 / 3.0

// minStabilitySamples is the smallest pool with a meaningful spread.
const minStabilitySamples = 2

// Params configures a reduction. All values come from the caller; nothing
// is read from package state.
type Params struct {
	// Protocol is the transport token kept by the classifier, e.g. "tcp".
	Protocol string
	// SimDuration is the total observation window in seconds used for goodput.
	SimDuration float64
	// StartFraction is the share of leading samples discarded before the
	// fairness and stability windows.
	StartFraction float64
}

// DefaultParams returns the parameters of a 100 s tcp experiment.
func DefaultParams() Params {
	return Params{Protocol: "tcp", SimDuration: 100, StartFraction: DefaultStartFraction}
}

// Reduce computes the four comparison metrics from the two flows.
func Reduce(f1, f2 model.FlowStats, p Params) model.MetricResult {
	return model.MetricResult{
		GoodputMbps:           Goodput(f1, f2, p.SimDuration),
		PacketLossRatePercent: PacketLossRate(f1, f2),
		FairnessIndex:         Fairness(f1.Throughput, f2.Throughput, p.StartFraction),
		Stability:             Stability(f1.Throughput, f2.Throughput, p.StartFraction),
	}
}

// Goodput returns the aggregate received rate in Mbps over a fixed duration.
// A non-positive duration yields 0.
func Goodput(f1, f2 model.FlowStats, durationSeconds float64) float64 {
	if durationSeconds <= 0 {
		return 0
	}
	bits := float64(f1.ReceivedBytes+f2.ReceivedBytes) * 8
	return bits / (durationSeconds * 1e6)
}

// PacketLossRate returns dropped/sent in percent. With nothing sent the rate
// is 0, meaning "no data" rather than "no loss". The value is not clamped.
func PacketLossRate(f1, f2 model.FlowStats) float64 {
	sent := f1.Sent + f2.Sent
	if sent == 0 {
		return 0
	}
	dropped := f1.Dropped + f2.Dropped
	return float64(dropped) / float64(sent) * 100
}

// Fairness returns Jain's index over the mean trailing-window throughput of
// the two flows. It is 0 when either flow has no samples in its window.
func Fairness(s1, s2 []float64, startFraction float64) float64 {
	if len(s1) == 0 || len(s2) == 0 {
		return 0
	}
	w1 := TrailingWindow(s1, startFraction)
	w2 := TrailingWindow(s2, startFraction)
	if len(w1) == 0 || len(w2) == 0 {
		return 0
	}
	return JainIndex(mean(w1), mean(w2))
}

// JainIndex computes (sum x)^2 / (n * sum x^2), 0 when all values are zero.
func JainIndex(values ...float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum, sumSq float64
	for _, x := range values {
		sum += x
		sumSq += x * x
	}
	if sumSq == 0 {
		return 0
	}
	return (sum * sum) / (float64(len(values)) * sumSq)
}

// Stability returns the coefficient of variation of the pooled trailing
// windows of both flows. It is undefined when fewer than two samples are
// pooled or the pooled mean is zero.
func Stability(s1, s2 []float64, startFraction float64) model.Stability {
	if len(s1) == 0 && len(s2) == 0 {
		return model.UndefinedStability
	}

	w1 := TrailingWindow(s1, startFraction)
	w2 := TrailingWindow(s2, startFraction)
	pooled := make([]float64, 0, len(w1)+len(w2))
	pooled = append(pooled, w1...)
	pooled = append(pooled, w2...)
	if len(pooled) < minStabilitySamples {
		return model.UndefinedStability
	}

	m, sd := meanStdDev(pooled)
	if m > 0 {
		return model.DefinedStability(sd / m)
	}
	return model.UndefinedStability
}

// TrailingWindow drops the first int(len*startFraction) samples.
func TrailingWindow(series []float64, startFraction float64) []float64 {
	start := int(float64(len(series)) * startFraction)
	if start < 0 {
		start = 0
	}
	if start > len(series) {
		start = len(series)
	}
	return series[start:]
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// meanStdDev returns the mean and the population standard deviation.
func meanStdDev(values []float64) (float64, float64) {
	m := mean(values)
	var sumSq float64
	for _, v := range values {
		d := v - m
		sumSq += d * d
	}
	return m, math.Sqrt(sumSq / float64(len(values)))
}
