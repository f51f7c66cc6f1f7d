package wire

import (
	"TraceSpectra/internal/model"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// Encode converts a result into a protobuf Struct. An undefined CoV becomes
// a null value.
func Encode(res model.TraceResult) (*structpb.Struct, error) {
	flows := make([]interface{}, 0, len(res.Flows))
	for _, f := range res.Flows {
		series := make([]interface{}, len(f.Throughput))
		for i, v := range f.Throughput {
			series[i] = v
		}
		flows = append(flows, map[string]interface{}{
			"label":          f.Label,
			"sent":           f.Sent,
			"received":       f.Received,
			"dropped":        f.Dropped,
			"received_bytes": f.ReceivedBytes,
			"throughput":     series,
		})
	}

	var cov interface{}
	if v, ok := res.Metrics.Stability.Value(); ok {
		cov = v
	}

	fields := map[string]interface{}{
		"trace":          res.Spec.Name,
		"group":          res.Spec.Group,
		"path":           res.Spec.Path,
		"format":         string(res.Spec.Format),
		"missing":        res.Missing,
		"lines":          res.Lines,
		"skipped":        res.Skipped,
		"goodput_mbps":   res.Metrics.GoodputMbps,
		"plr_percent":    res.Metrics.PacketLossRatePercent,
		"fairness_index": res.Metrics.FairnessIndex,
		"cov":            cov,
		"flows":          flows,
	}
	if !res.AnalyzedAt.IsZero() {
		fields["analyzed_at"] = res.AnalyzedAt.UTC().Format(time.RFC3339Nano)
	}

	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result %s: %w", res.Spec.Key(), err)
	}
	return s, nil
}

// Decode converts a Struct produced by Encode back into a result. Counters
// travel as JSON numbers and are exact below 2^53.
func Decode(s *structpb.Struct) (model.TraceResult, error) {
	var res model.TraceResult
	f := s.GetFields()

	res.Spec = model.TraceSpec{
		Name:   f["trace"].GetStringValue(),
		Group:  f["group"].GetStringValue(),
		Path:   f["path"].GetStringValue(),
		Format: model.TraceFormat(f["format"].GetStringValue()),
	}
	if res.Spec.Name == "" {
		return res, fmt.Errorf("result has no trace name")
	}
	res.Missing = f["missing"].GetBoolValue()
	res.Lines = uint64(f["lines"].GetNumberValue())
	res.Skipped = uint64(f["skipped"].GetNumberValue())
	res.Metrics.GoodputMbps = f["goodput_mbps"].GetNumberValue()
	res.Metrics.PacketLossRatePercent = f["plr_percent"].GetNumberValue()
	res.Metrics.FairnessIndex = f["fairness_index"].GetNumberValue()
	if v, ok := f["cov"].GetKind().(*structpb.Value_NumberValue); ok {
		res.Metrics.Stability = model.DefinedStability(v.NumberValue)
	}

	if ts := f["analyzed_at"].GetStringValue(); ts != "" {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return res, fmt.Errorf("invalid analyzed_at: %w", err)
		}
		res.AnalyzedAt = t
	}

	for i, v := range f["flows"].GetListValue().GetValues() {
		if i >= len(res.Flows) {
			break
		}
		ff := v.GetStructValue().GetFields()
		flow := model.FlowStats{
			Label:         ff["label"].GetStringValue(),
			Sent:          uint64(ff["sent"].GetNumberValue()),
			Received:      uint64(ff["received"].GetNumberValue()),
			Dropped:       uint64(ff["dropped"].GetNumberValue()),
			ReceivedBytes: uint64(ff["received_bytes"].GetNumberValue()),
		}
		for _, p := range ff["throughput"].GetListValue().GetValues() {
			flow.Throughput = append(flow.Throughput, p.GetNumberValue())
		}
		res.Flows[i] = flow
	}
	return res, nil
}
