package query

import (
	"TraceSpectra/internal/config"
	"TraceSpectra/internal/model"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

const selectColumns = `
		SELECT
			Timestamp, Trace, TraceGroup, Path, Format, Missing, Lines, Skipped,
			Flow1Sent, Flow1Received, Flow1Dropped, Flow1Bytes,
			Flow2Sent, Flow2Received, Flow2Dropped, Flow2Bytes,
			GoodputMbps, PLRPercent, FairnessIndex, CoV
		FROM trace_metrics
`

// clickhouseQuerier implements the Querier interface for ClickHouse.
type clickhouseQuerier struct {
	conn clickhouse.Conn
}

// NewClickHouseQuerier creates a new querier for ClickHouse.
func NewClickHouseQuerier(cfg config.ClickHouseConfig) (Querier, error) {
	conn, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}
	return &clickhouseQuerier{conn: conn}, nil
}

func connect(cfg config.ClickHouseConfig) (clickhouse.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})

	if err != nil {
		return nil, err
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	return conn, nil
}

// buildQuery returns the statement selecting the latest row per trace,
// optionally restricted to one trace.
func buildQuery(name, group string) (string, []interface{}) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(selectColumns)

	var whereClauses []string
	args := []interface{}{}
	if name != "" {
		whereClauses = append(whereClauses, "Trace = ?")
		args = append(args, name)
	}
	if group != "" {
		whereClauses = append(whereClauses, "TraceGroup = ?")
		args = append(args, group)
	}
	if len(whereClauses) > 0 {
		queryBuilder.WriteString("		WHERE " + strings.Join(whereClauses, " AND ") + "\n")
	}

	queryBuilder.WriteString("		ORDER BY TraceGroup, Trace, Timestamp DESC\n")
	queryBuilder.WriteString("		LIMIT 1 BY TraceGroup, Trace")
	return queryBuilder.String(), args
}

func (q *clickhouseQuerier) query(ctx context.Context, name, group string) ([]model.TraceResult, error) {
	stmt, args := buildQuery(name, group)
	rows, err := q.conn.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var results []model.TraceResult
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

func scanResult(rows driver.Rows) (model.TraceResult, error) {
	var (
		res    model.TraceResult
		ts     time.Time
		format string
		cov    *float64
		f1, f2 = &res.Flows[0], &res.Flows[1]
	)
	err := rows.Scan(
		&ts, &res.Spec.Name, &res.Spec.Group, &res.Spec.Path, &format, &res.Missing, &res.Lines, &res.Skipped,
		&f1.Sent, &f1.Received, &f1.Dropped, &f1.ReceivedBytes,
		&f2.Sent, &f2.Received, &f2.Dropped, &f2.ReceivedBytes,
		&res.Metrics.GoodputMbps, &res.Metrics.PacketLossRatePercent, &res.Metrics.FairnessIndex, &cov,
	)
	if err != nil {
		return res, err
	}
	res.Spec.Format = model.TraceFormat(format)
	res.AnalyzedAt = ts
	f1.Label, f2.Label = "Flow 1", "Flow 2"
	if cov != nil {
		res.Metrics.Stability = model.DefinedStability(*cov)
	}
	return res, nil
}

func (q *clickhouseQuerier) ListResults(ctx context.Context) ([]model.TraceResult, error) {
	return q.query(ctx, "", "")
}

func (q *clickhouseQuerier) GetResult(ctx context.Context, name, group string) (*model.TraceResult, error) {
	results, err := q.query(ctx, name, group)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, model.TraceSpec{Name: name, Group: group}.Key())
	}
	return &results[0], nil
}
