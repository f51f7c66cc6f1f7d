package writer

import (
	"TraceSpectra/internal/config"
	"TraceSpectra/internal/model"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

const createTableStatement = `
CREATE TABLE IF NOT EXISTS trace_metrics (
    Timestamp     DateTime,
    Trace         String,
    TraceGroup    String,
    Path          String,
    Format        String,
    Missing       Bool,
    Lines         UInt64,
    Skipped       UInt64,
    Flow1Sent     UInt64,
    Flow1Received UInt64,
    Flow1Dropped  UInt64,
    Flow1Bytes    UInt64,
    Flow2Sent     UInt64,
    Flow2Received UInt64,
    Flow2Dropped  UInt64,
    Flow2Bytes    UInt64,
    GoodputMbps   Float64,
    PLRPercent    Float64,
    FairnessIndex Float64,
    CoV           Nullable(Float64)
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(Timestamp)
ORDER BY (TraceGroup, Trace, Timestamp);
`

// ClickHouseWriter implements the model.Writer interface for ClickHouse.
type ClickHouseWriter struct {
	conn driver.Conn
}

// NewClickHouseWriter connects and makes sure the trace_metrics table exists.
func NewClickHouseWriter(cfg config.ClickHouseConfig) (*ClickHouseWriter, error) {
	conn, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}

	if err := conn.Exec(context.Background(), createTableStatement); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	log.Println("Successfully connected to ClickHouse and ensured table exists.")

	return &ClickHouseWriter{conn: conn}, nil
}

func connect(cfg config.ClickHouseConfig) (driver.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
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

func (w *ClickHouseWriter) Name() string {
	return "clickhouse"
}

// Write inserts one row per trace into trace_metrics.
func (w *ClickHouseWriter) Write(ctx context.Context, results []model.TraceResult) error {
	if len(results) == 0 {
		return nil
	}

	batch, err := w.conn.PrepareBatch(ctx, "INSERT INTO trace_metrics")
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	for _, r := range results {
		if err := batch.Append(Row(r)...); err != nil {
			return fmt.Errorf("failed to append trace %s to batch: %w", r.Spec.Key(), err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}

	log.Printf("Wrote %d traces to ClickHouse", len(results))
	return nil
}

// Close releases the connection.
func (w *ClickHouseWriter) Close() error {
	return w.conn.Close()
}

// Row returns the column values of a result in trace_metrics order.
func Row(r model.TraceResult) []interface{} {
	ts := r.AnalyzedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	var cov *float64
	if v, ok := r.Metrics.Stability.Value(); ok {
		cov = &v
	}
	f1, f2 := r.Flows[0], r.Flows[1]
	return []interface{}{
		ts.UTC(),
		r.Spec.Name,
		r.Spec.Group,
		r.Spec.Path,
		string(r.Spec.Format),
		r.Missing,
		r.Lines,
		r.Skipped,
		f1.Sent, f1.Received, f1.Dropped, f1.ReceivedBytes,
		f2.Sent, f2.Received, f2.Dropped, f2.ReceivedBytes,
		r.Metrics.GoodputMbps,
		r.Metrics.PacketLossRatePercent,
		r.Metrics.FairnessIndex,
		cov,
	}
}
