package writer

import (
	"TraceSpectra/internal/config"
	"TraceSpectra/internal/factory"
	"TraceSpectra/internal/model"
)

func init() {
	factory.RegisterWriter("csv", func(def config.WriterDef) (model.Writer, error) {
		return NewCSVWriter(def.CSV.Path)
	})
	factory.RegisterWriter("text", func(def config.WriterDef) (model.Writer, error) {
		return NewTextWriter(def.Text.Path), nil
	})
	factory.RegisterWriter("gob", func(def config.WriterDef) (model.Writer, error) {
		return NewGobWriter(def.Gob.RootPath)
	})
	factory.RegisterWriter("clickhouse", func(def config.WriterDef) (model.Writer, error) {
		return NewClickHouseWriter(def.ClickHouse)
	})
}
