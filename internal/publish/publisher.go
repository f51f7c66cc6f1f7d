package publish

import (
	"TraceSpectra/internal/config"
	"TraceSpectra/internal/model"
	"TraceSpectra/internal/wire"
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"google.golang.org/protobuf/proto"
)

// Publisher streams analyzed results to NATS. It implements model.Writer
// so the manager can treat it like any other sink.
type Publisher struct {
	nc      *nats.Conn
	subject string
}

// NewPublisher creates a new NATS publisher.
func NewPublisher(cfg config.PublisherConfig) (*Publisher, error) {
	nc, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to NATS server at %s", cfg.URL)
	return &Publisher{nc: nc, subject: cfg.Subject}, nil
}

const flushTimeout = 5 * time.Second

var tokenReplacer = strings.NewReplacer(".", "_", " ", "_", "*", "_", ">", "_")

// Subject returns the subject a result is published on:
// <base>.<group>.<name>, with "default" for an empty group.
func Subject(base string, spec model.TraceSpec) string {
	group := spec.Group
	if group == "" {
		group = "default"
	}
	return base + "." + tokenReplacer.Replace(group) + "." + tokenReplacer.Replace(spec.Name)
}

// Publish serializes a result to Protobuf and publishes it.
func (p *Publisher) Publish(res model.TraceResult) error {
	s, err := wire.Encode(res)
	if err != nil {
		return err
	}
	data, err := proto.Marshal(s)
	if err != nil {
		return err
	}
	return p.nc.Publish(Subject(p.subject, res.Spec), data)
}

func (p *Publisher) Name() string {
	return "nats"
}

// Write publishes every result of a batch and flushes the connection.
func (p *Publisher) Write(_ context.Context, results []model.TraceResult) error {
	for _, res := range results {
		if err := p.Publish(res); err != nil {
			return fmt.Errorf("failed to publish %s: %w", res.Spec.Key(), err)
		}
	}
	if err := p.nc.FlushTimeout(flushTimeout); err != nil {
		return fmt.Errorf("failed to flush NATS connection: %w", err)
	}
	log.Printf("Published %d results to '%s.>'", len(results), p.subject)
	return nil
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
		log.Println("NATS connection drained and closed.")
	}
}
