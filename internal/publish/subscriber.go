package publish

import (
	"TraceSpectra/internal/config"
	"TraceSpectra/internal/model"
	"TraceSpectra/internal/wire"
	"log"

	"github.com/nats-io/nats.go"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ResultHandler is a function that processes a received result.
type ResultHandler func(res model.TraceResult)

// Subscriber receives results published by a Publisher.
type Subscriber struct {
	nc      *nats.Conn
	sub     *nats.Subscription
	subject string
}

// NewSubscriber creates a new NATS subscriber for every result under the
// configured base subject.
func NewSubscriber(cfg config.PublisherConfig) (*Subscriber, error) {
	nc, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to NATS server at %s", cfg.URL)
	return &Subscriber{nc: nc, subject: cfg.Subject + ".>"}, nil
}

// Decode unmarshals a message payload into a result.
func Decode(data []byte) (model.TraceResult, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return model.TraceResult{}, err
	}
	return wire.Decode(&s)
}

// Start subscribes and hands every decoded result to handler.
func (s *Subscriber) Start(handler ResultHandler) error {
	sub, err := s.nc.Subscribe(s.subject, func(msg *nats.Msg) {
		res, err := Decode(msg.Data)
		if err != nil {
			log.Printf("Error decoding result on %s: %v", msg.Subject, err)
			return
		}
		handler(res)
	})
	if err != nil {
		return err
	}
	s.sub = sub
	log.Printf("Subscribed to '%s'. Waiting for results...", s.subject)
	return nil
}

// Close unsubscribes and closes the NATS connection.
func (s *Subscriber) Close() {
	if s.sub != nil {
		s.sub.Unsubscribe()
	}
	if s.nc != nil {
		s.nc.Close()
		log.Println("NATS connection closed.")
	}
}
