package publisher

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"

	"github.com/whoknowsbruh3425/BDA/pkg/metrics"
	"github.com/whoknowsbruh3425/BDA/pkg/report"
)

// EventType marks report messages on the topic
const EventType = "report.generated"

// Event is the message value published for every report
type Event struct {
	Type        string         `json:"type"`
	ReportID    string         `json:"report_id"`
	Scenario    string         `json:"scenario"`
	GeneratedAt time.Time      `json:"generated_at"`
	Report      *report.Report `json:"report"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Config holds Kafka publisher configuration
type Config struct {
	Brokers []string
	Topic   string
}

// KafkaPublisher publishes reports to Kafka keyed by scenario, so every
// scenario's history lands on one partition in order
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher creates a new KafkaPublisher instance
func NewKafkaPublisher(cfg Config) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

// WriteBatch publishes the reports and waits for delivery
func (p *KafkaPublisher) WriteBatch(ctx context.Context, reports []*report.Report) error {
	if len(reports) == 0 {
		return nil
	}

	msgs, err := Messages(reports)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		metrics.SinkErrorsTotal.WithLabelValues("kafka").Inc()
		return fmt.Errorf("failed to publish reports: %w", err)
	}

	metrics.ReportsPublishedTotal.Add(float64(len(msgs)))
	return nil
}

// Messages encodes reports as Kafka messages
func Messages(reports []*report.Report) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, len(reports))
	for i, r := range reports {
		value, err := json.Marshal(Event{
			Type:        EventType,
			ReportID:    r.ID,
			Scenario:    r.Scenario,
			GeneratedAt: r.GeneratedAt,
			Report:      r,
		})
		if err != nil {
			return nil, fmt.Errorf("encode report %s: %w", r.ID, err)
		}
		msgs[i] = kafka.Message{
			Key:   []byte(r.Scenario),
			Value: value,
			Time:  r.GeneratedAt,
			Headers: []kafka.Header{
				{Key: "content-type", Value: []byte("application/json")},
				{Key: "event-type", Value: []byte(EventType)},
			},
		}
	}
	return msgs, nil
}

// Close gracefully shuts down the publisher
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
