package source

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/whoknowsbruh3425/BDA/pkg/logger"
	"github.com/whoknowsbruh3425/BDA/pkg/record"
)

// messageReader is the part of kafka.Reader a drain needs
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// partitionReader reads one partition between two offsets, end exclusive
type partitionReader struct {
	id     int
	reader messageReader
	start  int64
	end    int64
}

// KafkaSource rebuilds the player collection from a topic. Each Load drains
// every partition from its first offset up to the high watermark seen when
// the load started.
type KafkaSource struct {
	brokers []string
	topic   string
	logger  *logger.Logger
	open    func(ctx context.Context) ([]partitionReader, error)
}

// NewKafkaSource creates a source reading topic from brokers
func NewKafkaSource(brokers []string, topic string, l *logger.Logger) *KafkaSource {
	s := &KafkaSource{brokers: brokers, topic: topic, logger: l}
	s.open = s.openPartitions
	return s
}

// Name identifies the source in logs and reports
func (s *KafkaSource) Name() string { return "kafka:" + s.topic }

// Load drains the topic and returns the replayed player documents.
// Messages that cannot be decoded are logged and skipped.
func (s *KafkaSource) Load(ctx context.Context) ([]record.Player, error) {
	parts, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		for _, p := range parts {
			_ = p.reader.Close()
		}
	}()

	r := newReplay()
	skipped := 0
	for _, p := range parts {
		for offset := p.start; offset < p.end; {
			msg, err := p.reader.ReadMessage(ctx)
			if err != nil {
				return nil, fmt.Errorf("read partition %d at offset %d: %w", p.id, offset, err)
			}
			offset = msg.Offset + 1

			if err := r.apply(msg.Value); err != nil {
				skipped++
				s.logger.Warn("skipping malformed message",
					zap.Int("partition", p.id),
					zap.Int64("offset", msg.Offset),
					zap.Error(err))
			}
		}
	}

	players := r.players()
	s.logger.Debug("replayed player topic",
		zap.String("topic", s.topic),
		zap.Int("partitions", len(parts)),
		zap.Int("players", len(players)),
		zap.Int("skipped", skipped))

	if len(players) == 0 {
		return nil, ErrNoRecords
	}
	return players, nil
}

// openPartitions looks up every partition leader and positions a reader at
// the partition's first offset
func (s *KafkaSource) openPartitions(ctx context.Context) ([]partitionReader, error) {
	if len(s.brokers) == 0 {
		return nil, fmt.Errorf("kafka source %s has no brokers", s.topic)
	}

	conn, err := kafka.DialContext(ctx, "tcp", s.brokers[0])
	if err != nil {
		return nil, fmt.Errorf("dial kafka: %w", err)
	}
	partitions, err := conn.ReadPartitions(s.topic)
	conn.Close()
	if err != nil {
		return nil, fmt.Errorf("read partitions of %s: %w", s.topic, err)
	}

	var out []partitionReader
	closeAll := func() {
		for _, p := range out {
			_ = p.reader.Close()
		}
	}

	for _, part := range partitions {
		addr := net.JoinHostPort(part.Leader.Host, strconv.Itoa(part.Leader.Port))
		leader, err := kafka.DialLeader(ctx, "tcp", addr, s.topic, part.ID)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("dial leader of partition %d: %w", part.ID, err)
		}
		first, last, err := leader.ReadOffsets()
		leader.Close()
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("read offsets of partition %d: %w", part.ID, err)
		}
		if first >= last {
			continue
		}

		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:   s.brokers,
			Topic:     s.topic,
			Partition: part.ID,
			MinBytes:  1,
			MaxBytes:  10e6, // 10MB
		})
		if err := reader.SetOffset(first); err != nil {
			reader.Close()
			closeAll()
			return nil, fmt.Errorf("seek partition %d: %w", part.ID, err)
		}
		out = append(out, partitionReader{id: part.ID, reader: reader, start: first, end: last})
	}
	return out, nil
}
