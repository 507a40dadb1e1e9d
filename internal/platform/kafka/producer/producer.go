// Package producer publishes small JSON events to Kafka with franz-go and
// waits for the broker acknowledgement.
package producer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

const (
	DefaultClientID     = "kickoff"
	DefaultFlushTimeout = 10 * time.Second
)

// ErrClosed is returned by Produce and Check after Close.
var ErrClosed = errors.New("kafka producer is closed")

// Message is one record to publish. Headers are written in key order.
type Message struct {
	Topic   string
	Key     []byte
	Value   []byte
	Headers map[string]string
}

type Config struct {
	Brokers         string // comma-separated host:port list
	ClientID        string
	Acks            string // "0", "1" or "all" (default)
	Retries         int
	DeliveryTimeout time.Duration
	FlushTimeout    time.Duration
}

type Producer struct {
	client       *kgo.Client
	logger       *slog.Logger
	flushTimeout time.Duration

	mu     sync.RWMutex
	closed bool
}

// New builds the client without dialing; Check contacts the brokers.
func New(cfg Config, logger *slog.Logger) (*Producer, error) {
	brokers := splitBrokers(cfg.Brokers)
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers not configured")
	}
	if logger == nil {
		logger = slog.Default()
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = DefaultClientID
	}
	opts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.ClientID(clientID),
		kgo.RequiredAcks(acks(cfg.Acks)),
		kgo.ProducerLinger(5 * time.Millisecond),
		kgo.AllowAutoTopicCreation(),
	}
	if cfg.Retries > 0 {
		opts = append(opts, kgo.RecordRetries(cfg.Retries))
	}
	if cfg.Acks == "0" || cfg.Acks == "1" {
		// Idempotent writes require acks=all.
		opts = append(opts, kgo.DisableIdempotentWrite())
	}
	if cfg.DeliveryTimeout > 0 {
		opts = append(opts, kgo.RecordDeliveryTimeout(cfg.DeliveryTimeout))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	flush := cfg.FlushTimeout
	if flush <= 0 {
		flush = DefaultFlushTimeout
	}
	return &Producer{client: client, logger: logger, flushTimeout: flush}, nil
}

func acks(raw string) kgo.Acks {
	switch raw {
	case "0":
		return kgo.NoAck()
	case "1":
		return kgo.LeaderAck()
	default:
		return kgo.AllISRAcks()
	}
}

func splitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func toRecord(msg *Message) *kgo.Record {
	rec := &kgo.Record{Topic: msg.Topic, Key: msg.Key, Value: msg.Value}
	for _, k := range slices.Sorted(maps.Keys(msg.Headers)) {
		rec.Headers = append(rec.Headers, kgo.RecordHeader{Key: k, Value: []byte(msg.Headers[k])})
	}
	return rec
}

// Produce publishes msg and blocks until the broker acknowledges it or ctx ends.
func (p *Producer) Produce(ctx context.Context, msg *Message) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	if err := p.client.ProduceSync(ctx, toRecord(msg)).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", msg.Topic, err)
	}
	return nil
}

// Close flushes buffered records and shuts the client down. Calling it again is a no-op.
func (p *Producer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), p.flushTimeout)
	defer cancel()
	if err := p.client.Flush(ctx); err != nil {
		p.logger.Warn("kafka producer closed with unflushed messages", "error", err)
	}
	p.client.Close()
	return nil
}

// Check pings the brokers, for use as a readiness check.
func (p *Producer) Check(ctx context.Context) error {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	if err := p.client.Ping(ctx); err != nil {
		return fmt.Errorf("ping kafka: %w", err)
	}
	return nil
}
