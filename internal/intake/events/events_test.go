package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kickoff/internal/intake/models"
	"kickoff/internal/platform/kafka/producer"
)

func sampleEvent() models.SubmissionEvent {
	return models.SubmissionEvent{
		ID:           "0b8e7c1e-3f4a-4d0b-9a57-6f1f7a2b9c10",
		FormID:       "FORM123",
		Token:        "tok_01HX9Q",
		ItemID:       "42",
		EmailSent:    true,
		UnmappedRefs: []string{},
		SubmittedAt:  time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
		OccurredAt:   time.Date(2026, 3, 14, 10, 30, 1, 0, time.UTC),
	}
}

type fakeProducer struct {
	mu       sync.Mutex
	messages []*producer.Message
	err      error
}

func (f *fakeProducer) Produce(_ context.Context, msg *producer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	return f.err
}

func TestKafkaPublisher(t *testing.T) {
	t.Run("encodes event keyed by form id", func(t *testing.T) {
		fake := &fakeProducer{}
		pub := NewKafkaPublisher(fake, "")

		require.NoError(t, pub.Publish(context.Background(), sampleEvent()))

		require.Len(t, fake.messages, 1)
		msg := fake.messages[0]
		assert.Equal(t, DefaultTopic, msg.Topic)
		assert.Equal(t, []byte("FORM123"), msg.Key)
		assert.Equal(t, "form.submission.recorded", msg.Headers["event_type"])

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(msg.Value, &decoded))
		assert.Equal(t, "42", decoded["item_id"])
		assert.Equal(t, true, decoded["email_sent"])
		assert.Equal(t, []any{}, decoded["unmapped_refs"])
	})

	t.Run("returns producer errors", func(t *testing.T) {
		fake := &fakeProducer{err: errors.New("not enough replicas")}
		pub := NewKafkaPublisher(fake, "custom.topic")

		err := pub.Publish(context.Background(), sampleEvent())
		require.Error(t, err)
		assert.Equal(t, "custom.topic", fake.messages[0].Topic)
	})
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	pub := NewLogPublisher(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, pub.Publish(context.Background(), sampleEvent()))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "audit", entry["log_type"])
	assert.Equal(t, "FORM123", entry["form_id"])
	assert.Equal(t, "42", entry["item_id"])
}

type failingSink struct{}

func (failingSink) Publish(context.Context, models.SubmissionEvent) error {
	return errors.New("sink down")
}

func TestAsyncPublisher(t *testing.T) {
	t.Run("delivers queued events before close returns", func(t *testing.T) {
		sink := NewInMemory()
		pub := NewAsync(sink, 16)

		for range 5 {
			require.NoError(t, pub.Publish(context.Background(), sampleEvent()))
		}
		pub.Close()
		pub.Close()

		assert.Len(t, sink.Events(), 5)
	})

	t.Run("sink errors are logged not returned", func(t *testing.T) {
		var buf bytes.Buffer
		pub := NewAsync(failingSink{}, 1, WithAsyncLogger(slog.New(slog.NewTextHandler(&buf, nil))))

		require.NoError(t, pub.Publish(context.Background(), sampleEvent()))
		pub.Close()

		assert.Contains(t, buf.String(), "failed to deliver submission event")
	})

	t.Run("publish after close returns ErrClosed", func(t *testing.T) {
		sink := NewInMemory()
		pub := NewAsync(sink, 4)
		pub.Close()

		var err error
		require.NotPanics(t, func() {
			err = pub.Publish(context.Background(), sampleEvent())
		})
		assert.ErrorIs(t, err, ErrClosed)
		assert.Empty(t, sink.Events())
	})

	t.Run("publish racing close never panics", func(t *testing.T) {
		pub := NewAsync(NewInMemory(), 8)

		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range 50 {
					err := pub.Publish(context.Background(), sampleEvent())
					if err != nil {
						assert.ErrorIs(t, err, ErrClosed)
					}
				}
			}()
		}
		pub.Close()
		wg.Wait()
	})
}
