package kafka

import (
	"context"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/Tender-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/Tender-Intelligence/pkg/errors"
)

type fakeWriter struct {
	messages []kafkago.Message
	err      error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error               { return nil }
func (w *fakeWriter) Stats() kafkago.WriterStats { return kafkago.WriterStats{} }

func TestEventEnvelope_Roundtrip(t *testing.T) {
	t.Parallel()

	payload := DocumentSubmittedPayload{
		DocumentID:  "doc-42",
		ObjectKey:   "documents/doc-42.txt",
		SubmittedAt: time.Date(2024, 11, 2, 10, 0, 0, 0, time.UTC),
	}
	env, err := NewEventEnvelope("document.submitted", "apiserver", payload)
	require.NoError(t, err)
	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, "v1", env.SchemaVersion)

	msg, err := env.ToMessage(TopicDocumentSubmitted, "doc-42")
	require.NoError(t, err)
	assert.Equal(t, TopicDocumentSubmitted, msg.Topic)
	assert.Equal(t, []byte("doc-42"), msg.Key)
	assert.Equal(t, "document.submitted", msg.Headers["event_type"])

	decoded, err := DecodeEnvelope(&Message{Topic: msg.Topic, Value: msg.Value})
	require.NoError(t, err)
	assert.Equal(t, env.EventID, decoded.EventID)

	var out DocumentSubmittedPayload
	require.NoError(t, decoded.DecodePayload(&out))
	assert.Equal(t, payload, out)
}

func TestDecodeEnvelope_EmptyValue(t *testing.T) {
	t.Parallel()

	_, err := DecodeEnvelope(&Message{Topic: TopicDocumentSubmitted})
	assert.Error(t, err)
}

func TestProducer_Publish(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{}
	p := NewProducerWithWriter(w, logging.NewNopLogger())

	err := p.Publish(context.Background(), &ProducerMessage{
		Topic: TopicExtractionCompleted,
		Key:   []byte("doc-1"),
		Value: []byte(`{"ok":true}`),
	})
	require.NoError(t, err)
	require.Len(t, w.messages, 1)
	assert.Equal(t, TopicExtractionCompleted, w.messages[0].Topic)

	sent, failed, bytes := p.Metrics()
	assert.Equal(t, int64(1), sent)
	assert.Equal(t, int64(0), failed)
	assert.Equal(t, int64(11), bytes)
}

func TestProducer_PublishValidation(t *testing.T) {
	t.Parallel()

	p := NewProducerWithWriter(&fakeWriter{}, logging.NewNopLogger())

	assert.Error(t, p.Publish(context.Background(), &ProducerMessage{Value: []byte("x")}))
	assert.Error(t, p.Publish(context.Background(), &ProducerMessage{Topic: "t"}))
}

func TestProducer_ClosedRejectsPublish(t *testing.T) {
	t.Parallel()

	p := NewProducerWithWriter(&fakeWriter{}, logging.NewNopLogger())
	require.NoError(t, p.Close())

	err := p.Publish(context.Background(), &ProducerMessage{Topic: "t", Value: []byte("x")})
	assert.ErrorIs(t, err, ErrProducerClosed)
}

func TestProcessMessage_RetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	c := NewConsumerWithReader(nil, RetryConfig{
		MaxRetries:   3,
		RetryBackoff: time.Millisecond,
	}, logging.NewNopLogger())

	attempts := 0
	handler := func(_ context.Context, _ *Message) error {
		attempts++
		if attempts < 3 {
			return errors.Internal("transient")
		}
		return nil
	}

	err := c.processMessage(context.Background(), &Message{Topic: "t"}, handler)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, int64(2), c.metrics.MessagesRetried.Load())
}

func TestProcessMessage_DeadLettersAfterExhaustion(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{}
	c := NewConsumerWithReader(nil, RetryConfig{
		MaxRetries:      2,
		RetryBackoff:    time.Millisecond,
		DeadLetterTopic: TopicDeadLetter,
	}, logging.NewNopLogger())
	c.deadLetterProducer = NewProducerWithWriter(w, logging.NewNopLogger())

	handler := func(_ context.Context, _ *Message) error {
		return errors.Internal("permanent")
	}

	msg := &Message{Topic: TopicDocumentSubmitted, Key: []byte("doc-9"), Value: []byte("body")}
	err := c.processMessage(context.Background(), msg, handler)
	assert.Error(t, err)

	require.Len(t, w.messages, 1)
	assert.Equal(t, TopicDeadLetter, w.messages[0].Topic)
	assert.Equal(t, int64(1), c.metrics.MessagesDeadLettered.Load())

	headers := make(map[string]string)
	for _, h := range w.messages[0].Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, TopicDocumentSubmitted, headers["original_topic"])
	assert.NotEmpty(t, headers["error_message"])
}

func TestDefaultTopics(t *testing.T) {
	t.Parallel()

	topics := DefaultTopics(0, 0)
	require.Len(t, topics, 4)
	names := make(map[string]TopicConfig, len(topics))
	for _, tc := range topics {
		names[tc.Name] = tc
	}
	assert.Contains(t, names, TopicDocumentSubmitted)
	assert.Contains(t, names, TopicExtractionCompleted)
	assert.Contains(t, names, TopicExtractionFailed)
	assert.Equal(t, 3, names[TopicDocumentSubmitted].NumPartitions)
	assert.Equal(t, 1, names[TopicDeadLetter].NumPartitions)
}

//Personal.AI order the ending
