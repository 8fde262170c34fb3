// Package kafka provides the event bus of the Tender-Intelligence platform:
// document submission and extraction lifecycle events flow through the topics
// defined here, produced by the API server and consumed by the extraction
// worker.
package kafka

import (
	"context"
	"time"
)

// Message is a consumed Kafka message in transport-neutral form.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Timestamp time.Time
	Headers   map[string]string
}

// ProducerMessage is a message to be published.
type ProducerMessage struct {
	Topic     string
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// MessageHandler processes one consumed message. A non-nil error triggers the
// consumer's retry ladder and, when exhausted, the dead-letter queue.
type MessageHandler func(ctx context.Context, msg *Message) error

// TopicConfig describes a topic to be created by the TopicManager.
type TopicConfig struct {
	Name              string
	NumPartitions     int
	ReplicationFactor int
	RetentionMs       int64
}

//Personal.AI order the ending
