// Copyright (c) Fluxline
// SPDX-License-Identifier: Apache-2.0

// Package messaging defines the queue-facing contract of the processor:
// raw messages delivered in bounded batches and per-message outcome
// classification fed back to the queue runtime.
package messaging

import (
	"context"
	"time"
)

// DeliveryPolicy determines where in the stream a new consumer starts.
type DeliveryPolicy uint8

const (
	// DeliverNewPolicy will only deliver messages that are sent after the
	// consumer is created. This is the default policy.
	DeliverNewPolicy DeliveryPolicy = iota

	// DeliverAllPolicy starts delivering messages from the very beginning
	// of a stream.
	DeliverAllPolicy
)

// Message is one queued telemetry envelope as delivered by the transport.
// The payload is opaque to the queue; delivery metadata is owned by the
// queue and only read by the processor.
type Message struct {
	// ID uniquely identifies the message within its delivery batch.
	ID string

	// Topic is the routing subject the message was published on.
	Topic string

	// Payload is the raw message body.
	Payload []byte

	// ReceiveCount is the number of times the message has been delivered,
	// including the current delivery.
	ReceiveCount uint64

	// Published is the time the message entered the stream.
	Published time.Time
}

// BatchResult classifies every message of one processed batch by outcome.
// Succeeded and Failed messages are acknowledged by the queue runtime
// (Failed ones are dead-lettered); Retryable messages are left for
// redelivery.
type BatchResult struct {
	Succeeded []string
	Retryable []string
	Failed    []string
}

// BatchHandler processes batches passed by the underlying implementation.
type BatchHandler interface {
	// Handle classifies every message of the batch. It never fails as a
	// whole: per-message failures are reported through the result.
	Handle(ctx context.Context, msgs []*Message) BatchResult

	// Cancel is used for cleanup during unsubscribing and it's optional.
	Cancel() error
}

// SubscriberConfig holds the settings of one batch subscription.
type SubscriberConfig struct {
	ID             string
	Topic          string
	BatchSize      int
	MaxDeliver     int
	Handler        BatchHandler
	DeliveryPolicy DeliveryPolicy
}

// Subscriber specifies batch message consumption API.
type Subscriber interface {
	// Subscribe subscribes to the message stream and starts consuming
	// batches in the background.
	Subscribe(ctx context.Context, cfg SubscriberConfig) error

	// Unsubscribe unsubscribes from the message stream and stops
	// consuming messages.
	Unsubscribe(ctx context.Context, id, topic string) error

	// Close gracefully closes the message subscriber's connection.
	Close() error
}
