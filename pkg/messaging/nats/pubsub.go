// Copyright (c) Fluxline
// SPDX-License-Identifier: Apache-2.0

package nats

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	broker "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/fluxline/fanout/logger"
	"github.com/fluxline/fanout/pkg/messaging"
)

const (
	maxReconnects = -1
	fetchMaxWait  = 5 * time.Second
	ackWait       = 30 * time.Second
)

// Subscriber errors.
var (
	ErrNotSubscribed = errors.New("not subscribed")
	ErrEmptyTopic    = errors.New("empty topic")
	ErrEmptyID       = errors.New("empty id")

	jsStreamConfig = jetstream.StreamConfig{
		Name:        "telemetry",
		Description: "Fluxline stream for ingesting device telemetry envelopes",
		Subjects:    []string{"devices.>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      time.Hour * 24 * 7,
		MaxMsgSize:  1024 * 1024,
		Discard:     jetstream.DiscardOld,
		Storage:     jetstream.FileStorage,
	}
)

var _ messaging.Subscriber = (*subscriber)(nil)

type subscriber struct {
	conn   *broker.Conn
	js     jetstream.JetStream
	stream jetstream.Stream
	logger logger.Logger
}

// NewSubscriber returns a NATS JetStream batch subscriber. JetStream
// acknowledgment semantics carry the queue's retry mechanics: Ack removes
// a message, Nak schedules redelivery, Term stops redelivery so that
// max-deliver advisories can feed a dead-letter destination.
func NewSubscriber(ctx context.Context, url string, logger logger.Logger) (messaging.Subscriber, error) {
	conn, err := broker.Connect(url, broker.MaxReconnects(maxReconnects))
	if err != nil {
		return nil, err
	}
	js, err := jetstream.New(conn)
	if err != nil {
		return nil, err
	}
	stream, err := js.CreateStream(ctx, jsStreamConfig)
	if err != nil {
		return nil, err
	}

	return &subscriber{
		conn:   conn,
		js:     js,
		stream: stream,
		logger: logger,
	}, nil
}

func (ps *subscriber) Subscribe(ctx context.Context, cfg messaging.SubscriberConfig) error {
	if cfg.ID == "" {
		return ErrEmptyID
	}
	if cfg.Topic == "" {
		return ErrEmptyTopic
	}

	consumerConfig := jetstream.ConsumerConfig{
		Name:          formatConsumerName(cfg.Topic, cfg.ID),
		Durable:       formatConsumerName(cfg.Topic, cfg.ID),
		Description:   fmt.Sprintf("Fluxline consumer of id %s for topic %s", cfg.ID, cfg.Topic),
		FilterSubject: cfg.Topic,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       ackWait,
		MaxDeliver:    cfg.MaxDeliver,
		DeliverPolicy: jetstream.DeliverNewPolicy,
	}
	if cfg.DeliveryPolicy == messaging.DeliverAllPolicy {
		consumerConfig.DeliverPolicy = jetstream.DeliverAllPolicy
	}

	consumer, err := ps.stream.CreateOrUpdateConsumer(ctx, consumerConfig)
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	go ps.fetchLoop(ctx, consumer, cfg)

	return nil
}

func (ps *subscriber) Unsubscribe(ctx context.Context, id, topic string) error {
	if id == "" {
		return ErrEmptyID
	}
	if topic == "" {
		return ErrEmptyTopic
	}

	err := ps.stream.DeleteConsumer(ctx, formatConsumerName(topic, id))
	switch {
	case errors.Is(err, jetstream.ErrConsumerNotFound):
		return ErrNotSubscribed
	default:
		return err
	}
}

func (ps *subscriber) Close() error {
	ps.conn.Close()
	return nil
}

// fetchLoop pulls bounded batches and feeds classification decisions back
// to the stream. Retryable messages are negatively acknowledged so the
// broker redelivers them up to the consumer's MaxDeliver ceiling.
func (ps *subscriber) fetchLoop(ctx context.Context, consumer jetstream.Consumer, cfg messaging.SubscriberConfig) {
	for {
		select {
		case <-ctx.Done():
			if err := cfg.Handler.Cancel(); err != nil {
				ps.logger.Warn(fmt.Sprintf("Failed to cancel handler for topic %s: %s", cfg.Topic, err))
			}
			return
		default:
		}

		batch, err := consumer.Fetch(cfg.BatchSize, jetstream.FetchMaxWait(fetchMaxWait))
		if err != nil {
			ps.logger.Warn(fmt.Sprintf("Failed to fetch batch for topic %s: %s", cfg.Topic, err))
			continue
		}

		var msgs []*messaging.Message
		delivered := make(map[string]jetstream.Msg)
		for m := range batch.Messages() {
			msg, err := wrap(m)
			if err != nil {
				ps.logger.Warn(fmt.Sprintf("Failed to read message metadata: %s", err))
				continue
			}
			msgs = append(msgs, msg)
			delivered[msg.ID] = m
		}
		if err := batch.Error(); err != nil {
			ps.logger.Warn(fmt.Sprintf("Batch fetch for topic %s ended with error: %s", cfg.Topic, err))
		}
		if len(msgs) == 0 {
			continue
		}

		res := cfg.Handler.Handle(ctx, msgs)
		ps.settle(delivered, res)
	}
}

func (ps *subscriber) settle(delivered map[string]jetstream.Msg, res messaging.BatchResult) {
	for _, id := range res.Succeeded {
		if m, ok := delivered[id]; ok {
			if err := m.Ack(); err != nil {
				ps.logger.Warn(fmt.Sprintf("Failed to ack message %s: %s", id, err))
			}
		}
	}
	for _, id := range res.Failed {
		if m, ok := delivered[id]; ok {
			if err := m.Term(); err != nil {
				ps.logger.Warn(fmt.Sprintf("Failed to terminate message %s: %s", id, err))
			}
		}
	}
	for _, id := range res.Retryable {
		if m, ok := delivered[id]; ok {
			if err := m.Nak(); err != nil {
				ps.logger.Warn(fmt.Sprintf("Failed to nak message %s: %s", id, err))
			}
		}
	}
}

func wrap(m jetstream.Msg) (*messaging.Message, error) {
	meta, err := m.Metadata()
	if err != nil {
		return nil, err
	}
	return &messaging.Message{
		ID:           strconv.FormatUint(meta.Sequence.Stream, 10),
		Topic:        m.Subject(),
		Payload:      m.Data(),
		ReceiveCount: meta.NumDelivered,
		Published:    meta.Timestamp,
	}, nil
}

func formatConsumerName(topic, id string) string {
	// A durable name cannot contain whitespace, ., *, >, path separators
	// (forward or backward slash), and non-printable characters.
	chars := []string{
		" ", "_",
		".", "_",
		"*", "_",
		">", "_",
		"/", "_",
		"\\", "_",
	}
	topic = strings.NewReplacer(chars...).Replace(topic)

	return fmt.Sprintf("%s-%s", topic, id)
}
