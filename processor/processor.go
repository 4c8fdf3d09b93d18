// Copyright (c) Fluxline
// SPDX-License-Identifier: Apache-2.0

// Package processor contains the batch coordinator: it validates and
// normalizes queued telemetry envelopes, fans every valid record out to
// the time-series and archive sinks, and classifies each message so the
// queue's retry and dead-lettering mechanics operate correctly.
package processor

import (
	"context"
	"sync"
	"time"

	"github.com/fluxline/fanout/pkg/errors"
	"github.com/fluxline/fanout/pkg/messaging"
	"github.com/fluxline/fanout/pkg/telemetry"
)

// Sink failure classes. Writers wrap their backend errors with one of
// these so the coordinator can map them to queue outcomes.
var (
	// ErrTransient indicates a sink failure that may resolve on its own;
	// the whole message should be redelivered.
	ErrTransient = errors.New("transient sink failure")

	// ErrPermanent indicates a sink failure that will not self-resolve,
	// such as an authorization error or a rejected record shape.
	ErrPermanent = errors.New("permanent sink failure")
)

// TimeSeriesWriter appends the metric points of one record to durable
// time-series storage. Implementations must be safe for concurrent use
// and idempotent: writing the same record twice yields the same stored
// state as writing it once.
type TimeSeriesWriter interface {
	Write(ctx context.Context, rec telemetry.Record) error
}

// ArchiveWriter stores the original raw payload under a deterministic
// key for replay and audit. Implementations must be safe for concurrent
// use; overwriting a key with identical content is not an error.
type ArchiveWriter interface {
	Archive(ctx context.Context, rec telemetry.Record, key string, payload []byte) error
}

// Service specifies the batch processing API.
type Service interface {
	// Process runs the per-message pipeline for every message of the
	// batch independently and returns the classified outcome lists. It
	// never fails as a whole: one malformed message does not affect the
	// processing of the rest of the batch.
	Process(ctx context.Context, msgs []*messaging.Message) messaging.BatchResult
}

// Config holds processing limits.
type Config struct {
	// MaxWorkers caps the number of messages processed concurrently.
	MaxWorkers int `env:"WORKERS"          envDefault:"8"`

	// MessageTimeout bounds one per-message pipeline run.
	MessageTimeout time.Duration `env:"MESSAGE_TIMEOUT"  envDefault:"10s"`

	// MaxClockSkew bounds how far in the future a record timestamp may lie.
	MaxClockSkew time.Duration `env:"MAX_CLOCK_SKEW"   envDefault:"24h"`
}

const (
	defWorkers        = 8
	defMessageTimeout = 10 * time.Second
	defMaxClockSkew   = 24 * time.Hour
)

var _ Service = (*service)(nil)

type service struct {
	points  TimeSeriesWriter
	archive ArchiveWriter
	cfg     Config
}

// New returns a batch coordinator writing to the given sinks. The sink
// clients are shared across all workers and batches.
func New(points TimeSeriesWriter, archive ArchiveWriter, cfg Config) Service {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = defWorkers
	}
	if cfg.MessageTimeout <= 0 {
		cfg.MessageTimeout = defMessageTimeout
	}
	if cfg.MaxClockSkew <= 0 {
		cfg.MaxClockSkew = defMaxClockSkew
	}
	return &service{
		points:  points,
		archive: archive,
		cfg:     cfg,
	}
}

type outcome uint8

const (
	succeeded outcome = iota
	retryable
	failed
)

func (svc *service) Process(ctx context.Context, msgs []*messaging.Message) messaging.BatchResult {
	outcomes := make([]outcome, len(msgs))

	var wg sync.WaitGroup
	workers := make(chan struct{}, svc.cfg.MaxWorkers)
	for i := range msgs {
		wg.Add(1)
		workers <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-workers }()
			outcomes[i] = svc.handle(ctx, msgs[i])
		}(i)
	}
	wg.Wait()

	var res messaging.BatchResult
	for i, msg := range msgs {
		switch outcomes[i] {
		case succeeded:
			res.Succeeded = append(res.Succeeded, msg.ID)
		case retryable:
			res.Retryable = append(res.Retryable, msg.ID)
		case failed:
			res.Failed = append(res.Failed, msg.ID)
		}
	}
	return res
}

// handle runs the full pipeline for one message: parse, validate, derive
// the idempotency key and write both sinks. Parse and validation errors
// are permanent since the same content will fail again on redelivery.
func (svc *service) handle(ctx context.Context, msg *messaging.Message) outcome {
	rec, err := telemetry.Parse(msg)
	if err != nil {
		return failed
	}
	if err := telemetry.Validate(rec, svc.cfg.MaxClockSkew); err != nil {
		return failed
	}
	key := rec.IdempotencyKey()

	ctx, cancel := context.WithTimeout(ctx, svc.cfg.MessageTimeout)
	defer cancel()

	// The sinks are independent, so both writes run concurrently; the
	// message is done only once both have settled.
	tsCh := make(chan error, 1)
	arCh := make(chan error, 1)
	go func() {
		tsCh <- svc.points.Write(ctx, rec)
	}()
	go func() {
		arCh <- svc.archive.Archive(ctx, rec, key, msg.Payload)
	}()

	sinkErrs := make([]error, 0, 2)
	for i := 0; i < 2; i++ {
		select {
		case err := <-tsCh:
			sinkErrs = append(sinkErrs, err)
		case err := <-arCh:
			sinkErrs = append(sinkErrs, err)
		case <-ctx.Done():
			// Abandon in-flight writes: sink idempotency makes this safe,
			// a redelivery re-confirms or completes them.
			return classify(append(sinkErrs, ctx.Err())...)
		}
	}

	return classify(sinkErrs...)
}

// classify folds sink errors into a message outcome. A permanent failure
// on either sink dominates: redelivery would hit it again, so retrying
// the message cannot help.
func classify(errs ...error) outcome {
	out := succeeded
	for _, err := range errs {
		if err == nil {
			continue
		}
		if errors.Contains(err, ErrPermanent) {
			return failed
		}
		out = retryable
	}
	return out
}
