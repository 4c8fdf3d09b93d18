// Copyright (c) Fluxline
// SPDX-License-Identifier: Apache-2.0

// Package mocks contains in-memory sink doubles for coordinator tests.
package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fluxline/fanout/pkg/telemetry"
	"github.com/fluxline/fanout/processor"
)

var _ processor.TimeSeriesWriter = (*TimeSeriesWriter)(nil)

// TimeSeriesWriter is an in-memory time-series sink. Errors are injected
// per device id; the stored state mirrors the real sink's point identity
// of (device, metric, timestamp).
type TimeSeriesWriter struct {
	mu     sync.Mutex
	errs   map[string]error
	delay  time.Duration
	points map[string]float64
	writes int
}

// NewTimeSeriesWriter returns a time-series sink double that fails with
// the configured error for matching device ids and delays each write by
// the given duration.
func NewTimeSeriesWriter(errs map[string]error, delay time.Duration) *TimeSeriesWriter {
	return &TimeSeriesWriter{
		errs:   errs,
		delay:  delay,
		points: make(map[string]float64),
	}
}

func (w *TimeSeriesWriter) Write(ctx context.Context, rec telemetry.Record) error {
	if w.delay > 0 {
		select {
		case <-time.After(w.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.writes++
	if err := w.errs[rec.DeviceID]; err != nil {
		return err
	}
	for name, val := range rec.Metrics {
		w.points[fmt.Sprintf("%s/%s/%d", rec.DeviceID, name, rec.Timestamp)] = val
	}
	return nil
}

// PointCount returns the number of distinct stored points.
func (w *TimeSeriesWriter) PointCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.points)
}

// WriteCount returns the number of Write invocations.
func (w *TimeSeriesWriter) WriteCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writes
}

var _ processor.ArchiveWriter = (*ArchiveWriter)(nil)

// ArchiveWriter is an in-memory archive sink keyed by idempotency key.
type ArchiveWriter struct {
	mu      sync.Mutex
	errs    map[string]error
	delay   time.Duration
	objects map[string][]byte
}

// NewArchiveWriter returns an archive sink double that fails with the
// configured error for matching device ids and delays each write by the
// given duration.
func NewArchiveWriter(errs map[string]error, delay time.Duration) *ArchiveWriter {
	return &ArchiveWriter{
		errs:    errs,
		delay:   delay,
		objects: make(map[string][]byte),
	}
}

func (w *ArchiveWriter) Archive(ctx context.Context, rec telemetry.Record, key string, payload []byte) error {
	if w.delay > 0 {
		select {
		case <-time.After(w.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.errs[rec.DeviceID]; err != nil {
		return err
	}
	w.objects[key] = payload
	return nil
}

// ObjectCount returns the number of distinct stored objects.
func (w *ArchiveWriter) ObjectCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.objects)
}

// Object returns the stored payload for the given key.
func (w *ArchiveWriter) Object(key string) ([]byte, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	payload, ok := w.objects[key]
	return payload, ok
}
