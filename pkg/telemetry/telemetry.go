// Copyright (c) Fluxline
// SPDX-License-Identifier: Apache-2.0

// Package telemetry contains the normalized telemetry record together
// with the parsing and validation rules applied at the queue boundary.
package telemetry

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"

	"github.com/fluxline/fanout/pkg/errors"
)

// Parsing and validation errors. All of them are permanent: the same
// message content will fail the same way on redelivery.
var (
	// ErrMalformedBody indicates a message body that cannot be decoded.
	ErrMalformedBody = errors.New("failed to decode message body")

	// ErrMissingField indicates an absent required body field.
	ErrMissingField = errors.New("required field missing from message body")

	// ErrInvalidDevice indicates a missing or empty device identifier.
	ErrInvalidDevice = errors.New("missing or invalid device identifier")

	// ErrInvalidTimestamp indicates a non-positive or excessively future timestamp.
	ErrInvalidTimestamp = errors.New("record timestamp out of range")

	// ErrInvalidMetric indicates an empty metric set or a non-finite metric value.
	ErrInvalidMetric = errors.New("invalid metric value")
)

// Record is one normalized telemetry reading. It is derived once from a
// raw message and never mutated afterwards; the metric map is owned
// exclusively by the record.
type Record struct {
	// DeviceID identifies the reporting device.
	DeviceID string

	// Timestamp is the reading time in milliseconds since Unix epoch.
	Timestamp int64

	// Metrics maps metric names to their numeric values.
	Metrics map[string]float64

	// Status is an optional free-text device status tag.
	Status string
}

// IdempotencyKey derives a deterministic identifier from the record
// content. Repeated delivery of the same message yields the same key, so
// both sinks converge to a single stored state under redelivery. The
// metric hash is computed over name=value pairs in sorted name order.
func (r Record) IdempotencyKey() string {
	names := make([]string, 0, len(r.Metrics))
	for name := range r.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	h := sha256.New()
	for _, name := range names {
		fmt.Fprintf(h, "%s=%s\n", name, strconv.FormatFloat(r.Metrics[name], 'g', -1, 64))
	}

	return fmt.Sprintf("%s-%d-%s", r.DeviceID, r.Timestamp, hex.EncodeToString(h.Sum(nil)[:8]))
}
