// Copyright (c) Fluxline
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"math"
	"time"

	"github.com/fluxline/fanout/pkg/errors"
)

// Validate checks the structural and semantic constraints of a record.
// maxSkew bounds how far in the future a timestamp may lie, guarding
// against devices with drifting clocks. Validate is pure and returns the
// first violated constraint.
func Validate(rec Record, maxSkew time.Duration) error {
	if rec.DeviceID == "" {
		return ErrInvalidDevice
	}

	if rec.Timestamp <= 0 {
		return ErrInvalidTimestamp
	}
	if rec.Timestamp > time.Now().Add(maxSkew).UnixMilli() {
		return ErrInvalidTimestamp
	}

	if len(rec.Metrics) == 0 {
		return ErrInvalidMetric
	}
	for name, val := range rec.Metrics {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return errors.Wrap(ErrInvalidMetric, errors.New(name))
		}
	}

	return nil
}
