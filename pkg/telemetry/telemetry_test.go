// Copyright (c) Fluxline
// SPDX-License-Identifier: Apache-2.0

package telemetry_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fluxline/fanout/pkg/telemetry"
)

func TestIdempotencyKey(t *testing.T) {
	rec := telemetry.Record{
		DeviceID:  "sensor-1",
		Timestamp: 1717910400000,
		Metrics:   map[string]float64{"temp": 23.4, "humidity": 65.2, "voltage": 230.5},
	}

	key := rec.IdempotencyKey()
	assert.True(t, strings.HasPrefix(key, "sensor-1-1717910400000-"), "key must embed device id and timestamp")

	// The key is deterministic regardless of metric map iteration order.
	same := telemetry.Record{
		DeviceID:  "sensor-1",
		Timestamp: 1717910400000,
		Metrics:   map[string]float64{"voltage": 230.5, "humidity": 65.2, "temp": 23.4},
	}
	assert.Equal(t, key, same.IdempotencyKey())
}

func TestIdempotencyKeyDistinguishesContent(t *testing.T) {
	base := telemetry.Record{
		DeviceID:  "sensor-1",
		Timestamp: 1717910400000,
		Metrics:   map[string]float64{"temp": 23.4},
	}

	differentValue := base
	differentValue.Metrics = map[string]float64{"temp": 23.5}
	assert.NotEqual(t, base.IdempotencyKey(), differentValue.IdempotencyKey())

	differentDevice := base
	differentDevice.DeviceID = "sensor-2"
	assert.NotEqual(t, base.IdempotencyKey(), differentDevice.IdempotencyKey())

	differentTime := base
	differentTime.Timestamp = 1717910400001
	assert.NotEqual(t, base.IdempotencyKey(), differentTime.IdempotencyKey())
}
