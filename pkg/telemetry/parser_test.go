// Copyright (c) Fluxline
// SPDX-License-Identifier: Apache-2.0

package telemetry_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxline/fanout/pkg/errors"
	"github.com/fluxline/fanout/pkg/messaging"
	"github.com/fluxline/fanout/pkg/telemetry"
)

const exampleBody = `{"ts": 1717910400000, "temp": 23.4, "humidity": 65.2, "voltage": 230.5, "device_status": "online"}`

func message(topic, body string) *messaging.Message {
	return &messaging.Message{
		ID:      "1",
		Topic:   topic,
		Payload: []byte(body),
	}
}

func TestParse(t *testing.T) {
	cases := []struct {
		desc   string
		topic  string
		body   string
		record telemetry.Record
		err    error
	}{
		{
			desc:  "example body with device from routing topic",
			topic: "devices.sensor-1.data",
			body:  exampleBody,
			record: telemetry.Record{
				DeviceID:  "sensor-1",
				Timestamp: 1717910400000,
				Metrics:   map[string]float64{"temp": 23.4, "humidity": 65.2, "voltage": 230.5},
				Status:    "online",
			},
		},
		{
			desc:  "slash-separated routing topic",
			topic: "devices/sensor-2/data",
			body:  `{"ts": 1717910400000, "temp": 23.4}`,
			record: telemetry.Record{
				DeviceID:  "sensor-2",
				Timestamp: 1717910400000,
				Metrics:   map[string]float64{"temp": 23.4},
			},
		},
		{
			desc:  "device id from body when topic is not device scoped",
			topic: "telemetry.ingest",
			body:  `{"ts": 1717910400000, "temp": 23.4, "device_id": "sensor-3"}`,
			record: telemetry.Record{
				DeviceID:  "sensor-3",
				Timestamp: 1717910400000,
				Metrics:   map[string]float64{"temp": 23.4},
			},
		},
		{
			desc:  "missing device id yields empty identifier",
			topic: "telemetry.ingest",
			body:  `{"ts": 1717910400000, "temp": 23.4}`,
			record: telemetry.Record{
				Timestamp: 1717910400000,
				Metrics:   map[string]float64{"temp": 23.4},
			},
		},
		{
			desc:  "event_time accepted as timestamp field",
			topic: "devices.sensor-1.data",
			body:  `{"event_time": 1717910400000, "temp": 23.4}`,
			record: telemetry.Record{
				DeviceID:  "sensor-1",
				Timestamp: 1717910400000,
				Metrics:   map[string]float64{"temp": 23.4},
			},
		},
		{
			desc:  "unknown non-numeric fields are ignored",
			topic: "devices.sensor-1.data",
			body:  `{"ts": 1717910400000, "temp": 23.4, "firmware": "v2", "tags": ["a"], "nested": {"x": 1}}`,
			record: telemetry.Record{
				DeviceID:  "sensor-1",
				Timestamp: 1717910400000,
				Metrics:   map[string]float64{"temp": 23.4},
			},
		},
		{
			desc:  "malformed body",
			topic: "devices.sensor-1.data",
			body:  `{"ts": 1717910400000,`,
			err:   telemetry.ErrMalformedBody,
		},
		{
			desc:  "non-object body",
			topic: "devices.sensor-1.data",
			body:  `[1, 2, 3]`,
			err:   telemetry.ErrMalformedBody,
		},
		{
			desc:  "missing timestamp field",
			topic: "devices.sensor-1.data",
			body:  `{"temp": 23.4}`,
			err:   telemetry.ErrMissingField,
		},
		{
			desc:  "no numeric metric fields",
			topic: "devices.sensor-1.data",
			body:  `{"ts": 1717910400000, "device_status": "online"}`,
			err:   telemetry.ErrMissingField,
		},
	}

	for _, tc := range cases {
		rec, err := telemetry.Parse(message(tc.topic, tc.body))
		if tc.err != nil {
			assert.True(t, errors.Contains(err, tc.err), fmt.Sprintf("%s: expected error %s got %s", tc.desc, tc.err, err))
			continue
		}
		require.Nil(t, err, fmt.Sprintf("%s: unexpected error %s", tc.desc, err))
		assert.Equal(t, tc.record, rec, fmt.Sprintf("%s: expected %v got %v", tc.desc, tc.record, rec))
	}
}
