// Copyright (c) Fluxline
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"encoding/json"
	"strings"

	"github.com/fluxline/fanout/pkg/errors"
	"github.com/fluxline/fanout/pkg/messaging"
)

const (
	tsField        = "ts"
	eventTimeField = "event_time"
	deviceField    = "device_id"
	statusField    = "device_status"
	topicField     = "source_topic"

	devicePrefix = "devices"
)

// reserved names never become metrics.
var reserved = map[string]bool{
	tsField:        true,
	eventTimeField: true,
	deviceField:    true,
	statusField:    true,
	topicField:     true,
}

// Parse decodes a raw message body into a normalized telemetry record.
// The body is a JSON object; unknown non-numeric fields are ignored for
// forward compatibility. The device identifier is taken from the routing
// topic when available, falling back to the device_id body field. Parse
// is pure: it never touches the sinks and leaves the message unchanged.
func Parse(msg *messaging.Message) (Record, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return Record{}, errors.Wrap(ErrMalformedBody, err)
	}

	ts, ok := timestamp(payload)
	if !ok {
		return Record{}, errors.Wrap(ErrMissingField, errors.New(tsField))
	}

	metrics := make(map[string]float64)
	for name, val := range payload {
		if reserved[name] {
			continue
		}
		if v, ok := val.(float64); ok {
			metrics[name] = v
		}
	}
	if len(metrics) == 0 {
		return Record{}, errors.Wrap(ErrMissingField, errors.New("metrics"))
	}

	rec := Record{
		DeviceID:  deviceID(msg.Topic, payload),
		Timestamp: ts,
		Metrics:   metrics,
	}
	if status, ok := payload[statusField].(string); ok {
		rec.Status = status
	}

	return rec, nil
}

// timestamp reads the reading time in milliseconds, accepting event_time
// as an alternative field name for older device firmware.
func timestamp(payload map[string]interface{}) (int64, bool) {
	for _, field := range []string{eventTimeField, tsField} {
		if v, ok := payload[field].(float64); ok {
			return int64(v), true
		}
	}
	return 0, false
}

// deviceID extracts the device identifier from the routing topic,
// expected as devices/{device_id}/... (or the dotted broker equivalent),
// with the body device_id field as fallback.
func deviceID(topic string, payload map[string]interface{}) string {
	parts := strings.FieldsFunc(topic, func(r rune) bool {
		return r == '/' || r == '.'
	})
	if len(parts) >= 2 && parts[0] == devicePrefix {
		return parts[1]
	}

	if id, ok := payload[deviceField].(string); ok {
		return id
	}

	return ""
}
