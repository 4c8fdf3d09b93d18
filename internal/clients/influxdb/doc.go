// Copyright (c) Fluxline
// SPDX-License-Identifier: Apache-2.0

// Package influxdb configures and connects the InfluxDB client used by
// the time-series writer.
package influxdb
