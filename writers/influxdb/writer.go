// Copyright (c) Fluxline
// SPDX-License-Identifier: Apache-2.0

// Package influxdb provides the time-series sink: one point per metric,
// keyed by device, metric name and timestamp.
package influxdb

import (
	"context"
	"net/http"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	influxhttp "github.com/influxdata/influxdb-client-go/v2/api/http"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/fluxline/fanout/pkg/errors"
	"github.com/fluxline/fanout/pkg/telemetry"
	"github.com/fluxline/fanout/processor"
)

const (
	measurement = "telemetry"

	// Points are written in bounded chunks to stay under the write API
	// request limits.
	chunkSize = 100
)

var errSavePoints = errors.New("failed to save points to InfluxDB")

// RepoConfig holds the InfluxDB destination settings.
type RepoConfig struct {
	Bucket string
	Org    string
}

var _ processor.TimeSeriesWriter = (*influxRepo)(nil)

type influxRepo struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	cfg      RepoConfig
}

// New returns an InfluxDB time-series writer. Writes are idempotent:
// a point with an existing series key and timestamp replaces the stored
// value, so redelivered records converge to the same state.
func New(client influxdb2.Client, cfg RepoConfig) processor.TimeSeriesWriter {
	return &influxRepo{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		cfg:      cfg,
	}
}

func (repo *influxRepo) Write(ctx context.Context, rec telemetry.Record) error {
	ts := time.UnixMilli(rec.Timestamp)
	pts := make([]*write.Point, 0, len(rec.Metrics))
	for name, val := range rec.Metrics {
		tags := map[string]string{
			"device_id": rec.DeviceID,
			"metric":    name,
		}
		flds := map[string]interface{}{
			"value": val,
		}
		pts = append(pts, influxdb2.NewPoint(measurement, tags, flds, ts))
	}

	for i := 0; i < len(pts); i += chunkSize {
		end := i + chunkSize
		if end > len(pts) {
			end = len(pts)
		}
		if err := repo.writeAPI.WritePoint(ctx, pts[i:end]...); err != nil {
			return classify(errors.Wrap(errSavePoints, err), err)
		}
	}

	return nil
}

// classify maps a write error to the coordinator's failure classes.
// Server-side overload and network failures may recover, so they are
// transient; any other backend rejection means the points themselves are
// unacceptable to the store.
func classify(wrapped, err error) error {
	if herr, ok := err.(*influxhttp.Error); ok {
		switch {
		case herr.StatusCode == http.StatusTooManyRequests || herr.StatusCode >= http.StatusInternalServerError:
			return errors.Wrap(processor.ErrTransient, wrapped)
		default:
			return errors.Wrap(processor.ErrPermanent, wrapped)
		}
	}

	return errors.Wrap(processor.ErrTransient, wrapped)
}
