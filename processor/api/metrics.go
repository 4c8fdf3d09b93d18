// Copyright (c) Fluxline
// SPDX-License-Identifier: Apache-2.0

//go:build !test

package api

import (
	"context"
	"time"

	"github.com/go-kit/kit/metrics"

	"github.com/fluxline/fanout/pkg/messaging"
	"github.com/fluxline/fanout/processor"
)

var _ processor.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter  metrics.Counter
	latency  metrics.Histogram
	outcomes metrics.Counter
	svc      processor.Service
}

// MetricsMiddleware returns a batch coordinator wrapped to expose
// request metrics and per-outcome message counts.
func MetricsMiddleware(svc processor.Service, counter metrics.Counter, latency metrics.Histogram, outcomes metrics.Counter) processor.Service {
	return &metricsMiddleware{
		counter:  counter,
		latency:  latency,
		outcomes: outcomes,
		svc:      svc,
	}
}

func (mm *metricsMiddleware) Process(ctx context.Context, msgs []*messaging.Message) messaging.BatchResult {
	defer func(begin time.Time) {
		mm.counter.With("method", "process").Add(1)
		mm.latency.With("method", "process").Observe(time.Since(begin).Seconds())
	}(time.Now())

	res := mm.svc.Process(ctx, msgs)

	mm.outcomes.With("outcome", "succeeded").Add(float64(len(res.Succeeded)))
	mm.outcomes.With("outcome", "retryable").Add(float64(len(res.Retryable)))
	mm.outcomes.With("outcome", "failed").Add(float64(len(res.Failed)))

	return res
}
