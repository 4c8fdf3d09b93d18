// Copyright (c) Fluxline
// SPDX-License-Identifier: Apache-2.0

//go:build !test

package api

import (
	"context"
	"fmt"
	"time"

	log "github.com/fluxline/fanout/logger"
	"github.com/fluxline/fanout/pkg/messaging"
	"github.com/fluxline/fanout/processor"
)

var _ processor.Service = (*loggingMiddleware)(nil)

type loggingMiddleware struct {
	logger log.Logger
	svc    processor.Service
}

// LoggingMiddleware adds logging facilities to the batch coordinator.
func LoggingMiddleware(svc processor.Service, logger log.Logger) processor.Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}

func (lm *loggingMiddleware) Process(ctx context.Context, msgs []*messaging.Message) (res messaging.BatchResult) {
	defer func(begin time.Time) {
		message := fmt.Sprintf("Method process took %s to complete for batch of %d messages", time.Since(begin), len(msgs))
		if len(res.Retryable) > 0 || len(res.Failed) > 0 {
			lm.logger.Warn(fmt.Sprintf("%s: %d succeeded, %d retryable, %d permanently failed.", message, len(res.Succeeded), len(res.Retryable), len(res.Failed)))
			return
		}
		lm.logger.Info(fmt.Sprintf("%s without errors.", message))
	}(time.Now())

	return lm.svc.Process(ctx, msgs)
}
