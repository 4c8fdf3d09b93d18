// Copyright (c) Fluxline
// SPDX-License-Identifier: Apache-2.0

// Package main contains fanout main function to start the telemetry
// fan-out service.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/fluxline/fanout/internal"
	influxclient "github.com/fluxline/fanout/internal/clients/influxdb"
	s3client "github.com/fluxline/fanout/internal/clients/s3"
	"github.com/fluxline/fanout/internal/env"
	"github.com/fluxline/fanout/internal/server"
	httpserver "github.com/fluxline/fanout/internal/server/http"
	fllog "github.com/fluxline/fanout/logger"
	"github.com/fluxline/fanout/pkg/messaging/nats"
	"github.com/fluxline/fanout/pkg/uuid"
	"github.com/fluxline/fanout/processor"
	"github.com/fluxline/fanout/processor/api"
	"github.com/fluxline/fanout/writers/influxdb"
	"github.com/fluxline/fanout/writers/s3"
)

const (
	svcName        = "telemetry-fanout"
	envPrefix      = "FL_FANOUT_"
	envPrefixHTTP  = "FL_FANOUT_HTTP_"
	envPrefixDB    = "FL_INFLUX_"
	envPrefixS3    = "FL_ARCHIVE_"
	defSvcHTTPPort = "9021"
)

type config struct {
	LogLevel   string `env:"FL_FANOUT_LOG_LEVEL"   envDefault:"info"`
	ConfigPath string `env:"FL_FANOUT_CONFIG_PATH" envDefault:"/config.toml"`
	BrokerURL  string `env:"FL_BROKER_URL"         envDefault:"nats://localhost:4222"`
	InstanceID string `env:"FL_FANOUT_INSTANCE_ID" envDefault:""`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	cfg := config{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to load %s service configuration : %s", svcName, err)
	}

	logger, err := fllog.New(os.Stdout, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}

	instanceID := cfg.InstanceID
	if instanceID == "" {
		instanceID, err = uuid.New().ID()
		if err != nil {
			log.Fatalf("failed to generate instanceID: %s", err)
		}
	}

	influxClient, influxCfg, err := influxclient.Setup(ctx, envPrefixDB)
	if err != nil {
		logger.Fatal(fmt.Sprintf("failed to set up InfluxDB client: %s", err))
	}
	defer influxClient.Close()

	archiveClient, archiveCfg, err := s3client.Setup(ctx, envPrefixS3)
	if err != nil {
		logger.Fatal(fmt.Sprintf("failed to set up archive client: %s", err))
	}

	procCfg := processor.Config{}
	if err := env.Parse(&procCfg, env.Options{Prefix: envPrefix}); err != nil {
		logger.Fatal(fmt.Sprintf("failed to load %s processing configuration : %s", svcName, err))
	}

	httpServerConfig := server.Config{Port: defSvcHTTPPort}
	if err := env.Parse(&httpServerConfig, env.Options{Prefix: envPrefixHTTP}); err != nil {
		logger.Fatal(fmt.Sprintf("failed to load %s HTTP server configuration : %s", svcName, err))
	}

	svc := newService(influxClient, influxCfg, archiveClient, archiveCfg, procCfg, logger)

	sub, err := nats.NewSubscriber(ctx, cfg.BrokerURL, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("failed to connect to message broker: %s", err))
	}
	defer sub.Close()

	if err := processor.Start(ctx, svcName, sub, svc, cfg.ConfigPath, logger); err != nil {
		logger.Fatal(fmt.Sprintf("failed to start %s service: %s", svcName, err))
	}

	hs := httpserver.New(ctx, cancel, svcName, httpServerConfig, api.MakeHandler(svcName, instanceID), logger)

	g.Go(func() error {
		return hs.Start()
	})

	g.Go(func() error {
		return server.StopSignalHandler(ctx, cancel, logger, svcName, hs)
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s service terminated: %s", svcName, err))
	}
}

func newService(influxClient influxdb2.Client, influxCfg influxclient.Config, archiveClient *awss3.Client, archiveCfg s3client.Config, procCfg processor.Config, logger fllog.Logger) processor.Service {
	points := influxdb.New(influxClient, influxdb.RepoConfig{
		Bucket: influxCfg.Bucket,
		Org:    influxCfg.Org,
	})
	archive := s3.New(archiveClient, archiveCfg.Bucket)

	svc := processor.New(points, archive, procCfg)
	svc = api.LoggingMiddleware(svc, logger)
	counter, latency := internal.MakeMetrics("fanout", "processor")
	outcomes := kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Namespace: "fanout",
		Subsystem: "processor",
		Name:      "messages_total",
		Help:      "Number of processed messages by outcome.",
	}, []string{"outcome"})
	svc = api.MetricsMiddleware(svc, counter, latency, outcomes)

	return svc
}
