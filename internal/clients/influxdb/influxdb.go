// Copyright (c) Fluxline
// SPDX-License-Identifier: Apache-2.0

package influxdb

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"

	"github.com/fluxline/fanout/internal/env"
	"github.com/fluxline/fanout/pkg/errors"
)

var (
	errConnect = errors.New("failed to connect to InfluxDB server")
	errConfig  = errors.New("failed to load InfluxDB client configuration from environment variable")
)

// Config holds InfluxDB client settings.
type Config struct {
	Protocol       string        `env:"PROTOCOL"         envDefault:"http"`
	Host           string        `env:"HOST"             envDefault:"localhost"`
	Port           string        `env:"PORT"             envDefault:"8086"`
	Bucket         string        `env:"BUCKET"           envDefault:"telemetry"`
	Org            string        `env:"ORG"              envDefault:"fluxline"`
	Token          string        `env:"TOKEN"            envDefault:""`
	Timeout        time.Duration `env:"TIMEOUT"          envDefault:"5s"`
	MaxConnectTime time.Duration `env:"MAX_CONNECT_TIME" envDefault:"30s"`
}

// Setup loads the client configuration from the environment and connects
// to the InfluxDB server.
func Setup(ctx context.Context, envPrefix string) (influxdb2.Client, Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, cfg, errors.Wrap(errConfig, err)
	}
	client, err := Connect(ctx, cfg)
	return client, cfg, err
}

// Connect creates an InfluxDB client and waits for the server to become
// ready, retrying with exponential backoff up to MaxConnectTime.
func Connect(ctx context.Context, cfg Config) (influxdb2.Client, error) {
	addr := fmt.Sprintf("%s://%s:%s", cfg.Protocol, cfg.Host, cfg.Port)
	client := influxdb2.NewClient(addr, cfg.Token)

	ready := func() error {
		ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
		_, err := client.Ready(ctx)
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = cfg.MaxConnectTime
	if err := backoff.Retry(ready, backoff.WithContext(bo, ctx)); err != nil {
		client.Close()
		return nil, errors.Wrap(errConnect, err)
	}

	return client, nil
}
