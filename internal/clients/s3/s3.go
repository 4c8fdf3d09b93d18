// Copyright (c) Fluxline
// SPDX-License-Identifier: Apache-2.0

package s3

import (
	"context"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/fluxline/fanout/internal/env"
	"github.com/fluxline/fanout/pkg/errors"
)

var (
	errConfig      = errors.New("failed to load S3 client configuration from environment variable")
	errCredentials = errors.New("failed to load AWS credentials")
)

// Config holds object storage client settings. Endpoint is optional and
// allows pointing the client at an S3-compatible store.
type Config struct {
	Region         string `env:"REGION"           envDefault:"eu-west-1"`
	Bucket         string `env:"BUCKET"           envDefault:"telemetry-archive"`
	Endpoint       string `env:"ENDPOINT"         envDefault:""`
	ForcePathStyle bool   `env:"FORCE_PATH_STYLE" envDefault:"false"`
}

// Setup loads the client configuration from the environment and creates
// the S3 client. Credentials come from the default AWS provider chain.
func Setup(ctx context.Context, envPrefix string) (*s3.Client, Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, cfg, errors.Wrap(errConfig, err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, cfg, errors.Wrap(errCredentials, err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = &cfg.Endpoint
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	return client, cfg, nil
}
