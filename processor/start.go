// Copyright (c) Fluxline
// SPDX-License-Identifier: Apache-2.0

package processor

import (
	"context"
	"fmt"
	"os"

	"github.com/pelletier/go-toml"

	"github.com/fluxline/fanout/logger"
	"github.com/fluxline/fanout/pkg/errors"
	"github.com/fluxline/fanout/pkg/messaging"
)

const (
	defSubject    = "devices.>"
	defBatchSize  = 10
	defMaxDeliver = 5
)

var (
	errOpenConfFile  = errors.New("unable to open configuration file")
	errParseConfFile = errors.New("unable to parse configuration file")
)

// Start subscribes the batch coordinator to the configured subjects and
// starts consuming batches received from the message broker.
func Start(ctx context.Context, id string, sub messaging.Subscriber, svc Service, configPath string, logger logger.Logger) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		logger.Warn(fmt.Sprintf("Failed to load subscriber config: %s", err))
	}

	for _, subject := range cfg.SubscriberCfg.Subjects {
		subCfg := messaging.SubscriberConfig{
			ID:             id,
			Topic:          subject,
			BatchSize:      cfg.SubscriberCfg.BatchSize,
			MaxDeliver:     cfg.SubscriberCfg.MaxDeliver,
			Handler:        handle(svc),
			DeliveryPolicy: messaging.DeliverAllPolicy,
		}
		if err := sub.Subscribe(ctx, subCfg); err != nil {
			return err
		}
	}
	return nil
}

type handleFunc func(ctx context.Context, msgs []*messaging.Message) messaging.BatchResult

func (h handleFunc) Handle(ctx context.Context, msgs []*messaging.Message) messaging.BatchResult {
	return h(ctx, msgs)
}

func (h handleFunc) Cancel() error {
	return nil
}

func handle(svc Service) handleFunc {
	return func(ctx context.Context, msgs []*messaging.Message) messaging.BatchResult {
		return svc.Process(ctx, msgs)
	}
}

type subscriberConfig struct {
	Subjects   []string `toml:"subjects"`
	BatchSize  int      `toml:"batch_size"`
	MaxDeliver int      `toml:"max_deliver"`
}

type config struct {
	SubscriberCfg subscriberConfig `toml:"subscriber"`
}

func loadConfig(configPath string) (config, error) {
	cfg := config{
		SubscriberCfg: subscriberConfig{
			Subjects:   []string{defSubject},
			BatchSize:  defBatchSize,
			MaxDeliver: defMaxDeliver,
		},
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, errors.Wrap(errOpenConfFile, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errParseConfFile, err)
	}

	return cfg, nil
}
