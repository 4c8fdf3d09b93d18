// Copyright (c) Fluxline
// SPDX-License-Identifier: Apache-2.0

package processor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxline/fanout/logger"
	"github.com/fluxline/fanout/pkg/messaging"
)

const confContent = `
[subscriber]
subjects = ["devices.>", "gateways.>"]
batch_size = 25
max_deliver = 3
`

type stubSubscriber struct {
	subs []messaging.SubscriberConfig
}

func (s *stubSubscriber) Subscribe(_ context.Context, cfg messaging.SubscriberConfig) error {
	s.subs = append(s.subs, cfg)
	return nil
}

func (s *stubSubscriber) Unsubscribe(_ context.Context, _, _ string) error {
	return nil
}

func (s *stubSubscriber) Close() error {
	return nil
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.Nil(t, os.WriteFile(path, []byte(confContent), 0o644))

	cfg, err := loadConfig(path)
	require.Nil(t, err)
	assert.Equal(t, []string{"devices.>", "gateways.>"}, cfg.SubscriberCfg.Subjects)
	assert.Equal(t, 25, cfg.SubscriberCfg.BatchSize)
	assert.Equal(t, 3, cfg.SubscriberCfg.MaxDeliver)
}

func TestLoadConfigMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "nonexistent.toml"))
	assert.NotNil(t, err)
	assert.Equal(t, []string{defSubject}, cfg.SubscriberCfg.Subjects)
	assert.Equal(t, defBatchSize, cfg.SubscriberCfg.BatchSize)
	assert.Equal(t, defMaxDeliver, cfg.SubscriberCfg.MaxDeliver)
}

func TestStartSubscribesAllSubjects(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.Nil(t, os.WriteFile(path, []byte(confContent), 0o644))

	log, err := logger.New(os.Stdout, "error")
	require.Nil(t, err)

	sub := &stubSubscriber{}
	svc := New(nil, nil, Config{})

	require.Nil(t, Start(context.Background(), "fanout-test", sub, svc, path, log))

	require.Len(t, sub.subs, 2)
	assert.Equal(t, "devices.>", sub.subs[0].Topic)
	assert.Equal(t, "gateways.>", sub.subs[1].Topic)
	for _, cfg := range sub.subs {
		assert.Equal(t, "fanout-test", cfg.ID)
		assert.Equal(t, 25, cfg.BatchSize)
		assert.Equal(t, 3, cfg.MaxDeliver)
		assert.NotNil(t, cfg.Handler)
	}
}
