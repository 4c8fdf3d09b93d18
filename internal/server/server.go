// Copyright (c) Fluxline
// SPDX-License-Identifier: Apache-2.0

// Package server contains service server lifecycle helpers.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fluxline/fanout/logger"
)

// Server specifies a long-running component with graceful shutdown.
type Server interface {
	Start() error
	Stop() error
}

// Config holds server address and TLS settings.
type Config struct {
	Host     string `env:"HOST"         envDefault:""`
	Port     string `env:"PORT"         envDefault:""`
	CertFile string `env:"SERVER_CERT"  envDefault:""`
	KeyFile  string `env:"SERVER_KEY"   envDefault:""`
}

// BaseServer holds the state shared by server implementations.
type BaseServer struct {
	Ctx      context.Context
	Cancel   context.CancelFunc
	Name     string
	Address  string
	Config   Config
	Logger   logger.Logger
	Protocol string
}

func stopAllServer(servers ...Server) error {
	var err error
	for _, server := range servers {
		if err1 := server.Stop(); err1 != nil {
			if err == nil {
				err = fmt.Errorf("%w", err1)
			} else {
				err = fmt.Errorf("%v ; %w", err, err1)
			}
		}
	}
	return err
}

// StopSignalHandler blocks until the context is canceled or a stop signal
// is received, then stops the given servers.
func StopSignalHandler(ctx context.Context, cancel context.CancelFunc, logger logger.Logger, svcName string, servers ...Server) error {
	c := make(chan os.Signal, 2)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-c:
		defer cancel()
		err := stopAllServer(servers...)
		if err != nil {
			logger.Error(fmt.Sprintf("%s service error during shutdown: %v", svcName, err))
		}
		logger.Info(fmt.Sprintf("%s service shutdown by signal: %s", svcName, sig))
		return err
	case <-ctx.Done():
		return nil
	}
}
