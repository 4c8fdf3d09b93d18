// Copyright (c) Fluxline
// SPDX-License-Identifier: Apache-2.0

// Package logger contains leveled JSON logger used across the service.
package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/go-kit/log"
)

// Logger specifies logging API.
type Logger interface {
	// Debug logs any object in JSON format on debug level.
	Debug(msg string)

	// Info logs any object in JSON format on info level.
	Info(msg string)

	// Warn logs any object in JSON format on warning level.
	Warn(msg string)

	// Error logs any object in JSON format on error level.
	Error(msg string)

	// Fatal logs fatal message and terminates the process.
	Fatal(msg string)
}

var _ Logger = (*logger)(nil)

type logger struct {
	kitLogger log.Logger
	level     Level
}

// New returns wrapped go-kit logger that writes JSON log entries
// to out, filtered by the given level.
func New(out io.Writer, levelText string) (Logger, error) {
	var level Level
	if err := level.UnmarshalText(levelText); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidLogLevel, levelText)
	}

	l := log.NewJSONLogger(log.NewSyncWriter(out))
	l = log.With(l, "ts", log.DefaultTimestampUTC)

	return &logger{l, level}, nil
}

func (l logger) Debug(msg string) {
	if Debug.isAllowed(l.level) {
		_ = l.kitLogger.Log("level", Debug.String(), "message", msg)
	}
}

func (l logger) Info(msg string) {
	if Info.isAllowed(l.level) {
		_ = l.kitLogger.Log("level", Info.String(), "message", msg)
	}
}

func (l logger) Warn(msg string) {
	if Warn.isAllowed(l.level) {
		_ = l.kitLogger.Log("level", Warn.String(), "message", msg)
	}
}

func (l logger) Error(msg string) {
	if Error.isAllowed(l.level) {
		_ = l.kitLogger.Log("level", Error.String(), "message", msg)
	}
}

func (l logger) Fatal(msg string) {
	_ = l.kitLogger.Log("fatal", msg)
	os.Exit(1)
}
