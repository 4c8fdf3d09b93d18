// Copyright (c) Fluxline
// SPDX-License-Identifier: Apache-2.0

package logger_test

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"testing"

	log "github.com/fluxline/fanout/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Env vars needed for testing Fatal in subprocess.
const (
	testMsg     = "TEST_MSG"
	testFlag    = "TEST_FLAG"
	testFlagVal = "assert_test"
)

var _ io.Writer = (*mockWriter)(nil)

type mockWriter struct {
	value []byte
}

func (writer *mockWriter) Write(p []byte) (int, error) {
	writer.value = p
	return len(p), nil
}

func (writer *mockWriter) Read() (logMsg, error) {
	var output logMsg
	err := json.Unmarshal(writer.value, &output)
	return output, err
}

type logMsg struct {
	Level   string `json:"level"`
	Message string `json:"message"`
	Fatal   string `json:"fatal,omitempty"` // needed for Fatal messages
}

func TestLogLevels(t *testing.T) {
	cases := []struct {
		desc   string
		input  string
		level  string
		log    func(log.Logger, string)
		output logMsg
	}{
		{
			desc:   "debug log ordinary string",
			input:  "input_string",
			level:  log.Debug.String(),
			log:    log.Logger.Debug,
			output: logMsg{log.Debug.String(), "input_string", ""},
		},
		{
			desc:   "debug ordinary string lvl not allowed",
			input:  "input_string",
			level:  log.Info.String(),
			log:    log.Logger.Debug,
			output: logMsg{"", "", ""},
		},
		{
			desc:   "info log ordinary string",
			input:  "input_string",
			level:  log.Info.String(),
			log:    log.Logger.Info,
			output: logMsg{log.Info.String(), "input_string", ""},
		},
		{
			desc:   "info ordinary string lvl not allowed",
			input:  "input_string",
			level:  log.Warn.String(),
			log:    log.Logger.Info,
			output: logMsg{"", "", ""},
		},
		{
			desc:   "warn log ordinary string",
			input:  "input_string",
			level:  log.Warn.String(),
			log:    log.Logger.Warn,
			output: logMsg{log.Warn.String(), "input_string", ""},
		},
		{
			desc:   "warn ordinary string lvl not allowed",
			input:  "input_string",
			level:  log.Error.String(),
			log:    log.Logger.Warn,
			output: logMsg{"", "", ""},
		},
		{
			desc:   "error log ordinary string",
			input:  "input_string",
			level:  log.Error.String(),
			log:    log.Logger.Error,
			output: logMsg{log.Error.String(), "input_string", ""},
		},
		{
			desc:   "error log empty string",
			input:  "",
			level:  log.Error.String(),
			log:    log.Logger.Error,
			output: logMsg{log.Error.String(), "", ""},
		},
	}

	for _, tc := range cases {
		writer := mockWriter{}
		logger, err := log.New(&writer, tc.level)
		require.Nil(t, err, fmt.Sprintf("%s: unexpected error %s", tc.desc, err))
		tc.log(logger, tc.input)
		output, err := writer.Read()
		if tc.output.Level == "" {
			assert.NotNil(t, err, fmt.Sprintf("%s: expected empty output", tc.desc))
			continue
		}
		assert.Nil(t, err, fmt.Sprintf("%s: unexpected error %s", tc.desc, err))
		assert.Equal(t, tc.output, output, fmt.Sprintf("%s: expected %v got %v", tc.desc, tc.output, output))
	}
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := log.New(os.Stdout, "Not_A_Level")
	assert.ErrorIs(t, err, log.ErrInvalidLogLevel)
}

func TestFatal(t *testing.T) {
	// This is the actual Fatal call under test, executed in the
	// subprocess spawned below.
	if os.Getenv(testFlag) == testFlagVal {
		logger, err := log.New(os.Stderr, log.Error.String())
		require.Nil(t, err)
		logger.Fatal(os.Getenv(testMsg))
		return
	}

	writer := mockWriter{}
	// Fatal calls os.Exit, so it needs to run in a subprocess.
	cmd := exec.Command(os.Args[0], "-test.run=TestFatal")
	cmd.Env = append(os.Environ(), fmt.Sprintf("%s=%s", testFlag, testFlagVal))
	cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", testMsg, "input_string"))
	cmd.Stderr = &writer
	err := cmd.Run()
	e, ok := err.(*exec.ExitError)
	require.True(t, ok, "subprocess ran successfully, want non-zero exit status")
	assert.Equal(t, 1, e.ExitCode())
	res, err := writer.Read()
	require.Nil(t, err, "required successful buffer read")
	assert.Equal(t, logMsg{"", "", "input_string"}, res)
}
