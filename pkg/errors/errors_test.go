// Copyright (c) Fluxline
// SPDX-License-Identifier: Apache-2.0

package errors_test

import (
	"fmt"
	"testing"

	"github.com/fluxline/fanout/pkg/errors"
	"github.com/stretchr/testify/assert"
)

var (
	err0 = errors.New("0")
	err1 = errors.New("1")
	err2 = errors.New("2")
)

func TestError(t *testing.T) {
	cases := []struct {
		desc string
		err  error
		msg  string
	}{
		{
			desc: "plain error",
			err:  err0,
			msg:  "0",
		},
		{
			desc: "wrapped error",
			err:  errors.Wrap(err1, err0),
			msg:  "1 : 0",
		},
		{
			desc: "doubly wrapped error",
			err:  errors.Wrap(err2, errors.Wrap(err1, err0)),
			msg:  "2 : 1 : 0",
		},
		{
			desc: "nil wrapped with error",
			err:  errors.Wrap(nil, err0),
			msg:  "",
		},
		{
			desc: "error wrapped with nil",
			err:  errors.Wrap(err0, nil),
			msg:  "0",
		},
	}

	for _, tc := range cases {
		errMsg := ""
		if tc.err != nil {
			errMsg = tc.err.Error()
		}
		assert.Equal(t, tc.msg, errMsg, fmt.Sprintf("%s: expected %s got %s", tc.desc, tc.msg, errMsg))
	}
}

func TestContains(t *testing.T) {
	cases := []struct {
		desc      string
		container error
		contained error
		contains  bool
	}{
		{
			desc:      "nil contains nil",
			container: nil,
			contained: nil,
			contains:  true,
		},
		{
			desc:      "nil contains non-nil",
			container: nil,
			contained: err0,
			contains:  false,
		},
		{
			desc:      "error contains itself",
			container: err0,
			contained: err0,
			contains:  true,
		},
		{
			desc:      "wrapper contains wrapped error",
			container: errors.Wrap(err1, err0),
			contained: err0,
			contains:  true,
		},
		{
			desc:      "wrapper contains wrapper error",
			container: errors.Wrap(err1, err0),
			contained: err1,
			contains:  true,
		},
		{
			desc:      "wrapper does not contain unrelated error",
			container: errors.Wrap(err1, err0),
			contained: err2,
			contains:  false,
		},
		{
			desc:      "deeply nested error is found",
			container: errors.Wrap(err2, errors.Wrap(err1, err0)),
			contained: err0,
			contains:  true,
		},
	}

	for _, tc := range cases {
		contains := errors.Contains(tc.container, tc.contained)
		assert.Equal(t, tc.contains, contains, fmt.Sprintf("%s: expected %t got %t", tc.desc, tc.contains, contains))
	}
}

func TestUnwrap(t *testing.T) {
	wrapper, err := errors.Unwrap(errors.Wrap(err1, err0))
	assert.Equal(t, err1.Error(), wrapper.Error())
	assert.Equal(t, err0.Error(), err.Error())

	wrapper, err = errors.Unwrap(err0)
	assert.Nil(t, wrapper)
	assert.Equal(t, err0.Error(), err.Error())
}
