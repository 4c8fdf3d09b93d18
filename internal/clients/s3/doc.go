// Copyright (c) Fluxline
// SPDX-License-Identifier: Apache-2.0

// Package s3 configures the object storage client used by the archive
// writer.
package s3
