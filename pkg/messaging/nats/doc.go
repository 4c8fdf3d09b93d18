// Copyright (c) Fluxline
// SPDX-License-Identifier: Apache-2.0

// Package nats provides a NATS JetStream implementation of the batch
// subscriber, mapping per-message classification onto JetStream
// acknowledgment semantics.
package nats
