// Copyright (c) Fluxline
// SPDX-License-Identifier: Apache-2.0

package fanout

import (
	"encoding/json"
	"net/http"
)

const (
	version     = "0.4.0"
	contentType = "application/health+json"
	svcStatus   = "pass"
)

// HealthInfo contains health check endpoint response.
type HealthInfo struct {
	// Status contains the service status.
	Status string `json:"status"`

	// Version contains the current service version.
	Version string `json:"version"`

	// Service contains the service name.
	Service string `json:"service"`

	// Description contains the service description.
	Description string `json:"description"`

	// InstanceID contains the ID of the running service instance.
	InstanceID string `json:"instance_id"`
}

// Health exposes an HTTP handler for retrieving service health.
func Health(service, instanceID string) http.HandlerFunc {
	return func(rw http.ResponseWriter, _ *http.Request) {
		res := HealthInfo{
			Status:      svcStatus,
			Version:     version,
			Service:     service,
			Description: service + " service",
			InstanceID:  instanceID,
		}

		rw.Header().Set("Content-Type", contentType)
		if err := json.NewEncoder(rw).Encode(res); err != nil {
			http.Error(rw, err.Error(), http.StatusInternalServerError)
		}
	}
}
