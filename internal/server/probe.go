// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sustainable-computing-io/harvester/internal/service"
)

// HealthProbe reports the liveness and readiness of the services it watches
type HealthProbe struct {
	logger    *slog.Logger
	apiServer APIService
	services  []service.Service
}

// ServiceHealth represents the health status of a single service
type ServiceHealth struct {
	Name  string `json:"name"`
	Live  bool   `json:"live,omitempty"`
	Ready bool   `json:"ready,omitempty"`
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status   string          `json:"status"` // "ok" or "unhealthy"
	Services []ServiceHealth `json:"services"`
}

var (
	_ service.Initializer = (*HealthProbe)(nil)
	_ service.Runner      = (*HealthProbe)(nil)
)

// NewHealthProbe creates a HealthProbe over services
func NewHealthProbe(apiServer APIService, services []service.Service, logger *slog.Logger) *HealthProbe {
	return &HealthProbe{
		logger:    logger.With("service", "health-probe"),
		apiServer: apiServer,
		services:  services,
	}
}

func (h *HealthProbe) Name() string {
	return "health-probe"
}

func (h *HealthProbe) Init() error {
	if err := h.apiServer.Register(
		"/probe/livez",
		"Liveness Probe",
		"Returns 200 if all services are alive",
		http.HandlerFunc(h.handleLiveness),
	); err != nil {
		return err
	}

	if err := h.apiServer.Register(
		"/probe/readyz",
		"Readiness Probe",
		"Returns 200 once the analysis results are available",
		http.HandlerFunc(h.handleReadiness),
	); err != nil {
		return err
	}

	h.logger.Info("Health probe endpoints registered")
	return nil
}

// Run only waits; the probe answers requests through the API server
func (h *HealthProbe) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (h *HealthProbe) handleLiveness(w http.ResponseWriter, r *http.Request) {
	h.respond(w, func(svc service.Service) (ServiceHealth, bool, bool) {
		lc, ok := svc.(service.LiveChecker)
		if !ok {
			return ServiceHealth{}, false, false
		}
		live := lc.IsLive()
		return ServiceHealth{Name: svc.Name(), Live: live}, live, true
	})
}

func (h *HealthProbe) handleReadiness(w http.ResponseWriter, r *http.Request) {
	h.respond(w, func(svc service.Service) (ServiceHealth, bool, bool) {
		rc, ok := svc.(service.ReadyChecker)
		if !ok {
			return ServiceHealth{}, false, false
		}
		ready := rc.IsReady()
		return ServiceHealth{Name: svc.Name(), Ready: ready}, ready, true
	})
}

// respond checks every service with check, which reports the service health,
// whether it passed and whether the service takes part in the check
func (h *HealthProbe) respond(w http.ResponseWriter, check func(service.Service) (ServiceHealth, bool, bool)) {
	status := HealthStatus{
		Status:   "ok",
		Services: make([]ServiceHealth, 0, len(h.services)),
	}

	healthy := true
	for _, svc := range h.services {
		sh, passed, checked := check(svc)
		if !checked {
			continue
		}
		status.Services = append(status.Services, sh)
		healthy = healthy && passed
	}

	code := http.StatusOK
	if !healthy {
		status.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(status); err != nil {
		h.logger.Error("failed to encode JSON response", "error", err)
	}
}
