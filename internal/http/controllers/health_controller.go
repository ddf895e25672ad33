package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/dropDatabas3/orgcrud/internal/http/dto"
	"github.com/dropDatabas3/orgcrud/internal/http/helpers"
	"github.com/dropDatabas3/orgcrud/internal/observability/logger"
)

// PoolCounter reporta cuántos pools de tenant hay abiertos.
type PoolCounter interface {
	PoolCount() int
}

// HealthController maneja /healthz y /readyz.
type HealthController struct {
	version string
	pools   PoolCounter
	// probe verifica una dependencia concreta (la base fija en single-tenant).
	probe func(ctx context.Context) error
}

// NewHealthController crea el controller. probe puede ser nil.
func NewHealthController(version string, pools PoolCounter, probe func(ctx context.Context) error) *HealthController {
	return &HealthController{version: version, pools: pools, probe: probe}
}

// Healthz maneja GET /healthz: el proceso está vivo.
func (c *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, dto.HealthResponse{Status: "ok", Version: c.version})
}

// Readyz maneja GET /readyz
func (c *HealthController) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("HealthController.Readyz"))

	resp := dto.HealthResponse{Status: "ready", Version: c.version}
	if c.pools != nil {
		n := c.pools.PoolCount()
		resp.Pools = &n
	}

	status := http.StatusOK
	if c.probe != nil {
		probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := c.probe(probeCtx); err != nil {
			log.Warn("readiness probe failed", logger.Err(err))
			resp.Status = "unavailable"
			resp.Error = err.Error()
			status = http.StatusServiceUnavailable
		}
	}

	helpers.WriteJSON(w, status, resp)
}
