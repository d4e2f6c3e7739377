package handlers

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/timeguard/internal/constants"
	"github.com/yasinhessnawi1/timeguard/internal/utils"
)

// HealthHandler serves the unauthenticated health and version endpoints.
type HealthHandler struct {
	db          HealthChecker
	version     string
	environment string
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db HealthChecker, version, environment string) *HealthHandler {
	return &HealthHandler{db: db, version: version, environment: environment}
}

// Health reports 200 while the database answers and 503 otherwise.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.DBHealthCheckTimeout)
	defer cancel()

	if err := h.db.HealthCheck(ctx); err != nil {
		log.Error().Err(err).Msg("Health check failed")
		utils.Error(w, http.StatusServiceUnavailable, constants.CodeServiceUnavailable, constants.MsgServiceUnhealthy,
			map[string]any{"database": constants.StatusDown})
		return
	}

	utils.JSON(w, http.StatusOK, map[string]string{
		"status":   constants.StatusHealthy,
		"database": constants.StatusUp,
		"version":  h.version,
	})
}

// Version reports the build version and environment.
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]string{
		"version":     h.version,
		"environment": h.environment,
	})
}
