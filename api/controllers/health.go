package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/api/responses"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/config"
	pkgerrors "github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/errors"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger is satisfied by the db and redis clients.
type Pinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-LiveBuyNow-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings each dependency and reports 503 when any is down.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-LiveBuyNow-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := make(map[string]string, len(deps))
		failed := false
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				checks[name] = "down"
				failed = true
				if logg != nil {
					logg.Warn(logg.WithField(ctx, "dependency", name), "health.dependency_down")
				}
				continue
			}
			checks[name] = "up"
		}

		if failed {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeChannelUnavailable, "not ready").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
