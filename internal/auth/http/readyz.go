package http

import (
	"context"
	"net/http"
	"time"

	"github.com/coachhub/platform/internal/auth/store"
	"github.com/coachhub/platform/pkg/authsdk"
	"github.com/coachhub/platform/pkg/httpx"
	"github.com/coachhub/platform/pkg/kvx"
)

// Pinger is implemented by optional dependencies whose health is reported by
// /readyz, such as the event broker.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyzHandler godoc
//
//	@Summary		Readiness check
//	@Description	Reports the database, the KV store and, when it supports it, the event broker.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	kv kvx.Store,
	events any,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := &authsdk.HealthChecks{Database: "ok", KV: "ok"}
		overallStatus := "ok"
		statusCode := http.StatusOK
		fail := func(field *string, err error) {
			*field = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if err := st.Ping(ctx); err != nil {
			fail(&checks.Database, err)
		}
		if err := kv.Ping(ctx); err != nil {
			fail(&checks.KV, err)
		}
		if p, ok := events.(Pinger); ok {
			checks.Events = "ok"
			if err := p.Ping(ctx); err != nil {
				fail(&checks.Events, err)
			}
		}

		httpx.WriteJSON(w, statusCode, authsdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
