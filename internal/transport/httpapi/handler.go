// Package httpapi serves read-only JSON status over hertz.
package httpapi

import (
	"context"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"survivalsim.ai/internal/persistence/indexdb"
	"survivalsim.ai/internal/sim/world"
)

type statusProvider interface {
	RequestStatus(ctx context.Context) (world.Status, error)
}

type moonHistoryProvider interface {
	MoonHistory(ctx context.Context, limit int) ([]indexdb.MoonRow, error)
}

type kpiSnapshotProvider interface {
	SnapshotAny() any
}

// Handler wires the API. Nil providers answer 404 not_configured.
type Handler struct {
	Status statusProvider
	Moons  moonHistoryProvider
	KPI    kpiSnapshotProvider

	// StatusTimeout bounds how long a request waits on the world loop.
	StatusTimeout time.Duration
}

func (h Handler) RegisterRoutes(s *server.Hertz) {
	s.Use(corsMiddleware())
	v1 := s.Group("/v1")
	v1.GET("/status", h.status)
	v1.GET("/species", h.species)
	v1.GET("/moons", h.moons)
	s.GET("/ops/kpi", h.kpi)
}

func (h Handler) requestStatus(c context.Context) (world.Status, error) {
	timeout := h.StatusTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	c, cancel := context.WithTimeout(c, timeout)
	defer cancel()
	return h.Status.RequestStatus(c)
}

func (h Handler) status(c context.Context, ctx *app.RequestContext) {
	if h.Status == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "status provider not configured")
		return
	}
	st, err := h.requestStatus(c)
	if err != nil {
		writeErrorBody(ctx, consts.StatusServiceUnavailable, "world_unavailable", err.Error())
		return
	}
	ctx.JSON(consts.StatusOK, st)
}

func (h Handler) species(c context.Context, ctx *app.RequestContext) {
	if h.Status == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "status provider not configured")
		return
	}
	st, err := h.requestStatus(c)
	if err != nil {
		writeErrorBody(ctx, consts.StatusServiceUnavailable, "world_unavailable", err.Error())
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{
		"tick":    st.Tick,
		"species": st.Species,
	})
}

func (h Handler) moons(c context.Context, ctx *app.RequestContext) {
	if h.Moons == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "moon history not configured")
		return
	}
	limit := 20
	if raw := string(ctx.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 1000 {
			writeErrorBody(ctx, consts.StatusBadRequest, "bad_limit", "limit must be in [1,1000]")
			return
		}
		limit = n
	}
	rows, err := h.Moons.MoonHistory(c, limit)
	if err != nil {
		writeErrorBody(ctx, consts.StatusInternalServerError, "query_failed", err.Error())
		return
	}
	if rows == nil {
		rows = []indexdb.MoonRow{}
	}
	ctx.JSON(consts.StatusOK, map[string]any{"moons": rows})
}

func (h Handler) kpi(_ context.Context, ctx *app.RequestContext) {
	if h.KPI == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "kpi provider not configured")
		return
	}
	ctx.JSON(consts.StatusOK, h.KPI.SnapshotAny())
}

func writeErrorBody(ctx *app.RequestContext, status int, code, message string) {
	ctx.JSON(status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
