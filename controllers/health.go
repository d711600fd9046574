package controllers

import (
	"context"
	"net/http"
	"time"

	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthResponse struct {
	Status string `json:"status"`
}

// HealthController answers the liveness probe used by the service registry.
type HealthController struct {
	db      Pinger
	timeout time.Duration
	logger  *zap.Logger
}

func NewHealthController(db Pinger, logger *zap.Logger) *HealthController {
	return &HealthController{db: db, timeout: 2 * time.Second, logger: logger.Named("HealthController")}
}

func (ctl *HealthController) RegisterRoutes(ws *restful.WebService) {
	ws.Route(ws.GET("/health").To(ctl.healthHandler).
		Doc("Report whether the database is reachable").
		Returns(http.StatusOK, "Healthy", HealthResponse{}).
		Returns(http.StatusServiceUnavailable, "Database unreachable", HealthResponse{}))
}

func (ctl *HealthController) healthHandler(request *restful.Request, response *restful.Response) {
	ctx, cancel := context.WithTimeout(request.Request.Context(), ctl.timeout)
	defer cancel()

	if err := ctl.db.PingContext(ctx); err != nil {
		ctl.logger.Warn("Database ping failed", zap.Error(err))
		_ = response.WriteHeaderAndJson(http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"}, restful.MIME_JSON)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, HealthResponse{Status: "ok"}, restful.MIME_JSON)
}
