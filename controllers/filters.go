package controllers

import (
	"fmt"
	"net/http"
	"time"

	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"
)

// AccessLogFilter logs one line per request after it has been handled.
func AccessLogFilter(logger *zap.Logger) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		startTime := time.Now()

		chain.ProcessFilter(req, resp)

		logger.Info("Request",
			zap.String("client_ip", req.Request.RemoteAddr),
			zap.String("method", req.Request.Method),
			zap.Int("status_code", resp.StatusCode()),
			zap.Duration("latency", time.Since(startTime)),
			zap.String("user_agent", req.Request.UserAgent()),
			zap.String("path", req.Request.URL.Path),
		)
	}
}

// RecoverHandler answers 500 with a detail body after a handler panic.
func RecoverHandler(logger *zap.Logger) func(interface{}, http.ResponseWriter) {
	return func(panicReason interface{}, w http.ResponseWriter) {
		logger.Error("Recovered from panic in HTTP handler", zap.String("panic", fmt.Sprint(panicReason)))
		w.Header().Set("Content-Type", restful.MIME_JSON)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"Internal server error"}`))
	}
}
