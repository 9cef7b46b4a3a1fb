// Package metrics exposes Prometheus counters for the watcher pipeline
// and an optional /metrics HTTP listener.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// MessagesTotal counts MQTT messages delivered to each watcher.
	MessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mqttwatch_messages_total",
		Help: "MQTT messages delivered, by watcher.",
	}, []string{"watcher"})

	// DecodeErrorsTotal counts payloads dropped as invalid JSON.
	DecodeErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mqttwatch_decode_errors_total",
		Help: "Payloads dropped because they were not valid JSON, by watcher.",
	}, []string{"watcher"})

	// NotificationsTotal counts dispatched notifications by watcher and severity.
	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mqttwatch_notifications_total",
		Help: "Notifications dispatched, by watcher and severity.",
	}, []string{"watcher", "severity"})

	// SuppressedTotal counts matches suppressed by edge, cooldown or
	// duplicate detection.
	SuppressedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mqttwatch_suppressed_total",
		Help: "Matching evaluations suppressed before notification, by watcher and reason.",
	}, []string{"watcher", "reason"})

	// ExpressionErrorsTotal counts malformed rule expressions encountered.
	ExpressionErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mqttwatch_expression_errors_total",
		Help: "Rule expressions that failed to evaluate, by watcher.",
	}, []string{"watcher"})
)

// Serve runs the /metrics listener until ctx is cancelled. Errors other
// than graceful shutdown are logged, not fatal.
func Serve(ctx context.Context, addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}()

	logger.Info("metrics listener started", "address", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics listener failed", "error", err)
	}
}
