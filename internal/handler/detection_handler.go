package handler

import (
	"net/http"

	"github.com/ledgerly/pattern-engine-go/internal/infra/observability"
	"github.com/ledgerly/pattern-engine-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func runDetectionHandler(svc *service.DetectionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/users/{userId}/detections/run")
		defer span.End()

		userID := chi.URLParam(r, "userId")
		report, err := svc.RunForUser(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func latestDetectionHandler(svc *service.DetectionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{userId}/detections/latest")
		defer span.End()

		userID := chi.URLParam(r, "userId")
		report, err := svc.LatestReport(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func sweepHandler(svc *service.DetectionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/detections/sweep")
		defer span.End()

		report, err := svc.Sweep(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func detectionMetricsHandler(metrics *observability.Metrics, _ *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /v1/metrics/detections")
		defer span.End()

		writeJSON(w, http.StatusOK, metrics.GetDetectionSnapshot())
	}
}
