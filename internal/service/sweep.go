package service

import (
	"context"
	"sync"
	"time"

	"github.com/ledgerly/pattern-engine-go/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Sweep runs detection for every known user. Per-user runs are
// independent (each gets its own transaction slice and flags scoped to
// it) and execute concurrently up to SweepConcurrency. One user failing
// does not abort the sweep; failures are counted and logged.
func (s *DetectionService) Sweep(ctx context.Context) (*domain.SweepReport, error) {
	ctx, span := detectionTracer.Start(ctx, "DetectionService.Sweep")
	defer span.End()

	started := s.now()
	users, err := s.store.ListUserIDs(ctx)
	if err != nil {
		s.metrics.IncrStoreError("list_user_ids")
		return nil, err
	}

	report := &domain.SweepReport{
		RunID: uuid.NewString(),
		Users: len(users),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.SweepConcurrency)

	for _, userID := range users {
		userID := userID
		g.Go(func() error {
			run, err := s.RunForUser(gctx, userID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed++
				s.logger.Warn("sweep: user run failed",
					zap.String("user_id", userID),
					zap.Error(err),
				)
				return nil // keep sweeping
			}
			report.Groups += len(run.Groups)
			report.Pairs += len(run.Pairs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.DurationMs = time.Since(started).Milliseconds()
	span.SetAttributes(
		attribute.Int("sweep.users", report.Users),
		attribute.Int("sweep.failed", report.Failed),
	)

	s.logger.Info("sweep complete",
		zap.String("run_id", report.RunID),
		zap.Int("users", report.Users),
		zap.Int("failed", report.Failed),
		zap.Int("groups", report.Groups),
		zap.Int("pairs", report.Pairs),
		zap.Int64("duration_ms", report.DurationMs),
	)
	return report, nil
}
