// Package service provides the business logic layer (use cases).
// DetectionService orchestrates pattern detection runs: it scopes the
// transaction slice per user, invokes the pure detectors, and persists
// the resulting flag mutations through the store port.
package service

import (
	"context"
	"time"

	"github.com/ledgerly/pattern-engine-go/internal/detect"
	"github.com/ledgerly/pattern-engine-go/internal/domain"
	"github.com/ledgerly/pattern-engine-go/internal/infra/observability"
	"github.com/ledgerly/pattern-engine-go/internal/port"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var detectionTracer = otel.Tracer("service/detection")

// Options tunes the detection service. Zero fields fall back to the
// engine defaults.
type Options struct {
	RecurringLookbackDays   int
	RecurringMinOccurrences int
	TransferLookbackDays    int
	TransferTolerance       decimal.Decimal
	TransferMaxDayGap       int
	SweepConcurrency        int
}

func (o Options) withDefaults() Options {
	if o.RecurringLookbackDays <= 0 {
		o.RecurringLookbackDays = 180
	}
	if o.RecurringMinOccurrences <= 0 {
		o.RecurringMinOccurrences = detect.DefaultMinOccurrences
	}
	if o.TransferLookbackDays <= 0 {
		o.TransferLookbackDays = 30
	}
	if o.TransferMaxDayGap <= 0 {
		o.TransferMaxDayGap = detect.DefaultTransferMaxDayGap
	}
	if o.SweepConcurrency <= 0 {
		o.SweepConcurrency = 8
	}
	return o
}

// DetectionService runs the detectors per user and writes flags back.
type DetectionService struct {
	store   port.TransactionStore
	reports port.Cache[*domain.DetectionReport]
	metrics *observability.Metrics
	logger  *zap.Logger
	opts    Options

	now func() time.Time
}

// NewDetectionService creates a new detection service.
func NewDetectionService(store port.TransactionStore, reports port.Cache[*domain.DetectionReport], metrics *observability.Metrics, logger *zap.Logger, opts Options) *DetectionService {
	return &DetectionService{
		store:   store,
		reports: reports,
		metrics: metrics,
		logger:  logger,
		opts:    opts.withDefaults(),
		now:     time.Now,
	}
}

// RunForUser executes both detectors for one user and persists every flag
// change. The store owns persistence; the detectors never see it.
func (s *DetectionService) RunForUser(ctx context.Context, userID string) (*domain.DetectionReport, error) {
	ctx, span := detectionTracer.Start(ctx, "DetectionService.RunForUser")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if userID == "" {
		return nil, &domain.ErrValidation{Field: "user_id", Message: "required"}
	}

	started := s.now()
	report := &domain.DetectionReport{
		RunID:     uuid.NewString(),
		UserID:    userID,
		StartedAt: started,
	}

	recurring, err := s.runRecurring(ctx, userID, started)
	if err != nil {
		s.metrics.IncrRun("error")
		return nil, err
	}
	report.Groups = recurring.Groups
	report.RecurringFlagged = recurring.Updated
	report.RecurringCleared = len(recurring.Cleared)

	transfers, err := s.runTransfers(ctx, userID, started)
	if err != nil {
		s.metrics.IncrRun("error")
		return nil, err
	}
	report.Pairs = transfers.Pairs
	report.TransfersFlagged = transfers.Updated

	report.DurationMs = time.Since(started).Milliseconds()

	s.metrics.IncrRun("success")
	s.metrics.AddGroups(len(report.Groups))
	s.metrics.AddPairs(len(report.Pairs))
	s.reports.Set(userID, report)

	s.logger.Info("detection run complete",
		zap.String("run_id", report.RunID),
		zap.String("user_id", userID),
		zap.Int("groups", len(report.Groups)),
		zap.Int("pairs", len(report.Pairs)),
		zap.Int("recurring_flagged", report.RecurringFlagged),
		zap.Int("recurring_cleared", report.RecurringCleared),
		zap.Int("transfers_flagged", report.TransfersFlagged),
		zap.Int64("duration_ms", report.DurationMs),
	)
	return report, nil
}

// runRecurring fetches the recurring lookback window, runs the detector
// and persists the flag diff.
func (s *DetectionService) runRecurring(ctx context.Context, userID string, asOf time.Time) (detect.RecurringOutcome, error) {
	var out detect.RecurringOutcome

	from := asOf.AddDate(0, 0, -s.opts.RecurringLookbackDays)
	txns, err := s.store.ListTransactions(ctx, userID, from, asOf)
	if err != nil {
		s.metrics.IncrStoreError("list_transactions")
		return out, err
	}

	start := time.Now()
	out, err = detect.Recurring(txns, detect.RecurringOptions{
		MinOccurrences: s.opts.RecurringMinOccurrences,
	})
	s.metrics.RecordRunDuration("recurring", time.Since(start))
	if err != nil {
		return out, err
	}

	if len(out.Flagged) > 0 || len(out.Cleared) > 0 {
		if err := s.store.SetRecurringFlags(ctx, out.Flagged, out.Cleared); err != nil {
			s.metrics.IncrStoreError("set_recurring_flags")
			return out, err
		}
		s.metrics.AddFlagsUpdated("recurring", len(out.Flagged)+len(out.Cleared))
	}
	return out, nil
}

// runTransfers fetches the transfer lookback window, runs the matcher and
// persists the new flags. Transfer flags are additive only.
func (s *DetectionService) runTransfers(ctx context.Context, userID string, asOf time.Time) (detect.TransferOutcome, error) {
	var out detect.TransferOutcome

	from := asOf.AddDate(0, 0, -s.opts.TransferLookbackDays)
	txns, err := s.store.ListTransactions(ctx, userID, from, asOf)
	if err != nil {
		s.metrics.IncrStoreError("list_transactions")
		return out, err
	}

	start := time.Now()
	out, err = detect.Transfers(txns, detect.TransferOptions{
		AmountTolerance: s.opts.TransferTolerance,
		MaxDayGap:       s.opts.TransferMaxDayGap,
	})
	s.metrics.RecordRunDuration("transfers", time.Since(start))
	if err != nil {
		return out, err
	}

	if len(out.Flagged) > 0 {
		if err := s.store.SetTransferFlags(ctx, out.Flagged); err != nil {
			s.metrics.IncrStoreError("set_transfer_flags")
			return out, err
		}
		s.metrics.AddFlagsUpdated("transfer", len(out.Flagged))
	}
	return out, nil
}

// LatestReport returns the most recent cached run report for a user.
func (s *DetectionService) LatestReport(ctx context.Context, userID string) (*domain.DetectionReport, error) {
	_, span := detectionTracer.Start(ctx, "DetectionService.LatestReport")
	defer span.End()

	report, ok := s.reports.Get(userID)
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "detection report", ID: userID}
	}
	return report, nil
}
