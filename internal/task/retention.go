package task

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RetentionSweepJobName labels the retention sweep in logs.
const RetentionSweepJobName = "inquiry_retention_sweep"

// ClosedInquiryPruner deletes closed inquiries last touched before a cutoff.
type ClosedInquiryPruner interface {
	DeleteClosedInquiriesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionSweep removes Closed inquiries older than the retention window.
type RetentionSweep struct {
	pruner    ClosedInquiryPruner
	logger    *zap.Logger
	retention time.Duration
	now       func() time.Time
}

// NewRetentionSweep builds a sweep keeping closed inquiries for retentionDays. Zero or less disables it.
func NewRetentionSweep(pruner ClosedInquiryPruner, logger *zap.Logger, retentionDays int) *RetentionSweep {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetentionSweep{
		pruner:    pruner,
		logger:    logger,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		now:       time.Now,
	}
}

// Enabled reports whether the sweep deletes anything.
func (sweep *RetentionSweep) Enabled() bool {
	return sweep != nil && sweep.pruner != nil && sweep.retention > 0
}

// Run performs one sweep.
func (sweep *RetentionSweep) Run(ctx context.Context) error {
	if !sweep.Enabled() {
		return nil
	}
	cutoff := sweep.now().UTC().Add(-sweep.retention)
	deleted, err := sweep.pruner.DeleteClosedInquiriesBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if deleted > 0 {
		sweep.logger.Info("closed_inquiries_pruned", zap.Int64("deleted", deleted), zap.Time("cutoff", cutoff))
	}
	return nil
}
