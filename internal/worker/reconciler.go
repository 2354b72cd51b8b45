package worker

import (
	"context"
	"time"

	"voyago/internal/domain"
	"voyago/internal/models"

	"github.com/rs/zerolog"
)

// statusApplier is the slice of the payment service the reconciler uses.
type statusApplier interface {
	ApplyIntentStatus(ctx context.Context, intentID, status string) (*models.Booking, error)
}

// Reconciler sweeps payments that have sat in a non-terminal status
// longer than the reconcile window and re-reads them from the
// processor. Customers who never came back from the payment page get
// their bookings settled here.
type Reconciler struct {
	repo      domain.Repository
	provider  domain.PaymentProvider
	payments  statusApplier
	interval  time.Duration
	staleWait time.Duration
	batchSize int
	logger    *zerolog.Logger
}

func NewReconciler(repo domain.Repository, provider domain.PaymentProvider, payments statusApplier, interval, staleWait time.Duration, logger *zerolog.Logger) *Reconciler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if staleWait <= 0 {
		staleWait = time.Duration(models.ReconcileAfterSeconds) * time.Second
	}
	return &Reconciler{
		repo:      repo,
		provider:  provider,
		payments:  payments,
		interval:  interval,
		staleWait: staleWait,
		batchSize: 50,
		logger:    logger,
	}
}

// Start runs sweeps until ctx is done.
func (r *Reconciler) Start(ctx context.Context) {
	r.logger.Info().Dur("interval", r.interval).Msg("payment reconciler started")
	defer r.logger.Info().Msg("payment reconciler stopped")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep runs one reconciliation pass.
func (r *Reconciler) Sweep(ctx context.Context) {
	cutoff := time.Now().Add(-r.staleWait)
	stale, err := r.repo.ListStalePayments(ctx, cutoff, r.batchSize)
	if err != nil {
		r.logger.Error().Err(err).Msg("reconciler: list stale payments")
		return
	}

	for _, p := range stale {
		intent, err := r.provider.GetIntent(ctx, p.IntentID)
		if err != nil {
			r.logger.Warn().Err(err).Str("intent_id", p.IntentID).Msg("reconciler: fetch intent")
			continue
		}
		if intent.Status == p.Status && !models.IntentTerminal(intent.Status) {
			// Nothing moved processor-side. Bump the row so it rotates
			// to the back of the window instead of occupying the oldest
			// slots on every sweep.
			if err := r.repo.TouchPayment(ctx, p.IntentID); err != nil {
				r.logger.Warn().Err(err).Str("intent_id", p.IntentID).Msg("reconciler: touch payment")
			}
			continue
		}

		if _, err := r.payments.ApplyIntentStatus(ctx, p.IntentID, intent.Status); err != nil {
			r.logger.Warn().Err(err).Str("intent_id", p.IntentID).Msg("reconciler: apply intent status")
			continue
		}
		r.logger.Info().Str("intent_id", p.IntentID).Str("status", intent.Status).Msg("reconciler: settled stale payment")
	}
}
