// Package reconciler keeps the projected proposal set eventually
// consistent with the ledger.
package reconciler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kardiachain/governance-tracker/types"
)

// ProposalCounter reads the authoritative proposal count.
type ProposalCounter interface {
	ProposalCount(ctx context.Context) (uint32, error)
}

// ProjectionBuilder derives the projection of one proposal.
type ProjectionBuilder interface {
	Build(ctx context.Context, id uint32) (*types.ProposalProjection, error)
}

// Publisher mirrors refreshed projections to an external sink.
type Publisher interface {
	Publish(ctx context.Context, projections []*types.ProposalProjection) error
}

// Metrics is the subset of the metrics provider used here.
type Metrics interface {
	ObserveRefresh(err error, d time.Duration)
	AddPartialFaults(component string, n int)
	SetProposals(n int)
}

type Config struct {
	Counter    ProposalCounter
	Builder    ProjectionBuilder
	Store      *Store
	Publishers []Publisher
	Metrics    Metrics
	Logger     *zap.Logger
}

type Reconciler struct {
	counter    ProposalCounter
	builder    ProjectionBuilder
	store      *Store
	publishers []Publisher
	metrics    Metrics
	logger     *zap.Logger

	// refreshes run one at a time so an older build never lands after a newer one
	refreshMtx sync.Mutex
}

func New(cfg Config) (*Reconciler, error) {
	if cfg.Counter == nil || cfg.Builder == nil {
		return nil, errors.New("reconciler requires a counter and a builder")
	}
	store := cfg.Store
	if store == nil {
		store = NewStore()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		counter:    cfg.Counter,
		builder:    cfg.Builder,
		store:      store,
		publishers: cfg.Publishers,
		metrics:    cfg.Metrics,
		logger:     logger,
	}, nil
}

func (r *Reconciler) Store() *Store {
	return r.store
}

// RefreshAll re-derives every proposal in [0, count). A count fault aborts
// without touching the store. A fault on one proposal keeps its previous
// entry.
func (r *Reconciler) RefreshAll(ctx context.Context) error {
	r.refreshMtx.Lock()
	defer r.refreshMtx.Unlock()

	lgr := r.logger.With(zap.String("method", "RefreshAll"))
	start := time.Now()
	count, err := r.counter.ProposalCount(ctx)
	if err != nil {
		lgr.Error("cannot read proposal count", zap.Error(err))
		r.observe(err, start)
		return err
	}

	var (
		refreshed []*types.ProposalProjection
		stale     int
		partial   int
	)
	for id := uint32(0); id < count; id++ {
		proj, err := r.builder.Build(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				r.observe(ctx.Err(), start)
				return ctx.Err()
			}
			stale++
			_, present := r.store.Get(id)
			lgr.Warn("keeping previous projection",
				zap.Uint32("proposal", id),
				zap.Bool("present", present),
				zap.Error(types.WrapFault(types.ErrPartialFetch, err)))
			continue
		}
		if proj.Partial {
			partial++
		}
		r.store.Put(proj)
		refreshed = append(refreshed, proj)
	}
	r.store.setKnownCount(count)
	r.publish(ctx, refreshed)

	if r.metrics != nil {
		r.metrics.AddPartialFaults("reconciler", stale)
		r.metrics.AddPartialFaults("aggregator", partial)
		r.metrics.SetProposals(r.store.Len())
	}
	r.observe(nil, start)
	lgr.Info("refreshed proposals",
		zap.Uint32("count", count),
		zap.Int("stale", stale),
		zap.Int("partial", partial),
		zap.Duration("took", time.Since(start)))
	return nil
}

// StartPolling refreshes once, then checks the proposal count every
// interval and refreshes only when it grew. It returns when ctx is done.
func (r *Reconciler) StartPolling(ctx context.Context, interval time.Duration) {
	lgr := r.logger.With(zap.String("method", "StartPolling"))
	if err := r.RefreshAll(ctx); err != nil {
		lgr.Warn("initial refresh failed", zap.Error(err))
	}

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			lgr.Info("polling stopped")
			return
		case <-t.C:
			if err := r.tick(ctx); err != nil {
				lgr.Warn("poll failed, retrying next tick", zap.Error(err))
			}
		}
	}
}

func (r *Reconciler) tick(ctx context.Context) error {
	count, err := r.counter.ProposalCount(ctx)
	if err != nil {
		return err
	}
	if count <= r.store.KnownCount() {
		return nil
	}
	r.logger.Debug("proposal count increased", zap.Uint32("count", count), zap.Uint32("known", r.store.KnownCount()))
	return r.RefreshAll(ctx)
}

// NotifyOutcome refreshes immediately after a successful mutating
// operation. Other outcomes change nothing.
func (r *Reconciler) NotifyOutcome(ctx context.Context, kind types.OperationKind, outcome types.OperationOutcome) error {
	if !outcome.IsSuccess() || !kind.ChangesProposals() {
		return nil
	}
	return r.RefreshAll(ctx)
}

// Seed warms the store from persisted projections.
func (r *Reconciler) Seed(projections []*types.ProposalProjection) int {
	n := r.store.Seed(projections)
	if r.metrics != nil {
		r.metrics.SetProposals(r.store.Len())
	}
	return n
}

func (r *Reconciler) publish(ctx context.Context, projections []*types.ProposalProjection) {
	if len(projections) == 0 {
		return
	}
	for _, p := range r.publishers {
		if err := p.Publish(ctx, projections); err != nil {
			r.logger.Warn("cannot publish projections", zap.Error(err))
		}
	}
}

func (r *Reconciler) observe(err error, start time.Time) {
	if r.metrics != nil {
		r.metrics.ObserveRefresh(err, time.Since(start))
	}
}
