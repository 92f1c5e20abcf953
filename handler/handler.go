// Package handler
package handler

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/kardiachain/governance-tracker/tracker"
	"github.com/kardiachain/governance-tracker/types"
)

type OperationTracker interface {
	Track(ctx context.Context, op tracker.Operation) (types.OperationOutcome, error)
}

// OutcomeNotifier is told about every finalized operation.
type OutcomeNotifier interface {
	NotifyOutcome(ctx context.Context, kind types.OperationKind, outcome types.OperationOutcome) error
}

// ProjectionSource serves the current projection of a proposal.
type ProjectionSource interface {
	Get(id uint32) (*types.ProposalProjection, bool)
}

type ProjectionBuilder interface {
	Build(ctx context.Context, id uint32) (*types.ProposalProjection, error)
}

type Metrics interface {
	ObserveOutcome(operation, outcome string)
}

type Config struct {
	Info        types.ContractInfo
	Tracker     OperationTracker
	Notifier    OutcomeNotifier
	Projections ProjectionSource
	Builder     ProjectionBuilder
	Metrics     Metrics

	StorageDepositLimit types.Balance

	Logger *zap.Logger
}

// Handler validates and runs governance actions.
type Handler struct {
	tracker     OperationTracker
	notifier    OutcomeNotifier
	projections ProjectionSource
	builder     ProjectionBuilder
	metrics     Metrics

	storageDepositLimit types.Balance

	infoMtx sync.RWMutex
	info    types.ContractInfo

	logger *zap.Logger
}

func New(cfg Config) (*Handler, error) {
	if cfg.Tracker == nil || cfg.Projections == nil || cfg.Builder == nil {
		return nil, errors.New("handler requires a tracker, a projection source and a builder")
	}
	if cfg.Info.Address == "" {
		return nil, errors.New("handler requires connected contract info")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		tracker:             cfg.Tracker,
		notifier:            cfg.Notifier,
		projections:         cfg.Projections,
		builder:             cfg.Builder,
		metrics:             cfg.Metrics,
		storageDepositLimit: cfg.StorageDepositLimit,
		info:                cfg.Info,
		logger:              logger.With(zap.String("component", "handler")),
	}, nil
}

func (h *Handler) Info() types.ContractInfo {
	h.infoMtx.RLock()
	defer h.infoMtx.RUnlock()
	info := h.info
	info.SupportedAssets = append([]uint32(nil), h.info.SupportedAssets...)
	info.Warnings = append([]string(nil), h.info.Warnings...)
	return info
}

// run tracks op and reports its outcome.
func (h *Handler) run(ctx context.Context, op tracker.Operation) (types.OperationOutcome, error) {
	lgr := h.logger.With(zap.String("method", string(op.Kind)), zap.String("caller", op.Caller))
	op.StorageDepositLimit = h.storageDepositLimit
	outcome, err := h.tracker.Track(ctx, op)
	if err != nil {
		h.observe(op.Kind, "Errored")
		lgr.Error("operation not finalized", zap.Error(err))
		return outcome, err
	}
	h.observe(op.Kind, outcome.Kind.String())
	if h.notifier != nil {
		if err := h.notifier.NotifyOutcome(ctx, op.Kind, outcome); err != nil {
			lgr.Warn("refresh after operation failed", zap.Error(err))
		}
	}
	return outcome, nil
}

func (h *Handler) observe(kind types.OperationKind, outcome string) {
	if h.metrics != nil {
		h.metrics.ObserveOutcome(string(kind), outcome)
	}
}
