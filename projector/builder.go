package projector

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kardiachain/governance-tracker/types"
)

// ProposalReader reads one proposal record from the ledger.
type ProposalReader interface {
	Proposal(ctx context.Context, id uint32) (*types.Proposal, error)
}

// VoteAggregator summarizes the votes of one proposal.
type VoteAggregator interface {
	Aggregate(ctx context.Context, proposalID uint32, assets []uint32) (*types.VoteSummary, error)
}

type BuilderConfig struct {
	Reader     ProposalReader
	Aggregator VoteAggregator
	Info       types.ContractInfo
	// Account is the acting account permissions are evaluated for.
	Account  string
	Decimals int32
	Logger   *zap.Logger
}

// Builder reads and projects single proposals.
type Builder struct {
	reader     ProposalReader
	aggregator VoteAggregator
	info       types.ContractInfo
	account    string
	decimals   int32
	logger     *zap.Logger
	now        func() time.Time
}

func NewBuilder(cfg BuilderConfig) (*Builder, error) {
	if cfg.Reader == nil || cfg.Aggregator == nil {
		return nil, errors.New("builder requires a proposal reader and an aggregator")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		reader:     cfg.Reader,
		aggregator: cfg.Aggregator,
		info:       cfg.Info,
		account:    cfg.Account,
		decimals:   cfg.Decimals,
		logger:     logger,
		now:        time.Now,
	}, nil
}

func (b *Builder) Info() types.ContractInfo {
	return b.info
}

func (b *Builder) Account() string {
	return b.account
}

func (b *Builder) Decimals() int32 {
	return b.decimals
}

// Build re-derives the projection of proposal id.
func (b *Builder) Build(ctx context.Context, id uint32) (*types.ProposalProjection, error) {
	lgr := b.logger.With(zap.String("method", "Build"), zap.Uint32("proposal", id))
	p, err := b.reader.Proposal(ctx, id)
	if err != nil {
		lgr.Warn("cannot read proposal", zap.Error(err))
		return nil, err
	}
	summary, err := b.aggregator.Aggregate(ctx, id, b.info.SupportedAssets)
	if err != nil {
		lgr.Warn("cannot aggregate votes", zap.Error(err))
		return nil, err
	}
	proj := Project(*p, summary, b.account, b.info.Owner, b.decimals)
	proj.UpdateTime = b.now().Unix()
	return &proj, nil
}
