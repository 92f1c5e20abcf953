// Package db
package db

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/kardiachain/governance-tracker/types"
)

type Adapter string

const (
	MGO Adapter = "mgo"
)

type Config struct {
	DbAdapter Adapter
	DbName    string
	URL       string
	MinConn   int
	MaxConn   int
	FlushDB   bool

	Logger *zap.Logger
}

type IProposal interface {
	UpsertProposals(ctx context.Context, projections []*types.ProposalProjection) error
	Proposal(ctx context.Context, id uint32) (*types.ProposalProjection, error)
	Proposals(ctx context.Context, pagination *types.Pagination) ([]*types.ProposalProjection, uint64, error)
}

type Client interface {
	ping(ctx context.Context) error
	dropDatabase(ctx context.Context) error

	IProposal
	// Publish mirrors refreshed projections.
	Publish(ctx context.Context, projections []*types.ProposalProjection) error
	Close(ctx context.Context) error
}

func NewClient(cfg Config) (Client, error) {
	switch cfg.DbAdapter {
	case MGO:
		return newMongoDB(cfg)
	default:
		return nil, errors.New("invalid db config")
	}
}
