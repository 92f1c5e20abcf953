// Package cache
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/kardiachain/governance-tracker/types"
)

type Adapter string

const (
	RedisAdapter Adapter = "redis"
)

type Config struct {
	Adapter  Adapter
	URL      string
	DB       int
	Password string

	IsFlush bool

	DefaultExpiredTime time.Duration

	Logger *zap.Logger
}

type IProposal interface {
	UpdateProposals(ctx context.Context, projections []*types.ProposalProjection) error
	Proposal(ctx context.Context, id uint32) (*types.ProposalProjection, error)
	Proposals(ctx context.Context, pagination *types.Pagination) ([]*types.ProposalProjection, uint64, error)
}

type Client interface {
	IProposal

	ContractInfo(ctx context.Context) (*types.ContractInfo, error)
	UpdateContractInfo(ctx context.Context, info *types.ContractInfo) error

	// Publish mirrors refreshed projections.
	Publish(ctx context.Context, projections []*types.ProposalProjection) error
	Close() error
}

func New(cfg Config) (Client, error) {
	switch cfg.Adapter {
	case RedisAdapter:
		return newRedis(cfg)
	}
	return nil, errors.New("invalid cache config")
}

func newRedis(cfg Config) (Client, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.URL,
		DB:       cfg.DB,
		Password: cfg.Password,
	})

	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		return nil, err
	}

	if cfg.IsFlush {
		if err := redisClient.FlushAll(context.Background()).Err(); err != nil {
			return nil, err
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Redis{
		cfg:    cfg,
		client: redisClient,
		logger: logger.With(zap.String("cache", "redis")),
	}
	return c, nil
}
