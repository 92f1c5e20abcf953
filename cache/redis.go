// Package cache
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/kardiachain/governance-tracker/types"
)

const (
	KeyProposal     = "#proposals#%d"
	KeyProposalIDs  = "#proposals#ids" // Sorted set
	KeyContractInfo = "#contract#info"
)

type Redis struct {
	cfg    Config
	client *redis.Client

	logger *zap.Logger
}

func (c *Redis) UpdateProposals(ctx context.Context, projections []*types.ProposalProjection) error {
	if len(projections) == 0 {
		return nil
	}
	pipe := c.client.TxPipeline()
	for _, p := range projections {
		data, err := json.Marshal(p)
		if err != nil {
			return err
		}
		pipe.Set(ctx, fmt.Sprintf(KeyProposal, p.ID), string(data), c.cfg.DefaultExpiredTime)
		pipe.ZAdd(ctx, KeyProposalIDs, &redis.Z{Score: float64(p.ID), Member: strconv.FormatUint(uint64(p.ID), 10)})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("cannot update proposals", zap.Int("size", len(projections)), zap.Error(err))
		return err
	}
	return nil
}

func (c *Redis) Publish(ctx context.Context, projections []*types.ProposalProjection) error {
	return c.UpdateProposals(ctx, projections)
}

func (c *Redis) Proposal(ctx context.Context, id uint32) (*types.ProposalProjection, error) {
	data, err := c.client.Get(ctx, fmt.Sprintf(KeyProposal, id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, types.NewFault(types.ErrProposalNotFound, fmt.Sprintf("proposal %d", id))
	}
	if err != nil {
		return nil, err
	}
	var p types.ProposalProjection
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Proposals lists cached projections by ascending id. Entries whose value
// has expired are left out of the page.
func (c *Redis) Proposals(ctx context.Context, pagination *types.Pagination) ([]*types.ProposalProjection, uint64, error) {
	if pagination == nil {
		pagination = &types.Pagination{}
	}
	pagination.Sanitize()
	total, err := c.client.ZCard(ctx, KeyProposalIDs).Result()
	if err != nil {
		return nil, 0, err
	}
	start := int64(pagination.Skip)
	stop := start + int64(pagination.Limit) - 1
	ids, err := c.client.ZRange(ctx, KeyProposalIDs, start, stop).Result()
	if err != nil {
		return nil, 0, err
	}
	if len(ids) == 0 {
		return nil, uint64(total), nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = "#proposals#" + id
	}
	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, 0, err
	}
	var proposals []*types.ProposalProjection
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var p types.ProposalProjection
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			c.logger.Warn("cannot decode cached proposal", zap.String("key", keys[i]), zap.Error(err))
			continue
		}
		proposals = append(proposals, &p)
	}
	return proposals, uint64(total), nil
}

func (c *Redis) UpdateContractInfo(ctx context.Context, info *types.ContractInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, KeyContractInfo, string(data), 0).Err()
}

func (c *Redis) ContractInfo(ctx context.Context) (*types.ContractInfo, error) {
	data, err := c.client.Get(ctx, KeyContractInfo).Result()
	if err != nil {
		return nil, err
	}
	var info types.ContractInfo
	if err := json.Unmarshal([]byte(data), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Redis) Close() error {
	return c.client.Close()
}
