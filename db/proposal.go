// Package db
package db

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/kardiachain/governance-tracker/types"
)

// proposalRecord stores tallies as a list since bson keys must be strings.
type proposalRecord struct {
	types.ProposalProjection `bson:",inline"`
	TallyList                []types.AssetTally `bson:"tallies"`
}

func toRecord(p *types.ProposalProjection) *proposalRecord {
	r := &proposalRecord{ProposalProjection: *p.Copy()}
	r.TallyList = make([]types.AssetTally, 0, len(p.Tallies))
	for _, t := range p.Tallies {
		r.TallyList = append(r.TallyList, t)
	}
	sort.Slice(r.TallyList, func(i, j int) bool { return r.TallyList[i].AssetID < r.TallyList[j].AssetID })
	return r
}

func (r *proposalRecord) projection() *types.ProposalProjection {
	p := r.ProposalProjection
	p.Tallies = make(map[uint32]types.AssetTally, len(r.TallyList))
	for _, t := range r.TallyList {
		p.Tallies[t.AssetID] = t
	}
	return &p
}

func (m *mongoDB) UpsertProposals(ctx context.Context, projections []*types.ProposalProjection) error {
	if len(projections) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(projections))
	for _, p := range projections {
		models = append(models, mongo.NewReplaceOneModel().SetUpsert(true).SetFilter(bson.M{"id": p.ID}).SetReplacement(toRecord(p)))
	}
	if _, err := m.wrapper.C(cProposals).BulkUpsert(ctx, models); err != nil {
		m.logger.Warn("cannot upsert proposals", zap.Int("size", len(projections)), zap.Error(err))
		return err
	}
	return nil
}

func (m *mongoDB) Publish(ctx context.Context, projections []*types.ProposalProjection) error {
	return m.UpsertProposals(ctx, projections)
}

func (m *mongoDB) Proposal(ctx context.Context, id uint32) (*types.ProposalProjection, error) {
	var r proposalRecord
	err := m.wrapper.C(cProposals).FindOne(ctx, bson.M{"id": id}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, types.NewFault(types.ErrProposalNotFound, fmt.Sprintf("proposal %d", id))
	}
	if err != nil {
		return nil, err
	}
	return r.projection(), nil
}

// Proposals lists stored projections by ascending id. A nil pagination
// returns everything.
func (m *mongoDB) Proposals(ctx context.Context, pagination *types.Pagination) ([]*types.ProposalProjection, uint64, error) {
	opts := []*options.FindOptions{
		options.Find().SetSort(bson.M{"id": 1}),
	}
	if pagination != nil {
		pagination.Sanitize()
		opts = append(opts,
			options.Find().SetSkip(int64(pagination.Skip)),
			options.Find().SetLimit(int64(pagination.Limit)),
		)
	}
	cursor, err := m.wrapper.C(cProposals).Find(ctx, bson.M{}, opts...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get list proposals: %v", err)
	}
	defer func() {
		if err := cursor.Close(ctx); err != nil {
			m.logger.Warn("Error when close cursor", zap.Error(err))
		}
	}()
	var proposals []*types.ProposalProjection
	for cursor.Next(ctx) {
		var r proposalRecord
		if err := cursor.Decode(&r); err != nil {
			return nil, 0, err
		}
		proposals = append(proposals, r.projection())
	}
	total, err := m.wrapper.C(cProposals).Count(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}
	return proposals, uint64(total), nil
}
