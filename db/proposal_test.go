package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kardiachain/governance-tracker/types"
)

func sampleProjection(id uint32) *types.ProposalProjection {
	return &types.ProposalProjection{
		Proposal: types.Proposal{
			ID:          id,
			Creator:     "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY",
			Title:       "Treasury",
			Description: "Fund the next epoch",
			Deadline:    500,
			Result:      types.ResultPending,
		},
		Status: types.StatusOpen,
		Tallies: map[uint32]types.AssetTally{
			2: {AssetID: 2, For: types.BalanceFromUint64(5), Against: types.BalanceFromUint64(0)},
			1: {AssetID: 1, For: types.BalanceFromUint64(10), Against: types.BalanceFromUint64(3)},
		},
		ForVoters: []types.VoterStake{
			{Voter: "5FHneW46xGXgs5mUiveU4sbTyGBzmstUspZC92UhjJM694ty", Amount: types.BalanceFromUint64(10), Display: "0.00", AssetID: 1},
		},
		UpdateTime: 42,
	}
}

func TestProposalRecord_RoundTripsTallies(t *testing.T) {
	p := sampleProjection(7)
	r := toRecord(p)
	require.Len(t, r.TallyList, 2)
	assert.Equal(t, uint32(1), r.TallyList[0].AssetID)
	assert.Equal(t, uint32(2), r.TallyList[1].AssetID)

	back := r.projection()
	assert.Equal(t, p.Tallies, back.Tallies)
	assert.Equal(t, p.ID, back.ID)
	assert.Equal(t, p.ForVoters, back.ForVoters)
}

func TestMongoDB_UpsertProposals(t *testing.T) {
	mgo := setupMGO(t)
	ctx := context.Background()

	require.NoError(t, mgo.UpsertProposals(ctx, []*types.ProposalProjection{sampleProjection(0), sampleProjection(1)}))

	updated := sampleProjection(1)
	updated.Status = types.StatusPassed
	require.NoError(t, mgo.Publish(ctx, []*types.ProposalProjection{updated}))

	got, err := mgo.Proposal(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, types.StatusPassed, got.Status)
	assert.Equal(t, "13", got.Tallies[1].For.Add(got.Tallies[1].Against).String())

	list, total, err := mgo.Proposals(ctx, &types.Pagination{Skip: 0, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), total)
	require.Len(t, list, 2)
	assert.Equal(t, uint32(0), list[0].ID)

	_, err = mgo.Proposal(ctx, 99)
	assert.ErrorIs(t, err, types.ErrProposalNotFound)
}
