// Package aggregator rebuilds per-asset tallies and voter rosters from raw
// per-(voter, asset) stake records.
package aggregator

import (
	"context"
	"errors"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kardiachain/governance-tracker/types"
)

// StakeSource reads vote records of the governance contract.
type StakeSource interface {
	Voters(ctx context.Context, proposalID uint32) (types.VoterRoster, error)
	VoterStakes(ctx context.Context, proposalID uint32, voter string, assetID uint32) (types.StakePair, error)
}

type Config struct {
	Source StakeSource
	// Workers bounds concurrent stake reads per call. 1 reads sequentially.
	Workers int
	Logger  *zap.Logger
}

type Aggregator struct {
	source  StakeSource
	workers int
	logger  *zap.Logger
}

func New(cfg Config) (*Aggregator, error) {
	if cfg.Source == nil {
		return nil, errors.New("aggregator requires a stake source")
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{source: cfg.Source, workers: workers, logger: logger}, nil
}

type fetchJob struct {
	voter string
	asset uint32
	slot  int
}

type fetchResult struct {
	stake types.StakePair
	err   error
}

// Aggregate derives the vote summary of one proposal across assets. A
// roster read failure is returned; a failed stake read only drops that
// voter's contribution on that asset and is listed in Skipped.
func (a *Aggregator) Aggregate(ctx context.Context, proposalID uint32, assets []uint32) (*types.VoteSummary, error) {
	lgr := a.logger.With(zap.String("method", "Aggregate"), zap.Uint32("proposal", proposalID))
	roster, err := a.source.Voters(ctx, proposalID)
	if err != nil {
		lgr.Error("cannot load voters", zap.Error(err))
		return nil, err
	}
	forVoters := dedupe(roster.For)
	againstVoters := dedupe(roster.Against)

	// one read per distinct (voter, asset), shared by both sides
	voterIndex := make(map[string]int)
	var voters []string
	for _, v := range append(append([]string{}, forVoters...), againstVoters...) {
		if _, ok := voterIndex[v]; ok {
			continue
		}
		voterIndex[v] = len(voters)
		voters = append(voters, v)
	}
	jobs := make([]fetchJob, 0, len(voters)*len(assets))
	for _, v := range voters {
		for _, asset := range assets {
			jobs = append(jobs, fetchJob{voter: v, asset: asset, slot: len(jobs)})
		}
	}
	results := a.fetch(ctx, proposalID, jobs)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	summary := &types.VoteSummary{
		ProposalID:    proposalID,
		Tallies:       make(map[uint32]types.AssetTally, len(assets)),
		ForVoters:     []types.VoterStake{},
		AgainstVoters: []types.VoterStake{},
	}
	for _, asset := range assets {
		summary.Tallies[asset] = types.AssetTally{AssetID: asset}
	}
	for _, job := range jobs {
		if res := results[job.slot]; res.err != nil {
			lgr.Warn("skipping stake record",
				zap.String("voter", job.voter),
				zap.Uint32("asset", job.asset),
				zap.Error(types.WrapFault(types.ErrPartialFetch, res.err)))
			summary.Skipped = append(summary.Skipped, types.SkippedFetch{Voter: job.voter, AssetID: job.asset, Reason: res.err.Error()})
		}
	}

	stakeAt := func(voter string, assetPos int) (types.StakePair, bool) {
		res := results[voterIndex[voter]*len(assets)+assetPos]
		return res.stake, res.err == nil
	}
	for _, v := range forVoters {
		for pos, asset := range assets {
			stake, ok := stakeAt(v, pos)
			if !ok || stake.For.Sign() <= 0 {
				continue
			}
			tally := summary.Tallies[asset]
			tally.For = tally.For.Add(stake.For)
			summary.Tallies[asset] = tally
			summary.ForVoters = append(summary.ForVoters, types.VoterStake{Voter: v, Amount: stake.For, AssetID: asset})
		}
	}
	for _, v := range againstVoters {
		for pos, asset := range assets {
			stake, ok := stakeAt(v, pos)
			if !ok || stake.Against.Sign() <= 0 {
				continue
			}
			tally := summary.Tallies[asset]
			tally.Against = tally.Against.Add(stake.Against)
			summary.Tallies[asset] = tally
			summary.AgainstVoters = append(summary.AgainstVoters, types.VoterStake{Voter: v, Amount: stake.Against, AssetID: asset})
		}
	}
	if len(summary.Skipped) > 0 {
		lgr.Warn("partial vote summary", zap.Int("skipped", len(summary.Skipped)), zap.Int("reads", len(jobs)))
	}
	return summary, nil
}

// fetch reads every job into its slot. Completion order does not affect
// the result.
func (a *Aggregator) fetch(ctx context.Context, proposalID uint32, jobs []fetchJob) []fetchResult {
	results := make([]fetchResult, len(jobs))
	read := func(job fetchJob) {
		stake, err := a.source.VoterStakes(ctx, proposalID, job.voter, job.asset)
		results[job.slot] = fetchResult{stake: stake, err: err}
	}
	if a.workers == 1 || len(jobs) < 2 {
		for _, job := range jobs {
			read(job)
		}
		return results
	}

	var wg sync.WaitGroup
	p, err := ants.NewPoolWithFunc(a.workers, func(i interface{}) {
		defer wg.Done()
		read(i.(fetchJob))
	})
	if err != nil {
		for _, job := range jobs {
			read(job)
		}
		return results
	}
	defer p.Release()
	for _, job := range jobs {
		wg.Add(1)
		if err := p.Invoke(job); err != nil {
			wg.Done()
			read(job)
		}
	}
	wg.Wait()
	return results
}

func dedupe(voters []string) []string {
	seen := make(map[string]struct{}, len(voters))
	out := make([]string, 0, len(voters))
	for _, v := range voters {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
