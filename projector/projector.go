// Package projector derives the display projection of a proposal from its
// ledger record and vote summary.
package projector

import (
	"github.com/shopspring/decimal"

	"github.com/kardiachain/governance-tracker/chain"
	"github.com/kardiachain/governance-tracker/types"
)

// Status maps ledger state to the display status.
func Status(p types.Proposal) types.ProposalStatus {
	if !p.Closed {
		return types.StatusOpen
	}
	switch p.Result {
	case types.ResultPassed:
		return types.StatusPassed
	case types.ResultFailed:
		return types.StatusFailed
	}
	return types.StatusCancelled
}

// Permit evaluates which actions account may attempt on p. Closed
// proposals permit nothing.
func Permit(p types.Proposal, account, owner string) types.Permissions {
	if p.Closed || account == "" {
		return types.Permissions{}
	}
	isCreator := chain.SameAccount(account, p.Creator)
	return types.Permissions{
		CanVote:   true,
		CanClose:  isCreator || chain.SameAccount(account, owner),
		CanCancel: isCreator,
	}
}

// Display renders a base unit amount scaled by decimals with two places.
func Display(amount types.Balance, decimals int32) string {
	return decimal.NewFromBigInt(amount.Int(), -decimals).StringFixed(2)
}

// Project combines a proposal and its vote summary. summary may be nil
// for proposals whose votes were not aggregated.
func Project(p types.Proposal, summary *types.VoteSummary, account, owner string, decimals int32) types.ProposalProjection {
	proj := types.ProposalProjection{
		Proposal:      p,
		Status:        Status(p),
		Tallies:       map[uint32]types.AssetTally{},
		ForVoters:     []types.VoterStake{},
		AgainstVoters: []types.VoterStake{},
		Account:       account,
		Permissions:   Permit(p, account, owner),
	}
	if summary == nil {
		return proj
	}
	for id, tally := range summary.Tallies {
		proj.Tallies[id] = tally
	}
	for _, vs := range summary.ForVoters {
		vs.Display = Display(vs.Amount, decimals)
		proj.ForVoters = append(proj.ForVoters, vs)
	}
	for _, vs := range summary.AgainstVoters {
		vs.Display = Display(vs.Amount, decimals)
		proj.AgainstVoters = append(proj.AgainstVoters, vs)
	}
	proj.Partial = len(summary.Skipped) > 0
	return proj
}
