/*
 *  Copyright 2020 KardiaChain
 *  This file is part of the go-kardia library.
 *
 *  The go-kardia library is free software: you can redistribute it and/or modify
 *  it under the terms of the GNU Lesser General Public License as published by
 *  the Free Software Foundation, either version 3 of the License, or
 *  (at your option) any later version.
 *
 *  The go-kardia library is distributed in the hope that it will be useful,
 *  but WITHOUT ANY WARRANTY; without even the implied warranty of
 *  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 *  GNU Lesser General Public License for more details.
 *
 *  You should have received a copy of the GNU Lesser General Public License
 *  along with the go-kardia library. If not, see <http://www.gnu.org/licenses/>.
 */

// Package chain
package chain

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kardiachain/governance-tracker/types"
)

// ledgerProposal mirrors the contract's Proposal storage struct.
type ledgerProposal struct {
	Title                 string
	Description           string
	Creator               AccountID
	SupporterCount        uint32
	SupporterCountAgainst uint32
	Closed                bool
	Result                *string
	Deadline              uint32
	ForVoters             []AccountID
	AgainstVoters         []AccountID
	ReferendumIndex       *uint32
}

type ledgerVoters struct {
	For     []AccountID
	Against []AccountID
}

type ledgerStakes struct {
	For     u128
	Against u128
}

// ProposalCount returns the number of proposals ever submitted.
func (c *Contract) ProposalCount(ctx context.Context) (uint32, error) {
	var count uint32
	if err := c.read(ctx, MsgGetProposalCount, &count); err != nil {
		return 0, err
	}
	return count, nil
}

// Proposal returns the ledger record of proposal id.
func (c *Contract) Proposal(ctx context.Context, id uint32) (*types.Proposal, error) {
	lgr := c.lgr.With(zap.String("method", "Proposal"))
	data, err := c.Query(ctx, MsgGetProposal, c.readOrigin, c.queryGas, id)
	if err != nil {
		return nil, err
	}
	var p ledgerProposal
	found, err := DecodeOption(data, &p)
	if err != nil {
		lgr.Error("Error unpacking proposal", zap.Uint32("ID", id), zap.Error(err))
		return nil, types.WrapFault(types.ErrTransport, err)
	}
	if !found {
		return nil, types.NewFault(types.ErrProposalNotFound, fmt.Sprintf("proposal %d", id))
	}
	result, ok := types.ResultFromLedger(p.Closed, p.Result)
	if !ok {
		lgr.Warn("Unrecognized proposal result", zap.Uint32("ID", id), zap.Stringp("result", p.Result))
	}
	return &types.Proposal{
		ID:                    id,
		Title:                 p.Title,
		Description:           p.Description,
		Creator:               EncodeAccount(p.Creator, c.prefix),
		Deadline:              p.Deadline,
		Closed:                p.Closed,
		Result:                result,
		SupporterCount:        p.SupporterCount,
		SupporterCountAgainst: p.SupporterCountAgainst,
		ReferendumIndex:       p.ReferendumIndex,
	}, nil
}

// Voters returns the supporting and opposing voter rosters of a proposal.
func (c *Contract) Voters(ctx context.Context, id uint32) (types.VoterRoster, error) {
	var v ledgerVoters
	if err := c.read(ctx, MsgGetVoters, &v, id); err != nil {
		return types.VoterRoster{}, err
	}
	roster := types.VoterRoster{
		For:     make([]string, 0, len(v.For)),
		Against: make([]string, 0, len(v.Against)),
	}
	for _, a := range v.For {
		roster.For = append(roster.For, EncodeAccount(a, c.prefix))
	}
	for _, a := range v.Against {
		roster.Against = append(roster.Against, EncodeAccount(a, c.prefix))
	}
	return roster, nil
}

// VoterStakes returns the (for, against) stake of voter on asset.
func (c *Contract) VoterStakes(ctx context.Context, id uint32, voter string, asset uint32) (types.StakePair, error) {
	account, err := DecodeAccount(voter)
	if err != nil {
		return types.StakePair{}, types.WrapFault(types.ErrInvalidArgument, err)
	}
	var s ledgerStakes
	if err := c.read(ctx, MsgGetVoterStakes, &s, id, account, asset); err != nil {
		return types.StakePair{}, err
	}
	return types.StakePair{
		For:     types.NewBalance(s.For.Big()),
		Against: types.NewBalance(s.Against.Big()),
	}, nil
}

func (c *Contract) MinDeposit(ctx context.Context) (types.Balance, error) {
	var v u128
	if err := c.read(ctx, MsgGetMinDeposit, &v); err != nil {
		return types.Balance{}, err
	}
	return types.NewBalance(v.Big()), nil
}

func (c *Contract) Owner(ctx context.Context) (string, error) {
	var owner AccountID
	if err := c.read(ctx, MsgGetOwner, &owner); err != nil {
		return "", err
	}
	return EncodeAccount(owner, c.prefix), nil
}

func (c *Contract) SupportedAssets(ctx context.Context) ([]uint32, error) {
	var assets []uint32
	if err := c.read(ctx, MsgGetSupportedAssets, &assets); err != nil {
		return nil, err
	}
	return assets, nil
}

func (c *Contract) VotingPeriod(ctx context.Context) (uint32, error) {
	var period uint32
	if err := c.read(ctx, MsgGetVotingPeriod, &period); err != nil {
		return 0, err
	}
	return period, nil
}

func (c *Contract) read(ctx context.Context, method string, dst interface{}, args ...interface{}) error {
	data, err := c.Query(ctx, method, c.readOrigin, c.queryGas, args...)
	if err != nil {
		return err
	}
	if err := DecodeReturn(data, dst); err != nil {
		c.lgr.Error("Error unpacking message return", zap.String("message", method), zap.Error(err))
		return types.WrapFault(types.ErrTransport, err)
	}
	return nil
}
