package handler

import (
	"context"
	"fmt"

	"github.com/kardiachain/governance-tracker/chain"
	"github.com/kardiachain/governance-tracker/projector"
	"github.com/kardiachain/governance-tracker/tracker"
	"github.com/kardiachain/governance-tracker/types"
)

func (h *Handler) SubmitProposal(ctx context.Context, caller, title, description string, deposit types.Balance) (types.OperationOutcome, error) {
	info := h.Info()
	if err := h.validCaller(caller); err != nil {
		return types.OperationOutcome{}, err
	}
	if len(title) > types.MaxTitleBytes {
		return types.OperationOutcome{}, types.NewFault(types.ErrInvalidArgument, fmt.Sprintf("title must be %d bytes or less", types.MaxTitleBytes))
	}
	if len(description) > types.MaxDescriptionBytes {
		return types.OperationOutcome{}, types.NewFault(types.ErrInvalidArgument, fmt.Sprintf("description must be %d bytes or less", types.MaxDescriptionBytes))
	}
	if deposit.Cmp(info.MinDeposit) < 0 {
		return types.OperationOutcome{}, types.NewFault(types.ErrInvalidArgument, "minimum deposit is "+info.MinDeposit.String())
	}
	return h.run(ctx, tracker.Operation{
		Kind:   types.OpSubmitProposal,
		Caller: caller,
		Value:  deposit,
		Args:   []interface{}{title, description},
	})
}

func (h *Handler) VoteFor(ctx context.Context, caller string, proposalID, assetID uint32, amount types.Balance) (types.OperationOutcome, error) {
	return h.vote(ctx, types.OpVoteFor, caller, proposalID, assetID, amount)
}

func (h *Handler) VoteAgainst(ctx context.Context, caller string, proposalID, assetID uint32, amount types.Balance) (types.OperationOutcome, error) {
	return h.vote(ctx, types.OpVoteAgainst, caller, proposalID, assetID, amount)
}

func (h *Handler) vote(ctx context.Context, kind types.OperationKind, caller string, proposalID, assetID uint32, amount types.Balance) (types.OperationOutcome, error) {
	info := h.Info()
	if err := h.validCaller(caller); err != nil {
		return types.OperationOutcome{}, err
	}
	if !info.SupportsAsset(assetID) {
		return types.OperationOutcome{}, types.NewFault(types.ErrInvalidArgument, fmt.Sprintf("asset %d is not supported", assetID))
	}
	if amount.Cmp(info.MinDeposit) < 0 {
		return types.OperationOutcome{}, types.NewFault(types.ErrInvalidArgument, "minimum vote amount is "+info.MinDeposit.String())
	}
	p, err := h.projection(ctx, proposalID)
	if err != nil {
		return types.OperationOutcome{}, err
	}
	if !projector.Permit(p.Proposal, caller, info.Owner).CanVote {
		return types.OperationOutcome{}, types.NewFault(types.ErrNotPermitted, fmt.Sprintf("proposal %d is closed", proposalID))
	}
	return h.run(ctx, tracker.Operation{
		Kind:   kind,
		Caller: caller,
		Value:  amount,
		Args:   []interface{}{proposalID, assetID},
	})
}

func (h *Handler) CloseVote(ctx context.Context, caller string, proposalID uint32) (types.OperationOutcome, error) {
	info := h.Info()
	if err := h.validCaller(caller); err != nil {
		return types.OperationOutcome{}, err
	}
	p, err := h.projection(ctx, proposalID)
	if err != nil {
		return types.OperationOutcome{}, err
	}
	if p.Closed {
		return types.OperationOutcome{}, types.NewFault(types.ErrNotPermitted, fmt.Sprintf("proposal %d is already closed", proposalID))
	}
	if !projector.Permit(p.Proposal, caller, info.Owner).CanClose {
		return types.OperationOutcome{}, types.NewFault(types.ErrNotPermitted, "only the proposal creator or the contract owner can close the vote")
	}
	return h.run(ctx, tracker.Operation{
		Kind:   types.OpCloseVote,
		Caller: caller,
		Args:   []interface{}{proposalID},
	})
}

func (h *Handler) CancelProposal(ctx context.Context, caller string, proposalID uint32) (types.OperationOutcome, error) {
	info := h.Info()
	if err := h.validCaller(caller); err != nil {
		return types.OperationOutcome{}, err
	}
	p, err := h.projection(ctx, proposalID)
	if err != nil {
		return types.OperationOutcome{}, err
	}
	if p.Closed {
		return types.OperationOutcome{}, types.NewFault(types.ErrNotPermitted, fmt.Sprintf("proposal %d is already closed", proposalID))
	}
	if !projector.Permit(p.Proposal, caller, info.Owner).CanCancel {
		return types.OperationOutcome{}, types.NewFault(types.ErrNotPermitted, "only the proposal creator can cancel the proposal")
	}
	return h.run(ctx, tracker.Operation{
		Kind:   types.OpCancelProposal,
		Caller: caller,
		Args:   []interface{}{proposalID},
	})
}

// projection prefers the reconciled projection and only reads the chain
// for ids the store has not seen yet.
func (h *Handler) projection(ctx context.Context, id uint32) (*types.ProposalProjection, error) {
	if p, ok := h.projections.Get(id); ok {
		return p, nil
	}
	return h.builder.Build(ctx, id)
}

func (h *Handler) validCaller(caller string) error {
	if caller == "" {
		return types.NewFault(types.ErrInvalidArgument, "caller account is required")
	}
	if _, err := chain.DecodeAccount(caller); err != nil {
		return types.WrapFault(types.ErrInvalidArgument, err)
	}
	return nil
}
