package tracker

import (
	"github.com/kardiachain/governance-tracker/chain"
	"github.com/kardiachain/governance-tracker/types"
)

// Classify maps a failure event to an ErrorReason. A decodable contract
// variant wins over the module error it arrived in; anything that cannot
// be named degrades to UnknownError.
func Classify(ev types.ChainEvent) types.ErrorReason {
	if ev.ContractVariant != "" {
		return types.ContractError{Variant: ev.ContractVariant}
	}
	d := ev.DispatchError
	if d != nil && d.Module != nil && d.Module.Name != "" {
		return types.ModuleError{Pallet: d.Module.Pallet, Name: d.Module.Name}
	}
	return types.UnknownError{RawKey: d.RawKey()}
}

// Outcome decides the result of a finalized extrinsic from its ordered
// events. Failure anywhere in the list wins; success needs a log emitted
// by the target contract.
func Outcome(blockHash string, events []types.ChainEvent, contract string) types.OperationOutcome {
	for _, ev := range events {
		if ev.Is(types.PalletSystem, types.EventExtrinsicFailed) {
			return types.FailedWithReason(blockHash, Classify(ev))
		}
	}
	for _, ev := range events {
		if ev.Is(types.PalletContracts, types.EventContractEmitted) && chain.SameAccount(ev.Contract, contract) {
			return types.Succeeded(blockHash)
		}
	}
	return types.Indeterminate(blockHash)
}
