package types

import (
	"encoding/hex"
	"fmt"
)

const (
	PalletSystem    = "System"
	PalletContracts = "Contracts"

	EventExtrinsicSuccess = "ExtrinsicSuccess"
	EventExtrinsicFailed  = "ExtrinsicFailed"
	EventContractEmitted  = "ContractEmitted"

	ModuleContractReverted = "ContractReverted"
)

// Weight is a WeightV2 resource amount.
type Weight struct {
	RefTime   uint64 `json:"refTime"`
	ProofSize uint64 `json:"proofSize"`
}

func (w Weight) IsZero() bool {
	return w.RefTime == 0 && w.ProofSize == 0
}

// DispatchModule is a module error as reported by the runtime. Pallet and
// Name are filled only when the reporter could resolve them from metadata.
type DispatchModule struct {
	Index  uint8  `json:"index"`
	Error  []byte `json:"error"`
	Pallet string `json:"pallet,omitempty"`
	Name   string `json:"name,omitempty"`
}

type DispatchError struct {
	Module *DispatchModule `json:"module,omitempty"`
	// Kind is the variant name for non-module errors (BadOrigin, Token, ...).
	Kind string `json:"kind,omitempty"`
}

// RawKey is a stable textual key for errors that cannot be named.
func (d *DispatchError) RawKey() string {
	if d == nil {
		return "unknown"
	}
	if d.Module != nil {
		return fmt.Sprintf("module:%d:0x%s", d.Module.Index, hex.EncodeToString(d.Module.Error))
	}
	if d.Kind != "" {
		return d.Kind
	}
	return "unknown"
}

// ChainEvent is one decoded runtime event attached to an extrinsic.
type ChainEvent struct {
	Pallet string `json:"pallet"`
	Method string `json:"method"`
	// Contract is the emitting contract of a Contracts.ContractEmitted event.
	Contract string `json:"contract,omitempty"`
	// DispatchError accompanies System.ExtrinsicFailed.
	DispatchError *DispatchError `json:"dispatchError,omitempty"`
	// ContractVariant is the contract Error variant when revert data was decodable.
	ContractVariant string `json:"contractVariant,omitempty"`
}

func (e ChainEvent) Is(pallet, method string) bool {
	return e.Pallet == pallet && e.Method == method
}

type LifecycleKind uint8

const (
	LifecycleInBlock LifecycleKind = iota + 1
	LifecycleFinalized
	LifecycleTransportError
)

// LifecycleEvent is one status update of a submitted extrinsic.
type LifecycleEvent struct {
	Kind      LifecycleKind
	BlockHash string
	// Events is the ordered event list of the extrinsic, set on finalization.
	Events []ChainEvent
	Reason string
}

func InBlockEvent(blockHash string) LifecycleEvent {
	return LifecycleEvent{Kind: LifecycleInBlock, BlockHash: blockHash}
}

func FinalizedEvent(blockHash string, events []ChainEvent) LifecycleEvent {
	return LifecycleEvent{Kind: LifecycleFinalized, BlockHash: blockHash, Events: events}
}

func TransportErrorEvent(reason string) LifecycleEvent {
	return LifecycleEvent{Kind: LifecycleTransportError, Reason: reason}
}

// Estimate is the dry-run result of a write message.
type Estimate struct {
	GasRequired    Weight
	StorageDeposit Balance
}
