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

type ContractConfig struct {
	Node    Node
	Codec   *Codec
	Address string
	// ReadOrigin is the caller used for typed reads. Defaults to Address.
	ReadOrigin string
	QueryGas   types.Weight
	SS58Prefix uint16
	Logger     *zap.Logger
}

// Contract is a client of one deployed governance contract.
type Contract struct {
	node       Node
	codec      *Codec
	address    string
	readOrigin string
	queryGas   types.Weight
	prefix     uint16
	lgr        *zap.Logger
}

// CallRequest is a mutating message call.
type CallRequest struct {
	Method              string
	Caller              string
	Value               types.Balance
	GasLimit            types.Weight
	StorageDepositLimit types.Balance
	Args                []interface{}
}

// Rejection is a dry run refused by the runtime, carried as the wrapped
// error of a GasEstimationFailed fault.
type Rejection struct {
	Method string
	Event  types.ChainEvent
}

func (r *Rejection) Error() string {
	if r.Event.ContractVariant != "" {
		return fmt.Sprintf("%s reverted with %s", r.Method, r.Event.ContractVariant)
	}
	return fmt.Sprintf("%s rejected with %s", r.Method, r.Event.DispatchError.RawKey())
}

func NewContract(cfg ContractConfig) (*Contract, error) {
	if cfg.Node == nil {
		return nil, fmt.Errorf("contract client requires a node")
	}
	if _, err := DecodeAccount(cfg.Address); err != nil {
		return nil, fmt.Errorf("contract address: %w", err)
	}
	codec := cfg.Codec
	if codec == nil {
		codec, _ = NewCodec(nil)
	}
	origin := cfg.ReadOrigin
	if origin == "" {
		origin = cfg.Address
	}
	lgr := cfg.Logger
	if lgr == nil {
		lgr = zap.NewNop()
	}
	return &Contract{
		node:       cfg.Node,
		codec:      codec,
		address:    cfg.Address,
		readOrigin: origin,
		queryGas:   cfg.QueryGas,
		prefix:     cfg.SS58Prefix,
		lgr:        lgr,
	}, nil
}

func (c *Contract) Address() string {
	return c.address
}

func (c *Contract) QueryGas() types.Weight {
	return c.queryGas
}

// Query performs a read-only message call and returns the raw message return.
func (c *Contract) Query(ctx context.Context, method, caller string, gasLimit types.Weight, args ...interface{}) ([]byte, error) {
	res, err := c.call(ctx, method, caller, types.Balance{}, gasLimit, args)
	if err != nil {
		return nil, err
	}
	if res.DispatchError != nil {
		return nil, types.NewFault(types.ErrTransport, fmt.Sprintf("query %s rejected with %s", method, res.DispatchError.RawKey()))
	}
	if res.Reverted {
		return nil, types.NewFault(types.ErrTransport, fmt.Sprintf("query %s reverted", method))
	}
	return res.Data, nil
}

// DryRun simulates a mutating call and returns its resource estimate.
func (c *Contract) DryRun(ctx context.Context, method, caller string, value types.Balance, gasLimit types.Weight, args ...interface{}) (types.Estimate, error) {
	lgr := c.lgr.With(zap.String("method", "DryRun"), zap.String("message", method))
	res, err := c.call(ctx, method, caller, value, gasLimit, args)
	if err != nil {
		return types.Estimate{}, types.WrapFault(types.ErrGasEstimationFailed, err)
	}
	var rej *Rejection
	switch {
	case res.DispatchError != nil:
		rej = &Rejection{Method: method, Event: types.ChainEvent{
			Pallet:        types.PalletSystem,
			Method:        types.EventExtrinsicFailed,
			DispatchError: res.DispatchError,
		}}
	case res.Reverted:
		variant, _ := ContractVariant(res.Data)
		rej = &Rejection{Method: method, Event: types.ChainEvent{
			Pallet: types.PalletSystem,
			Method: types.EventExtrinsicFailed,
			DispatchError: &types.DispatchError{Module: &types.DispatchModule{
				Pallet: types.PalletContracts,
				Name:   types.ModuleContractReverted,
			}},
			ContractVariant: variant,
		}}
	}
	if rej != nil {
		lgr.Debug("dry run rejected", zap.Error(rej), zap.String("debug", res.DebugMessage))
		return types.Estimate{}, types.WrapFault(types.ErrGasEstimationFailed, rej)
	}
	required := res.GasRequired
	if required.IsZero() {
		required = res.GasConsumed
	}
	return types.Estimate{GasRequired: required, StorageDeposit: res.StorageDeposit}, nil
}

// Submit signs the call with signer and broadcasts it.
func (c *Contract) Submit(ctx context.Context, req CallRequest, signer Signer) (<-chan types.LifecycleEvent, error) {
	input, err := c.codec.EncodeCall(req.Method, req.Args...)
	if err != nil {
		return nil, types.WrapFault(types.ErrInvalidArgument, err)
	}
	extrinsic, err := signer.SignCall(ctx, SignRequest{
		Caller:              req.Caller,
		Dest:                c.address,
		Value:               req.Value,
		GasLimit:            req.GasLimit,
		StorageDepositLimit: req.StorageDepositLimit,
		Data:                input,
	})
	if err != nil {
		return nil, signingFault(err)
	}
	return c.node.SubmitAndWatch(ctx, extrinsic)
}

func (c *Contract) call(ctx context.Context, method, caller string, value types.Balance, gasLimit types.Weight, args []interface{}) (*ExecResult, error) {
	input, err := c.codec.EncodeCall(method, args...)
	if err != nil {
		return nil, types.WrapFault(types.ErrInvalidArgument, err)
	}
	gas := gasLimit
	return c.node.ContractCall(ctx, ContractCallRequest{
		Origin:    caller,
		Dest:      c.address,
		Value:     hexQuantity(value.Int()),
		GasLimit:  &gas,
		InputData: encodeHex(input),
	})
}
