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
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/kardiachain/governance-tracker/types"
)

// Node is the chain RPC transport used by the contract client.
type Node interface {
	ContractCall(ctx context.Context, req ContractCallRequest) (*ExecResult, error)
	SubmitAndWatch(ctx context.Context, extrinsic []byte) (<-chan types.LifecycleEvent, error)
	Close()
}

// ContractCallRequest is the contracts_call request body.
type ContractCallRequest struct {
	Origin              string        `json:"origin"`
	Dest                string        `json:"dest"`
	Value               string        `json:"value"`
	GasLimit            *types.Weight `json:"gasLimit"`
	StorageDepositLimit *string       `json:"storageDepositLimit"`
	InputData           string        `json:"inputData"`
}

// ExecResult is a decoded contracts_call response.
type ExecResult struct {
	GasConsumed    types.Weight
	GasRequired    types.Weight
	StorageDeposit types.Balance
	DebugMessage   string
	Reverted       bool
	Data           []byte
	// DispatchError is set when the call was rejected before returning.
	DispatchError *types.DispatchError
}

// revertFlag is bit 0 of ReturnFlags.
const revertFlag = 1

type node struct {
	url     string
	c       *rpc.Client
	decoder EventDecoder
	lgr     *zap.Logger
}

// NewNode dials url. decoder resolves the events of finalized extrinsics
// and may be nil, in which case finalized operations carry no events.
func NewNode(url string, decoder EventDecoder, lgr *zap.Logger) (Node, error) {
	c, err := rpc.DialContext(context.Background(), url)
	if err != nil {
		return nil, err
	}
	return &node{
		url:     url,
		c:       c,
		decoder: decoder,
		lgr:     lgr.With(zap.String("node", url)),
	}, nil
}

func (n *node) ContractCall(ctx context.Context, req ContractCallRequest) (*ExecResult, error) {
	var raw json.RawMessage
	if err := n.c.CallContext(ctx, &raw, "contracts_call", req); err != nil {
		return nil, types.WrapFault(types.ErrTransport, err)
	}
	res, err := parseExecResult(raw)
	if err != nil {
		return nil, types.WrapFault(types.ErrTransport, err)
	}
	return res, nil
}

func (n *node) Close() {
	n.c.Close()
}

func parseExecResult(raw []byte) (*ExecResult, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("malformed contracts_call response")
	}
	doc := gjson.ParseBytes(raw)
	consumed, err := parseWeight(field(doc, "gasConsumed"))
	if err != nil {
		return nil, fmt.Errorf("gasConsumed: %w", err)
	}
	required, err := parseWeight(field(doc, "gasRequired"))
	if err != nil {
		return nil, fmt.Errorf("gasRequired: %w", err)
	}
	res := &ExecResult{
		GasConsumed:  consumed,
		GasRequired:  required,
		DebugMessage: field(doc, "debugMessage").String(),
	}
	if charge := field(field(doc, "storageDeposit"), "charge"); charge.Exists() {
		deposit, err := ParseNumberOrHex(charge)
		if err != nil {
			return nil, err
		}
		res.StorageDeposit = types.NewBalance(deposit)
	}

	result := field(doc, "result")
	if !result.Exists() {
		return nil, fmt.Errorf("contracts_call response has no result")
	}
	if errVal := field(result, "err"); errVal.Exists() {
		res.DispatchError = ParseDispatchError(errVal)
		return res, nil
	}
	okVal := field(result, "ok")
	if !okVal.Exists() {
		return nil, fmt.Errorf("contracts_call result is neither ok nor err")
	}
	res.Reverted = field(field(okVal, "flags"), "bits").Uint()&revertFlag != 0
	data, err := decodeHex(field(okVal, "data").String())
	if err != nil {
		return nil, err
	}
	res.Data = data
	return res, nil
}

// ParseDispatchError reads the JSON form of sp_runtime::DispatchError.
func ParseDispatchError(v gjson.Result) *types.DispatchError {
	if v.Type == gjson.String {
		return &types.DispatchError{Kind: v.String()}
	}
	if module := field(v, "module"); module.Exists() {
		m := &types.DispatchModule{Index: uint8(field(module, "index").Uint())}
		errField := field(module, "error")
		if errField.Type == gjson.String {
			m.Error, _ = decodeHex(errField.String())
		} else {
			m.Error = []byte{byte(errField.Uint())}
		}
		return &types.DispatchError{Module: m}
	}
	d := &types.DispatchError{}
	v.ForEach(func(key, _ gjson.Result) bool {
		d.Kind = upperFirst(key.String())
		return false
	})
	return d
}

func parseWeight(v gjson.Result) (types.Weight, error) {
	refTime, err := weightPart(field(v, "refTime"))
	if err != nil {
		return types.Weight{}, fmt.Errorf("refTime: %w", err)
	}
	proofSize, err := weightPart(field(v, "proofSize"))
	if err != nil {
		return types.Weight{}, fmt.Errorf("proofSize: %w", err)
	}
	return types.Weight{RefTime: refTime, ProofSize: proofSize}, nil
}

func weightPart(v gjson.Result) (uint64, error) {
	n, err := ParseNumberOrHex(v)
	if err != nil {
		return 0, err
	}
	if !n.IsUint64() {
		return 0, fmt.Errorf("weight %s out of range", n)
	}
	return n.Uint64(), nil
}

// ParseNumberOrHex reads a JSON number or 0x prefixed hex string.
func ParseNumberOrHex(v gjson.Result) (*big.Int, error) {
	switch v.Type {
	case gjson.Null:
		return new(big.Int), nil
	case gjson.Number:
		n, ok := new(big.Int).SetString(v.Raw, 10)
		if !ok {
			return nil, fmt.Errorf("invalid number %s", v.Raw)
		}
		return n, nil
	case gjson.String:
		s := v.String()
		base := 10
		if strings.HasPrefix(s, "0x") {
			s, base = s[2:], 16
		}
		if s == "" {
			return new(big.Int), nil
		}
		n, ok := new(big.Int).SetString(s, base)
		if !ok {
			return nil, fmt.Errorf("invalid number %q", v.String())
		}
		return n, nil
	}
	return nil, fmt.Errorf("unexpected number type %s", v.Type)
}

// field looks up key, tolerating the lower and upper camel case forms
// that different node versions emit.
func field(v gjson.Result, key string) gjson.Result {
	if r := v.Get(key); r.Exists() {
		return r
	}
	return v.Get(upperFirst(key))
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return nil, nil
	}
	return hex.DecodeString(s)
}

func encodeHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

func hexQuantity(v *big.Int) string {
	if v == nil || v.Sign() == 0 {
		return "0x0"
	}
	return "0x" + v.Text(16)
}
