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
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ChainSafe/gossamer/pkg/scale"
	"github.com/tidwall/gjson"
	"golang.org/x/crypto/blake2b"
)

// Governance contract messages.
const (
	MsgGetProposalCount   = "get_proposal_count"
	MsgGetProposal        = "get_proposal"
	MsgGetVoters          = "get_voters"
	MsgGetVoterStakes     = "get_voter_stakes"
	MsgGetMinDeposit      = "get_min_deposit"
	MsgGetOwner           = "get_owner"
	MsgGetSupportedAssets = "get_supported_assets"
	MsgGetVotingPeriod    = "get_voting_period"
	MsgSubmitProposal     = "submit_proposal"
	MsgVoteFor            = "vote_for"
	MsgVoteAgainst        = "vote_against"
	MsgCloseVote          = "close_vote"
	MsgCancelProposal     = "cancel_proposal"
)

// contractErrors are the Error enum variants in declaration order.
var contractErrors = []string{
	"ProposalNotFound",
	"ProposalClosed",
	"InsufficientDeposit",
	"NotCreator",
	"NotOwner",
	"VotingPeriodEnded",
	"AlreadyClosed",
	"InvalidAsset",
	"ReferendumSubmissionFailed",
}

var langErrors = []string{"CouldNotReadInput"}

var (
	errLangError     = errors.New("ink lang error")
	errEmptyResponse = errors.New("empty message response")
)

// Selector is the 4 byte ink message selector.
type Selector [4]byte

func (s Selector) Hex() string {
	return "0x" + hex.EncodeToString(s[:])
}

// SelectorFor derives the default ink selector of a message label.
func SelectorFor(label string) Selector {
	var s Selector
	sum := blake2b.Sum256([]byte(label))
	copy(s[:], sum[:4])
	return s
}

// Codec encodes message calls and decodes their results. Selectors are
// derived from labels unless a contract metadata document overrides them.
type Codec struct {
	selectors map[string]Selector
}

// NewCodec builds a codec. metadata is the contract's metadata JSON and
// may be empty.
func NewCodec(metadata []byte) (*Codec, error) {
	c := &Codec{selectors: make(map[string]Selector)}
	if len(metadata) == 0 {
		return c, nil
	}
	if !gjson.ValidBytes(metadata) {
		return nil, fmt.Errorf("invalid contract metadata")
	}
	var parseErr error
	gjson.GetBytes(metadata, "spec.messages").ForEach(func(_, msg gjson.Result) bool {
		label := msg.Get("label").String()
		raw := strings.TrimPrefix(msg.Get("selector").String(), "0x")
		b, err := hex.DecodeString(raw)
		if err != nil || len(b) != 4 {
			parseErr = fmt.Errorf("invalid selector for message %s", label)
			return false
		}
		var s Selector
		copy(s[:], b)
		c.selectors[label] = s
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return c, nil
}

func (c *Codec) Selector(label string) Selector {
	if s, ok := c.selectors[label]; ok {
		return s
	}
	return SelectorFor(label)
}

// EncodeCall returns selector || SCALE(args...).
func (c *Codec) EncodeCall(label string, args ...interface{}) ([]byte, error) {
	sel := c.Selector(label)
	input := append([]byte{}, sel[:]...)
	for i, arg := range args {
		b, err := scale.Marshal(arg)
		if err != nil {
			return nil, fmt.Errorf("encode %s arg %d: %w", label, i, err)
		}
		input = append(input, b...)
	}
	return input, nil
}

// unwrapLang strips the Result<T, LangError> envelope of a message return.
func unwrapLang(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errEmptyResponse
	}
	if data[0] != 0 {
		name := "unknown"
		if len(data) > 1 && int(data[1]) < len(langErrors) {
			name = langErrors[data[1]]
		}
		return nil, fmt.Errorf("%w: %s", errLangError, name)
	}
	return data[1:], nil
}

// DecodeReturn decodes a successful message return into dst.
func DecodeReturn(data []byte, dst interface{}) error {
	body, err := unwrapLang(data)
	if err != nil {
		return err
	}
	return scale.Unmarshal(body, dst)
}

// DecodeOption decodes an Option<T> return. It reports false for None.
func DecodeOption(data []byte, dst interface{}) (bool, error) {
	body, err := unwrapLang(data)
	if err != nil {
		return false, err
	}
	if len(body) == 0 {
		return false, errEmptyResponse
	}
	switch body[0] {
	case 0:
		return false, nil
	case 1:
		return true, scale.Unmarshal(body[1:], dst)
	}
	return false, fmt.Errorf("invalid option tag %d", body[0])
}

// ContractVariant decodes the contract Error variant carried by a
// Result<Result<_, Error>, LangError> return, typically revert data. It
// reports false when data is not an Err.
func ContractVariant(data []byte) (string, bool) {
	body, err := unwrapLang(data)
	if err != nil || len(body) < 2 || body[0] != 1 {
		return "", false
	}
	if int(body[1]) >= len(contractErrors) {
		return fmt.Sprintf("Error(%d)", body[1]), true
	}
	return contractErrors[body[1]], true
}

// u128 is a little endian unsigned 128 bit integer.
type u128 [16]byte

func (u u128) Big() *big.Int {
	be := make([]byte, 16)
	for i := range u {
		be[15-i] = u[i]
	}
	return new(big.Int).SetBytes(be)
}

func newU128(v *big.Int) (u128, error) {
	var u u128
	if v.Sign() < 0 || v.BitLen() > 128 {
		return u, fmt.Errorf("value %s out of u128 range", v)
	}
	be := v.Bytes()
	for i := range be {
		u[i] = be[len(be)-1-i]
	}
	return u, nil
}
