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
	"errors"
	"sort"
	"sync"

	"github.com/kardiachain/governance-tracker/types"
)

// SignRequest is a contract call to be wrapped into a signed
// Contracts.call extrinsic.
type SignRequest struct {
	Caller              string        `json:"caller"`
	Dest                string        `json:"dest"`
	Value               types.Balance `json:"value"`
	GasLimit            types.Weight  `json:"gasLimit"`
	StorageDepositLimit types.Balance `json:"storageDepositLimit"`
	Data                []byte        `json:"data"`
}

// Signer produces signed extrinsics for one account.
type Signer interface {
	SignCall(ctx context.Context, req SignRequest) ([]byte, error)
}

// SignerSource hands out signers by account.
type SignerSource interface {
	Signer(ctx context.Context, account string) (Signer, error)
}

// Keyring is a SignerSource backed by registered signers.
type Keyring struct {
	mtx     sync.RWMutex
	prefix  uint16
	signers map[string]Signer
}

func NewKeyring(prefix uint16) *Keyring {
	return &Keyring{prefix: prefix, signers: make(map[string]Signer)}
}

func (k *Keyring) Register(account string, signer Signer) error {
	key, err := NormalizeAccount(account, k.prefix)
	if err != nil {
		return err
	}
	k.mtx.Lock()
	defer k.mtx.Unlock()
	k.signers[key] = signer
	return nil
}

func (k *Keyring) Signer(_ context.Context, account string) (Signer, error) {
	key, err := NormalizeAccount(account, k.prefix)
	if err != nil {
		return nil, types.WrapFault(types.ErrSigningUnavailable, err)
	}
	k.mtx.RLock()
	defer k.mtx.RUnlock()
	s, ok := k.signers[key]
	if !ok {
		return nil, types.NewFault(types.ErrSigningUnavailable, "no signer for account "+account)
	}
	return s, nil
}

func (k *Keyring) Accounts() []string {
	k.mtx.RLock()
	defer k.mtx.RUnlock()
	accounts := make([]string, 0, len(k.signers))
	for a := range k.signers {
		accounts = append(accounts, a)
	}
	sort.Strings(accounts)
	return accounts
}

func signingFault(err error) error {
	var f *types.Fault
	if errors.As(err, &f) {
		return err
	}
	return types.WrapFault(types.ErrSigningUnavailable, err)
}
