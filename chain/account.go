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
	"bytes"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

// AccountID is a raw 32 byte substrate account id.
type AccountID [32]byte

var ss58Prefix = []byte("SS58PRE")

var (
	errInvalidAddress  = errors.New("invalid ss58 address")
	errInvalidChecksum = errors.New("invalid ss58 checksum")
)

// DecodeAccount parses an SS58 address of any network prefix.
func DecodeAccount(address string) (AccountID, error) {
	var id AccountID
	raw, err := base58.Decode(address)
	if err != nil {
		return id, fmt.Errorf("%w: %s", errInvalidAddress, err)
	}
	prefixLen := 1
	if len(raw) > 0 && raw[0]&0x40 != 0 {
		prefixLen = 2
	}
	if len(raw) != prefixLen+32+2 {
		return id, errInvalidAddress
	}
	body := raw[:prefixLen+32]
	sum := ss58Checksum(body)
	if !bytes.Equal(sum[:2], raw[prefixLen+32:]) {
		return id, errInvalidChecksum
	}
	copy(id[:], raw[prefixLen:prefixLen+32])
	return id, nil
}

// EncodeAccount renders id as an SS58 address for the given network prefix.
func EncodeAccount(id AccountID, prefix uint16) string {
	var body []byte
	if prefix < 64 {
		body = append(body, byte(prefix))
	} else {
		body = append(body,
			byte((prefix&0x00fc)>>2)|0x40,
			byte(prefix>>8)|byte((prefix&0x0003)<<6),
		)
	}
	body = append(body, id[:]...)
	sum := ss58Checksum(body)
	return base58.Encode(append(body, sum[:2]...))
}

// NormalizeAccount re-encodes address with prefix so that equal accounts
// compare equal as strings.
func NormalizeAccount(address string, prefix uint16) (string, error) {
	id, err := DecodeAccount(address)
	if err != nil {
		return "", err
	}
	return EncodeAccount(id, prefix), nil
}

func ss58Checksum(body []byte) [64]byte {
	return blake2b.Sum512(append(append([]byte{}, ss58Prefix...), body...))
}

// SameAccount reports whether two addresses name the same account,
// whatever their network prefix.
func SameAccount(a, b string) bool {
	if a == b {
		return a != ""
	}
	idA, err := DecodeAccount(a)
	if err != nil {
		return false
	}
	idB, err := DecodeAccount(b)
	if err != nil {
		return false
	}
	return idA == idB
}
