// Package types
package types

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// Balance is an amount in the ledger's base unit. The zero value is 0.
type Balance struct {
	v *big.Int
}

func NewBalance(v *big.Int) Balance {
	if v == nil {
		return Balance{}
	}
	return Balance{v: new(big.Int).Set(v)}
}

func BalanceFromUint64(v uint64) Balance {
	return Balance{v: new(big.Int).SetUint64(v)}
}

func ParseBalance(s string) (Balance, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Balance{}, nil
	}
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s, base = s[2:], 16
	}
	v, ok := new(big.Int).SetString(s, base)
	if !ok || v.Sign() < 0 {
		return Balance{}, fmt.Errorf("invalid balance %q", s)
	}
	return Balance{v: v}, nil
}

// Int returns a copy of the underlying integer.
func (b Balance) Int() *big.Int {
	if b.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(b.v)
}

func (b Balance) Add(o Balance) Balance {
	return Balance{v: new(big.Int).Add(b.Int(), o.Int())}
}

func (b Balance) Cmp(o Balance) int {
	return b.Int().Cmp(o.Int())
}

func (b Balance) Equal(o Balance) bool {
	return b.Cmp(o) == 0
}

func (b Balance) Sign() int {
	if b.v == nil {
		return 0
	}
	return b.v.Sign()
}

func (b Balance) IsZero() bool {
	return b.Sign() == 0
}

func (b Balance) String() string {
	if b.v == nil {
		return "0"
	}
	return b.v.String()
}

func (b Balance) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

func (b *Balance) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// plain JSON numbers are accepted too
		s = string(data)
	}
	v, err := ParseBalance(s)
	if err != nil {
		return err
	}
	*b = v
	return nil
}

func (b Balance) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bsontype.String, bsoncore.AppendString(nil, b.String()), nil
}

func (b *Balance) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	if t != bsontype.String {
		return fmt.Errorf("cannot decode balance from bson type %s", t)
	}
	s, _, ok := bsoncore.ReadString(data)
	if !ok {
		return fmt.Errorf("malformed bson balance")
	}
	v, err := ParseBalance(s)
	if err != nil {
		return err
	}
	*b = v
	return nil
}
