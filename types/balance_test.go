package types

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalance_ZeroValue(t *testing.T) {
	var b Balance
	assert.True(t, b.IsZero())
	assert.Equal(t, "0", b.String())
	assert.True(t, b.Add(BalanceFromUint64(5)).Equal(BalanceFromUint64(5)))
}

func TestBalance_DoesNotAlias(t *testing.T) {
	v := big.NewInt(10)
	b := NewBalance(v)
	v.SetInt64(99)
	assert.Equal(t, "10", b.String())

	out := b.Int()
	out.SetInt64(1)
	assert.Equal(t, "10", b.String())
}

func TestParseBalance(t *testing.T) {
	cases := map[string]struct {
		in      string
		want    string
		wantErr bool
	}{
		"decimal":  {in: "2000000000000", want: "2000000000000"},
		"hex":      {in: "0xe8d4a51000", want: "1000000000000"},
		"empty":    {in: "", want: "0"},
		"garbage":  {in: "12ab", wantErr: true},
		"negative": {in: "-1", wantErr: true},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			b, err := ParseBalance(c.in)
			if c.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.want, b.String())
		})
	}
}

func TestBalance_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Amount Balance `json:"amount"`
	}{Amount: BalanceFromUint64(1_000_000_000_000)})
	require.NoError(t, err)
	assert.Equal(t, `{"amount":"1000000000000"}`, string(data))

	var out struct {
		Amount Balance `json:"amount"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"amount":340282366920938463463374607431768211455}`), &out))
	assert.Equal(t, "340282366920938463463374607431768211455", out.Amount.String())
}

func TestResultFromLedger(t *testing.T) {
	s := func(v string) *string { return &v }
	cases := []struct {
		closed bool
		raw    *string
		want   ProposalResult
		ok     bool
	}{
		{closed: false, raw: nil, want: ResultPending, ok: true},
		{closed: true, raw: nil, want: ResultCancelled, ok: true},
		{closed: true, raw: s("In Favor"), want: ResultPassed, ok: true},
		{closed: true, raw: s("Against"), want: ResultFailed, ok: true},
		{closed: true, raw: s("Indecision"), want: ResultFailed, ok: true},
		{closed: true, raw: s("in favor"), want: ResultPending, ok: false},
		{closed: true, raw: s(""), want: ResultPending, ok: false},
		{closed: true, raw: s("Approved"), want: ResultPending, ok: false},
	}
	for _, tc := range cases {
		got, ok := ResultFromLedger(tc.closed, tc.raw)
		assert.Equal(t, tc.want, got)
		assert.Equal(t, tc.ok, ok)
	}
}
