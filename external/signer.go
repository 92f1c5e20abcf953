package external

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/kardiachain/governance-tracker/chain"
	"github.com/kardiachain/governance-tracker/types"
)

// RemoteSigner asks a signing service to build and sign Contracts.call
// extrinsics for one account.
type RemoteSigner struct {
	url     string
	account string
	client  *http.Client
}

type signPayload struct {
	Account             string       `json:"account"`
	Dest                string       `json:"dest"`
	Value               string       `json:"value"`
	GasLimit            types.Weight `json:"gasLimit"`
	StorageDepositLimit string       `json:"storageDepositLimit"`
	Data                string       `json:"data"`
}

type signResponse struct {
	Extrinsic string `json:"extrinsic"`
	Error     string `json:"error"`
}

func NewRemoteSigner(url, account string) *RemoteSigner {
	var netTransport = &http.Transport{
		Dial: (&net.Dialer{
			Timeout: 5 * time.Second,
		}).Dial,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &RemoteSigner{
		url:     strings.TrimRight(url, "/"),
		account: account,
		client: &http.Client{
			Timeout:   time.Second * 30,
			Transport: netTransport,
		},
	}
}

// RegisterRemoteSigners registers one RemoteSigner per account.
func RegisterRemoteSigners(k *chain.Keyring, url string, accounts []string) error {
	for _, account := range accounts {
		account = strings.TrimSpace(account)
		if account == "" {
			continue
		}
		if err := k.Register(account, NewRemoteSigner(url, account)); err != nil {
			return fmt.Errorf("register signer %s: %w", account, err)
		}
	}
	return nil
}

func (s *RemoteSigner) SignCall(ctx context.Context, req chain.SignRequest) ([]byte, error) {
	payload, err := json.Marshal(signPayload{
		Account:             s.account,
		Dest:                req.Dest,
		Value:               req.Value.String(),
		GasLimit:            req.GasLimit,
		StorageDepositLimit: req.StorageDepositLimit.String(),
		Data:                "0x" + hex.EncodeToString(req.Data),
	})
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url+"/sign", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	response, err := s.client.Do(httpReq)
	if err != nil {
		return nil, types.WrapFault(types.ErrSigningUnavailable, err)
	}
	defer response.Body.Close()
	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, types.WrapFault(types.ErrSigningUnavailable, err)
	}
	var res signResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, types.NewFault(types.ErrSigningUnavailable, fmt.Sprintf("signer returned %d", response.StatusCode))
	}
	if response.StatusCode != http.StatusOK || res.Error != "" {
		return nil, types.NewFault(types.ErrSigningUnavailable, "signer rejected request: "+res.Error)
	}
	extrinsic, err := hex.DecodeString(strings.TrimPrefix(res.Extrinsic, "0x"))
	if err != nil || len(extrinsic) == 0 {
		return nil, types.NewFault(types.ErrSigningUnavailable, "signer returned no extrinsic")
	}
	return extrinsic, nil
}
