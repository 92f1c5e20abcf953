package types

// ContractInfo is read once at connect time.
type ContractInfo struct {
	Address         string   `json:"address"`
	Owner           string   `json:"owner"`
	MinDeposit      Balance  `json:"minDeposit"`
	SupportedAssets []uint32 `json:"supportedAssets"`
	VotingPeriod    uint32   `json:"votingPeriod"`
	// MinDepositFallback is set when MinDeposit is the configured fallback
	// because the ledger read failed.
	MinDepositFallback bool     `json:"minDepositFallback"`
	Warnings           []string `json:"warnings,omitempty"`
}

func (c ContractInfo) SupportsAsset(assetID uint32) bool {
	for _, a := range c.SupportedAssets {
		if a == assetID {
			return true
		}
	}
	return false
}
