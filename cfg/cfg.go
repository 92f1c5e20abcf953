/*
 *  Copyright 2018 KardiaChain
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
// Package cfg
package cfg

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ModeDev        = "dev"
	ModeProduction = "prod"
)

const (
	// DefaultFallbackMinDeposit is used only when get_min_deposit cannot be read.
	DefaultFallbackMinDeposit  = "1000000000000"
	DefaultStorageDepositLimit = "1000000000000"

	DefaultQueryRefTime   = 50_000_000_000
	DefaultQueryProofSize = 500_000

	DefaultDisplayDecimals = 12
	DefaultSS58Prefix      = 42
)

type GovernanceConfig struct {
	ServerMode string
	Port       string
	LogLevel   string
	SentryDSN  string

	// HttpRequestSecret guards the write and admin APIs.
	HttpRequestSecret string

	ChainURL         string
	ContractAddress  string
	ContractMetadata string
	ActingAccount    string
	SS58Prefix       uint16

	QueryRefTime        uint64
	QueryProofSize      uint64
	StorageDepositLimit string
	FallbackMinDeposit  string
	DisplayDecimals     int32

	PollInterval      time.Duration
	DefaultAPITimeout time.Duration
	AggregatorWorkers int

	CacheEngine      string
	CacheURL         string
	CacheDB          int
	CachePassword    string
	CacheIsFlush     bool
	CacheExpiredTime time.Duration

	StorageDriver  string
	StorageURI     string
	StorageDB      string
	StorageMinConn int
	StorageMaxConn int
	StorageIsFlush bool

	// SidecarURL decodes finalized block events.
	SidecarURL string

	// SignerURL is a remote signing service; SignerAccounts are the accounts it serves.
	SignerURL      string
	SignerAccounts []string
}

func New() (GovernanceConfig, error) {
	apiDefaultTimeoutStr := os.Getenv("DEFAULT_API_TIMEOUT")
	apiDefaultTimeout, err := strconv.Atoi(apiDefaultTimeoutStr)
	if err != nil {
		apiDefaultTimeout = 10
	}

	pollIntervalStr := os.Getenv("POLL_INTERVAL")
	pollInterval, err := time.ParseDuration(pollIntervalStr)
	if err != nil {
		pollInterval = 10 * time.Second
	}

	queryRefTime, err := strconv.ParseUint(os.Getenv("QUERY_REF_TIME"), 10, 64)
	if err != nil {
		queryRefTime = DefaultQueryRefTime
	}
	queryProofSize, err := strconv.ParseUint(os.Getenv("QUERY_PROOF_SIZE"), 10, 64)
	if err != nil {
		queryProofSize = DefaultQueryProofSize
	}

	displayDecimals, err := strconv.Atoi(os.Getenv("DISPLAY_DECIMALS"))
	if err != nil {
		displayDecimals = DefaultDisplayDecimals
	}

	ss58Prefix, err := strconv.ParseUint(os.Getenv("SS58_PREFIX"), 10, 16)
	if err != nil {
		ss58Prefix = DefaultSS58Prefix
	}

	aggregatorWorkers, err := strconv.Atoi(os.Getenv("AGGREGATOR_WORKERS"))
	if err != nil || aggregatorWorkers <= 0 {
		aggregatorWorkers = 4
	}

	cacheDB, err := strconv.Atoi(os.Getenv("CACHE_DB"))
	if err != nil {
		cacheDB = 0
	}
	cacheIsFlush, err := strconv.ParseBool(os.Getenv("CACHE_IS_FLUSH"))
	if err != nil {
		cacheIsFlush = false
	}
	cacheExpiredTime, err := time.ParseDuration(os.Getenv("CACHE_EXPIRED_TIME"))
	if err != nil {
		cacheExpiredTime = 0
	}

	storageMinConn, err := strconv.Atoi(os.Getenv("STORAGE_MIN_CONN"))
	if err != nil {
		storageMinConn = 1
	}
	storageMaxConn, err := strconv.Atoi(os.Getenv("STORAGE_MAX_CONN"))
	if err != nil {
		storageMaxConn = 8
	}
	storageIsFlush, err := strconv.ParseBool(os.Getenv("STORAGE_IS_FLUSH"))
	if err != nil {
		storageIsFlush = false
	}

	var signerAccounts []string
	if signerAccountsStr := os.Getenv("SIGNER_ACCOUNTS"); signerAccountsStr != "" {
		signerAccounts = strings.Split(signerAccountsStr, ",")
	}

	cfg := GovernanceConfig{
		ServerMode: getEnv("SERVER_MODE", ModeDev),
		Port:       getEnv("PORT", ":3000"),
		LogLevel:   os.Getenv("LOG_LEVEL"),
		SentryDSN:  os.Getenv("SENTRY_DSN"),

		HttpRequestSecret: os.Getenv("HTTP_REQUEST_SECRET"),

		ChainURL:         getEnv("CHAIN_URL", "ws://localhost:9944"),
		ContractAddress:  os.Getenv("CONTRACT_ADDRESS"),
		ContractMetadata: os.Getenv("CONTRACT_METADATA"),
		ActingAccount:    os.Getenv("ACTING_ACCOUNT"),
		SS58Prefix:       uint16(ss58Prefix),

		QueryRefTime:        queryRefTime,
		QueryProofSize:      queryProofSize,
		StorageDepositLimit: getEnv("STORAGE_DEPOSIT_LIMIT", DefaultStorageDepositLimit),
		FallbackMinDeposit:  getEnv("FALLBACK_MIN_DEPOSIT", DefaultFallbackMinDeposit),
		DisplayDecimals:     int32(displayDecimals),

		PollInterval:      pollInterval,
		DefaultAPITimeout: time.Duration(apiDefaultTimeout) * time.Second,
		AggregatorWorkers: aggregatorWorkers,

		CacheEngine:      os.Getenv("CACHE_ENGINE"),
		CacheURL:         os.Getenv("CACHE_URI"),
		CacheDB:          cacheDB,
		CachePassword:    os.Getenv("CACHE_PASSWORD"),
		CacheIsFlush:     cacheIsFlush,
		CacheExpiredTime: cacheExpiredTime,

		StorageDriver:  os.Getenv("STORAGE_DRIVER"),
		StorageURI:     os.Getenv("STORAGE_URI"),
		StorageDB:      getEnv("STORAGE_DB", "governance"),
		StorageMinConn: storageMinConn,
		StorageMaxConn: storageMaxConn,
		StorageIsFlush: storageIsFlush,

		SidecarURL: getEnv("SIDECAR_URL", "http://localhost:8080"),

		SignerURL:      os.Getenv("SIGNER_URL"),
		SignerAccounts: signerAccounts,
	}

	if cfg.ContractAddress == "" {
		return GovernanceConfig{}, errMissing("CONTRACT_ADDRESS")
	}
	return cfg, nil
}

type errMissing string

func (e errMissing) Error() string {
	return "missing " + string(e) + " in config"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
