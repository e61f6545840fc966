// Package config loads the process configuration from environment
// variables so main stays lean. The fee schedule is validated here once;
// a misconfigured distribution key refuses to start the server.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"locregistry/internal/fees"
	id "locregistry/pkg/domain"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
}

// PostgresConfig captures the Postgres connection settings. An empty URL
// selects the in-memory stores.
type PostgresConfig struct {
	URL string
}

// RedisConfig captures the Redis connection settings. An empty URL
// disables the verification cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig captures the audit sink settings. No brokers means audit
// events go to the log only.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// ChainConfig captures the block counter parameters used for collection
// submission windows.
type ChainConfig struct {
	Genesis       time.Time
	BlockDuration time.Duration
}

// FeesConfig carries the fee schedule plus the two system beneficiary
// accounts of fee distribution.
type FeesConfig struct {
	Schedule          fees.Schedule
	CommunityTreasury id.AccountID
	LegalOfficersPool id.AccountID
}

// Config is the full process configuration.
type Config struct {
	Server   Server
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Chain    ChainConfig
	Fees     FeesConfig

	// LegalOfficers seeds the authority directory at startup.
	LegalOfficers []id.AccountID
}

// FromEnv builds the configuration from environment variables, applying
// development defaults. The returned error is fatal: it means the fee
// schedule or an account id is malformed.
func FromEnv() (Config, error) {
	cfg := Config{
		Server: Server{
			Addr:          envOr("LOCREGISTRY_ADDR", ":8080"),
			JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			JWTIssuer:     envOr("JWT_ISSUER", "locregistry"),
			JWTAudience:   envOr("JWT_AUDIENCE", "locregistry-api"),
		},
		Postgres: PostgresConfig{
			URL: os.Getenv("POSTGRES_URL"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envIntOr("REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDurationOr("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDurationOr("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDurationOr("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:    splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
			AuditTopic: envOr("KAFKA_AUDIT_TOPIC", "locregistry.audit"),
		},
	}

	chain, err := chainFromEnv()
	if err != nil {
		return Config{}, err
	}
	cfg.Chain = chain

	feesCfg, err := feesFromEnv()
	if err != nil {
		return Config{}, err
	}
	cfg.Fees = feesCfg

	for _, raw := range splitNonEmpty(os.Getenv("LEGAL_OFFICERS")) {
		officer, err := id.ParseAccountID(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse LEGAL_OFFICERS entry %q: %w", raw, err)
		}
		cfg.LegalOfficers = append(cfg.LegalOfficers, officer)
	}

	return cfg, nil
}

func chainFromEnv() (ChainConfig, error) {
	genesis := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	if raw := os.Getenv("CHAIN_GENESIS"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return ChainConfig{}, fmt.Errorf("parse CHAIN_GENESIS: %w", err)
		}
		genesis = parsed
	}
	blockDuration := envDurationOr("CHAIN_BLOCK_DURATION", 6*time.Second)
	if blockDuration <= 0 {
		return ChainConfig{}, fmt.Errorf("CHAIN_BLOCK_DURATION must be positive")
	}
	return ChainConfig{Genesis: genesis, BlockDuration: blockDuration}, nil
}

func feesFromEnv() (FeesConfig, error) {
	split := fees.DistributionKey{
		LocOwnerPercent:          uint8(envIntOr("FEE_SPLIT_LOC_OWNER", 50)),
		CommunityTreasuryPercent: uint8(envIntOr("FEE_SPLIT_COMMUNITY_TREASURY", 30)),
		LegalOfficersPercent:     uint8(envIntOr("FEE_SPLIT_LEGAL_OFFICERS", 20)),
	}
	// The value fee is a reserve on the requester; when released it goes
	// to the officer side only.
	valueSplit := fees.DistributionKey{
		LocOwnerPercent:          uint8(envIntOr("VALUE_FEE_SPLIT_LOC_OWNER", 80)),
		CommunityTreasuryPercent: uint8(envIntOr("VALUE_FEE_SPLIT_COMMUNITY_TREASURY", 20)),
		LegalOfficersPercent:     uint8(envIntOr("VALUE_FEE_SPLIT_LEGAL_OFFICERS", 0)),
	}

	schedule := fees.Schedule{
		FileStorageEntryFee: id.Balance(envIntOr("FILE_STORAGE_ENTRY_FEE", 100)),
		FileStorageByteFee:  id.Balance(envIntOr("FILE_STORAGE_BYTE_FEE", 1)),
		CertificateFee:      id.Balance(envIntOr("CERTIFICATE_FEE", 40)),

		FileStorageKey:         split,
		CertificateKey:         split,
		IdentityLegalFeeKey:    split,
		TransactionLegalFeeKey: split,
		CollectionLegalFeeKey:  split,
		ValueFeeKey:            valueSplit,
		CollectionItemFeeKey:   split,
		TokensRecordFeeKey:     split,
	}
	if err := schedule.Validate(); err != nil {
		return FeesConfig{}, fmt.Errorf("fee schedule: %w", err)
	}

	treasury, err := accountFromEnv("COMMUNITY_TREASURY_ACCOUNT")
	if err != nil {
		return FeesConfig{}, err
	}
	pool, err := accountFromEnv("LEGAL_OFFICERS_POOL_ACCOUNT")
	if err != nil {
		return FeesConfig{}, err
	}

	return FeesConfig{
		Schedule:          schedule,
		CommunityTreasury: treasury,
		LegalOfficersPool: pool,
	}, nil
}

// accountFromEnv parses a system account id, minting a fresh one for
// development when the variable is unset.
func accountFromEnv(key string) (id.AccountID, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return id.NewAccountID(), nil
	}
	account, err := id.ParseAccountID(raw)
	if err != nil {
		return id.AccountID{}, fmt.Errorf("parse %s: %w", key, err)
	}
	return account, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitNonEmpty(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
