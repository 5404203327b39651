package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/market-hub/market-hub/internal/domain/policy"
)

// Config holds service configuration.
type Config struct {
	DatabaseURL      string
	DBMaxConns       int32
	ServerAddr       string
	RedisAddr        string
	RedisPassword    string
	MigrationsDir    string
	IdempotencyTTL   time.Duration
	ExpireSweepEvery time.Duration
	IdemSweepEvery   time.Duration

	Trust       policy.TrustConfig
	Restriction policy.RestrictionConfig
	Fraud       policy.FraudConfig
}

// Load reads configuration from environment.
func Load() (*Config, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		user := getenv("POSTGRES_USER", "market_hub")
		pass := getenv("POSTGRES_PASSWORD", "market_hub_pass")
		db := getenv("POSTGRES_DB", "market_hub")
		host := getenv("POSTGRES_HOST", "localhost")
		port := getenv("POSTGRES_PORT", "5432")
		sslmode := getenv("DATABASE_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, sslmode)
	}

	return &Config{
		DatabaseURL:      dsn,
		DBMaxConns:       int32(parseInt(getenv("DB_MAX_CONNS", "10"), 10)),
		ServerAddr:       getenv("SERVER_ADDR", "0.0.0.0:8080"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		MigrationsDir:    getenv("MIGRATIONS_DIR", "migrations"),
		IdempotencyTTL:   parseDuration(getenv("IDEMPOTENCY_TTL", "24h"), 24*time.Hour),
		ExpireSweepEvery: parseDuration(getenv("EXPIRE_SWEEP_INTERVAL", "1m"), time.Minute),
		IdemSweepEvery:   parseDuration(getenv("IDEMPOTENCY_SWEEP_INTERVAL", "10m"), 10*time.Minute),
		Trust:            loadTrust(),
		Restriction:      loadRestriction(),
		Fraud:            loadFraud(),
	}, nil
}

func loadTrust() policy.TrustConfig {
	def := policy.DefaultTrustConfig()
	return policy.TrustConfig{
		DisputeLimit:           parseInt(os.Getenv("TRUST_DISPUTE_LIMIT"), def.DisputeLimit),
		CancelledLimit:         parseInt(os.Getenv("TRUST_CANCELLED_LIMIT"), def.CancelledLimit),
		NewAccountDays:         parseInt(os.Getenv("TRUST_NEW_ACCOUNT_DAYS"), def.NewAccountDays),
		CancelRatioLimit:       parseFloat(os.Getenv("TRUST_CANCEL_RATIO_LIMIT"), def.CancelRatioLimit),
		EstablishedAccountDays: parseInt(os.Getenv("TRUST_ESTABLISHED_ACCOUNT_DAYS"), def.EstablishedAccountDays),
	}
}

func loadRestriction() policy.RestrictionConfig {
	def := policy.DefaultRestrictionConfig()
	return policy.RestrictionConfig{
		DisputeThreshold: parseInt(os.Getenv("RESTRICTION_DISPUTE_THRESHOLD"), def.DisputeThreshold),
	}
}

func loadFraud() policy.FraudConfig {
	def := policy.DefaultFraudConfig()
	return policy.FraudConfig{
		ListingSpikeLimit:      parseInt(os.Getenv("FRAUD_LISTING_SPIKE_LIMIT"), def.ListingSpikeLimit),
		CancellationSpikeLimit: parseInt(os.Getenv("FRAUD_CANCELLATION_SPIKE_LIMIT"), def.CancellationSpikeLimit),
		DisputeSpikeLimit:      parseInt(os.Getenv("FRAUD_DISPUTE_SPIKE_LIMIT"), def.DisputeSpikeLimit),
		NewAccountDays:         parseInt(os.Getenv("FRAUD_NEW_ACCOUNT_DAYS"), def.NewAccountDays),
		NewAccountListingLimit: parseInt(os.Getenv("FRAUD_NEW_ACCOUNT_LISTING_LIMIT"), def.NewAccountListingLimit),
	}
}

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func parseDuration(val string, def time.Duration) time.Duration {
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return def
	}
	return d
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return n
}

func parseFloat(val string, def float64) float64 {
	if val == "" {
		return def
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return def
	}
	return f
}
