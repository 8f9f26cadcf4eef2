package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is built once at startup and passed by reference. Nothing in the
// engine mutates it after construction.
type Config struct {
	HTTP     HTTPConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Postgres PostgresConfig
	Proofing ProofingConfig
	Vendors  VendorsConfig
}

// HTTPConfig captures the poll/health/metrics server settings.
type HTTPConfig struct {
	Addr string
}

// RedisConfig captures connection settings for the result/session store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig captures the job queue settings.
type KafkaConfig struct {
	Brokers       []string
	JobTopic      string
	ConsumerGroup string
}

// PostgresConfig captures the profile/audit database settings.
type PostgresConfig struct {
	URL string
}

// ProofingConfig captures everything the proofing engine itself needs:
// which vendor serves each stage, whether mocks may stand in for missing
// vendors, call deadlines, fingerprint keys, and the fraud-signal issuer set.
type ProofingConfig struct {
	// VendorList is an ordered list of "name:stage" entries, e.g.
	// ["lexisnexis:resolution", "aamva:state_id", "lexisnexis:address"].
	VendorList []string

	// MockFallback substitutes deterministic stub vendors for stages with no
	// configured vendor. Consulted only at registry build time.
	MockFallback bool

	// VendorTimeout bounds every synchronous vendor call.
	VendorTimeout time.Duration

	// ResultTTL bounds how long async results and capture sessions live in
	// the result store.
	ResultTTL time.Duration

	// SsnFingerprintKeys is the ordered HMAC key ring, current key first.
	// Older keys are kept so fingerprints written before a rotation still
	// match; how long to retain them is an operational decision.
	SsnFingerprintKeys []string

	// FacialMatchIssuers is the set of relying parties whose users are in
	// scope for cross-profile duplicate-SSN detection.
	FacialMatchIssuers []string
}

// VendorsConfig carries credentials for the real vendor integrations. A
// vendor with an empty base URL is simply not constructed; whether that is
// fatal depends on the vendor list and mock fallback.
type VendorsConfig struct {
	LexisNexis LexisNexisConfig
	AAMVA      AAMVAConfig
}

// LexisNexisConfig carries the RDP account settings.
type LexisNexisConfig struct {
	BaseURL   string
	AccountID string
	Username  string
	Password  string
	Mode      string
}

// AAMVAConfig carries the DLDV account settings.
type AAMVAConfig struct {
	BaseURL  string
	ClientID string
	Secret   string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr: envOr("IDPROOF_ADDR", ":8080"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:       envList("KAFKA_BROKERS", []string{"localhost:9092"}),
			JobTopic:      envOr("KAFKA_JOB_TOPIC", "proofing.jobs"),
			ConsumerGroup: envOr("KAFKA_CONSUMER_GROUP", "idproof-worker"),
		},
		Postgres: PostgresConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Proofing: ProofingConfig{
			VendorList:         envList("PROOFING_VENDORS", nil),
			MockFallback:       os.Getenv("PROOFING_MOCK_FALLBACK") == "true",
			VendorTimeout:      envDuration("PROOFING_VENDOR_TIMEOUT", 10*time.Second),
			ResultTTL:          envDuration("PROOFING_RESULT_TTL", time.Hour),
			SsnFingerprintKeys: envList("SSN_FINGERPRINT_KEYS", nil),
			FacialMatchIssuers: envList("FACIAL_MATCH_ISSUERS", nil),
		},
		Vendors: VendorsConfig{
			LexisNexis: LexisNexisConfig{
				BaseURL:   os.Getenv("LEXISNEXIS_BASE_URL"),
				AccountID: os.Getenv("LEXISNEXIS_ACCOUNT_ID"),
				Username:  os.Getenv("LEXISNEXIS_USERNAME"),
				Password:  os.Getenv("LEXISNEXIS_PASSWORD"),
				Mode:      envOr("LEXISNEXIS_MODE", "testing"),
			},
			AAMVA: AAMVAConfig{
				BaseURL:  os.Getenv("AAMVA_BASE_URL"),
				ClientID: os.Getenv("AAMVA_CLIENT_ID"),
				Secret:   os.Getenv("AAMVA_SECRET"),
			},
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
