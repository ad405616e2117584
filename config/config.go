package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string `validate:"required"`
	ServerPort  int    `validate:"min=1,max=65535"`

	// R2 settings are all-or-nothing; without them ballots are not archived.
	R2AccountID       string `validate:"required_with=R2AccessKeyID R2SecretAccessKey R2BucketName R2PublicBaseURL"`
	R2AccessKeyID     string `validate:"required_with=R2AccountID"`
	R2SecretAccessKey string `validate:"required_with=R2AccountID"`
	R2BucketName      string `validate:"required_with=R2AccountID"`
	R2PublicBaseURL   string `validate:"required_with=R2AccountID,omitempty,url"`

	CORSAllowedOrigins []string
	// BallotRateLimit is the number of ballot submissions allowed per client per minute.
	BallotRateLimit int `validate:"min=1"`
	// TrustProxy makes client addresses come from forwarding headers.
	TrustProxy bool
}

// ArchiveEnabled reports whether R2 credentials were supplied.
func (c *Config) ArchiveEnabled() bool { return c.R2AccountID != "" }

// Load reads the configuration from the environment, loading a .env file
// first when one is present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	rateLimit, err := intEnv("BALLOT_RATE_LIMIT", 30)
	if err != nil {
		return nil, err
	}

	trustProxy, err := boolEnv("TRUST_PROXY", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		ServerPort:         port,
		R2AccountID:        os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:      os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey:  os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:       os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:    os.Getenv("R2_PUBLIC_BASE_URL"),
		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS"), []string{"*"}),
		BallotRateLimit:    rateLimit,
		TrustProxy:         trustProxy,
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return n, nil
}

func boolEnv(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return b, nil
}

func splitList(v string, def []string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
