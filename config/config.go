package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every runtime parameter of the engine. Values come from
// the environment; a .env file is read when present for local runs.
type Config struct {
	DatabaseURL    string
	JWTSecretKey   string
	ServerPort     int
	MigrationsPath string

	// CompetitionMode is the deployment-wide default ("full" or
	// "pilot"); individual progression requests may override it.
	CompetitionMode string

	// ConflictSweepSpec is the cron expression for the periodic
	// scheduling-conflict sweep. Empty disables the sweep.
	ConflictSweepSpec string

	// Cloudflare R2 credentials for the snapshot archive. All five must
	// be set to enable archiving; leaving them empty disables it.
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	portStr := os.Getenv("SERVER_PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "migrations"
	}

	mode := os.Getenv("COMPETITION_MODE")
	if mode == "" {
		mode = "full"
	}
	if mode != "full" && mode != "pilot" {
		return nil, fmt.Errorf("COMPETITION_MODE must be \"full\" or \"pilot\", got %q", mode)
	}

	sweepSpec := os.Getenv("CONFLICT_SWEEP_CRON")
	if sweepSpec == "" {
		sweepSpec = "*/10 * * * *"
	}

	return &Config{
		DatabaseURL:       dbURL,
		JWTSecretKey:      jwtKey,
		ServerPort:        port,
		MigrationsPath:    migrationsPath,
		CompetitionMode:   mode,
		ConflictSweepSpec: sweepSpec,
		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
	}, nil
}

// R2Configured reports whether every credential needed for snapshot
// archiving is present.
func (c *Config) R2Configured() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicBaseURL != ""
}
