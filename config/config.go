package config

import (
	"fmt"
	"log"

	"github.com/spf13/viper"
)

// Config holds the full application configuration loaded from environment variables or .env file.
//
// Example ENV:
//
//	SERVER_PORT=8080
//	POSTGRES_HOST=localhost
//	POSTGRES_DB=sireview
//	INPUT_TRADES=./data/input/trades.xlsx
//	INPUT_ISSUER_MASTER=./data/input/scope_trades.xlsx
//	INPUT_REFERENCE=./data/input/esma
//	EXEMPTIONS_FILE=./config/exemptions.yaml
//	OUTPUT_DIR=./data/output
//	S3_BUCKET=si-reviews
type Config struct {
	Server    ServerConfig
	Postgres  PostgresConfig
	Review    ReviewConfig
	S3        S3Config
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server settings such as the port to listen on.
type ServerConfig struct {
	Port string
}

// PostgresConfig defines connection details for PostgreSQL.
// URL is the computed DSN used by database/sql.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	URL      string
}

// ReviewConfig locates the review inputs and outputs.
//
// Fields:
//   - TradesPath: main trade feed (.csv or .xlsx).
//   - IssuerMasterPath: optional scope feed defining the issuer base; empty uses the trade feed.
//   - ReferencePath: ESMA statistics (.csv, .xlsx, .xml or a directory of .xml files).
//   - ExemptionsFile: YAML exemption table; empty uses the embedded default.
//   - OutputDir: where the workbook and summary are written.
//   - Workers: instrument evaluation concurrency; 0 picks the CPU count.
type ReviewConfig struct {
	TradesPath       string
	IssuerMasterPath string
	ReferencePath    string
	ExemptionsFile   string
	OutputDir        string
	Workers          int
}

// S3Config enables publishing of run outputs when Bucket is set.
type S3Config struct {
	Bucket          string
	Region          string
	Prefix          string
	Endpoint        string
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
}

// RateLimitConfig is the per-client token bucket of the HTTP API.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// AppConfig is the globally accessible configuration instance, populated once via LoadConfig().
var AppConfig Config

// LoadConfig initializes the global AppConfig by reading from .env file
// or directly from environment variables.
//
// Precedence (from lowest to highest):
//  1. Defaults set in this function.
//  2. Values from .env file (if present).
//  3. Environment variables.
//
// Fatal exit:
//   - If required variables are missing or invalid, validateConfig() terminates the app.
func LoadConfig() {
	viper.SetDefault("SERVER_PORT", "8080")

	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "postgres")
	viper.SetDefault("POSTGRES_PASSWORD", "postgres")
	viper.SetDefault("POSTGRES_DB", "sireview")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")

	viper.SetDefault("INPUT_TRADES", "./data/input/trades.csv")
	viper.SetDefault("INPUT_ISSUER_MASTER", "")
	viper.SetDefault("INPUT_REFERENCE", "./data/input/esma")
	viper.SetDefault("EXEMPTIONS_FILE", "")
	viper.SetDefault("OUTPUT_DIR", "./data/output")
	viper.SetDefault("REVIEW_WORKERS", 0)

	viper.SetDefault("S3_BUCKET", "")
	viper.SetDefault("S3_REGION", "us-east-1")
	viper.SetDefault("S3_PREFIX", "si-review")
	viper.SetDefault("S3_ENDPOINT", "")
	viper.SetDefault("S3_PATH_STYLE", false)
	viper.SetDefault("AWS_ACCESS_KEY_ID", "")
	viper.SetDefault("AWS_SECRET_ACCESS_KEY", "")

	viper.SetDefault("RATE_LIMIT_RPS", 10.0)
	viper.SetDefault("RATE_LIMIT_BURST", 20)

	// Optionally read from .env if present (common in local dev)
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()

	AppConfig = Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("POSTGRES_HOST"),
			Port:     viper.GetInt("POSTGRES_PORT"),
			User:     viper.GetString("POSTGRES_USER"),
			Password: viper.GetString("POSTGRES_PASSWORD"),
			DBName:   viper.GetString("POSTGRES_DB"),
			SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
		},
		Review: ReviewConfig{
			TradesPath:       viper.GetString("INPUT_TRADES"),
			IssuerMasterPath: viper.GetString("INPUT_ISSUER_MASTER"),
			ReferencePath:    viper.GetString("INPUT_REFERENCE"),
			ExemptionsFile:   viper.GetString("EXEMPTIONS_FILE"),
			OutputDir:        viper.GetString("OUTPUT_DIR"),
			Workers:          viper.GetInt("REVIEW_WORKERS"),
		},
		S3: S3Config{
			Bucket:          viper.GetString("S3_BUCKET"),
			Region:          viper.GetString("S3_REGION"),
			Prefix:          viper.GetString("S3_PREFIX"),
			Endpoint:        viper.GetString("S3_ENDPOINT"),
			PathStyle:       viper.GetBool("S3_PATH_STYLE"),
			AccessKeyID:     viper.GetString("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: viper.GetString("AWS_SECRET_ACCESS_KEY"),
		},
		RateLimit: RateLimitConfig{
			RPS:   viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst: viper.GetInt("RATE_LIMIT_BURST"),
		},
	}

	AppConfig.Postgres.URL = PostgresDSN(AppConfig.Postgres)

	validateConfig()
}

// PostgresDSN builds the postgres:// connection string for p.
func PostgresDSN(p PostgresConfig) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DBName, p.SSLMode,
	)
}

// validateConfig terminates the application with log.Fatalf when
// required variables are missing or out of range.
func validateConfig() {
	if problems := checkConfig(AppConfig); len(problems) > 0 {
		log.Fatalf("missing or invalid environment variables: %v\n", problems)
	}
}

// checkConfig lists the variables of cfg that are missing or invalid.
func checkConfig(cfg Config) []string {
	var problems []string

	if cfg.Server.Port == "" {
		problems = append(problems, "SERVER_PORT")
	}
	if cfg.Postgres.Host == "" {
		problems = append(problems, "POSTGRES_HOST")
	}
	if cfg.Postgres.Port == 0 {
		problems = append(problems, "POSTGRES_PORT")
	}
	if cfg.Postgres.User == "" {
		problems = append(problems, "POSTGRES_USER")
	}
	if cfg.Postgres.Password == "" {
		problems = append(problems, "POSTGRES_PASSWORD")
	}
	if cfg.Postgres.DBName == "" {
		problems = append(problems, "POSTGRES_DB")
	}
	if cfg.Review.OutputDir == "" {
		problems = append(problems, "OUTPUT_DIR")
	}
	if cfg.Review.Workers < 0 {
		problems = append(problems, "REVIEW_WORKERS (must be >= 0)")
	}
	if cfg.RateLimit.RPS <= 0 {
		problems = append(problems, "RATE_LIMIT_RPS (must be > 0)")
	}
	if cfg.RateLimit.Burst <= 0 {
		problems = append(problems, "RATE_LIMIT_BURST (must be > 0)")
	}
	if (cfg.S3.AccessKeyID == "") != (cfg.S3.SecretAccessKey == "") {
		problems = append(problems, "AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY (set both or neither)")
	}

	return problems
}
