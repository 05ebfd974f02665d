package cfg

import (
	"cmp"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBHost     string `long:"db-host" env:"DB_HOST" default:"localhost" description:"Database host"`
	DBPort     string `long:"db-port" env:"DB_PORT" default:"5432" description:"Database port"`
	DBUser     string `long:"db-user" env:"DB_USER" default:"decksync" description:"Database user"`
	DBPassword string `long:"db-password" env:"DB_PASSWORD" required:"true" description:"Database password (required)" validate:"required"`
	DBName     string `long:"db-name" env:"DB_NAME" default:"decksync" description:"Database name"`

	// Object store configuration
	S3Endpoint  string `long:"s3-endpoint" env:"S3_ENDPOINT" default:"http://localhost:9000" description:"S3-compatible object store endpoint" validate:"required,url"`
	S3Region    string `long:"s3-region" env:"S3_REGION" default:"us-east-1" description:"Object store region"`
	S3Bucket    string `long:"s3-bucket" env:"S3_BUCKET" default:"deck-assets" description:"Bucket for deduplicated item assets" validate:"required"`
	S3AccessKey string `long:"s3-access-key" env:"S3_ACCESS_KEY" required:"true" description:"Object store access key (required)" validate:"required"`
	S3SecretKey string `long:"s3-secret-key" env:"S3_SECRET_KEY" required:"true" description:"Object store secret key (required)" validate:"required"`

	// Application configuration
	Port          string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WorkerCount   int    `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of background workers for source processing" validate:"min=1"`
	SweepInterval int    `long:"sweep-interval" env:"SWEEP_INTERVAL" default:"900" description:"Interval in seconds between upstream change sweeps" validate:"min=1"`
	EncryptionKey string `long:"encryption-key" env:"ENCRYPTION_KEY" required:"true" description:"Hex-encoded 256-bit key for access token encryption (required)" validate:"required,len=64,hexadecimal"`
	JWTSecret     string `long:"jwt-secret" env:"JWT_SECRET" required:"true" description:"Secret for verifying user bearer tokens (required)" validate:"required"`
	SchedulerKey  string `long:"scheduler-key" env:"SCHEDULER_KEY" description:"Access key for the privileged check_updates action (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"DeckSync/1.0" description:"User agent string for remote API requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := validator.New().Struct(&raw); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	key, err := hex.DecodeString(raw.EncryptionKey)
	if err != nil || len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 64 hex characters (256 bits)")
	}

	cfg := &Cfg{
		DBHost:        raw.DBHost,
		DBPort:        raw.DBPort,
		DBUser:        raw.DBUser,
		DBPassword:    raw.DBPassword,
		DBName:        raw.DBName,
		S3Endpoint:    raw.S3Endpoint,
		S3Region:      raw.S3Region,
		S3Bucket:      raw.S3Bucket,
		S3AccessKey:   raw.S3AccessKey,
		S3SecretKey:   raw.S3SecretKey,
		Port:          raw.Port,
		WorkerCount:   raw.WorkerCount,
		SweepInterval: raw.SweepInterval,
		EncryptionKey: key,
		JWTSecret:     raw.JWTSecret,
		SchedulerKey:  raw.SchedulerKey,
		UserAgent:     raw.UserAgent,
		Timezone:      raw.Timezone,
		Debug:         raw.Debug,
		Version:       GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
