package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/prisonkeeper/internal/flagx"
	"github.com/joho/godotenv"
)

// Environment variable names recognised by parseEnv.
const (
	EnvHTTPAddr           = "HTTP_ADDR"
	EnvDatabaseDSN        = "DATABASE_DSN"
	EnvDatabaseName       = "DATABASE_NAME"
	EnvSecretKey          = "JWT_SECRET"
	EnvAccessTokenTTL     = "ACCESS_TOKEN_TTL"
	EnvRefreshTokenTTL    = "REFRESH_TOKEN_TTL"
	EnvS3User             = "S3_ROOT_USER"
	EnvS3Password         = "S3_ROOT_PASSWORD"
	EnvS3Bucket           = "S3_BUCKET"
	EnvS3Region           = "S3_REGION"
	EnvS3Endpoint         = "S3_BASE_ENDPOINT"
	EnvPresignTTL         = "PRESIGN_TTL"
	EnvAppEnv             = "APP_ENV"
	EnvPublicArchiveRate  = "PUBLIC_ARCHIVE_RATE"
	EnvShutdownTimeout    = "SHUTDOWN_TIMEOUT"
	defaultDotEnvFilename = ".env"
)

// parseEnv loads a dotenv file (the one named by -env, or ./.env when
// present) into the process environment and overlays recognised variables
// onto config. Variables already set in the environment win over the file.
func parseEnv(config *Config, args []string) error {
	if path := flagx.EnvFilePath(args); path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
	} else if err := godotenv.Load(defaultDotEnvFilename); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", defaultDotEnvFilename, err)
	}

	strs := map[string]*string{
		EnvHTTPAddr:     &config.HTTPAddr,
		EnvDatabaseDSN:  &config.DatabaseDSN,
		EnvDatabaseName: &config.DatabaseName,
		EnvSecretKey:    &config.SecretKey,
		EnvS3User:       &config.S3RootUser,
		EnvS3Password:   &config.S3RootPassword,
		EnvS3Bucket:     &config.S3Bucket,
		EnvS3Region:     &config.S3Region,
		EnvS3Endpoint:   &config.S3BaseEndpoint,
		EnvAppEnv:       &config.Environment,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(name); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		EnvAccessTokenTTL:  &config.AccessTokenValidityDuration,
		EnvRefreshTokenTTL: &config.RefreshTokenValidityDuration,
		EnvPresignTTL:      &config.PresignValidityDuration,
		EnvShutdownTimeout: &config.ShutdownTimeout,
	}
	for name, dst := range durations {
		v, ok := os.LookupEnv(name)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = d
	}

	if v, ok := os.LookupEnv(EnvPublicArchiveRate); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPublicArchiveRate, err)
		}
		config.PublicArchiveRatePerMinute = n
	}
	return nil
}
