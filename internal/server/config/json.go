package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/taskkeeper/internal/flagx"
	"github.com/dmitrijs2005/taskkeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations
// accept "30m" style strings or integer nanoseconds.
type JsonConfig struct {
	HTTPAddr                    string         `json:"http_addr"`
	StorageBackend              string         `json:"storage_backend"`
	MongoURI                    string         `json:"mongo_uri"`
	MongoDatabase               string         `json:"mongo_database"`
	DatabaseDSN                 string         `json:"database_dsn"`
	ConnectTimeout              timex.Duration `json:"connect_timeout"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	BcryptCost                  int            `json:"bcrypt_cost"`
	LogLevel                    string         `json:"log_level"`
	LogFormat                   string         `json:"log_format"`
	CORSAllowedOrigins          []string       `json:"cors_allowed_origins"`
	ReadTimeout                 timex.Duration `json:"read_timeout"`
	WriteTimeout                timex.Duration `json:"write_timeout"`
	ShutdownTimeout             timex.Duration `json:"shutdown_timeout"`
}

// parseJson loads the file named by -c/-config, if any. Keys missing from
// the file keep their current values.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := toJson(config)
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	fromJson(config, c)
	return nil
}

func toJson(c *Config) *JsonConfig {
	return &JsonConfig{
		HTTPAddr:                    c.HTTPAddr,
		StorageBackend:              c.StorageBackend,
		MongoURI:                    c.MongoURI,
		MongoDatabase:               c.MongoDatabase,
		DatabaseDSN:                 c.DatabaseDSN,
		ConnectTimeout:              timex.Duration{Duration: c.ConnectTimeout},
		SecretKey:                   c.SecretKey,
		AccessTokenValidityDuration: timex.Duration{Duration: c.AccessTokenValidityDuration},
		BcryptCost:                  c.BcryptCost,
		LogLevel:                    c.LogLevel,
		LogFormat:                   c.LogFormat,
		CORSAllowedOrigins:          c.CORSAllowedOrigins,
		ReadTimeout:                 timex.Duration{Duration: c.ReadTimeout},
		WriteTimeout:                timex.Duration{Duration: c.WriteTimeout},
		ShutdownTimeout:             timex.Duration{Duration: c.ShutdownTimeout},
	}
}

func fromJson(config *Config, c *JsonConfig) {
	config.HTTPAddr = c.HTTPAddr
	config.StorageBackend = c.StorageBackend
	config.MongoURI = c.MongoURI
	config.MongoDatabase = c.MongoDatabase
	config.DatabaseDSN = c.DatabaseDSN
	config.ConnectTimeout = c.ConnectTimeout.Duration
	config.SecretKey = c.SecretKey
	config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	config.BcryptCost = c.BcryptCost
	config.LogLevel = c.LogLevel
	config.LogFormat = c.LogFormat
	config.CORSAllowedOrigins = c.CORSAllowedOrigins
	config.ReadTimeout = c.ReadTimeout.Duration
	config.WriteTimeout = c.WriteTimeout.Duration
	config.ShutdownTimeout = c.ShutdownTimeout.Duration
}
