// Package config loads the environment-driven configuration of the CLI.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/godoo/godoo-rpc/internal/objstore"
	"github.com/godoo/godoo-rpc/internal/odoo"
)

// Instance holds the connection settings of one Odoo instance. The HOST
// variable carries a full URL; a bare host works too, the client treats it
// as http on port 80.
type Instance struct {
	URL      string `env:"HOST"`
	Database string `env:"DB"`
	Username string `env:"USER"`
	Password string `env:"PASSWORD"`
}

// ClientConfig builds the RPC client config for this instance.
func (i Instance) ClientConfig(tuning Tuning) *odoo.ClientConfig {
	return &odoo.ClientConfig{
		URL:        i.URL,
		Database:   i.Database,
		Username:   i.Username,
		Password:   i.Password,
		Timeout:    tuning.Timeout,
		MaxRetries: tuning.MaxRetries,
		RateLimit:  tuning.RateLimit,
		RateBurst:  tuning.RateBurst,
	}
}

// Tuning holds RPC client knobs shared by all instances.
type Tuning struct {
	Timeout    time.Duration `env:"TIMEOUT" envDefault:"300s"`
	MaxRetries int           `env:"MAX_RETRIES" envDefault:"3"`
	RateLimit  float64       `env:"RATE_LIMIT" envDefault:"10"`
	RateBurst  int           `env:"RATE_BURST" envDefault:"5"`
}

// ObjectStore holds S3/MinIO settings for snapshots and bucket-hosted
// import trees. Endpoint empty means no object store is configured.
type ObjectStore struct {
	Endpoint  string `env:"ENDPOINT"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Region    string `env:"REGION"`
	UseSSL    bool   `env:"USE_SSL"`
	Bucket    string `env:"BUCKET"`
	Prefix    string `env:"PREFIX" envDefault:"snapshots"`
}

// Enabled reports whether an object store endpoint is configured.
func (o ObjectStore) Enabled() bool { return o.Endpoint != "" }

// Store builds the configured object store client.
func (o ObjectStore) Store() (objstore.Store, error) {
	if !o.Enabled() {
		return nil, fmt.Errorf("no object store endpoint configured")
	}
	return objstore.NewS3Store(objstore.S3Config{
		EndpointURL:     o.Endpoint,
		AccessKeyID:     o.AccessKey,
		SecretAccessKey: o.SecretKey,
		Region:          o.Region,
		UseSSL:          o.UseSSL,
	})
}

// Config is the full environment configuration. The main instance serves
// imports; the source instance only matters for transfers.
type Config struct {
	Main   Instance `envPrefix:"ODOO_"`
	Source Instance `envPrefix:"ODOO_SOURCE_"`

	Tuning Tuning `envPrefix:"ODOO_"`

	Store ObjectStore `envPrefix:"GODOO_S3_"`
}

// Load reads a .env file (when present) and then the environment. envFile
// empty means ".env"; a missing file is not an error. With override, file
// values win over an already-set environment.
func Load(envFile string, override bool) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		if override {
			err = godotenv.Overload(envFile)
		} else {
			err = godotenv.Load(envFile)
		}
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return &cfg, nil
}
