package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophsync/internal/logging"
	"github.com/dmitrijs2005/gophsync/internal/reconcile"
)

// Config holds runtime settings for the sync client.
type Config struct {
	DBPath           string
	SnapshotLocation string

	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string

	ServerEndpointAddr string
	HealthService      string
	AccessToken        string

	OnlineCheckInterval time.Duration
	SyncInterval        time.Duration

	DeletionPolicy  string
	RequireNonEmpty bool
	Once            bool
	// Watch triggers a cycle as soon as a file snapshot changes.
	Watch bool

	LogLevel string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DBPath = "gophsync.db"
	c.SnapshotLocation = "snapshot.json"
	c.S3Region = "us-east-1"
	c.OnlineCheckInterval = 3 * time.Second
	c.SyncInterval = 30 * time.Second
	c.DeletionPolicy = reconcile.PolicySoftDeleteMissing.String()
	c.RequireNonEmpty = true
	c.LogLevel = "info"
}

// Load builds a Config from defaults, then the config file named by -c/-config
// in args (if any), then flags in args.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseFile(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Policy returns the parsed deletion policy.
func (c *Config) Policy() (reconcile.DeletionPolicy, error) {
	return reconcile.ParseDeletionPolicy(c.DeletionPolicy)
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	var errs []error
	if c.DBPath == "" {
		errs = append(errs, errors.New("database path is empty"))
	}
	if c.SnapshotLocation == "" {
		errs = append(errs, errors.New("snapshot location is empty"))
	}
	if _, err := c.Policy(); err != nil {
		errs = append(errs, err)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if !c.Once && c.SyncInterval <= 0 {
		errs = append(errs, fmt.Errorf("sync interval must be positive, got %s", c.SyncInterval))
	}
	if c.ServerEndpointAddr != "" && c.OnlineCheckInterval <= 0 {
		errs = append(errs, fmt.Errorf("online check interval must be positive, got %s", c.OnlineCheckInterval))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
