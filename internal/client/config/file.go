package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/gophsync/internal/flagx"
	"github.com/dmitrijs2005/gophsync/internal/timex"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// FileConfig is a DTO used exclusively for config file unmarshalling.
// Pointer and zero-valued fields mark keys absent from the file.
type FileConfig struct {
	DBPath              string          `json:"db_path" yaml:"db_path"`
	SnapshotLocation    string          `json:"snapshot_location" yaml:"snapshot_location"`
	S3Region            string          `json:"s3_region" yaml:"s3_region"`
	S3Endpoint          string          `json:"s3_endpoint" yaml:"s3_endpoint"`
	S3AccessKey         string          `json:"s3_access_key" yaml:"s3_access_key"`
	S3SecretKey         string          `json:"s3_secret_key" yaml:"s3_secret_key"`
	ServerEndpointAddr  *string         `json:"server_endpoint_addr" yaml:"server_endpoint_addr"`
	HealthService       string          `json:"health_service" yaml:"health_service"`
	AccessToken         string          `json:"access_token" yaml:"access_token"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval" yaml:"online_check_interval"`
	SyncInterval        *timex.Duration `json:"sync_interval" yaml:"sync_interval"`
	DeletionPolicy      string          `json:"deletion_policy" yaml:"deletion_policy"`
	RequireNonEmpty     *bool           `json:"require_non_empty" yaml:"require_non_empty"`
	Once                *bool           `json:"once" yaml:"once"`
	Watch               *bool           `json:"watch" yaml:"watch"`
	LogLevel            string          `json:"log_level" yaml:"log_level"`
}

// parseFile overlays cfg with the file named by -c/-config in args. Files
// ending in .yaml or .yml are read as YAML, anything else as JSON. Without
// either flag it does nothing.
func parseFile(cfg *Config, args []string) error {
	path := flagx.JSONConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	fc.apply(cfg)
	return nil
}

func (fc *FileConfig) apply(cfg *Config) {
	setString(&cfg.DBPath, fc.DBPath)
	setString(&cfg.SnapshotLocation, fc.SnapshotLocation)
	setString(&cfg.S3Region, fc.S3Region)
	setString(&cfg.S3Endpoint, fc.S3Endpoint)
	setString(&cfg.S3AccessKey, fc.S3AccessKey)
	setString(&cfg.S3SecretKey, fc.S3SecretKey)
	setString(&cfg.HealthService, fc.HealthService)
	setString(&cfg.AccessToken, fc.AccessToken)
	setString(&cfg.DeletionPolicy, fc.DeletionPolicy)
	setString(&cfg.LogLevel, fc.LogLevel)

	// An explicit "" turns probing off, so presence matters here.
	if fc.ServerEndpointAddr != nil {
		cfg.ServerEndpointAddr = *fc.ServerEndpointAddr
	}
	if fc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = fc.OnlineCheckInterval.Duration
	}
	if fc.SyncInterval != nil {
		cfg.SyncInterval = fc.SyncInterval.Duration
	}
	setBool(&cfg.RequireNonEmpty, fc.RequireNonEmpty)
	setBool(&cfg.Once, fc.Once)
	setBool(&cfg.Watch, fc.Watch)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
