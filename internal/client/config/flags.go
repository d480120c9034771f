package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/gophsync/internal/flagx"
)

// parseFlags overlays cfg with command-line flags. Arguments belonging to
// other flag sets (such as -c) are filtered out first.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("gophsync", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "path of the local SQLite database")
	fs.StringVar(&cfg.SnapshotLocation, "s", cfg.SnapshotLocation, "snapshot file path or s3://bucket/key")
	fs.StringVar(&cfg.S3Region, "g", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3Endpoint, "e", cfg.S3Endpoint, "S3 endpoint override")
	fs.StringVar(&cfg.S3AccessKey, "u", cfg.S3AccessKey, "S3 access key")
	fs.StringVar(&cfg.S3SecretKey, "p", cfg.S3SecretKey, "S3 secret key")
	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port of the health endpoint")
	fs.StringVar(&cfg.HealthService, "n", cfg.HealthService, "health service name")
	fs.StringVar(&cfg.AccessToken, "k", cfg.AccessToken, "access token for health probes")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	syncInterval := fs.Int("t", int(cfg.SyncInterval.Seconds()), "sync interval (in seconds)")
	fs.StringVar(&cfg.DeletionPolicy, "m", cfg.DeletionPolicy, "deletion policy: none, hard or soft")
	fs.BoolVar(&cfg.RequireNonEmpty, "r", cfg.RequireNonEmpty, "skip deletions when the snapshot is empty")
	fs.BoolVar(&cfg.Once, "once", cfg.Once, "run one sync cycle and exit")
	fs.BoolVar(&cfg.Watch, "w", cfg.Watch, "sync as soon as a snapshot file changes")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(flagx.FilterFor(args, fs)); err != nil {
		return err
	}

	// Untouched interval flags keep sub-second values loaded from JSON.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "i":
			cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
		case "t":
			cfg.SyncInterval = time.Duration(*syncInterval) * time.Second
		}
	})
	return nil
}
