// Package config loads runtime configuration for the gophsync client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected with -c or -config; JSON, or YAML when
//     the name ends in .yaml or .yml.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-d string   path of the local SQLite database
//	-s string   snapshot location: a file path or s3://bucket/key
//	-g string   S3 region
//	-e string   S3 endpoint override (MinIO and friends)
//	-u string   S3 access key
//	-p string   S3 secret key
//	-a string   host:port of the gRPC health endpoint; empty disables probing
//	-n string   health service name to probe
//	-k string   access token sent with health probes
//	-i int      online check interval (seconds)
//	-t int      sync interval (seconds)
//	-m string   deletion policy: none, hard or soft
//	-r          skip deletions when the snapshot is empty
//	-once       run a single sync cycle and exit
//	-w          sync as soon as a file snapshot changes
//	-l string   log level: debug, info, warn or error
//
// # File schema
//
// Keys are the same in JSON and YAML. Durations use timex.Duration, so "30s"
// and integer nanoseconds both work.
// Absent keys keep their current value.
//
//	{
//	  "db_path": "gophsync.db",
//	  "snapshot_location": "s3://vault/snapshot.json",
//	  "s3_region": "us-east-1",
//	  "s3_endpoint": "http://127.0.0.1:9000",
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "online_check_interval": "3s",
//	  "sync_interval": "30s",
//	  "deletion_policy": "soft",
//	  "require_non_empty": true,
//	  "watch": false
//	}
package config
