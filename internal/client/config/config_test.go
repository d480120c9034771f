package config

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/gophsync/internal/reconcile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "gophsync.db", c.DBPath)
	assert.Equal(t, "snapshot.json", c.SnapshotLocation)
	assert.Equal(t, "us-east-1", c.S3Region)
	assert.Empty(t, c.ServerEndpointAddr)
	assert.Equal(t, 3*time.Second, c.OnlineCheckInterval)
	assert.Equal(t, 30*time.Second, c.SyncInterval)
	assert.Equal(t, "soft", c.DeletionPolicy)
	assert.True(t, c.RequireNonEmpty)
	assert.False(t, c.Once)
	assert.Equal(t, "info", c.LogLevel)
}

func TestLoad_UsesDefaultsWithoutArgs(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	var want Config
	want.LoadDefaults()
	assert.Equal(t, &want, cfg)
}

func TestLoad_InvalidSettings(t *testing.T) {
	_, err := Load([]string{"-m", "sometimes", "-l", "loud", "-d="})
	require.Error(t, err)
	assert.ErrorIs(t, err, reconcile.ErrUnknownPolicy)
	assert.ErrorContains(t, err, "database path is empty")
	assert.ErrorContains(t, err, `unknown log level "loud"`)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		var c Config
		c.LoadDefaults()
		return c
	}

	c := base()
	c.SyncInterval = 0
	assert.Error(t, c.Validate())

	c.Once = true
	assert.NoError(t, c.Validate(), "once mode ignores the sync interval")

	c = base()
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 0
	assert.ErrorContains(t, c.Validate(), "online check interval")

	c = base()
	c.SnapshotLocation = ""
	assert.ErrorContains(t, c.Validate(), "snapshot location is empty")
}

func TestPolicy(t *testing.T) {
	c := Config{DeletionPolicy: "HARD"}
	p, err := c.Policy()
	require.NoError(t, err)
	assert.Equal(t, reconcile.PolicyHardDeleteMissing, p)
}
