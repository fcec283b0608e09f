package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "cardio.yaml")

	c1 := Default()
	c1.Port = 9090
	c1.ModelPath = "/srv/models/cardio.db"
	c1.ShutdownTimeout = 10 * time.Second

	require.NoError(t, Save(path, c1))

	c2, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c1, c2)
}

func TestLoad_Defaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoad_PartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cardio.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 9000\nlog_format: json\n"), 0600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, c.Port)
	assert.Equal(t, "json", c.LogFormat)
	assert.Equal(t, DefaultModelPath, c.ModelPath)
	assert.Equal(t, DefaultShutdownTimeout, c.ShutdownTimeout)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("port: [1"), 0600))
	_, err = Load(bad)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("port: 70000"), 0600))
	_, err = Load(invalid)
	assert.Error(t, err)
}

func TestSave_Errors(t *testing.T) {
	assert.Error(t, Save("", Default()))
	assert.Error(t, Save(filepath.Join(t.TempDir(), "c.yaml"), nil))
}
