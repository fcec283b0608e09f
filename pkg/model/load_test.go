package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, artifactBytes(t, KindLogistic, "f1"), 0600))

	m := Load(path)
	require.True(t, m.Available())
	assert.NoError(t, m.Err())
	assert.Equal(t, "f1", m.Info().Version)
	assert.Equal(t, CapabilityProbability, m.Info().Capability)
	assert.Equal(t, path, m.Info().Source)
}

func TestLoad_LabelOnlyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, artifactBytes(t, KindLinear, "f2"), 0600))

	m := Load(path)
	require.True(t, m.Available())
	assert.Equal(t, CapabilityLabel, m.Info().Capability)

	p, err := m.Predict(testVector())
	require.NoError(t, err)
	assert.Equal(t, FallbackConfidence, p.Confidence)
	assert.Equal(t, float64(p.Label)*100, p.RiskScore)
}

func TestLoad_Store(t *testing.T) {
	db, dbPath := setupTestStore(t)
	_, err := SaveArtifact(db, artifactBytes(t, KindLinear, "s1"))
	require.NoError(t, err)

	m := Load(dbPath)
	require.True(t, m.Available())
	assert.Equal(t, "s1", m.Info().Version)
}

func TestLoad_Failures(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("kind: forest"), 0600))

	_, emptyStore := setupTestStore(t)

	for _, path := range []string{"", filepath.Join(dir, "missing.yaml"), bad, emptyStore} {
		m := Load(path)
		require.NotNil(t, m)
		assert.False(t, m.Available(), path)
		assert.ErrorIs(t, m.Err(), ErrUnavailable)

		_, err := m.Predict(testVector())
		assert.ErrorIs(t, err, ErrUnavailable)
	}
}

func TestLoad_SampleArtifact(t *testing.T) {
	m := Load("../../models/cardio.yaml")
	require.True(t, m.Available(), "%v", m.Err())
	assert.Equal(t, KindLogistic, m.Info().Kind)
}
