package model

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var storeExtensions = []string{".db", ".sqlite", ".sqlite3"}

// Load reads the classifier artifact at path once. It never fails: when
// the artifact can't be loaded the returned model is unavailable and
// reports the cause through Err.
func Load(path string) *Model {
	m, err := load(path)
	if err != nil {
		slog.Error("model not loaded", "path", path, "error", err)
		return Unavailable(fmt.Errorf("%w: %w", ErrUnavailable, err))
	}

	info := m.Info()
	slog.Info("model loaded",
		"path", path,
		"kind", info.Kind,
		"version", info.Version,
		"capability", info.Capability)
	return m
}

// ReadArtifact reads and validates the artifact at path, from a YAML/JSON
// file or from the latest entry of a SQLite artifact store.
func ReadArtifact(path string) (*Artifact, error) {
	if path == "" {
		return nil, errors.New("model path not specified")
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("model file %s: %w", path, err)
	}

	var (
		b   []byte
		err error
	)
	if isStore(path) {
		b, err = readFromStore(path)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	a, err := ParseArtifact(b)
	if err != nil {
		return nil, fmt.Errorf("artifact %s: %w", path, err)
	}
	return a, nil
}

func load(path string) (*Model, error) {
	a, err := ReadArtifact(path)
	if err != nil {
		return nil, err
	}

	clf, err := a.Classifier()
	if err != nil {
		return nil, err
	}
	return New(clf, a.Info(path)), nil
}

func readFromStore(path string) ([]byte, error) {
	db, err := GetDB(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	b, err := LatestArtifact(db)
	if err != nil {
		return nil, fmt.Errorf("artifact store %s: %w", path, err)
	}
	return b, nil
}

func isStore(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range storeExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
