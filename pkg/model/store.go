package model

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"

	_ "modernc.org/sqlite"
)

var (
	//go:embed sql/*
	f embed.FS

	errStoreNotInitialized = errors.New("artifact store not initialized")

	// ErrNoArtifact is returned when the store holds no artifact.
	ErrNoArtifact = errors.New("no artifact in store")

	insertArtifact = `INSERT OR REPLACE INTO artifact (kind, version, content) VALUES (?, ?, ?)`

	selectLatestArtifact = `SELECT content FROM artifact ORDER BY id DESC LIMIT 1`

	selectArtifacts = `SELECT kind, version, imported_at FROM artifact ORDER BY id DESC`
)

// StoredArtifact is a row of the artifact store.
type StoredArtifact struct {
	Kind       string `json:"kind" yaml:"kind"`
	Version    string `json:"version" yaml:"version"`
	ImportedAt string `json:"imported_at" yaml:"imported_at"`
}

// InitStore creates the artifact store schema if the file doesn't exist yet.
func InitStore(dbFilePath string) error {
	if dbFilePath == "" {
		return errors.New("dbFilePath not specified")
	}

	if _, err := os.Stat(dbFilePath); errors.Is(err, os.ErrNotExist) {
		db, err := GetDB(dbFilePath)
		if err != nil {
			return fmt.Errorf("error opening artifact store %s: %w", dbFilePath, err)
		}
		defer db.Close()

		slog.Debug("creating artifact store schema", "path", dbFilePath)
		b, err := f.ReadFile("sql/ddl.sql")
		if err != nil {
			return fmt.Errorf("failed to read the schema creation file: %w", err)
		}
		if _, err := db.Exec(string(b)); err != nil {
			return fmt.Errorf("failed to create artifact store schema in %s: %w", dbFilePath, err)
		}
		slog.Debug("artifact store schema created")
	}

	return nil
}

// GetDB opens the SQLite artifact store.
func GetDB(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	return conn, nil
}

// SaveArtifact validates content and stores it under its version.
// Importing an existing version replaces it and makes it the latest.
func SaveArtifact(db *sql.DB, content []byte) (*Artifact, error) {
	if db == nil {
		return nil, errStoreNotInitialized
	}

	a, err := ParseArtifact(content)
	if err != nil {
		return nil, err
	}
	if a.Version == "" {
		return nil, fmt.Errorf("%w: version required to import", ErrInvalidArtifact)
	}

	stmt, err := db.Prepare(insertArtifact)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare artifact insert statement: %w", err)
	}
	defer stmt.Close()

	if _, err = stmt.Exec(a.Kind, a.Version, content); err != nil {
		return nil, fmt.Errorf("failed to insert artifact %s: %w", a.Version, err)
	}
	return a, nil
}

// LatestArtifact returns the most recently imported artifact content.
func LatestArtifact(db *sql.DB) ([]byte, error) {
	if db == nil {
		return nil, errStoreNotInitialized
	}

	var content []byte
	err := db.QueryRow(selectLatestArtifact).Scan(&content)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoArtifact
		}
		return nil, fmt.Errorf("failed to scan artifact row: %w", err)
	}
	return content, nil
}

// ListArtifacts returns all stored artifact versions, newest first.
func ListArtifacts(db *sql.DB) ([]*StoredArtifact, error) {
	if db == nil {
		return nil, errStoreNotInitialized
	}

	rows, err := db.Query(selectArtifacts)
	if err != nil {
		return nil, fmt.Errorf("failed to query artifacts: %w", err)
	}
	defer rows.Close()

	list := make([]*StoredArtifact, 0)
	for rows.Next() {
		a := &StoredArtifact{}
		if err := rows.Scan(&a.Kind, &a.Version, &a.ImportedAt); err != nil {
			return nil, fmt.Errorf("failed to scan artifact row: %w", err)
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate artifact rows: %w", err)
	}
	return list, nil
}
