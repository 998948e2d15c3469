package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"assessment-backend/models"
)

const keySchema = `
CREATE TABLE IF NOT EXISTS key_pairs (
    identity     TEXT PRIMARY KEY,
    public_key   BLOB NOT NULL,
    private_key  BLOB NOT NULL,
    updated_at   INTEGER NOT NULL
);
`

// SQLiteKeyStore keeps key pairs in a SQLite database.
type SQLiteKeyStore struct {
	db *sql.DB
}

// NewSQLiteKeyStore opens or creates the database at path.
func NewSQLiteKeyStore(path string) (*SQLiteKeyStore, error) {
	if path == "" {
		return nil, errors.New("key store path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// each connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(keySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	if path != ":memory:" {
		if err := os.Chmod(path, 0600); err != nil {
			db.Close()
			return nil, fmt.Errorf("restrict database permissions: %w", err)
		}
	}

	return &SQLiteKeyStore{db: db}, nil
}

func (s *SQLiteKeyStore) Save(identity string, kp *models.KeyPair) error {
	if err := checkIdentity(identity); err != nil {
		return err
	}
	if kp.Empty() {
		return errors.New("cannot save empty key pair")
	}
	_, err := s.db.Exec(`
		INSERT INTO key_pairs (identity, public_key, private_key, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(identity) DO UPDATE SET
			public_key = excluded.public_key,
			private_key = excluded.private_key,
			updated_at = excluded.updated_at`,
		identity, kp.PublicKey, kp.PrivateKey, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save key pair: %w", err)
	}
	return nil
}

func (s *SQLiteKeyStore) Load(identity string) (*models.KeyPair, bool, error) {
	if err := checkIdentity(identity); err != nil {
		return nil, false, err
	}
	var kp models.KeyPair
	err := s.db.QueryRow(`SELECT public_key, private_key FROM key_pairs WHERE identity = ?`, identity).
		Scan(&kp.PublicKey, &kp.PrivateKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load key pair: %w", err)
	}
	return &kp, true, nil
}

func (s *SQLiteKeyStore) Delete(identity string) error {
	if err := checkIdentity(identity); err != nil {
		return err
	}
	if _, err := s.db.Exec(`DELETE FROM key_pairs WHERE identity = ?`, identity); err != nil {
		return fmt.Errorf("delete key pair: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteKeyStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
