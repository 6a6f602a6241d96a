package sigcache

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"memsplit/process"
)

// SQLiteStore keeps entries in a SQLite database shared with other tools
type SQLiteStore struct {
	*sql.DB
	getStatement *sql.Stmt
	setStatement *sql.Stmt
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	s := &SQLiteStore{DB: db}
	if err := s.createTable(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) createTable() error {
	_, err := s.Exec(`
		CREATE TABLE IF NOT EXISTS header_signature (
			pid        INTEGER PRIMARY KEY,
			signature  BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("create header_signature table: %w", err)
	}
	return nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error
	s.getStatement, err = s.Prepare(`SELECT signature FROM header_signature WHERE pid = ?`)
	if err != nil {
		return err
	}
	s.setStatement, err = s.Prepare(`INSERT OR REPLACE INTO header_signature (pid, signature, updated_at) VALUES (?, ?, ?)`)
	return err
}

func (s *SQLiteStore) Get(pid process.ProcessID) (Fingerprint, bool, error) {
	var data []byte
	err := s.getStatement.QueryRow(int64(pid)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return Fingerprint{}, false, nil
	}
	if err != nil {
		return Fingerprint{}, false, err
	}

	fp, err := FingerprintFrom(data)
	if err != nil {
		return Fingerprint{}, false, fmt.Errorf("signature cache entry for %d: %w", pid, err)
	}
	return fp, true, nil
}

func (s *SQLiteStore) Set(pid process.ProcessID, fp Fingerprint) error {
	_, err := s.setStatement.Exec(int64(pid), fp[:], time.Now().Unix())
	return err
}

func (s *SQLiteStore) Close() error {
	s.getStatement.Close()
	s.setStatement.Close()
	return s.DB.Close()
}
