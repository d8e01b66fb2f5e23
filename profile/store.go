package profile

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("profile not found")

// Store keeps a library of profile documents in SQLite.
type Store struct {
	conn *sqlx.DB
}

type row struct {
	ID       string `db:"id"`
	Name     string `db:"name"`
	Document string `db:"document"`
}

// OpenStore opens or creates the database at path.
func OpenStore(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open profile store: %w", err)
	}
	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		document TEXT NOT NULL
	);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// Put validates doc and stores it, replacing any profile with the same name.
func (s *Store) Put(doc Document) error {
	p, err := Build(doc, nil)
	if err != nil {
		return err
	}
	if doc.ID == "" {
		doc.ID = p.ID.String()
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode profile %q: %w", doc.Name, err)
	}

	tx, err := s.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM profiles WHERE name = ? OR id = ?", doc.Name, doc.ID); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO profiles (id, name, document) VALUES (?, ?, ?)", doc.ID, doc.Name, string(data)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	log.Debug().Str("profile", doc.Name).Str("id", doc.ID).Msg("stored profile")
	return nil
}

func (s *Store) Get(name string) (Document, error) {
	var r row
	err := s.conn.Get(&r, "SELECT id, name, document FROM profiles WHERE name = ?", name)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return Document{}, fmt.Errorf("get profile %q: %w", name, err)
	}
	return r.decode()
}

// List returns every stored document ordered by name.
func (s *Store) List() ([]Document, error) {
	var rows []row
	if err := s.conn.Select(&rows, "SELECT id, name, document FROM profiles ORDER BY name"); err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	docs := make([]Document, 0, len(rows))
	for _, r := range rows {
		doc, err := r.decode()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (r row) decode() (Document, error) {
	var doc Document
	if err := json.Unmarshal([]byte(r.Document), &doc); err != nil {
		return Document{}, fmt.Errorf("decode stored profile %q: %w", r.Name, err)
	}
	return doc, nil
}
