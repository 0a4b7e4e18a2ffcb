// Package store persists per-container view preferences in sqlite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/justyntemme/docview/internal/debug"
	"github.com/justyntemme/docview/internal/model"
)

var ErrNotOpen = errors.New("store: database not open")

type EventType int

const (
	SaveMode EventType = iota
	FetchSettings
	SaveSetting
)

type Request struct {
	Op     EventType
	RootID string
	Doc    model.DocID
	Mode   model.Mode
	Key    string
	Value  string
}

type Response struct {
	Op       EventType
	Settings map[string]string
	Err      error
}

type DB struct {
	conn         *sql.DB
	RequestChan  chan Request
	ResponseChan chan Response
}

func NewDB() *DB {
	return &DB{
		RequestChan:  make(chan Request, 10),
		ResponseChan: make(chan Response, 10),
	}
}

// Open initializes the database connection and schema
func (d *DB) Open(dbPath string) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}

	pragmas := []string{
		// WAL lets the mode lookups read while the worker writes
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return fmt.Errorf("%s: %w", p, err)
		}
	}

	schema := `
	CREATE TABLE IF NOT EXISTS view_state (
		root_id     TEXT NOT NULL,
		authority   TEXT NOT NULL,
		document_id TEXT NOT NULL,
		mode        TEXT NOT NULL,
		updated_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (root_id, authority, document_id)
	);
	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return err
	}

	d.conn = db
	debug.Log(debug.STORE, "Opened %s", dbPath)
	return nil
}

// Start serves requests until RequestChan is closed.
func (d *DB) Start() {
	for req := range d.RequestChan {
		switch req.Op {
		case SaveMode:
			d.respond(Response{Op: SaveMode, Err: d.saveMode(req.RootID, req.Doc, req.Mode)})
		case FetchSettings:
			settings, err := d.Settings()
			d.respond(Response{Op: FetchSettings, Settings: settings, Err: err})
		case SaveSetting:
			d.respond(Response{Op: SaveSetting, Err: d.saveSetting(req.Key, req.Value)})
		}
	}
	close(d.ResponseChan)
}

func (d *DB) respond(resp Response) {
	if resp.Err != nil {
		debug.Warn(debug.STORE, "Store error (op %d): %v", resp.Op, resp.Err)
	}
	d.ResponseChan <- resp
}

// SaveMode queues a mode write for a container and returns immediately.
func (d *DB) SaveMode(rootID string, doc model.DocID, mode model.Mode) {
	d.RequestChan <- Request{Op: SaveMode, RootID: rootID, Doc: doc, Mode: mode}
}

func (d *DB) saveMode(rootID string, doc model.DocID, mode model.Mode) error {
	if d.conn == nil {
		return ErrNotOpen
	}
	if !mode.Valid() {
		return fmt.Errorf("store: refusing to save mode %s", mode)
	}
	_, err := d.conn.Exec(
		"INSERT OR REPLACE INTO view_state (root_id, authority, document_id, mode, updated_at) VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)",
		rootID, doc.Authority, doc.DocumentID, mode.String())
	if err == nil {
		debug.Log(debug.STORE, "Saved mode %s for %s in %s", mode, doc, rootID)
	}
	return err
}

// LookupMode returns the persisted mode for a container. It reads directly
// and is safe to call from load goroutines.
func (d *DB) LookupMode(rootID string, doc model.DocID) (model.Mode, bool) {
	if d.conn == nil {
		return model.ModeUnknown, false
	}
	var s string
	err := d.conn.QueryRow(
		"SELECT mode FROM view_state WHERE root_id = ? AND authority = ? AND document_id = ?",
		rootID, doc.Authority, doc.DocumentID).Scan(&s)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			debug.Warn(debug.STORE, "LookupMode %s: %v", doc, err)
		}
		return model.ModeUnknown, false
	}
	m, err := model.ParseMode(s)
	if err != nil {
		return model.ModeUnknown, false
	}
	return m, true
}

// Settings returns every stored key/value pair.
func (d *DB) Settings() (map[string]string, error) {
	if d.conn == nil {
		return nil, ErrNotOpen
	}
	rows, err := d.conn.Query("SELECT key, value FROM settings")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return settings, err
		}
		settings[key] = value
	}
	return settings, rows.Err()
}

func (d *DB) saveSetting(key, value string) error {
	if d.conn == nil {
		return ErrNotOpen
	}
	_, err := d.conn.Exec("INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)", key, value)
	return err
}

func (d *DB) Close() error {
	if d.conn == nil {
		return nil
	}
	err := d.conn.Close()
	d.conn = nil
	return err
}
