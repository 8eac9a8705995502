// Package persistence provides SQLite-based universe state storage and the
// ledger outbox.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/sarakt/internal/engine"
)

// DB wraps a SQLite connection for universe persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer keeps SQLite from returning SQLITE_BUSY between our own goroutines.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS bodies (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		seed INTEGER NOT NULL,
		class TEXT NOT NULL,
		habitable INTEGER NOT NULL,
		properties_json TEXT NOT NULL,
		biomes_json TEXT NOT NULL,
		resources_json TEXT NOT NULL,
		regions_json TEXT NOT NULL,
		hazards_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS settlements (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		body_id INTEGER NOT NULL,
		total_plots INTEGER NOT NULL,
		infrastructure_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS plots (
		settlement_id INTEGER NOT NULL,
		id INTEGER NOT NULL,
		zone TEXT NOT NULL,
		owner TEXT NOT NULL,
		structure TEXT NOT NULL,
		net_value INTEGER NOT NULL,
		developed INTEGER NOT NULL,
		token_id INTEGER,
		PRIMARY KEY (settlement_id, id)
	);

	CREATE TABLE IF NOT EXISTS actors (
		id INTEGER PRIMARY KEY,
		body_id INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		name TEXT NOT NULL,
		heritage TEXT NOT NULL,
		generation INTEGER NOT NULL,
		age INTEGER NOT NULL,
		stage TEXT NOT NULL,
		loyal INTEGER NOT NULL,
		joined_player TEXT NOT NULL,
		token_id INTEGER,
		attributes_json TEXT NOT NULL,
		personality_json TEXT NOT NULL,
		skills_json TEXT NOT NULL,
		loyalty_json TEXT NOT NULL,
		history_json TEXT NOT NULL,
		rng_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS factions (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		leader_id TEXT NOT NULL,
		founded INTEGER NOT NULL,
		token_id INTEGER,
		members_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		seq INTEGER PRIMARY KEY,
		cycle INTEGER NOT NULL,
		category TEXT NOT NULL,
		description TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ledger_tokens (
		token_id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		asset_id TEXT NOT NULL,
		owner TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ledger_outbox (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ref TEXT NOT NULL UNIQUE,
		op TEXT NOT NULL,
		token_id INTEGER,
		player TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at TEXT NOT NULL,
		sent_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_events_cycle ON events(cycle);
	CREATE INDEX IF NOT EXISTS idx_actors_body ON actors(body_id);
	CREATE INDEX IF NOT EXISTS idx_outbox_pending ON ledger_outbox(sent_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

func toJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	return string(b), err
}

func fromJSON(s string, v any) error {
	return json.Unmarshal([]byte(s), v)
}

func tokenParam(t *uint64) any {
	if t == nil {
		return nil
	}
	return int64(*t)
}

func tokenValue(t sql.NullInt64) *uint64 {
	if !t.Valid {
		return nil
	}
	v := uint64(t.Int64)
	return &v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// HasWorldState reports whether a universe has been saved.
func (db *DB) HasWorldState() bool {
	_, err := db.GetMeta(metaCycle)
	return err == nil
}

const (
	metaCycle        = "cycle"
	metaNextActorID  = "next_actor_id"
	metaNextEventSeq = "next_event_seq"
	metaConfig       = "universe_config"
)

// SaveWorldState performs a full save of the universe in one transaction.
func (db *DB) SaveWorldState(st engine.State) error {
	slog.Info("saving world state",
		"cycle", st.Cycle,
		"bodies", len(st.Bodies),
		"actors", len(st.Actors),
	)

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := saveBodies(tx, st); err != nil {
		return fmt.Errorf("save bodies: %w", err)
	}
	if err := saveSettlements(tx, st); err != nil {
		return fmt.Errorf("save settlements: %w", err)
	}
	if err := saveActors(tx, st); err != nil {
		return fmt.Errorf("save actors: %w", err)
	}
	if err := saveFactions(tx, st); err != nil {
		return fmt.Errorf("save factions: %w", err)
	}
	if err := saveEvents(tx, st.Events); err != nil {
		return fmt.Errorf("save events: %w", err)
	}

	cfgJSON, err := toJSON(st.Config)
	if err != nil {
		return err
	}
	meta := map[string]string{
		metaCycle:        strconv.FormatUint(st.Cycle, 10),
		metaNextActorID:  strconv.Itoa(st.NextActorID),
		metaNextEventSeq: strconv.FormatUint(st.NextEventSeq, 10),
		metaConfig:       cfgJSON,
	}
	for k, v := range meta {
		if _, err := tx.Exec("INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("save meta: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("world state saved", "cycle", st.Cycle)
	return nil
}

// LoadWorldState reads back the last saved universe.
func (db *DB) LoadWorldState() (engine.State, error) {
	var st engine.State

	cycle, err := db.GetMeta(metaCycle)
	if errors.Is(err, sql.ErrNoRows) {
		return st, fmt.Errorf("no saved world state")
	} else if err != nil {
		return st, err
	}
	if st.Cycle, err = strconv.ParseUint(cycle, 10, 64); err != nil {
		return st, fmt.Errorf("meta %s: %w", metaCycle, err)
	}
	if v, err := db.GetMeta(metaNextActorID); err == nil {
		st.NextActorID, _ = strconv.Atoi(v)
	}
	if v, err := db.GetMeta(metaNextEventSeq); err == nil {
		st.NextEventSeq, _ = strconv.ParseUint(v, 10, 64)
	}
	if v, err := db.GetMeta(metaConfig); err == nil {
		if err := fromJSON(v, &st.Config); err != nil {
			return st, fmt.Errorf("meta %s: %w", metaConfig, err)
		}
	}

	if st.Bodies, err = db.loadBodies(); err != nil {
		return st, fmt.Errorf("load bodies: %w", err)
	}
	if st.Settlements, err = db.loadSettlements(); err != nil {
		return st, fmt.Errorf("load settlements: %w", err)
	}
	if st.Actors, err = db.loadActors(); err != nil {
		return st, fmt.Errorf("load actors: %w", err)
	}
	if st.Factions, err = db.loadFactions(); err != nil {
		return st, fmt.Errorf("load factions: %w", err)
	}
	if st.Events, err = db.RecentEvents(engine.MaxEvents); err != nil {
		return st, fmt.Errorf("load events: %w", err)
	}
	// RecentEvents is newest first; the universe keeps oldest first.
	for i, j := 0, len(st.Events)-1; i < j; i, j = i+1, j-1 {
		st.Events[i], st.Events[j] = st.Events[j], st.Events[i]
	}

	return st, nil
}

// RecentEvents returns the most recent N events, newest first.
func (db *DB) RecentEvents(limit int) ([]engine.Event, error) {
	events := []engine.Event{}
	err := db.conn.Select(&events,
		"SELECT seq, cycle, category, description FROM events ORDER BY seq DESC LIMIT ?",
		limit,
	)
	return events, err
}

func saveEvents(tx *sqlx.Tx, events []engine.Event) error {
	for _, e := range events {
		_, err := tx.Exec(
			"INSERT OR IGNORE INTO events (seq, cycle, category, description) VALUES (?, ?, ?, ?)",
			e.Seq, e.Cycle, e.Category, e.Description,
		)
		if err != nil {
			return err
		}
	}
	return nil
}
