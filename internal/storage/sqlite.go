// Package storage provides SQLite-based persistence for factory saves.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/beltworks/internal/factory"
)

// ErrSaveNotFound is returned when no save has the requested name.
var ErrSaveNotFound = errors.New("storage: save not found")

// Store manages the SQLite database connection for factory saves.
type Store struct {
	db  *sql.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// SaveInfo describes a stored save slot.
type SaveInfo struct {
	ID          int64
	Name        string
	Scenario    string
	Beat        int
	Ticks       uint64
	Machines    int
	Belts       int
	Broken      int
	PayloadSize int // compressed snapshot bytes
	CreatedAt   time.Time
}

// MachineRow is the per-machine summary stored next to a snapshot.
type MachineRow struct {
	MachineID   int
	Kind        string
	X, Y        int
	Orientation string
	Broken      bool
	BreakChance float64
	Pending     int
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	// Create parent directories
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	// Open database
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot create encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, fmt.Errorf("storage: cannot create decoder: %w", err)
	}

	store := &Store{db: db, enc: enc, dec: dec}

	// Run migrations
	if err := store.migrate(); err != nil {
		store.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS saves (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			scenario TEXT NOT NULL DEFAULT '',
			beat INTEGER NOT NULL DEFAULT 0,
			ticks INTEGER NOT NULL DEFAULT 0,
			machines INTEGER NOT NULL DEFAULT 0,
			belts INTEGER NOT NULL DEFAULT 0,
			payload BLOB NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS machine_states (
			save_id INTEGER NOT NULL,
			machine_id INTEGER NOT NULL,
			kind TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			orientation TEXT NOT NULL,
			broken INTEGER NOT NULL DEFAULT 0,
			break_chance REAL NOT NULL DEFAULT 0,
			pending INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (save_id, machine_id)
		);
		CREATE INDEX IF NOT EXISTS idx_machine_states_broken ON machine_states(save_id, broken);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.enc != nil {
		s.enc.Close()
	}
	if s.dec != nil {
		s.dec.Close()
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveSnapshot stores snap under name, replacing any save with that name.
// Returns the ID of the inserted record.
func (s *Store) SaveSnapshot(name, scenario string, snap *factory.Snapshot) (int64, error) {
	payload, err := s.encode(snap)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteSave(tx, name); err != nil {
		return 0, err
	}

	result, err := tx.Exec(
		`INSERT INTO saves (name, scenario, beat, ticks, machines, belts, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		name, scenario, snap.Beat, int64(snap.Ticks), len(snap.Machines), len(snap.Belts), payload,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save snapshot: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	for _, m := range snap.Machines {
		_, err := tx.Exec(
			`INSERT INTO machine_states
			 (save_id, machine_id, kind, x, y, orientation, broken, break_chance, pending)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, m.ID, m.Kind, m.Anchor.X, m.Anchor.Y, m.Orientation.String(),
			m.State.Broken, m.State.BreakChance, len(m.State.Pending),
		)
		if err != nil {
			return 0, fmt.Errorf("storage: cannot save machine %d: %w", m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("storage: cannot commit save: %w", err)
	}
	return id, nil
}

// LoadSnapshot retrieves the snapshot stored under name.
func (s *Store) LoadSnapshot(name string) (*factory.Snapshot, SaveInfo, error) {
	var (
		info      SaveInfo
		payload   []byte
		ticks     int64
		createdAt any
	)
	err := s.db.QueryRow(
		`SELECT id, name, scenario, beat, ticks, machines, belts, payload, created_at
		 FROM saves WHERE name = ?`,
		name,
	).Scan(&info.ID, &info.Name, &info.Scenario, &info.Beat, &ticks, &info.Machines, &info.Belts, &payload, &createdAt)
	if err == sql.ErrNoRows {
		return nil, SaveInfo{}, fmt.Errorf("%w: %q", ErrSaveNotFound, name)
	}
	if err != nil {
		return nil, SaveInfo{}, fmt.Errorf("storage: cannot query save: %w", err)
	}
	info.Ticks = uint64(ticks)
	info.PayloadSize = len(payload)
	info.CreatedAt = parseTimestamp(createdAt)

	snap, err := s.decode(payload)
	if err != nil {
		return nil, SaveInfo{}, err
	}
	for _, m := range snap.Machines {
		if m.State.Broken {
			info.Broken++
		}
	}
	return snap, info, nil
}

// ListSaves retrieves all saves, newest first.
func (s *Store) ListSaves() ([]SaveInfo, error) {
	rows, err := s.db.Query(
		`SELECT s.id, s.name, s.scenario, s.beat, s.ticks, s.machines, s.belts,
		        length(s.payload), s.created_at,
		        (SELECT COUNT(*) FROM machine_states m WHERE m.save_id = s.id AND m.broken = 1)
		 FROM saves s
		 ORDER BY s.id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query saves: %w", err)
	}
	defer rows.Close()

	var saves []SaveInfo
	for rows.Next() {
		var info SaveInfo
		var ticks int64
		var createdAt any
		if err := rows.Scan(&info.ID, &info.Name, &info.Scenario, &info.Beat, &ticks,
			&info.Machines, &info.Belts, &info.PayloadSize, &createdAt, &info.Broken); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		info.Ticks = uint64(ticks)
		info.CreatedAt = parseTimestamp(createdAt)
		saves = append(saves, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return saves, nil
}

// MachineStates retrieves the machine summaries of a save ordered by
// machine ID.
func (s *Store) MachineStates(name string) ([]MachineRow, error) {
	return s.machineRows(name, false)
}

// BrokenMachines retrieves the machines that were broken when the save
// was taken.
func (s *Store) BrokenMachines(name string) ([]MachineRow, error) {
	return s.machineRows(name, true)
}

func (s *Store) machineRows(name string, brokenOnly bool) ([]MachineRow, error) {
	var id int64
	err := s.db.QueryRow("SELECT id FROM saves WHERE name = ?", name).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %q", ErrSaveNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query save: %w", err)
	}

	query := `SELECT machine_id, kind, x, y, orientation, broken, break_chance, pending
		 FROM machine_states WHERE save_id = ?`
	if brokenOnly {
		query += " AND broken = 1"
	}
	query += " ORDER BY machine_id"

	rows, err := s.db.Query(query, id)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query machines: %w", err)
	}
	defer rows.Close()

	var result []MachineRow
	for rows.Next() {
		var r MachineRow
		if err := rows.Scan(&r.MachineID, &r.Kind, &r.X, &r.Y, &r.Orientation, &r.Broken, &r.BreakChance, &r.Pending); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		result = append(result, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return result, nil
}

// DeleteSave deletes the save stored under name.
func (s *Store) DeleteSave(name string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRow("SELECT id FROM saves WHERE name = ?", name).Scan(&id)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: %q", ErrSaveNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("storage: cannot query save: %w", err)
	}
	if err := deleteSave(tx, name); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: cannot commit delete: %w", err)
	}
	return nil
}

func deleteSave(tx *sql.Tx, name string) error {
	if _, err := tx.Exec(
		"DELETE FROM machine_states WHERE save_id IN (SELECT id FROM saves WHERE name = ?)",
		name,
	); err != nil {
		return fmt.Errorf("storage: cannot delete machines: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM saves WHERE name = ?", name); err != nil {
		return fmt.Errorf("storage: cannot delete save: %w", err)
	}
	return nil
}

// parseTimestamp handles both time.Time and string datetimes.
func parseTimestamp(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
