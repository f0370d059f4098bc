package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite registry database
type DB struct {
	db *sql.DB
}

// New opens (creating if needed) the registry database at dbPath
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := optimizeSQLite(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to optimize database: %w", err)
	}

	database := &DB{db: db}

	if err := database.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return database, nil
}

// optimizeSQLite tunes SQLite for a read-mostly lookup workload with occasional bulk loads
func optimizeSQLite(db *sql.DB) error {
	pragmas := []string{
		// WAL lets lookups continue while a bulk load is committing
		"PRAGMA journal_mode=WAL",
		// 64MB page cache (negative value is KiB)
		"PRAGMA cache_size=-64000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA busy_timeout=5000",
	}

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	return nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

// RegistryRepository returns the repository for FAA registry tables
func (d *DB) RegistryRepository() RegistryRepository {
	return NewRegistryRepository(d.db)
}

// initSchema creates the registry tables if they don't exist
func (d *DB) initSchema() error {
	masterSchema := `CREATE TABLE IF NOT EXISTS faa_master (
		n_number TEXT PRIMARY KEY,
		serial_number TEXT,
		mfr_mdl_code TEXT,
		year_mfr TEXT,
		type_registrant TEXT,
		name TEXT,
		city TEXT,
		state TEXT,
		mode_s_code TEXT,
		mode_s_code_hex TEXT
	);`

	acftrefSchema := `CREATE TABLE IF NOT EXISTS faa_acftref (
		code TEXT PRIMARY KEY,
		mfr TEXT,
		model TEXT,
		type_acft TEXT,
		type_eng TEXT,
		no_eng TEXT,
		no_seats TEXT
	);`

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_faa_master_mode_s_code_hex ON faa_master(mode_s_code_hex)`,
		`CREATE INDEX IF NOT EXISTS idx_faa_master_mfr_mdl_code ON faa_master(mfr_mdl_code)`,
	}

	if _, err := d.db.Exec(masterSchema); err != nil {
		return fmt.Errorf("failed to create faa_master table: %w", err)
	}

	if _, err := d.db.Exec(acftrefSchema); err != nil {
		return fmt.Errorf("failed to create faa_acftref table: %w", err)
	}

	for _, idx := range indexes {
		if _, err := d.db.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}
