package database

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"modes_radar/internal/models"
)

// RegistryRepository stores and queries the FAA aircraft registry
type RegistryRepository interface {
	InsertMasterBatch(aircraft []*models.RegisteredAircraft) error
	InsertReferenceBatch(refs []*models.AircraftReference) error
	IsTablePopulated() (bool, error)
	LoadMasterFile(path string, batchSize int) (int, error)
	LoadReferenceFile(path string, batchSize int) (int, error)
	LookupType(modeSHex string) (string, bool, error)
	LookupRegistrant(modeSHex string) (string, bool, error)
}

type registryRepository struct {
	db *sql.DB
}

func NewRegistryRepository(db *sql.DB) RegistryRepository {
	return &registryRepository{db: db}
}

// InsertMasterBatch inserts MASTER rows in a single transaction
func (r *registryRepository) InsertMasterBatch(aircraft []*models.RegisteredAircraft) error {
	if len(aircraft) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO faa_master (
		n_number, serial_number, mfr_mdl_code, year_mfr, type_registrant,
		name, city, state, mode_s_code, mode_s_code_hex
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, ac := range aircraft {
		if _, err := stmt.Exec(
			ac.NNumber, ac.SerialNumber, ac.MfrMdlCode, ac.YearMfr,
			ac.TypeRegistrant, ac.Name, ac.City, ac.State,
			ac.ModeSCode, ac.ModeSCodeHex,
		); err != nil {
			return fmt.Errorf("failed to insert aircraft %s: %w", ac.NNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// InsertReferenceBatch inserts ACFTREF rows in a single transaction
func (r *registryRepository) InsertReferenceBatch(refs []*models.AircraftReference) error {
	if len(refs) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO faa_acftref (
		code, mfr, model, type_acft, type_eng, no_eng, no_seats
	) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, ref := range refs {
		if _, err := stmt.Exec(
			ref.Code, ref.Manufacturer, ref.Model, ref.TypeAircraft,
			ref.TypeEngine, ref.NumEngines, ref.NumSeats,
		); err != nil {
			return fmt.Errorf("failed to insert aircraft reference %s: %w", ref.Code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *registryRepository) IsTablePopulated() (bool, error) {
	var ignored int
	err := r.db.QueryRow("SELECT 1 FROM faa_master LIMIT 1").Scan(&ignored)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check faa_master table: %w", err)
	}
	return true, nil
}

// LookupType returns the model of the aircraft registered with the given Mode S hex code.
// found is false when there is no registration or no matching ACFTREF entry.
func (r *registryRepository) LookupType(modeSHex string) (string, bool, error) {
	var model sql.NullString
	err := r.db.QueryRow(`SELECT faa_acftref.model
		FROM faa_master
		LEFT OUTER JOIN faa_acftref ON faa_master.mfr_mdl_code = faa_acftref.code
		WHERE faa_master.mode_s_code_hex = ?
		LIMIT 1`, normalizeHex(modeSHex)).Scan(&model)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to look up type for %s: %w", modeSHex, err)
	}

	value := strings.TrimRight(model.String, " ")
	if !model.Valid || value == "" {
		return "", false, nil
	}
	return value, true, nil
}

// LookupRegistrant returns the registrant name for the given Mode S hex code
func (r *registryRepository) LookupRegistrant(modeSHex string) (string, bool, error) {
	var name sql.NullString
	err := r.db.QueryRow(`SELECT name FROM faa_master
		WHERE mode_s_code_hex = ?
		LIMIT 1`, normalizeHex(modeSHex)).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to look up registrant for %s: %w", modeSHex, err)
	}

	value := strings.TrimRight(name.String, " ")
	if !name.Valid || value == "" {
		return "", false, nil
	}
	return value, true, nil
}

// LoadMasterFile loads the FAA MASTER.txt file, returning the number of rows stored.
// Rows without a Mode S hex code can never match a transponder and are skipped.
func (r *registryRepository) LoadMasterFile(path string, batchSize int) (int, error) {
	batch := make([]*models.RegisteredAircraft, 0, batchSize)
	total := 0

	err := readFAAFile(path, func(row faaRow) error {
		ac := &models.RegisteredAircraft{
			NNumber:        row.get("n_number"),
			SerialNumber:   row.get("serial_number"),
			MfrMdlCode:     row.get("mfr_mdl_code"),
			YearMfr:        row.get("year_mfr"),
			TypeRegistrant: row.get("type_registrant"),
			Name:           row.get("name"),
			City:           row.get("city"),
			State:          row.get("state"),
			ModeSCode:      row.get("mode_s_code"),
			ModeSCodeHex:   normalizeHex(row.get("mode_s_code_hex")),
		}
		if ac.NNumber == "" || ac.ModeSCodeHex == "" {
			return nil
		}

		batch = append(batch, ac)
		if len(batch) >= batchSize {
			if err := r.InsertMasterBatch(batch); err != nil {
				return fmt.Errorf("failed to insert batch: %w", err)
			}
			total += len(batch)
			batch = batch[:0]
		}
		return nil
	})
	if err != nil {
		return total, err
	}

	if err := r.InsertMasterBatch(batch); err != nil {
		return total, fmt.Errorf("failed to insert final batch: %w", err)
	}
	return total + len(batch), nil
}

// LoadReferenceFile loads the FAA ACFTREF.txt file, returning the number of rows stored
func (r *registryRepository) LoadReferenceFile(path string, batchSize int) (int, error) {
	batch := make([]*models.AircraftReference, 0, batchSize)
	total := 0

	err := readFAAFile(path, func(row faaRow) error {
		ref := &models.AircraftReference{
			Code:         row.get("code"),
			Manufacturer: row.get("mfr"),
			Model:        row.get("model"),
			TypeAircraft: row.get("type_acft"),
			TypeEngine:   row.get("type_eng"),
			NumEngines:   row.get("no_eng"),
			NumSeats:     row.get("no_seats"),
		}
		if ref.Code == "" {
			return nil
		}

		batch = append(batch, ref)
		if len(batch) >= batchSize {
			if err := r.InsertReferenceBatch(batch); err != nil {
				return fmt.Errorf("failed to insert batch: %w", err)
			}
			total += len(batch)
			batch = batch[:0]
		}
		return nil
	})
	if err != nil {
		return total, err
	}

	if err := r.InsertReferenceBatch(batch); err != nil {
		return total, fmt.Errorf("failed to insert final batch: %w", err)
	}
	return total + len(batch), nil
}

type faaRow struct {
	record    []string
	headerMap map[string]int
}

// get safely retrieves a trimmed field from the row by normalised header name
func (r faaRow) get(field string) string {
	if idx, ok := r.headerMap[field]; ok && idx < len(r.record) {
		return strings.Trim(strings.TrimSpace(r.record[idx]), "'\"")
	}
	return ""
}

// readFAAFile streams a comma delimited FAA registry file, calling fn for every data row.
// Every FAA row ends with a trailing comma, so field counts are not enforced.
func readFAAFile(path string, fn func(row faaRow) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open registry file %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read header from %s: %w", path, err)
	}

	headerMap := make(map[string]int, len(header))
	for i, h := range header {
		if name := normalizeHeader(h); name != "" {
			headerMap[name] = i
		}
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read record from %s: %w", path, err)
		}

		if err := fn(faaRow{record: record, headerMap: headerMap}); err != nil {
			return err
		}
	}
}

// normalizeHeader turns FAA headers like "MODE S CODE HEX" or "TYPE-ACFT" into column names
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.Trim(strings.TrimSpace(h), "'\""))
	return strings.NewReplacer("-", "_", " ", "_").Replace(h)
}

func normalizeHex(hex string) string {
	return strings.ToUpper(strings.TrimSpace(hex))
}
