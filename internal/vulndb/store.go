// Package vulndb loads the structured vulnerability dataset from CSV files
// into an in-memory SQLite database and exposes it through a small set of
// tools an LLM can call.
package vulndb

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Tables lists the required CSV files (without extension) in load order.
var Tables = []string{
	"vulnerabilities",
	"packages",
	"severity_levels",
	"vulnerability_types",
}

// Schemas holds the column names for each table, in the same order as Tables.
var Schemas = [][]string{
	{
		"cve_id",
		"package_id",
		"vulnerability_type_id",
		"severity_id",
		"cvss_score",
		"affected_versions",
		"fixed_version",
		"description",
		"published_date",
	},
	{"package_id", "name", "ecosystem"},
	{"severity_id", "severity_name", "min_cvss", "max_cvss"},
	{"type_id", "type_name", "description"},
}

// Store is an in-memory SQLite database of vulnerability data.
type Store struct {
	db *sql.DB
}

// NewStore loads CSV files from the directory into an in-memory SQLite
// database. The directory must contain vulnerabilities.csv, packages.csv,
// severity_levels.csv, and vulnerability_types.csv.
func NewStore(dir string) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("directory not found: %s", dir)
	}

	for _, table := range Tables {
		csvPath := filepath.Join(dir, table+".csv")
		if _, err := os.Stat(csvPath); err != nil {
			return nil, fmt.Errorf("required file not found: %s", csvPath)
		}
	}

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	// A second connection would see a different empty in-memory database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.loadData(dir); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) loadData(dir string) error {
	for i, table := range Tables {
		columns := Schemas[i]

		createStmt := fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(columns, ", "))
		if _, err := s.db.Exec(createStmt); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}

		if err := s.loadCSV(dir, table, columns); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) loadCSV(dir, table string, columns []string) error {
	csvPath := filepath.Join(dir, table+".csv")
	f, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", csvPath, err)
	}
	defer func() {
		_ = f.Close()
	}()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", csvPath, err)
	}
	if len(records) == 0 {
		return fmt.Errorf("empty CSV file: %s", csvPath)
	}

	// Map header names to column positions so CSV column order is free.
	header := records[0]
	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		colIdx[name] = i
	}
	for _, col := range columns {
		if _, ok := colIdx[col]; !ok {
			return fmt.Errorf("%s: missing column %q", csvPath, col)
		}
	}

	placeholders := strings.Repeat("?, ", len(columns))
	placeholders = strings.TrimSuffix(placeholders, ", ")
	insertStmt := fmt.Sprintf("INSERT INTO %s VALUES (%s)", table, placeholders)

	for rowNum, record := range records[1:] {
		values := make([]any, len(columns))
		for i, col := range columns {
			idx := colIdx[col]
			if idx >= len(record) {
				return fmt.Errorf("%s: row %d has too few fields", csvPath, rowNum+2)
			}
			values[i] = record[idx]
		}
		if _, err := s.db.Exec(insertStmt, values...); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}

	return nil
}
