// Copyright (c) 2019-2020 The Zcash developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

// Package storage persists verified headers to a local sqlite3 database, so
// the sync driver can resume from its last checkpoint and rebuild its
// difficulty context without re-fetching everything from the node.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/zcash/headerpow/chainsync"
)

// SQLiteStore implements chainsync.HeaderStore over a single sqlite3 file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (creating if necessary) the header database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("storage: opening %s: %w", path, err)
	}
	if err := createHeaderTable(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func createHeaderTable(conn *sql.DB) error {
	tableCreation := `
		CREATE TABLE IF NOT EXISTS headers (
			height INTEGER PRIMARY KEY,
			header_hex TEXT NOT NULL
		);
	`
	_, err := conn.Exec(tableCreation)
	return err
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Put stores headerHex at height, overwriting any previous entry.
func (s *SQLiteStore) Put(ctx context.Context, height uint32, headerHex string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO headers (height, header_hex) VALUES (?, ?)
		 ON CONFLICT(height) DO UPDATE SET header_hex = excluded.header_hex`,
		height, headerHex)
	if err != nil {
		return fmt.Errorf("storage: inserting header at height %d: %w", height, err)
	}
	return nil
}

// Get returns the stored header at height, if any.
func (s *SQLiteStore) Get(ctx context.Context, height uint32) (string, bool, error) {
	var headerHex string
	err := s.db.QueryRowContext(ctx,
		`SELECT header_hex FROM headers WHERE height = ?`, height).Scan(&headerHex)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("storage: reading header at height %d: %w", height, err)
	}
	return headerHex, true, nil
}

// Tip returns the highest persisted height, if the store isn't empty.
func (s *SQLiteStore) Tip(ctx context.Context) (uint32, bool, error) {
	var tip sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT MAX(height) FROM headers`).Scan(&tip)
	if err != nil {
		return 0, false, fmt.Errorf("storage: reading tip: %w", err)
	}
	if !tip.Valid {
		return 0, false, nil
	}
	return uint32(tip.Int64), true, nil
}

// LastN returns up to n stored headers immediately below and including the
// current tip, in ascending height order.
func (s *SQLiteStore) LastN(ctx context.Context, n int) ([]chainsync.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT height, header_hex FROM headers ORDER BY height DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("storage: reading last %d headers: %w", n, err)
	}
	defer rows.Close()

	var out []chainsync.Record
	for rows.Next() {
		var rec chainsync.Record
		if err := rows.Scan(&rec.Height, &rec.HeaderHex); err != nil {
			return nil, fmt.Errorf("storage: scanning header row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterating header rows: %w", err)
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
