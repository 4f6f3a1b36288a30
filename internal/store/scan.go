package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const scanColumns = "id, path, name, parsed_title, parsed_year, state, game_id, scanned_at"

// UpsertScanEntry records a scanned folder. A path already present keeps its
// id and resolution state but refreshes the parsed fields and timestamp.
func (s *Store) UpsertScanEntry(ctx context.Context, entry *ScanEntry) (*ScanEntry, error) {
	if entry == nil {
		return nil, errors.New("scan entry is nil")
	}
	state := entry.State
	if state == "" {
		state = ScanUnmatched
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scan_entries (path, name, parsed_title, parsed_year, state, game_id, scanned_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(path) DO UPDATE SET
             name = excluded.name,
             parsed_title = excluded.parsed_title,
             parsed_year = excluded.parsed_year,
             scanned_at = excluded.scanned_at`,
		entry.Path,
		entry.Name,
		nullableString(entry.ParsedTitle),
		entry.ParsedYear,
		state,
		nullableInt64(entry.GameID),
		timestamp(time.Now()),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert scan entry: %w", err)
	}
	return s.FindScanEntryByPath(ctx, entry.Path)
}

// FindScanEntryByPath returns the scan entry for a path, or nil.
func (s *Store) FindScanEntryByPath(ctx context.Context, path string) (*ScanEntry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+scanColumns+` FROM scan_entries WHERE path = ?`, path)
	entry, err := scanScanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find scan entry: %w", err)
	}
	return entry, nil
}

// GetScanEntry fetches a scan entry by identifier. Returns nil when absent.
func (s *Store) GetScanEntry(ctx context.Context, id int64) (*ScanEntry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+scanColumns+` FROM scan_entries WHERE id = ?`, id)
	entry, err := scanScanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get scan entry: %w", err)
	}
	return entry, nil
}

// ResolveScanEntry marks a scan entry matched to a game.
func (s *Store) ResolveScanEntry(ctx context.Context, id, gameID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE scan_entries SET state = ?, game_id = ? WHERE id = ?`,
		ScanMatched, gameID, id)
	if err != nil {
		return fmt.Errorf("resolve scan entry: %w", err)
	}
	return nil
}

// ListUnmatchedScanEntries returns scan entries awaiting manual resolution.
func (s *Store) ListUnmatchedScanEntries(ctx context.Context) ([]*ScanEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+scanColumns+` FROM scan_entries WHERE state = ? ORDER BY name COLLATE NOCASE`, ScanUnmatched)
	if err != nil {
		return nil, fmt.Errorf("list unmatched scan entries: %w", err)
	}
	defer rows.Close()

	var entries []*ScanEntry
	for rows.Next() {
		entry, err := scanScanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanScanEntry(scanner interface{ Scan(dest ...any) error }) (*ScanEntry, error) {
	var (
		id          int64
		path        string
		name        string
		parsedTitle sql.NullString
		parsedYear  int
		state       string
		gameID      sql.NullInt64
		scannedRaw  string
	)
	if err := scanner.Scan(&id, &path, &name, &parsedTitle, &parsedYear, &state, &gameID, &scannedRaw); err != nil {
		return nil, err
	}
	entry := &ScanEntry{
		ID:          id,
		Path:        path,
		Name:        name,
		ParsedTitle: parsedTitle.String,
		ParsedYear:  parsedYear,
		State:       ScanState(state),
	}
	if gameID.Valid {
		value := gameID.Int64
		entry.GameID = &value
	}
	if scanned, err := parseTimeString(scannedRaw); err == nil {
		entry.ScannedAt = scanned
	}
	return entry, nil
}
