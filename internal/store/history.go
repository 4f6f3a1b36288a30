package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const historyColumns = "id, release_id, status, progress, completed_at"

// CreateHistoryEntry opens a download history record for a grab.
func (s *Store) CreateHistoryEntry(ctx context.Context, releaseID int64, status GrabStatus) (*DownloadHistoryEntry, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO download_history (release_id, status, progress) VALUES (?, ?, 0)`,
		releaseID, status)
	if err != nil {
		return nil, fmt.Errorf("insert history entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetHistoryEntry(ctx, id)
}

// GetHistoryEntry fetches a history entry by identifier. Returns nil when absent.
func (s *Store) GetHistoryEntry(ctx context.Context, id int64) (*DownloadHistoryEntry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+historyColumns+` FROM download_history WHERE id = ?`, id)
	entry, err := scanHistoryEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get history entry: %w", err)
	}
	return entry, nil
}

// HistoryForRelease returns the newest history entry for a grab, or nil.
func (s *Store) HistoryForRelease(ctx context.Context, releaseID int64) (*DownloadHistoryEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+historyColumns+` FROM download_history WHERE release_id = ? ORDER BY id DESC LIMIT 1`, releaseID)
	entry, err := scanHistoryEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("history for release: %w", err)
	}
	return entry, nil
}

// UpdateHistoryProgress records transfer progress (0-100) and status.
func (s *Store) UpdateHistoryProgress(ctx context.Context, id int64, progress float64, status GrabStatus) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE download_history SET progress = ?, status = ? WHERE id = ?`,
		progress, status, id)
	if err != nil {
		return fmt.Errorf("update history progress: %w", err)
	}
	return nil
}

// CompleteHistoryEntry marks an entry finished at the given time.
func (s *Store) CompleteHistoryEntry(ctx context.Context, id int64, status GrabStatus, completedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE download_history SET status = ?, progress = 100, completed_at = ? WHERE id = ?`,
		status, timestamp(completedAt), id)
	if err != nil {
		return fmt.Errorf("complete history entry: %w", err)
	}
	return nil
}

// ListHistory returns download history, newest first.
func (s *Store) ListHistory(ctx context.Context, limit int) ([]*DownloadHistoryEntry, error) {
	query := `SELECT ` + historyColumns + ` FROM download_history ORDER BY id DESC`
	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = s.db.QueryContext(ctx, query+` LIMIT ?`, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var entries []*DownloadHistoryEntry
	for rows.Next() {
		entry, err := scanHistoryEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanHistoryEntry(scanner interface{ Scan(dest ...any) error }) (*DownloadHistoryEntry, error) {
	var (
		id           int64
		releaseID    int64
		statusStr    string
		progress     float64
		completedRaw sql.NullString
	)
	if err := scanner.Scan(&id, &releaseID, &statusStr, &progress, &completedRaw); err != nil {
		return nil, err
	}
	entry := &DownloadHistoryEntry{
		ID:        id,
		ReleaseID: releaseID,
		Status:    GrabStatus(statusStr),
		Progress:  progress,
	}
	if completedRaw.Valid {
		if completed, err := parseTimeString(completedRaw.String); err == nil {
			entry.CompletedAt = &completed
		}
	}
	return entry, nil
}
