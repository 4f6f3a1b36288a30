package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const updateColumns = "id, game_id, update_type, title, version, size, quality, seeders, download_url, indexer, detected_at, status"

// InsertUpdate creates a pending update unless one already exists for the same
// (gameID, downloadURL). The boolean reports whether a row was inserted, which
// makes repeated detection runs idempotent.
func (s *Store) InsertUpdate(ctx context.Context, update *GameUpdate) (*GameUpdate, bool, error) {
	if update == nil {
		return nil, false, errors.New("update is nil")
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO game_updates (game_id, update_type, title, version, size, quality, seeders, download_url, indexer, detected_at, status)
         SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
         WHERE NOT EXISTS (
             SELECT 1 FROM game_updates
             WHERE game_id = ? AND download_url = ? AND status = ?
         )`,
		update.GameID,
		update.UpdateType,
		update.Title,
		nullableString(update.Version),
		update.Size,
		nullableString(update.Quality),
		update.Seeders,
		update.DownloadURL,
		nullableString(update.Indexer),
		timestamp(time.Now()),
		UpdatePending,
		update.GameID,
		update.DownloadURL,
		UpdatePending,
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert update: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, false, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, false, fmt.Errorf("last insert id: %w", err)
	}
	inserted, err := s.GetUpdate(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return inserted, true, nil
}

// GetUpdate fetches an update by identifier. Returns nil when absent.
func (s *Store) GetUpdate(ctx context.Context, id int64) (*GameUpdate, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+updateColumns+` FROM game_updates WHERE id = ?`, id)
	update, err := scanUpdate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get update: %w", err)
	}
	return update, nil
}

// SetUpdateStatus transitions an update record.
func (s *Store) SetUpdateStatus(ctx context.Context, id int64, status UpdateStatus) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE game_updates SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("set update status: %w", err)
	}
	return nil
}

// ListUpdates returns updates filtered by status set (or all when no status is
// provided), newest first.
func (s *Store) ListUpdates(ctx context.Context, statuses ...UpdateStatus) ([]*GameUpdate, error) {
	var (
		rows *sql.Rows
		err  error
	)
	baseQuery := `SELECT ` + updateColumns + ` FROM game_updates`
	orderClause := ` ORDER BY id DESC`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list updates: %w", err)
	}
	defer rows.Close()

	var updates []*GameUpdate
	for rows.Next() {
		update, err := scanUpdate(rows)
		if err != nil {
			return nil, err
		}
		updates = append(updates, update)
	}
	return updates, rows.Err()
}

// PendingUpdatesForGame returns a game's pending updates, newest first.
func (s *Store) PendingUpdatesForGame(ctx context.Context, gameID int64) ([]*GameUpdate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+updateColumns+` FROM game_updates WHERE game_id = ? AND status = ? ORDER BY id DESC`,
		gameID, UpdatePending)
	if err != nil {
		return nil, fmt.Errorf("pending updates for game: %w", err)
	}
	defer rows.Close()

	var updates []*GameUpdate
	for rows.Next() {
		update, err := scanUpdate(rows)
		if err != nil {
			return nil, err
		}
		updates = append(updates, update)
	}
	return updates, rows.Err()
}

func scanUpdate(scanner interface{ Scan(dest ...any) error }) (*GameUpdate, error) {
	var (
		id          int64
		gameID      int64
		updateType  string
		title       string
		version     sql.NullString
		size        int64
		quality     sql.NullString
		seeders     int
		downloadURL string
		indexer     sql.NullString
		detectedRaw string
		statusStr   string
	)
	if err := scanner.Scan(&id, &gameID, &updateType, &title, &version, &size, &quality, &seeders, &downloadURL, &indexer, &detectedRaw, &statusStr); err != nil {
		return nil, err
	}
	update := &GameUpdate{
		ID:          id,
		GameID:      gameID,
		UpdateType:  UpdateType(updateType),
		Title:       title,
		Version:     version.String,
		Size:        size,
		Quality:     quality.String,
		Seeders:     seeders,
		DownloadURL: downloadURL,
		Indexer:     indexer.String,
		Status:      UpdateStatus(statusStr),
	}
	if detected, err := parseTimeString(detectedRaw); err == nil {
		update.DetectedAt = detected
	}
	return update, nil
}
