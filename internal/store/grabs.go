package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ludo/internal/services"
)

const grabColumns = "id, game_id, guid, title, indexer, quality, size, status, hash, grabbed_at, updated_at"

// InsertGrab creates a pending grab record for (gameID, guid). The insert is
// guarded by a single statement that refuses to add a row while another grab
// for the same pair is pending or downloading; losing that race returns
// services.ErrDuplicateGrab.
func (s *Store) InsertGrab(ctx context.Context, grab *GrabbedRelease) (*GrabbedRelease, error) {
	if grab == nil {
		return nil, errors.New("grab is nil")
	}
	now := timestamp(time.Now())
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO grabbed_releases (game_id, guid, title, indexer, quality, size, status, hash, grabbed_at, updated_at)
         SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
         WHERE NOT EXISTS (
             SELECT 1 FROM grabbed_releases
             WHERE game_id = ? AND guid = ? AND status IN (?, ?)
         )`,
		grab.GameID,
		grab.GUID,
		grab.Title,
		nullableString(grab.Indexer),
		nullableString(grab.Quality),
		grab.Size,
		GrabPending,
		nullableString(grab.Hash),
		now,
		now,
		grab.GameID,
		grab.GUID,
		GrabPending,
		GrabDownloading,
	)
	if err != nil {
		return nil, fmt.Errorf("insert grab: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, services.Wrap(services.ErrDuplicateGrab, "store", "insert grab",
			fmt.Sprintf("release %s already pending or downloading for game %d", grab.GUID, grab.GameID), nil)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetGrab(ctx, id)
}

// GetGrab fetches a grab record by identifier. Returns nil when absent.
func (s *Store) GetGrab(ctx context.Context, id int64) (*GrabbedRelease, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+grabColumns+` FROM grabbed_releases WHERE id = ?`, id)
	grab, err := scanGrab(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get grab: %w", err)
	}
	return grab, nil
}

// FindGrabByHash returns the most recent downloading grab with the given
// transfer hash, or nil.
func (s *Store) FindGrabByHash(ctx context.Context, hash string) (*GrabbedRelease, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+grabColumns+` FROM grabbed_releases WHERE hash = ? AND status = ? ORDER BY id DESC LIMIT 1`,
		hash, GrabDownloading)
	grab, err := scanGrab(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find grab by hash: %w", err)
	}
	return grab, nil
}

// SetGrabStatus transitions a grab and optionally records the transfer hash.
func (s *Store) SetGrabStatus(ctx context.Context, id int64, status GrabStatus, hash string) error {
	var err error
	if hash != "" {
		_, err = s.db.ExecContext(ctx,
			`UPDATE grabbed_releases SET status = ?, hash = ?, updated_at = ? WHERE id = ?`,
			status, hash, timestamp(time.Now()), id)
	} else {
		_, err = s.db.ExecContext(ctx,
			`UPDATE grabbed_releases SET status = ?, updated_at = ? WHERE id = ?`,
			status, timestamp(time.Now()), id)
	}
	if err != nil {
		return fmt.Errorf("set grab status: %w", err)
	}
	return nil
}

// ListGrabs returns grab records for a game (or all when gameID is 0), newest first.
func (s *Store) ListGrabs(ctx context.Context, gameID int64) ([]*GrabbedRelease, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if gameID == 0 {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+grabColumns+` FROM grabbed_releases ORDER BY id DESC`)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+grabColumns+` FROM grabbed_releases WHERE game_id = ? ORDER BY id DESC`, gameID)
	}
	if err != nil {
		return nil, fmt.Errorf("list grabs: %w", err)
	}
	defer rows.Close()

	var grabs []*GrabbedRelease
	for rows.Next() {
		grab, err := scanGrab(rows)
		if err != nil {
			return nil, err
		}
		grabs = append(grabs, grab)
	}
	return grabs, rows.Err()
}

// CountActiveGrabs returns the number of non-terminal grabs for a game.
func (s *Store) CountActiveGrabs(ctx context.Context, gameID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM grabbed_releases WHERE game_id = ? AND status IN (?, ?)`,
		gameID, GrabPending, GrabDownloading).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active grabs: %w", err)
	}
	return count, nil
}

func scanGrab(scanner interface{ Scan(dest ...any) error }) (*GrabbedRelease, error) {
	var (
		id         int64
		gameID     int64
		guid       string
		title      string
		indexer    sql.NullString
		quality    sql.NullString
		size       int64
		statusStr  string
		hash       sql.NullString
		grabbedRaw string
		updatedRaw string
	)
	if err := scanner.Scan(&id, &gameID, &guid, &title, &indexer, &quality, &size, &statusStr, &hash, &grabbedRaw, &updatedRaw); err != nil {
		return nil, err
	}
	grab := &GrabbedRelease{
		ID:      id,
		GameID:  gameID,
		GUID:    guid,
		Title:   title,
		Indexer: indexer.String,
		Quality: quality.String,
		Size:    size,
		Status:  GrabStatus(statusStr),
		Hash:    hash.String,
	}
	if grabbed, err := parseTimeString(grabbedRaw); err == nil {
		grab.GrabbedAt = grabbed
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		grab.UpdatedAt = updated
	}
	return grab, nil
}
