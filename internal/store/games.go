package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const gameColumns = "id, igdb_id, title, platform, status, monitored, tags, library_id, installed_version, installed_quality, update_policy, created_at, updated_at"

// CreateGame inserts a new game record.
func (s *Store) CreateGame(ctx context.Context, game *Game) (*Game, error) {
	if game == nil {
		return nil, errors.New("game is nil")
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO games (
            igdb_id, title, platform, status, monitored, tags, library_id,
            installed_version, installed_quality, update_policy, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		game.IGDBID,
		game.Title,
		nullableString(game.Platform),
		game.Status,
		boolToInt(game.Monitored),
		encodeTags(game.Tags),
		nullableInt64(game.LibraryID),
		nullableString(game.InstalledVersion),
		nullableString(game.InstalledQuality),
		game.UpdatePolicy,
		timestamp(now),
		timestamp(now),
	)
	if err != nil {
		return nil, fmt.Errorf("insert game: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetGame(ctx, id)
}

// GetGame fetches a game by identifier. Returns nil when absent.
func (s *Store) GetGame(ctx context.Context, id int64) (*Game, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE id = ?`, id)
	game, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get game: %w", err)
	}
	return game, nil
}

// FindGameByIGDBID returns the first game matching an IGDB identifier.
func (s *Store) FindGameByIGDBID(ctx context.Context, igdbID int64) (*Game, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+gameColumns+` FROM games WHERE igdb_id = ? ORDER BY id LIMIT 1`, igdbID)
	game, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find game by igdb id: %w", err)
	}
	return game, nil
}

// UpdateGame persists changes to an existing game.
func (s *Store) UpdateGame(ctx context.Context, game *Game) error {
	if game == nil {
		return errors.New("game is nil")
	}
	game.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`UPDATE games
         SET igdb_id = ?, title = ?, platform = ?, status = ?, monitored = ?,
             tags = ?, library_id = ?, installed_version = ?, installed_quality = ?,
             update_policy = ?, updated_at = ?
         WHERE id = ?`,
		game.IGDBID,
		game.Title,
		nullableString(game.Platform),
		game.Status,
		boolToInt(game.Monitored),
		encodeTags(game.Tags),
		nullableInt64(game.LibraryID),
		nullableString(game.InstalledVersion),
		nullableString(game.InstalledQuality),
		game.UpdatePolicy,
		timestamp(game.UpdatedAt),
		game.ID,
	)
	if err != nil {
		return fmt.Errorf("update game: %w", err)
	}
	return nil
}

// SetGameStatus transitions only the status column of a game.
func (s *Store) SetGameStatus(ctx context.Context, id int64, status GameStatus) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE games SET status = ?, updated_at = ? WHERE id = ?`,
		status, timestamp(time.Now()), id)
	if err != nil {
		return fmt.Errorf("set game status: %w", err)
	}
	return nil
}

// ListGames returns games filtered by status set (or all games when no status
// is provided), ordered by title.
func (s *Store) ListGames(ctx context.Context, statuses ...GameStatus) ([]*Game, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + gameColumns + ` FROM games`
	orderClause := ` ORDER BY title COLLATE NOCASE`

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
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var games []*Game
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, game)
	}
	return games, rows.Err()
}

// ListUpdateEligibleGames returns monitored, downloaded games whose policy is
// not ignore, the population checkAllUpdates iterates.
func (s *Store) ListUpdateEligibleGames(ctx context.Context) ([]*Game, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+gameColumns+` FROM games
         WHERE monitored = 1 AND status = ? AND update_policy != ?
         ORDER BY title COLLATE NOCASE`,
		GameDownloaded, PolicyIgnore)
	if err != nil {
		return nil, fmt.Errorf("list eligible games: %w", err)
	}
	defer rows.Close()

	var games []*Game
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, game)
	}
	return games, rows.Err()
}

// DeleteGame removes a game record. Folders cascade in the database; files on
// disk are never touched.
func (s *Store) DeleteGame(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM games WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete game: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// GameStats returns a count of games grouped by status.
func (s *Store) GameStats(ctx context.Context) (map[GameStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM games GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("game stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[GameStatus]int)
	for rows.Next() {
		var status GameStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

func scanGame(scanner interface{ Scan(dest ...any) error }) (*Game, error) {
	var (
		id               int64
		igdbID           int64
		title            string
		platform         sql.NullString
		statusStr        string
		monitored        int
		tags             sql.NullString
		libraryID        sql.NullInt64
		installedVersion sql.NullString
		installedQuality sql.NullString
		policyStr        string
		createdRaw       string
		updatedRaw       string
	)

	if err := scanner.Scan(
		&id, &igdbID, &title, &platform, &statusStr, &monitored, &tags,
		&libraryID, &installedVersion, &installedQuality, &policyStr,
		&createdRaw, &updatedRaw,
	); err != nil {
		return nil, err
	}

	game := &Game{
		ID:               id,
		IGDBID:           igdbID,
		Title:            title,
		Platform:         platform.String,
		Status:           GameStatus(statusStr),
		Monitored:        monitored != 0,
		Tags:             decodeTags(tags.String),
		InstalledVersion: installedVersion.String,
		InstalledQuality: installedQuality.String,
		UpdatePolicy:     UpdatePolicy(policyStr),
	}
	if libraryID.Valid {
		value := libraryID.Int64
		game.LibraryID = &value
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		game.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		game.UpdatedAt = updated
	}
	return game, nil
}
