package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const folderColumns = "id, game_id, folder_path, is_primary, version, quality, added_at"

// CreateFolder attaches a folder record to a game.
func (s *Store) CreateFolder(ctx context.Context, folder *Folder) (*Folder, error) {
	if folder == nil {
		return nil, errors.New("folder is nil")
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO folders (game_id, folder_path, is_primary, version, quality, added_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		folder.GameID,
		folder.FolderPath,
		boolToInt(folder.IsPrimary),
		nullableString(folder.Version),
		nullableString(folder.Quality),
		timestamp(time.Now()),
	)
	if err != nil {
		return nil, fmt.Errorf("insert folder: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetFolder(ctx, id)
}

// GetFolder fetches a folder by identifier. Returns nil when absent.
func (s *Store) GetFolder(ctx context.Context, id int64) (*Folder, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+folderColumns+` FROM folders WHERE id = ?`, id)
	folder, err := scanFolder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get folder: %w", err)
	}
	return folder, nil
}

// FoldersForGame returns a game's folders, primary first.
func (s *Store) FoldersForGame(ctx context.Context, gameID int64) ([]*Folder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+folderColumns+` FROM folders WHERE game_id = ? ORDER BY is_primary DESC, added_at`, gameID)
	if err != nil {
		return nil, fmt.Errorf("folders for game: %w", err)
	}
	defer rows.Close()

	var folders []*Folder
	for rows.Next() {
		folder, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		folders = append(folders, folder)
	}
	return folders, rows.Err()
}

// PrimaryFolder returns a game's primary folder, or nil when none is set.
func (s *Store) PrimaryFolder(ctx context.Context, gameID int64) (*Folder, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+folderColumns+` FROM folders WHERE game_id = ? AND is_primary = 1 LIMIT 1`, gameID)
	folder, err := scanFolder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("primary folder: %w", err)
	}
	return folder, nil
}

// SetPrimaryFolder atomically clears the previous primary and marks the given
// folder primary. The folder must belong to the game.
func (s *Store) SetPrimaryFolder(ctx context.Context, gameID, folderID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set primary: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE folders SET is_primary = 1 WHERE id = ? AND game_id = ?`, folderID, gameID)
	if err != nil {
		return fmt.Errorf("set primary: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE folders SET is_primary = 0 WHERE game_id = ? AND id != ?`, gameID, folderID); err != nil {
		return fmt.Errorf("clear previous primary: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit set primary: %w", err)
	}
	return nil
}

// DeleteFolder removes the database record only; files on disk are never
// touched. When the deleted folder was primary, no other folder is promoted.
func (s *Store) DeleteFolder(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM folders WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete folder: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func scanFolder(scanner interface{ Scan(dest ...any) error }) (*Folder, error) {
	var (
		id        int64
		gameID    int64
		path      string
		isPrimary int
		version   sql.NullString
		quality   sql.NullString
		addedRaw  string
	)
	if err := scanner.Scan(&id, &gameID, &path, &isPrimary, &version, &quality, &addedRaw); err != nil {
		return nil, err
	}
	folder := &Folder{
		ID:         id,
		GameID:     gameID,
		FolderPath: path,
		IsPrimary:  isPrimary != 0,
		Version:    version.String,
		Quality:    quality.String,
	}
	if added, err := parseTimeString(addedRaw); err == nil {
		folder.AddedAt = added
	}
	return folder, nil
}
