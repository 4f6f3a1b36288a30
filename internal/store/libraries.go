package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const libraryColumns = "id, name, path, platform, monitored, download_enabled, download_category, priority, created_at"

// CreateLibrary inserts a new library root.
func (s *Store) CreateLibrary(ctx context.Context, lib *Library) (*Library, error) {
	if lib == nil {
		return nil, errors.New("library is nil")
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO libraries (name, path, platform, monitored, download_enabled, download_category, priority, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		lib.Name,
		lib.Path,
		nullableString(lib.Platform),
		boolToInt(lib.Monitored),
		boolToInt(lib.DownloadEnabled),
		nullableString(lib.DownloadCategory),
		lib.Priority,
		timestamp(time.Now()),
	)
	if err != nil {
		return nil, fmt.Errorf("insert library: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetLibrary(ctx, id)
}

// GetLibrary fetches a library by identifier. Returns nil when absent.
func (s *Store) GetLibrary(ctx context.Context, id int64) (*Library, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+libraryColumns+` FROM libraries WHERE id = ?`, id)
	lib, err := scanLibrary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get library: %w", err)
	}
	return lib, nil
}

// ListLibraries returns all libraries ordered by priority, highest first.
func (s *Store) ListLibraries(ctx context.Context) ([]*Library, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+libraryColumns+` FROM libraries ORDER BY priority DESC, name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("list libraries: %w", err)
	}
	defer rows.Close()

	var libraries []*Library
	for rows.Next() {
		lib, err := scanLibrary(rows)
		if err != nil {
			return nil, err
		}
		libraries = append(libraries, lib)
	}
	return libraries, rows.Err()
}

// DeleteLibrary removes a library. Games referencing it keep existing with a
// cleared library reference.
func (s *Store) DeleteLibrary(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM libraries WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete library: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func scanLibrary(scanner interface{ Scan(dest ...any) error }) (*Library, error) {
	var (
		id              int64
		name            string
		path            string
		platform        sql.NullString
		monitored       int
		downloadEnabled int
		category        sql.NullString
		priority        int
		createdRaw      string
	)
	if err := scanner.Scan(&id, &name, &path, &platform, &monitored, &downloadEnabled, &category, &priority, &createdRaw); err != nil {
		return nil, err
	}
	lib := &Library{
		ID:               id,
		Name:             name,
		Path:             path,
		Platform:         platform.String,
		Monitored:        monitored != 0,
		DownloadEnabled:  downloadEnabled != 0,
		DownloadCategory: category.String,
		Priority:         priority,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		lib.CreatedAt = created
	}
	return lib, nil
}
