package storage

import (
	"context"
	"fmt"
)

func (db *DB) CreateFolder(ctx context.Context, name string, parentID *int64) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("folder name is required")
	}
	var id int64
	err := db.connection.QueryRowContext(ctx,
		`INSERT INTO folders (name, parent_id) VALUES ($1, $2) RETURNING id`,
		name, parentID,
	).Scan(&id)
	return id, err
}

func (db *DB) ListFolders(ctx context.Context) ([]*Folder, error) {
	rows, err := db.connection.QueryContext(ctx,
		`SELECT id, name, parent_id FROM folders ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	folders := []*Folder{}
	for rows.Next() {
		f := &Folder{}
		if err := rows.Scan(&f.ID, &f.Name, &f.ParentID); err != nil {
			return nil, err
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

// DeleteFolder removes one folder. Child folders and candidates inside it are
// orphaned to root by the ON DELETE SET NULL policy, never deleted.
func (db *DB) DeleteFolder(ctx context.Context, id int64) error {
	res, err := db.connection.ExecContext(ctx, `DELETE FROM folders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("folder %d not found", id)
	}
	return nil
}
