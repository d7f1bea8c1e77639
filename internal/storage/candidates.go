package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// UpsertCandidate inserts or refreshes a candidate keyed by the normalized
// name. On conflict only contact fields, the CV payload and the timestamp are
// overwritten; folder, status and read flag stay whatever the recruiter set.
// The returned flag is true when a new row was created.
func (db *DB) UpsertCandidate(ctx context.Context, c *CandidateUpsert) (int64, bool, error) {
	query := `INSERT INTO candidates (name, email, phone, cv_data, cv_text, cv_filename, folder_id, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
              ON CONFLICT (name) DO UPDATE
                SET email = EXCLUDED.email,
                    phone = EXCLUDED.phone,
                    cv_data = EXCLUDED.cv_data,
                    cv_text = EXCLUDED.cv_text,
                    cv_filename = EXCLUDED.cv_filename,
                    updated_at = NOW()
              RETURNING id, (xmax = 0)`

	var id int64
	var created bool
	err := db.connection.QueryRowContext(ctx, query,
		c.Name, c.Email, c.Phone, c.CVData, c.CVText, c.CVFilename, c.FolderID,
	).Scan(&id, &created)
	if err != nil {
		return 0, false, fmt.Errorf("upsert candidate %q: %w", c.Name, err)
	}
	return id, created, nil
}

func (db *DB) GetCandidate(ctx context.Context, id int64) (*Candidate, error) {
	c := &Candidate{}
	query := `SELECT id, name, email, phone, cv_data, cv_text, cv_filename, status, is_read, folder_id, updated_at
              FROM candidates WHERE id = $1`
	err := db.connection.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.CVData, &c.CVText, &c.CVFilename,
		&c.Status, &c.IsRead, &c.FolderID, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// SearchCandidates returns candidates matching the provided filter using
// ILIKE on the name and exact matches elsewhere.
func (db *DB) SearchCandidates(ctx context.Context, filter *CandidateFilter) ([]*Candidate, error) {
	base := `SELECT id, name, email, phone, cv_filename, status, is_read, folder_id, updated_at FROM candidates`
	var where []string
	var args []interface{}
	i := 1

	if filter == nil {
		filter = &CandidateFilter{}
	}

	if filter.Name != "" {
		where = append(where, fmt.Sprintf("name ILIKE $%d", i))
		args = append(args, "%"+filter.Name+"%")
		i++
	}
	if filter.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", i))
		args = append(args, filter.Status)
		i++
	}
	if filter.FolderID != nil {
		where = append(where, fmt.Sprintf("folder_id = $%d", i))
		args = append(args, *filter.FolderID)
		i++
	}
	if filter.Unread {
		where = append(where, "is_read = FALSE")
	}

	if len(where) > 0 {
		base += " WHERE " + strings.Join(where, " AND ")
	}
	base += " ORDER BY updated_at DESC"

	rows, err := db.connection.QueryContext(ctx, base, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*Candidate
	for rows.Next() {
		c := &Candidate{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CVFilename,
			&c.Status, &c.IsRead, &c.FolderID, &c.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (db *DB) SetCandidateStatus(ctx context.Context, id int64, status string) error {
	switch status {
	case StatusGood, StatusNormal, StatusBlocked, StatusNone:
	default:
		return fmt.Errorf("invalid status %q", status)
	}
	_, err := db.connection.ExecContext(ctx,
		`UPDATE candidates SET status = $2 WHERE id = $1`, id, status)
	return err
}

func (db *DB) MarkCandidateRead(ctx context.Context, id int64, read bool) error {
	_, err := db.connection.ExecContext(ctx,
		`UPDATE candidates SET is_read = $2 WHERE id = $1`, id, read)
	return err
}

// MoveCandidateToFolder moves a candidate; a nil folder means back to root.
func (db *DB) MoveCandidateToFolder(ctx context.Context, id int64, folderID *int64) error {
	_, err := db.connection.ExecContext(ctx,
		`UPDATE candidates SET folder_id = $2 WHERE id = $1`, id, folderID)
	return err
}

// DeleteCandidates removes candidates in bulk. Applications go with them via
// the FK cascade; folder references on other rows are untouched.
func (db *DB) DeleteCandidates(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := db.connection.ExecContext(ctx,
		`DELETE FROM candidates WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// AddNote appends to the candidate's note history.
func (db *DB) AddNote(ctx context.Context, candidateID int64, note string) (int64, error) {
	var id int64
	err := db.connection.QueryRowContext(ctx,
		`INSERT INTO note_history (candidate_id, note, created_at) VALUES ($1, $2, NOW()) RETURNING id`,
		candidateID, note,
	).Scan(&id)
	return id, err
}

func (db *DB) ListNotes(ctx context.Context, candidateID int64) ([]*Note, error) {
	rows, err := db.connection.QueryContext(ctx,
		`SELECT id, candidate_id, note, created_at FROM note_history WHERE candidate_id = $1 ORDER BY created_at DESC`,
		candidateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := []*Note{}
	for rows.Next() {
		n := &Note{}
		if err := rows.Scan(&n.ID, &n.CandidateID, &n.Note, &n.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
