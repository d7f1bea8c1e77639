package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// LinkApplication creates the (candidate, posting) application with the CV
// snapshot frozen for that posting. The pair is unique; a duplicate submission
// resolves to the existing row with created=false, not an error. The posting's
// denormalized counter is bumped in the same transaction as the insert.
func (db *DB) LinkApplication(ctx context.Context, candidateID, postingID int64, snap *ApplicationSnapshot) (int64, bool, error) {
	tx, err := db.connection.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, err
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO applications (candidate_id, posting_id, cv_data, cv_text, cv_filename, snapshot_name, snapshot_email, snapshot_phone, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
         RETURNING id`,
		candidateID, postingID, snap.CVData, snap.CVText, snap.CVFilename,
		snap.Name, snap.Email, snap.Phone,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			// Already applied to this posting: resolve to the existing row.
			var existing int64
			qerr := db.connection.QueryRowContext(ctx,
				`SELECT id FROM applications WHERE candidate_id = $1 AND posting_id = $2`,
				candidateID, postingID).Scan(&existing)
			if qerr != nil {
				return 0, false, fmt.Errorf("resolve existing application: %w", qerr)
			}
			return existing, false, nil
		}
		return 0, false, fmt.Errorf("link application: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE postings SET application_count = application_count + 1 WHERE id = $1`,
		postingID); err != nil {
		return 0, false, fmt.Errorf("bump application count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (db *DB) ListApplications(ctx context.Context, postingID int64) ([]*Application, error) {
	rows, err := db.connection.QueryContext(ctx,
		`SELECT id, candidate_id, posting_id, score, justification, notes, cv_filename,
                snapshot_name, snapshot_email, snapshot_phone, created_at
         FROM applications WHERE posting_id = $1 ORDER BY score DESC NULLS LAST, created_at`,
		postingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apps := []*Application{}
	for rows.Next() {
		a := &Application{}
		if err := rows.Scan(&a.ID, &a.CandidateID, &a.PostingID, &a.Score, &a.Justification,
			&a.Notes, &a.CVFilename, &a.SnapshotName, &a.SnapshotEmail, &a.SnapshotPhone,
			&a.CreatedAt); err != nil {
			return nil, err
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

// UnscoredApplications returns the posting's applications still waiting for a
// score: never scored (NULL) or a previous attempt failed (sentinel).
func (db *DB) UnscoredApplications(ctx context.Context, postingID int64) ([]*Application, error) {
	rows, err := db.connection.QueryContext(ctx,
		`SELECT id, candidate_id, posting_id, score, cv_text, snapshot_name
         FROM applications
         WHERE posting_id = $1 AND (score IS NULL OR score = $2)`,
		postingID, ScoreFailed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apps := []*Application{}
	for rows.Next() {
		a := &Application{}
		if err := rows.Scan(&a.ID, &a.CandidateID, &a.PostingID, &a.Score, &a.CVText, &a.SnapshotName); err != nil {
			return nil, err
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

// SetApplicationScore persists a scoring result. Score must be in [0,100] or
// the failure sentinel.
func (db *DB) SetApplicationScore(ctx context.Context, id int64, score int, justification string) error {
	if score != ScoreFailed && (score < 0 || score > 100) {
		return fmt.Errorf("score %d out of range", score)
	}
	res, err := db.connection.ExecContext(ctx,
		`UPDATE applications SET score = $2, justification = $3 WHERE id = $1`,
		id, score, justification)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (db *DB) SetApplicationNotes(ctx context.Context, id int64, notes string) error {
	_, err := db.connection.ExecContext(ctx,
		`UPDATE applications SET notes = $2 WHERE id = $1`, id, notes)
	return err
}

// DeleteApplications removes applications in bulk and keeps the per-posting
// counters consistent in the same transaction.
func (db *DB) DeleteApplications(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tx, err := db.connection.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`DELETE FROM applications WHERE id = ANY($1) RETURNING posting_id`, pq.Array(ids))
	if err != nil {
		return 0, err
	}
	perPosting := map[int64]int{}
	var deleted int64
	for rows.Next() {
		var pid int64
		if err := rows.Scan(&pid); err != nil {
			rows.Close()
			return 0, err
		}
		perPosting[pid]++
		deleted++
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for pid, n := range perPosting {
		if _, err := tx.ExecContext(ctx,
			`UPDATE postings SET application_count = GREATEST(application_count - $2, 0) WHERE id = $1`,
			pid, n); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return deleted, nil
}

// CopyApplication duplicates an application's snapshot onto another posting,
// leaving the score behind so the new posting gets a fresh evaluation.
// Copying onto a posting the candidate already applied to is a no-op.
func (db *DB) CopyApplication(ctx context.Context, id, targetPostingID int64) (int64, bool, error) {
	var candidateID int64
	snap := &ApplicationSnapshot{}
	err := db.connection.QueryRowContext(ctx,
		`SELECT candidate_id, cv_data, cv_text, cv_filename, snapshot_name, snapshot_email, snapshot_phone
         FROM applications WHERE id = $1`, id,
	).Scan(&candidateID, &snap.CVData, &snap.CVText, &snap.CVFilename,
		&snap.Name, &snap.Email, &snap.Phone)
	if err != nil {
		return 0, false, err
	}
	return db.LinkApplication(ctx, candidateID, targetPostingID, snap)
}
