package storage

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
)

// Eligibility errors for public submission. Checked before any extraction or
// AI work is spent on the file.
var (
	ErrPostingExpired = errors.New("posting expired")
	ErrPostingFull    = errors.New("posting reached its application limit")
)

func (db *DB) CreatePosting(ctx context.Context, p *Posting) (int64, error) {
	var id int64
	err := db.connection.QueryRowContext(ctx,
		`INSERT INTO postings (title, description, mandatory_conditions, desirable_conditions, max_applications, expires_at)
         VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		p.Title, p.Description, pq.Array(p.MandatoryConditions), pq.Array(p.DesirableConditions),
		p.MaxApplications, p.ExpiresAt,
	).Scan(&id)
	return id, err
}

func (db *DB) GetPosting(ctx context.Context, id int64) (*Posting, error) {
	p := &Posting{}
	err := db.connection.QueryRowContext(ctx,
		`SELECT id, title, description, mandatory_conditions, desirable_conditions, max_applications, expires_at, application_count
         FROM postings WHERE id = $1`, id,
	).Scan(&p.ID, &p.Title, &p.Description, pq.Array(&p.MandatoryConditions),
		pq.Array(&p.DesirableConditions), &p.MaxApplications, &p.ExpiresAt, &p.ApplicationCount)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (db *DB) ListPostings(ctx context.Context) ([]*Posting, error) {
	rows, err := db.connection.QueryContext(ctx,
		`SELECT id, title, description, mandatory_conditions, desirable_conditions, max_applications, expires_at, application_count
         FROM postings ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	postings := []*Posting{}
	for rows.Next() {
		p := &Posting{}
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, pq.Array(&p.MandatoryConditions),
			pq.Array(&p.DesirableConditions), &p.MaxApplications, &p.ExpiresAt, &p.ApplicationCount); err != nil {
			return nil, err
		}
		postings = append(postings, p)
	}
	return postings, rows.Err()
}

// CheckEligibility rejects submission to an expired or full posting. Expiry is
// compared at day granularity: the posting accepts submissions through its
// expiry day.
func CheckEligibility(p *Posting, now time.Time) error {
	if p.ExpiresAt != nil {
		y, m, d := p.ExpiresAt.Date()
		endOfDay := time.Date(y, m, d, 23, 59, 59, 0, now.Location())
		if now.After(endOfDay) {
			return ErrPostingExpired
		}
	}
	if p.MaxApplications > 0 && p.ApplicationCount >= p.MaxApplications {
		return ErrPostingFull
	}
	return nil
}

// CheckPostingEligibility loads the posting and applies CheckEligibility.
func (db *DB) CheckPostingEligibility(ctx context.Context, postingID int64) (*Posting, error) {
	p, err := db.GetPosting(ctx, postingID)
	if err != nil {
		return nil, err
	}
	if err := CheckEligibility(p, time.Now()); err != nil {
		return nil, err
	}
	return p, nil
}
