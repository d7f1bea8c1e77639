package ingest

import (
	"context"
	"log"
	"sync"

	"recruiter-crm/internal/scoring"
	"recruiter-crm/internal/storage"
)

// SchedulerStore is the persistence surface the scoring sweep needs.
type SchedulerStore interface {
	GetPosting(ctx context.Context, id int64) (*storage.Posting, error)
	UnscoredApplications(ctx context.Context, postingID int64) ([]*storage.Application, error)
	SetApplicationScore(ctx context.Context, id int64, score int, justification string) error
}

// ApplicationScorer evaluates one CV against a posting.
type ApplicationScorer interface {
	Score(ctx context.Context, cvText string, posting *storage.Posting, variant scoring.Variant) (*scoring.Result, error)
}

// ProgressFunc reports "done of total" as results are persisted.
type ProgressFunc func(done, total int)

// Summary is the outcome of one scoring sweep.
type Summary struct {
	Total       int  `json:"total"`
	Scored      int  `json:"scored"`
	Failed      int  `json:"failed"`
	AllAnalyzed bool `json:"all_analyzed"`
}

// Scheduler finds a posting's applications without a score (or carrying the
// failure sentinel) and re-runs the scorer on each. Unlike ingestion there is
// no window cap here: all eligible applications are launched at once, bounded
// only by the external service's own throttling.
type Scheduler struct {
	store  SchedulerStore
	scorer ApplicationScorer
}

func NewScheduler(store SchedulerStore, scorer ApplicationScorer) *Scheduler {
	return &Scheduler{store: store, scorer: scorer}
}

// Run executes one sweep. Results are persisted incrementally as each
// evaluation completes; a failed evaluation persists the sentinel with the
// error text as justification, leaving the row eligible for the next sweep.
// Running again with nothing left to score is a no-op reporting all-analyzed.
func (s *Scheduler) Run(ctx context.Context, postingID int64, variant scoring.Variant, progress ProgressFunc) (*Summary, error) {
	posting, err := s.store.GetPosting(ctx, postingID)
	if err != nil {
		return nil, err
	}

	apps, err := s.store.UnscoredApplications(ctx, postingID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Total: len(apps)}
	if len(apps) == 0 {
		summary.AllAnalyzed = true
		log.Printf("[Scheduler] posting %d: all applications analyzed", postingID)
		return summary, nil
	}

	log.Printf("[Scheduler] posting %d: scoring %d applications (%s rubric)", postingID, len(apps), variant)

	var mu sync.Mutex
	var wg sync.WaitGroup
	done := 0

	for _, app := range apps {
		wg.Add(1)
		go func(app *storage.Application) {
			defer wg.Done()

			result, err := s.scorer.Score(ctx, app.CVText, posting, variant)

			score := storage.ScoreFailed
			justification := ""
			if err != nil {
				justification = err.Error()
				log.Printf("[Scheduler] application %d: scoring failed: %v", app.ID, err)
			} else {
				score = result.Score
				justification = result.Justification
			}

			if perr := s.store.SetApplicationScore(ctx, app.ID, score, justification); perr != nil {
				log.Printf("[Scheduler] application %d: persist failed: %v", app.ID, perr)
				err = perr
			}

			mu.Lock()
			done++
			if err != nil {
				summary.Failed++
			} else {
				summary.Scored++
			}
			current := done
			mu.Unlock()

			if progress != nil {
				progress(current, len(apps))
			}
		}(app)
	}

	wg.Wait()

	log.Printf("[Scheduler] posting %d: %d scored, %d failed of %d", postingID, summary.Scored, summary.Failed, summary.Total)
	return summary, nil
}
