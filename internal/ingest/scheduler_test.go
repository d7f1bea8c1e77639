package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recruiter-crm/internal/scoring"
	"recruiter-crm/internal/storage"
)

type fakeSchedStore struct {
	mu      sync.Mutex
	posting *storage.Posting
	apps    map[int64]*storage.Application // id -> app (score mutated in place)
	updates []int64
}

func newFakeSchedStore(postingID int64, appIDs ...int64) *fakeSchedStore {
	s := &fakeSchedStore{
		posting: &storage.Posting{ID: postingID, Title: "Dev"},
		apps:    map[int64]*storage.Application{},
	}
	for _, id := range appIDs {
		s.apps[id] = &storage.Application{ID: id, PostingID: postingID, CVText: fmt.Sprintf("cv %d", id)}
	}
	return s
}

func (s *fakeSchedStore) GetPosting(_ context.Context, id int64) (*storage.Posting, error) {
	if s.posting.ID != id {
		return nil, fmt.Errorf("posting %d not found", id)
	}
	return s.posting, nil
}

func (s *fakeSchedStore) UnscoredApplications(_ context.Context, postingID int64) ([]*storage.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*storage.Application
	for _, a := range s.apps {
		if a.PostingID == postingID && (a.Score == nil || *a.Score == storage.ScoreFailed) {
			copied := *a
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *fakeSchedStore) SetApplicationScore(_ context.Context, id int64, score int, justification string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.apps[id]
	if !ok {
		return fmt.Errorf("application %d not found", id)
	}
	a.Score = &score
	a.Justification = justification
	s.updates = append(s.updates, id)
	return nil
}

type fakeAppScorer struct {
	mu     sync.Mutex
	calls  int
	failCV string // CV text that should fail to score
}

func (f *fakeAppScorer) Score(_ context.Context, cvText string, _ *storage.Posting, _ scoring.Variant) (*scoring.Result, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if cvText == f.failCV {
		return nil, errors.New("LLM timeout")
	}
	return &scoring.Result{Score: 72, Justification: "solid match"}, nil
}

func TestSchedulerScoresAllEligible(t *testing.T) {
	store := newFakeSchedStore(4, 1, 2, 3)
	scorer := &fakeAppScorer{}
	s := NewScheduler(store, scorer)

	var mu sync.Mutex
	maxDone := 0
	summary, err := s.Run(context.Background(), 4, scoring.VariantStandard, func(done, total int) {
		mu.Lock()
		if done > maxDone {
			maxDone = done
		}
		assert.Equal(t, 3, total)
		mu.Unlock()
	})

	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 3, summary.Scored)
	assert.Zero(t, summary.Failed)
	assert.False(t, summary.AllAnalyzed)
	assert.Equal(t, 3, maxDone, "progress must reach N of N")

	for _, a := range store.apps {
		require.NotNil(t, a.Score)
		assert.Equal(t, 72, *a.Score)
	}
}

func TestSchedulerPersistsSentinelOnFailure(t *testing.T) {
	store := newFakeSchedStore(4, 1, 2)
	scorer := &fakeAppScorer{failCV: "cv 2"}
	s := NewScheduler(store, scorer)

	summary, err := s.Run(context.Background(), 4, scoring.VariantStandard, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Scored)
	assert.Equal(t, 1, summary.Failed)

	failed := store.apps[2]
	require.NotNil(t, failed.Score)
	assert.Equal(t, storage.ScoreFailed, *failed.Score)
	assert.Contains(t, failed.Justification, "LLM timeout")
}

func TestSchedulerRetriesSentinelRows(t *testing.T) {
	store := newFakeSchedStore(4, 1)
	scorer := &fakeAppScorer{failCV: "cv 1"}
	s := NewScheduler(store, scorer)

	// First pass fails and leaves the sentinel.
	_, err := s.Run(context.Background(), 4, scoring.VariantStandard, nil)
	require.NoError(t, err)

	// Service recovered; the sentinel row is eligible again.
	scorer.failCV = ""
	summary, err := s.Run(context.Background(), 4, scoring.VariantStandard, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Scored)

	require.NotNil(t, store.apps[1].Score)
	assert.Equal(t, 72, *store.apps[1].Score)
}

func TestSchedulerIdempotentWhenNothingEligible(t *testing.T) {
	store := newFakeSchedStore(4, 1, 2)
	scorer := &fakeAppScorer{}
	s := NewScheduler(store, scorer)

	_, err := s.Run(context.Background(), 4, scoring.VariantStandard, nil)
	require.NoError(t, err)
	callsAfterFirst := scorer.calls

	summary, err := s.Run(context.Background(), 4, scoring.VariantStandard, nil)
	require.NoError(t, err)
	assert.True(t, summary.AllAnalyzed)
	assert.Zero(t, summary.Total)
	assert.Equal(t, callsAfterFirst, scorer.calls, "second run must perform zero AI calls")
}

func TestSchedulerUnknownPosting(t *testing.T) {
	store := newFakeSchedStore(4)
	s := NewScheduler(store, &fakeAppScorer{})

	_, err := s.Run(context.Background(), 99, scoring.VariantStandard, nil)
	assert.Error(t, err)
}
