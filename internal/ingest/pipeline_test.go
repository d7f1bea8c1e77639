package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recruiter-crm/internal/cv"
	"recruiter-crm/internal/storage"
)

type fakeStore struct {
	mu         sync.Mutex
	nextID     int64
	candidates map[string]int64 // normalized name -> id
	upserts    []storage.CandidateUpsert
	links      map[string]int64 // "candidate|posting" -> application id
	posting    *storage.Posting
	failFile   string // fail the upsert for this filename
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		candidates: map[string]int64{},
		links:      map[string]int64{},
	}
}

func (s *fakeStore) UpsertCandidate(_ context.Context, c *storage.CandidateUpsert) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFile != "" && c.CVFilename == s.failFile {
		return 0, false, fmt.Errorf("db write failed")
	}
	s.upserts = append(s.upserts, *c)
	if id, ok := s.candidates[c.Name]; ok {
		return id, false, nil
	}
	s.nextID++
	s.candidates[c.Name] = s.nextID
	return s.nextID, true, nil
}

func (s *fakeStore) LinkApplication(_ context.Context, candidateID, postingID int64, _ *storage.ApplicationSnapshot) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fmt.Sprintf("%d|%d", candidateID, postingID)
	if id, ok := s.links[key]; ok {
		return id, false, nil
	}
	s.nextID++
	s.links[key] = s.nextID
	return s.nextID, true, nil
}

func (s *fakeStore) GetPosting(_ context.Context, id int64) (*storage.Posting, error) {
	if s.posting == nil || s.posting.ID != id {
		return nil, fmt.Errorf("posting %d not found", id)
	}
	p := *s.posting
	return &p, nil
}

// fakeParser tracks concurrent in-flight extraction calls.
type fakeParser struct {
	calls    atomic.Int64
	inflight atomic.Int64
	peak     atomic.Int64
}

func (p *fakeParser) ExtractText(filename string, _ []byte) string {
	p.calls.Add(1)
	cur := p.inflight.Add(1)
	for {
		prev := p.peak.Load()
		if cur <= prev || p.peak.CompareAndSwap(prev, cur) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	p.inflight.Add(-1)
	return "text of " + filename
}

type fakeFields struct {
	calls atomic.Int64
	name  func(text string) *string
}

func (f *fakeFields) ExtractFields(_ context.Context, text string) cv.Fields {
	f.calls.Add(1)
	if f.name == nil {
		return cv.Fields{}
	}
	return cv.Fields{FullName: f.name(text)}
}

func namePerFile(text string) *string {
	// Unique name per source file so each upload becomes its own candidate.
	n := "Candidate " + strings.TrimPrefix(text, "text of ")
	return &n
}

func makeFiles(n int) []File {
	files := make([]File, n)
	for i := range files {
		files[i] = File{Name: fmt.Sprintf("cv-%02d.pdf", i+1), Data: []byte("binary")}
	}
	return files
}

func TestPipelineWindowBoundsConcurrency(t *testing.T) {
	store := newFakeStore()
	parser := &fakeParser{}
	fields := &fakeFields{name: namePerFile}
	p := NewPipeline(store, parser, fields, 15, "")

	items := p.Run(context.Background(), makeFiles(40), Target{})

	require.Len(t, items, 40)
	for _, it := range items {
		assert.Equal(t, StateSuccess, it.State)
	}
	assert.EqualValues(t, 40, parser.calls.Load())
	assert.LessOrEqual(t, parser.peak.Load(), int64(15),
		"no more than one window of extractions may be in flight")
}

func TestPipelineIsolatesFailures(t *testing.T) {
	store := newFakeStore()
	store.failFile = "cv-03.pdf"
	fields := &fakeFields{name: namePerFile}
	p := NewPipeline(store, &fakeParser{}, fields, 15, "")

	items := p.Run(context.Background(), makeFiles(40), Target{})

	var failed, succeeded int
	for _, it := range items {
		switch it.State {
		case StateError:
			failed++
			assert.Equal(t, "cv-03.pdf", it.Filename)
			assert.Contains(t, it.Message, "db write failed")
		case StateSuccess:
			succeeded++
		}
	}
	assert.Equal(t, 1, failed)
	assert.Equal(t, 39, succeeded)
}

func TestPipelineDeduplicatesByName(t *testing.T) {
	store := newFakeStore()
	shared := "juan pérez"
	fields := &fakeFields{name: func(string) *string { return &shared }}
	p := NewPipeline(store, &fakeParser{}, fields, 15, "")

	items := p.Run(context.Background(), makeFiles(2), Target{})

	require.Len(t, items, 2)
	assert.Equal(t, items[0].CandidateID, items[1].CandidateID)
	assert.Len(t, store.candidates, 1)

	// Both upserts carried the normalized dedup key.
	for _, u := range store.upserts {
		assert.Equal(t, "Juan Pérez", u.Name)
	}
}

func TestPipelinePlaceholderNameWhenExtractionEmpty(t *testing.T) {
	store := newFakeStore()
	fields := &fakeFields{} // never finds a name
	p := NewPipeline(store, &fakeParser{}, fields, 15, "")

	items := p.Run(context.Background(), makeFiles(2), Target{})

	for _, it := range items {
		assert.Equal(t, StateSuccess, it.State)
	}
	require.Len(t, store.upserts, 2)
	assert.True(t, strings.HasPrefix(store.upserts[0].Name, "Candidato "))
	assert.NotEqual(t, store.upserts[0].Name, store.upserts[1].Name,
		"placeholder keys must not collide")
}

func TestPipelineLinksApplicationIdempotently(t *testing.T) {
	store := newFakeStore()
	store.posting = &storage.Posting{ID: 9, Title: "Dev", MaxApplications: 0}
	shared := "Ana García"
	fields := &fakeFields{name: func(string) *string { return &shared }}
	p := NewPipeline(store, &fakeParser{}, fields, 15, "")
	target := Target{PostingID: &store.posting.ID}

	first := p.Run(context.Background(), makeFiles(1), target)
	second := p.Run(context.Background(), makeFiles(1), target)

	require.Equal(t, StateSuccess, first[0].State)
	require.Equal(t, StateSuccess, second[0].State,
		"duplicate submission is a no-op, not a user-facing error")
	assert.Equal(t, first[0].ApplicationID, second[0].ApplicationID)
	assert.Contains(t, second[0].Message, "already applied")
	assert.Len(t, store.links, 1)
}

func TestPipelineRejectsIneligiblePostingBeforeAnyAICall(t *testing.T) {
	store := newFakeStore()
	store.posting = &storage.Posting{
		ID:               9,
		Title:            "Dev",
		MaxApplications:  5,
		ApplicationCount: 5,
	}
	parser := &fakeParser{}
	fields := &fakeFields{name: namePerFile}
	p := NewPipeline(store, parser, fields, 15, "")

	items := p.Run(context.Background(), makeFiles(3), Target{PostingID: &store.posting.ID})

	for _, it := range items {
		assert.Equal(t, StateError, it.State)
		assert.Contains(t, it.Message, "application limit")
	}
	assert.EqualValues(t, 0, parser.calls.Load(), "no extraction for rejected submissions")
	assert.EqualValues(t, 0, fields.calls.Load(), "no AI spend for rejected submissions")
}

func TestPipelineFolderTargetSkipsLinking(t *testing.T) {
	store := newFakeStore()
	folderID := int64(3)
	fields := &fakeFields{name: namePerFile}
	p := NewPipeline(store, &fakeParser{}, fields, 15, "")

	items := p.Run(context.Background(), makeFiles(2), Target{FolderID: &folderID})

	for _, it := range items {
		assert.Equal(t, StateSuccess, it.State)
		assert.Zero(t, it.ApplicationID)
	}
	assert.Empty(t, store.links)
	for _, u := range store.upserts {
		require.NotNil(t, u.FolderID)
		assert.Equal(t, folderID, *u.FolderID)
	}
}

func TestPipelineArchivesUploads(t *testing.T) {
	store := newFakeStore()
	store.failFile = "cv-02.pdf"
	fields := &fakeFields{name: namePerFile}
	dir := t.TempDir()
	p := NewPipeline(store, &fakeParser{}, fields, 15, dir)

	p.Run(context.Background(), makeFiles(3), Target{})

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	// Only successfully ingested uploads are archived.
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), "cv-02.pdf")
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		require.NoError(t, err)
		assert.Equal(t, []byte("binary"), data)
	}
}

func TestClearFinishedKeepsErrors(t *testing.T) {
	store := newFakeStore()
	store.failFile = "cv-02.pdf"
	fields := &fakeFields{name: namePerFile}
	p := NewPipeline(store, &fakeParser{}, fields, 15, "")

	p.Run(context.Background(), makeFiles(5), Target{})
	removed := p.ClearFinished()

	assert.Equal(t, 4, removed)
	remaining := p.Items()
	require.Len(t, remaining, 1)
	assert.Equal(t, StateError, remaining[0].State)
	assert.Equal(t, "cv-02.pdf", remaining[0].Filename)
}
