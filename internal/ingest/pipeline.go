package ingest

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"recruiter-crm/internal/cv"
	"recruiter-crm/internal/storage"
)

// DefaultWindowSize caps how many files are processed concurrently per batch
// window. Window N+1 does not start until window N fully settled, which
// bounds peak concurrent calls to the LLM and the database.
const DefaultWindowSize = 15

// State of one queue item.
type State string

const (
	StatePending    State = "pending"
	StateProcessing State = "processing"
	StateSuccess    State = "success"
	StateError      State = "error"
)

// File is one uploaded CV waiting for ingestion.
type File struct {
	Name string
	Data []byte
}

// Target says where ingested candidates land: a folder (recruiter bulk
// upload) or a posting (public or per-posting submission). Exactly one
// should be set.
type Target struct {
	FolderID  *int64
	PostingID *int64
}

// Item is one queue entry with its processing outcome. Error is terminal for
// this enqueue instance; the message stays inspectable until the queue is
// reset.
type Item struct {
	ID            string    `json:"id"`
	Filename      string    `json:"filename"`
	State         State     `json:"state"`
	Message       string    `json:"message,omitempty"`
	CandidateID   int64     `json:"candidate_id,omitempty"`
	ApplicationID int64     `json:"application_id,omitempty"`
	EnqueuedAt    time.Time `json:"enqueued_at"`
}

// Store is the persistence surface the pipeline needs.
type Store interface {
	UpsertCandidate(ctx context.Context, c *storage.CandidateUpsert) (int64, bool, error)
	LinkApplication(ctx context.Context, candidateID, postingID int64, snap *storage.ApplicationSnapshot) (int64, bool, error)
	GetPosting(ctx context.Context, id int64) (*storage.Posting, error)
}

// TextExtractor turns a file into best-effort plain text (never errors).
type TextExtractor interface {
	ExtractText(filename string, data []byte) string
}

// FieldExtractor pulls contact data out of CV text (never errors).
type FieldExtractor interface {
	ExtractFields(ctx context.Context, text string) cv.Fields
}

// Pipeline orchestrates extraction, field extraction, candidate upsert and
// application linking for a queue of files, in fixed-size concurrent windows
// with per-file failure isolation.
type Pipeline struct {
	store      Store
	parser     TextExtractor
	fields     FieldExtractor
	window     int
	archiveDir string

	mu    sync.Mutex
	items []*Item
}

// NewPipeline builds the ingestion pipeline. archiveDir, when non-empty, is
// where successfully ingested uploads are copied for later retrieval.
func NewPipeline(store Store, parser TextExtractor, fields FieldExtractor, window int, archiveDir string) *Pipeline {
	if window <= 0 {
		window = DefaultWindowSize
	}
	return &Pipeline{
		store:      store,
		parser:     parser,
		fields:     fields,
		window:     window,
		archiveDir: archiveDir,
	}
}

// Run enqueues the files and processes them window by window. Within a window
// all items run concurrently; the next window starts only after every item of
// the current one settled, success or error. One item's failure never aborts
// its siblings. The returned slice holds the final per-file statuses.
func (p *Pipeline) Run(ctx context.Context, files []File, target Target) []*Item {
	batch := make([]*Item, len(files))
	p.mu.Lock()
	for i, f := range files {
		batch[i] = &Item{
			ID:         uuid.New().String(),
			Filename:   f.Name,
			State:      StatePending,
			EnqueuedAt: time.Now(),
		}
		p.items = append(p.items, batch[i])
	}
	p.mu.Unlock()

	log.Printf("[Ingest] processing %d files in windows of %d", len(files), p.window)

	for start := 0; start < len(batch); start += p.window {
		end := start + p.window
		if end > len(batch) {
			end = len(batch)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(item *Item, file File) {
				defer wg.Done()
				p.processOne(ctx, item, file, target)
			}(batch[i], files[i])
		}
		wg.Wait()
	}

	return batch
}

func (p *Pipeline) processOne(ctx context.Context, item *Item, file File, target Target) {
	p.setState(item, StateProcessing, "")

	// Eligibility is checked before any extraction or AI spend.
	if target.PostingID != nil {
		posting, err := p.store.GetPosting(ctx, *target.PostingID)
		if err != nil {
			p.setState(item, StateError, fmt.Sprintf("posting lookup failed: %v", err))
			return
		}
		if err := storage.CheckEligibility(posting, time.Now()); err != nil {
			p.setState(item, StateError, err.Error())
			return
		}
	}

	text := p.parser.ExtractText(file.Name, file.Data)
	fields := p.fields.ExtractFields(ctx, text)

	name := cv.NormalizeName(fields.FullName)
	if name == nil {
		placeholder := cv.PlaceholderName()
		name = &placeholder
	}

	upsert := &storage.CandidateUpsert{
		Name:       *name,
		Email:      fields.Email,
		Phone:      fields.Phone,
		CVData:     encodeDataURI(file.Name, file.Data),
		CVText:     text,
		CVFilename: file.Name,
		FolderID:   target.FolderID,
	}

	candidateID, created, err := p.store.UpsertCandidate(ctx, upsert)
	if err != nil {
		p.setState(item, StateError, fmt.Sprintf("candidate upsert failed: %v", err))
		return
	}

	p.mu.Lock()
	item.CandidateID = candidateID
	p.mu.Unlock()

	p.archive(item, file)

	if target.PostingID != nil {
		snap := &storage.ApplicationSnapshot{
			CVData:     upsert.CVData,
			CVText:     text,
			CVFilename: file.Name,
			Name:       *name,
			Email:      fields.Email,
			Phone:      fields.Phone,
		}
		appID, linked, err := p.store.LinkApplication(ctx, candidateID, *target.PostingID, snap)
		if err != nil {
			p.setState(item, StateError, fmt.Sprintf("application link failed: %v", err))
			return
		}
		p.mu.Lock()
		item.ApplicationID = appID
		p.mu.Unlock()
		if !linked {
			p.setState(item, StateSuccess, "candidate had already applied to this posting")
			return
		}
	}

	msg := ""
	if !created {
		msg = "existing candidate updated"
	}
	p.setState(item, StateSuccess, msg)
}

// Items returns a snapshot of the queue.
func (p *Pipeline) Items() []Item {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Item, len(p.items))
	for i, it := range p.items {
		out[i] = *it
	}
	return out
}

// ClearFinished removes successful items only. Errored items stay visible so
// their messages can still be inspected, and pending/processing items are
// still in flight.
func (p *Pipeline) ClearFinished() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	kept := p.items[:0]
	removed := 0
	for _, it := range p.items {
		if it.State == StateSuccess {
			removed++
			continue
		}
		kept = append(kept, it)
	}
	p.items = kept
	return removed
}

// archive copies the raw upload to the archive directory once the candidate
// row exists. Archive failures are logged, never surfaced: the database row
// already carries the data URI.
func (p *Pipeline) archive(item *Item, file File) {
	if p.archiveDir == "" {
		return
	}
	if err := os.MkdirAll(p.archiveDir, 0o755); err != nil {
		log.Printf("[Ingest] archive dir %s: %v", p.archiveDir, err)
		return
	}
	dest := filepath.Join(p.archiveDir, item.ID+"_"+filepath.Base(file.Name))
	if err := os.WriteFile(dest, file.Data, 0o644); err != nil {
		log.Printf("[Ingest] archive %s: %v", file.Name, err)
	}
}

func (p *Pipeline) setState(item *Item, state State, message string) {
	p.mu.Lock()
	item.State = state
	item.Message = message
	p.mu.Unlock()
	if state == StateError {
		log.Printf("[Ingest] %s: %s", item.Filename, message)
	}
}

// encodeDataURI packs the raw upload as a data URI so the blob travels with
// the row.
func encodeDataURI(filename string, data []byte) string {
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
