package storage

import "time"

// ScoreFailed is the persisted sentinel for "scoring attempted and failed".
// Applications carrying it (or a NULL score) are picked up again by the next
// scoring sweep.
const ScoreFailed = -1

// Candidate statuses a recruiter can assign manually.
const (
	StatusGood    = "good"
	StatusNormal  = "normal"
	StatusBlocked = "blocked"
	StatusNone    = "none"
)

// Candidate represents one deduplicated person across all postings.
// The normalized name is the deduplication key.
type Candidate struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Email      *string    `json:"email"`
	Phone      *string    `json:"phone"`
	CVData     string     `json:"cv_data,omitempty"` // data URI of the uploaded file
	CVText     string     `json:"cv_text,omitempty"`
	CVFilename string     `json:"cv_filename"`
	Status     string     `json:"status"`
	IsRead     bool       `json:"is_read"`
	FolderID   *int64     `json:"folder_id"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// CandidateUpsert is the payload written on every ingestion. Recruiter-owned
// fields (folder, status, notes, read flag) are deliberately absent.
type CandidateUpsert struct {
	Name       string
	Email      *string
	Phone      *string
	CVData     string
	CVText     string
	CVFilename string
	FolderID   *int64 // applied on insert only, never on update
}

// CandidateFilter narrows candidate listings.
type CandidateFilter struct {
	Name     string `json:"name"`     // ILIKE contains
	Status   string `json:"status"`   // exact
	FolderID *int64 `json:"folder_id"`
	Unread   bool   `json:"unread"`
}

// Folder groups candidates; parent_id nil means root. Folders form a forest.
type Folder struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id"`
}

// Posting is one open requisition ("aviso").
type Posting struct {
	ID                  int64      `json:"id"`
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	MandatoryConditions []string   `json:"mandatory_conditions"`
	DesirableConditions []string   `json:"desirable_conditions"`
	MaxApplications     int        `json:"max_applications"` // 0 = unlimited
	ExpiresAt           *time.Time `json:"expires_at"`
	ApplicationCount    int        `json:"application_count"`
}

// Application links one candidate to one posting ("postulación"), unique on
// the pair. Score is NULL until scored, then 0-100 or ScoreFailed.
type Application struct {
	ID            int64     `json:"id"`
	CandidateID   int64     `json:"candidate_id"`
	PostingID     int64     `json:"posting_id"`
	Score         *int      `json:"score"`
	Justification string    `json:"justification"`
	Notes         string    `json:"notes"`
	CVData        string    `json:"cv_data,omitempty"`
	CVText        string    `json:"cv_text,omitempty"`
	CVFilename    string    `json:"cv_filename"`
	SnapshotName  string    `json:"snapshot_name"`
	SnapshotEmail *string   `json:"snapshot_email"`
	SnapshotPhone *string   `json:"snapshot_phone"`
	CreatedAt     time.Time `json:"created_at"`
}

// ApplicationSnapshot is what the linker freezes per posting so the row stays
// readable even if the live candidate record changes or disappears.
type ApplicationSnapshot struct {
	CVData     string
	CVText     string
	CVFilename string
	Name       string
	Email      *string
	Phone      *string
}

// Note is one append-only recruiter annotation on a candidate.
type Note struct {
	ID          int64     `json:"id"`
	CandidateID int64     `json:"candidate_id"`
	Note        string    `json:"note"`
	CreatedAt   time.Time `json:"created_at"`
}
