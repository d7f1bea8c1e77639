package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"recruiter-crm/internal/ingest"
	"recruiter-crm/internal/scoring"
	"recruiter-crm/internal/storage"
)

// CreatePostingHandler creates a job posting
// @Summary Create posting
// @Tags postings
// @Accept json
// @Produce json
// @Param posting body storage.Posting true "Posting"
// @Success 201 {object} map[string]int64
// @Failure 400 {object} map[string]string
// @Router /postings [post]
func (a *API) CreatePostingHandler(w http.ResponseWriter, r *http.Request) {
	var p storage.Posting
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if p.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	id, err := a.db.CreatePosting(r.Context(), &p)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not create posting")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

// ListPostingsHandler lists postings
// @Summary List postings
// @Tags postings
// @Produce json
// @Success 200 {array} storage.Posting
// @Router /postings [get]
func (a *API) ListPostingsHandler(w http.ResponseWriter, r *http.Request) {
	postings, err := a.db.ListPostings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not load postings")
		return
	}
	writeJSON(w, http.StatusOK, postings)
}

// ListApplicationsHandler lists one posting's applications
// @Summary List applications for a posting
// @Tags postings
// @Produce json
// @Param id path int true "Posting ID"
// @Success 200 {array} storage.Application
// @Failure 500 {object} map[string]string
// @Router /postings/{id}/applications [get]
func (a *API) ListApplicationsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid posting id")
		return
	}
	apps, err := a.db.ListApplications(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not load applications")
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

// PublicApplyHandler handles a public CV submission to one posting
// @Summary Public CV submission
// @Description Accepts one CV file. Rejected before any AI work when the posting expired or reached its application limit.
// @Tags postings
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Posting ID"
// @Param file formData file true "CV file"
// @Success 200 {object} ingest.Item
// @Failure 409 {object} map[string]string
// @Failure 410 {object} map[string]string
// @Router /postings/{id}/apply [post]
func (a *API) PublicApplyHandler(w http.ResponseWriter, r *http.Request) {
	postingID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid posting id")
		return
	}

	// Reject ineligible postings before touching the file.
	if _, err := a.db.CheckPostingEligibility(r.Context(), postingID); err != nil {
		switch {
		case errors.Is(err, storage.ErrPostingExpired):
			writeError(w, http.StatusGone, err.Error())
		case errors.Is(err, storage.ErrPostingFull):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusNotFound, "posting not found")
		}
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "file too large or invalid (max 10MB)")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read file")
		return
	}

	items := a.pipeline.Run(r.Context(),
		[]ingest.File{{Name: header.Filename, Data: data}},
		ingest.Target{PostingID: &postingID})

	item := items[0]
	status := http.StatusOK
	if item.State == ingest.StateError {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, item)
}

// RescoreHandler runs the scoring sweep for a posting
// @Summary Score unscored applications
// @Description Scores every application with no score or a previous failure, concurrently. Idempotent: reports all-analyzed when nothing is eligible.
// @Tags postings
// @Produce json
// @Param id path int true "Posting ID"
// @Param variant query string false "Rubric variant (standard or strict)"
// @Success 200 {object} ingest.Summary
// @Failure 400 {object} map[string]string
// @Router /postings/{id}/rescore [post]
func (a *API) RescoreHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid posting id")
		return
	}
	variant, err := scoring.ParseVariant(r.URL.Query().Get("variant"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := a.scheduler.Run(r.Context(), id, variant, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "scoring sweep failed")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// CopyApplicationHandler copies an application onto another posting
// @Summary Copy application to another posting
// @Tags applications
// @Accept json
// @Produce json
// @Param id path int true "Application ID"
// @Success 200 {object} map[string]interface{}
// @Router /applications/{id}/copy [post]
func (a *API) CopyApplicationHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid application id")
		return
	}
	var req struct {
		PostingID int64 `json:"posting_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PostingID == 0 {
		writeError(w, http.StatusBadRequest, "posting_id is required")
		return
	}
	newID, created, err := a.db.CopyApplication(r.Context(), id, req.PostingID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not copy application")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": newID, "created": created})
}

// UpdateApplicationHandler updates recruiter notes on an application
// @Summary Update application notes
// @Tags applications
// @Accept json
// @Produce json
// @Param id path int true "Application ID"
// @Success 200 {object} map[string]string
// @Router /applications/{id} [patch]
func (a *API) UpdateApplicationHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid application id")
		return
	}
	var req struct {
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := a.db.SetApplicationNotes(r.Context(), id, req.Notes); err != nil {
		writeError(w, http.StatusInternalServerError, "could not update application")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// DeleteApplicationsHandler deletes applications in bulk
// @Summary Delete applications
// @Tags applications
// @Accept json
// @Produce json
// @Success 200 {object} map[string]int64
// @Router /applications [delete]
func (a *API) DeleteApplicationsHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []int64 `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids are required")
		return
	}
	deleted, err := a.db.DeleteApplications(r.Context(), req.IDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not delete applications")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}
