package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"recruiter-crm/internal/storage"
)

// SearchCandidatesHandler filters the candidate list
// @Summary Search candidates
// @Tags candidates
// @Produce json
// @Param name query string false "Name contains (case-insensitive)"
// @Param status query string false "Manual status tag"
// @Param folder_id query int false "Folder"
// @Param unread query bool false "Only unread"
// @Success 200 {array} storage.Candidate
// @Failure 500 {object} map[string]string
// @Router /candidates [get]
func (a *API) SearchCandidatesHandler(w http.ResponseWriter, r *http.Request) {
	filter := &storage.CandidateFilter{
		Name:   r.URL.Query().Get("name"),
		Status: r.URL.Query().Get("status"),
		Unread: r.URL.Query().Get("unread") == "true",
	}
	if v := r.URL.Query().Get("folder_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid folder_id")
			return
		}
		filter.FolderID = &id
	}

	candidates, err := a.db.SearchCandidates(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not load candidates")
		return
	}
	writeJSON(w, http.StatusOK, candidates)
}

// GetCandidateHandler returns one candidate with the CV payload
// @Summary Get candidate detail
// @Tags candidates
// @Produce json
// @Param id path int true "Candidate ID"
// @Success 200 {object} storage.Candidate
// @Failure 404 {object} map[string]string
// @Router /candidates/{id} [get]
func (a *API) GetCandidateHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid candidate id")
		return
	}
	c, err := a.db.GetCandidate(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "candidate not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// UpdateCandidateHandler mutates recruiter-owned candidate fields
// @Summary Update candidate status, folder or read flag
// @Tags candidates
// @Accept json
// @Produce json
// @Param id path int true "Candidate ID"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /candidates/{id} [patch]
func (a *API) UpdateCandidateHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid candidate id")
		return
	}
	var req struct {
		Status     *string `json:"status"`
		FolderID   *int64  `json:"folder_id"`
		MoveToRoot bool    `json:"move_to_root"`
		IsRead     *bool   `json:"is_read"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	ctx := r.Context()
	if req.Status != nil {
		if err := a.db.SetCandidateStatus(ctx, id, *req.Status); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.FolderID != nil || req.MoveToRoot {
		folderID := req.FolderID
		if req.MoveToRoot {
			folderID = nil
		}
		if err := a.db.MoveCandidateToFolder(ctx, id, folderID); err != nil {
			writeError(w, http.StatusInternalServerError, "could not move candidate")
			return
		}
	}
	if req.IsRead != nil {
		if err := a.db.MarkCandidateRead(ctx, id, *req.IsRead); err != nil {
			writeError(w, http.StatusInternalServerError, "could not update read flag")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// DeleteCandidatesHandler deletes candidates in bulk
// @Summary Delete candidates
// @Tags candidates
// @Accept json
// @Produce json
// @Success 200 {object} map[string]int64
// @Router /candidates [delete]
func (a *API) DeleteCandidatesHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []int64 `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids are required")
		return
	}
	deleted, err := a.db.DeleteCandidates(r.Context(), req.IDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not delete candidates")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

// AddNoteHandler appends a note to the candidate history
// @Summary Add candidate note
// @Tags candidates
// @Accept json
// @Produce json
// @Param id path int true "Candidate ID"
// @Success 201 {object} map[string]int64
// @Router /candidates/{id}/notes [post]
func (a *API) AddNoteHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid candidate id")
		return
	}
	var req struct {
		Note string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Note == "" {
		writeError(w, http.StatusBadRequest, "note is required")
		return
	}
	noteID, err := a.db.AddNote(r.Context(), id, req.Note)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not save note")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": noteID})
}

// ListNotesHandler returns the candidate's note history
// @Summary List candidate notes
// @Tags candidates
// @Produce json
// @Param id path int true "Candidate ID"
// @Success 200 {array} storage.Note
// @Router /candidates/{id}/notes [get]
func (a *API) ListNotesHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid candidate id")
		return
	}
	notes, err := a.db.ListNotes(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not load notes")
		return
	}
	writeJSON(w, http.StatusOK, notes)
}
