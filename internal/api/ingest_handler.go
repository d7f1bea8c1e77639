package api

import (
	"io"
	"net/http"
	"strconv"

	"recruiter-crm/internal/ingest"
)

// maxUploadBytes bounds one bulk upload request.
const maxUploadBytes = 100 << 20

// BulkUploadHandler ingests a batch of CV files for a folder or a posting
// @Summary Bulk upload CVs
// @Description Upload multiple CV files; each is extracted, AI-parsed, upserted as a candidate and optionally linked to a posting. Files fail independently.
// @Tags ingest
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "CV files (PDF, DOCX, images)"
// @Param folder_id formData int false "Target folder"
// @Param posting_id formData int false "Target posting"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /ingest/bulk [post]
func (a *API) BulkUploadHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "upload too large or invalid")
		return
	}

	target, ok := parseTarget(r, w)
	if !ok {
		return
	}

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		writeError(w, http.StatusBadRequest, "no files uploaded")
		return
	}

	files := make([]ingest.File, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "could not read "+fh.Filename)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, "could not read "+fh.Filename)
			return
		}
		files = append(files, ingest.File{Name: fh.Filename, Data: data})
	}

	items := a.pipeline.Run(r.Context(), files, target)

	succeeded := 0
	for _, it := range items {
		if it.State == ingest.StateSuccess {
			succeeded++
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":     len(items),
		"succeeded": succeeded,
		"failed":    len(items) - succeeded,
		"items":     items,
	})
}

// IngestStatusHandler returns the ingestion queue
// @Summary Inspect ingestion queue
// @Tags ingest
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /ingest/status [get]
func (a *API) IngestStatusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": a.pipeline.Items(),
	})
}

// ClearFinishedHandler removes successful queue items
// @Summary Clear finished queue items
// @Description Removes success-state items only; errored items stay visible for inspection.
// @Tags ingest
// @Produce json
// @Success 200 {object} map[string]int
// @Router /ingest/clear [post]
func (a *API) ClearFinishedHandler(w http.ResponseWriter, r *http.Request) {
	removed := a.pipeline.ClearFinished()
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func parseTarget(r *http.Request, w http.ResponseWriter) (ingest.Target, bool) {
	var target ingest.Target
	if v := r.FormValue("folder_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid folder_id")
			return target, false
		}
		target.FolderID = &id
	}
	if v := r.FormValue("posting_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid posting_id")
			return target, false
		}
		target.PostingID = &id
	}
	if target.FolderID != nil && target.PostingID != nil {
		writeError(w, http.StatusBadRequest, "choose folder_id or posting_id, not both")
		return target, false
	}
	return target, true
}
