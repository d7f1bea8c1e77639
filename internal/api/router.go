package api

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

func NewRouter(a *API) http.Handler {
	mux := http.NewServeMux()

	// Swagger documentation - must be registered first
	mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"),
	))

	// Health check (for Railway, k8s, etc.)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Public submission - eligibility-checked, no session required
	mux.HandleFunc("POST /api/postings/{id}/apply", a.PublicApplyHandler)

	// Postings
	mux.HandleFunc("GET /api/postings", a.requireSession(a.ListPostingsHandler))
	mux.HandleFunc("POST /api/postings", a.requireSession(a.CreatePostingHandler))
	mux.HandleFunc("GET /api/postings/{id}/applications", a.requireSession(a.ListApplicationsHandler))
	mux.HandleFunc("POST /api/postings/{id}/rescore", a.requireSession(a.RescoreHandler))

	// Ingestion queue
	mux.HandleFunc("POST /api/ingest/bulk", a.requireSession(a.BulkUploadHandler))
	mux.HandleFunc("GET /api/ingest/status", a.requireSession(a.IngestStatusHandler))
	mux.HandleFunc("POST /api/ingest/clear", a.requireSession(a.ClearFinishedHandler))

	// Candidates
	mux.HandleFunc("GET /api/candidates", a.requireSession(a.SearchCandidatesHandler))
	mux.HandleFunc("DELETE /api/candidates", a.requireSession(a.DeleteCandidatesHandler))
	mux.HandleFunc("GET /api/candidates/{id}", a.requireSession(a.GetCandidateHandler))
	mux.HandleFunc("PATCH /api/candidates/{id}", a.requireSession(a.UpdateCandidateHandler))
	mux.HandleFunc("GET /api/candidates/{id}/notes", a.requireSession(a.ListNotesHandler))
	mux.HandleFunc("POST /api/candidates/{id}/notes", a.requireSession(a.AddNoteHandler))

	// Applications
	mux.HandleFunc("PATCH /api/applications/{id}", a.requireSession(a.UpdateApplicationHandler))
	mux.HandleFunc("POST /api/applications/{id}/copy", a.requireSession(a.CopyApplicationHandler))
	mux.HandleFunc("DELETE /api/applications", a.requireSession(a.DeleteApplicationsHandler))

	// Folders
	mux.HandleFunc("GET /api/folders", a.requireSession(a.ListFoldersHandler))
	mux.HandleFunc("POST /api/folders", a.requireSession(a.CreateFolderHandler))
	mux.HandleFunc("DELETE /api/folders/{id}", a.requireSession(a.DeleteFolderHandler))

	return mux
}
