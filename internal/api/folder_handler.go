package api

import (
	"encoding/json"
	"net/http"
)

// ListFoldersHandler returns the folder forest
// @Summary List folders
// @Tags folders
// @Produce json
// @Success 200 {array} storage.Folder
// @Router /folders [get]
func (a *API) ListFoldersHandler(w http.ResponseWriter, r *http.Request) {
	folders, err := a.db.ListFolders(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not load folders")
		return
	}
	writeJSON(w, http.StatusOK, folders)
}

// CreateFolderHandler creates a folder
// @Summary Create folder
// @Tags folders
// @Accept json
// @Produce json
// @Success 201 {object} map[string]int64
// @Router /folders [post]
func (a *API) CreateFolderHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		ParentID *int64 `json:"parent_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	id, err := a.db.CreateFolder(r.Context(), req.Name, req.ParentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not create folder")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

// DeleteFolderHandler deletes a folder, orphaning its contents to root
// @Summary Delete folder
// @Tags folders
// @Produce json
// @Param id path int true "Folder ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /folders/{id} [delete]
func (a *API) DeleteFolderHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid folder id")
		return
	}
	if err := a.db.DeleteFolder(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
