package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"holabox/internal/database"

	"github.com/go-chi/chi/v5"
)

type CreateFolderRequest struct {
	Name     string  `json:"name" example:"Dokumenty"`
	ParentID *string `json:"parent_id"`
}

// @Summary      Create a folder
// @Description  Creates a folder under the given parent. The folder path is derived from the parent's path once, at creation time.
// @Tags         storage
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        createRequest  body      CreateFolderRequest  true  "Folder details"
// @Success      201            {object}  models.Folder
// @Failure      400            {string}  string "Bad Request"
// @Failure      401            {string}  string "Unauthorized"
// @Failure      404            {string}  string "Parent folder not found"
// @Failure      500            {string}  string "Internal Server Error"
// @Router       /storage/folders [post]
func (s *Server) CreateFolderHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	var req CreateFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "Folder name cannot be empty", http.StatusBadRequest)
		return
	}
	if strings.Contains(req.Name, "/") {
		http.Error(w, "Folder name cannot contain '/'", http.StatusBadRequest)
		return
	}

	if req.ParentID != nil && len(*req.ParentID) != 21 {
		http.Error(w, "Invalid ParentID format", http.StatusBadRequest)
		return
	}

	folderID, err := generateUniqueID(r.Context(), s.store.FolderExists)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	folder, err := s.store.CreateFolder(r.Context(), database.CreateFolderParams{
		ID:       folderID,
		Name:     req.Name,
		ParentID: req.ParentID,
		UserID:   claims.UserID,
	})
	if err != nil {
		if errors.Is(err, database.ErrFolderNotFound) {
			http.Error(w, "Parent folder not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to create folder", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(folder)
}

// @Summary      List folders
// @Description  Lists the direct children of a parent folder. Omit parent_id for the top level. No ordering is guaranteed.
// @Tags         storage
// @Produce      json
// @Security     BearerAuth
// @Param        parent_id        query     string  false  "Parent folder ID; omit for the top level"
// @Param        include_deleted  query     bool    false  "Include trashed folders"
// @Success      200              {array}   models.Folder
// @Failure      401              {string}  string "Unauthorized"
// @Failure      500              {string}  string "Internal Server Error"
// @Router       /storage/folders [get]
func (s *Server) ListFoldersHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())
	limit, offset := parsePagination(r)

	var parentID *string
	if v := r.URL.Query().Get("parent_id"); v != "" {
		parentID = &v
	}
	includeDeleted := r.URL.Query().Get("include_deleted") == "true"

	folders, err := s.store.ListFolders(r.Context(), claims.UserID, parentID, includeDeleted, limit, offset)
	if err != nil {
		http.Error(w, "Failed to list folders", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(folders)
}

type RenameRequest struct {
	NewName string `json:"new_name" example:"Nowa nazwa"`
}

// @Summary      Rename a folder
// @Description  Changes the folder's display name. Paths derived at creation time are not rewritten, neither for the folder nor for its descendants.
// @Tags         storage
// @Accept       json
// @Security     BearerAuth
// @Param        folderId       path      string         true  "Folder ID"
// @Param        renameRequest  body      RenameRequest  true  "New name"
// @Success      200  {object}  map[string]string
// @Failure      400  {string}  string "Bad Request"
// @Failure      401  {string}  string "Unauthorized"
// @Failure      404  {string}  string "Folder not found"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /storage/folders/{folderId}/rename [put]
func (s *Server) RenameFolderHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())
	folderID := chi.URLParam(r, "folderId")

	var req RenameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.NewName = strings.TrimSpace(req.NewName)
	if req.NewName == "" {
		http.Error(w, "Name cannot be empty", http.StatusBadRequest)
		return
	}

	success, err := s.store.RenameFolder(r.Context(), folderID, claims.UserID, req.NewName)
	if err != nil {
		http.Error(w, "Failed to rename folder", http.StatusInternalServerError)
		return
	}
	if !success {
		http.Error(w, "Folder not found or you do not have permission to modify it", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Folder renamed successfully"})
}
