package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"holabox/internal/database"
	"holabox/internal/models"
	"holabox/internal/quota"
	"holabox/internal/storage"

	"github.com/go-chi/chi/v5"
)

// @Summary      Upload a file
// @Description  Uploads a file into the given folder. The upload is rejected with 413 before any bytes land on disk when it would exceed the plan quota.
// @Tags         storage
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file       formData  file    true   "File content"
// @Param        folder_id  formData  string  false  "Target folder ID"
// @Success      201  {object}  models.File
// @Failure      400  {string}  string "Bad Request"
// @Failure      401  {string}  string "Unauthorized"
// @Failure      413  {string}  string "Storage limit exceeded"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /storage/upload [post]
func (s *Server) UploadFileHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, s.config.Storage.MaxUploadSize)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "Error parsing multipart form", http.StatusBadRequest)
		return
	}

	file, handler, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Error retrieving the file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	var folderID *string
	if v := r.FormValue("folder_id"); v != "" {
		if len(v) != 21 {
			http.Error(w, "Invalid folder_id format", http.StatusBadRequest)
			return
		}
		folderID = &v
	}

	// Świeży stan licznika przed zapisem bajtów na dysk
	user, err := s.store.GetUserByID(r.Context(), claims.UserID)
	if err != nil || user == nil {
		http.Error(w, "Failed to retrieve user data", http.StatusInternalServerError)
		return
	}
	if !quota.CanAccept(user.StorageUsed, user.PlanType, handler.Size) {
		http.Error(w, "Storage limit exceeded", http.StatusRequestEntityTooLarge)
		return
	}

	fileID, err := generateUniqueID(r.Context(), s.store.FileExists)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	storageName := storage.UniqueFilename(handler.Filename)
	key, err := s.storage.Save(claims.UserID, storageName, file)
	if err != nil {
		http.Error(w, "Failed to save file", http.StatusInternalServerError)
		return
	}

	mimeType := detectMimeType(handler.Filename, handler.Header.Get("Content-Type"))

	var created *models.File

	txErr := s.store.ExecTx(r.Context(), func(q *database.Queries) error {
		// Rezerwacja warunkowa: dwa równoległe uploady nie mogą razem
		// przekroczyć limitu
		ok, err := q.ReserveStorage(r.Context(), claims.UserID, handler.Size)
		if err != nil {
			return err
		}
		if !ok {
			return database.ErrQuotaExceeded
		}

		created, err = q.CreateFile(r.Context(), database.CreateFileParams{
			ID:               fileID,
			Filename:         storageName,
			OriginalFilename: handler.Filename,
			FilePath:         key,
			FileSize:         handler.Size,
			MimeType:         &mimeType,
			FolderID:         folderID,
			UserID:           claims.UserID,
		})
		if err != nil {
			return err
		}

		if err := q.IncrementTotalUploads(r.Context(), claims.UserID); err != nil {
			return err
		}

		return q.LogEvent(r.Context(), claims.UserID, "file_uploaded", created)
	})

	if txErr != nil {
		if err := s.storage.Delete(key); err != nil {
			log.Printf("WARN: Failed to remove orphaned file %s after failed upload: %v", key, err)
		}
		switch {
		case errors.Is(txErr, database.ErrQuotaExceeded):
			http.Error(w, "Storage limit exceeded", http.StatusRequestEntityTooLarge)
		case errors.Is(txErr, database.ErrFolderNotFound):
			http.Error(w, "Target folder does not exist", http.StatusBadRequest)
		default:
			log.Printf("ERROR: Failed to create file record: %v", txErr)
			http.Error(w, "Failed to create file record", http.StatusInternalServerError)
		}
		return
	}

	s.wsHub.Notify(claims.UserID, "file_uploaded", created)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

// @Summary      List files
// @Description  Lists files in a folder. Omit folder_id for files outside any folder. No ordering is guaranteed.
// @Tags         storage
// @Produce      json
// @Security     BearerAuth
// @Param        folder_id        query     string  false  "Folder ID; omit for the top level"
// @Param        include_deleted  query     bool    false  "Include trashed files"
// @Success      200              {array}   models.File
// @Failure      401              {string}  string "Unauthorized"
// @Failure      500              {string}  string "Internal Server Error"
// @Router       /storage/files [get]
func (s *Server) ListFilesHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())
	limit, offset := parsePagination(r)

	var folderID *string
	if v := r.URL.Query().Get("folder_id"); v != "" {
		folderID = &v
	}
	includeDeleted := r.URL.Query().Get("include_deleted") == "true"

	files, err := s.store.ListFiles(r.Context(), claims.UserID, folderID, includeDeleted, limit, offset)
	if err != nil {
		http.Error(w, "Failed to list files", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(files)
}

// @Summary      Get file metadata
// @Tags         storage
// @Produce      json
// @Security     BearerAuth
// @Param        fileId  path      string  true  "File ID"
// @Success      200     {object}  models.File
// @Failure      401     {string}  string "Unauthorized"
// @Failure      404     {string}  string "File not found"
// @Router       /storage/files/{fileId} [get]
func (s *Server) GetFileHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())
	fileID := chi.URLParam(r, "fileId")

	file, err := s.store.GetFileByID(r.Context(), fileID, claims.UserID)
	if err != nil {
		http.Error(w, "Failed to retrieve file metadata", http.StatusInternalServerError)
		return
	}
	if file == nil {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	if err := s.store.IncrementFileViewCount(r.Context(), file.ID); err != nil {
		log.Printf("WARN: Failed to bump view count of file %s: %v", file.ID, err)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(file)
}

// @Summary      Download a file
// @Tags         storage
// @Security     BearerAuth
// @Param        fileId  path  string  true  "File ID"
// @Success      200     {file}    file
// @Failure      401     {string}  string "Unauthorized"
// @Failure      404     {string}  string "File not found"
// @Failure      500     {string}  string "Internal Server Error"
// @Router       /storage/files/{fileId}/download [get]
func (s *Server) DownloadFileHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())
	fileID := chi.URLParam(r, "fileId")

	file, err := s.store.GetFileByID(r.Context(), fileID, claims.UserID)
	if err != nil {
		http.Error(w, "Failed to retrieve file metadata", http.StatusInternalServerError)
		return
	}
	if file == nil {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	stream, err := s.storage.Open(file.FilePath)
	if err != nil {
		http.Error(w, "File does not exist on disk", http.StatusNotFound)
		return
	}
	defer stream.Close()

	if err := s.store.IncrementFileDownloadCount(r.Context(), file.ID); err != nil {
		log.Printf("WARN: Failed to bump download count of file %s: %v", file.ID, err)
	}

	writeFileStream(w, file, stream)
}

func writeFileStream(w http.ResponseWriter, file *models.File, stream io.Reader) {
	w.Header().Set("Content-Disposition", "attachment; filename=\""+file.OriginalFilename+"\"")
	if file.MimeType != nil && *file.MimeType != "" {
		w.Header().Set("Content-Type", *file.MimeType)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	w.Header().Set("Content-Length", fmt.Sprintf("%d", file.FileSize))

	io.Copy(w, stream)
}

// @Summary      Move a file to trash
// @Description  Soft-deletes the file and releases its size from the storage ledger. Both changes commit in one transaction.
// @Tags         storage
// @Security     BearerAuth
// @Param        fileId  path  string  true  "File ID"
// @Success      204     {null}    nil "No Content"
// @Failure      401     {string}  string "Unauthorized"
// @Failure      404     {string}  string "File not found"
// @Failure      500     {string}  string "Internal Server Error"
// @Router       /storage/files/{fileId} [delete]
func (s *Server) DeleteFileHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())
	fileID := chi.URLParam(r, "fileId")

	var trashed *models.File

	txErr := s.store.ExecTx(r.Context(), func(q *database.Queries) error {
		var err error
		trashed, err = q.MarkFileDeleted(r.Context(), fileID, claims.UserID)
		if err != nil {
			return err
		}
		if trashed == nil {
			return database.ErrFileNotFound
		}

		if err := q.ReleaseStorage(r.Context(), claims.UserID, trashed.FileSize); err != nil {
			return err
		}

		return q.LogEvent(r.Context(), claims.UserID, "file_trashed", trashed)
	})

	if txErr != nil {
		if errors.Is(txErr, database.ErrFileNotFound) {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		log.Printf("ERROR: Failed to trash file %s: %v", fileID, txErr)
		http.Error(w, "Failed to delete file", http.StatusInternalServerError)
		return
	}

	s.wsHub.Notify(claims.UserID, "file_trashed", trashed)

	w.WriteHeader(http.StatusNoContent)
}

// @Summary      Restore a file from trash
// @Description  Clears the trash flags and re-reserves the file's size in the ledger. When the quota would be exceeded nothing is mutated and 413 is returned.
// @Tags         storage
// @Security     BearerAuth
// @Param        fileId  path  string  true  "File ID"
// @Success      200     {object}  map[string]string
// @Failure      401     {string}  string "Unauthorized"
// @Failure      404     {string}  string "File not found in trash"
// @Failure      413     {string}  string "Storage quota would be exceeded"
// @Failure      500     {string}  string "Internal Server Error"
// @Router       /storage/files/{fileId}/restore [post]
func (s *Server) RestoreFileHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())
	fileID := chi.URLParam(r, "fileId")

	var restored *models.File

	txErr := s.store.ExecTx(r.Context(), func(q *database.Queries) error {
		file, err := q.GetDeletedFile(r.Context(), fileID, claims.UserID)
		if err != nil {
			return err
		}
		if file == nil {
			return database.ErrFileNotFound
		}

		ok, err := q.ReserveStorage(r.Context(), claims.UserID, file.FileSize)
		if err != nil {
			return err
		}
		if !ok {
			return database.ErrQuotaExceeded
		}

		success, err := q.MarkFileRestored(r.Context(), fileID, claims.UserID)
		if err != nil {
			return err
		}
		if !success {
			return database.ErrFileNotFound
		}

		restored = file
		return q.LogEvent(r.Context(), claims.UserID, "file_restored", file)
	})

	if txErr != nil {
		switch {
		case errors.Is(txErr, database.ErrFileNotFound):
			http.Error(w, "File not found in trash", http.StatusNotFound)
		case errors.Is(txErr, database.ErrQuotaExceeded):
			http.Error(w, "Cannot restore file: storage quota would be exceeded", http.StatusRequestEntityTooLarge)
		default:
			log.Printf("ERROR: Failed to restore file %s: %v", fileID, txErr)
			http.Error(w, "Failed to restore file", http.StatusInternalServerError)
		}
		return
	}

	s.wsHub.Notify(claims.UserID, "file_restored", restored)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "File restored successfully"})
}

// @Summary      Rename a file
// @Description  Changes the user-facing filename. The storage key and on-disk content stay untouched.
// @Tags         storage
// @Accept       json
// @Security     BearerAuth
// @Param        fileId         path      string         true  "File ID"
// @Param        renameRequest  body      RenameRequest  true  "New name"
// @Success      200  {object}  map[string]string
// @Failure      400  {string}  string "Bad Request"
// @Failure      401  {string}  string "Unauthorized"
// @Failure      404  {string}  string "File not found"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /storage/files/{fileId}/rename [put]
func (s *Server) RenameFileHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())
	fileID := chi.URLParam(r, "fileId")

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

	success, err := s.store.RenameFile(r.Context(), fileID, claims.UserID, req.NewName)
	if err != nil {
		http.Error(w, "Failed to rename file", http.StatusInternalServerError)
		return
	}
	if !success {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "File renamed successfully"})
}

type MoveFileRequest struct {
	FolderID *string `json:"folder_id"`
}

// @Summary      Move a file
// @Description  Changes the file's folder. A null folder_id moves it to the top level.
// @Tags         storage
// @Accept       json
// @Security     BearerAuth
// @Param        fileId       path      string           true  "File ID"
// @Param        moveRequest  body      MoveFileRequest  true  "Target folder"
// @Success      200  {object}  map[string]string
// @Failure      400  {string}  string "Target folder does not exist"
// @Failure      401  {string}  string "Unauthorized"
// @Failure      404  {string}  string "File not found"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /storage/files/{fileId}/move [put]
func (s *Server) MoveFileHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())
	fileID := chi.URLParam(r, "fileId")

	var req MoveFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.FolderID != nil && len(*req.FolderID) != 21 {
		http.Error(w, "Invalid folder_id format", http.StatusBadRequest)
		return
	}

	success, err := s.store.MoveFile(r.Context(), fileID, claims.UserID, req.FolderID)
	if err != nil {
		if errors.Is(err, database.ErrFolderNotFound) {
			http.Error(w, "Target folder does not exist", http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to move file", http.StatusInternalServerError)
		return
	}
	if !success {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "File moved successfully"})
}
