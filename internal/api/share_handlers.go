package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"holabox/internal/auth"
	"holabox/internal/database"
	"holabox/internal/models"
	"holabox/internal/sharing"

	"github.com/go-chi/chi/v5"
)

type CreateShareRequest struct {
	FileID      string `json:"file_id"`
	Password    string `json:"password,omitempty"`
	ExpiryHours int    `json:"expiry_hours,omitempty"`
}

// @Summary      Create a share link
// @Description  Creates a tokenized share link for an owned file. The token alone grants access, so treat the returned URL as a secret.
// @Tags         shares
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        shareRequest  body      CreateShareRequest  true  "Share parameters"
// @Success      201  {object}  models.Share
// @Failure      400  {string}  string "Bad Request"
// @Failure      401  {string}  string "Unauthorized"
// @Failure      404  {string}  string "File not found"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /shares [post]
func (s *Server) CreateShareHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	var req CreateShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.FileID == "" {
		http.Error(w, "file_id is required", http.StatusBadRequest)
		return
	}
	if req.ExpiryHours < 0 {
		http.Error(w, "expiry_hours cannot be negative", http.StatusBadRequest)
		return
	}

	// Udostępniać można tylko własne, nieusunięte pliki
	file, err := s.store.GetFileByID(r.Context(), req.FileID, claims.UserID)
	if err != nil {
		http.Error(w, "Failed to retrieve file metadata", http.StatusInternalServerError)
		return
	}
	if file == nil || file.IsDeleted {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	token, err := sharing.NewToken()
	if err != nil {
		http.Error(w, "Failed to generate share token", http.StatusInternalServerError)
		return
	}

	var passwordHash *string
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			http.Error(w, "Failed to process password", http.StatusInternalServerError)
			return
		}
		passwordHash = &hash
	}

	var expiresAt *time.Time
	if req.ExpiryHours > 0 {
		t := time.Now().Add(time.Duration(req.ExpiryHours) * time.Hour)
		expiresAt = &t
	}

	share, err := s.store.CreateShare(r.Context(), database.CreateShareParams{
		ShareToken:   token,
		FileID:       req.FileID,
		UserID:       claims.UserID,
		PasswordHash: passwordHash,
		ExpiresAt:    expiresAt,
	})
	if err != nil {
		log.Printf("ERROR: Failed to create share for file %s: %v", req.FileID, err)
		http.Error(w, "Failed to create share", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(share)
}

// @Summary      List my share links
// @Tags         shares
// @Produce      json
// @Security     BearerAuth
// @Param        limit   query     int  false  "Page size"
// @Param        offset  query     int  false  "Offset"
// @Success      200     {array}   models.Share
// @Failure      401     {string}  string "Unauthorized"
// @Failure      500     {string}  string "Internal Server Error"
// @Router       /shares [get]
func (s *Server) ListMySharesHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())
	limit, offset := parsePagination(r)

	shares, err := s.store.ListSharesForUser(r.Context(), claims.UserID, limit, offset)
	if err != nil {
		http.Error(w, "Failed to list shares", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(shares)
}

// resolveShare loads the share behind a token and runs the access gate.
// On failure it writes the response itself and returns nil. A missing share,
// an inactive share and an expired share all produce the same 404 so the
// response does not leak which of them happened.
func (s *Server) resolveShare(w http.ResponseWriter, r *http.Request, password string) *models.Share {
	token := chi.URLParam(r, "shareToken")

	share, err := s.store.GetShareByToken(r.Context(), token)
	if err != nil {
		http.Error(w, "Failed to retrieve share", http.StatusInternalServerError)
		return nil
	}

	switch sharing.Verify(share, password, time.Now()) {
	case sharing.Valid:
		return share
	case sharing.WrongPassword:
		http.Error(w, "Invalid password", http.StatusUnauthorized)
		return nil
	default:
		http.Error(w, "Share not found or expired", http.StatusNotFound)
		return nil
	}
}

type SharedFileResponse struct {
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
	FileSize int64  `json:"file_size"`
	MimeType string `json:"mime_type,omitempty"`
}

// @Summary      Access a shared file
// @Description  Returns metadata of the file behind a share token. Counts as a view. No account is required.
// @Tags         shares
// @Produce      json
// @Param        shareToken  path      string  true   "Share token"
// @Param        password    query     string  false  "Share password, if the link is protected"
// @Success      200  {object}  SharedFileResponse
// @Failure      401  {string}  string "Invalid password"
// @Failure      404  {string}  string "Share not found or expired"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /shares/{shareToken}/access [get]
func (s *Server) AccessShareHandler(w http.ResponseWriter, r *http.Request) {
	share := s.resolveShare(w, r, r.URL.Query().Get("password"))
	if share == nil {
		return
	}

	file, err := s.store.GetSharedFile(r.Context(), share.FileID)
	if err != nil || file == nil {
		http.Error(w, "Shared file no longer exists", http.StatusNotFound)
		return
	}

	if err := s.store.IncrementShareViewCount(r.Context(), share.ID); err != nil {
		log.Printf("WARN: Failed to bump view count of share %d: %v", share.ID, err)
	}

	resp := SharedFileResponse{
		FileID:   file.ID,
		Filename: file.OriginalFilename,
		FileSize: file.FileSize,
	}
	if file.MimeType != nil {
		resp.MimeType = *file.MimeType
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// @Summary      Download a shared file
// @Description  Streams the file behind a share token. Counts as a download but not as a view.
// @Tags         shares
// @Param        shareToken  path      string  true   "Share token"
// @Param        password    query     string  false  "Share password, if the link is protected"
// @Success      200  {file}    file
// @Failure      401  {string}  string "Invalid password"
// @Failure      404  {string}  string "Share not found or expired"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /shares/{shareToken}/download [get]
func (s *Server) DownloadShareHandler(w http.ResponseWriter, r *http.Request) {
	share := s.resolveShare(w, r, r.URL.Query().Get("password"))
	if share == nil {
		return
	}

	file, err := s.store.GetSharedFile(r.Context(), share.FileID)
	if err != nil || file == nil {
		http.Error(w, "Shared file no longer exists", http.StatusNotFound)
		return
	}

	stream, err := s.storage.Open(file.FilePath)
	if err != nil {
		http.Error(w, "File does not exist on disk", http.StatusNotFound)
		return
	}
	defer stream.Close()

	if err := s.store.IncrementShareDownloadCount(r.Context(), share.ID); err != nil {
		log.Printf("WARN: Failed to bump download count of share %d: %v", share.ID, err)
	}

	writeFileStream(w, file, stream)
}

// @Summary      Revoke a share link
// @Description  Permanently deactivates a share. Revocation cannot be undone; create a new link instead.
// @Tags         shares
// @Security     BearerAuth
// @Param        shareId  path  int  true  "Share ID"
// @Success      204  {null}    nil "No Content"
// @Failure      400  {string}  string "Bad Request"
// @Failure      401  {string}  string "Unauthorized"
// @Failure      404  {string}  string "Share not found"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /shares/{shareId} [delete]
func (s *Server) RevokeShareHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	shareID, err := strconv.ParseInt(chi.URLParam(r, "shareId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid share ID", http.StatusBadRequest)
		return
	}

	success, err := s.store.DeactivateShare(r.Context(), shareID, claims.UserID)
	if err != nil {
		http.Error(w, "Failed to revoke share", http.StatusInternalServerError)
		return
	}
	if !success {
		http.Error(w, "Share not found", http.StatusNotFound)
		return
	}

	if err := s.store.LogEvent(r.Context(), claims.UserID, "share_revoked", map[string]int64{"share_id": shareID}); err != nil {
		log.Printf("WARN: Failed to journal share revocation: %v", err)
	}
	s.wsHub.Notify(claims.UserID, "share_revoked", map[string]int64{"share_id": shareID})

	w.WriteHeader(http.StatusNoContent)
}
