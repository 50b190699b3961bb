package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// @Summary      List all users
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        limit   query     int  false  "Page size"
// @Param        offset  query     int  false  "Offset"
// @Success      200     {array}   models.User
// @Failure      401     {string}  string "Unauthorized"
// @Failure      403     {string}  string "Forbidden"
// @Failure      500     {string}  string "Internal Server Error"
// @Router       /admin/users [get]
func (s *Server) AdminListUsersHandler(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	users, err := s.store.ListUsers(r.Context(), limit, offset)
	if err != nil {
		http.Error(w, "Failed to list users", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(users)
}

type SetUserActiveRequest struct {
	IsActive bool `json:"is_active"`
}

// @Summary      Suspend or reactivate a user
// @Description  A suspended user cannot log in. Existing JWTs stay valid until they expire.
// @Tags         admin
// @Accept       json
// @Security     BearerAuth
// @Param        userId         path      int                   true  "User ID"
// @Param        activeRequest  body      SetUserActiveRequest  true  "Desired state"
// @Success      200  {object}  map[string]string
// @Failure      400  {string}  string "Bad Request"
// @Failure      401  {string}  string "Unauthorized"
// @Failure      403  {string}  string "Forbidden"
// @Failure      404  {string}  string "User not found"
// @Router       /admin/users/{userId}/active [put]
func (s *Server) AdminSetUserActiveHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	var req SetUserActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	success, err := s.store.SetUserActive(r.Context(), userID, req.IsActive)
	if err != nil {
		http.Error(w, "Failed to update user", http.StatusInternalServerError)
		return
	}
	if !success {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "User updated successfully"})
}

// @Summary      Service statistics
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  database.ServiceStats
// @Failure      401  {string}  string "Unauthorized"
// @Failure      403  {string}  string "Forbidden"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /admin/stats [get]
func (s *Server) AdminStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetServiceStats(r.Context())
	if err != nil {
		http.Error(w, "Failed to collect statistics", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
