package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"holabox/internal/database"
	"holabox/internal/quota"
)

// @Summary      Get current user profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.User
// @Failure      401  {string}  string "Unauthorized"
// @Failure      404  {string}  string "User not found"
// @Router       /me [get]
func (s *Server) GetCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	user, err := s.store.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		http.Error(w, "Failed to retrieve user data", http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

type UpdateProfileRequest struct {
	FullName *string `json:"full_name"`
	Email    *string `json:"email"`
}

// @Summary      Update current user profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        updateRequest  body      UpdateProfileRequest  true  "Fields to update"
// @Success      200            {object}  models.User
// @Failure      400            {string}  string "Email already in use"
// @Failure      401            {string}  string "Unauthorized"
// @Failure      500            {string}  string "Internal Server Error"
// @Router       /me [put]
func (s *Server) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Email != nil && strings.TrimSpace(*req.Email) == "" {
		http.Error(w, "Email cannot be empty", http.StatusBadRequest)
		return
	}

	user, err := s.store.UpdateUserProfile(r.Context(), database.UpdateUserProfileParams{
		UserID:   claims.UserID,
		FullName: req.FullName,
		Email:    req.Email,
	})
	if err != nil {
		if errors.Is(err, database.ErrEmailInUse) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to update profile", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

type StorageInfoResponse struct {
	StorageUsed       int64   `json:"storage_used"`
	StorageLimit      int64   `json:"storage_limit"`
	StoragePercentage float64 `json:"storage_percentage"`
	PlanType          string  `json:"plan_type"`
}

// @Summary      Get storage usage
// @Description  Returns the current storage ledger value and the plan limit for the authenticated user.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  StorageInfoResponse
// @Failure      401  {string}  string "Unauthorized"
// @Failure      404  {string}  string "User not found"
// @Router       /me/storage [get]
func (s *Server) GetStorageInfoHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	user, err := s.store.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		http.Error(w, "Failed to retrieve user data", http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	limit := quota.LimitFor(user.PlanType)
	percentage := 0.0
	if limit > 0 {
		percentage = float64(user.StorageUsed) / float64(limit) * 100
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(StorageInfoResponse{
		StorageUsed:       user.StorageUsed,
		StorageLimit:      limit,
		StoragePercentage: percentage,
		PlanType:          user.PlanType,
	})
}

type RecomputeStorageResponse struct {
	StorageUsed    int64 `json:"storage_used"`
	PreviousLedger int64 `json:"previous_ledger"`
}

// @Summary      Recompute the storage ledger
// @Description  Walks the user's on-disk namespace and overwrites the storage_used ledger with the true aggregate. The only way to repair drift after a crash; never runs automatically.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  RecomputeStorageResponse
// @Failure      401  {string}  string "Unauthorized"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /me/storage/recompute [post]
func (s *Server) RecomputeStorageHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	user, err := s.store.GetUserByID(r.Context(), claims.UserID)
	if err != nil || user == nil {
		http.Error(w, "Failed to retrieve user data", http.StatusInternalServerError)
		return
	}

	trueSize, err := s.storage.NamespaceSize(claims.UserID)
	if err != nil {
		log.Printf("ERROR: Failed to walk storage namespace of user %d: %v", claims.UserID, err)
		http.Error(w, "Failed to recompute storage usage", http.StatusInternalServerError)
		return
	}

	if err := s.store.SetStorageUsed(r.Context(), claims.UserID, trueSize); err != nil {
		http.Error(w, "Failed to update storage ledger", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(RecomputeStorageResponse{
		StorageUsed:    trueSize,
		PreviousLedger: user.StorageUsed,
	})
}
