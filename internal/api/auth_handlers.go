package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"holabox/internal/auth"
	"holabox/internal/database"
	"holabox/internal/models"
	"holabox/internal/quota"

	"github.com/google/uuid"
	"github.com/jaevor/go-nanoid"
)

type RegisterRequest struct {
	Email    string  `json:"email" example:"jan@example.com"`
	Username string  `json:"username" example:"jan"`
	Password string  `json:"password" example:"password123"`
	FullName *string `json:"full_name,omitempty" example:"Jan Kowalski"`
}

type LoginRequest struct {
	Email    string `json:"email" example:"jan@example.com"`
	Password string `json:"password" example:"password123"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9...."`
	RefreshToken string `json:"refresh_token" example:"V1StGXR8_Z5jdHi6B-myT78q_Z5jdHi6B-myT78q"`
}

func (s *Server) issueSession(r *http.Request, q *database.Queries, user *models.User) (*TokenResponse, error) {
	accessToken, err := auth.GenerateJWT(user, s.config.JWT.Secret)
	if err != nil {
		return nil, err
	}

	generateID, err := nanoid.Standard(40)
	if err != nil {
		return nil, err
	}
	refreshToken := generateID()

	sessionParams := database.CreateSessionParams{
		ID:           uuid.New(),
		UserID:       user.ID,
		RefreshToken: refreshToken,
		UserAgent:    r.UserAgent(),
		ClientIP:     r.RemoteAddr,
		ExpiresAt:    time.Now().Add(7 * 24 * time.Hour),
	}
	if err := q.CreateSession(r.Context(), sessionParams); err != nil {
		return nil, err
	}

	return &TokenResponse{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// @Summary      Register a new account
// @Description  Creates a user on the free plan with an empty storage ledger and returns a token pair.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        registerRequest  body      RegisterRequest  true  "Account details"
// @Success      201              {object}  TokenResponse
// @Failure      400              {string}  string "Bad Request or account already exists"
// @Failure      500              {string}  string "Internal Server Error"
// @Router       /auth/register [post]
func (s *Server) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if req.Email == "" || req.Username == "" || len(req.Password) < 8 {
		http.Error(w, "Email, username and a password of at least 8 characters are required", http.StatusBadRequest)
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var tokens *TokenResponse

	txErr := s.store.ExecTx(r.Context(), func(q *database.Queries) error {
		user, err := q.CreateUser(r.Context(), database.CreateUserParams{
			Email:        req.Email,
			Username:     req.Username,
			PasswordHash: passwordHash,
			FullName:     req.FullName,
		})
		if err != nil {
			return err
		}

		if _, err := q.CreateSubscription(r.Context(), user.ID, quota.PlanFree); err != nil {
			return err
		}

		tokens, err = s.issueSession(r, q, user)
		return err
	})

	if txErr != nil {
		if errors.Is(txErr, database.ErrUserAlreadyExists) {
			http.Error(w, txErr.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("ERROR: Failed to register user: %v", txErr)
		http.Error(w, "Failed to register", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(tokens)
}

// @Summary      Logs a user in
// @Description  Authenticates by email and password and returns a short-lived access token plus a refresh token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        loginRequest   body      LoginRequest  true  "Login Credentials"
// @Success      200            {object}  TokenResponse
// @Failure      400            {string}  string "Invalid request body"
// @Failure      401            {string}  string "Invalid email or password"
// @Failure      403            {string}  string "Account is inactive"
// @Failure      500            {string}  string "Internal Server Error"
// @Router       /auth/login [post]
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := s.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if user == nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}
	if !user.IsActive {
		http.Error(w, "Account is inactive", http.StatusForbidden)
		return
	}

	var tokens *TokenResponse

	txErr := s.store.ExecTx(r.Context(), func(q *database.Queries) error {
		if err := q.UpdateLastLogin(r.Context(), user.ID); err != nil {
			return err
		}
		tokens, err = s.issueSession(r, q, user)
		return err
	})

	if txErr != nil {
		log.Printf("ERROR: Failed to create session for user %d: %v", user.ID, txErr)
		http.Error(w, "Failed to process login session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tokens)
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" example:"V1StGXR8_Z5jdHi6B-myT78q_Z5jdHi6B-myT78q"`
}

var errInvalidRefreshToken = errors.New("invalid or expired refresh token")

// @Summary      Refresh access token
// @Description  Exchanges a valid refresh token for a fresh token pair. Implements refresh token rotation.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        refreshTokenRequest   body      RefreshTokenRequest  true  "Refresh Token"
// @Success      200                   {object}  TokenResponse
// @Failure      400                   {string}  string "Invalid request body or missing token"
// @Failure      401                   {string}  string "Invalid or expired refresh token"
// @Failure      500                   {string}  string "Internal Server Error"
// @Router       /auth/refresh [post]
func (s *Server) RefreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.RefreshToken == "" {
		http.Error(w, "Refresh token is required", http.StatusBadRequest)
		return
	}

	var tokens *TokenResponse

	txErr := s.store.ExecTx(r.Context(), func(q *database.Queries) error {
		user, err := q.GetUserByRefreshToken(r.Context(), req.RefreshToken)
		if err != nil {
			return err
		}
		if user == nil {
			return errInvalidRefreshToken
		}

		if err := q.DeleteSessionByRefreshToken(r.Context(), req.RefreshToken); err != nil {
			return err
		}

		tokens, err = s.issueSession(r, q, user)
		return err
	})

	if txErr != nil {
		if errors.Is(txErr, errInvalidRefreshToken) {
			http.Error(w, txErr.Error(), http.StatusUnauthorized)
			return
		}
		log.Printf("ERROR: Refresh token transaction failed: %v", txErr)
		http.Error(w, "Failed to refresh token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tokens)
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// @Summary      Change password
// @Description  Changes the password of the authenticated user and terminates all their sessions.
// @Tags         auth
// @Accept       json
// @Security     BearerAuth
// @Param        changePasswordRequest  body  ChangePasswordRequest  true  "Passwords"
// @Success      204  {null}    nil "No Content"
// @Failure      400  {string}  string "Bad Request"
// @Failure      401  {string}  string "Current password is wrong"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /me/password [put]
func (s *Server) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.NewPassword) < 8 {
		http.Error(w, "New password must have at least 8 characters", http.StatusBadRequest)
		return
	}

	user, err := s.store.GetUserByID(r.Context(), claims.UserID)
	if err != nil || user == nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if !auth.CheckPasswordHash(req.CurrentPassword, user.PasswordHash) {
		http.Error(w, "Current password is wrong", http.StatusUnauthorized)
		return
	}

	newHash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	txErr := s.store.ExecTx(r.Context(), func(q *database.Queries) error {
		if err := q.UpdateUserPassword(r.Context(), claims.UserID, newHash); err != nil {
			return err
		}
		return q.DeleteAllSessionsForUser(r.Context(), claims.UserID)
	})

	if txErr != nil {
		log.Printf("ERROR: Failed to change password for user %d: %v", claims.UserID, txErr)
		http.Error(w, "Failed to change password", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
