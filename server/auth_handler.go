package server

import (
	"net/http"
	"strings"

	"encoding/json"

	"BeatWave/core/auth"
	"BeatWave/logger"
	"BeatWave/model"
)

// LoginRequest represents the login request body.
type LoginRequest struct {
	Username string `json:"username"` // username or email
	Password string `json:"password"`
}

// RegisterRequest represents the registration request body.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// authResponse is returned by both login and registration.
type authResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// LoginHandler handles user login requests.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error("failed to decode login request", logger.ErrorField(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Password == "" {
		http.Error(w, "Username/Email and password are required", http.StatusBadRequest)
		return
	}

	// Username or email login
	var user *model.User
	var err error
	if strings.Contains(req.Username, "@") {
		user, err = h.userRepo.GetUserByEmail(req.Username)
	} else {
		user, err = h.userRepo.GetUserByUsername(req.Username)
	}
	if err != nil {
		logger.Error("failed to query user", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if user == nil {
		logger.Warn("login for unknown user", logger.String("username", req.Username))
		http.Error(w, "Invalid username/email or password", http.StatusUnauthorized)
		return
	}

	if !auth.VerifyPassword(req.Password, user.PasswordHash) {
		logger.Warn("password verification failed", logger.String("username", req.Username))
		http.Error(w, "Invalid username/email or password", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Username)
	if err != nil {
		logger.Error("failed to generate token", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	logger.Info("login succeeded", logger.String("username", user.Username))
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: *user})
}

// RegisterHandler handles user registration. The account and its profile
// are created together; every account has exactly one profile from the
// moment it exists.
func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Password == "" || req.Email == "" {
		http.Error(w, "Username, password and email are required", http.StatusBadRequest)
		return
	}

	// Reject duplicates before hashing
	if existing, err := h.userRepo.GetUserByUsername(req.Username); err != nil {
		logger.Error("failed to check username", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	} else if existing != nil {
		http.Error(w, "Username already taken", http.StatusConflict)
		return
	}
	if existing, err := h.userRepo.GetUserByEmail(req.Email); err != nil {
		logger.Error("failed to check email", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	} else if existing != nil {
		http.Error(w, "Email already registered", http.StatusConflict)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		logger.Error("failed to hash password", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	}
	userID, err := h.userRepo.CreateUser(user)
	if err != nil {
		logger.Error("failed to create user", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	user.ID = userID

	// Create the profile alongside the account. The two inserts live in
	// different stores, so a failed profile insert rolls the account back;
	// a user without a profile must never exist.
	profile := &model.Profile{UserID: userID}
	if err := h.profileRepo.Create(r.Context(), profile); err != nil {
		logger.Error("failed to create profile for new user",
			logger.Int64("userId", userID),
			logger.ErrorField(err),
		)
		if delErr := h.userRepo.DeleteUser(userID); delErr != nil {
			logger.Error("failed to roll back user after profile creation failure",
				logger.Int64("userId", userID),
				logger.ErrorField(delErr),
			)
		}
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	token, err := auth.GenerateToken(userID, user.Username)
	if err != nil {
		logger.Error("failed to generate token", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	logger.Info("user registered",
		logger.Int64("userId", userID),
		logger.String("username", user.Username),
	)
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: *user})
}
