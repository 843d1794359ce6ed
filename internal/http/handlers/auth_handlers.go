package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmarchetti/scanventory/internal/auth"
	"github.com/dmarchetti/scanventory/internal/models"
	"github.com/dmarchetti/scanventory/internal/repo"
)

// RegisterHandler godoc
// @Summary Register a new user
// @Description Self-service registration; new users get the clerk role.
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body CredentialsRequest true "Username and password"
// @Success 201 {object} RegisterResult
// @Failure 400 {string} string "Invalid input"
// @Failure 409 {string} string "Username taken"
// @Router /register [post]
func RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Username) == "" || len(req.Password) < 8 {
		http.Error(w, "username is required and password must be at least 8 characters", http.StatusBadRequest)
		return
	}

	created, err := registerUser(req.Username, req.Password, "clerk")
	if err != nil {
		if errors.Is(err, repo.ErrDuplicatedValueUnique) {
			http.Error(w, "username already taken", http.StatusConflict)
			return
		}
		http.Error(w, "could not register user", http.StatusInternalServerError)
		return
	}

	token, err := auth.GenerateToken(created)
	if err != nil {
		zap.L().Error("failed to issue token", zap.Error(err))
		http.Error(w, "could not issue token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, RegisterResult{
		Message: "user registered",
		Token:   token,
	})
}

// RegisterAsAdminHandler godoc
// @Summary Create a user with an explicit role
// @Description Admin-only; used to provision managers and additional admins.
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param user body RegisterAsAdminRequest true "Username, password and role"
// @Success 201 {object} models.User
// @Failure 400 {string} string "Invalid input"
// @Failure 403 {string} string "Admin role required"
// @Failure 409 {string} string "Username taken"
// @Router /admin/users [post]
func RegisterAsAdminHandler(w http.ResponseWriter, r *http.Request) {
	role, err := GetRoleFromContext(r)
	if err != nil || role != "admin" {
		http.Error(w, "admin role required", http.StatusForbidden)
		return
	}

	var req RegisterAsAdminRequest
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Username) == "" || len(req.Password) < 8 {
		http.Error(w, "username is required and password must be at least 8 characters", http.StatusBadRequest)
		return
	}
	switch req.Role {
	case "admin", "manager", "clerk":
	default:
		http.Error(w, "role must be admin, manager or clerk", http.StatusBadRequest)
		return
	}

	created, err := registerUser(req.Username, req.Password, req.Role)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicatedValueUnique) {
			http.Error(w, "username already taken", http.StatusConflict)
			return
		}
		http.Error(w, "could not create user", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func registerUser(username, password, role string) (models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}
	return userRepo.CreateUser(models.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	})
}

// LoginHandler godoc
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body UserLogin true "Username and password"
// @Success 200 {object} LoginResult
// @Failure 401 {string} string "Invalid credentials"
// @Router /login [post]
func LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req UserLogin
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	user, err := userRepo.GetByUsername(req.Username)
	if err != nil {
		// Same response as a bad password so usernames can't be probed.
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateToken(user)
	if err != nil {
		zap.L().Error("failed to issue token", zap.Error(err))
		http.Error(w, "could not issue token", http.StatusInternalServerError)
		return
	}

	refreshToken := uuid.NewString()
	auth.SetRefreshToken(refreshToken, user.Username)

	writeJSON(w, http.StatusOK, LoginResult{
		Token:        token,
		RefreshToken: refreshToken,
	})
}

// RefreshTokenHandler godoc
// @Summary Exchange a refresh token for a new token pair
// @Description Refresh tokens are single-use; a new one is issued with each exchange.
// @Tags auth
// @Accept json
// @Produce json
// @Param refresh body RefreshRequest true "Refresh token"
// @Success 200 {object} LoginResult
// @Failure 401 {string} string "Invalid refresh token"
// @Router /refresh [post]
func RefreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	username, ok := auth.ConsumeRefreshToken(req.RefreshToken)
	if !ok {
		http.Error(w, "invalid refresh token", http.StatusUnauthorized)
		return
	}

	user, err := userRepo.GetByUsername(username)
	if err != nil {
		http.Error(w, "invalid refresh token", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateToken(user)
	if err != nil {
		zap.L().Error("failed to issue token", zap.Error(err))
		http.Error(w, "could not issue token", http.StatusInternalServerError)
		return
	}

	refreshToken := uuid.NewString()
	auth.SetRefreshToken(refreshToken, user.Username)

	writeJSON(w, http.StatusOK, LoginResult{
		Token:        token,
		RefreshToken: refreshToken,
	})
}
