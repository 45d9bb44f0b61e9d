package services

import (
	"context"
	cryptorand "crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"golang.org/x/crypto/argon2"

	"github.com/dibbydollars/backend/internal/models"
)

// AuthService handles PIN-based login and server-side sessions. Students sign
// in with a short PIN, teachers and admins with a password; both go through
// the same argon2id hash. Sessions are opaque tokens stored in Redis and
// carried in an HTTP-only cookie.
type AuthService struct {
	db        *sql.DB
	redis     *redis.Client
	ledger    *LedgerService
	validator *validator.Validate
}

// SessionCookieName is the cookie carrying the opaque session token.
const SessionCookieName = "dibby_session"

// SessionData is the payload stored in Redis for each live session.
type SessionData struct {
	UserID int    `json:"userId"`
	Role   string `json:"role"`
}

// LoginRequest represents the login request payload
// @Description Login request structure
type LoginRequest struct {
	Username string `json:"username" validate:"required" example:"john.smith"` // Username (lower-case)
	PIN      string `json:"pin" validate:"required,min=4" example:"1234"`      // Student PIN or staff password
}

func NewAuthService(db *sql.DB, redisClient *redis.Client, ledger *LedgerService) *AuthService {
	return &AuthService{
		db:        db,
		redis:     redisClient,
		ledger:    ledger,
		validator: validator.New(),
	}
}

// Login authenticates a user and opens a session
// @Summary Login
// @Description Authenticate with username and PIN/password, sets a session cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} map[string]interface{} "Login successful"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 401 {object} ErrorResponse "Invalid credentials"
// @Router /auth/login [post]
func (s *AuthService) Login(w http.ResponseWriter, r *http.Request) {
	log.Printf("[AUTH] Login attempt from IP: %s", r.RemoteAddr)

	var req LoginRequest
	if err := DecodeJSONBody(w, r, &req); err != nil {
		log.Printf("[AUTH] Login failed - invalid request: %v", err)
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.Struct(&req); err != nil {
		log.Printf("[AUTH] Login validation failed: %v", err)
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))

	var user models.User
	var pinHash string
	err := s.db.QueryRow(`
		SELECT id, username, pin_hash, role, first_name, last_name, class_name, is_active, created_at
		FROM users WHERE username = $1 AND is_active = TRUE`,
		username).Scan(&user.ID, &user.Username, &pinHash, &user.Role,
		&user.FirstName, &user.LastName, &user.ClassName, &user.IsActive, &user.CreatedAt)
	if err != nil {
		log.Printf("[AUTH] User not found: %s", username)
		SendErrorResponse(w, "Invalid credentials", http.StatusUnauthorized, nil)
		return
	}

	if !VerifyPIN(req.PIN, pinHash) {
		log.Printf("[AUTH] Invalid PIN for user: %s", username)
		SendErrorResponse(w, "Invalid credentials", http.StatusUnauthorized, nil)
		return
	}

	token, err := s.createSession(r.Context(), user.ID, user.Role)
	if err != nil {
		log.Printf("[AUTH] Session creation failed for user %d: %v", user.ID, err)
		SendErrorResponse(w, "Failed to create session", http.StatusInternalServerError, nil)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionTTL().Seconds()),
	})

	balance, err := s.ledger.Balance(user.ID)
	if err != nil {
		log.Printf("[AUTH] Balance read failed for user %d: %v", user.ID, err)
		SendErrorResponse(w, "Failed to load account", http.StatusInternalServerError, nil)
		return
	}
	user.Balance = &balance

	log.Printf("[AUTH] Login successful for user %d (%s)", user.ID, user.Role)
	SendJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    user,
	})
}

// Logout closes the current session
// @Summary Logout
// @Description Delete the server-side session and clear the cookie
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{} "Logout successful"
// @Router /auth/logout [post]
func (s *AuthService) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && s.redis != nil {
		key := fmt.Sprintf("session:%s", cookie.Value)
		if err := s.redis.Del(r.Context(), key).Err(); err != nil {
			log.Printf("[AUTH] Failed to delete session: %v", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	SendJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Logged out"})
}

// Me returns the currently authenticated user
// @Summary Current user
// @Description Get the logged-in user with derived balance
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{} "Current user"
// @Failure 401 {object} ErrorResponse "Not authenticated"
// @Router /auth/me [get]
func (s *AuthService) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int)
	if !ok {
		SendErrorResponse(w, "Not authenticated", http.StatusUnauthorized, nil)
		return
	}

	var user models.User
	err := s.db.QueryRow(`
		SELECT id, username, role, first_name, last_name, class_name, is_active, created_at
		FROM users WHERE id = $1 AND is_active = TRUE`,
		userID).Scan(&user.ID, &user.Username, &user.Role,
		&user.FirstName, &user.LastName, &user.ClassName, &user.IsActive, &user.CreatedAt)
	if err != nil {
		log.Printf("[AUTH] Session user %d not found: %v", userID, err)
		SendErrorResponse(w, "User not found", http.StatusUnauthorized, nil)
		return
	}

	balance, err := s.ledger.Balance(user.ID)
	if err != nil {
		SendErrorResponse(w, "Failed to load account", http.StatusInternalServerError, nil)
		return
	}
	user.Balance = &balance

	SendJSON(w, http.StatusOK, map[string]any{"success": true, "user": user})
}

func (s *AuthService) createSession(ctx context.Context, userID int, role string) (string, error) {
	if s.redis == nil {
		return "", fmt.Errorf("session store unavailable")
	}

	token := uuid.NewString()
	payload, err := json.Marshal(SessionData{UserID: userID, Role: role})
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("session:%s", token)
	if err := s.redis.Set(ctx, key, payload, sessionTTL()).Err(); err != nil {
		return "", err
	}
	return token, nil
}

func sessionTTL() time.Duration {
	hours := viper.GetInt("session.expiry_hours")
	if hours <= 0 {
		hours = 12
	}
	return time.Duration(hours) * time.Hour
}

// HashPIN hashes a PIN or password with argon2id, salt and hash base64-joined.
func HashPIN(pin string) (string, error) {
	salt := make([]byte, 16)
	if _, err := cryptorand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(pin), salt, 1, 64*1024, 4, 32)
	return fmt.Sprintf("%s$%s", base64.StdEncoding.EncodeToString(salt), base64.StdEncoding.EncodeToString(hash)), nil
}

// VerifyPIN checks a PIN or password against a stored hash.
func VerifyPIN(pin, hashedPIN string) bool {
	parts := strings.Split(hashedPIN, "$")
	if len(parts) != 2 {
		return false
	}

	salt, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}

	hash, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(pin), salt, 1, 64*1024, 4, 32)
	return string(hash) == string(computed)
}
