package services

import (
	"database/sql"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dibbydollars/backend/internal/models"
)

// AdminService covers system configuration, staff account management, and the
// manual interest trigger used for testing.
type AdminService struct {
	db        *sql.DB
	config    *ConfigService
	interest  *InterestService
	validator *ValidationHelper
}

// CreateUserRequest represents the staff account creation payload
type CreateUserRequest struct {
	Username  string `json:"username" validate:"required,min=2,max=50" example:"teacher1"`
	Password  string `json:"password" validate:"required,min=6" example:"secure123"`
	FirstName string `json:"firstName" validate:"required,min=1" example:"Jane"`
	LastName  string `json:"lastName" validate:"required,min=1" example:"Doe"`
	Role      string `json:"role" validate:"omitempty,oneof=teacher admin" example:"teacher"`
}

// ConfigEntry is one configuration value plus its description.
type ConfigEntry struct {
	Value       string `json:"value"`
	Description string `json:"description"`
}

var configKeyAliases = map[string]string{
	"interestRate":       ConfigInterestRate,
	"rafflePrizeDefault": ConfigRafflePrizeDefault,
	"interestDay":        ConfigInterestDay,
}

func NewAdminService(db *sql.DB, config *ConfigService, interest *InterestService) *AdminService {
	return &AdminService{
		db:        db,
		config:    config,
		interest:  interest,
		validator: NewValidationHelper(),
	}
}

// GetConfig returns all system configuration values
// @Summary Get configuration
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]interface{} "Configuration values with defaults"
// @Router /admin/config [get]
func (s *AdminService) GetConfig(w http.ResponseWriter, r *http.Request) {
	config := map[string]ConfigEntry{}
	for key, def := range ConfigDefaults {
		config[key] = ConfigEntry{Value: def.Value, Description: def.Description}
	}

	rows, err := s.db.Query(`SELECT key, value, description FROM system_config`)
	if err != nil {
		SendErrorResponse(w, "Failed to load configuration", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		var description sql.NullString
		if err := rows.Scan(&key, &value, &description); err != nil {
			SendErrorResponse(w, "Failed to load configuration", http.StatusInternalServerError, nil)
			return
		}
		config[key] = ConfigEntry{Value: value, Description: description.String}
	}

	SendJSON(w, http.StatusOK, map[string]any{"success": true, "config": config})
}

// UpdateConfig updates system configuration values
// @Summary Update configuration
// @Description Update config keys; interest rate must be 0-100, raffle prize positive
// @Tags admin
// @Accept json
// @Produce json
// @Param request body map[string]string true "Config keys to update"
// @Success 200 {object} map[string]interface{} "Updated keys"
// @Failure 400 {object} ErrorResponse "Invalid value"
// @Router /admin/config [put]
func (s *AdminService) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var data map[string]string
	if err := DecodeJSONBody(w, r, &data); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if len(data) == 0 {
		SendErrorResponse(w, "No data provided", http.StatusBadRequest, nil)
		return
	}

	updated := []string{}
	for key, value := range data {
		if canonical, ok := configKeyAliases[key]; ok {
			key = canonical
		}

		switch key {
		case ConfigInterestRate:
			rate, err := strconv.ParseFloat(value, 64)
			if err != nil {
				SendErrorResponse(w, "Invalid interest rate", http.StatusBadRequest, nil)
				return
			}
			if rate < 0 || rate > 100 {
				SendErrorResponse(w, ErrInvalidRate.Error(), http.StatusBadRequest, nil)
				return
			}
		case ConfigRafflePrizeDefault:
			prize, err := strconv.Atoi(value)
			if err != nil {
				SendErrorResponse(w, "Invalid prize amount", http.StatusBadRequest, nil)
				return
			}
			if prize <= 0 {
				SendErrorResponse(w, "Prize must be positive", http.StatusBadRequest, nil)
				return
			}
		case ConfigInterestDay:
			if _, ok := ParseWeekday(value); !ok {
				SendErrorResponse(w, "Invalid interest day", http.StatusBadRequest, nil)
				return
			}
		}

		if err := s.config.Set(key, value); err != nil {
			log.Printf("[ADMIN] Config update failed for %s: %v", key, err)
			SendErrorResponse(w, "Failed to update configuration", http.StatusInternalServerError, nil)
			return
		}
		updated = append(updated, key)
	}

	log.Printf("[ADMIN] Config updated: %s", strings.Join(updated, ", "))
	SendJSON(w, http.StatusOK, map[string]any{"success": true, "updated": updated})
}

// ListUsers returns all staff accounts
// @Summary List staff
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]interface{} "Teachers and admins"
// @Router /admin/users [get]
func (s *AdminService) ListUsers(w http.ResponseWriter, r *http.Request) {
	rows, err := s.db.Query(`
		SELECT id, username, role, first_name, last_name, class_name, is_active, created_at
		FROM users WHERE role IN ('teacher', 'admin')
		ORDER BY role, last_name`)
	if err != nil {
		SendErrorResponse(w, "Failed to load users", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Role, &u.FirstName, &u.LastName,
			&u.ClassName, &u.IsActive, &u.CreatedAt); err != nil {
			SendErrorResponse(w, "Failed to load users", http.StatusInternalServerError, nil)
			return
		}
		users = append(users, u)
	}

	SendJSON(w, http.StatusOK, map[string]any{"success": true, "users": users})
}

// CreateUser creates a teacher or admin account
// @Summary Create staff account
// @Tags admin
// @Accept json
// @Produce json
// @Param request body CreateUserRequest true "New staff account"
// @Success 201 {object} map[string]interface{} "Account created"
// @Failure 400 {object} ErrorResponse "Invalid request or duplicate username"
// @Router /admin/users [post]
func (s *AdminService) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := DecodeJSONBody(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))

	var exists bool
	if err := s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`,
		username).Scan(&exists); err != nil {
		SendErrorResponse(w, "Failed to create user", http.StatusInternalServerError, nil)
		return
	}
	if exists {
		SendErrorResponse(w, "Username already exists", http.StatusBadRequest, nil)
		return
	}

	role := models.RoleTeacher
	if req.Role == models.RoleAdmin {
		role = models.RoleAdmin
	}

	pinHash, err := HashPIN(req.Password)
	if err != nil {
		SendErrorResponse(w, "Failed to create user", http.StatusInternalServerError, nil)
		return
	}

	var user models.User
	err = s.db.QueryRow(`
		INSERT INTO users (username, pin_hash, role, first_name, last_name)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, username, role, first_name, last_name, class_name, is_active, created_at`,
		username, pinHash, role, strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName)).Scan(
		&user.ID, &user.Username, &user.Role, &user.FirstName, &user.LastName,
		&user.ClassName, &user.IsActive, &user.CreatedAt)
	if err != nil {
		log.Printf("[ADMIN] User creation failed for %s: %v", username, err)
		SendErrorResponse(w, "Failed to create user", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[ADMIN] Created %s account %d (%s)", role, user.ID, user.Username)
	SendJSON(w, http.StatusCreated, map[string]any{"success": true, "user": user})
}

// TriggerInterest manually runs the weekly interest calculation
// @Summary Trigger interest run
// @Description Run the weekly interest calculation now. Not idempotent: running twice in one week credits twice.
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]interface{} "Run result"
// @Router /admin/trigger-interest [post]
func (s *AdminService) TriggerInterest(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value("userID").(int)
	log.Printf("[ADMIN] Manual interest run triggered by user %d", userID)

	result, err := s.interest.CalculateWeeklyInterest(time.Now())
	if err != nil {
		log.Printf("[ADMIN] Manual interest run failed: %v", err)
		SendErrorResponse(w, "Interest calculation failed", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Interest calculation triggered",
		"result":  result,
	})
}

// ParseWeekday maps a lower-case day name to its time.Weekday.
func ParseWeekday(name string) (time.Weekday, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sunday":
		return time.Sunday, true
	case "monday":
		return time.Monday, true
	case "tuesday":
		return time.Tuesday, true
	case "wednesday":
		return time.Wednesday, true
	case "thursday":
		return time.Thursday, true
	case "friday":
		return time.Friday, true
	case "saturday":
		return time.Saturday, true
	}
	return time.Sunday, false
}
