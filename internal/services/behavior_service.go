package services

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/dibbydollars/backend/internal/models"
)

// BehaviorService manages focus behaviors and each teacher's quick-award
// selection (3-5 behaviors shown as buttons in the classroom UI).
type BehaviorService struct {
	db        *sql.DB
	validator *ValidationHelper
}

// CreateBehaviorRequest represents the behavior creation payload
type CreateBehaviorRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=100" example:"Helping Others"`
	Description string `json:"description" validate:"max=255" example:"Assisting classmates with their work"`
}

// SetFocusRequest represents a teacher's focus behavior selection
type SetFocusRequest struct {
	BehaviorIDs []int `json:"behaviorIds" validate:"required,min=3,max=5"`
}

func NewBehaviorService(db *sql.DB) *BehaviorService {
	return &BehaviorService{
		db:        db,
		validator: NewValidationHelper(),
	}
}

// ListBehaviors returns all active focus behaviors
// @Summary List behaviors
// @Tags behaviors
// @Produce json
// @Success 200 {object} map[string]interface{} "Behavior list"
// @Router /behaviors [get]
func (s *BehaviorService) ListBehaviors(w http.ResponseWriter, r *http.Request) {
	rows, err := s.db.Query(`
		SELECT id, name, description, is_system_default, is_active
		FROM focus_behaviors WHERE is_active = TRUE ORDER BY name`)
	if err != nil {
		SendErrorResponse(w, "Failed to load behaviors", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	behaviors := []models.FocusBehavior{}
	for rows.Next() {
		var b models.FocusBehavior
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.IsSystemDefault, &b.IsActive); err != nil {
			SendErrorResponse(w, "Failed to load behaviors", http.StatusInternalServerError, nil)
			return
		}
		behaviors = append(behaviors, b)
	}

	SendJSON(w, http.StatusOK, map[string]any{"success": true, "behaviors": behaviors})
}

// CreateBehavior creates a new focus behavior
// @Summary Create behavior
// @Tags behaviors
// @Accept json
// @Produce json
// @Param request body CreateBehaviorRequest true "New behavior"
// @Success 201 {object} map[string]interface{} "Behavior created"
// @Failure 400 {object} ErrorResponse "Invalid or duplicate name"
// @Router /behaviors [post]
func (s *BehaviorService) CreateBehavior(w http.ResponseWriter, r *http.Request) {
	var req CreateBehaviorRequest
	if err := DecodeJSONBody(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	name := strings.TrimSpace(req.Name)

	var exists bool
	if err := s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM focus_behaviors WHERE name = $1)`,
		name).Scan(&exists); err != nil {
		SendErrorResponse(w, "Failed to create behavior", http.StatusInternalServerError, nil)
		return
	}
	if exists {
		SendErrorResponse(w, "Behavior already exists", http.StatusBadRequest, nil)
		return
	}

	var description *string
	if trimmed := strings.TrimSpace(req.Description); trimmed != "" {
		description = &trimmed
	}

	var behavior models.FocusBehavior
	err := s.db.QueryRow(`
		INSERT INTO focus_behaviors (name, description, is_system_default)
		VALUES ($1, $2, FALSE)
		RETURNING id, name, description, is_system_default, is_active`,
		name, description).Scan(&behavior.ID, &behavior.Name, &behavior.Description,
		&behavior.IsSystemDefault, &behavior.IsActive)
	if err != nil {
		log.Printf("[BEHAVIORS] Create failed for %q: %v", name, err)
		SendErrorResponse(w, "Failed to create behavior", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusCreated, map[string]any{"success": true, "behavior": behavior})
}

// GetMyFocus returns the current teacher's focus behavior selection
// @Summary My focus behaviors
// @Tags behaviors
// @Produce json
// @Success 200 {object} map[string]interface{} "Selected behaviors in display order"
// @Router /behaviors/my-focus [get]
func (s *BehaviorService) GetMyFocus(w http.ResponseWriter, r *http.Request) {
	teacherID, _ := r.Context().Value("userID").(int)

	rows, err := s.db.Query(`
		SELECT fb.id, fb.name, fb.description, fb.is_system_default, fb.is_active
		FROM teacher_focus_behaviors tfb
		JOIN focus_behaviors fb ON fb.id = tfb.behavior_id
		WHERE tfb.teacher_id = $1 AND tfb.is_active = TRUE
		ORDER BY tfb.display_order`, teacherID)
	if err != nil {
		SendErrorResponse(w, "Failed to load focus behaviors", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	behaviors := []models.FocusBehavior{}
	for rows.Next() {
		var b models.FocusBehavior
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.IsSystemDefault, &b.IsActive); err != nil {
			SendErrorResponse(w, "Failed to load focus behaviors", http.StatusInternalServerError, nil)
			return
		}
		behaviors = append(behaviors, b)
	}

	SendJSON(w, http.StatusOK, map[string]any{"success": true, "focusBehaviors": behaviors})
}

// SetMyFocus replaces the current teacher's focus selection
// @Summary Set focus behaviors
// @Description Replace the teacher's quick-award selection with 3-5 behaviors
// @Tags behaviors
// @Accept json
// @Produce json
// @Param request body SetFocusRequest true "Behavior IDs in display order"
// @Success 200 {object} map[string]interface{} "Selection saved"
// @Failure 400 {object} ErrorResponse "Invalid selection"
// @Failure 404 {object} ErrorResponse "Behavior not found"
// @Router /behaviors/my-focus [put]
func (s *BehaviorService) SetMyFocus(w http.ResponseWriter, r *http.Request) {
	teacherID, _ := r.Context().Value("userID").(int)

	var req SetFocusRequest
	if err := DecodeJSONBody(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Select 3 to 5 focus behaviors", http.StatusBadRequest, err)
		return
	}

	for _, bid := range req.BehaviorIDs {
		var exists bool
		if err := s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM focus_behaviors WHERE id = $1)`,
			bid).Scan(&exists); err != nil || !exists {
			SendErrorResponse(w, fmt.Sprintf("Behavior %d not found", bid), http.StatusNotFound, nil)
			return
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		SendErrorResponse(w, "Failed to save selection", http.StatusInternalServerError, nil)
		return
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM teacher_focus_behaviors WHERE teacher_id = $1`, teacherID); err != nil {
		SendErrorResponse(w, "Failed to save selection", http.StatusInternalServerError, nil)
		return
	}

	for order, bid := range req.BehaviorIDs {
		if _, err := tx.Exec(`
			INSERT INTO teacher_focus_behaviors (teacher_id, behavior_id, is_active, display_order)
			VALUES ($1, $2, TRUE, $3)`, teacherID, bid, order); err != nil {
			SendErrorResponse(w, "Failed to save selection", http.StatusInternalServerError, nil)
			return
		}
	}

	if err := tx.Commit(); err != nil {
		SendErrorResponse(w, "Failed to save selection", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Set %d focus behaviors", len(req.BehaviorIDs)),
	})
}
