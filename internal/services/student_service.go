package services

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dibbydollars/backend/internal/models"
)

// StudentService manages student accounts. Students are never hard-deleted;
// the ledger references them, so deactivation flips is_active only.
type StudentService struct {
	db        *sql.DB
	ledger    *LedgerService
	validator *ValidationHelper
}

// CreateStudentRequest represents the student creation payload
// @Description New student; username is generated from the name
type CreateStudentRequest struct {
	FirstName string `json:"firstName" validate:"required,min=1" example:"John"`
	LastName  string `json:"lastName" validate:"required,min=1" example:"Smith"`
	ClassName string `json:"className" example:"5A"`
	PIN       string `json:"pin" validate:"required,min=4" example:"1234"`
}

// UpdateStudentRequest represents the student update payload
type UpdateStudentRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	ClassName *string `json:"className"`
	PIN       *string `json:"pin"`
	IsActive  *bool   `json:"isActive"`
}

func NewStudentService(db *sql.DB, ledger *LedgerService) *StudentService {
	return &StudentService{
		db:        db,
		ledger:    ledger,
		validator: NewValidationHelper(),
	}
}

// ListStudents returns active students
// @Summary List students
// @Description All active students, optionally filtered by class, with balances on request
// @Tags students
// @Produce json
// @Param class_name query string false "Filter by class"
// @Param include_balance query bool false "Include derived balances"
// @Success 200 {object} map[string]interface{} "Student list"
// @Router /students [get]
func (s *StudentService) ListStudents(w http.ResponseWriter, r *http.Request) {
	className := r.URL.Query().Get("class_name")
	includeBalance := r.URL.Query().Get("include_balance") == "true"

	query := `
		SELECT id, username, role, first_name, last_name, class_name, is_active, created_at
		FROM users WHERE role = 'student' AND is_active = TRUE`
	args := []any{}
	if className != "" {
		query += ` AND class_name = $1`
		args = append(args, className)
	}
	query += ` ORDER BY last_name, first_name`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		log.Printf("[STUDENTS] List query failed: %v", err)
		SendErrorResponse(w, "Failed to load students", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	students := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Role, &u.FirstName, &u.LastName,
			&u.ClassName, &u.IsActive, &u.CreatedAt); err != nil {
			SendErrorResponse(w, "Failed to load students", http.StatusInternalServerError, nil)
			return
		}
		students = append(students, u)
	}

	if includeBalance {
		for i := range students {
			balance, err := s.ledger.Balance(students[i].ID)
			if err != nil {
				SendErrorResponse(w, "Failed to load balances", http.StatusInternalServerError, nil)
				return
			}
			students[i].Balance = &balance
		}
	}

	SendJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"students": students,
		"count":    len(students),
	})
}

// GetStudent returns one student with balance
// @Summary Get student
// @Tags students
// @Produce json
// @Param studentId path int true "Student ID"
// @Success 200 {object} map[string]interface{} "Student"
// @Failure 404 {object} ErrorResponse "Student not found"
// @Router /students/{studentId} [get]
func (s *StudentService) GetStudent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "studentId"))
	if err != nil {
		SendErrorResponse(w, "Invalid student id", http.StatusBadRequest, nil)
		return
	}

	student, err := s.fetchStudent(id, true)
	if err != nil {
		SendErrorResponse(w, "Student not found", http.StatusNotFound, nil)
		return
	}

	balance, err := s.ledger.Balance(student.ID)
	if err != nil {
		SendErrorResponse(w, "Failed to load balance", http.StatusInternalServerError, nil)
		return
	}
	student.Balance = &balance

	SendJSON(w, http.StatusOK, map[string]any{"success": true, "student": student})
}

// CreateStudent creates a new student account
// @Summary Create student
// @Description Create a student; the username is derived from the name with a numeric suffix on collision
// @Tags students
// @Accept json
// @Produce json
// @Param request body CreateStudentRequest true "New student"
// @Success 201 {object} map[string]interface{} "Student created"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Router /students [post]
func (s *StudentService) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req CreateStudentRequest
	if err := DecodeJSONBody(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)

	username, err := s.generateUsername(firstName, lastName)
	if err != nil {
		SendErrorResponse(w, "Failed to create student", http.StatusInternalServerError, nil)
		return
	}

	pinHash, err := HashPIN(req.PIN)
	if err != nil {
		SendErrorResponse(w, "Failed to create student", http.StatusInternalServerError, nil)
		return
	}

	var className *string
	if trimmed := strings.TrimSpace(req.ClassName); trimmed != "" {
		className = &trimmed
	}

	var student models.User
	err = s.db.QueryRow(`
		INSERT INTO users (username, pin_hash, role, first_name, last_name, class_name)
		VALUES ($1, $2, 'student', $3, $4, $5)
		RETURNING id, username, role, first_name, last_name, class_name, is_active, created_at`,
		username, pinHash, firstName, lastName, className).Scan(
		&student.ID, &student.Username, &student.Role, &student.FirstName,
		&student.LastName, &student.ClassName, &student.IsActive, &student.CreatedAt)
	if err != nil {
		log.Printf("[STUDENTS] Create failed for %s: %v", username, err)
		SendErrorResponse(w, "Failed to create student", http.StatusInternalServerError, nil)
		return
	}

	zero := 0
	student.Balance = &zero

	log.Printf("[STUDENTS] Created student %d (%s)", student.ID, student.Username)
	SendJSON(w, http.StatusCreated, map[string]any{"success": true, "student": student})
}

// UpdateStudent updates student details
// @Summary Update student
// @Description Update name, class, PIN, or active flag; deactivation is soft
// @Tags students
// @Accept json
// @Produce json
// @Param studentId path int true "Student ID"
// @Param request body UpdateStudentRequest true "Fields to update"
// @Success 200 {object} map[string]interface{} "Updated student"
// @Failure 404 {object} ErrorResponse "Student not found"
// @Router /students/{studentId} [put]
func (s *StudentService) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "studentId"))
	if err != nil {
		SendErrorResponse(w, "Invalid student id", http.StatusBadRequest, nil)
		return
	}

	if _, err := s.fetchStudent(id, false); err != nil {
		SendErrorResponse(w, "Student not found", http.StatusNotFound, nil)
		return
	}

	var req UpdateStudentRequest
	if err := DecodeJSONBody(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	set := []string{}
	args := []any{}
	addSet := func(col string, val any) {
		args = append(args, val)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if req.FirstName != nil && strings.TrimSpace(*req.FirstName) != "" {
		addSet("first_name", strings.TrimSpace(*req.FirstName))
	}
	if req.LastName != nil && strings.TrimSpace(*req.LastName) != "" {
		addSet("last_name", strings.TrimSpace(*req.LastName))
	}
	if req.ClassName != nil {
		trimmed := strings.TrimSpace(*req.ClassName)
		if trimmed == "" {
			addSet("class_name", nil)
		} else {
			addSet("class_name", trimmed)
		}
	}
	if req.PIN != nil && *req.PIN != "" {
		pinHash, err := HashPIN(*req.PIN)
		if err != nil {
			SendErrorResponse(w, "Failed to update student", http.StatusInternalServerError, nil)
			return
		}
		addSet("pin_hash", pinHash)
	}
	if req.IsActive != nil {
		addSet("is_active", *req.IsActive)
	}

	if len(set) > 0 {
		args = append(args, id)
		query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", strings.Join(set, ", "), len(args))
		if _, err := s.db.Exec(query, args...); err != nil {
			log.Printf("[STUDENTS] Update failed for %d: %v", id, err)
			SendErrorResponse(w, "Failed to update student", http.StatusInternalServerError, nil)
			return
		}
	}

	student, err := s.fetchStudent(id, false)
	if err != nil {
		SendErrorResponse(w, "Student not found", http.StatusNotFound, nil)
		return
	}

	balance, err := s.ledger.Balance(student.ID)
	if err != nil {
		SendErrorResponse(w, "Failed to load balance", http.StatusInternalServerError, nil)
		return
	}
	student.Balance = &balance

	SendJSON(w, http.StatusOK, map[string]any{"success": true, "student": student})
}

// ListClasses returns all distinct class names
// @Summary List classes
// @Tags students
// @Produce json
// @Success 200 {object} map[string]interface{} "Class names"
// @Router /students/classes [get]
func (s *StudentService) ListClasses(w http.ResponseWriter, r *http.Request) {
	rows, err := s.db.Query(`
		SELECT DISTINCT class_name FROM users
		WHERE role = 'student' AND is_active = TRUE AND class_name IS NOT NULL
		ORDER BY class_name`)
	if err != nil {
		SendErrorResponse(w, "Failed to load classes", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	classes := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			SendErrorResponse(w, "Failed to load classes", http.StatusInternalServerError, nil)
			return
		}
		classes = append(classes, name)
	}

	SendJSON(w, http.StatusOK, map[string]any{"success": true, "classes": classes})
}

// generateUsername builds "first.last", appending a counter until unique.
func (s *StudentService) generateUsername(firstName, lastName string) (string, error) {
	base := strings.ToLower(firstName) + "." + strings.ToLower(lastName)
	username := base
	counter := 1
	for {
		var exists bool
		if err := s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`,
			username).Scan(&exists); err != nil {
			return "", err
		}
		if !exists {
			return username, nil
		}
		username = fmt.Sprintf("%s%d", base, counter)
		counter++
	}
}

func (s *StudentService) fetchStudent(id int, activeOnly bool) (*models.User, error) {
	query := `
		SELECT id, username, role, first_name, last_name, class_name, is_active, created_at
		FROM users WHERE id = $1 AND role = 'student'`
	if activeOnly {
		query += ` AND is_active = TRUE`
	}

	var u models.User
	err := s.db.QueryRow(query, id).Scan(&u.ID, &u.Username, &u.Role, &u.FirstName,
		&u.LastName, &u.ClassName, &u.IsActive, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrStudentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
