package services

import (
	"database/sql"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-redis/redis/v8"

	"github.com/dibbydollars/backend/internal/models"
)

// TransactionService exposes the award, deposit, and history operations over
// the ledger. Business rules live here, not in the ledger: awards are always
// exactly 1 DB$, deposits must be positive integers.
type TransactionService struct {
	db        *sql.DB
	redis     *redis.Client
	ledger    *LedgerService
	validator *ValidationHelper
}

// AwardRequest represents the award request payload
// @Description Award request; awards are always exactly 1 DB$
type AwardRequest struct {
	StudentID  int    `json:"studentId" validate:"required" example:"123"` // Target student
	BehaviorID *int   `json:"behaviorId" example:"1"`                      // Optional focus behavior
	Notes      string `json:"notes" example:"Great teamwork!"`             // Optional note
}

// DepositRequest represents the deposit request payload
// @Description Deposit of physical DB$ tokens
type DepositRequest struct {
	StudentID int    `json:"studentId" validate:"required" example:"123"`   // Target student
	Amount    int    `json:"amount" validate:"required,gt=0" example:"5"`   // Token count
	Notes     string `json:"notes" example:"Weekly token deposit"`          // Optional note
}

func NewTransactionService(db *sql.DB, redisClient *redis.Client, ledger *LedgerService) *TransactionService {
	return &TransactionService{
		db:        db,
		redis:     redisClient,
		ledger:    ledger,
		validator: NewValidationHelper(),
	}
}

// Award credits 1 DB$ to a student
// @Summary Award 1 DB$
// @Description Award exactly 1 DB$ to a student for positive behavior
// @Tags transactions
// @Accept json
// @Produce json
// @Param request body AwardRequest true "Award request"
// @Success 201 {object} map[string]interface{} "Award created"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 404 {object} ErrorResponse "Student not found"
// @Router /transactions/award [post]
func (ts *TransactionService) Award(w http.ResponseWriter, r *http.Request) {
	var req AwardRequest
	if err := DecodeJSONBody(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := ts.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	student, err := ts.activeStudent(req.StudentID)
	if err != nil {
		SendErrorResponse(w, "Student not found", http.StatusNotFound, nil)
		return
	}

	if req.BehaviorID != nil {
		var exists bool
		if err := ts.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM focus_behaviors WHERE id = $1)`,
			*req.BehaviorID).Scan(&exists); err != nil || !exists {
			SendErrorResponse(w, "Behavior not found", http.StatusNotFound, nil)
			return
		}
	}

	creatorID, _ := r.Context().Value("userID").(int)

	// Awards are ALWAYS exactly 1 DB$.
	tx, err := ts.ledger.Append(student.ID, 1, models.TxAward, req.BehaviorID, trimNotes(req.Notes), &creatorID)
	if err != nil {
		log.Printf("[TRANSACTION] Award failed for student %d: %v", student.ID, err)
		SendErrorResponse(w, "Failed to record award", http.StatusInternalServerError, nil)
		return
	}

	balance, err := ts.ledger.Balance(student.ID)
	if err != nil {
		SendErrorResponse(w, "Failed to read balance", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[TRANSACTION] Award: 1 DB$ to student %d by user %d", student.ID, creatorID)
	SendJSON(w, http.StatusCreated, map[string]any{
		"success":     true,
		"transaction": tx,
		"newBalance":  balance,
	})
}

// Deposit credits cashed-in physical tokens to a student
// @Summary Deposit tokens
// @Description Deposit physical DB$ tokens into a student's account
// @Tags transactions
// @Accept json
// @Produce json
// @Param request body DepositRequest true "Deposit request"
// @Success 201 {object} map[string]interface{} "Deposit created"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 404 {object} ErrorResponse "Student not found"
// @Router /transactions/deposit [post]
func (ts *TransactionService) Deposit(w http.ResponseWriter, r *http.Request) {
	var req DepositRequest
	if err := DecodeJSONBody(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := ts.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Amount must be a positive integer", http.StatusBadRequest, err)
		return
	}

	student, err := ts.activeStudent(req.StudentID)
	if err != nil {
		SendErrorResponse(w, "Student not found", http.StatusNotFound, nil)
		return
	}

	creatorID, _ := r.Context().Value("userID").(int)

	tx, err := ts.ledger.Append(student.ID, req.Amount, models.TxDeposit, nil, trimNotes(req.Notes), &creatorID)
	if err != nil {
		log.Printf("[TRANSACTION] Deposit failed for student %d: %v", student.ID, err)
		SendErrorResponse(w, "Failed to record deposit", http.StatusInternalServerError, nil)
		return
	}

	balance, err := ts.ledger.Balance(student.ID)
	if err != nil {
		SendErrorResponse(w, "Failed to read balance", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[TRANSACTION] Deposit: %d DB$ to student %d by user %d", req.Amount, student.ID, creatorID)
	SendJSON(w, http.StatusCreated, map[string]any{
		"success":     true,
		"transaction": tx,
		"newBalance":  balance,
	})
}

// ListTransactions returns transaction history
// @Summary List transactions
// @Description Paginated transaction history; students only see their own
// @Tags transactions
// @Produce json
// @Param user_id query int false "Filter by user (teachers only)"
// @Param type query string false "Filter by transaction type"
// @Param limit query int false "Page size (max 200)"
// @Param offset query int false "Pagination offset"
// @Success 200 {object} map[string]interface{} "Transaction list"
// @Router /transactions [get]
func (ts *TransactionService) ListTransactions(w http.ResponseWriter, r *http.Request) {
	currentID, _ := r.Context().Value("userID").(int)
	role, _ := r.Context().Value("userRole").(string)

	userID, _ := strconv.Atoi(r.URL.Query().Get("user_id"))
	txType := r.URL.Query().Get("type")

	limit := 50
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > 200 {
		limit = 200
	}
	offset := 0
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}

	// Students can only see their own history.
	if role == models.RoleStudent {
		userID = currentID
	}

	where := []string{"1=1"}
	args := []any{}
	if userID > 0 {
		args = append(args, userID)
		where = append(where, "t.user_id = $"+strconv.Itoa(len(args)))
	}
	if models.ValidTxType(txType) {
		args = append(args, txType)
		where = append(where, "t.type = $"+strconv.Itoa(len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := ts.db.QueryRow(`SELECT COUNT(*) FROM transactions t WHERE `+cond, args...).Scan(&total); err != nil {
		log.Printf("[TRANSACTION] History count failed: %v", err)
		SendErrorResponse(w, "Failed to load transactions", http.StatusInternalServerError, nil)
		return
	}

	args = append(args, limit, offset)
	query := `
		SELECT t.id, t.user_id, t.amount, t.type, t.category_id, fb.name, t.notes, t.created_at, t.created_by_id
		FROM transactions t
		LEFT JOIN focus_behaviors fb ON fb.id = t.category_id
		WHERE ` + cond + `
		ORDER BY t.created_at DESC
		LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := ts.db.Query(query, args...)
	if err != nil {
		log.Printf("[TRANSACTION] History query failed: %v", err)
		SendErrorResponse(w, "Failed to load transactions", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		var tx models.Transaction
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Amount, &tx.Type, &tx.CategoryID,
			&tx.CategoryName, &tx.Notes, &tx.CreatedAt, &tx.CreatedByID); err != nil {
			SendErrorResponse(w, "Failed to load transactions", http.StatusInternalServerError, nil)
			return
		}
		transactions = append(transactions, tx)
	}

	SendJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"transactions": transactions,
		"total":        total,
		"limit":        limit,
		"offset":       offset,
	})
}

func (ts *TransactionService) activeStudent(id int) (*models.User, error) {
	var student models.User
	err := ts.db.QueryRow(`
		SELECT id, username, first_name, last_name FROM users
		WHERE id = $1 AND role = 'student' AND is_active = TRUE`,
		id).Scan(&student.ID, &student.Username, &student.FirstName, &student.LastName)
	if err == sql.ErrNoRows {
		return nil, ErrStudentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func trimNotes(notes string) *string {
	trimmed := strings.TrimSpace(notes)
	if trimmed == "" {
		return nil
	}
	if len(trimmed) > 255 {
		trimmed = trimmed[:255]
	}
	return &trimmed
}
