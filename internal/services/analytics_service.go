package services

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dibbydollars/backend/internal/models"
)

// AnalyticsService serves balances, leaderboards, and usage statistics. All
// aggregates are computed from the ledger on demand; nothing here is cached
// or materialized.
type AnalyticsService struct {
	db     *sql.DB
	ledger *LedgerService
}

// LeaderboardEntry is one row of a leaderboard response.
type LeaderboardEntry struct {
	Rank      int     `json:"rank"`
	UserID    int     `json:"userId"`
	Name      string  `json:"name"`
	ClassName *string `json:"className"`
	Value     int     `json:"value"`
}

func NewAnalyticsService(db *sql.DB, ledger *LedgerService) *AnalyticsService {
	return &AnalyticsService{db: db, ledger: ledger}
}

// MyBalance returns the caller's balance and savings stats
// @Summary My balance
// @Description Current balance, lifetime interest earned, and savings rank for students
// @Tags balance
// @Produce json
// @Success 200 {object} map[string]interface{} "Balance and stats"
// @Router /balance/me [get]
func (s *AnalyticsService) MyBalance(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value("userID").(int)
	role, _ := r.Context().Value("userRole").(string)

	balance, err := s.ledger.Balance(userID)
	if err != nil {
		SendErrorResponse(w, "Failed to load balance", http.StatusInternalServerError, nil)
		return
	}

	interestEarned, err := s.ledger.InterestEarned(userID)
	if err != nil {
		SendErrorResponse(w, "Failed to load interest", http.StatusInternalServerError, nil)
		return
	}

	var rank, totalStudents *int
	if role == models.RoleStudent {
		rank, totalStudents, err = s.savingsRank(userID)
		if err != nil {
			SendErrorResponse(w, "Failed to load rank", http.StatusInternalServerError, nil)
			return
		}
	}

	SendJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"balance":        balance,
		"interestEarned": interestEarned,
		"rank":           rank,
		"totalStudents":  totalStudents,
	})
}

// UserBalance returns a specific user's balance
// @Summary User balance
// @Tags balance
// @Produce json
// @Param userId path int true "User ID"
// @Success 200 {object} map[string]interface{} "Balance and interest earned"
// @Failure 404 {object} ErrorResponse "User not found"
// @Router /balance/{userId} [get]
func (s *AnalyticsService) UserBalance(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(chi.URLParam(r, "userId"))
	if err != nil {
		SendErrorResponse(w, "Invalid user id", http.StatusBadRequest, nil)
		return
	}

	var user models.User
	err = s.db.QueryRow(`
		SELECT id, username, role, first_name, last_name, class_name, is_active, created_at
		FROM users WHERE id = $1`, userID).Scan(&user.ID, &user.Username, &user.Role,
		&user.FirstName, &user.LastName, &user.ClassName, &user.IsActive, &user.CreatedAt)
	if err != nil {
		SendErrorResponse(w, "User not found", http.StatusNotFound, nil)
		return
	}

	balance, err := s.ledger.Balance(userID)
	if err != nil {
		SendErrorResponse(w, "Failed to load balance", http.StatusInternalServerError, nil)
		return
	}

	interestEarned, err := s.ledger.InterestEarned(userID)
	if err != nil {
		SendErrorResponse(w, "Failed to load interest", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"userId":         userID,
		"balance":        balance,
		"interestEarned": interestEarned,
		"user":           user,
	})
}

// Leaderboard returns top savers or earners
// @Summary Leaderboard
// @Description Top savers (by balance) or top earners (positive amounts this week)
// @Tags analytics
// @Produce json
// @Param type query string false "savers (default) or earners"
// @Param limit query int false "Entries (max 50)"
// @Param class_name query string false "Filter by class"
// @Success 200 {object} map[string]interface{} "Leaderboard"
// @Router /analytics/leaderboard [get]
func (s *AnalyticsService) Leaderboard(w http.ResponseWriter, r *http.Request) {
	boardType := r.URL.Query().Get("type")
	if boardType != "earners" {
		boardType = "savers"
	}
	limit := 10
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > 50 {
		limit = 50
	}
	className := r.URL.Query().Get("class_name")

	query := `
		SELECT t.user_id, u.first_name, u.last_name, u.class_name, SUM(t.amount) AS total
		FROM transactions t
		JOIN users u ON u.id = t.user_id
		WHERE u.role = 'student' AND u.is_active = TRUE`
	args := []any{}
	if className != "" {
		args = append(args, className)
		query += ` AND u.class_name = $` + strconv.Itoa(len(args))
	}
	if boardType == "earners" {
		args = append(args, time.Now().AddDate(0, 0, -7))
		query += ` AND t.amount > 0 AND t.created_at >= $` + strconv.Itoa(len(args))
	}
	args = append(args, limit)
	query += `
		GROUP BY t.user_id, u.first_name, u.last_name, u.class_name
		ORDER BY total DESC
		LIMIT $` + strconv.Itoa(len(args))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		SendErrorResponse(w, "Failed to load leaderboard", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	leaderboard := []LeaderboardEntry{}
	rank := 1
	for rows.Next() {
		var entry LeaderboardEntry
		var firstName, lastName string
		if err := rows.Scan(&entry.UserID, &firstName, &lastName, &entry.ClassName, &entry.Value); err != nil {
			SendErrorResponse(w, "Failed to load leaderboard", http.StatusInternalServerError, nil)
			return
		}
		entry.Rank = rank
		entry.Name = firstName + " " + lastName
		leaderboard = append(leaderboard, entry)
		rank++
	}

	SendJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"leaderboard": leaderboard,
		"type":        boardType,
	})
}

// BehaviorBreakdown returns award counts per behavior category
// @Summary Behavior breakdown
// @Description Which behaviors earned awards over the last N days; uncategorized bucketed as Other
// @Tags analytics
// @Produce json
// @Param days query int false "Window in days (default 30)"
// @Success 200 {object} map[string]interface{} "Breakdown"
// @Router /analytics/behavior-breakdown [get]
func (s *AnalyticsService) BehaviorBreakdown(w http.ResponseWriter, r *http.Request) {
	days := 30
	if v, err := strconv.Atoi(r.URL.Query().Get("days")); err == nil && v > 0 {
		days = v
	}
	since := time.Now().AddDate(0, 0, -days)

	rows, err := s.db.Query(`
		SELECT fb.name, COUNT(t.id)
		FROM transactions t
		JOIN focus_behaviors fb ON fb.id = t.category_id
		WHERE t.type = $1 AND t.created_at >= $2
		GROUP BY fb.name
		ORDER BY COUNT(t.id) DESC`, models.TxAward, since)
	if err != nil {
		SendErrorResponse(w, "Failed to load breakdown", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	type bucket struct {
		Behavior string `json:"behavior"`
		Count    int    `json:"count"`
	}
	breakdown := []bucket{}
	for rows.Next() {
		var b bucket
		if err := rows.Scan(&b.Behavior, &b.Count); err != nil {
			SendErrorResponse(w, "Failed to load breakdown", http.StatusInternalServerError, nil)
			return
		}
		breakdown = append(breakdown, b)
	}

	var uncategorized int
	err = s.db.QueryRow(`
		SELECT COUNT(*) FROM transactions
		WHERE type = $1 AND category_id IS NULL AND created_at >= $2`,
		models.TxAward, since).Scan(&uncategorized)
	if err != nil {
		SendErrorResponse(w, "Failed to load breakdown", http.StatusInternalServerError, nil)
		return
	}
	if uncategorized > 0 {
		breakdown = append(breakdown, bucket{Behavior: "Other", Count: uncategorized})
	}

	SendJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"breakdown": breakdown,
		"days":      days,
	})
}

// SystemStats returns overall system statistics
// @Summary System stats
// @Tags analytics
// @Produce json
// @Success 200 {object} map[string]interface{} "System statistics"
// @Router /analytics/system-stats [get]
func (s *AnalyticsService) SystemStats(w http.ResponseWriter, r *http.Request) {
	var totalStudents int
	if err := s.db.QueryRow(`
		SELECT COUNT(*) FROM users WHERE role = 'student' AND is_active = TRUE`).Scan(&totalStudents); err != nil {
		SendErrorResponse(w, "Failed to load stats", http.StatusInternalServerError, nil)
		return
	}

	var totalCirculation int
	if err := s.db.QueryRow(`
		SELECT COALESCE(SUM(amount), 0) FROM transactions`).Scan(&totalCirculation); err != nil {
		SendErrorResponse(w, "Failed to load stats", http.StatusInternalServerError, nil)
		return
	}

	dayStart := time.Now().Truncate(24 * time.Hour)
	var transactionsToday int
	if err := s.db.QueryRow(`
		SELECT COUNT(*) FROM transactions WHERE created_at >= $1`, dayStart).Scan(&transactionsToday); err != nil {
		SendErrorResponse(w, "Failed to load stats", http.StatusInternalServerError, nil)
		return
	}

	var totalInterest int
	if err := s.db.QueryRow(`
		SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE type = $1`,
		models.TxInterest).Scan(&totalInterest); err != nil {
		SendErrorResponse(w, "Failed to load stats", http.StatusInternalServerError, nil)
		return
	}

	classCounts := map[string]int{}
	rows, err := s.db.Query(`
		SELECT class_name, COUNT(*) FROM users
		WHERE role = 'student' AND is_active = TRUE AND class_name IS NOT NULL
		GROUP BY class_name`)
	if err != nil {
		SendErrorResponse(w, "Failed to load stats", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			SendErrorResponse(w, "Failed to load stats", http.StatusInternalServerError, nil)
			return
		}
		classCounts[name] = count
	}

	SendJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"stats": map[string]any{
			"totalStudents":            totalStudents,
			"totalCirculation":         totalCirculation,
			"transactionsToday":        transactionsToday,
			"totalInterestDistributed": totalInterest,
			"classCounts":              classCounts,
		},
	})
}

// savingsRank computes the caller's position among active students by balance.
func (s *AnalyticsService) savingsRank(userID int) (*int, *int, error) {
	rows, err := s.db.Query(`
		SELECT t.user_id, SUM(t.amount) AS balance
		FROM transactions t
		JOIN users u ON u.id = t.user_id
		WHERE u.role = 'student' AND u.is_active = TRUE
		GROUP BY t.user_id
		ORDER BY balance DESC`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	total := 0
	var rank *int
	for rows.Next() {
		var id, balance int
		if err := rows.Scan(&id, &balance); err != nil {
			return nil, nil, err
		}
		total++
		if id == userID && rank == nil {
			r := total
			rank = &r
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return rank, &total, nil
}
