package services

import (
	"database/sql"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strconv"
	"strings"

	"github.com/dibbydollars/backend/internal/models"
)

// RaffleService conducts assembly raffle draws: a uniform random pick among
// active students, recorded together with the prize ledger entry in a single
// database transaction.
type RaffleService struct {
	db        *sql.DB
	ledger    *LedgerService
	snapshots *SnapshotService
	config    *ConfigService
}

// DrawRequest represents the raffle draw payload
type DrawRequest struct {
	PrizeAmount      *int   `json:"prizeAmount" example:"50"` // nil = configured default
	PrizeDescription string `json:"prizeDescription" example:"Weekly Assembly Jackpot"`
}

func NewRaffleService(db *sql.DB, ledger *LedgerService, snapshots *SnapshotService, config *ConfigService) *RaffleService {
	return &RaffleService{
		db:        db,
		ledger:    ledger,
		snapshots: snapshots,
		config:    config,
	}
}

// ConductDraw runs a raffle draw
// @Summary Conduct raffle draw
// @Description Randomly select a winner from all active students and credit the prize
// @Tags raffle
// @Accept json
// @Produce json
// @Param request body DrawRequest true "Draw options"
// @Success 201 {object} map[string]interface{} "Draw result"
// @Failure 400 {object} ErrorResponse "No students or invalid prize"
// @Router /raffle/draw [post]
func (s *RaffleService) ConductDraw(w http.ResponseWriter, r *http.Request) {
	var req DrawRequest
	if err := DecodeJSONBody(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	prizeAmount := 0
	if req.PrizeAmount != nil {
		prizeAmount = *req.PrizeAmount
	} else {
		raw, err := s.config.Get(ConfigRafflePrizeDefault, ConfigDefaults[ConfigRafflePrizeDefault].Value)
		if err != nil {
			SendErrorResponse(w, "Failed to load prize default", http.StatusInternalServerError, nil)
			return
		}
		prizeAmount, _ = strconv.Atoi(raw)
	}

	if prizeAmount <= 0 {
		SendErrorResponse(w, "Prize amount must be a positive integer", http.StatusBadRequest, nil)
		return
	}

	prizeDescription := strings.TrimSpace(req.PrizeDescription)
	if prizeDescription == "" {
		prizeDescription = "Raffle Prize"
	}
	if len(prizeDescription) > 255 {
		prizeDescription = prizeDescription[:255]
	}

	students, err := s.snapshots.ListActiveStudentIDs()
	if err != nil {
		SendErrorResponse(w, "Failed to load students", http.StatusInternalServerError, nil)
		return
	}
	if len(students) == 0 {
		SendErrorResponse(w, "No active students to draw from", http.StatusBadRequest, nil)
		return
	}

	winnerID := students[rand.Intn(len(students))]
	conductorID, _ := r.Context().Value("userID").(int)

	tx, err := s.db.Begin()
	if err != nil {
		SendErrorResponse(w, "Failed to conduct draw", http.StatusInternalServerError, nil)
		return
	}
	defer tx.Rollback()

	draw := models.RaffleDraw{
		WinnerID:         winnerID,
		PrizeAmount:      prizeAmount,
		PrizeDescription: &prizeDescription,
		ConductedByID:    conductorID,
	}
	err = tx.QueryRow(`
		INSERT INTO raffle_draws (winner_id, prize_amount, prize_description, conducted_by_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, draw_date`,
		winnerID, prizeAmount, prizeDescription, conductorID).Scan(&draw.ID, &draw.DrawDate)
	if err != nil {
		log.Printf("[RAFFLE] Draw insert failed: %v", err)
		SendErrorResponse(w, "Failed to conduct draw", http.StatusInternalServerError, nil)
		return
	}

	notes := fmt.Sprintf("Raffle: %s", prizeDescription)
	prizeTx, err := s.ledger.AppendTx(tx, winnerID, prizeAmount, models.TxRaffle, nil, &notes, &conductorID)
	if err != nil {
		log.Printf("[RAFFLE] Prize ledger append failed: %v", err)
		SendErrorResponse(w, "Failed to conduct draw", http.StatusInternalServerError, nil)
		return
	}

	if err := tx.Commit(); err != nil {
		SendErrorResponse(w, "Failed to conduct draw", http.StatusInternalServerError, nil)
		return
	}

	var winner models.User
	err = s.db.QueryRow(`
		SELECT id, username, role, first_name, last_name, class_name, is_active, created_at
		FROM users WHERE id = $1`, winnerID).Scan(&winner.ID, &winner.Username, &winner.Role,
		&winner.FirstName, &winner.LastName, &winner.ClassName, &winner.IsActive, &winner.CreatedAt)
	if err != nil {
		SendErrorResponse(w, "Failed to load winner", http.StatusInternalServerError, nil)
		return
	}

	// Balance re-derived after commit so the response shows the prize.
	balance, err := s.ledger.Balance(winnerID)
	if err != nil {
		SendErrorResponse(w, "Failed to load winner balance", http.StatusInternalServerError, nil)
		return
	}
	winner.Balance = &balance
	draw.WinnerName = winner.FullName()

	log.Printf("[RAFFLE] Draw %d: %s won %d DB$", draw.ID, draw.WinnerName, prizeAmount)
	SendJSON(w, http.StatusCreated, map[string]any{
		"success":     true,
		"raffle":      draw,
		"winner":      winner,
		"transaction": prizeTx,
	})
}

// ListDraws returns raffle history
// @Summary Raffle history
// @Tags raffle
// @Produce json
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Pagination offset"
// @Success 200 {object} map[string]interface{} "Draw history"
// @Router /raffle/history [get]
func (s *RaffleService) ListDraws(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > 100 {
		limit = 100
	}
	offset := 0
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM raffle_draws`).Scan(&total); err != nil {
		SendErrorResponse(w, "Failed to load raffle history", http.StatusInternalServerError, nil)
		return
	}

	rows, err := s.db.Query(`
		SELECT rd.id, rd.draw_date, rd.winner_id, u.first_name, u.last_name,
		       rd.prize_amount, rd.prize_description, rd.conducted_by_id
		FROM raffle_draws rd
		JOIN users u ON u.id = rd.winner_id
		ORDER BY rd.draw_date DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		SendErrorResponse(w, "Failed to load raffle history", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	draws := []models.RaffleDraw{}
	for rows.Next() {
		var d models.RaffleDraw
		var firstName, lastName string
		if err := rows.Scan(&d.ID, &d.DrawDate, &d.WinnerID, &firstName, &lastName,
			&d.PrizeAmount, &d.PrizeDescription, &d.ConductedByID); err != nil {
			SendErrorResponse(w, "Failed to load raffle history", http.StatusInternalServerError, nil)
			return
		}
		d.WinnerName = firstName + " " + lastName
		draws = append(draws, d)
	}

	SendJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"draws":   draws,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}
