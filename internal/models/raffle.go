package models

import "time"

// RaffleDraw records one raffle conducted at a weekly assembly.
type RaffleDraw struct {
	ID               int       `json:"id" db:"id"`
	DrawDate         time.Time `json:"drawDate" db:"draw_date"`
	WinnerID         int       `json:"winnerId" db:"winner_id"`
	WinnerName       string    `json:"winnerName,omitempty"`
	PrizeAmount      int       `json:"prizeAmount" db:"prize_amount"`
	PrizeDescription *string   `json:"prizeDescription" db:"prize_description"`
	ConductedByID    int       `json:"conductedById" db:"conducted_by_id"`
}
