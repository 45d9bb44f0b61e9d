package services

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/dibbydollars/backend/internal/models"
)

func TestRaffleService_ConductDraw(t *testing.T) {
	t.Run("single eligible student wins", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		ledger := NewLedgerService(db)
		service := NewRaffleService(db, ledger, NewSnapshotService(db, ledger), NewConfigService(db))

		// One active student makes the random pick deterministic.
		mock.ExpectQuery(`SELECT id FROM users WHERE role = 'student' AND is_active = TRUE ORDER BY id`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO raffle_draws").
			WithArgs(5, 50, "Weekly Jackpot", 2).
			WillReturnRows(sqlmock.NewRows([]string{"id", "draw_date"}).AddRow(1, time.Now()))

		mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM users WHERE id = \$1\)`).
			WithArgs(5).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectQuery("INSERT INTO transactions").
			WithArgs(5, 50, models.TxRaffle, nil, "Raffle: Weekly Jackpot", 2).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(9, time.Now()))
		mock.ExpectCommit()

		mock.ExpectQuery("SELECT id, username, role").
			WithArgs(5).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "username", "role", "first_name", "last_name", "class_name", "is_active", "created_at",
			}).AddRow(5, "amy.pond", "student", "Amy", "Pond", "5B", true, time.Now()))

		mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM transactions WHERE user_id = \$1`).
			WithArgs(5).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(70))

		prize := 50
		body, _ := json.Marshal(DrawRequest{PrizeAmount: &prize, PrizeDescription: "Weekly Jackpot"})
		r := httptest.NewRequest("POST", "/raffle/draw", bytes.NewBuffer(body))
		r = r.WithContext(context.WithValue(r.Context(), "userID", 2))
		w := httptest.NewRecorder()

		service.ConductDraw(w, r)

		assert.Equal(t, http.StatusCreated, w.Code)
		var response map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &response)
		winner := response["winner"].(map[string]interface{})
		assert.Equal(t, float64(70), winner["balance"])
		raffle := response["raffle"].(map[string]interface{})
		assert.Equal(t, "Amy Pond", raffle["winnerName"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no active students", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		ledger := NewLedgerService(db)
		service := NewRaffleService(db, ledger, NewSnapshotService(db, ledger), NewConfigService(db))

		mock.ExpectQuery(`SELECT id FROM users WHERE role = 'student' AND is_active = TRUE ORDER BY id`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		prize := 50
		body, _ := json.Marshal(DrawRequest{PrizeAmount: &prize})
		r := httptest.NewRequest("POST", "/raffle/draw", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.ConductDraw(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("non-positive prize rejected", func(t *testing.T) {
		db, _, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		ledger := NewLedgerService(db)
		service := NewRaffleService(db, ledger, NewSnapshotService(db, ledger), NewConfigService(db))

		prize := 0
		body, _ := json.Marshal(DrawRequest{PrizeAmount: &prize})
		r := httptest.NewRequest("POST", "/raffle/draw", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.ConductDraw(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("prize defaults from config", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		ledger := NewLedgerService(db)
		service := NewRaffleService(db, ledger, NewSnapshotService(db, ledger), NewConfigService(db))

		mock.ExpectQuery(`SELECT value FROM system_config WHERE key = \$1`).
			WithArgs(ConfigRafflePrizeDefault).
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("25"))

		mock.ExpectQuery(`SELECT id FROM users WHERE role = 'student' AND is_active = TRUE ORDER BY id`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO raffle_draws").
			WithArgs(5, 25, "Raffle Prize", 2).
			WillReturnRows(sqlmock.NewRows([]string{"id", "draw_date"}).AddRow(2, time.Now()))

		mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM users WHERE id = \$1\)`).
			WithArgs(5).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectQuery("INSERT INTO transactions").
			WithArgs(5, 25, models.TxRaffle, nil, "Raffle: Raffle Prize", 2).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(10, time.Now()))
		mock.ExpectCommit()

		mock.ExpectQuery("SELECT id, username, role").
			WithArgs(5).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "username", "role", "first_name", "last_name", "class_name", "is_active", "created_at",
			}).AddRow(5, "amy.pond", "student", "Amy", "Pond", "5B", true, time.Now()))

		mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM transactions WHERE user_id = \$1`).
			WithArgs(5).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(25))

		r := httptest.NewRequest("POST", "/raffle/draw", bytes.NewBufferString(`{}`))
		r = r.WithContext(context.WithValue(r.Context(), "userID", 2))
		w := httptest.NewRecorder()

		service.ConductDraw(w, r)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRaffleService_ListDraws(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ledger := NewLedgerService(db)
	service := NewRaffleService(db, ledger, NewSnapshotService(db, ledger), NewConfigService(db))

	t.Run("paginated history with winner names", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM raffle_draws`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		mock.ExpectQuery("SELECT rd.id, rd.draw_date, rd.winner_id").
			WithArgs(20, 0).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "draw_date", "winner_id", "first_name", "last_name",
				"prize_amount", "prize_description", "conducted_by_id",
			}).AddRow(1, time.Now(), 5, "Amy", "Pond", 50, "Weekly Jackpot", 2))

		r := httptest.NewRequest("GET", "/raffle/history", nil)
		w := httptest.NewRecorder()

		service.ListDraws(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var response map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &response)
		draws := response["draws"].([]interface{})
		assert.Len(t, draws, 1)
		assert.Equal(t, "Amy Pond", draws[0].(map[string]interface{})["winnerName"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("limit capped at 100", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM raffle_draws`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		mock.ExpectQuery("SELECT rd.id, rd.draw_date, rd.winner_id").
			WithArgs(100, 0).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "draw_date", "winner_id", "first_name", "last_name",
				"prize_amount", "prize_description", "conducted_by_id",
			}))

		r := httptest.NewRequest("GET", "/raffle/history?limit=900", nil)
		w := httptest.NewRecorder()

		service.ListDraws(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
