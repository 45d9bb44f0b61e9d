package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"

	"github.com/dibbydollars/backend/internal/services"
)

func TestCardHandler_GetLoginCard(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	redisClient, redisMock := redismock.NewClientMock()
	handler := NewCardHandler(services.NewCardService(db, redisClient))

	router := chi.NewRouter()
	router.Get("/students/{studentId}/qr", handler.GetLoginCard)

	t.Run("returns the card image", func(t *testing.T) {
		redisMock.ExpectGet("logincard:5").SetVal("cached-card")

		r := httptest.NewRequest("GET", "/students/5/qr", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var response map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Equal(t, "cached-card", response["cardImage"])
	})

	t.Run("unknown student", func(t *testing.T) {
		redisMock.ExpectGet("logincard:999").RedisNil()
		mock.ExpectQuery("SELECT username, first_name, last_name FROM users").
			WithArgs(999).
			WillReturnRows(sqlmock.NewRows([]string{"username", "first_name", "last_name"}))

		r := httptest.NewRequest("GET", "/students/999/qr", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("non-numeric id", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/students/abc/qr", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
