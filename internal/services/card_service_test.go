package services

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
)

func TestCardService_GenerateLoginCard(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	t.Run("renders a base64 png", func(t *testing.T) {
		redisClient, redisMock := redismock.NewClientMock()
		service := NewCardService(db, redisClient)

		redisMock.ExpectGet("logincard:5").RedisNil()

		mock.ExpectQuery("SELECT username, first_name, last_name FROM users").
			WithArgs(5).
			WillReturnRows(sqlmock.NewRows([]string{"username", "first_name", "last_name"}).
				AddRow("amy.pond", "Amy", "Pond"))

		redisMock.Regexp().ExpectSet("logincard:5", `.+`, time.Hour).SetVal("OK")

		card, err := service.GenerateLoginCard(context.Background(), 5)
		assert.NoError(t, err)
		assert.NotEmpty(t, card)

		raw, err := base64.StdEncoding.DecodeString(card)
		assert.NoError(t, err)
		// PNG magic bytes.
		assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, raw[:4])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("served from cache without a db hit", func(t *testing.T) {
		redisClient, redisMock := redismock.NewClientMock()
		service := NewCardService(db, redisClient)

		redisMock.ExpectGet("logincard:5").SetVal("cached-card")

		card, err := service.GenerateLoginCard(context.Background(), 5)
		assert.NoError(t, err)
		assert.Equal(t, "cached-card", card)
	})

	t.Run("unknown or inactive student", func(t *testing.T) {
		redisClient, redisMock := redismock.NewClientMock()
		service := NewCardService(db, redisClient)

		redisMock.ExpectGet("logincard:999").RedisNil()

		mock.ExpectQuery("SELECT username, first_name, last_name FROM users").
			WithArgs(999).
			WillReturnRows(sqlmock.NewRows([]string{"username", "first_name", "last_name"}))

		_, err := service.GenerateLoginCard(context.Background(), 999)
		assert.ErrorIs(t, err, ErrStudentNotFound)
	})
}
