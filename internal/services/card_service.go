package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/skip2/go-qrcode"
)

// CardService renders printable login QR cards for students. The card encodes
// the username so the classroom tablet can prefill the login form from a scan;
// the PIN is still typed by the student.
type CardService struct {
	db    *sql.DB
	redis *redis.Client
}

func NewCardService(db *sql.DB, redisClient *redis.Client) *CardService {
	return &CardService{db: db, redis: redisClient}
}

type loginCardPayload struct {
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// GenerateLoginCard returns a base64 PNG QR card for the student. Rendered
// cards are cached in Redis for an hour since class sets are printed in bulk.
func (s *CardService) GenerateLoginCard(ctx context.Context, studentID int) (string, error) {
	cacheKey := fmt.Sprintf("logincard:%d", studentID)
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			return cached, nil
		}
	}

	var payload loginCardPayload
	err := s.db.QueryRow(`
		SELECT username, first_name, last_name FROM users
		WHERE id = $1 AND role = 'student' AND is_active = TRUE`,
		studentID).Scan(&payload.Username, &payload.FirstName, &payload.LastName)
	if err == sql.ErrNoRows {
		return "", ErrStudentNotFound
	}
	if err != nil {
		return "", err
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	qr, err := qrcode.New(string(jsonData), qrcode.Medium)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(256)); err != nil {
		return "", err
	}

	cardImage := base64.StdEncoding.EncodeToString(buf.Bytes())

	if s.redis != nil {
		s.redis.Set(ctx, cacheKey, cardImage, time.Hour)
	}

	return cardImage, nil
}
