package services

import (
	"database/sql"
	"fmt"
	"strconv"
)

// Well-known configuration keys.
const (
	ConfigInterestRate       = "interest_rate"
	ConfigRafflePrizeDefault = "raffle_prize_default"
	ConfigInterestDay        = "interest_day"
)

// ConfigDefault pairs a fallback value with its description.
type ConfigDefault struct {
	Value       string
	Description string
}

// ConfigDefaults are used when a key has no row in system_config.
var ConfigDefaults = map[string]ConfigDefault{
	ConfigInterestRate:       {"2.0", "Weekly interest rate as percentage"},
	ConfigRafflePrizeDefault: {"50", "Default DB$ prize for raffle winner"},
	ConfigInterestDay:        {"sunday", "Day of week to calculate interest"},
}

// ConfigService reads and writes the key-value system_config relation.
type ConfigService struct {
	db *sql.DB
}

func NewConfigService(db *sql.DB) *ConfigService {
	return &ConfigService{db: db}
}

// Get returns the stored value for key, the registered default when unset,
// or fallback when the key is unknown entirely.
func (s *ConfigService) Get(key, fallback string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM system_config WHERE key = $1`, key).Scan(&value)
	if err == sql.ErrNoRows {
		if def, ok := ConfigDefaults[key]; ok {
			return def.Value, nil
		}
		return fallback, nil
	}
	if err != nil {
		return "", fmt.Errorf("config lookup failed: %w", err)
	}
	return value, nil
}

// Set upserts a config value, filling in the registered description.
func (s *ConfigService) Set(key, value string) error {
	description := sql.NullString{}
	if def, ok := ConfigDefaults[key]; ok {
		description = sql.NullString{String: def.Description, Valid: true}
	}

	_, err := s.db.Exec(`
		INSERT INTO system_config (key, value, description, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = NOW()`,
		key, value, description)
	if err != nil {
		return fmt.Errorf("config update failed: %w", err)
	}
	return nil
}

// GetInterestRate resolves the current weekly interest rate percentage.
// An unparsable stored value falls back to the default rather than failing
// the interest run.
func (s *ConfigService) GetInterestRate() (float64, error) {
	raw, err := s.Get(ConfigInterestRate, ConfigDefaults[ConfigInterestRate].Value)
	if err != nil {
		return 0, err
	}
	rate, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return strconv.ParseFloat(ConfigDefaults[ConfigInterestRate].Value, 64)
	}
	return rate, nil
}
