package store

import "database/sql"

// Well-known settings keys for the advisory configuration.
const (
	SettingAPIKey = "api_key"
	SettingModel  = "model"
)

// SetSetting upserts a key-value pair in the settings table.
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	return err
}

// Setting returns the value for a settings key.
// Returns empty string and nil error if the key is missing.
func (s *Store) Setting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}
