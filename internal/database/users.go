package database

import (
	"context"
	"time"

	"github.com/MK-codes365/greenwipe/internal/database/models"
)

// User operations

// CreateUser creates a new user
func (d *Database) CreateUser(ctx context.Context, user *models.User) error {
	query := d.rebind(`INSERT INTO users (id, username, password_hash, role, created_at)
	          VALUES (?, ?, ?, ?, ?)`)

	_, err := d.db.ExecContext(ctx, query, user.ID, user.Username, user.PasswordHash, user.Role, user.CreatedAt)
	return err
}

// GetUserByUsername retrieves a user by username
func (d *Database) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := d.rebind(`SELECT id, username, password_hash, role, created_at FROM users WHERE username = ?`)

	var user models.User
	err := d.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID, &user.Username, &user.PasswordHash, &user.Role, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// IsSetupComplete checks if initial setup has been completed
func (d *Database) IsSetupComplete(ctx context.Context) (bool, error) {
	var count int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// System config operations

// SetSystemConfig sets a system configuration value
func (d *Database) SetSystemConfig(ctx context.Context, key, value string) error {
	query := `INSERT OR REPLACE INTO system_config (key, value, updated_at) VALUES (?, ?, ?)`
	if d.dbType == "postgres" {
		query = `INSERT INTO system_config (key, value, updated_at)
		         VALUES ($1, $2, $3)
		         ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = $3`
	}

	_, err := d.db.ExecContext(ctx, query, key, value, time.Now().UTC())
	return err
}

// GetSystemConfig retrieves a system configuration value
func (d *Database) GetSystemConfig(ctx context.Context, key string) (string, error) {
	query := d.rebind(`SELECT value FROM system_config WHERE key = ?`)

	var value string
	if err := d.db.QueryRowContext(ctx, query, key).Scan(&value); err != nil {
		return "", err
	}
	return value, nil
}
