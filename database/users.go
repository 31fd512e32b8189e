package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Nathansuares/SkySafe/apperr"
	"github.com/Nathansuares/SkySafe/models"
)

// CreateUser inserts an account. The login id is unique; a clash is a Conflict.
func (d *Database) CreateUser(ctx context.Context, u models.User) (int64, error) {
	res, err := d.db.ExecContext(ctx,
		"INSERT INTO users (name, login_id, password_hash, designation, role) VALUES (?, ?, ?, ?, ?)",
		u.Name, u.LoginID, u.PasswordHash, string(u.Designation), string(u.Role))
	if err != nil {
		if isDuplicateKey(err) {
			return 0, apperr.Conflict("Username already exists.")
		}
		return 0, apperr.Storage("Failed to create user.", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, apperr.Storage("Failed to create user.", err)
	}
	return id, nil
}

// GetUserByLoginID returns the account together with its password hash.
func (d *Database) GetUserByLoginID(ctx context.Context, loginID string) (*models.User, error) {
	var u models.User
	var role, designation string
	err := d.db.QueryRowContext(ctx,
		"SELECT user_id, name, login_id, password_hash, role, designation FROM users WHERE login_id = ?",
		loginID).Scan(&u.UserID, &u.Name, &u.LoginID, &u.PasswordHash, &role, &designation)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("User not found.")
	}
	if err != nil {
		return nil, apperr.Storage("Failed to load user.", err)
	}
	u.Role = models.Role(role)
	u.Designation = models.Designation(designation)
	return &u, nil
}
