package repository

import (
	"database/sql"
	"fmt"

	"BeatWave/db"
	"BeatWave/model"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	CreateUser(user *model.User) (int64, error)
	DeleteUser(id int64) error
	GetUserByID(id int64) (*model.User, error)
	GetUserByUsername(username string) (*model.User, error)
	GetUserByEmail(email string) (*model.User, error)
}

// mysqlUserRepository implements UserRepository for MySQL.
type mysqlUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new mysqlUserRepository.
func NewMySQLUserRepository(sqlDB *sql.DB) UserRepository {
	if sqlDB == nil {
		sqlDB = db.DB
	}
	return &mysqlUserRepository{db: sqlDB}
}

// CreateUser adds a new user to the database.
func (r *mysqlUserRepository) CreateUser(user *model.User) (int64, error) {
	query := "INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)"
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare create user statement: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.Exec(user.Username, user.Email, user.PasswordHash)
	if err != nil {
		return 0, fmt.Errorf("failed to execute create user statement: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for user: %w", err)
	}
	return id, nil
}

// DeleteUser removes a user. Only used to roll back a registration whose
// profile insert failed; beats cascade on the foreign key.
func (r *mysqlUserRepository) DeleteUser(id int64) error {
	if _, err := r.db.Exec("DELETE FROM users WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete user %d: %w", id, err)
	}
	return nil
}

const userColumns = "id, username, email, password_hash, created_at, updated_at"

// GetUserByID retrieves a user by their ID. Returns (nil, nil) when absent.
func (r *mysqlUserRepository) GetUserByID(id int64) (*model.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = ?"
	return r.scanUserRow(r.db.QueryRow(query, id), fmt.Sprintf("ID %d", id))
}

// GetUserByUsername retrieves a user by username.
func (r *mysqlUserRepository) GetUserByUsername(username string) (*model.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE username = ?"
	return r.scanUserRow(r.db.QueryRow(query, username), "username "+username)
}

// GetUserByEmail retrieves a user by email.
func (r *mysqlUserRepository) GetUserByEmail(email string) (*model.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE email = ?"
	return r.scanUserRow(r.db.QueryRow(query, email), "email "+email)
}

func (r *mysqlUserRepository) scanUserRow(row *sql.Row, desc string) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // user not found
		}
		return nil, fmt.Errorf("failed to scan user row for %s: %w", desc, err)
	}
	return user, nil
}
