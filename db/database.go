package db

import (
	"database/sql"
	"fmt"
	"log"

	"BeatWave/config"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

var DB *sql.DB

// ConnectDB establishes a connection to the database.
func ConnectDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to the database.")
	return nil
}

// InitDB initializes the database schema, creating tables if they don't exist.
// Blob size ceilings are deliberately NOT expressed here; the submission
// validator rejects oversized payloads before any insert is attempted.
func InitDB() error {
	if err := createUsersTable(); err != nil {
		return err
	}
	if err := createBeatsTable(); err != nil {
		return err
	}

	log.Println("Database initialization completed.")
	return nil
}

func createUsersTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id INT AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(100) NOT NULL UNIQUE,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	);
	`
	_, err := DB.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	log.Println("Users table initialized successfully (or already exists).")
	return nil
}

func createBeatsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS beats (
		id INT AUTO_INCREMENT PRIMARY KEY,
		producer_id INT NOT NULL,
		title VARCHAR(255) NOT NULL,
		audio_path VARCHAR(767) NOT NULL,
		cover_path VARCHAR(767),
		price DECIMAL(10,2) NOT NULL DEFAULT 0,
		genre VARCHAR(50) NOT NULL,
		bpm INT NOT NULL,
		description TEXT,
		tags JSON,
		free_download TINYINT(1) NOT NULL DEFAULT 0,
		play_count BIGINT NOT NULL DEFAULT 0,
		is_featured TINYINT(1) NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT fk_producer_beats FOREIGN KEY (producer_id) REFERENCES users(id) ON DELETE CASCADE,
		INDEX idx_beats_genre (genre),
		INDEX idx_beats_producer (producer_id),
		INDEX idx_beats_featured (is_featured)
	);
	`
	_, err := DB.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create beats table: %w", err)
	}
	log.Println("Beats table initialized successfully (or already exists).")
	return nil
}
