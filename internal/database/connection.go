package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DB is the global database connection
var DB *sqlx.DB

// Type returns the configured database type ("sqlite" or "postgres").
func Type() string {
	dbType := os.Getenv("DB_TYPE")
	if dbType == "" {
		return "sqlite"
	}
	return dbType
}

// Connect establishes a connection to the database
func Connect() error {
	var db *sqlx.DB
	var err error

	if Type() == "postgres" {
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			return fmt.Errorf("DATABASE_URL environment variable is not set")
		}
		db, err = sqlx.Connect("postgres", dsn)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(5)
	} else {
		dbPath := os.Getenv("DB_PATH")
		if dbPath == "" {
			dataDir := "data"
			if err := os.MkdirAll(dataDir, 0755); err != nil {
				return fmt.Errorf("failed to create data directory: %w", err)
			}
			dbPath = filepath.Join(dataDir, "lexidrill.db")
		}
		db, err = sqlx.Connect("sqlite3", dbPath)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}

		// Enable foreign keys
		if _, err = db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return fmt.Errorf("failed to enable foreign keys: %w", err)
		}

		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	DB = db

	// Initialize schema
	return initializeSchema()
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema() error {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if Type() == "postgres" {
		serial = "BIGSERIAL PRIMARY KEY"
	}

	// Create assignments table
	_, err := DB.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS assignments (
			id %s,
			title TEXT NOT NULL UNIQUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`, serial))
	if err != nil {
		return fmt.Errorf("failed to create assignments table: %w", err)
	}

	// Create items table
	_, err = DB.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS items (
			id %s,
			assignment_id INTEGER NOT NULL,
			term TEXT NOT NULL,
			translation TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (assignment_id) REFERENCES assignments(id),
			UNIQUE(assignment_id, term)
		)
	`, serial))
	if err != nil {
		return fmt.Errorf("failed to create items table: %w", err)
	}

	// Create enrollments table
	_, err = DB.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS enrollments (
			id %s,
			learner_id INTEGER NOT NULL,
			assignment_id INTEGER NOT NULL,
			target_mastery REAL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (assignment_id) REFERENCES assignments(id),
			UNIQUE(learner_id, assignment_id)
		)
	`, serial))
	if err != nil {
		return fmt.Errorf("failed to create enrollments table: %w", err)
	}

	// Create progress_records table
	_, err = DB.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS progress_records (
			id %s,
			enrollment_id INTEGER NOT NULL,
			item_id INTEGER NOT NULL,
			memory_strength REAL NOT NULL DEFAULT 0,
			easiness_factor REAL NOT NULL DEFAULT 2.5,
			interval_days REAL NOT NULL DEFAULT 1,
			repetition_count INTEGER NOT NULL DEFAULT 0,
			correct_count INTEGER NOT NULL DEFAULT 0,
			incorrect_count INTEGER NOT NULL DEFAULT 0,
			total_attempts INTEGER NOT NULL DEFAULT 0,
			accuracy_rate REAL NOT NULL DEFAULT 0,
			last_reviewed_at TIMESTAMP,
			next_review_at TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (enrollment_id) REFERENCES enrollments(id) ON DELETE CASCADE,
			UNIQUE(enrollment_id, item_id)
		)
	`, serial))
	if err != nil {
		return fmt.Errorf("failed to create progress_records table: %w", err)
	}

	// Create practice_sessions table
	_, err = DB.Exec(`
		CREATE TABLE IF NOT EXISTS practice_sessions (
			id TEXT PRIMARY KEY,
			learner_id INTEGER NOT NULL,
			enrollment_id INTEGER NOT NULL,
			mode TEXT NOT NULL,
			words_practiced INTEGER NOT NULL DEFAULT 0,
			correct_count INTEGER NOT NULL DEFAULT 0,
			total_time_seconds INTEGER NOT NULL DEFAULT 0,
			started_at TIMESTAMP NOT NULL,
			completed_at TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create practice_sessions table: %w", err)
	}

	// Create practice_answers table
	_, err = DB.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS practice_answers (
			id %s,
			session_id TEXT NOT NULL,
			item_id INTEGER NOT NULL,
			is_correct BOOLEAN NOT NULL,
			time_spent_seconds INTEGER NOT NULL DEFAULT 0,
			answer_text TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (session_id) REFERENCES practice_sessions(id)
		)
	`, serial))
	if err != nil {
		return fmt.Errorf("failed to create practice_answers table: %w", err)
	}

	return nil
}
