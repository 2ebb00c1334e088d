package repository

import (
	"context"
	"database/sql"
	"fmt"
)

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT AUTO_INCREMENT PRIMARY KEY,
		name          VARCHAR(100) NOT NULL,
		email         VARCHAR(254) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role          ENUM('candidate', 'employer') NOT NULL,
		created_at    DATETIME(6) NOT NULL,
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS jobs (
		id           BIGINT AUTO_INCREMENT PRIMARY KEY,
		title        VARCHAR(200) NOT NULL,
		company      VARCHAR(200) NOT NULL,
		location     VARCHAR(200) NOT NULL,
		type         ENUM('full-time', 'part-time', 'internship', 'contract') NOT NULL,
		description  TEXT NOT NULL,
		requirements TEXT NOT NULL,
		created_by   BIGINT NOT NULL,
		created_at   DATETIME(6) NOT NULL,
		updated_at   DATETIME(6) NOT NULL,
		KEY idx_jobs_created_by (created_by),
		KEY idx_jobs_created_at (created_at),
		CONSTRAINT fk_jobs_created_by FOREIGN KEY (created_by) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS applications (
		id                   BIGINT AUTO_INCREMENT PRIMARY KEY,
		job_id               BIGINT NOT NULL,
		candidate_id         BIGINT NOT NULL,
		cover_letter         TEXT NOT NULL,
		resume_path          VARCHAR(512) NOT NULL DEFAULT '',
		resume_original_name VARCHAR(255) NOT NULL DEFAULT '',
		status               ENUM('applied', 'reviewed', 'accepted', 'rejected') NOT NULL DEFAULT 'applied',
		created_at           DATETIME(6) NOT NULL,
		updated_at           DATETIME(6) NOT NULL,
		UNIQUE KEY uq_applications_job_candidate (job_id, candidate_id),
		KEY idx_applications_candidate (candidate_id),
		CONSTRAINT fk_applications_job FOREIGN KEY (job_id) REFERENCES jobs (id) ON DELETE CASCADE,
		CONSTRAINT fk_applications_candidate FOREIGN KEY (candidate_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE COLLATE NOCASE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL CHECK (role IN ('candidate', 'employer')),
		created_at    DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS jobs (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		title        TEXT NOT NULL,
		company      TEXT NOT NULL,
		location     TEXT NOT NULL,
		type         TEXT NOT NULL CHECK (type IN ('full-time', 'part-time', 'internship', 'contract')),
		description  TEXT NOT NULL,
		requirements TEXT NOT NULL DEFAULT '',
		created_by   INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		created_at   DATETIME NOT NULL,
		updated_at   DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_created_by ON jobs (created_by)`,
	`CREATE TABLE IF NOT EXISTS applications (
		id                   INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id               INTEGER NOT NULL REFERENCES jobs (id) ON DELETE CASCADE,
		candidate_id         INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		cover_letter         TEXT NOT NULL DEFAULT '',
		resume_path          TEXT NOT NULL DEFAULT '',
		resume_original_name TEXT NOT NULL DEFAULT '',
		status               TEXT NOT NULL DEFAULT 'applied' CHECK (status IN ('applied', 'reviewed', 'accepted', 'rejected')),
		created_at           DATETIME NOT NULL,
		updated_at           DATETIME NOT NULL,
		UNIQUE (job_id, candidate_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_applications_candidate ON applications (candidate_id)`,
}

// Migrate creates any missing tables. It never alters existing ones.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	var stmts []string
	switch driver {
	case DriverMySQL:
		stmts = mysqlSchema
	case DriverSQLite:
		stmts = sqliteSchema
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}

	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
