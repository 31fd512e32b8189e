package database

import (
	"context"
	"fmt"

	"github.com/apex/log"
)

// schema is applied statement by statement so the DSN needs no multiStatements.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id INT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		login_id VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		designation ENUM('Pilot', 'Cabin crew', 'Ground Staff') NOT NULL,
		role ENUM('user', 'admin') NOT NULL DEFAULT 'user',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_login_id (login_id)
	)`,
	`CREATE TABLE IF NOT EXISTS issues (
		issue_id INT AUTO_INCREMENT PRIMARY KEY,
		user_id INT NULL,
		issue_name VARCHAR(255) NOT NULL,
		issue_site VARCHAR(255) NOT NULL,
		location VARCHAR(255) NOT NULL,
		latitude DECIMAL(10, 8) NULL,
		longitude DECIMAL(11, 8) NULL,
		date_time DATETIME NOT NULL,
		timezone VARCHAR(10) NOT NULL,
		issue_details TEXT NOT NULL,
		image_path VARCHAR(512) NULL,
		status ENUM('reported', 'under_process', 'resolved') NOT NULL DEFAULT 'reported',
		status_updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_issues_user_id (user_id),
		INDEX idx_issues_date_time (date_time),
		CONSTRAINT chk_issues_coordinates CHECK ((latitude IS NULL) = (longitude IS NULL))
	)`,
	`CREATE TABLE IF NOT EXISTS resolved_issues (
		issue_id INT PRIMARY KEY,
		user_id INT NULL,
		issue_name VARCHAR(255) NOT NULL,
		issue_site VARCHAR(255) NOT NULL,
		location VARCHAR(255) NOT NULL,
		latitude DECIMAL(10, 8) NULL,
		longitude DECIMAL(11, 8) NULL,
		date_time DATETIME NOT NULL,
		timezone VARCHAR(10) NOT NULL,
		issue_details TEXT NOT NULL,
		image_path VARCHAR(512) NULL,
		status ENUM('reported', 'under_process', 'resolved') NOT NULL DEFAULT 'resolved',
		status_updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		response TEXT NOT NULL,
		INDEX idx_resolved_user_id (user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS documents (
		document_id INT AUTO_INCREMENT PRIMARY KEY,
		user_id INT NOT NULL,
		document_name VARCHAR(255) NOT NULL,
		issue_date DATE NOT NULL,
		expiry_date DATE NULL,
		document_file_path VARCHAR(512) NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_documents_user_id (user_id),
		FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
	)`,
}

// InitializeSchema creates the tables the service needs if they are missing.
func (d *Database) InitializeSchema(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i, err)
		}
	}
	if err := d.alignIssueCounter(ctx); err != nil {
		return err
	}
	log.Info("Database schema initialized")
	return nil
}

// alignIssueCounter moves the issues AUTO_INCREMENT past every archived id.
// Servers before MySQL 8.0 rebuild the counter from MAX(issue_id) on restart,
// which would hand out ids that already exist in resolved_issues.
func (d *Database) alignIssueCounter(ctx context.Context) error {
	var highest int64
	err := d.db.QueryRowContext(ctx, `SELECT GREATEST(
		COALESCE((SELECT MAX(issue_id) FROM issues), 0),
		COALESCE((SELECT MAX(issue_id) FROM resolved_issues), 0))`).Scan(&highest)
	if err != nil {
		return fmt.Errorf("failed to read highest issue id: %w", err)
	}
	if highest == 0 {
		return nil
	}
	if _, err := d.db.ExecContext(ctx, fmt.Sprintf("ALTER TABLE issues AUTO_INCREMENT = %d", highest+1)); err != nil {
		return fmt.Errorf("failed to align issue id counter: %w", err)
	}
	log.WithField("next_issue_id", highest+1).Debug("Issue id counter aligned")
	return nil
}
