package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Nathansuares/SkySafe/apperr"
	"github.com/Nathansuares/SkySafe/models"
)

const archiveIssueSQL = `
	INSERT INTO resolved_issues (issue_id, user_id, issue_name, issue_site, location, latitude, longitude,
		date_time, timezone, issue_details, image_path, status, status_updated_at, response)
	SELECT issue_id, user_id, issue_name, issue_site, location, latitude, longitude,
		date_time, timezone, issue_details, image_path, ?, ?, ?
	FROM issues WHERE issue_id = ?`

const resolvedColumns = issueColumns + ", response"

func scanResolved(s scanner) (models.ResolvedIssue, error) {
	var r issueRow
	var response string
	if err := s.Scan(append(r.dest(), &response)...); err != nil {
		return models.ResolvedIssue{}, err
	}
	return models.ResolvedIssue{Issue: r.finish(), Response: response}, nil
}

// ResolveIssue copies an active issue into the archive with the admin's
// response and removes it from the active set. Either both happen or neither.
// The row is locked for update first, so a concurrent resolve or delete waits
// and then finds it gone.
func (d *Database) ResolveIssue(ctx context.Context, issueID int64, response string) (*models.ResolvedIssue, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Storage("Failed to resolve issue.", err)
	}
	defer tx.Rollback()

	var locked int64
	err = tx.QueryRowContext(ctx, "SELECT issue_id FROM issues WHERE issue_id = ? FOR UPDATE", issueID).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("Issue not found.")
	}
	if err != nil {
		return nil, txFailure("Failed to resolve issue.", err)
	}

	res, err := tx.ExecContext(ctx, archiveIssueSQL, string(models.StatusResolved), d.now(), response, issueID)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, apperr.Conflict("Issue has already been resolved.")
		}
		return nil, txFailure("Failed to resolve issue.", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, apperr.Storage("Failed to resolve issue.", err)
	}
	if n == 0 {
		return nil, apperr.NotFound("Issue not found.")
	}

	res, err = tx.ExecContext(ctx, "DELETE FROM issues WHERE issue_id = ?", issueID)
	if err != nil {
		return nil, txFailure("Failed to resolve issue.", err)
	}
	if n, err = res.RowsAffected(); err != nil {
		return nil, apperr.Storage("Failed to resolve issue.", err)
	}
	if n == 0 {
		return nil, apperr.Conflict("Issue changed while being resolved.")
	}

	resolved, err := scanResolved(tx.QueryRowContext(ctx,
		"SELECT "+resolvedColumns+" FROM resolved_issues WHERE issue_id = ?", issueID))
	if err != nil {
		return nil, apperr.Storage("Failed to resolve issue.", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, txFailure("Failed to resolve issue.", err)
	}
	return &resolved, nil
}

// ListResolvedIssues returns the archive, most recently resolved first.
func (d *Database) ListResolvedIssues(ctx context.Context) ([]models.ResolvedIssue, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT "+resolvedColumns+" FROM resolved_issues ORDER BY status_updated_at DESC, issue_id DESC")
	if err != nil {
		return nil, apperr.Storage("Failed to list resolved issues.", err)
	}
	defer rows.Close()

	issues := []models.ResolvedIssue{}
	for rows.Next() {
		issue, err := scanResolved(rows)
		if err != nil {
			return nil, apperr.Storage("Failed to list resolved issues.", err)
		}
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("Failed to list resolved issues.", err)
	}
	return issues, nil
}

// GetResolvedIssue returns an archived issue by its original id.
func (d *Database) GetResolvedIssue(ctx context.Context, issueID int64) (*models.ResolvedIssue, error) {
	issue, err := scanResolved(d.db.QueryRowContext(ctx,
		"SELECT "+resolvedColumns+" FROM resolved_issues WHERE issue_id = ?", issueID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("Resolved issue not found.")
	}
	if err != nil {
		return nil, apperr.Storage("Failed to load resolved issue.", err)
	}
	return &issue, nil
}

