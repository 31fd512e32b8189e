package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Nathansuares/SkySafe/apperr"
	"github.com/Nathansuares/SkySafe/models"

	"github.com/shopspring/decimal"
)

const issueColumns = `issue_id, user_id, issue_name, issue_site, location, latitude, longitude,
	date_time, timezone, issue_details, image_path, status, status_updated_at`

const adminIssueColumns = `i.issue_id, i.user_id, i.issue_name, i.issue_site, i.location, i.latitude, i.longitude,
	i.date_time, i.timezone, i.issue_details, i.image_path, i.status, i.status_updated_at,
	u.name, u.designation`

// coordinatePrecision matches the DECIMAL scale of the latitude and longitude columns.
const coordinatePrecision = 8

func coordinateArgs(c *models.Coordinates) (decimal.NullDecimal, decimal.NullDecimal) {
	if c == nil {
		return decimal.NullDecimal{}, decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(c.Latitude).Round(coordinatePrecision)),
		decimal.NewNullDecimal(decimal.NewFromFloat(c.Longitude).Round(coordinatePrecision))
}

// issueRow holds the nullable columns of an issue while scanning.
type issueRow struct {
	issue     models.Issue
	ownerID   sql.NullInt64
	latitude  decimal.NullDecimal
	longitude decimal.NullDecimal
	imagePath sql.NullString
	status    string
}

func (r *issueRow) dest() []any {
	return []any{
		&r.issue.IssueID, &r.ownerID, &r.issue.IssueName, &r.issue.IssueSite, &r.issue.Location,
		&r.latitude, &r.longitude, &r.issue.OccurredAt, &r.issue.Timezone, &r.issue.Details,
		&r.imagePath, &r.status, &r.issue.StatusUpdatedAt,
	}
}

func (r *issueRow) finish() models.Issue {
	r.issue.OwnerID = int64Ptr(r.ownerID)
	r.issue.ImagePath = stringPtr(r.imagePath)
	r.issue.Status = models.IssueStatus(r.status)
	if r.latitude.Valid && r.longitude.Valid {
		r.issue.Coordinates = &models.Coordinates{
			Latitude:  r.latitude.Decimal.InexactFloat64(),
			Longitude: r.longitude.Decimal.InexactFloat64(),
		}
	}
	return r.issue
}

func scanIssue(s scanner) (models.Issue, error) {
	var r issueRow
	if err := s.Scan(r.dest()...); err != nil {
		return models.Issue{}, err
	}
	return r.finish(), nil
}

// CreateIssue stores a validated submission in the reported state.
func (d *Database) CreateIssue(ctx context.Context, in models.NewIssue) (int64, error) {
	lat, lng := coordinateArgs(in.Coordinates)
	res, err := d.db.ExecContext(ctx, `
		INSERT INTO issues (user_id, issue_name, issue_site, location, latitude, longitude,
			date_time, timezone, issue_details, image_path, status, status_updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullInt64(in.OwnerID), in.IssueName, in.IssueSite, in.Location, lat, lng,
		in.OccurredAt, in.Timezone, in.Details, nullString(in.ImagePath),
		string(models.StatusReported), d.now(),
	)
	if err != nil {
		return 0, apperr.Storage("Failed to store issue.", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, apperr.Storage("Failed to store issue.", err)
	}
	return id, nil
}

// GetIssue returns an active issue by id.
func (d *Database) GetIssue(ctx context.Context, issueID int64) (*models.Issue, error) {
	issue, err := scanIssue(d.db.QueryRowContext(ctx,
		"SELECT "+issueColumns+" FROM issues WHERE issue_id = ?", issueID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("Issue not found.")
	}
	if err != nil {
		return nil, apperr.Storage("Failed to load issue.", err)
	}
	return &issue, nil
}

// ListIssuesByOwner returns the caller's active issues, newest occurrence first.
func (d *Database) ListIssuesByOwner(ctx context.Context, ownerID int64) ([]models.Issue, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT "+issueColumns+" FROM issues WHERE user_id = ? ORDER BY date_time DESC, issue_id DESC",
		ownerID)
	if err != nil {
		return nil, apperr.Storage("Failed to list issues.", err)
	}
	defer rows.Close()

	issues := []models.Issue{}
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, apperr.Storage("Failed to list issues.", err)
		}
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("Failed to list issues.", err)
	}
	return issues, nil
}

// ListAllIssues returns every active issue with its reporter, newest occurrence first.
func (d *Database) ListAllIssues(ctx context.Context) ([]models.AdminIssue, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+adminIssueColumns+`
		FROM issues i
		LEFT JOIN users u ON i.user_id = u.user_id
		ORDER BY i.date_time DESC, i.issue_id DESC`)
	if err != nil {
		return nil, apperr.Storage("Failed to list issues.", err)
	}
	defer rows.Close()

	issues := []models.AdminIssue{}
	for rows.Next() {
		var r issueRow
		var name, designation sql.NullString
		if err := rows.Scan(append(r.dest(), &name, &designation)...); err != nil {
			return nil, apperr.Storage("Failed to list issues.", err)
		}
		issues = append(issues, models.AdminIssue{
			Issue:               r.finish(),
			ReporterName:        stringPtr(name),
			ReporterDesignation: stringPtr(designation),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("Failed to list issues.", err)
	}
	return issues, nil
}

// MarkUnderProcess moves an active issue to under_process. Repeating it is harmless.
func (d *Database) MarkUnderProcess(ctx context.Context, issueID int64) error {
	res, err := d.db.ExecContext(ctx,
		"UPDATE issues SET status = ?, status_updated_at = ? WHERE issue_id = ?",
		string(models.StatusUnderProcess), d.now(), issueID)
	if err != nil {
		return apperr.Storage("Failed to update issue status.", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Storage("Failed to update issue status.", err)
	}
	if n == 0 {
		return apperr.NotFound("Issue not found.")
	}
	return nil
}

// DeleteIssue removes an active issue and then its attachment, inside one
// transaction. A nil ownerID deletes regardless of owner. If removeFile fails
// the row delete is rolled back and the issue keeps its attachment.
func (d *Database) DeleteIssue(ctx context.Context, issueID int64, ownerID *int64, removeFile func(ref string) error) (*models.Issue, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Storage("Failed to delete issue.", err)
	}
	defer tx.Rollback()

	query := "SELECT " + issueColumns + " FROM issues WHERE issue_id = ?"
	args := []any{issueID}
	if ownerID != nil {
		query += " AND user_id = ?"
		args = append(args, *ownerID)
	}
	issue, err := scanIssue(tx.QueryRowContext(ctx, query+" FOR UPDATE", args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("Issue not found.")
	}
	if err != nil {
		return nil, txFailure("Failed to delete issue.", err)
	}

	if err := cascadeDelete(ctx, tx, "DELETE FROM issues WHERE issue_id = ?", issueID, issue.ImagePath, removeFile); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, txFailure("Failed to delete issue.", err)
	}
	return &issue, nil
}

// cascadeDelete deletes a row already locked by tx and then the file it references.
func cascadeDelete(ctx context.Context, tx *sql.Tx, deleteSQL string, id int64, ref *string, removeFile func(string) error) error {
	res, err := tx.ExecContext(ctx, deleteSQL, id)
	if err != nil {
		return txFailure("Failed to delete record.", err)
	}
	logResult(fmt.Sprintf("delete %d", id), res, true)

	if ref == nil || *ref == "" || removeFile == nil {
		return nil
	}
	if err := removeFile(*ref); err != nil {
		return apperr.Storage("Failed to delete attachment.", err)
	}
	return nil
}
