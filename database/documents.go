package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Nathansuares/SkySafe/apperr"
	"github.com/Nathansuares/SkySafe/models"
)

const documentColumns = "document_id, user_id, document_name, issue_date, expiry_date, document_file_path, created_at"

func scanDocument(s scanner) (models.Document, error) {
	var doc models.Document
	var expiry sql.NullTime
	var path sql.NullString
	if err := s.Scan(&doc.DocumentID, &doc.UserID, &doc.DocumentName, &doc.IssueDate, &expiry, &path, &doc.CreatedAt); err != nil {
		return models.Document{}, err
	}
	if expiry.Valid {
		t := expiry.Time
		doc.ExpiryDate = &t
	}
	doc.FilePath = stringPtr(path)
	return doc, nil
}

// CreateDocument stores a document record and returns it as persisted.
func (d *Database) CreateDocument(ctx context.Context, in models.NewDocument) (*models.Document, error) {
	var expiry sql.NullTime
	if in.ExpiryDate != nil {
		expiry = sql.NullTime{Time: *in.ExpiryDate, Valid: true}
	}
	res, err := d.db.ExecContext(ctx,
		"INSERT INTO documents (user_id, document_name, issue_date, expiry_date, document_file_path) VALUES (?, ?, ?, ?, ?)",
		in.UserID, in.DocumentName, in.IssueDate, expiry, nullString(in.FilePath))
	if err != nil {
		return nil, apperr.Storage("Failed to store document.", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, apperr.Storage("Failed to store document.", err)
	}

	doc, err := scanDocument(d.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE document_id = ?", id))
	if err != nil {
		return nil, apperr.Storage("Failed to load stored document.", err)
	}
	return &doc, nil
}

// ListDocumentsByOwner returns the caller's documents, most recently issued first.
func (d *Database) ListDocumentsByOwner(ctx context.Context, ownerID int64) ([]models.Document, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE user_id = ? ORDER BY issue_date DESC, document_id DESC",
		ownerID)
	if err != nil {
		return nil, apperr.Storage("Failed to list documents.", err)
	}
	defer rows.Close()

	docs := []models.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, apperr.Storage("Failed to list documents.", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("Failed to list documents.", err)
	}
	return docs, nil
}

// DeleteDocument removes one of the owner's documents and then its file, the
// same way DeleteIssue does.
func (d *Database) DeleteDocument(ctx context.Context, documentID, ownerID int64, removeFile func(ref string) error) (*models.Document, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Storage("Failed to delete document.", err)
	}
	defer tx.Rollback()

	doc, err := scanDocument(tx.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE document_id = ? AND user_id = ? FOR UPDATE",
		documentID, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("Document not found.")
	}
	if err != nil {
		return nil, txFailure("Failed to delete document.", err)
	}

	if err := cascadeDelete(ctx, tx, "DELETE FROM documents WHERE document_id = ?", documentID, doc.FilePath, removeFile); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, txFailure("Failed to delete document.", err)
	}
	return &doc, nil
}
