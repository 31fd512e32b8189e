package service

import (
	"context"
	"errors"
	"mime/multipart"
	"testing"
	"time"

	"github.com/Nathansuares/SkySafe/apperr"
	"github.com/Nathansuares/SkySafe/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newDocumentFixture() (*DocumentService, *memoryStore, *fakeFiles) {
	store := newMemoryStore()
	files := &fakeFiles{}
	svc := NewDocumentService(store, files)
	svc.now = func() time.Time { return time.Date(2026, 10, 19, 18, 0, 0, 0, time.UTC) }
	return svc, store, files
}

func TestCreateDocument(t *testing.T) {
	svc, _, files := newDocumentFixture()
	expiry := date(2026, 10, 29)

	doc, err := svc.Create(context.Background(), crew, models.NewDocument{
		DocumentName: "Class 1 Medical",
		IssueDate:    date(2025, 10, 29),
		ExpiryDate:   &expiry,
	}, &multipart.FileHeader{Filename: "medical.pdf"})
	require.NoError(t, err)

	assert.Equal(t, int64(3), doc.UserID)
	assert.Equal(t, "/uploads/medical.pdf", *doc.FilePath)
	assert.Equal(t, []string{"/uploads/medical.pdf"}, files.stored)
	require.NotNil(t, doc.DaysUntilExpiry)
	assert.Equal(t, 10, *doc.DaysUntilExpiry)
	assert.False(t, doc.Expired)
}

func TestCreateDocumentRequiresFile(t *testing.T) {
	svc, _, _ := newDocumentFixture()

	_, err := svc.Create(context.Background(), crew, models.NewDocument{DocumentName: "ATPL"}, nil)

	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, []string{"document_file_path"}, apperr.FieldsOf(err))
}

func TestCreateDocumentDiscardsFileWhenInsertFails(t *testing.T) {
	svc, store, files := newDocumentFixture()
	store.createErr = apperr.Storage("Failed to store document.", errors.New("db down"))

	_, err := svc.Create(context.Background(), crew, models.NewDocument{DocumentName: "ATPL"}, &multipart.FileHeader{Filename: "atpl.pdf"})

	assert.Error(t, err)
	assert.Equal(t, []string{"/uploads/atpl.pdf"}, files.deleted)
}

func TestListMineAnnotatesExpiry(t *testing.T) {
	svc, _, _ := newDocumentFixture()
	ctx := context.Background()
	expired := date(2026, 10, 18)
	today := date(2026, 10, 19)

	_, _ = svc.Create(ctx, crew, models.NewDocument{DocumentName: "Old", IssueDate: date(2020, 1, 1), ExpiryDate: &expired}, &multipart.FileHeader{Filename: "a"})
	_, _ = svc.Create(ctx, crew, models.NewDocument{DocumentName: "Today", IssueDate: date(2021, 1, 1), ExpiryDate: &today}, &multipart.FileHeader{Filename: "b"})
	_, _ = svc.Create(ctx, crew, models.NewDocument{DocumentName: "Forever", IssueDate: date(2022, 1, 1)}, &multipart.FileHeader{Filename: "c"})
	_, _ = svc.Create(ctx, other, models.NewDocument{DocumentName: "Not mine", IssueDate: date(2023, 1, 1)}, &multipart.FileHeader{Filename: "d"})

	docs, err := svc.ListMine(ctx, crew)
	require.NoError(t, err)
	require.Len(t, docs, 3)

	assert.Equal(t, "Forever", docs[0].DocumentName)
	assert.Nil(t, docs[0].DaysUntilExpiry)
	assert.False(t, docs[0].Expired)

	assert.Equal(t, "Today", docs[1].DocumentName)
	assert.Equal(t, 0, *docs[1].DaysUntilExpiry)
	assert.False(t, docs[1].Expired)

	assert.Equal(t, "Old", docs[2].DocumentName)
	assert.Equal(t, -1, *docs[2].DaysUntilExpiry)
	assert.True(t, docs[2].Expired)
}

func TestDeleteOwnedDocument(t *testing.T) {
	svc, _, files := newDocumentFixture()
	ctx := context.Background()
	doc, err := svc.Create(ctx, crew, models.NewDocument{DocumentName: "ATPL", IssueDate: date(2020, 1, 1)}, &multipart.FileHeader{Filename: "atpl.pdf"})
	require.NoError(t, err)

	assert.True(t, apperr.Is(svc.DeleteOwned(ctx, other, doc.DocumentID), apperr.KindNotFound))
	require.NoError(t, svc.DeleteOwned(ctx, crew, doc.DocumentID))
	assert.Equal(t, []string{"/uploads/atpl.pdf"}, files.deleted)

	_, err = svc.ListMine(ctx, nil)
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))
}
