package service

import (
	"context"
	"mime/multipart"
	"time"

	"github.com/Nathansuares/SkySafe/apperr"
	"github.com/Nathansuares/SkySafe/models"

	"github.com/apex/log"
)

type DocumentStore interface {
	CreateDocument(ctx context.Context, in models.NewDocument) (*models.Document, error)
	ListDocumentsByOwner(ctx context.Context, ownerID int64) ([]models.Document, error)
	DeleteDocument(ctx context.Context, documentID, ownerID int64, removeFile func(ref string) error) (*models.Document, error)
}

// DocumentService manages the caller's personal licences and certificates.
type DocumentService struct {
	store DocumentStore
	files AttachmentStore
	now   func() time.Time
}

func NewDocumentService(store DocumentStore, files AttachmentStore) *DocumentService {
	return &DocumentService{store: store, files: files, now: time.Now}
}

// Create stores the document file and its record for the caller.
func (s *DocumentService) Create(ctx context.Context, subject *models.Subject, in models.NewDocument, file *multipart.FileHeader) (*models.Document, error) {
	if err := requireSubject(subject); err != nil {
		return nil, err
	}
	if file == nil {
		return nil, apperr.Validation("Missing required document fields.", "document_file_path")
	}
	ref, err := s.files.StoreFile(file)
	if err != nil {
		return nil, err
	}
	in.UserID = subject.UserID
	in.FilePath = &ref

	doc, err := s.store.CreateDocument(ctx, in)
	if err != nil {
		discardAttachment(s.files, ref)
		return nil, err
	}
	s.annotate(doc)
	log.WithFields(log.Fields{"document_id": doc.DocumentID, "user_id": subject.UserID}).Info("Document added")
	return doc, nil
}

// ListMine returns the caller's documents with their expiry state filled in.
func (s *DocumentService) ListMine(ctx context.Context, subject *models.Subject) ([]models.Document, error) {
	if err := requireSubject(subject); err != nil {
		return nil, err
	}
	docs, err := s.store.ListDocumentsByOwner(ctx, subject.UserID)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		s.annotate(&docs[i])
	}
	return docs, nil
}

// DeleteOwned removes one of the caller's documents and its file.
func (s *DocumentService) DeleteOwned(ctx context.Context, subject *models.Subject, documentID int64) error {
	if err := requireSubject(subject); err != nil {
		return err
	}
	if _, err := s.store.DeleteDocument(ctx, documentID, subject.UserID, removeAttachment(s.files)); err != nil {
		return err
	}
	log.WithFields(log.Fields{"document_id": documentID, "user_id": subject.UserID}).Info("Document deleted")
	return nil
}

// annotate sets Expired and DaysUntilExpiry relative to today (UTC). A
// document is still valid on its expiry date.
func (s *DocumentService) annotate(doc *models.Document) {
	doc.Expired = false
	doc.DaysUntilExpiry = nil
	if doc.ExpiryDate == nil {
		return
	}
	y, m, d := s.now().UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	ey, em, ed := doc.ExpiryDate.Date()
	expiry := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)

	days := int(expiry.Sub(today).Hours() / 24)
	doc.DaysUntilExpiry = &days
	doc.Expired = days < 0
}
