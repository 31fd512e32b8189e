package service

import (
	"context"
	"errors"
	"mime/multipart"
	"sort"
	"sync"

	"github.com/Nathansuares/SkySafe/apperr"
	"github.com/Nathansuares/SkySafe/models"
)

// memoryStore is an in-memory IssueStore, DocumentStore and UserStore.
type memoryStore struct {
	mu        sync.Mutex
	nextID    int64
	issues    map[int64]models.Issue
	resolved  map[int64]models.ResolvedIssue
	documents map[int64]models.Document
	users     map[string]models.User
	createErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		issues:    map[int64]models.Issue{},
		resolved:  map[int64]models.ResolvedIssue{},
		documents: map[int64]models.Document{},
		users:     map[string]models.User{},
	}
}

func (m *memoryStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memoryStore) CreateIssue(_ context.Context, in models.NewIssue) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return 0, m.createErr
	}
	id := m.id()
	m.issues[id] = models.Issue{
		IssueID:     id,
		OwnerID:     in.OwnerID,
		IssueName:   in.IssueName,
		IssueSite:   in.IssueSite,
		Location:    in.Location,
		Coordinates: in.Coordinates,
		OccurredAt:  in.OccurredAt,
		Timezone:    in.Timezone,
		Details:     in.Details,
		ImagePath:   in.ImagePath,
		Status:      models.StatusReported,
	}
	return id, nil
}

func (m *memoryStore) GetIssue(_ context.Context, id int64) (*models.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	issue, ok := m.issues[id]
	if !ok {
		return nil, apperr.NotFound("Issue not found.")
	}
	return &issue, nil
}

func (m *memoryStore) ListIssuesByOwner(_ context.Context, ownerID int64) ([]models.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Issue{}
	for _, issue := range m.issues {
		if issue.OwnerID != nil && *issue.OwnerID == ownerID {
			out = append(out, issue)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssueID > out[j].IssueID })
	return out, nil
}

func (m *memoryStore) ListAllIssues(context.Context) ([]models.AdminIssue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.AdminIssue{}
	for _, issue := range m.issues {
		out = append(out, models.AdminIssue{Issue: issue})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssueID > out[j].IssueID })
	return out, nil
}

func (m *memoryStore) MarkUnderProcess(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	issue, ok := m.issues[id]
	if !ok {
		return apperr.NotFound("Issue not found.")
	}
	issue.Status = models.StatusUnderProcess
	m.issues[id] = issue
	return nil
}

func (m *memoryStore) ResolveIssue(_ context.Context, id int64, response string) (*models.ResolvedIssue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.resolved[id]; ok {
		return nil, apperr.Conflict("Issue has already been resolved.")
	}
	issue, ok := m.issues[id]
	if !ok {
		return nil, apperr.NotFound("Issue not found.")
	}
	issue.Status = models.StatusResolved
	r := models.ResolvedIssue{Issue: issue, Response: response}
	m.resolved[id] = r
	delete(m.issues, id)
	return &r, nil
}

func (m *memoryStore) ListResolvedIssues(context.Context) ([]models.ResolvedIssue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.ResolvedIssue{}
	for _, r := range m.resolved {
		out = append(out, r)
	}
	return out, nil
}

func (m *memoryStore) GetResolvedIssue(_ context.Context, id int64) (*models.ResolvedIssue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resolved[id]
	if !ok {
		return nil, apperr.NotFound("Resolved issue not found.")
	}
	return &r, nil
}

func (m *memoryStore) DeleteIssue(_ context.Context, id int64, ownerID *int64, removeFile func(string) error) (*models.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	issue, ok := m.issues[id]
	if !ok || (ownerID != nil && (issue.OwnerID == nil || *issue.OwnerID != *ownerID)) {
		return nil, apperr.NotFound("Issue not found.")
	}
	if issue.ImagePath != nil && removeFile != nil {
		if err := removeFile(*issue.ImagePath); err != nil {
			return nil, apperr.Storage("Failed to delete attachment.", err)
		}
	}
	delete(m.issues, id)
	return &issue, nil
}

func (m *memoryStore) CreateDocument(_ context.Context, in models.NewDocument) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	doc := models.Document{
		DocumentID:   m.id(),
		UserID:       in.UserID,
		DocumentName: in.DocumentName,
		IssueDate:    in.IssueDate,
		ExpiryDate:   in.ExpiryDate,
		FilePath:     in.FilePath,
	}
	m.documents[doc.DocumentID] = doc
	return &doc, nil
}

func (m *memoryStore) ListDocumentsByOwner(_ context.Context, ownerID int64) ([]models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Document{}
	for _, doc := range m.documents {
		if doc.UserID == ownerID {
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssueDate.After(out[j].IssueDate) })
	return out, nil
}

func (m *memoryStore) DeleteDocument(_ context.Context, id, ownerID int64, removeFile func(string) error) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.documents[id]
	if !ok || doc.UserID != ownerID {
		return nil, apperr.NotFound("Document not found.")
	}
	if doc.FilePath != nil {
		if err := removeFile(*doc.FilePath); err != nil {
			return nil, apperr.Storage("Failed to delete attachment.", err)
		}
	}
	delete(m.documents, id)
	return &doc, nil
}

func (m *memoryStore) CreateUser(_ context.Context, u models.User) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.LoginID]; ok {
		return 0, apperr.Conflict("Username already exists.")
	}
	u.UserID = m.id()
	m.users[u.LoginID] = u
	return u.UserID, nil
}

func (m *memoryStore) GetUserByLoginID(_ context.Context, loginID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[loginID]
	if !ok {
		return nil, apperr.NotFound("User not found.")
	}
	return &u, nil
}

// fakeFiles records stored and deleted references.
type fakeFiles struct {
	stored    []string
	deleted   []string
	storeErr  error
	deleteErr error
}

func (f *fakeFiles) StoreImage(fh *multipart.FileHeader) (string, error) {
	return f.store(fh)
}

func (f *fakeFiles) StoreFile(fh *multipart.FileHeader) (string, error) {
	return f.store(fh)
}

func (f *fakeFiles) store(fh *multipart.FileHeader) (string, error) {
	if f.storeErr != nil {
		return "", f.storeErr
	}
	ref := "/uploads/" + fh.Filename
	f.stored = append(f.stored, ref)
	return ref, nil
}

func (f *fakeFiles) Delete(ref string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, ref)
	return nil
}

// recorder is an events.Publisher that keeps what it was given.
type recorder struct {
	mu     sync.Mutex
	events []models.IssueEvent
	err    error
}

func (r *recorder) Publish(_ context.Context, e models.IssueEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) Close() error { return nil }

func (r *recorder) types() []models.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.EventType
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

var errBroker = errors.New("broker unavailable")
