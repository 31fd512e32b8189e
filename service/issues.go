package service

import (
	"context"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"github.com/Nathansuares/SkySafe/apperr"
	"github.com/Nathansuares/SkySafe/events"
	"github.com/Nathansuares/SkySafe/metrics"
	"github.com/Nathansuares/SkySafe/models"

	"github.com/apex/log"
	geojson "github.com/paulmach/go.geojson"
)

// IssueStore persists active and archived issues.
type IssueStore interface {
	CreateIssue(ctx context.Context, in models.NewIssue) (int64, error)
	GetIssue(ctx context.Context, issueID int64) (*models.Issue, error)
	ListIssuesByOwner(ctx context.Context, ownerID int64) ([]models.Issue, error)
	ListAllIssues(ctx context.Context) ([]models.AdminIssue, error)
	MarkUnderProcess(ctx context.Context, issueID int64) error
	ResolveIssue(ctx context.Context, issueID int64, response string) (*models.ResolvedIssue, error)
	ListResolvedIssues(ctx context.Context) ([]models.ResolvedIssue, error)
	GetResolvedIssue(ctx context.Context, issueID int64) (*models.ResolvedIssue, error)
	DeleteIssue(ctx context.Context, issueID int64, ownerID *int64, removeFile func(ref string) error) (*models.Issue, error)
}

// IssueService runs the issue lifecycle: submit, review, resolve and delete.
type IssueService struct {
	store  IssueStore
	files  AttachmentStore
	events events.Publisher
}

func NewIssueService(store IssueStore, files AttachmentStore, pub events.Publisher) *IssueService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &IssueService{store: store, files: files, events: pub}
}

// Submit stores an issue and its optional image. A nil subject files it anonymously.
func (s *IssueService) Submit(ctx context.Context, subject *models.Subject, in models.NewIssue, image *multipart.FileHeader) (int64, error) {
	in.OwnerID = nil
	if subject != nil {
		owner := subject.UserID
		in.OwnerID = &owner
	}

	var ref string
	if image != nil {
		var err error
		if ref, err = s.files.StoreImage(image); err != nil {
			return 0, err
		}
		in.ImagePath = &ref
	}

	id, err := s.store.CreateIssue(ctx, in)
	if err != nil {
		if ref != "" {
			discardAttachment(s.files, ref)
		}
		return 0, err
	}

	metrics.IssuesSubmittedTotal.WithLabelValues(strconv.FormatBool(subject == nil)).Inc()
	log.WithFields(log.Fields{"issue_id": id, "anonymous": subject == nil}).Info("Issue submitted")
	publish(ctx, s.events, models.IssueEvent{
		Type:    models.EventSubmitted,
		IssueID: id,
		ActorID: in.OwnerID,
		Status:  models.StatusReported,
	})
	return id, nil
}

func (s *IssueService) ListMine(ctx context.Context, subject *models.Subject) ([]models.Issue, error) {
	if err := requireSubject(subject); err != nil {
		return nil, err
	}
	return s.store.ListIssuesByOwner(ctx, subject.UserID)
}

func (s *IssueService) ListAll(ctx context.Context, subject *models.Subject) ([]models.AdminIssue, error) {
	if err := requireAdmin(subject); err != nil {
		return nil, err
	}
	return s.store.ListAllIssues(ctx)
}

func (s *IssueService) Get(ctx context.Context, subject *models.Subject, issueID int64) (*models.Issue, error) {
	if err := requireAdmin(subject); err != nil {
		return nil, err
	}
	return s.store.GetIssue(ctx, issueID)
}

func (s *IssueService) ListResolved(ctx context.Context, subject *models.Subject) ([]models.ResolvedIssue, error) {
	if err := requireAdmin(subject); err != nil {
		return nil, err
	}
	return s.store.ListResolvedIssues(ctx)
}

func (s *IssueService) GetResolved(ctx context.Context, subject *models.Subject, issueID int64) (*models.ResolvedIssue, error) {
	if err := requireAdmin(subject); err != nil {
		return nil, err
	}
	return s.store.GetResolvedIssue(ctx, issueID)
}

// MarkUnderProcess flags an active issue as being worked on.
func (s *IssueService) MarkUnderProcess(ctx context.Context, subject *models.Subject, issueID int64) error {
	if err := requireAdmin(subject); err != nil {
		return err
	}
	err := s.store.MarkUnderProcess(ctx, issueID)
	metrics.IssueTransitionsTotal.WithLabelValues("under_process", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	publish(ctx, s.events, models.IssueEvent{
		Type:    models.EventUnderProcess,
		IssueID: issueID,
		ActorID: &subject.UserID,
		Status:  models.StatusUnderProcess,
	})
	return nil
}

// Resolve archives an active issue with the admin's response.
func (s *IssueService) Resolve(ctx context.Context, subject *models.Subject, issueID int64, response string) (*models.ResolvedIssue, error) {
	if err := requireAdmin(subject); err != nil {
		return nil, err
	}
	response = strings.TrimSpace(response)
	if response == "" {
		return nil, apperr.Validation("Response is required.", "response")
	}

	start := time.Now()
	resolved, err := s.store.ResolveIssue(ctx, issueID, response)
	metrics.IssueResolveDurationSeconds.Observe(time.Since(start).Seconds())
	metrics.IssueTransitionsTotal.WithLabelValues("resolve", metrics.Result(err)).Inc()
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"issue_id": issueID, "admin_id": subject.UserID}).Info("Issue resolved")
	publish(ctx, s.events, models.IssueEvent{
		Type:       models.EventResolved,
		IssueID:    issueID,
		ActorID:    &subject.UserID,
		Status:     models.StatusResolved,
		OccurredAt: resolved.StatusUpdatedAt,
	})
	return resolved, nil
}

// DeleteOwned removes one of the caller's own issues. Somebody else's issue
// is reported as not found.
func (s *IssueService) DeleteOwned(ctx context.Context, subject *models.Subject, issueID int64) error {
	if err := requireSubject(subject); err != nil {
		return err
	}
	return s.delete(ctx, subject, issueID, &subject.UserID)
}

// DeleteAsAdmin removes any active issue.
func (s *IssueService) DeleteAsAdmin(ctx context.Context, subject *models.Subject, issueID int64) error {
	if err := requireAdmin(subject); err != nil {
		return err
	}
	return s.delete(ctx, subject, issueID, nil)
}

func (s *IssueService) delete(ctx context.Context, subject *models.Subject, issueID int64, ownerID *int64) error {
	_, err := s.store.DeleteIssue(ctx, issueID, ownerID, removeAttachment(s.files))
	metrics.IssueTransitionsTotal.WithLabelValues("delete", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{"issue_id": issueID, "user_id": subject.UserID}).Info("Issue deleted")
	publish(ctx, s.events, models.IssueEvent{
		Type:    models.EventDeleted,
		IssueID: issueID,
		ActorID: &subject.UserID,
	})
	return nil
}

// ExportGeoJSON returns the active issues that carry coordinates as points.
func (s *IssueService) ExportGeoJSON(ctx context.Context, subject *models.Subject) (*geojson.FeatureCollection, error) {
	issues, err := s.ListAll(ctx, subject)
	if err != nil {
		return nil, err
	}

	fc := geojson.NewFeatureCollection()
	for _, issue := range issues {
		if issue.Coordinates == nil {
			continue
		}
		f := geojson.NewPointFeature([]float64{issue.Coordinates.Longitude, issue.Coordinates.Latitude})
		f.ID = issue.IssueID
		f.SetProperty("issue_name", issue.IssueName)
		f.SetProperty("issue_site", issue.IssueSite)
		f.SetProperty("location", issue.Location)
		f.SetProperty("status", string(issue.Status))
		f.SetProperty("date_time", issue.OccurredAt.Format("2006-01-02 15:04:05"))
		f.SetProperty("timezone", issue.Timezone)
		if issue.ReporterDesignation != nil {
			f.SetProperty("reporter_designation", *issue.ReporterDesignation)
		}
		fc.AddFeature(f)
	}
	return fc, nil
}
