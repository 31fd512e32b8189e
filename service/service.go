package service

import (
	"context"
	"mime/multipart"
	"time"

	"github.com/Nathansuares/SkySafe/apperr"
	"github.com/Nathansuares/SkySafe/events"
	"github.com/Nathansuares/SkySafe/metrics"
	"github.com/Nathansuares/SkySafe/models"

	"github.com/apex/log"
)

// AttachmentStore keeps uploaded files and hands back the reference to persist.
type AttachmentStore interface {
	StoreImage(fh *multipart.FileHeader) (string, error)
	StoreFile(fh *multipart.FileHeader) (string, error)
	Delete(ref string) error
}

// removeAttachment is the file step of a cascading delete.
func removeAttachment(files AttachmentStore) func(string) error {
	return func(ref string) error {
		err := files.Delete(ref)
		metrics.AttachmentCleanupTotal.WithLabelValues(metrics.Result(err)).Inc()
		if err != nil {
			log.WithError(err).WithField("ref", ref).Error("Failed to remove attachment")
		}
		return err
	}
}

// discardAttachment drops a file stored for a record that was never written.
func discardAttachment(files AttachmentStore, ref string) {
	if err := files.Delete(ref); err != nil {
		log.WithError(err).WithField("ref", ref).Warn("Failed to discard orphaned attachment")
	}
}

// publish sends an event after commit. Failures never undo the change.
func publish(ctx context.Context, pub events.Publisher, event models.IssueEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := pub.Publish(ctx, event); err != nil {
		metrics.EventPublishErrorsTotal.Inc()
		log.WithError(err).WithFields(log.Fields{
			"event":    event.Type,
			"issue_id": event.IssueID,
		}).Warn("Failed to publish issue event")
	}
}

func requireAdmin(subject *models.Subject) error {
	if subject == nil {
		return apperr.Unauthenticated("Access token required.")
	}
	if !subject.IsAdmin() {
		return apperr.Forbidden("Admin access required.")
	}
	return nil
}

func requireSubject(subject *models.Subject) error {
	if subject == nil {
		return apperr.Unauthenticated("Access token required.")
	}
	return nil
}
