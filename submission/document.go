package submission

import (
	"net/url"
	"strings"
	"time"

	"github.com/Nathansuares/SkySafe/apperr"
	"github.com/Nathansuares/SkySafe/models"
)

const DateLayout = "2006-01-02"

// ParseDocument validates a document upload form. The owner and file path are
// filled in by the caller.
func ParseDocument(form url.Values) (models.NewDocument, error) {
	if missing := missingFields(form, []string{"document_name", "issue_date"}); len(missing) > 0 {
		return models.NewDocument{}, apperr.Validation("Missing required document fields.", missing...)
	}
	name := strings.TrimSpace(form.Get("document_name"))
	if len(name) > 255 {
		return models.NewDocument{}, apperr.Validation("document_name is too long.", "document_name")
	}

	issued, err := time.Parse(DateLayout, strings.TrimSpace(form.Get("issue_date")))
	if err != nil {
		return models.NewDocument{}, apperr.Validation("issue_date must be formatted as YYYY-MM-DD.", "issue_date")
	}

	doc := models.NewDocument{DocumentName: name, IssueDate: issued}
	if raw := strings.TrimSpace(form.Get("expiry_date")); raw != "" {
		expiry, err := time.Parse(DateLayout, raw)
		if err != nil {
			return models.NewDocument{}, apperr.Validation("expiry_date must be formatted as YYYY-MM-DD.", "expiry_date")
		}
		if expiry.Before(issued) {
			return models.NewDocument{}, apperr.Validation("expiry_date cannot precede issue_date.", "expiry_date")
		}
		doc.ExpiryDate = &expiry
	}
	return doc, nil
}
