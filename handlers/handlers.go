package handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Nathansuares/SkySafe/apperr"
	"github.com/Nathansuares/SkySafe/middleware"
	"github.com/Nathansuares/SkySafe/models"

	"github.com/gin-gonic/gin"
	geojson "github.com/paulmach/go.geojson"
)

// multipartMemory is how much of a form is held in memory before spilling to disk.
const multipartMemory = 8 << 20

type IssueService interface {
	Submit(ctx context.Context, subject *models.Subject, in models.NewIssue, image *multipart.FileHeader) (int64, error)
	ListMine(ctx context.Context, subject *models.Subject) ([]models.Issue, error)
	ListAll(ctx context.Context, subject *models.Subject) ([]models.AdminIssue, error)
	Get(ctx context.Context, subject *models.Subject, issueID int64) (*models.Issue, error)
	ListResolved(ctx context.Context, subject *models.Subject) ([]models.ResolvedIssue, error)
	GetResolved(ctx context.Context, subject *models.Subject, issueID int64) (*models.ResolvedIssue, error)
	MarkUnderProcess(ctx context.Context, subject *models.Subject, issueID int64) error
	Resolve(ctx context.Context, subject *models.Subject, issueID int64, response string) (*models.ResolvedIssue, error)
	DeleteOwned(ctx context.Context, subject *models.Subject, issueID int64) error
	DeleteAsAdmin(ctx context.Context, subject *models.Subject, issueID int64) error
	ExportGeoJSON(ctx context.Context, subject *models.Subject) (*geojson.FeatureCollection, error)
}

type DocumentService interface {
	Create(ctx context.Context, subject *models.Subject, in models.NewDocument, file *multipart.FileHeader) (*models.Document, error)
	ListMine(ctx context.Context, subject *models.Subject) ([]models.Document, error)
	DeleteOwned(ctx context.Context, subject *models.Subject, documentID int64) error
}

type AccountService interface {
	Signup(ctx context.Context, req models.SignupRequest) (*models.User, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers contains the HTTP handlers of the reporting service
type Handlers struct {
	issues         IssueService
	documents      DocumentService
	accounts       AccountService
	db             Pinger
	maxUploadBytes int64
}

func NewHandlers(issues IssueService, documents DocumentService, accounts AccountService, db Pinger, maxUploadBytes int64) *Handlers {
	return &Handlers{
		issues:         issues,
		documents:      documents,
		accounts:       accounts,
		db:             db,
		maxUploadBytes: maxUploadBytes,
	}
}

// respondError writes the error envelope. Storage failures are logged with
// their cause, which never reaches the client.
func respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindStorage {
		middleware.Logger(c).WithError(err).Error("Request failed")
	}
	body := gin.H{"success": false, "message": apperr.PublicMessage(err)}
	if fields := apperr.FieldsOf(err); len(fields) > 0 {
		body["missing_fields"] = fields
	}
	c.JSON(apperr.HTTPStatus(kind), body)
}

func subject(c *gin.Context) *models.Subject {
	s, _ := middleware.SubjectFrom(c)
	return s
}

func parseID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("Invalid "+name+".", name)
	}
	return id, nil
}

// readForm parses a multipart or urlencoded body and returns at most one file
// from fileField.
func (h *Handlers) readForm(c *gin.Context, fileField string) (url.Values, *multipart.FileHeader, error) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartMemory)
	}
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, apperr.Validation("Upload is too large.", fileField)
		}
		return nil, nil, apperr.Validation("Invalid form submission.")
	}

	var file *multipart.FileHeader
	if mf := c.Request.MultipartForm; mf != nil {
		files := mf.File[fileField]
		if len(files) > 1 {
			return nil, nil, apperr.Validation("Only one file may be attached.", fileField)
		}
		if len(files) == 1 {
			file = files[0]
		}
	}
	form := c.Request.PostForm
	if form == nil {
		form = url.Values{}
	}
	return form, file, nil
}
