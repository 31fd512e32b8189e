package handlers

import (
	"net/http"

	"github.com/Nathansuares/SkySafe/apperr"
	"github.com/Nathansuares/SkySafe/models"
	"github.com/Nathansuares/SkySafe/submission"

	"github.com/gin-gonic/gin"
)

// SubmitIssue handles POST /issues. The caller may be anonymous.
func (h *Handlers) SubmitIssue(c *gin.Context) {
	form, image, err := h.readForm(c, "image")
	if err != nil {
		respondError(c, err)
		return
	}
	in, err := submission.ParseIssue(form)
	if err != nil {
		respondError(c, err)
		return
	}

	id, err := h.issues.Submit(c.Request.Context(), subject(c), in, image)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"message":  "Issue submitted successfully!",
		"issue_id": id,
	})
}

// MyIssues handles GET /my-issues.
func (h *Handlers) MyIssues(c *gin.Context) {
	issues, err := h.issues.ListMine(c.Request.Context(), subject(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "issues": issues})
}

// DeleteOwnIssue handles DELETE /issues/:id.
func (h *Handlers) DeleteOwnIssue(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.issues.DeleteOwned(c.Request.Context(), subject(c), id); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			err = apperr.NotFound("Issue not found or permission denied.")
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Issue deleted successfully."})
}

// AdminIssues handles GET /admin/issues.
func (h *Handlers) AdminIssues(c *gin.Context) {
	issues, err := h.issues.ListAll(c.Request.Context(), subject(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "issues": issues})
}

// AdminIssue handles GET /admin/issues/:id.
func (h *Handlers) AdminIssue(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	issue, err := h.issues.Get(c.Request.Context(), subject(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "issue": issue})
}

// AdminIssuesGeoJSON handles GET /admin/issues/geojson.
func (h *Handlers) AdminIssuesGeoJSON(c *gin.Context) {
	fc, err := h.issues.ExportGeoJSON(c.Request.Context(), subject(c))
	if err != nil {
		respondError(c, err)
		return
	}
	body, err := fc.MarshalJSON()
	if err != nil {
		respondError(c, apperr.Storage("Failed to encode issues.", err))
		return
	}
	c.Data(http.StatusOK, "application/geo+json", body)
}

// ResolvedIssues handles GET /admin/resolved-issues.
func (h *Handlers) ResolvedIssues(c *gin.Context) {
	issues, err := h.issues.ListResolved(c.Request.Context(), subject(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "issues": issues})
}

// ResolvedIssue handles GET /admin/resolved-issues/:id.
func (h *Handlers) ResolvedIssue(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	issue, err := h.issues.GetResolved(c.Request.Context(), subject(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "issue": issue})
}

// MarkUnderProcess handles PUT /admin/issues/:id/under-process.
func (h *Handlers) MarkUnderProcess(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.issues.MarkUnderProcess(c.Request.Context(), subject(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Issue status updated to under process."})
}

// ResolveIssue handles POST /admin/issues/:id/resolve.
func (h *Handlers) ResolveIssue(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var req models.ResolveRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, apperr.Validation("Response is required.", "response"))
		return
	}

	resolved, err := h.issues.Resolve(c.Request.Context(), subject(c), id, req.Response)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Issue resolved successfully.",
		"issue":   resolved,
	})
}

// AdminDeleteIssue handles DELETE /admin/issues/:id.
func (h *Handlers) AdminDeleteIssue(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.issues.DeleteAsAdmin(c.Request.Context(), subject(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Issue deleted successfully."})
}
