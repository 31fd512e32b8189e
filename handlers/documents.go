package handlers

import (
	"net/http"

	"github.com/Nathansuares/SkySafe/apperr"
	"github.com/Nathansuares/SkySafe/submission"

	"github.com/gin-gonic/gin"
)

// CreateDocument handles POST /documents.
func (h *Handlers) CreateDocument(c *gin.Context) {
	form, file, err := h.readForm(c, "document_file_path")
	if err != nil {
		respondError(c, err)
		return
	}
	in, err := submission.ParseDocument(form)
	if err != nil {
		respondError(c, err)
		return
	}

	doc, err := h.documents.Create(c.Request.Context(), subject(c), in, file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"message":  "Document submitted successfully!",
		"document": doc,
	})
}

// MyDocuments handles GET /my-documents.
func (h *Handlers) MyDocuments(c *gin.Context) {
	docs, err := h.documents.ListMine(c.Request.Context(), subject(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "documents": docs})
}

// DeleteDocument handles DELETE /documents/:id.
func (h *Handlers) DeleteDocument(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.documents.DeleteOwned(c.Request.Context(), subject(c), id); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			err = apperr.NotFound("Document not found or permission denied.")
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Document deleted successfully."})
}
