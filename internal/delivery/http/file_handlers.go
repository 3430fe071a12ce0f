package http

import (
	"fmt"
	"io"
	"net/http"

	"vmp-edtech-backend/internal/domain"

	"github.com/gin-gonic/gin"
)

// UploadEvidence takes a multipart form with file, tareaId and an optional
// comentario.
func (h *Handler) UploadEvidence(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": err.Error()})
		return
	}

	taskID := c.PostForm("tareaId")
	if taskID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "tareaId is required"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "File is required"})
		return
	}
	defer file.Close()

	evidence, err := h.EvidenceUsecase.Upload(c.Request.Context(), userID, taskID, file, header.Filename, header.Size, c.PostForm("comentario"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "evidencia": evidence})
}

func (h *Handler) ListTaskEvidence(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": err.Error()})
		return
	}
	list, err := h.EvidenceUsecase.ListByTask(c.Request.Context(), userID, c.Param("tareaId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) DeleteEvidence(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID, err := getUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": err.Error()})
		return
	}
	if err := h.EvidenceUsecase.Delete(c.Request.Context(), userID, id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Evidencia eliminada"})
}

func (h *Handler) ListPendingEvidence(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": err.Error()})
		return
	}
	list, err := h.EvidenceUsecase.ListPending(c.Request.Context(), actor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) EvaluateEvidence(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	actor, err := getActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": err.Error()})
		return
	}
	var req struct {
		Status   domain.EvidenceStatus `json:"estado" binding:"required"`
		Feedback string                `json:"feedback"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}

	evidence, err := h.EvidenceUsecase.Evaluate(c.Request.Context(), actor, id, req.Status, req.Feedback)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, evidence)
}

// EvidencePhoto streams a stored photo to its owner or to a reviewer.
func (h *Handler) EvidencePhoto(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	actor, err := getActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": err.Error()})
		return
	}

	stream, info, err := h.EvidenceUsecase.Photo(c.Request.Context(), actor, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer stream.Close()

	c.Header("Content-Type", info.ContentType)
	c.Header("Content-Length", fmt.Sprintf("%d", info.Size))
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", info.Filename))
	c.Header("Cache-Control", "private, max-age=300")

	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, stream); err != nil {
		// headers are already sent
		h.Log.Warn("photo stream interrupted", "evidence_id", id, "error", err)
	}
}
