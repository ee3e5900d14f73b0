package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"finance-doc-analyzer/internal/analysis"
	"finance-doc-analyzer/internal/app"
	"finance-doc-analyzer/internal/model"
	"finance-doc-analyzer/internal/pkg/logger"
	"finance-doc-analyzer/internal/transport/http/response"
)

type DocumentService interface {
	Upload(ctx context.Context, input app.UploadInput) (*model.Document, error)
	List(ctx context.Context, limit int) ([]model.Document, error)
	Get(ctx context.Context, id string) (*model.Document, error)
	Delete(ctx context.Context, id string) error
	MaxUploadBytes() int64
}

type AnalysisService interface {
	Run(ctx context.Context, req model.AnalysisRequest) (*app.RunResult, error)
	Enqueue(ctx context.Context, req model.AnalysisRequest) error
	Types() []model.AnalysisType
}

type DocumentHandler struct {
	documents DocumentService
	analysis  AnalysisService
}

type AnalyzeRequest struct {
	Query string `json:"query" form:"query" binding:"max=4000"`
}

func NewDocumentHandler(documents DocumentService, analysis AnalysisService) *DocumentHandler {
	return &DocumentHandler{documents: documents, analysis: analysis}
}

// Upload accepts a multipart form with "file" and an optional display "name".
func (h *DocumentHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file")
		return
	}
	maxBytes := h.documents.MaxUploadBytes()
	if file.Size > maxBytes {
		response.Error(c, http.StatusRequestEntityTooLarge, response.CodeFileTooLarge,
			"file too large (max "+strconv.FormatInt(maxBytes>>20, 10)+"MB)")
		return
	}

	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return
	}

	doc, err := h.documents.Upload(c.Request.Context(), app.UploadInput{
		Filename:    file.Filename,
		Name:        c.PostForm("name"),
		ContentType: file.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid file name")
		case errors.Is(err, app.ErrEmptyFile):
			response.Error(c, http.StatusBadRequest, response.CodeEmptyFile, err.Error())
		case errors.Is(err, app.ErrFileTooLarge):
			response.Error(c, http.StatusRequestEntityTooLarge, response.CodeFileTooLarge, err.Error())
		default:
			logger.FromContext(c.Request.Context()).Error("upload document failed", "error", err)
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "upload failed")
		}
		return
	}
	response.OK(c, doc)
}

func (h *DocumentHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	docs, err := h.documents.List(c.Request.Context(), limit)
	if err != nil {
		logger.FromContext(c.Request.Context()).Error("list documents failed", "error", err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list documents failed")
		return
	}
	response.OK(c, docs)
}

func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.documents.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.documentError(c, err, "get document failed")
		return
	}
	response.OK(c, doc)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.documents.Delete(c.Request.Context(), id); err != nil {
		h.documentError(c, err, "delete document failed")
		return
	}
	response.OK(c, gin.H{"deleted_document_id": id})
}

// Analyze runs every registered analysis against the document. With
// ?async=true the run is queued and 202 is returned.
func (h *DocumentHandler) Analyze(c *gin.Context) {
	var body AnalyzeRequest
	if err := c.ShouldBind(&body); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	req := model.AnalysisRequest{
		DocumentID: strings.TrimSpace(c.Param("id")),
		Query:      body.Query,
	}
	ctx := c.Request.Context()

	if async, _ := strconv.ParseBool(c.Query("async")); async {
		if err := h.analysis.Enqueue(ctx, req); err != nil {
			if errors.Is(err, app.ErrEnqueue) {
				logger.FromContext(ctx).Error("enqueue analysis failed", "error", err)
				response.Error(c, http.StatusServiceUnavailable, response.CodeEnqueueFailed, "analysis queue unavailable")
				return
			}
			h.documentError(c, err, "enqueue analysis failed")
			return
		}
		response.Accepted(c, gin.H{"document_id": req.DocumentID, "queued": true})
		return
	}

	result, err := h.analysis.Run(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrPersistence):
			response.ErrorWithData(c, http.StatusInternalServerError, response.CodeNotPersisted,
				"analysis results not persisted", result)
		case errors.Is(err, app.ErrBlobUnavailable):
			response.Error(c, http.StatusInternalServerError, response.CodeBlobUnavailable, "document file unavailable")
		default:
			h.documentError(c, err, "analysis failed")
		}
		return
	}
	response.OK(c, result)
}

func (h *DocumentHandler) Types(c *gin.Context) {
	types := h.analysis.Types()
	if types == nil {
		types = []model.AnalysisType{}
	}
	response.OK(c, gin.H{"types": types})
}

// Results returns stored outcomes in registry order.
func (h *DocumentHandler) Results(c *gin.Context) {
	doc, err := h.documents.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.documentError(c, err, "get document failed")
		return
	}
	response.OK(c, gin.H{
		"document_id": doc.ID,
		"results":     analysis.Ordered(doc.AnalysisResults, h.analysis.Types()),
	})
}

func (h *DocumentHandler) documentError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
	case errors.Is(err, app.ErrDocumentNotFound):
		response.Error(c, http.StatusNotFound, response.CodeDocumentNotFound, "document not found")
	default:
		logger.FromContext(c.Request.Context()).Error(fallback, "error", err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}
