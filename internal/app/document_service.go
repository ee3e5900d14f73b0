package app

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"finance-doc-analyzer/internal/model"
	"finance-doc-analyzer/internal/pkg/logger"
	"finance-doc-analyzer/internal/pkg/pdfinfo"
)

const defaultMaxUploadBytes = 100 << 20

type DocumentService struct {
	documents      DocumentGateway
	blobs          BlobStore
	cache          DocumentCache
	maxUploadBytes int64
	now            func() time.Time
}

type UploadInput struct {
	Filename    string
	Name        string
	ContentType string
	Data        []byte
}

func NewDocumentService(documents DocumentGateway, blobs BlobStore, cache DocumentCache, maxUploadBytes int64) *DocumentService {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &DocumentService{
		documents:      documents,
		blobs:          blobs,
		cache:          cache,
		maxUploadBytes: maxUploadBytes,
		now:            time.Now,
	}
}

func (s *DocumentService) MaxUploadBytes() int64 {
	return s.maxUploadBytes
}

// Upload stores the file (when object storage is configured) and creates the
// document record with empty analysis results.
func (s *DocumentService) Upload(ctx context.Context, input UploadInput) (*model.Document, error) {
	filename := filepath.Base(strings.TrimSpace(input.Filename))
	if filename == "" || filename == "." || filename == "/" {
		return nil, ErrInvalidInput
	}
	if len(input.Data) == 0 {
		return nil, ErrEmptyFile
	}
	if int64(len(input.Data)) > s.maxUploadBytes {
		return nil, ErrFileTooLarge
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = filename
	}
	doc := &model.Document{
		ID:              uuid.NewString(),
		Name:            name,
		Size:            int64(len(input.Data)),
		ContentType:     strings.TrimSpace(input.ContentType),
		UploadedAt:      s.now().UTC(),
		AnalysisResults: model.AnalysisResults{},
	}
	log := logger.FromContext(ctx).With("document_id", doc.ID)

	if pdfinfo.IsPDF(input.Data) {
		if pages, err := pdfinfo.PageCount(input.Data); err == nil {
			doc.PageCount = pages
		} else {
			log.Warn("read pdf page count failed", "error", err)
		}
	}

	if s.blobs != nil {
		doc.ObjectKey = fmt.Sprintf("documents/%s/%s", doc.ID, filename)
		if err := s.blobs.Put(ctx, doc.ObjectKey, bytes.NewReader(input.Data), doc.Size, doc.ContentType); err != nil {
			return nil, err
		}
	}

	if err := s.documents.Create(ctx, doc); err != nil {
		if s.blobs != nil {
			if rmErr := s.blobs.Remove(ctx, doc.ObjectKey); rmErr != nil {
				log.Warn("remove orphaned object failed", "error", rmErr)
			}
		}
		return nil, err
	}

	log.Info("document uploaded", "name", doc.Name, "size", doc.Size)
	return doc, nil
}

// List returns documents, most recently uploaded first.
func (s *DocumentService) List(ctx context.Context, limit int) ([]model.Document, error) {
	return s.documents.ListRecent(ctx, limit)
}

func (s *DocumentService) Get(ctx context.Context, id string) (*model.Document, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrInvalidInput
	}

	if s.cache != nil {
		if cached, hit, err := s.cache.Get(ctx, id); err == nil && hit {
			return cached, nil
		}
	}

	readAt := s.now()
	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	if s.cache != nil {
		if _, err := s.cache.Set(ctx, doc, readAt); err != nil {
			logger.FromContext(ctx).Warn("fill document cache failed", "document_id", id, "error", err)
		}
	}
	return doc, nil
}

// Delete removes the record, its stored file and its cached view.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidInput
	}
	log := logger.FromContext(ctx).With("document_id", id)

	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return err
	}

	removed, err := s.documents.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, id); err != nil {
			log.Warn("invalidate document cache failed", "error", err)
		}
	}
	if removed == 0 {
		return ErrDocumentNotFound
	}

	if doc != nil && doc.ObjectKey != "" && s.blobs != nil {
		if err := s.blobs.Remove(ctx, doc.ObjectKey); err != nil {
			log.Warn("remove stored object failed", "error", err)
		}
	}
	log.Info("document deleted")
	return nil
}
