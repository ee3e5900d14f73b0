package app

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"finance-doc-analyzer/internal/analysis"
	"finance-doc-analyzer/internal/model"
	"finance-doc-analyzer/internal/pkg/logger"
)

type AnalysisService struct {
	documents DocumentGateway
	fanOut    FanOut
	blobs     BlobStore
	cache     DocumentCache
	publisher AnalysisPublisher
	locks     *keyedMutex
}

// RunResult is what one orchestration run produced. When Persisted is false
// the results were computed but the document still holds its previous ones.
type RunResult struct {
	DocumentID      string                  `json:"document_id"`
	Persisted       bool                    `json:"persisted"`
	Results         []model.AnalysisOutcome `json:"results"`
	AnalysisResults model.AnalysisResults   `json:"analysis_results"`
}

// NewAnalysisService wires the orchestration. blobs, cache and publisher may
// be nil.
func NewAnalysisService(
	documents DocumentGateway,
	fanOut FanOut,
	blobs BlobStore,
	cache DocumentCache,
	publisher AnalysisPublisher,
) *AnalysisService {
	return &AnalysisService{
		documents: documents,
		fanOut:    fanOut,
		blobs:     blobs,
		cache:     cache,
		publisher: publisher,
		locks:     newKeyedMutex(),
	}
}

func (s *AnalysisService) Types() []model.AnalysisType {
	return s.fanOut.Types()
}

// Run analyzes a document with every registered type and replaces its stored
// results. Per-type failures are reported inside the result, never as err.
// On ErrPersistence the computed result is still returned.
func (s *AnalysisService) Run(ctx context.Context, req model.AnalysisRequest) (*RunResult, error) {
	id := strings.TrimSpace(req.DocumentID)
	if id == "" {
		return nil, ErrInvalidInput
	}
	log := logger.FromContext(ctx).With("document_id", id)

	unlock := s.locks.Lock(id)
	defer unlock()

	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}

	att, err := s.attachment(ctx, doc)
	if err != nil {
		log.Error("load document file failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrBlobUnavailable, err)
	}
	invocation := analysis.Invocation{
		Query:      strings.TrimSpace(req.Query),
		Attachment: att,
	}

	// The run outlives the caller so finished calls still get persisted.
	runCtx := context.WithoutCancel(ctx)

	outcomes := s.fanOut.RunAll(runCtx, id, invocation)
	merged := analysis.Merge(outcomes)
	result := &RunResult{
		DocumentID:      id,
		Results:         outcomes,
		AnalysisResults: merged,
	}

	if err := s.documents.ReplaceAnalysisResults(runCtx, id, merged); err != nil {
		log.Error("persist analysis results failed", "error", err)
		return result, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	result.Persisted = true

	if s.cache != nil {
		if err := s.cache.Delete(runCtx, id); err != nil {
			log.Warn("invalidate document cache failed", "error", err)
		}
	}
	return result, nil
}

// Enqueue checks the document exists and hands the run to the worker.
func (s *AnalysisService) Enqueue(ctx context.Context, req model.AnalysisRequest) error {
	req.DocumentID = strings.TrimSpace(req.DocumentID)
	req.Query = strings.TrimSpace(req.Query)
	if req.DocumentID == "" {
		return ErrInvalidInput
	}
	exists, err := s.documents.Exists(ctx, req.DocumentID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrDocumentNotFound
	}
	if s.publisher == nil {
		return ErrEnqueue
	}
	if err := s.publisher.Publish(ctx, req); err != nil {
		return fmt.Errorf("%w: %v", ErrEnqueue, err)
	}
	return nil
}

func (s *AnalysisService) attachment(ctx context.Context, doc *model.Document) (*analysis.Attachment, error) {
	if s.blobs == nil || doc.ObjectKey == "" {
		return nil, nil
	}
	data, err := s.blobs.Get(ctx, doc.ObjectKey)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("stored file is empty")
	}
	name := doc.Name
	if name == "" {
		name = path.Base(doc.ObjectKey)
	}
	return &analysis.Attachment{
		Filename:    name,
		ContentType: doc.ContentType,
		Data:        data,
	}, nil
}
