package app

import (
	"context"
	"io"
	"time"

	"finance-doc-analyzer/internal/analysis"
	"finance-doc-analyzer/internal/model"
)

// DocumentGateway is the document store the services read and write.
type DocumentGateway interface {
	Create(ctx context.Context, doc *model.Document) error
	Exists(ctx context.Context, id string) (bool, error)
	GetByID(ctx context.Context, id string) (*model.Document, error)
	ListRecent(ctx context.Context, limit int) ([]model.Document, error)
	ReplaceAnalysisResults(ctx context.Context, id string, results model.AnalysisResults) error
	DeleteByID(ctx context.Context, id string) (int64, error)
}

type DocumentCache interface {
	Get(ctx context.Context, id string) (*model.Document, bool, error)
	// Set reports false when an invalidation newer than readAt dropped the fill.
	Set(ctx context.Context, doc *model.Document, readAt time.Time) (bool, error)
	Delete(ctx context.Context, id string) error
}

type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Remove(ctx context.Context, key string) error
}

type AnalysisPublisher interface {
	Publish(ctx context.Context, req model.AnalysisRequest) error
}

// FanOut runs every registered analysis for one invocation.
type FanOut interface {
	RunAll(ctx context.Context, documentID string, in analysis.Invocation) []model.AnalysisOutcome
	Types() []model.AnalysisType
}
