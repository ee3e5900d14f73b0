package app

import (
	"errors"

	"finance-doc-analyzer/internal/repository"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrDocumentNotFound = repository.ErrDocumentNotFound
	ErrPersistence      = errors.New("analysis results not persisted")
	ErrBlobUnavailable  = errors.New("document file unavailable")
	ErrEnqueue          = errors.New("analysis enqueue failed")
	ErrEmptyFile        = errors.New("uploaded file is empty")
	ErrFileTooLarge     = errors.New("uploaded file is too large")
)
