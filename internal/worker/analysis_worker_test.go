package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance-doc-analyzer/internal/app"
	"finance-doc-analyzer/internal/model"
	"finance-doc-analyzer/internal/pkg/logger"
)

type fakeRunner struct {
	err       error
	got       []model.AnalysisRequest
	requestID string
}

func (r *fakeRunner) Run(ctx context.Context, req model.AnalysisRequest) (*app.RunResult, error) {
	r.got = append(r.got, req)
	r.requestID = logger.RequestID(ctx)
	if r.err != nil {
		return nil, r.err
	}
	return &app.RunResult{DocumentID: req.DocumentID, Persisted: true, AnalysisResults: model.AnalysisResults{}}, nil
}

func TestHandleRunsRequest(t *testing.T) {
	runner := &fakeRunner{}
	w := NewAnalysisWorker(nil, runner, "q", 0)

	v := w.handle(context.Background(), "doc-1", []byte(`{"document_id":"doc-1","query":"margins"}`))

	assert.Equal(t, ack, v)
	require.Len(t, runner.got, 1)
	assert.Equal(t, model.AnalysisRequest{DocumentID: "doc-1", Query: "margins"}, runner.got[0])
	assert.Equal(t, "doc-1", runner.requestID)
}

func TestHandleVerdicts(t *testing.T) {
	cases := []struct {
		name string
		body string
		err  error
		want verdict
	}{
		{name: "bad json", body: `{not json`, want: drop},
		{name: "missing document", body: `{"document_id":"x"}`, err: app.ErrDocumentNotFound, want: drop},
		{name: "invalid", body: `{}`, err: app.ErrInvalidInput, want: drop},
		{name: "persistence", body: `{"document_id":"x"}`, err: fmt.Errorf("%w: %w", app.ErrPersistence, errors.New("db gone")), want: requeue},
		{name: "blob", body: `{"document_id":"x"}`, err: app.ErrBlobUnavailable, want: requeue},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := NewAnalysisWorker(nil, &fakeRunner{err: tc.err}, "q", 1)
			assert.Equal(t, tc.want, w.handle(context.Background(), "m", []byte(tc.body)))
		})
	}
}
