package analysis

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"finance-doc-analyzer/internal/model"
	"finance-doc-analyzer/internal/pkg/logger"
)

func TestRunAllLogsCarryRequestID(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(logger.New(&buf, "info", "text"))
	t.Cleanup(func() { slog.SetDefault(prev) })

	c := NewCoordinator(newFakeInvoker(), []Registration{
		{Type: model.AnalysisGeneral},
		{Type: model.AnalysisRisk},
	}, CoordinatorConfig{})
	ctx := logger.WithRequestID(context.Background(), "req-42")

	c.RunAll(ctx, "doc-1", Invocation{})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 3)
	for _, line := range lines {
		assert.Contains(t, line, "request_id=req-42")
		assert.Contains(t, line, "document_id=doc-1")
	}
	assert.Contains(t, lines[2], "analysis fan-out finished")
}
