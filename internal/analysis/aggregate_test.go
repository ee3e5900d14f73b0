package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance-doc-analyzer/internal/model"
)

func TestMergeLastWriteWins(t *testing.T) {
	outcomes := []model.AnalysisOutcome{
		model.CompletedOutcome("risk", json.RawMessage(`{"score":1}`)),
		model.FailedOutcome("general", "http 502"),
		model.FailedOutcome("risk", "timeout"),
	}

	merged := Merge(outcomes)

	require.Len(t, merged, 2)
	assert.Equal(t, model.StatusFailed, merged["risk"].Status)
	assert.Equal(t, "timeout", merged["risk"].Error)
	assert.Equal(t, "http 502", merged["general"].Error)
}

func TestMergeEmpty(t *testing.T) {
	merged := Merge(nil)
	assert.NotNil(t, merged)
	assert.Empty(t, merged)
}

func TestOrdered(t *testing.T) {
	results := model.AnalysisResults{
		"verify":  model.FailedOutcome("verify", "http 500"),
		"general": model.CompletedOutcome("general", json.RawMessage(`{}`)),
		"legacy":  model.CompletedOutcome("legacy", json.RawMessage(`{}`)),
	}

	ordered := Ordered(results, []model.AnalysisType{"general", "investment", "verify"})

	require.Len(t, ordered, 2)
	assert.Equal(t, model.AnalysisType("general"), ordered[0].Type)
	assert.Equal(t, model.AnalysisType("verify"), ordered[1].Type)
}

// Four remote services: two answer, one hangs past the call timeout and one
// returns a server error.
func TestFanOutScenarioMixedOutcomes(t *testing.T) {
	release := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("/analyze", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"score":1}`))
	})
	mux.HandleFunc("/risk", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"score":2}`))
	})
	mux.HandleFunc("/investment", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	mux.HandleFunc("/verify", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	defer server.Close()
	defer close(release)

	registry := BuildRegistry(server.URL, []RegistryEntry{
		{Name: "general", Path: "/analyze"},
		{Name: "investment", Path: "/investment"},
		{Name: "risk", Path: "/risk"},
		{Name: "verify", Path: "/verify"},
	})
	coord := NewCoordinator(NewHTTPClient(100*time.Millisecond), registry, CoordinatorConfig{})

	merged := Merge(coord.RunAll(context.Background(), "doc-1", Invocation{Query: "q"}))

	require.Len(t, merged, 4)
	assert.Equal(t, model.StatusCompleted, merged["general"].Status)
	assert.JSONEq(t, `{"score":1}`, string(merged["general"].Payload))
	assert.Equal(t, model.StatusCompleted, merged["risk"].Status)
	assert.JSONEq(t, `{"score":2}`, string(merged["risk"].Payload))
	assert.Equal(t, model.StatusFailed, merged["investment"].Status)
	assert.Equal(t, "timeout", merged["investment"].Error)
	assert.Equal(t, model.StatusFailed, merged["verify"].Status)
	assert.Equal(t, "http 500", merged["verify"].Error)
}
