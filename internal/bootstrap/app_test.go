package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"finance-doc-analyzer/internal/analysis"
	"finance-doc-analyzer/internal/config"
)

func TestRegistryEntries(t *testing.T) {
	entries := registryEntries([]config.AnalysisTypeConfig{
		{Name: "general", Path: "/analyze", DefaultQuery: "q1"},
		{Name: "risk", Path: "/risk"},
	})

	assert.Equal(t, []analysis.RegistryEntry{
		{Name: "general", Path: "/analyze", DefaultQuery: "q1"},
		{Name: "risk", Path: "/risk"},
	}, entries)
	assert.Empty(t, registryEntries(nil))
}

func TestCloseWithoutResources(t *testing.T) {
	assert.NoError(t, (&App{}).Close())
}
