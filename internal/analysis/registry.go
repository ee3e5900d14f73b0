package analysis

import (
	"strings"

	"finance-doc-analyzer/internal/model"
)

type RegistryEntry struct {
	Name         string
	Path         string
	DefaultQuery string
}

// BuildRegistry resolves endpoint paths against baseURL, keeping order.
func BuildRegistry(baseURL string, entries []RegistryEntry) []Registration {
	regs := make([]Registration, 0, len(entries))
	for _, e := range entries {
		regs = append(regs, Registration{
			Type:         model.AnalysisType(strings.TrimSpace(e.Name)),
			URL:          joinURL(baseURL, e.Path),
			DefaultQuery: e.DefaultQuery,
		})
	}
	return regs
}

func joinURL(baseURL, path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	base := strings.TrimRight(baseURL, "/")
	if path == "" {
		return base
	}
	return base + "/" + strings.TrimLeft(path, "/")
}
