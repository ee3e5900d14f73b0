package analysis

import "finance-doc-analyzer/internal/model"

// Merge folds outcomes into a fresh map keyed by type. A type that appears
// more than once keeps its last occurrence.
func Merge(outcomes []model.AnalysisOutcome) model.AnalysisResults {
	merged := make(model.AnalysisResults, len(outcomes))
	for _, o := range outcomes {
		merged[o.Type] = o
	}
	return merged
}

// Ordered lists results following the given type order, skipping types that
// have no result.
func Ordered(results model.AnalysisResults, order []model.AnalysisType) []model.AnalysisOutcome {
	out := make([]model.AnalysisOutcome, 0, len(results))
	for _, t := range order {
		if o, ok := results[t]; ok {
			out = append(out, o)
		}
	}
	return out
}
