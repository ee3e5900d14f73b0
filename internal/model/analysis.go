package model

import "encoding/json"

type AnalysisType string

const (
	AnalysisGeneral    AnalysisType = "general"
	AnalysisInvestment AnalysisType = "investment"
	AnalysisRisk       AnalysisType = "risk"
	AnalysisVerify     AnalysisType = "verify"
)

type AnalysisStatus string

const (
	StatusPending   AnalysisStatus = "pending"
	StatusCompleted AnalysisStatus = "completed"
	StatusFailed    AnalysisStatus = "failed"
)

// AnalysisOutcome is the result of one analysis type for one document.
// Payload is set only when completed, Error only when failed.
type AnalysisOutcome struct {
	Type    AnalysisType    `json:"type"`
	Status  AnalysisStatus  `json:"status"`
	Payload json.RawMessage `json:"analysis,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func PendingOutcome(t AnalysisType) AnalysisOutcome {
	return AnalysisOutcome{Type: t, Status: StatusPending}
}

func CompletedOutcome(t AnalysisType, payload json.RawMessage) AnalysisOutcome {
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	return AnalysisOutcome{Type: t, Status: StatusCompleted, Payload: payload}
}

func FailedOutcome(t AnalysisType, message string) AnalysisOutcome {
	if message == "" {
		message = "analysis failed"
	}
	return AnalysisOutcome{Type: t, Status: StatusFailed, Error: message}
}

// Terminal reports whether the outcome can no longer change.
func (o AnalysisOutcome) Terminal() bool {
	return o.Status == StatusCompleted || o.Status == StatusFailed
}

// AnalysisResults maps an analysis type to its outcome.
type AnalysisResults map[AnalysisType]AnalysisOutcome

// AnalysisRequest is the input of one orchestration run.
type AnalysisRequest struct {
	DocumentID string `json:"document_id"`
	Query      string `json:"query"`
}
