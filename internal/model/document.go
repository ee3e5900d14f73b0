package model

import "time"

// Document is an uploaded file and the latest aggregated analysis results for it.
type Document struct {
	ID              string          `gorm:"primaryKey;size:36" json:"id"`
	Name            string          `gorm:"size:256;not null" json:"name"`
	Size            int64           `gorm:"not null" json:"size"`
	ContentType     string          `gorm:"size:128" json:"content_type,omitempty"`
	PageCount       int             `json:"page_count,omitempty"`
	ObjectKey       string          `gorm:"size:512" json:"-"`
	UploadedAt      time.Time       `gorm:"not null;index" json:"uploaded_at"`
	AnalysisResults AnalysisResults `gorm:"serializer:json;type:json" json:"analysis_results"`
}
