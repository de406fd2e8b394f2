package analyzer

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/snaptoflash/backend/apimodels"
)

const (
	stubConfidence = 0.5

	WarningNoCredential = "OPENAI_API_KEY not set; using stub."
)

// Stub returns the placeholder payload used when real extraction cannot be
// performed. Only the note id differs between calls.
func Stub(pageID, warning string) *apimodels.AnalysisResponse {
	warnings := make([]string, 0, 1)
	if warning != "" {
		warnings = append(warnings, warning)
	}
	return &apimodels.AnalysisResponse{
		PageID:      pageID,
		Confidence:  stubConfidence,
		NeedsReview: true,
		Warnings:    warnings,
		Annotations: make([]apimodels.Annotation, 0),
		Notes: []apimodels.Note{
			{
				ID:               uuid.NewString(),
				ExpressionOrWord: "example",
				Reading:          "",
				Meaning:          "Sample card (stub response).",
				Example:          "Replace with real output once LLM is configured.",
				Confidence:       stubConfidence,
				NeedsReview:      true,
			},
		},
	}
}

// FailureWarning formats the warning attached to a stub that replaced a failed analysis.
func FailureWarning(err error) string {
	return fmt.Sprintf("LLM failure (%v); returning stub.", err)
}

// UploadWarning formats the warning attached to a stub for an unusable upload.
func UploadWarning(reason string) string {
	return fmt.Sprintf("Invalid upload (%s); returning stub.", reason)
}
