package models

import (
	"fmt"
	"strings"
)

// Risk buckets a quality score for display
type Risk string

const (
	RiskLow      Risk = "LOW"
	RiskModerate Risk = "MODERATE"
	RiskHigh     Risk = "HIGH"
)

// FormatConfidence renders a 0..1 confidence as a percentage.
func FormatConfidence(confidence float64) string {
	return fmt.Sprintf("%.1f%%", confidence*100)
}

// FormatDiagnosis renders a diagnosis for human-readable output.
func FormatDiagnosis(d Diagnosis) string {
	return fmt.Sprintf("%s (confidence: %s)", d.Disease, FormatConfidence(d.Confidence))
}

// FormatTreatment renders a treatment with its type tag.
func FormatTreatment(t Treatment) string {
	return fmt.Sprintf("[%s] %s", strings.ToUpper(string(t.Type)), t.Recommendation)
}

// FormatDate reduces an ISO 8601 timestamp to its date part. Values without a
// time component pass through unchanged.
func FormatDate(timestamp string) string {
	if idx := strings.Index(timestamp, "T"); idx >= 0 {
		return timestamp[:idx]
	}
	return timestamp
}

// RiskLevel buckets a quality score: high scores mean the assessment is
// dependable, so the risk of acting on it is low.
func RiskLevel(qualityScore float64) Risk {
	switch {
	case qualityScore >= 0.75:
		return RiskLow
	case qualityScore >= 0.5:
		return RiskModerate
	default:
		return RiskHigh
	}
}
