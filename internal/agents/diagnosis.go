package agents

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/getmedsage/medsage/internal/llm"
	"github.com/getmedsage/medsage/pkg/models"
)

const (
	defaultDiagnosisConfidence = 0.65
	maxDiagnosisConfidence     = 0.95
	maxDiagnoses               = 5
	maxIndicators              = 5
)

var percentPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)

// indicatorKeywords anchor the lines the parser accepts as supporting
// symptoms for a diagnosis.
var indicatorKeywords = []string{
	"fever", "cough", "headache", "body ache", "nausea",
	"vomiting", "rash", "shortness", "sore throat",
}

// DiagnosisAgent turns symptoms plus knowledge-base context into ranked
// differential diagnoses.
type DiagnosisAgent struct {
	llm llm.Completer
	log *slog.Logger
}

// NewDiagnosisAgent creates a DiagnosisAgent using the given model client.
func NewDiagnosisAgent(completer llm.Completer, log *slog.Logger) *DiagnosisAgent {
	return &DiagnosisAgent{llm: completer, log: log}
}

// GenerateDiagnoses asks the model for differential diagnoses and parses them
// against the disease names retrieved by the data stage. With no retrieved
// diseases the parser has nothing to anchor on and the result is empty, which
// is a valid outcome, not an error.
func (a *DiagnosisAgent) GenerateDiagnoses(ctx context.Context, patient models.Patient, data *models.MedicalData) ([]models.Diagnosis, error) {
	a.log.Info("generating diagnoses")

	response, err := a.llm.Complete(ctx, buildDiagnosisPrompt(patient, data))
	if err != nil {
		return nil, fmt.Errorf("diagnosis generation: %w", err)
	}

	names := make([]string, 0, len(data.Diseases))
	for _, d := range data.Diseases {
		names = append(names, d.Name)
	}

	diagnoses := parseDiagnoses(response, names)
	a.log.Info("generated diagnoses", "count", len(diagnoses))
	return diagnoses, nil
}

func buildDiagnosisPrompt(patient models.Patient, data *models.MedicalData) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Patient Information:\n")
	fmt.Fprintf(&b, "- Age: %d\n", patient.Age)
	fmt.Fprintf(&b, "- Gender: %s\n", patient.Gender)
	fmt.Fprintf(&b, "- Medical History: %s\n\n", joinOrNone(patient.MedicalHistory))

	fmt.Fprintf(&b, "Symptoms:\n")
	for _, s := range patient.Symptoms {
		severity := s.Severity
		if severity == "" {
			severity = models.SeverityModerate
		}
		fmt.Fprintf(&b, "- %s (severity: %s)\n", s.Name, severity)
	}

	fmt.Fprintf(&b, "\nPossible Diseases from Knowledge Base:\n")
	for _, d := range data.Diseases {
		fmt.Fprintf(&b, "- %s\n", d.Name)
	}

	b.WriteString(`
Based on this information, provide differential diagnoses.
For each diagnosis, provide:
1. Disease name
2. Confidence score (0.0-1.0, max 0.95)
3. Key indicators (3-5 symptoms that support this diagnosis)
4. Supporting evidence from the medical data

Format your response as a structured list.
`)
	return b.String()
}

// parseDiagnoses matches the candidate disease names against the response
// text. A name counts as diagnosed when it appears anywhere in the response;
// its confidence comes from a percentage on a line mentioning the name,
// capped at 0.95, or the 0.65 default. Results are sorted by confidence,
// ties keep name order, and the top five are returned.
func parseDiagnoses(response string, diseaseNames []string) []models.Diagnosis {
	lower := strings.ToLower(response)
	lines := strings.Split(response, "\n")

	var diagnoses []models.Diagnosis
	for _, disease := range diseaseNames {
		if !strings.Contains(lower, strings.ToLower(disease)) {
			continue
		}

		confidence := defaultDiagnosisConfidence
		for _, line := range lines {
			lineLower := strings.ToLower(line)
			if !strings.Contains(lineLower, strings.ToLower(disease)) || !strings.Contains(line, "%") {
				continue
			}
			if m := percentPattern.FindStringSubmatch(line); m != nil {
				if v, err := strconv.ParseFloat(m[1], 64); err == nil {
					confidence = min(v/100, maxDiagnosisConfidence)
				}
			}
		}

		diagnoses = append(diagnoses, models.Diagnosis{
			Disease:    disease,
			Confidence: confidence,
			Indicators: extractIndicators(lines, disease),
		})
	}

	sort.SliceStable(diagnoses, func(i, j int) bool {
		return diagnoses[i].Confidence > diagnoses[j].Confidence
	})
	if len(diagnoses) > maxDiagnoses {
		diagnoses = diagnoses[:maxDiagnoses]
	}
	return diagnoses
}

// extractIndicators collects symptom lines within three lines of any mention
// of the disease, deduplicated in first-seen order.
func extractIndicators(lines []string, disease string) []string {
	diseaseLower := strings.ToLower(disease)

	var indicators []string
	seen := make(map[string]bool)
	for i, line := range lines {
		if !strings.Contains(strings.ToLower(line), diseaseLower) {
			continue
		}
		for j := max(0, i-3); j < min(len(lines), i+4); j++ {
			lineLower := strings.ToLower(lines[j])
			for _, keyword := range indicatorKeywords {
				if !strings.Contains(lineLower, keyword) {
					continue
				}
				indicator := trimBullet(lines[j])
				if len(indicator) > 5 && !seen[indicator] {
					seen[indicator] = true
					indicators = append(indicators, indicator)
				}
				break
			}
		}
	}

	if len(indicators) > maxIndicators {
		indicators = indicators[:maxIndicators]
	}
	return indicators
}

// trimBullet strips list markers and surrounding whitespace from a line.
func trimBullet(line string) string {
	return strings.TrimSpace(strings.TrimLeft(line, "-•* \t"))
}

// joinOrNone joins items with commas, or returns "None" for an empty list.
func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	return strings.Join(items, ", ")
}
