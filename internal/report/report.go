// Package report renders a completed assessment as a PDF document.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/signintech/gopdf"

	"github.com/getmedsage/medsage/pkg/models"
)

// defaultFontPaths are the usual DejaVuSans locations on Debian and Alpine
// images.
var defaultFontPaths = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
}

const (
	fontName  = "DejaVu"
	textWidth = 500
	pageFloor = 790
)

// Generator produces assessment PDFs. The zero value searches the default
// font paths; set FontPath to use a specific TTF file.
type Generator struct {
	FontPath string
}

// Generate renders the assessment state as an A4 PDF. The state must carry a
// final summary.
func (g *Generator) Generate(state *models.WorkflowState) ([]byte, error) {
	if state.FinalSummary == nil {
		return nil, fmt.Errorf("assessment has no final summary")
	}
	summary := state.FinalSummary

	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	if err := g.loadFont(pdf); err != nil {
		return nil, err
	}

	w := &writer{pdf: pdf}
	w.heading(20, "Medical Assessment Report")
	w.gap(10)

	w.heading(14, "Patient")
	w.line(fmt.Sprintf("Name: %s", summary.PatientName))
	w.line(fmt.Sprintf("Age: %d    Gender: %s", state.Patient.Age, state.Patient.Gender))
	w.line(fmt.Sprintf("Assessment date: %s", summary.AssessmentDate.Format("2006-01-02 15:04 MST")))
	w.gap(8)

	w.heading(14, "Reported Symptoms")
	if len(summary.Symptoms) == 0 {
		w.line("- none recorded")
	}
	for _, symptom := range summary.Symptoms {
		w.line("- " + symptom)
	}
	w.gap(8)

	w.heading(14, "Top Diagnoses")
	if len(summary.TopDiagnoses) == 0 {
		w.line("- no diagnoses produced")
	}
	for i, d := range summary.TopDiagnoses {
		w.line(fmt.Sprintf("%d. %s", i+1, models.FormatDiagnosis(d)))
	}
	w.gap(8)

	w.heading(14, "Recommended Treatments")
	if len(summary.Treatments) == 0 {
		w.line("- none recommended")
	}
	for _, t := range summary.Treatments {
		text := models.FormatTreatment(t)
		if t.Contraindicated {
			text += "  ** CONTRAINDICATED: " + t.ContraindicationNote + " **"
		}
		w.line(text)
	}
	w.gap(8)

	if len(summary.DiagnosticTests) > 0 {
		w.heading(14, "Diagnostic Tests")
		for _, test := range summary.DiagnosticTests {
			w.line("- " + test)
		}
		w.gap(8)
	}

	if len(summary.NextSteps) > 0 {
		w.heading(14, "Next Steps")
		for _, step := range summary.NextSteps {
			w.line("- " + step)
		}
		w.gap(8)
	}

	if len(summary.SafetyWarnings) > 0 {
		w.heading(14, "Safety Warnings")
		for _, warning := range summary.SafetyWarnings {
			w.line("! " + warning)
		}
		w.gap(8)
	}

	w.heading(14, "Assessment Quality")
	w.line(fmt.Sprintf("Quality score: %s    Risk level: %s",
		models.FormatConfidence(summary.QualityScore), models.RiskLevel(summary.QualityScore)))
	w.gap(12)

	w.setFont(9)
	w.line("This report was produced by an AI assessment pipeline and is not a"+
		" medical diagnosis. Review by a qualified clinician is required.")

	if w.err != nil {
		return nil, w.err
	}

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// loadFont registers the TTF font, trying the configured path first and the
// well-known system locations after it.
func (g *Generator) loadFont(pdf *gopdf.GoPdf) error {
	paths := defaultFontPaths
	if g.FontPath != "" {
		paths = append([]string{g.FontPath}, defaultFontPaths...)
	}

	var lastErr error
	for _, path := range paths {
		if err := pdf.AddTTFFont(fontName, path); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	return fmt.Errorf("failed to load a TTF font (tried %s): %w",
		strings.Join(paths, ", "), lastErr)
}

// writer tracks the first error gopdf reports. Cell and Br cannot fail
// unless a font call failed first.
type writer struct {
	pdf *gopdf.GoPdf
	err error
}

func (w *writer) setFont(size float64) {
	if w.err != nil {
		return
	}
	w.err = w.pdf.SetFont(fontName, "", size)
}

func (w *writer) heading(size float64, text string) {
	w.setFont(size)
	if w.err != nil {
		return
	}
	w.pageBreak()
	w.err = w.pdf.Cell(nil, text)
	w.pdf.Br(size + 6)
	w.setFont(11)
}

func (w *writer) line(text string) {
	if w.err != nil {
		return
	}
	lines, err := w.pdf.SplitText(text, textWidth)
	if err != nil {
		lines = []string{text}
	}
	for _, l := range lines {
		w.pageBreak()
		if w.err = w.pdf.Cell(nil, l); w.err != nil {
			return
		}
		w.pdf.Br(14)
	}
}

func (w *writer) gap(points float64) {
	if w.err != nil {
		return
	}
	w.pdf.Br(points)
}

func (w *writer) pageBreak() {
	if w.pdf.GetY() > pageFloor {
		w.pdf.AddPage()
	}
}
