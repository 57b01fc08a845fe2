package knowledge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmedsage/medsage/internal/logger"
	"github.com/getmedsage/medsage/pkg/models"
)

func testBase(t *testing.T) *Base {
	t.Helper()
	base := Load(filepath.Join("testdata", "medical_knowledge_base.json"), logger.Discard())
	require.False(t, base.Empty(), "testdata base should load")
	return base
}

func TestLoad_MissingFileYieldsEmptyBase(t *testing.T) {
	base := Load(filepath.Join(t.TempDir(), "absent.json"), logger.Discard())
	require.NotNil(t, base)
	assert.True(t, base.Empty())
	assert.Empty(t, base.SearchBySymptoms([]string{"fever"}))
}

func TestLoad_MalformedFileYieldsEmptyBase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	base := Load(path, logger.Discard())
	require.NotNil(t, base)
	assert.True(t, base.Empty())
}

func TestSearchBySymptoms_MatchesOnSingleOverlap(t *testing.T) {
	base := testBase(t)

	matches := base.SearchBySymptoms([]string{"fever"})
	names := diseaseNames(matches)
	assert.Equal(t, []string{"Dengue Fever", "Influenza"}, names)
}

func TestSearchBySymptoms_CaseInsensitive(t *testing.T) {
	base := testBase(t)

	matches := base.SearchBySymptoms([]string{"FEVER", "  Cough "})
	names := diseaseNames(matches)
	assert.Equal(t, []string{"Dengue Fever", "Influenza", "Common Cold"}, names)
}

func TestSearchBySymptoms_NoPartialNameMatch(t *testing.T) {
	base := testBase(t)

	// "fev" is not an exact symptom name and must not match anything.
	assert.Empty(t, base.SearchBySymptoms([]string{"fev"}))
}

func TestSearchBySymptoms_DeduplicatesByID(t *testing.T) {
	base := testBase(t)

	// Both symptoms belong to Dengue Fever; it must appear once.
	matches := base.SearchBySymptoms([]string{"headache", "rash"})
	assert.Equal(t, []string{"Dengue Fever"}, diseaseNames(matches))
}

func TestSearchBySymptoms_EmptyInput(t *testing.T) {
	base := testBase(t)
	assert.Empty(t, base.SearchBySymptoms(nil))
}

func TestDisease_CaseInsensitiveLookup(t *testing.T) {
	base := testBase(t)

	d, ok := base.Disease("influenza")
	require.True(t, ok)
	assert.Equal(t, "D002", d.ID)

	_, ok = base.Disease("Ebola")
	assert.False(t, ok)
}

func TestDiagnosticTests(t *testing.T) {
	base := testBase(t)

	tests := base.DiagnosticTests("Dengue Fever")
	assert.Equal(t, []string{"Dengue NS1 antigen test", "Complete blood count"}, tests)

	assert.Nil(t, base.DiagnosticTests("Ebola"))
}

func TestFindInteraction(t *testing.T) {
	base := testBase(t)

	di, ok := base.FindInteraction("Warfarin 5mg daily", "low-dose Aspirin")
	require.True(t, ok)
	assert.Equal(t, "major", di.Severity)

	// Reversed order still matches.
	_, ok = base.FindInteraction("Aspirin 81mg", "Warfarin")
	assert.True(t, ok)

	_, ok = base.FindInteraction("Paracetamol", "Warfarin")
	assert.False(t, ok)
}

func TestDiseaseNames(t *testing.T) {
	base := testBase(t)
	assert.Equal(t, []string{"Dengue Fever", "Influenza", "Common Cold"}, base.DiseaseNames())
	assert.Equal(t, 3, base.DiseaseCount())
}

func diseaseNames(diseases []models.Disease) []string {
	names := make([]string, 0, len(diseases))
	for _, d := range diseases {
		names = append(names, d.Name)
	}
	return names
}
