package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmedsage/medsage/internal/knowledge"
	"github.com/getmedsage/medsage/internal/logger"
)

func TestFetchMedicalData_MatchesAndPools(t *testing.T) {
	agent := NewDataAgent(testKB(), logger.Discard())

	data, err := agent.FetchMedicalData(context.Background(), []string{"fever"})
	require.NoError(t, err)

	require.Len(t, data.Diseases, 2)
	assert.Equal(t, "Dengue Fever", data.Diseases[0].Name)
	assert.Equal(t, "Influenza", data.Diseases[1].Name)

	// "mosquito exposure" appears in both diseases but is pooled once,
	// keeping first-seen order.
	assert.Equal(t, []string{"mosquito exposure", "tropical travel", "seasonal exposure"}, data.RiskFactors)

	// Treatments keep duplicates across diseases.
	assert.Equal(t, []string{"Paracetamol for fever", "Oral rehydration", "Rest", "Fluids"}, data.Treatments)
}

func TestFetchMedicalData_NoMatches(t *testing.T) {
	agent := NewDataAgent(testKB(), logger.Discard())

	data, err := agent.FetchMedicalData(context.Background(), []string{"toothache"})
	require.NoError(t, err)

	assert.Empty(t, data.Diseases)
	assert.Empty(t, data.RiskFactors)
	assert.Empty(t, data.Treatments)
}

func TestFetchMedicalData_EmptyBase(t *testing.T) {
	agent := NewDataAgent(&knowledge.Base{}, logger.Discard())

	data, err := agent.FetchMedicalData(context.Background(), []string{"fever"})
	require.NoError(t, err)
	require.NotNil(t, data)

	assert.NotNil(t, data.Diseases)
	assert.Empty(t, data.Diseases)
	assert.Empty(t, data.RiskFactors)
	assert.Empty(t, data.Treatments)
}
