package intervention

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmedsage/medsage/internal/logger"
)

func TestApprovalManager_CreateDefaultsToPhysician(t *testing.T) {
	m := NewApprovalManager(logger.Discard())

	id := m.Create("A-1", "")

	assert.Equal(t, "APR-000001", id)
	approval := m.Get(id)
	require.NotNil(t, approval)
	assert.Equal(t, "physician", approval.RequiredLevel)
	assert.Equal(t, "pending", approval.Status)
	assert.Empty(t, approval.Approvals)
	assert.Nil(t, approval.FinalDecisionAt)
}

func TestApprovalManager_PhysicianLevelNeedsOneSignOff(t *testing.T) {
	m := NewApprovalManager(logger.Discard())
	id := m.Create("A-1", "physician")

	require.NoError(t, m.ApproveAt(id, "physician", "Dr. Smith", "looks right"))

	approval := m.Get(id)
	assert.Equal(t, "fully_approved", approval.Status)
	assert.Equal(t, "approved", approval.FinalDecision)
	require.NotNil(t, approval.FinalDecisionAt)
	require.Len(t, approval.Approvals, 1)
	assert.Equal(t, "looks right", approval.Approvals[0].Notes)
	assert.True(t, m.CanProceed(id))
}

func TestApprovalManager_SupervisorLevelNeedsBothLowerLevels(t *testing.T) {
	m := NewApprovalManager(logger.Discard())
	id := m.Create("A-1", "supervisor")

	require.NoError(t, m.ApproveAt(id, "physician", "Dr. Smith", ""))
	assert.Equal(t, "partially_approved", m.Get(id).Status)
	assert.False(t, m.CanProceed(id))

	require.NoError(t, m.ApproveAt(id, "supervisor", "Dr. Patel", ""))
	assert.Equal(t, "fully_approved", m.Get(id).Status)
	assert.True(t, m.CanProceed(id))
}

func TestApprovalManager_DirectorLevelNeedsWholeChain(t *testing.T) {
	m := NewApprovalManager(logger.Discard())
	id := m.Create("A-1", "director")

	require.NoError(t, m.ApproveAt(id, "director", "Dr. Reed", ""))
	assert.Equal(t, "partially_approved", m.Get(id).Status,
		"a director signature alone does not complete the chain")

	require.NoError(t, m.ApproveAt(id, "physician", "Dr. Smith", ""))
	require.NoError(t, m.ApproveAt(id, "supervisor", "Dr. Patel", ""))
	assert.Equal(t, "fully_approved", m.Get(id).Status)
	assert.True(t, m.CanProceed(id))
}

func TestApprovalManager_UnknownLevelTreatedAsLowest(t *testing.T) {
	m := NewApprovalManager(logger.Discard())
	id := m.Create("A-1", "board")

	require.NoError(t, m.ApproveAt(id, "physician", "Dr. Smith", ""))

	assert.Equal(t, "fully_approved", m.Get(id).Status)
}

func TestApprovalManager_RejectionIsFinal(t *testing.T) {
	m := NewApprovalManager(logger.Discard())
	id := m.Create("A-1", "supervisor")
	require.NoError(t, m.ApproveAt(id, "physician", "Dr. Smith", ""))

	require.NoError(t, m.RejectAt(id, "supervisor", "Dr. Patel", "treatment plan incomplete"))

	approval := m.Get(id)
	assert.Equal(t, "rejected", approval.Status)
	assert.Equal(t, "rejected", approval.FinalDecision)
	require.NotNil(t, approval.FinalDecisionAt)
	require.Len(t, approval.Rejections, 1)
	assert.Equal(t, "treatment plan incomplete", approval.Rejections[0].Reason)
	assert.False(t, m.CanProceed(id))
}

func TestApprovalManager_UnknownIDs(t *testing.T) {
	m := NewApprovalManager(logger.Discard())

	assert.Nil(t, m.Get("APR-999999"))
	assert.False(t, m.CanProceed("APR-999999"))

	var notFound *NotFoundError
	err := m.ApproveAt("APR-999999", "physician", "Dr. Smith", "")
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "approval", notFound.Kind)

	assert.Error(t, m.RejectAt("APR-999999", "physician", "Dr. Smith", "no"))
}

func TestApprovalManager_GetReturnsCopy(t *testing.T) {
	m := NewApprovalManager(logger.Discard())
	id := m.Create("A-1", "physician")
	require.NoError(t, m.ApproveAt(id, "physician", "Dr. Smith", "note"))

	approval := m.Get(id)
	approval.Status = "rejected"
	approval.Approvals[0].Notes = "tampered"

	fresh := m.Get(id)
	assert.Equal(t, "fully_approved", fresh.Status)
	assert.Equal(t, "note", fresh.Approvals[0].Notes)
}
