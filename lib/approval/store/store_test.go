package approvalstore

import (
	testdb "approvals-backend/lib/utils/test-db"
	"approvals-backend/models"
	dbmodels "approvals-backend/models/db"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevelCounters(t *testing.T) {
	conn := testdb.New(t)
	store := NewInstance(conn)
	seed := func(approverID string, status models.ApprovalStatus) {
		_, err := store.Create(dbmodels.Approval{
			WorkflowID:  "wf-1",
			LevelNumber: 1,
			ApproverID:  approverID,
			Status:      status,
			Version:     1,
		})
		require.NoError(t, err)
	}
	seed("u1", models.ApprovalStatusApproved)
	seed("u1", models.ApprovalStatusApproved)
	seed("u2", models.ApprovalStatusApproved)
	seed("u3", models.ApprovalStatusCancelled)
	seed("u4", models.ApprovalStatusDelegated)

	t.Run(`approved count is per distinct approver`, func(t *testing.T) {
		count, err := store.CountApprovedByLevel("wf-1", 1)
		require.NoError(t, err)
		require.Equal(t, int64(2), count)
	})
	t.Run(`active participation ignores cancelled rows only`, func(t *testing.T) {
		for approverID, expected := range map[string]bool{"u1": true, "u3": false, "u4": true, "u5": false} {
			exist, err := store.ExistsActive("wf-1", 1, approverID)
			require.NoError(t, err)
			require.Equal(t, expected, exist, approverID)
		}
	})
}
