package delegationhandler

import (
	testdb "approvals-backend/lib/utils/test-db"
	"approvals-backend/models"
	approvalapimodels "approvals-backend/models/api/approval"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

const companyID = "company-1"

func TestAssignUser(t *testing.T) {
	conn := testdb.New(t)
	testdb.SeedUsers(t, conn, companyID, "u1", "u2")
	testdb.SeedUsers(t, conn, "company-2", "outsider")
	level := testdb.SeedLevel(t, conn, testdb.Level(companyID, "purchase_order", 1))
	h := NewHandlerWithTx(conn)

	t.Run(`member is added once`, func(t *testing.T) {
		id, err := h.AssignUser(companyID, level.ID, approvalapimodels.RosterUserData{UserID: "u1", IsActive: true})
		require.NoError(t, err)
		require.NotEmpty(t, id)

		_, err = h.AssignUser(companyID, level.ID, approvalapimodels.RosterUserData{UserID: "u1", IsActive: true})
		require.True(t, models.IsValidationError(err))
	})
	t.Run(`user of another company is refused`, func(t *testing.T) {
		_, err := h.AssignUser(companyID, level.ID, approvalapimodels.RosterUserData{UserID: "outsider", IsActive: true})
		require.True(t, models.IsValidationError(err))
	})
	t.Run(`unknown level`, func(t *testing.T) {
		_, err := h.AssignUser(companyID, "missing", approvalapimodels.RosterUserData{UserID: "u2", IsActive: true})
		require.True(t, errors.Is(err, models.ErrNotFound))
	})
	t.Run(`negative delegation depth`, func(t *testing.T) {
		_, err := h.AssignUser(companyID, level.ID, approvalapimodels.RosterUserData{UserID: "u2", MaxDelegationLevel: -1})
		require.True(t, models.IsValidationError(err))
	})
}

func TestRosterUpdate(t *testing.T) {
	conn := testdb.New(t)
	testdb.SeedUsers(t, conn, companyID, "u1", "u2")
	level := testdb.SeedLevel(t, conn, testdb.Level(companyID, "purchase_order", 1))
	h := NewHandlerWithTx(conn)
	id1, err := h.AssignUser(companyID, level.ID, approvalapimodels.RosterUserData{UserID: "u1", IsActive: true})
	require.NoError(t, err)
	_, err = h.AssignUser(companyID, level.ID, approvalapimodels.RosterUserData{UserID: "u2", IsActive: true})
	require.NoError(t, err)

	t.Run(`inactive member is not eligible`, func(t *testing.T) {
		isActive := false
		require.NoError(t, h.UpdateUser(companyID, id1, approvalapimodels.RosterUserPatch{IsActive: &isActive}))

		approvers, err := h.ListEligibleApprovers(level.ID, testdb.Now)
		require.NoError(t, err)
		require.Equal(t, []string{"u2"}, approvers)
	})
	t.Run(`roster shows names`, func(t *testing.T) {
		list, err := h.ListRoster(companyID, level.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.Equal(t, "u1", list[0].UserID)
		require.Equal(t, "User u1", list[0].UserName)
		require.False(t, list[0].IsActive)
	})
	t.Run(`removed member disappears`, func(t *testing.T) {
		require.NoError(t, h.RemoveUser(companyID, id1))
		list, err := h.ListRoster(companyID, level.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)

		err = h.RemoveUser(companyID, id1)
		require.True(t, errors.Is(err, models.ErrNotFound))
	})
}

func TestSetDelegation(t *testing.T) {
	conn := testdb.New(t)
	testdb.SeedUsers(t, conn, companyID, "u1", "u2", "u3")
	level := testdb.SeedLevel(t, conn, testdb.Level(companyID, "purchase_order", 1))
	h := NewHandlerWithTx(conn)
	id1, err := h.AssignUser(companyID, level.ID, approvalapimodels.RosterUserData{UserID: "u1", IsActive: true, CanDelegate: true, MaxDelegationLevel: 1})
	require.NoError(t, err)
	id2, err := h.AssignUser(companyID, level.ID, approvalapimodels.RosterUserData{UserID: "u2", IsActive: true})
	require.NoError(t, err)

	window := approvalapimodels.DelegationData{
		DelegateUserID: "u3",
		FromDate:       testdb.Now,
		ToDate:         testdb.Now.Add(48 * time.Hour),
		Reason:         "отпуск",
	}

	t.Run(`member without delegation right`, func(t *testing.T) {
		err := h.SetDelegation(companyID, id2, window)
		require.True(t, models.IsValidationError(err))
	})
	t.Run(`delegate to self`, func(t *testing.T) {
		data := window
		data.DelegateUserID = "u1"
		err := h.SetDelegation(companyID, id1, data)
		require.True(t, models.IsValidationError(err))
	})
	t.Run(`reversed window`, func(t *testing.T) {
		data := window
		data.ToDate = testdb.Now.Add(-time.Hour)
		err := h.SetDelegation(companyID, id1, data)
		require.True(t, models.IsValidationError(err))
	})
	t.Run(`resolution follows the window`, func(t *testing.T) {
		require.NoError(t, h.SetDelegation(companyID, id1, window))

		effective, err := h.ResolveEffectiveApprover(level.ID, "u1", testdb.Now)
		require.NoError(t, err)
		require.Equal(t, "u3", effective)

		effective, err = h.ResolveEffectiveApprover(level.ID, "u1", testdb.Now.Add(48*time.Hour))
		require.NoError(t, err)
		require.Equal(t, "u3", effective)

		effective, err = h.ResolveEffectiveApprover(level.ID, "u1", testdb.Now.Add(-time.Second))
		require.NoError(t, err)
		require.Equal(t, "u1", effective)

		approvers, err := h.ListEligibleApprovers(level.ID, testdb.Now)
		require.NoError(t, err)
		require.Equal(t, []string{"u3", "u2"}, approvers)
	})
	t.Run(`cleared delegation`, func(t *testing.T) {
		require.NoError(t, h.ClearDelegation(companyID, id1))
		effective, err := h.ResolveEffectiveApprover(level.ID, "u1", testdb.Now)
		require.NoError(t, err)
		require.Equal(t, "u1", effective)
	})
}

func TestRosters(t *testing.T) {
	conn := testdb.New(t)
	testdb.SeedUsers(t, conn, companyID, "u1", "u2", "u3")
	first := testdb.SeedLevel(t, conn, testdb.Level(companyID, "purchase_order", 1))
	second := testdb.SeedLevel(t, conn, testdb.Level(companyID, "purchase_order", 2))
	firstRoster := testdb.SeedRoster(t, conn, first, "u1", "u2")
	testdb.SeedRoster(t, conn, second, "u3")
	testdb.SeedDelegation(t, conn, firstRoster[0], "u2")
	h := NewHandlerWithTx(conn)

	rosters, err := h.Rosters([]string{first.ID, second.ID, "unknown"})
	require.NoError(t, err)
	require.Len(t, rosters, 3)

	t.Run(`each level keeps its own entries`, func(t *testing.T) {
		eligible, err := rosters[first.ID].EligibleApprovers(testdb.Now)
		require.NoError(t, err)
		require.Equal(t, []string{"u2"}, eligible)

		eligible, err = rosters[second.ID].EligibleApprovers(testdb.Now)
		require.NoError(t, err)
		require.Equal(t, []string{"u3"}, eligible)
	})
	t.Run(`resolution matches the single level lookup`, func(t *testing.T) {
		effective, err := rosters[first.ID].Resolve("u1", testdb.Now)
		require.NoError(t, err)
		single, err := h.ResolveEffectiveApprover(first.ID, "u1", testdb.Now)
		require.NoError(t, err)
		require.Equal(t, single, effective)
		require.Equal(t, "u2", effective)
	})
	t.Run(`unknown level has an empty roster`, func(t *testing.T) {
		eligible, err := rosters["unknown"].EligibleApprovers(testdb.Now)
		require.NoError(t, err)
		require.Empty(t, eligible)
	})
	t.Run(`no levels means no query`, func(t *testing.T) {
		empty, err := h.Rosters(nil)
		require.NoError(t, err)
		require.Empty(t, empty)
	})
}
