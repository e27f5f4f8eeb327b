package approvaldecisionhandler

import (
	approvalevents "approvals-backend/lib/approval-events"
	approvalroutinghandler "approvals-backend/lib/approval-routing"
	testdb "approvals-backend/lib/utils/test-db"
	"approvals-backend/models"
	approvalapimodels "approvals-backend/models/api/approval"
	dbmodels "approvals-backend/models/db"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const companyID = "company-1"

type finalized struct {
	mu   sync.Mutex
	list []models.WorkflowStatus
}

func (f *finalized) OnWorkflowFinalized(_, _ string, status models.WorkflowStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.list = append(f.list, status)
	return nil
}

type env struct {
	conn      *gorm.DB
	sink      *approvalevents.MemorySink
	finalized *finalized
	routing   approvalroutinghandler.Provider
	handler   Provider
}

func newEnv(t *testing.T) env {
	conn := testdb.New(t)
	testdb.SeedUsers(t, conn, companyID, "requester", "u1", "u2", "u3", "u4", "u5")
	clock := testdb.NewClock()
	e := env{
		conn:      conn,
		sink:      &approvalevents.MemorySink{},
		finalized: &finalized{},
	}
	dispatcher := approvalevents.NewDispatcher(e.sink, e.finalized)
	e.routing = approvalroutinghandler.NewHandlerWithDB(conn, dispatcher, clock.Now)
	e.handler = NewHandlerWithDB(conn, dispatcher, clock.Now)
	return e
}

func (e env) level(t *testing.T, number, quorum int, requiresAll bool, userIDs ...string) dbmodels.ApprovalLevel {
	rec := testdb.Level(companyID, "purchase_order", number)
	rec.RequiredApprovals = quorum
	rec.RequiresAllApprovers = requiresAll
	rec = testdb.SeedLevel(t, e.conn, rec)
	testdb.SeedRoster(t, e.conn, rec, userIDs...)
	return rec
}

func (e env) submit(t *testing.T, documentID string) string {
	result, err := e.routing.Submit(approvalapimodels.SubmitData{
		CompanyID:      companyID,
		RequestedBy:    "requester",
		DocumentType:   "purchase_order",
		DocumentID:     documentID,
		DocumentNumber: "PO-" + documentID,
		Amount:         decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	require.True(t, result.ApprovalRequired)
	return result.WorkflowID
}

// pendingOf returns the pending approval of approverID in the workflow.
func (e env) pendingOf(t *testing.T, workflowID, approverID string) dbmodels.Approval {
	rec := dbmodels.Approval{}
	err := e.conn.
		Where("workflow_id = ?", workflowID).
		Where("approver_id = ?", approverID).
		Where("status = ?", models.ApprovalStatusPending).
		First(&rec).
		Error
	require.NoError(t, err)
	return rec
}

func (e env) statusOf(t *testing.T, workflowID, approverID string, levelNumber int) models.ApprovalStatus {
	rec := dbmodels.Approval{}
	err := e.conn.
		Where("workflow_id = ?", workflowID).
		Where("approver_id = ?", approverID).
		Where("level_number = ?", levelNumber).
		Where("delegated_from_id IS NULL").
		First(&rec).
		Error
	require.NoError(t, err)
	return rec.Status
}

func (e env) workflow(t *testing.T, workflowID string) dbmodels.ApprovalWorkflow {
	rec := dbmodels.ApprovalWorkflow{}
	require.NoError(t, e.conn.Where("id = ?", workflowID).First(&rec).Error)
	return rec
}

func (e env) decide(t *testing.T, workflowID, approverID string, action models.ApprovalAction) (approvalapimodels.Outcome, error) {
	rec := e.pendingOf(t, workflowID, approverID)
	return e.handler.Process(approvalapimodels.ProcessData{
		DecisionData: approvalapimodels.DecisionData{
			Action:   action,
			Comments: "комментарий",
		},
		CompanyID:       companyID,
		UserID:          approverID,
		ApprovalID:      rec.ID,
		ExpectedVersion: rec.Version,
	})
}

func (e env) countRows(t *testing.T, workflowID string) int64 {
	var count int64
	require.NoError(t, e.conn.Model(&dbmodels.Approval{}).Where("workflow_id = ?", workflowID).Count(&count).Error)
	return count
}

func TestQuorum(t *testing.T) {
	t.Run(`two of three approve, third is cancelled`, func(t *testing.T) {
		e := newEnv(t)
		e.level(t, 1, 2, false, "u1", "u2", "u3")
		workflowID := e.submit(t, "po-1")

		outcome, err := e.decide(t, workflowID, "u1", models.ApprovalActionApprove)
		require.NoError(t, err)
		require.Equal(t, models.ApprovalStatusApproved, outcome.Status)
		require.Equal(t, 2, outcome.Version)
		require.False(t, outcome.LevelCompleted)
		require.Equal(t, models.WorkflowStatusInProgress, outcome.WorkflowStatus)

		outcome, err = e.decide(t, workflowID, "u2", models.ApprovalActionApprove)
		require.NoError(t, err)
		require.True(t, outcome.LevelCompleted)
		require.True(t, outcome.WorkflowFinalized)
		require.Equal(t, models.WorkflowStatusApproved, outcome.WorkflowStatus)

		require.Equal(t, models.ApprovalStatusCancelled, e.statusOf(t, workflowID, "u3", 1))
		wf := e.workflow(t, workflowID)
		require.Equal(t, models.WorkflowStatusApproved, wf.Status)
		require.Equal(t, 1, wf.CompletedLevelNumber)
		require.NotNil(t, wf.CompletedAt)
		require.Equal(t, []models.WorkflowStatus{models.WorkflowStatusApproved}, e.finalized.list)
		require.Equal(t, 1, e.sink.CountByType(models.ApprovalEventLevelCompleted))
		require.Equal(t, 1, e.sink.CountByType(models.ApprovalEventWorkflowClosed))
		require.Equal(t, 1, e.sink.CountByType(models.ApprovalEventCancelled))
	})
	t.Run(`approving a cancelled sibling fails`, func(t *testing.T) {
		e := newEnv(t)
		e.level(t, 1, 1, false, "u1", "u2")
		workflowID := e.submit(t, "po-1")
		sibling := e.pendingOf(t, workflowID, "u2")

		_, err := e.decide(t, workflowID, "u1", models.ApprovalActionApprove)
		require.NoError(t, err)

		_, err = e.handler.Process(approvalapimodels.ProcessData{
			DecisionData:    approvalapimodels.DecisionData{Action: models.ApprovalActionApprove},
			CompanyID:       companyID,
			UserID:          "u2",
			ApprovalID:      sibling.ID,
			ExpectedVersion: sibling.Version + 1,
		})
		require.True(t, errors.Is(err, models.ErrInvalidTransition))
		require.Len(t, e.finalized.list, 1)
	})
	t.Run(`requires all then moves to the next level`, func(t *testing.T) {
		e := newEnv(t)
		e.level(t, 1, 1, true, "u1", "u2", "u3")
		e.level(t, 2, 1, false, "u4")
		workflowID := e.submit(t, "po-1")

		for _, approverID := range []string{"u1", "u2"} {
			outcome, err := e.decide(t, workflowID, approverID, models.ApprovalActionApprove)
			require.NoError(t, err)
			require.False(t, outcome.LevelCompleted)
		}
		require.Equal(t, int64(3), e.countRows(t, workflowID))

		outcome, err := e.decide(t, workflowID, "u3", models.ApprovalActionApprove)
		require.NoError(t, err)
		require.True(t, outcome.LevelCompleted)
		require.Equal(t, 2, outcome.NextLevelNumber)
		require.False(t, outcome.WorkflowFinalized)

		wf := e.workflow(t, workflowID)
		require.Equal(t, 2, wf.CurrentLevelNumber)
		require.Equal(t, 1, wf.CompletedLevelNumber)
		require.Equal(t, int64(4), e.countRows(t, workflowID))
		require.Empty(t, e.finalized.list)

		outcome, err = e.decide(t, workflowID, "u4", models.ApprovalActionApprove)
		require.NoError(t, err)
		require.True(t, outcome.WorkflowFinalized)
		require.Equal(t, []models.WorkflowStatus{models.WorkflowStatusApproved}, e.finalized.list)
	})
	t.Run(`next level uses the configuration current at activation`, func(t *testing.T) {
		e := newEnv(t)
		e.level(t, 1, 1, false, "u1")
		second := e.level(t, 2, 1, false, "u2", "u3")
		workflowID := e.submit(t, "po-1")

		require.NoError(t, e.conn.Model(&dbmodels.ApprovalLevel{}).Where("id = ?", second.ID).Update("requires_all_approvers", true).Error)

		_, err := e.decide(t, workflowID, "u1", models.ApprovalActionApprove)
		require.NoError(t, err)
		require.Equal(t, 2, e.workflow(t, workflowID).CurrentQuorum)
	})
	t.Run(`renumbered level is not activated twice`, func(t *testing.T) {
		e := newEnv(t)
		first := e.level(t, 1, 1, false, "u1")
		e.level(t, 2, 1, false, "u2")
		workflowID := e.submit(t, "po-1")

		require.NoError(t, e.conn.Model(&dbmodels.ApprovalLevel{}).Where("id = ?", first.ID).Update("level", 3).Error)

		outcome, err := e.decide(t, workflowID, "u1", models.ApprovalActionApprove)
		require.NoError(t, err)
		require.Equal(t, 2, outcome.NextLevelNumber)

		outcome, err = e.decide(t, workflowID, "u2", models.ApprovalActionApprove)
		require.NoError(t, err)
		require.True(t, outcome.WorkflowFinalized)
		require.Equal(t, models.WorkflowStatusApproved, e.workflow(t, workflowID).Status)

		var rows int64
		require.NoError(t, e.conn.Model(&dbmodels.Approval{}).
			Where("workflow_id = ?", workflowID).
			Where("approval_level_id = ?", first.ID).
			Count(&rows).Error)
		require.Equal(t, int64(1), rows)
		require.Equal(t, []models.WorkflowStatus{models.WorkflowStatusApproved}, e.finalized.list)
	})
	t.Run(`next level without approvers rolls back the decision`, func(t *testing.T) {
		e := newEnv(t)
		e.level(t, 1, 1, false, "u1")
		testdb.SeedLevel(t, e.conn, testdb.Level(companyID, "purchase_order", 2))
		workflowID := e.submit(t, "po-1")

		_, err := e.decide(t, workflowID, "u1", models.ApprovalActionApprove)
		require.True(t, models.IsValidationError(err))
		require.Equal(t, models.ApprovalStatusPending, e.statusOf(t, workflowID, "u1", 1))
		require.Equal(t, 0, e.workflow(t, workflowID).CompletedLevelNumber)
	})
}

func TestReject(t *testing.T) {
	e := newEnv(t)
	e.level(t, 1, 1, false, "u1")
	e.level(t, 2, 2, false, "u2", "u3", "u4")
	e.level(t, 3, 1, false, "u5")
	workflowID := e.submit(t, "po-1")

	_, err := e.decide(t, workflowID, "u1", models.ApprovalActionApprove)
	require.NoError(t, err)
	_, err = e.decide(t, workflowID, "u2", models.ApprovalActionApprove)
	require.NoError(t, err)

	outcome, err := e.decide(t, workflowID, "u3", models.ApprovalActionReject)
	require.NoError(t, err)
	require.Equal(t, models.ApprovalStatusRejected, outcome.Status)
	require.True(t, outcome.WorkflowFinalized)
	require.Equal(t, models.WorkflowStatusRejected, outcome.WorkflowStatus)

	t.Run(`remaining approvals are cancelled`, func(t *testing.T) {
		require.Equal(t, models.ApprovalStatusApproved, e.statusOf(t, workflowID, "u2", 2))
		require.Equal(t, models.ApprovalStatusCancelled, e.statusOf(t, workflowID, "u4", 2))
	})
	t.Run(`later levels are never materialized`, func(t *testing.T) {
		require.Equal(t, int64(4), e.countRows(t, workflowID))
	})
	t.Run(`workflow closed once with the reason`, func(t *testing.T) {
		wf := e.workflow(t, workflowID)
		require.Equal(t, models.WorkflowStatusRejected, wf.Status)
		require.Equal(t, []models.WorkflowStatus{models.WorkflowStatusRejected}, e.finalized.list)

		rec := dbmodels.Approval{}
		require.NoError(t, e.conn.Where("workflow_id = ? AND approver_id = ?", workflowID, "u3").First(&rec).Error)
		require.Equal(t, "комментарий", rec.RejectionReason)
	})
}

func TestDelegate(t *testing.T) {
	delegate := func(e env, rec dbmodels.Approval, from, to string) (approvalapimodels.Outcome, error) {
		return e.handler.Process(approvalapimodels.ProcessData{
			DecisionData: approvalapimodels.DecisionData{
				Action:           models.ApprovalActionDelegate,
				DelegateToUserID: to,
			},
			CompanyID:       companyID,
			UserID:          from,
			ApprovalID:      rec.ID,
			ExpectedVersion: rec.Version,
		})
	}

	t.Run(`delegated row is replaced by a new pending one`, func(t *testing.T) {
		e := newEnv(t)
		e.level(t, 1, 1, false, "u1", "u2")
		workflowID := e.submit(t, "po-1")
		rec := e.pendingOf(t, workflowID, "u1")

		outcome, err := delegate(e, rec, "u1", "u5")
		require.NoError(t, err)
		require.Equal(t, models.ApprovalStatusDelegated, outcome.Status)
		require.Equal(t, "u5", outcome.DelegatedToID)

		newRec := e.pendingOf(t, workflowID, "u5")
		require.NotNil(t, newRec.DelegatedFromID)
		require.Equal(t, rec.ID, *newRec.DelegatedFromID)
		require.Equal(t, 1, newRec.LevelNumber)
		require.Equal(t, models.ApprovalStatusDelegated, e.statusOf(t, workflowID, "u1", 1))

		outcome, err = e.decide(t, workflowID, "u5", models.ApprovalActionApprove)
		require.NoError(t, err)
		require.True(t, outcome.WorkflowFinalized)
		require.Equal(t, models.ApprovalStatusCancelled, e.statusOf(t, workflowID, "u2", 1))
	})
	t.Run(`invalid targets`, func(t *testing.T) {
		e := newEnv(t)
		testdb.SeedUsers(t, e.conn, "company-2", "outsider")
		e.level(t, 1, 1, false, "u1", "u2")
		workflowID := e.submit(t, "po-1")
		rec := e.pendingOf(t, workflowID, "u1")

		_, err := delegate(e, rec, "u1", "u1")
		require.True(t, models.IsValidationError(err))

		_, err = delegate(e, rec, "u1", "outsider")
		require.True(t, models.IsValidationError(err))

		_, err = delegate(e, rec, "u1", "u2")
		require.True(t, models.IsValidationError(err))

		require.Equal(t, models.ApprovalStatusPending, e.pendingOf(t, workflowID, "u1").Status)
	})
	t.Run(`approver who already decided at the level cannot take a second row`, func(t *testing.T) {
		e := newEnv(t)
		e.level(t, 1, 2, false, "u1", "u2", "u3")
		workflowID := e.submit(t, "po-1")

		_, err := e.decide(t, workflowID, "u2", models.ApprovalActionApprove)
		require.NoError(t, err)

		_, err = delegate(e, e.pendingOf(t, workflowID, "u1"), "u1", "u2")
		require.True(t, models.IsValidationError(err))

		require.Equal(t, models.ApprovalStatusPending, e.statusOf(t, workflowID, "u1", 1))
		require.Equal(t, models.ApprovalStatusPending, e.statusOf(t, workflowID, "u3", 1))
		require.Equal(t, models.WorkflowStatusInProgress, e.workflow(t, workflowID).Status)
		require.Empty(t, e.finalized.list)
	})
}

func TestConcurrency(t *testing.T) {
	t.Run(`stale version`, func(t *testing.T) {
		e := newEnv(t)
		e.level(t, 1, 1, false, "u1")
		workflowID := e.submit(t, "po-1")
		rec := e.pendingOf(t, workflowID, "u1")

		_, err := e.handler.Process(approvalapimodels.ProcessData{
			DecisionData:    approvalapimodels.DecisionData{Action: models.ApprovalActionApprove},
			CompanyID:       companyID,
			UserID:          "u1",
			ApprovalID:      rec.ID,
			ExpectedVersion: rec.Version + 5,
		})
		require.True(t, errors.Is(err, models.ErrStaleApprovalState))
	})
	t.Run(`only the assigned approver decides`, func(t *testing.T) {
		e := newEnv(t)
		e.level(t, 1, 1, false, "u1")
		workflowID := e.submit(t, "po-1")
		rec := e.pendingOf(t, workflowID, "u1")

		_, err := e.handler.Process(approvalapimodels.ProcessData{
			DecisionData:    approvalapimodels.DecisionData{Action: models.ApprovalActionApprove},
			CompanyID:       companyID,
			UserID:          "u2",
			ApprovalID:      rec.ID,
			ExpectedVersion: rec.Version,
		})
		require.True(t, errors.Is(err, models.ErrForbidden))

		_, err = e.handler.Process(approvalapimodels.ProcessData{
			DecisionData:    approvalapimodels.DecisionData{Action: models.ApprovalActionApprove},
			CompanyID:       "company-2",
			UserID:          "u1",
			ApprovalID:      rec.ID,
			ExpectedVersion: rec.Version,
		})
		require.True(t, errors.Is(err, models.ErrNotFound))
	})
	t.Run(`same version decided concurrently`, func(t *testing.T) {
		e := newEnv(t)
		e.level(t, 1, 1, false, "u1")
		workflowID := e.submit(t, "po-1")
		rec := e.pendingOf(t, workflowID, "u1")

		actions := []models.ApprovalAction{models.ApprovalActionApprove, models.ApprovalActionReject}
		errs := make([]error, len(actions))
		wg := sync.WaitGroup{}
		for idx, action := range actions {
			wg.Add(1)
			go func(idx int, action models.ApprovalAction) {
				defer wg.Done()
				_, errs[idx] = e.handler.Process(approvalapimodels.ProcessData{
					DecisionData:    approvalapimodels.DecisionData{Action: action},
					CompanyID:       companyID,
					UserID:          "u1",
					ApprovalID:      rec.ID,
					ExpectedVersion: rec.Version,
				})
			}(idx, action)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			require.True(t, errors.Is(err, models.ErrStaleApprovalState))
		}
		require.Equal(t, 1, succeeded)
		require.Len(t, e.finalized.list, 1)
		require.Equal(t, 1, e.sink.CountByType(models.ApprovalEventWorkflowClosed))
	})
}

func TestProcessBulk(t *testing.T) {
	setup := func(t *testing.T) (env, []string, []string) {
		e := newEnv(t)
		e.level(t, 1, 1, false, "u1")
		workflowIDs := make([]string, 0, 5)
		approvalIDs := make([]string, 0, 5)
		for _, documentID := range []string{"po-1", "po-2", "po-3", "po-4", "po-5"} {
			workflowID := e.submit(t, documentID)
			workflowIDs = append(workflowIDs, workflowID)
			approvalIDs = append(approvalIDs, e.pendingOf(t, workflowID, "u1").ID)
		}
		return e, workflowIDs, approvalIDs
	}

	t.Run(`one bad item aborts the batch`, func(t *testing.T) {
		e, workflowIDs, approvalIDs := setup(t)
		require.NoError(t, e.routing.Recall(companyID, workflowIDs[2], "requester"))
		finalizedBefore := len(e.finalized.list)

		_, err := e.handler.ProcessBulk(approvalapimodels.BulkData{
			DecisionData: approvalapimodels.DecisionData{Action: models.ApprovalActionApprove},
			CompanyID:    companyID,
			UserID:       "u1",
			ApprovalIDs:  approvalIDs,
		})
		var bulkErr models.BulkError
		require.True(t, errors.As(err, &bulkErr))
		require.Equal(t, approvalIDs[2], bulkErr.ApprovalID)
		require.True(t, errors.Is(err, models.ErrInvalidTransition))

		for _, idx := range []int{0, 1, 3, 4} {
			require.Equal(t, models.ApprovalStatusPending, e.statusOf(t, workflowIDs[idx], "u1", 1))
			require.Equal(t, models.WorkflowStatusInProgress, e.workflow(t, workflowIDs[idx]).Status)
		}
		require.Len(t, e.finalized.list, finalizedBefore)
		require.Zero(t, e.sink.CountByType(models.ApprovalEventApproved))
	})
	t.Run(`all items applied`, func(t *testing.T) {
		e, workflowIDs, approvalIDs := setup(t)
		outcomes, err := e.handler.ProcessBulk(approvalapimodels.BulkData{
			DecisionData: approvalapimodels.DecisionData{Action: models.ApprovalActionApprove},
			CompanyID:    companyID,
			UserID:       "u1",
			ApprovalIDs:  approvalIDs,
		})
		require.NoError(t, err)
		require.Len(t, outcomes, 5)
		for idx, outcome := range outcomes {
			require.Equal(t, approvalIDs[idx], outcome.ApprovalID)
			require.True(t, outcome.WorkflowFinalized)
			require.Equal(t, models.WorkflowStatusApproved, e.workflow(t, workflowIDs[idx]).Status)
		}
		require.Len(t, e.finalized.list, 5)
	})
	t.Run(`duplicate ids`, func(t *testing.T) {
		e, _, approvalIDs := setup(t)
		_, err := e.handler.ProcessBulk(approvalapimodels.BulkData{
			DecisionData: approvalapimodels.DecisionData{Action: models.ApprovalActionApprove},
			CompanyID:    companyID,
			UserID:       "u1",
			ApprovalIDs:  []string{approvalIDs[0], approvalIDs[0]},
		})
		require.True(t, models.IsValidationError(err))
	})
}

func TestFullChain(t *testing.T) {
	e := newEnv(t)
	e.level(t, 1, 1, false, "u1")
	e.level(t, 2, 2, false, "u2", "u3")
	e.level(t, 3, 1, false, "u4")
	workflowID := e.submit(t, "po-1")

	pendingLevels := func() []int {
		var levels []int
		err := e.conn.
			Model(&dbmodels.Approval{}).
			Where("workflow_id = ?", workflowID).
			Where("status = ?", models.ApprovalStatusPending).
			Distinct().
			Pluck("level_number", &levels).
			Error
		require.NoError(t, err)
		return levels
	}

	steps := []struct {
		approverID string
		pending    []int
	}{
		{"u1", []int{2}},
		{"u2", []int{2}},
		{"u3", []int{3}},
		{"u4", nil},
	}
	require.Equal(t, []int{1}, pendingLevels())
	for _, step := range steps {
		_, err := e.decide(t, workflowID, step.approverID, models.ApprovalActionApprove)
		require.NoError(t, err)
		levels := pendingLevels()
		require.LessOrEqual(t, len(levels), 1)
		if step.pending == nil {
			require.Empty(t, levels)
		} else {
			require.Equal(t, step.pending, levels)
		}
	}

	require.Equal(t, []models.WorkflowStatus{models.WorkflowStatusApproved}, e.finalized.list)
	require.Equal(t, models.WorkflowStatusApproved, e.workflow(t, workflowID).Status)
	require.Equal(t, 1, e.sink.CountByType(models.ApprovalEventWorkflowClosed))
}
