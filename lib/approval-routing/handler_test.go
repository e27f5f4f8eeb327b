package approvalroutinghandler

import (
	approvalevents "approvals-backend/lib/approval-events"
	testdb "approvals-backend/lib/utils/test-db"
	"approvals-backend/models"
	approvalapimodels "approvals-backend/models/api/approval"
	dbmodels "approvals-backend/models/db"
	"sync"
	"testing"
	"time"

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
	clock     *testdb.Clock
	sink      *approvalevents.MemorySink
	finalized *finalized
	handler   Provider
}

func newEnv(t *testing.T) env {
	conn := testdb.New(t)
	testdb.SeedUsers(t, conn, companyID, "requester", "u1", "u2", "u3")
	e := env{
		conn:      conn,
		clock:     testdb.NewClock(),
		sink:      &approvalevents.MemorySink{},
		finalized: &finalized{},
	}
	e.handler = NewHandlerWithDB(conn, approvalevents.NewDispatcher(e.sink, e.finalized), e.clock.Now)
	return e
}

func submitData(documentID string, amount int64) approvalapimodels.SubmitData {
	return approvalapimodels.SubmitData{
		CompanyID:      companyID,
		RequestedBy:    "requester",
		DocumentType:   "purchase_order",
		DocumentID:     documentID,
		DocumentNumber: "PO-" + documentID,
		Amount:         decimal.NewFromInt(amount),
	}
}

func approvals(t *testing.T, conn *gorm.DB, workflowID string) []dbmodels.Approval {
	list := []dbmodels.Approval{}
	require.NoError(t, conn.Where("workflow_id = ?", workflowID).Order("level_number, approver_id").Find(&list).Error)
	return list
}

func workflow(t *testing.T, conn *gorm.DB, workflowID string) dbmodels.ApprovalWorkflow {
	rec := dbmodels.ApprovalWorkflow{}
	require.NoError(t, conn.Where("id = ?", workflowID).First(&rec).Error)
	return rec
}

func TestSubmit(t *testing.T) {
	t.Run(`no matching level means no approval`, func(t *testing.T) {
		e := newEnv(t)
		level := testdb.Level(companyID, "purchase_order", 1)
		level.MinAmount = decimal.NewNullDecimal(decimal.NewFromInt(1000))
		testdb.SeedRoster(t, e.conn, testdb.SeedLevel(t, e.conn, level), "u1")

		result, err := e.handler.Submit(submitData("po-1", 999))
		require.NoError(t, err)
		require.False(t, result.ApprovalRequired)
		require.Empty(t, result.WorkflowID)

		var count int64
		require.NoError(t, e.conn.Model(&dbmodels.ApprovalWorkflow{}).Count(&count).Error)
		require.Zero(t, count)
		require.Empty(t, e.sink.Events())
	})
	t.Run(`first matching level is materialized`, func(t *testing.T) {
		e := newEnv(t)
		sla := 24
		first := testdb.Level(companyID, "purchase_order", 1)
		first.SlaHours = &sla
		first.RequiredApprovals = 2
		testdb.SeedRoster(t, e.conn, testdb.SeedLevel(t, e.conn, first), "u1", "u2", "u3")
		second := testdb.Level(companyID, "purchase_order", 2)
		second.MinAmount = decimal.NewNullDecimal(decimal.NewFromInt(10000))
		testdb.SeedRoster(t, e.conn, testdb.SeedLevel(t, e.conn, second), "u1")

		result, err := e.handler.Submit(submitData("po-1", 500))
		require.NoError(t, err)
		require.True(t, result.ApprovalRequired)
		require.Equal(t, models.WorkflowStatusInProgress, result.Status)
		require.Equal(t, 1, result.LevelNumber)
		require.Len(t, result.ApprovalIDs, 3)

		list := approvals(t, e.conn, result.WorkflowID)
		require.Len(t, list, 3)
		for _, rec := range list {
			require.Equal(t, models.ApprovalStatusPending, rec.Status)
			require.Equal(t, 1, rec.LevelNumber)
			require.Equal(t, 1, rec.Version)
			require.NotNil(t, rec.DueDate)
			require.True(t, rec.DueDate.Equal(testdb.Now.Add(24*time.Hour)))
			require.True(t, rec.DocumentAmount.Equal(decimal.NewFromInt(500)))
		}

		wf := workflow(t, e.conn, result.WorkflowID)
		require.Equal(t, 2, wf.CurrentQuorum)
		require.Equal(t, 3, wf.CurrentRosterSize)
		require.Equal(t, 1, e.sink.CountByType(models.ApprovalEventSubmitted))
		require.Equal(t, 3, e.sink.CountByType(models.ApprovalEventAssigned))
		require.Equal(t, 1, e.sink.CountByType(models.ApprovalEventLevelActivated))
	})
	t.Run(`upper bound is exclusive`, func(t *testing.T) {
		e := newEnv(t)
		level := testdb.Level(companyID, "purchase_order", 1)
		level.MaxAmount = decimal.NewNullDecimal(decimal.NewFromInt(1000))
		testdb.SeedRoster(t, e.conn, testdb.SeedLevel(t, e.conn, level), "u1")

		result, err := e.handler.Submit(submitData("po-1", 1000))
		require.NoError(t, err)
		require.False(t, result.ApprovalRequired)
	})
	t.Run(`quorum above roster size is clamped`, func(t *testing.T) {
		e := newEnv(t)
		level := testdb.Level(companyID, "purchase_order", 1)
		level.RequiredApprovals = 5
		testdb.SeedRoster(t, e.conn, testdb.SeedLevel(t, e.conn, level), "u1", "u2")

		result, err := e.handler.Submit(submitData("po-1", 100))
		require.NoError(t, err)
		require.Equal(t, 2, workflow(t, e.conn, result.WorkflowID).CurrentQuorum)
	})
	t.Run(`requires all approvers`, func(t *testing.T) {
		e := newEnv(t)
		level := testdb.Level(companyID, "purchase_order", 1)
		level.RequiresAllApprovers = true
		testdb.SeedRoster(t, e.conn, testdb.SeedLevel(t, e.conn, level), "u1", "u2", "u3")

		result, err := e.handler.Submit(submitData("po-1", 100))
		require.NoError(t, err)
		require.Equal(t, 3, workflow(t, e.conn, result.WorkflowID).CurrentQuorum)
	})
	t.Run(`active delegation picks the delegate`, func(t *testing.T) {
		e := newEnv(t)
		level := testdb.SeedLevel(t, e.conn, testdb.Level(companyID, "purchase_order", 1))
		roster := testdb.SeedRoster(t, e.conn, level, "u1", "u2")
		testdb.SeedDelegation(t, e.conn, roster[0], "u3")

		result, err := e.handler.Submit(submitData("po-1", 100))
		require.NoError(t, err)
		list := approvals(t, e.conn, result.WorkflowID)
		require.Len(t, list, 2)
		require.Equal(t, "u2", list[0].ApproverID)
		require.Equal(t, "u3", list[1].ApproverID)
	})
	t.Run(`document already on approval`, func(t *testing.T) {
		e := newEnv(t)
		testdb.SeedRoster(t, e.conn, testdb.SeedLevel(t, e.conn, testdb.Level(companyID, "purchase_order", 1)), "u1")

		_, err := e.handler.Submit(submitData("po-1", 100))
		require.NoError(t, err)
		_, err = e.handler.Submit(submitData("po-1", 100))
		require.True(t, models.IsValidationError(err))
	})
	t.Run(`empty roster rolls everything back`, func(t *testing.T) {
		e := newEnv(t)
		testdb.SeedLevel(t, e.conn, testdb.Level(companyID, "purchase_order", 1))

		_, err := e.handler.Submit(submitData("po-1", 100))
		require.True(t, models.IsValidationError(err))

		var count int64
		require.NoError(t, e.conn.Model(&dbmodels.ApprovalWorkflow{}).Count(&count).Error)
		require.Zero(t, count)
		require.Empty(t, e.sink.Events())
	})
	t.Run(`inactive level is skipped`, func(t *testing.T) {
		e := newEnv(t)
		inactive := testdb.Level(companyID, "purchase_order", 1)
		inactive.IsActive = false
		testdb.SeedRoster(t, e.conn, testdb.SeedLevel(t, e.conn, inactive), "u1")
		testdb.SeedRoster(t, e.conn, testdb.SeedLevel(t, e.conn, testdb.Level(companyID, "purchase_order", 2)), "u2")

		result, err := e.handler.Submit(submitData("po-1", 100))
		require.NoError(t, err)
		require.Equal(t, 2, result.LevelNumber)
	})
	t.Run(`invalid input`, func(t *testing.T) {
		e := newEnv(t)
		data := submitData("", 100)
		_, err := e.handler.Submit(data)
		require.True(t, models.IsValidationError(err))
	})
}

func TestRecall(t *testing.T) {
	setup := func(t *testing.T) (env, string) {
		e := newEnv(t)
		testdb.SeedRoster(t, e.conn, testdb.SeedLevel(t, e.conn, testdb.Level(companyID, "purchase_order", 1)), "u1", "u2")
		result, err := e.handler.Submit(submitData("po-1", 100))
		require.NoError(t, err)
		return e, result.WorkflowID
	}

	t.Run(`only the requester may recall`, func(t *testing.T) {
		e, workflowID := setup(t)
		err := e.handler.Recall(companyID, workflowID, "u1")
		require.True(t, errors.Is(err, models.ErrForbidden))
	})
	t.Run(`recall cancels pending approvals`, func(t *testing.T) {
		e, workflowID := setup(t)
		require.NoError(t, e.handler.Recall(companyID, workflowID, "requester"))

		wf := workflow(t, e.conn, workflowID)
		require.Equal(t, models.WorkflowStatusCancelled, wf.Status)
		require.NotNil(t, wf.CompletedAt)
		for _, rec := range approvals(t, e.conn, workflowID) {
			require.Equal(t, models.ApprovalStatusCancelled, rec.Status)
			require.Equal(t, 2, rec.Version)
		}
		require.Equal(t, 2, e.sink.CountByType(models.ApprovalEventCancelled))
		require.Equal(t, 1, e.sink.CountByType(models.ApprovalEventWorkflowRecalled))
		require.Empty(t, e.finalized.list)

		err := e.handler.Recall(companyID, workflowID, "requester")
		require.True(t, models.IsValidationError(err))
	})
	t.Run(`document can be resubmitted after recall`, func(t *testing.T) {
		e, workflowID := setup(t)
		require.NoError(t, e.handler.Recall(companyID, workflowID, "requester"))

		result, err := e.handler.Submit(submitData("po-1", 100))
		require.NoError(t, err)
		require.NotEqual(t, workflowID, result.WorkflowID)
	})
	t.Run(`unknown workflow`, func(t *testing.T) {
		e := newEnv(t)
		err := e.handler.Recall(companyID, "missing", "requester")
		require.True(t, errors.Is(err, models.ErrNotFound))
	})
}

func TestDueDate(t *testing.T) {
	level := dbmodels.ApprovalLevel{}
	require.Nil(t, DueDate(level, testdb.Now))

	sla := 8
	level.SlaHours = &sla
	due := DueDate(level, testdb.Now)
	require.NotNil(t, due)
	require.True(t, due.Equal(testdb.Now.Add(8*time.Hour)))
}
