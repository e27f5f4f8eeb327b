package approvaloverdueworker

import (
	approvalevents "approvals-backend/lib/approval-events"
	approvalqueryhandler "approvals-backend/lib/approval-query"
	"approvals-backend/models"
	dbmodels "approvals-backend/models/db"
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeQuery struct {
	approvalqueryhandler.Provider
	list []dbmodels.Approval
	err  error
}

func (f *fakeQuery) Overdue(_ time.Time) ([]dbmodels.Approval, error) {
	return f.list, f.err
}

func overdueRec(id string, version int) dbmodels.Approval {
	due := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	rec := dbmodels.Approval{
		WorkflowID:  "wf-" + id,
		ApproverID:  "u1",
		LevelNumber: 1,
		Status:      models.ApprovalStatusPending,
		DueDate:     &due,
		Version:     version,
	}
	rec.ID = id
	rec.CompanyID = "company-1"
	return rec
}

func TestRemind(t *testing.T) {
	now := func() time.Time {
		return time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	}

	t.Run(`one reminder per approval version`, func(t *testing.T) {
		query := &fakeQuery{list: []dbmodels.Approval{overdueRec("a1", 1), overdueRec("a2", 1)}}
		sink := &approvalevents.MemorySink{}
		w := NewWorker(query, approvalevents.NewDispatcher(sink, nil), now)

		require.NoError(t, w.Remind(context.Background()))
		require.Equal(t, 2, sink.CountByType(models.ApprovalEventOverdue))

		require.NoError(t, w.Remind(context.Background()))
		require.Equal(t, 2, sink.CountByType(models.ApprovalEventOverdue))

		query.list = []dbmodels.Approval{overdueRec("a1", 2), overdueRec("a2", 1)}
		require.NoError(t, w.Remind(context.Background()))
		require.Equal(t, 3, sink.CountByType(models.ApprovalEventOverdue))

		last := sink.Events()[2]
		require.Equal(t, "a1", last.ApprovalID)
		require.Equal(t, models.SystemUser, last.ActorID)
		require.Equal(t, "u1", last.ApproverID)
	})
	t.Run(`resolved approvals are forgotten`, func(t *testing.T) {
		query := &fakeQuery{list: []dbmodels.Approval{overdueRec("a1", 1)}}
		sink := &approvalevents.MemorySink{}
		w := NewWorker(query, approvalevents.NewDispatcher(sink, nil), now)

		require.NoError(t, w.Remind(context.Background()))
		query.list = nil
		require.NoError(t, w.Remind(context.Background()))
		require.Empty(t, w.reminded)
		require.Equal(t, 1, sink.CountByType(models.ApprovalEventOverdue))
	})
	t.Run(`query error`, func(t *testing.T) {
		query := &fakeQuery{err: errors.New("db is down")}
		sink := &approvalevents.MemorySink{}
		w := NewWorker(query, approvalevents.NewDispatcher(sink, nil), now)

		require.Error(t, w.Remind(context.Background()))
		require.Empty(t, sink.Events())
	})
}
