package approvaloverdueworker

import (
	approvalevents "approvals-backend/lib/approval-events"
	approvalqueryhandler "approvals-backend/lib/approval-query"
	baseworker "approvals-backend/lib/utils/base-worker"
	"approvals-backend/lib/utils/helpers"
	"approvals-backend/lib/utils/lock"
	"approvals-backend/models"
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const lockKey = "approval-overdue-worker"

// StartWorker sends reminders for overdue approvals. Approvals themselves are never changed.
func StartWorker(ctx context.Context, firstRunDelay, runInterval time.Duration, dispatcher approvalevents.Dispatcher) {
	i := NewWorker(approvalqueryhandler.Instance, dispatcher, time.Now)
	base := baseworker.NewInstance("approvalOverdueWorker", firstRunDelay, runInterval)
	go base.Run(ctx, i.handle)
}

func NewWorker(query approvalqueryhandler.Provider, dispatcher approvalevents.Dispatcher, now func() time.Time) *Worker {
	return &Worker{
		query:      query,
		dispatcher: dispatcher,
		now:        now,
		reminded:   map[string]int{},
	}
}

type Worker struct {
	query      approvalqueryhandler.Provider
	dispatcher approvalevents.Dispatcher
	now        func() time.Time
	mu         sync.Mutex
	// approval id -> version the reminder was sent for
	reminded map[string]int
}

func (w *Worker) handle(ctx context.Context) {
	_, err := lock.WithDelay(ctx, lockKey, time.Second, func() error {
		return w.Remind(ctx)
	})
	if err != nil {
		log.WithError(err).Error("Ошибка отправки напоминаний о просроченных согласованиях")
	}
}

// Remind publishes one approval_overdue event per overdue approval and version.
func (w *Worker) Remind(ctx context.Context) error {
	now := w.now()
	list, err := w.query.Overdue(now)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	batch := approvalevents.NewBatch()
	current := make(map[string]int, len(list))
	for _, rec := range list {
		if helpers.IsContextDone(ctx) {
			break
		}
		current[rec.ID] = rec.Version
		if version, ok := w.reminded[rec.ID]; ok && version == rec.Version {
			continue
		}
		batch.Add(approvalevents.Event{
			Type:           models.ApprovalEventOverdue,
			CompanyID:      rec.CompanyID,
			WorkflowID:     rec.WorkflowID,
			ApprovalID:     rec.ID,
			DocumentType:   rec.DocumentType,
			DocumentID:     rec.DocumentID,
			DocumentNumber: rec.DocumentNumber,
			LevelNumber:    rec.LevelNumber,
			RequestedBy:    rec.RequestedBy,
			ApproverID:     rec.ApproverID,
			ActorID:        models.SystemUser,
			FromStatus:     string(rec.Status),
			ToStatus:       string(rec.Status),
			DueDate:        rec.DueDate,
			OccurredAt:     now,
		})
	}
	w.reminded = current
	if count := len(batch.Events()); count > 0 {
		w.dispatcher.Dispatch(batch)
		log.WithField("count", count).Info("Отправлены напоминания о просроченных согласованиях")
	}
	return nil
}
