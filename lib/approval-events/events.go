package approvalevents

import (
	"approvals-backend/models"
	dbmodels "approvals-backend/models/db"
	"time"

	log "github.com/sirupsen/logrus"
)

type Event struct {
	Type           models.ApprovalEventType
	CompanyID      string
	WorkflowID     string
	ApprovalID     string
	DocumentType   string
	DocumentID     string
	DocumentNumber string
	LevelNumber    int
	RequestedBy    string
	ApproverID     string
	ActorID        string
	FromStatus     string
	ToStatus       string
	Comment        string
	Changes        []dbmodels.FieldChanges
	DueDate        *time.Time
	OccurredAt     time.Time
}

func (e Event) logger() *log.Entry {
	return log.
		WithField("company_id", e.CompanyID).
		WithField("workflow_id", e.WorkflowID).
		WithField("approval_id", e.ApprovalID).
		WithField("event", e.Type)
}

// Sink receives events after the transaction that produced them has committed.
type Sink interface {
	Record(event Event) error
}

// Finalizer is the document owner's callback, called once per approved or rejected workflow.
type Finalizer interface {
	OnWorkflowFinalized(documentType, documentID string, status models.WorkflowStatus) error
}

type FinalizerFunc func(documentType, documentID string, status models.WorkflowStatus) error

func (f FinalizerFunc) OnWorkflowFinalized(documentType, documentID string, status models.WorkflowStatus) error {
	return f(documentType, documentID, status)
}

type Finalization struct {
	CompanyID    string
	WorkflowID   string
	DocumentType string
	DocumentID   string
	Status       models.WorkflowStatus
}

// Batch collects what a transaction wants to publish. It is discarded on rollback.
type Batch struct {
	events        []Event
	finalizations []Finalization
}

func NewBatch() *Batch {
	return &Batch{}
}

func (b *Batch) Add(event Event) {
	b.events = append(b.events, event)
}

func (b *Batch) Finalized(f Finalization) {
	b.finalizations = append(b.finalizations, f)
}

func (b *Batch) Events() []Event {
	return b.events
}

func (b *Batch) Finalizations() []Finalization {
	return b.finalizations
}

type Dispatcher interface {
	Dispatch(batch *Batch)
}

func NewDispatcher(sink Sink, finalizer Finalizer) Dispatcher {
	return dispatcher{
		sink:      sink,
		finalizer: finalizer,
	}
}

type dispatcher struct {
	sink      Sink
	finalizer Finalizer
}

// Dispatch never fails: sink and callback errors are logged only.
func (d dispatcher) Dispatch(batch *Batch) {
	if batch == nil {
		return
	}
	for _, event := range batch.Events() {
		d.record(event)
	}
	for _, f := range batch.Finalizations() {
		d.finalize(f)
	}
}

func (d dispatcher) record(event Event) {
	if d.sink == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			event.logger().Errorf("panic при записи события согласования: (%v)", r)
		}
	}()
	if err := d.sink.Record(event); err != nil {
		event.logger().WithError(err).Error("Ошибка записи события согласования")
	}
}

func (d dispatcher) finalize(f Finalization) {
	logger := log.
		WithField("company_id", f.CompanyID).
		WithField("workflow_id", f.WorkflowID).
		WithField("document_type", f.DocumentType).
		WithField("document_id", f.DocumentID).
		WithField("status", f.Status)
	if d.finalizer == nil {
		logger.Warn("Не задан обработчик завершения согласования")
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("panic в обработчике завершения согласования: (%v)", r)
		}
	}()
	if err := d.finalizer.OnWorkflowFinalized(f.DocumentType, f.DocumentID, f.Status); err != nil {
		logger.WithError(err).Error("Ошибка обработчика завершения согласования")
		return
	}
	logger.Info("Согласование документа завершено")
}
