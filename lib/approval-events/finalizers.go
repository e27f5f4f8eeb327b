package approvalevents

import (
	"approvals-backend/models"
	"sync"

	log "github.com/sirupsen/logrus"
)

// FinalizerRegistry routes the finalization callback by document type.
type FinalizerRegistry struct {
	mu         sync.RWMutex
	finalizers map[string]Finalizer
}

func NewFinalizerRegistry() *FinalizerRegistry {
	return &FinalizerRegistry{
		finalizers: map[string]Finalizer{},
	}
}

func (r *FinalizerRegistry) Register(documentType string, finalizer Finalizer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finalizers[documentType] = finalizer
}

func (r *FinalizerRegistry) OnWorkflowFinalized(documentType, documentID string, status models.WorkflowStatus) error {
	r.mu.RLock()
	finalizer, ok := r.finalizers[documentType]
	r.mu.RUnlock()
	if !ok {
		log.
			WithField("document_type", documentType).
			WithField("document_id", documentID).
			WithField("status", status).
			Info("Для типа документа не зарегистрирован обработчик завершения согласования")
		return nil
	}
	return finalizer.OnWorkflowFinalized(documentType, documentID, status)
}
