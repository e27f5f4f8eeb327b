package approvalevents

import (
	approvalhistorystore "approvals-backend/lib/approval/history-store"
	companyusershandler "approvals-backend/lib/company/users"
	"approvals-backend/lib/smtp"
	"approvals-backend/models"
	dbmodels "approvals-backend/models/db"
	"fmt"
	"sync"

	"github.com/pkg/errors"
)

func NewHistorySink(store approvalhistorystore.Provider) Sink {
	return historySink{
		store: store,
	}
}

type historySink struct {
	store approvalhistorystore.Provider
}

func (s historySink) Record(event Event) error {
	rec := dbmodels.ApprovalHistory{
		BaseCompanyModel: dbmodels.BaseCompanyModel{
			CompanyID: event.CompanyID,
		},
		WorkflowID:   event.WorkflowID,
		ApprovalID:   event.ApprovalID,
		DocumentType: event.DocumentType,
		DocumentID:   event.DocumentID,
		Event:        event.Type,
		ActorID:      event.ActorID,
		LevelNumber:  event.LevelNumber,
		FromStatus:   event.FromStatus,
		ToStatus:     event.ToStatus,
		Comment:      event.Comment,
		Changes: dbmodels.EntityChanges{
			Description: event.Comment,
			Data:        event.Changes,
		},
	}
	_, err := s.store.Create(rec)
	if err != nil {
		return errors.Wrap(err, "ошибка добавления истории согласования")
	}
	return nil
}

func NewMailNotifier(mailer smtp.Provider, users companyusershandler.Provider, senderEmail string) Sink {
	return mailNotifier{
		mailer:      mailer,
		users:       users,
		senderEmail: senderEmail,
	}
}

type mailNotifier struct {
	mailer      smtp.Provider
	users       companyusershandler.Provider
	senderEmail string
}

func (s mailNotifier) Record(event Event) error {
	recipientID, subject, message := notification(event)
	if recipientID == "" || s.mailer == nil {
		return nil
	}
	user, err := s.users.GetUserDisplay(recipientID)
	if err != nil {
		return err
	}
	if user.Email == "" {
		event.logger().WithField("user_id", recipientID).Warn("Уведомление не отправлено, у сотрудника не указана почта")
		return nil
	}
	return s.mailer.SendEMail(s.senderEmail, user.Email, message, subject)
}

func notification(event Event) (recipientID, subject, message string) {
	document := fmt.Sprintf("%s %s", event.DocumentType, event.DocumentNumber)
	switch event.Type {
	case models.ApprovalEventAssigned:
		message = fmt.Sprintf("Документ %s ожидает вашего согласования (уровень %d).", document, event.LevelNumber)
		if event.DueDate != nil {
			message += fmt.Sprintf(" Срок: %s.", event.DueDate.Format("02.01.2006 15:04"))
		}
		return event.ApproverID, "Новый документ на согласование", message
	case models.ApprovalEventOverdue:
		message = fmt.Sprintf("Истек срок согласования документа %s (уровень %d).", document, event.LevelNumber)
		return event.ApproverID, "Просрочено согласование", message
	case models.ApprovalEventWorkflowClosed:
		message = fmt.Sprintf("Согласование документа %s завершено: %s.", document, models.WorkflowStatus(event.ToStatus).ToHuman())
		if event.Comment != "" {
			message += fmt.Sprintf(" Комментарий: %s", event.Comment)
		}
		return event.RequestedBy, "Согласование завершено", message
	}
	return "", "", ""
}

// NewMultiSink fans an event out to every sink; one failing sink does not stop the others.
func NewMultiSink(sinks ...Sink) Sink {
	return multiSink{
		sinks: sinks,
	}
}

type multiSink struct {
	sinks []Sink
}

func (s multiSink) Record(event Event) error {
	var firstErr error
	for _, sink := range s.sinks {
		if err := sink.Record(event); err != nil {
			event.logger().WithError(err).Error("Ошибка обработки события согласования")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// MemorySink keeps events in memory.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

func (s *MemorySink) Record(event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]Event, len(s.events))
	copy(result, s.events)
	return result
}

func (s *MemorySink) CountByType(eventType models.ApprovalEventType) int {
	count := 0
	for _, event := range s.Events() {
		if event.Type == eventType {
			count++
		}
	}
	return count
}
