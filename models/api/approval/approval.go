package approvalapimodels

import (
	"approvals-backend/models"
	apimodels "approvals-backend/models/api"
	dbmodels "approvals-backend/models/db"
	"time"

	"github.com/shopspring/decimal"
)

type SubmitData struct {
	CompanyID      string          `json:"-"`
	RequestedBy    string          `json:"-"`
	DocumentType   string          `json:"document_type"`
	DocumentID     string          `json:"document_id"`
	DocumentNumber string          `json:"document_number"`
	Amount         decimal.Decimal `json:"amount"`
}

func (r SubmitData) Validate() error {
	if r.DocumentType == "" {
		return models.NewValidationError("document_type", "не указан тип документа")
	}
	if r.DocumentID == "" {
		return models.NewValidationError("document_id", "не указан идентификатор документа")
	}
	if r.Amount.IsNegative() {
		return models.NewValidationError("amount", "сумма документа не может быть отрицательной")
	}
	return nil
}

// SubmitResult tells the caller explicitly whether the document needs approval at all.
type SubmitResult struct {
	ApprovalRequired bool                  `json:"approval_required"`
	WorkflowID       string                `json:"workflow_id,omitempty"`
	Status           models.WorkflowStatus `json:"status,omitempty"`
	LevelNumber      int                   `json:"level_number,omitempty"`
	ApprovalIDs      []string              `json:"approval_ids,omitempty"`
}

type DecisionData struct {
	Action           models.ApprovalAction `json:"action"`
	Comments         string                `json:"comments"`
	DelegateToUserID string                `json:"delegate_to_user_id"`
}

func (r DecisionData) Validate() error {
	if !r.Action.IsUserAction() {
		return models.NewValidationError("action", "неизвестное действие")
	}
	if r.Action == models.ApprovalActionDelegate && r.DelegateToUserID == "" {
		return models.NewValidationError("delegate_to_user_id", "не указан пользователь для делегирования")
	}
	return nil
}

type ProcessData struct {
	DecisionData
	CompanyID       string `json:"-"`
	UserID          string `json:"-"`
	ApprovalID      string `json:"-"`
	ExpectedVersion int    `json:"expected_version"`
}

type BulkData struct {
	DecisionData
	CompanyID   string   `json:"-"`
	UserID      string   `json:"-"`
	ApprovalIDs []string `json:"approval_ids"`
}

func (r BulkData) Validate() error {
	if len(r.ApprovalIDs) == 0 {
		return models.NewValidationError("approval_ids", "не указаны согласования")
	}
	seen := map[string]bool{}
	for _, id := range r.ApprovalIDs {
		if id == "" {
			return models.NewValidationError("approval_ids", "пустой идентификатор согласования")
		}
		if seen[id] {
			return models.NewValidationError("approval_ids", "согласование указано повторно: "+id)
		}
		seen[id] = true
	}
	return r.DecisionData.Validate()
}

type Outcome struct {
	ApprovalID        string                `json:"approval_id"`
	Status            models.ApprovalStatus `json:"status"`
	Version           int                   `json:"version"`
	DelegatedToID     string                `json:"delegated_to_id,omitempty"`
	LevelCompleted    bool                  `json:"level_completed"`
	NextLevelNumber   int                   `json:"next_level_number,omitempty"`
	WorkflowStatus    models.WorkflowStatus `json:"workflow_status"`
	WorkflowFinalized bool                  `json:"workflow_finalized"`
}

type PendingFilter struct {
	apimodels.Pagination
}

type ApprovalView struct {
	ID              string                `json:"id"`
	WorkflowID      string                `json:"workflow_id"`
	DocumentType    string                `json:"document_type"`
	DocumentID      string                `json:"document_id"`
	DocumentNumber  string                `json:"document_number"`
	ApprovalLevelID string                `json:"approval_level_id"`
	LevelNumber     int                   `json:"level_number"`
	RequestedBy     string                `json:"requested_by"`
	RequestedByName string                `json:"requested_by_name"`
	ApproverID      string                `json:"approver_id"`
	ApproverName    string                `json:"approver_name"`
	DocumentAmount  decimal.Decimal       `json:"document_amount"`
	Status          models.ApprovalStatus `json:"status"`
	StatusName      string                `json:"status_name"`
	Comments        string                `json:"comments"`
	RejectionReason string                `json:"rejection_reason"`
	RequestedDate   time.Time             `json:"requested_date"`
	DueDate         *time.Time            `json:"due_date"`
	ApprovedDate    *time.Time            `json:"approved_date"`
	DelegatedFromID *string               `json:"delegated_from_id"`
	Version         int                   `json:"version"`
	IsOverdue       bool                  `json:"is_overdue"`
}

func ApprovalConvert(rec dbmodels.Approval, now time.Time) ApprovalView {
	return ApprovalView{
		ID:              rec.ID,
		WorkflowID:      rec.WorkflowID,
		DocumentType:    rec.DocumentType,
		DocumentID:      rec.DocumentID,
		DocumentNumber:  rec.DocumentNumber,
		ApprovalLevelID: rec.ApprovalLevelID,
		LevelNumber:     rec.LevelNumber,
		RequestedBy:     rec.RequestedBy,
		ApproverID:      rec.ApproverID,
		DocumentAmount:  rec.DocumentAmount,
		Status:          rec.Status,
		StatusName:      rec.Status.ToHuman(),
		Comments:        rec.Comments,
		RejectionReason: rec.RejectionReason,
		RequestedDate:   rec.CreatedAt,
		DueDate:         rec.DueDate,
		ApprovedDate:    rec.ApprovedDate,
		DelegatedFromID: rec.DelegatedFromID,
		Version:         rec.Version,
		IsOverdue:       rec.IsOverdue(now),
	}
}

type WorkflowView struct {
	ID                 string                `json:"id"`
	DocumentType       string                `json:"document_type"`
	DocumentID         string                `json:"document_id"`
	DocumentNumber     string                `json:"document_number"`
	Amount             decimal.Decimal       `json:"amount"`
	RequestedBy        string                `json:"requested_by"`
	Status             models.WorkflowStatus `json:"status"`
	StatusName         string                `json:"status_name"`
	CurrentLevelNumber int                   `json:"current_level_number"`
	CurrentQuorum      int                   `json:"current_quorum"`
	CreatedAt          time.Time             `json:"created_at"`
	CompletedAt        *time.Time            `json:"completed_at"`
	Approvals          []ApprovalView        `json:"approvals"`
}

func WorkflowConvert(rec dbmodels.ApprovalWorkflow) WorkflowView {
	return WorkflowView{
		ID:                 rec.ID,
		DocumentType:       rec.DocumentType,
		DocumentID:         rec.DocumentID,
		DocumentNumber:     rec.DocumentNumber,
		Amount:             rec.Amount,
		RequestedBy:        rec.RequestedBy,
		Status:             rec.Status,
		StatusName:         rec.Status.ToHuman(),
		CurrentLevelNumber: rec.CurrentLevelNumber,
		CurrentQuorum:      rec.CurrentQuorum,
		CreatedAt:          rec.CreatedAt,
		CompletedAt:        rec.CompletedAt,
		Approvals:          []ApprovalView{},
	}
}

type HistoryView struct {
	ID          string                   `json:"id"`
	WorkflowID  string                   `json:"workflow_id"`
	ApprovalID  string                   `json:"approval_id"`
	Event       models.ApprovalEventType `json:"event"`
	ActorID     string                   `json:"actor_id"`
	ActorName   string                   `json:"actor_name"`
	LevelNumber int                      `json:"level_number"`
	FromStatus  string                   `json:"from_status"`
	ToStatus    string                   `json:"to_status"`
	Comment     string                   `json:"comment"`
	Changes     dbmodels.EntityChanges   `json:"changes"`
	CreatedAt   time.Time                `json:"created_at"`
}

func HistoryConvert(rec dbmodels.ApprovalHistory) HistoryView {
	return HistoryView{
		ID:          rec.ID,
		WorkflowID:  rec.WorkflowID,
		ApprovalID:  rec.ApprovalID,
		Event:       rec.Event,
		ActorID:     rec.ActorID,
		LevelNumber: rec.LevelNumber,
		FromStatus:  rec.FromStatus,
		ToStatus:    rec.ToStatus,
		Comment:     rec.Comment,
		Changes:     rec.Changes,
		CreatedAt:   rec.CreatedAt,
	}
}
