package dbmodels

import "approvals-backend/models"

type ApprovalHistory struct {
	BaseCompanyModel
	WorkflowID   string                   `gorm:"type:varchar(36);index"`
	ApprovalID   string                   `gorm:"type:varchar(36)"`
	DocumentType string                   `gorm:"type:varchar(100);index:idx_approval_histories_document"`
	DocumentID   string                   `gorm:"type:varchar(36);index:idx_approval_histories_document"`
	Event        models.ApprovalEventType `gorm:"type:varchar(50)"`
	ActorID      string                   `gorm:"type:varchar(36)"`
	LevelNumber  int
	FromStatus   string `gorm:"type:varchar(20)"`
	ToStatus     string `gorm:"type:varchar(20)"`
	Comment      string
	Changes      EntityChanges `gorm:"type:jsonb"`
}
