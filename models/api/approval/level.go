package approvalapimodels

import (
	"approvals-backend/models"
	dbmodels "approvals-backend/models/db"
	"time"

	"github.com/shopspring/decimal"
)

type LevelData struct {
	DocumentType         string           `json:"document_type"`          // Тип документа (purchase_order, expense, ...)
	EntityType           string           `json:"entity_type"`            // Тип сущности
	Level                int              `json:"level"`                  // Номер уровня, начиная с 1
	Name                 string           `json:"name"`                   // Наименование уровня
	Description          string           `json:"description"`            // Описание
	MinAmount            *decimal.Decimal `json:"min_amount"`             // Нижняя граница суммы (включительно)
	MaxAmount            *decimal.Decimal `json:"max_amount"`             // Верхняя граница суммы (не включительно)
	RequiresAllApprovers bool             `json:"requires_all_approvers"` // Требуется решение всех участников
	RequiredApprovals    int              `json:"required_approvals"`     // Кворум, если не требуются все
	AutoApprovalDays     *int             `json:"auto_approval_days"`     // Хранится, не применяется
	SlaHours             *int             `json:"sla_hours"`              // Срок рассмотрения в часах
	IsActive             bool             `json:"is_active"`              // Уровень участвует в маршрутизации
}

func (r LevelData) Validate() error {
	if r.DocumentType == "" {
		return models.NewValidationError("document_type", "не указан тип документа")
	}
	if r.Name == "" {
		return models.NewValidationError("name", "не указано наименование уровня")
	}
	if r.Level < 1 {
		return models.NewValidationError("level", "номер уровня должен быть положительным")
	}
	if r.MinAmount != nil && r.MinAmount.IsNegative() {
		return models.NewValidationError("min_amount", "сумма не может быть отрицательной")
	}
	if r.MaxAmount != nil && r.MaxAmount.IsNegative() {
		return models.NewValidationError("max_amount", "сумма не может быть отрицательной")
	}
	if r.MinAmount != nil && r.MaxAmount != nil && !r.MinAmount.LessThan(*r.MaxAmount) {
		return models.NewValidationError("min_amount", "минимальная сумма должна быть меньше максимальной")
	}
	if r.RequiredApprovals < 1 {
		return models.NewValidationError("required_approvals", "количество согласований должно быть больше нуля")
	}
	if r.AutoApprovalDays != nil && *r.AutoApprovalDays < 0 {
		return models.NewValidationError("auto_approval_days", "количество дней не может быть отрицательным")
	}
	if r.SlaHours != nil && *r.SlaHours <= 0 {
		return models.NewValidationError("sla_hours", "срок рассмотрения должен быть больше нуля")
	}
	return nil
}

// LevelPatch carries only the changed fields; Clear* flags reset nullable values.
type LevelPatch struct {
	Level                 *int             `json:"level"`
	Name                  *string          `json:"name"`
	Description           *string          `json:"description"`
	EntityType            *string          `json:"entity_type"`
	MinAmount             *decimal.Decimal `json:"min_amount"`
	MaxAmount             *decimal.Decimal `json:"max_amount"`
	ClearMinAmount        bool             `json:"clear_min_amount"`
	ClearMaxAmount        bool             `json:"clear_max_amount"`
	RequiresAllApprovers  *bool            `json:"requires_all_approvers"`
	RequiredApprovals     *int             `json:"required_approvals"`
	AutoApprovalDays      *int             `json:"auto_approval_days"`
	ClearAutoApprovalDays bool             `json:"clear_auto_approval_days"`
	SlaHours              *int             `json:"sla_hours"`
	ClearSlaHours         bool             `json:"clear_sla_hours"`
	IsActive              *bool            `json:"is_active"`
}

func (p LevelPatch) Apply(data LevelData) LevelData {
	if p.Level != nil {
		data.Level = *p.Level
	}
	if p.Name != nil {
		data.Name = *p.Name
	}
	if p.Description != nil {
		data.Description = *p.Description
	}
	if p.EntityType != nil {
		data.EntityType = *p.EntityType
	}
	if p.ClearMinAmount {
		data.MinAmount = nil
	} else if p.MinAmount != nil {
		data.MinAmount = p.MinAmount
	}
	if p.ClearMaxAmount {
		data.MaxAmount = nil
	} else if p.MaxAmount != nil {
		data.MaxAmount = p.MaxAmount
	}
	if p.RequiresAllApprovers != nil {
		data.RequiresAllApprovers = *p.RequiresAllApprovers
	}
	if p.RequiredApprovals != nil {
		data.RequiredApprovals = *p.RequiredApprovals
	}
	if p.ClearAutoApprovalDays {
		data.AutoApprovalDays = nil
	} else if p.AutoApprovalDays != nil {
		data.AutoApprovalDays = p.AutoApprovalDays
	}
	if p.ClearSlaHours {
		data.SlaHours = nil
	} else if p.SlaHours != nil {
		data.SlaHours = p.SlaHours
	}
	if p.IsActive != nil {
		data.IsActive = *p.IsActive
	}
	return data
}

type LevelView struct {
	LevelData
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func LevelConvert(rec dbmodels.ApprovalLevel) LevelView {
	return LevelView{
		LevelData: LevelToData(rec),
		ID:        rec.ID,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

func LevelToData(rec dbmodels.ApprovalLevel) LevelData {
	data := LevelData{
		DocumentType:         rec.DocumentType,
		EntityType:           rec.EntityType,
		Level:                rec.Level,
		Name:                 rec.Name,
		Description:          rec.Description,
		RequiresAllApprovers: rec.RequiresAllApprovers,
		RequiredApprovals:    rec.RequiredApprovals,
		AutoApprovalDays:     rec.AutoApprovalDays,
		SlaHours:             rec.SlaHours,
		IsActive:             rec.IsActive,
	}
	if rec.MinAmount.Valid {
		minAmount := rec.MinAmount.Decimal
		data.MinAmount = &minAmount
	}
	if rec.MaxAmount.Valid {
		maxAmount := rec.MaxAmount.Decimal
		data.MaxAmount = &maxAmount
	}
	return data
}

func NullAmount(amount *decimal.Decimal) decimal.NullDecimal {
	if amount == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*amount)
}
