package approvalqueryhandler

import (
	"approvals-backend/db"
	approvalhistorystore "approvals-backend/lib/approval/history-store"
	approvalstore "approvals-backend/lib/approval/store"
	approvalworkflowstore "approvals-backend/lib/approval/workflow-store"
	companyusershandler "approvals-backend/lib/company/users"
	delegationhandler "approvals-backend/lib/delegation"
	apimodels "approvals-backend/models/api"
	approvalapimodels "approvals-backend/models/api/approval"
	dbmodels "approvals-backend/models/db"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Provider is read-only.
type Provider interface {
	ListPending(companyID, userID string, page, pageSize int) (list []approvalapimodels.ApprovalView, rowCount int64, err error)
	ListOverdue(companyID string) ([]approvalapimodels.ApprovalView, error)
	Overdue(now time.Time) ([]dbmodels.Approval, error)
	DocumentApprovals(companyID, documentType, documentID string) ([]approvalapimodels.WorkflowView, error)
	History(companyID, documentType, documentID string) ([]approvalapimodels.HistoryView, error)
}

var Instance Provider

func NewHandler() {
	Instance = NewHandlerWithDB(db.DB, time.Now)
}

func NewHandlerWithDB(conn *gorm.DB, now func() time.Time) Provider {
	return impl{
		approvalStore: approvalstore.NewInstance(conn),
		workflowStore: approvalworkflowstore.NewInstance(conn),
		historyStore:  approvalhistorystore.NewInstance(conn),
		delegation:    delegationhandler.NewHandlerWithTx(conn),
		users:         companyusershandler.NewHandlerWithTx(conn),
		now:           now,
	}
}

type impl struct {
	approvalStore approvalstore.Provider
	workflowStore approvalworkflowstore.Provider
	historyStore  approvalhistorystore.Provider
	delegation    delegationhandler.Provider
	users         companyusershandler.Provider
	now           func() time.Time
}

func IsOverdue(rec dbmodels.Approval, now time.Time) bool {
	return rec.IsOverdue(now)
}

// ListPending returns pending approvals whose approver currently resolves to userID, oldest first.
func (i impl) ListPending(companyID, userID string, page, pageSize int) ([]approvalapimodels.ApprovalView, int64, error) {
	now := i.now()
	list, err := i.approvalStore.ListPending(companyID)
	if err != nil {
		return nil, 0, err
	}
	rosters, err := i.delegation.Rosters(levelIDs(list))
	if err != nil {
		return nil, 0, err
	}
	matched := make([]dbmodels.Approval, 0, len(list))
	for _, rec := range list {
		effectiveID, err := rosters[rec.ApprovalLevelID].Resolve(rec.ApproverID, now)
		if err != nil {
			// the assigned approver can still decide the row, keep it in their queue
			log.
				WithField("company_id", companyID).
				WithField("approval_id", rec.ID).
				WithError(err).
				Warn("Не удалось определить согласующего с учетом делегирования")
			effectiveID = rec.ApproverID
		}
		if effectiveID == userID {
			matched = append(matched, rec)
		}
	}
	sortByRequestedDate(matched)
	rowCount := int64(len(matched))
	from, to := apimodels.Pagination{Page: page, Limit: pageSize}.Window(len(matched))
	result, err := i.convert(matched[from:to], now)
	if err != nil {
		return nil, 0, err
	}
	return result, rowCount, nil
}

func (i impl) ListOverdue(companyID string) ([]approvalapimodels.ApprovalView, error) {
	now := i.now()
	list, err := i.approvalStore.ListPending(companyID)
	if err != nil {
		return nil, err
	}
	overdue := make([]dbmodels.Approval, 0, len(list))
	for _, rec := range list {
		if rec.IsOverdue(now) {
			overdue = append(overdue, rec)
		}
	}
	sortByRequestedDate(overdue)
	return i.convert(overdue, now)
}

func (i impl) Overdue(now time.Time) ([]dbmodels.Approval, error) {
	list, err := i.approvalStore.ListPendingWithDueDate()
	if err != nil {
		return nil, err
	}
	result := make([]dbmodels.Approval, 0, len(list))
	for _, rec := range list {
		if rec.IsOverdue(now) {
			result = append(result, rec)
		}
	}
	return result, nil
}

func (i impl) DocumentApprovals(companyID, documentType, documentID string) ([]approvalapimodels.WorkflowView, error) {
	now := i.now()
	workflows, err := i.workflowStore.ListByDocument(companyID, documentType, documentID)
	if err != nil {
		return nil, err
	}
	result := make([]approvalapimodels.WorkflowView, 0, len(workflows))
	for _, wf := range workflows {
		approvals, err := i.approvalStore.ListByWorkflow(wf.ID)
		if err != nil {
			return nil, err
		}
		view := approvalapimodels.WorkflowConvert(wf)
		view.Approvals, err = i.convert(approvals, now)
		if err != nil {
			return nil, err
		}
		result = append(result, view)
	}
	return result, nil
}

func (i impl) History(companyID, documentType, documentID string) ([]approvalapimodels.HistoryView, error) {
	list, err := i.historyStore.ListByDocument(companyID, documentType, documentID)
	if err != nil {
		return nil, err
	}
	userIDs := make([]string, 0, len(list))
	for _, rec := range list {
		userIDs = append(userIDs, rec.ActorID)
	}
	users, err := i.users.GetUsersDisplay(userIDs)
	if err != nil {
		return nil, err
	}
	result := make([]approvalapimodels.HistoryView, 0, len(list))
	for _, rec := range list {
		view := approvalapimodels.HistoryConvert(rec)
		view.ActorName = users[rec.ActorID].Name
		result = append(result, view)
	}
	return result, nil
}

func (i impl) convert(list []dbmodels.Approval, now time.Time) ([]approvalapimodels.ApprovalView, error) {
	userIDs := make([]string, 0, len(list)*2)
	for _, rec := range list {
		userIDs = append(userIDs, rec.ApproverID, rec.RequestedBy)
	}
	users, err := i.users.GetUsersDisplay(userIDs)
	if err != nil {
		return nil, err
	}
	result := make([]approvalapimodels.ApprovalView, 0, len(list))
	for _, rec := range list {
		view := approvalapimodels.ApprovalConvert(rec, now)
		view.ApproverName = users[rec.ApproverID].Name
		view.RequestedByName = users[rec.RequestedBy].Name
		result = append(result, view)
	}
	return result, nil
}

func sortByRequestedDate(list []dbmodels.Approval) {
	sort.SliceStable(list, func(a, b int) bool {
		if !list[a].CreatedAt.Equal(list[b].CreatedAt) {
			return list[a].CreatedAt.Before(list[b].CreatedAt)
		}
		return list[a].ID < list[b].ID
	})
}

func levelIDs(list []dbmodels.Approval) []string {
	seen := make(map[string]struct{}, len(list))
	result := make([]string, 0, len(list))
	for _, rec := range list {
		if _, ok := seen[rec.ApprovalLevelID]; ok {
			continue
		}
		seen[rec.ApprovalLevelID] = struct{}{}
		result = append(result, rec.ApprovalLevelID)
	}
	return result
}
