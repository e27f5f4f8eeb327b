package delegationresolver

import (
	"approvals-backend/models"
	dbmodels "approvals-backend/models/db"
	"time"

	"github.com/pkg/errors"
)

// Roster is an immutable snapshot of one level's user entries.
type Roster struct {
	entries map[string]dbmodels.ApprovalLevelUser
	order   []string
}

func NewRoster(list []dbmodels.ApprovalLevelUser) Roster {
	r := Roster{
		entries: make(map[string]dbmodels.ApprovalLevelUser, len(list)),
		order:   make([]string, 0, len(list)),
	}
	for _, rec := range list {
		if _, ok := r.entries[rec.UserID]; ok {
			continue
		}
		r.entries[rec.UserID] = rec
		r.order = append(r.order, rec.UserID)
	}
	return r
}

// Resolve follows active delegations starting at userID as of asOf.
// The hop limit comes from the originating entry (values below 1 mean a single hop).
// A delegate without an entry on this roster ends the chain.
func (r Roster) Resolve(userID string, asOf time.Time) (string, error) {
	current, ok := r.entries[userID]
	if !ok {
		return userID, nil
	}
	limit := current.MaxDelegationLevel
	if limit < 1 {
		limit = 1
	}
	visited := map[string]bool{userID: true}
	result := userID
	hops := 0
	for current.DelegationActive(asOf) {
		next := *current.DelegateUserID
		if visited[next] {
			return "", errors.Wrapf(models.ErrDelegationCycle, "пользователь %s", userID)
		}
		if hops == limit {
			return "", errors.Wrapf(models.ErrDelegationChainTooDeep, "пользователь %s, допустимо переходов: %d", userID, limit)
		}
		hops++
		visited[next] = true
		result = next
		current, ok = r.entries[next]
		if !ok {
			break
		}
	}
	return result, nil
}

// EligibleApprovers resolves every active member and drops duplicates, keeping roster order.
func (r Roster) EligibleApprovers(asOf time.Time) ([]string, error) {
	result := make([]string, 0, len(r.order))
	seen := map[string]bool{}
	for _, userID := range r.order {
		if !r.entries[userID].IsActive {
			continue
		}
		approverID, err := r.Resolve(userID, asOf)
		if err != nil {
			return nil, err
		}
		if seen[approverID] {
			continue
		}
		seen[approverID] = true
		result = append(result, approverID)
	}
	return result, nil
}
