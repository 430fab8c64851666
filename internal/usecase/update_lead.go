package usecase

import (
	"context"
	"time"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

func NewUpdateLeadUseCase(repo entity.LeadRepositoryInterface) *UpdateLeadUseCase {
	return &UpdateLeadUseCase{Repo: repo, Now: time.Now}
}

func (in UpdateLeadInput) toUpdate() (entity.LeadUpdate, error) {
	var u entity.LeadUpdate
	if in.Status != nil {
		status := entity.LeadStatus(*in.Status)
		if !status.Valid() {
			return u, NewValidationError("status", "must be one of new, contacted, qualified, closed")
		}
		u.Status = &status
	}
	if in.AssignedTo.Set {
		if in.AssignedTo.Value == nil {
			u.ClearAssignee = true
		} else {
			u.AssignedTo = in.AssignedTo.Value
		}
	}
	if u.Empty() {
		return u, NewValidationError("", "no fields to update")
	}
	return u, nil
}

// Execute applies a status and/or assignee change and returns the lead as
// stored afterwards.
func (uc *UpdateLeadUseCase) Execute(ctx context.Context, id int64, input UpdateLeadInput) (*entity.Lead, error) {
	update, err := input.toUpdate()
	if err != nil {
		return nil, err
	}

	if err := uc.Repo.Update(ctx, id, update, uc.Now().UTC()); err != nil {
		return nil, storeErr("update lead", id, err)
	}

	lead, err := uc.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("reload lead", id, err)
	}
	return lead, nil
}
