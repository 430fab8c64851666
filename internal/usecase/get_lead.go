package usecase

import (
	"context"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

func NewGetLeadUseCase(repo entity.LeadRepositoryInterface) *GetLeadUseCase {
	return &GetLeadUseCase{Repo: repo}
}

func (uc *GetLeadUseCase) Execute(ctx context.Context, id int64) (*entity.Lead, error) {
	lead, err := uc.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("get lead", id, err)
	}
	return lead, nil
}

func NewDeleteLeadUseCase(repo entity.LeadRepositoryInterface) *DeleteLeadUseCase {
	return &DeleteLeadUseCase{Repo: repo}
}

// Execute removes the lead. Deleting an id that does not exist succeeds.
func (uc *DeleteLeadUseCase) Execute(ctx context.Context, id int64) error {
	if err := uc.Repo.Delete(ctx, id); err != nil {
		return &StoreError{Op: "delete lead", Err: err}
	}
	return nil
}
