package usecase

import (
	"context"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

func NewLeadStatsUseCase(repo entity.LeadRepositoryInterface) *LeadStatsUseCase {
	return &LeadStatsUseCase{Repo: repo}
}

func (uc *LeadStatsUseCase) Execute(ctx context.Context) (*entity.LeadStats, error) {
	stats, err := uc.Repo.Stats(ctx)
	if err != nil {
		return nil, &StoreError{Op: "lead stats", Err: err}
	}
	return stats, nil
}
