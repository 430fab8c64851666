package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/queue"
)

type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

func (m *MockLeadRepository) FindByID(ctx context.Context, id int64) (*entity.Lead, error) {
	args := m.Called(ctx, id)
	lead, _ := args.Get(0).(*entity.Lead)
	return lead, args.Error(1)
}

func (m *MockLeadRepository) Update(ctx context.Context, id int64, update entity.LeadUpdate, now time.Time) error {
	args := m.Called(ctx, id, update, now)
	return args.Error(0)
}

func (m *MockLeadRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockLeadRepository) Count(ctx context.Context, filter entity.LeadFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLeadRepository) List(ctx context.Context, query entity.LeadQuery) ([]*entity.Lead, error) {
	args := m.Called(ctx, query)
	leads, _ := args.Get(0).([]*entity.Lead)
	return leads, args.Error(1)
}

func (m *MockLeadRepository) Stats(ctx context.Context) (*entity.LeadStats, error) {
	args := m.Called(ctx)
	stats, _ := args.Get(0).(*entity.LeadStats)
	return stats, args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishLeadCreated(ctx context.Context, event queue.LeadCreatedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func strPtr(s string) *string { return &s }
