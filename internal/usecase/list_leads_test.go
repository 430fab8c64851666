package usecase

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

func TestParseLeadQuery_Defaults(t *testing.T) {
	q, err := ParseLeadQuery(url.Values{})
	require.NoError(t, err)

	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 20, q.PageSize)
	assert.Equal(t, entity.SortCreatedAt, q.SortField)
	assert.Equal(t, entity.SortDesc, q.SortDir)
	assert.Empty(t, q.Search)
	assert.Nil(t, q.Source)
	assert.Nil(t, q.Status)
	assert.Nil(t, q.DateFrom)
	assert.Nil(t, q.DateTo)
}

func TestParseLeadQuery_AllParams(t *testing.T) {
	q, err := ParseLeadQuery(url.Values{
		"page":      {"3"},
		"pageSize":  {"100"},
		"q":         {"  ann "},
		"source":    {"google"},
		"status":    {"closed"},
		"dateFrom":  {"2026-01-01"},
		"dateTo":    {"2026-01-31"},
		"sortField": {"email"},
		"sortDir":   {"ASC"},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, q.Page)
	assert.Equal(t, 100, q.PageSize)
	assert.Equal(t, 200, q.Offset())
	assert.Equal(t, "  ann ", q.Search, "the term is matched as given")
	assert.Equal(t, entity.SourceGoogle, *q.Source)
	assert.Equal(t, entity.StatusClosed, *q.Status)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), *q.DateFrom)
	assert.Equal(t, time.Date(2026, 1, 31, 23, 59, 59, 999999999, time.UTC), *q.DateTo)
	assert.Equal(t, entity.SortEmail, q.SortField)
	assert.Equal(t, entity.SortAsc, q.SortDir)
}

func TestParseLeadQuery_TimestampDateTo(t *testing.T) {
	q, err := ParseLeadQuery(url.Values{"dateTo": {"2026-01-31T10:00:00Z"}})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 31, 10, 0, 0, 0, time.UTC), *q.DateTo)
}

func TestParseLeadQuery_Invalid(t *testing.T) {
	cases := map[string]url.Values{
		"page not int":      {"page": {"abc"}},
		"page zero":         {"page": {"0"}},
		"page size zero":    {"pageSize": {"0"}},
		"page size too big": {"pageSize": {"101"}},
		"unknown source":    {"source": {"tiktok"}},
		"unknown status":    {"status": {"won"}},
		"bad date":          {"dateFrom": {"yesterday"}},
		"bad sort field":    {"sortField": {"id; DROP TABLE leads"}},
		"bad sort dir":      {"sortDir": {"up"}},
	}
	for name, params := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseLeadQuery(params)
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestListLeads_TotalPages(t *testing.T) {
	cases := []struct {
		total     int64
		pageSize  int
		wantPages int
	}{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{23, 5, 5},
		{101, 100, 2},
	}
	for _, tc := range cases {
		repo := new(MockLeadRepository)
		repo.On("Count", mock.Anything, mock.Anything).Return(tc.total, nil)
		repo.On("List", mock.Anything, mock.Anything).Return(nil, nil)

		out, err := NewListLeadsUseCase(repo).Execute(context.Background(), entity.LeadQuery{Page: 1, PageSize: tc.pageSize})
		require.NoError(t, err)
		assert.Equal(t, tc.wantPages, out.TotalPages, "total=%d size=%d", tc.total, tc.pageSize)
		assert.NotNil(t, out.Leads)
	}
}

func TestListLeads_PassesFilterToCount(t *testing.T) {
	status := entity.StatusNew
	q := entity.LeadQuery{LeadFilter: entity.LeadFilter{Status: &status, Search: "x"}, Page: 2, PageSize: 10}

	repo := new(MockLeadRepository)
	repo.On("Count", mock.Anything, q.LeadFilter).Return(int64(12), nil)
	repo.On("List", mock.Anything, q).Return([]*entity.Lead{{ID: 1}, {ID: 2}}, nil)

	out, err := NewListLeadsUseCase(repo).Execute(context.Background(), q)
	require.NoError(t, err)
	assert.Len(t, out.Leads, 2)
	assert.Equal(t, int64(12), out.Total)
	assert.Equal(t, 2, out.Page)
	assert.Equal(t, 10, out.PageSize)
	repo.AssertExpectations(t)
}

func TestListLeads_PagePastEnd(t *testing.T) {
	q, err := ParseLeadQuery(url.Values{"page": {"92233720368547760"}, "pageSize": {"100"}})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, q.Offset(), 0)

	repo := new(MockLeadRepository)
	repo.On("Count", mock.Anything, mock.Anything).Return(int64(1), nil)

	out, err := NewListLeadsUseCase(repo).Execute(context.Background(), q)
	require.NoError(t, err)
	assert.Empty(t, out.Leads)
	assert.NotNil(t, out.Leads)
	assert.Equal(t, int64(1), out.Total)
	assert.Equal(t, 1, out.TotalPages)
	repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestListLeads_StoreError(t *testing.T) {
	repo := new(MockLeadRepository)
	repo.On("Count", mock.Anything, mock.Anything).Return(int64(0), errors.New("boom"))

	_, err := NewListLeadsUseCase(repo).Execute(context.Background(), entity.LeadQuery{Page: 1, PageSize: 20})
	assert.True(t, IsStoreError(err))
}
