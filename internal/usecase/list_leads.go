package usecase

import (
	"context"
	"net/url"
	"strings"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

func NewListLeadsUseCase(repo entity.LeadRepositoryInterface) *ListLeadsUseCase {
	return &ListLeadsUseCase{Repo: repo}
}

// ParseLeadQuery reads the console listing parameters. Absent parameters take
// their defaults; anything present but malformed is a ValidationError.
func ParseLeadQuery(params url.Values) (entity.LeadQuery, error) {
	q := entity.LeadQuery{
		SortField: entity.SortCreatedAt,
		SortDir:   entity.SortDesc,
	}

	var err error
	if q.Page, err = parsePositiveInt("page", params.Get("page"), defaultPage, 0); err != nil {
		return q, err
	}
	if q.PageSize, err = parsePositiveInt("pageSize", params.Get("pageSize"), defaultPageSize, maxPageSize); err != nil {
		return q, err
	}

	q.Search = params.Get("q")

	if v := params.Get("source"); v != "" {
		source := entity.LeadSource(v)
		if !source.Valid() {
			return q, NewValidationError("source", "unknown source "+v)
		}
		q.Source = &source
	}
	if v := params.Get("status"); v != "" {
		status := entity.LeadStatus(v)
		if !status.Valid() {
			return q, NewValidationError("status", "unknown status "+v)
		}
		q.Status = &status
	}

	if v := params.Get("dateFrom"); v != "" {
		from, _, err := parseDate("dateFrom", v)
		if err != nil {
			return q, err
		}
		q.DateFrom = &from
	}
	if v := params.Get("dateTo"); v != "" {
		to, dateOnly, err := parseDate("dateTo", v)
		if err != nil {
			return q, err
		}
		if dateOnly {
			to = endOfDay(to)
		}
		q.DateTo = &to
	}

	if v := params.Get("sortField"); v != "" {
		q.SortField = entity.SortField(v)
		if !q.SortField.Valid() {
			return q, NewValidationError("sortField", "unknown sort field "+v)
		}
	}
	if v := params.Get("sortDir"); v != "" {
		q.SortDir = entity.SortDir(strings.ToLower(v))
		if !q.SortDir.Valid() {
			return q, NewValidationError("sortDir", "must be asc or desc")
		}
	}
	return q, nil
}

// Execute runs the count and the page read. They are two independent reads,
// so under concurrent writes total may disagree with the page by a few rows.
func (uc *ListLeadsUseCase) Execute(ctx context.Context, q entity.LeadQuery) (*ListLeadsOutput, error) {
	total, err := uc.Repo.Count(ctx, q.LeadFilter)
	if err != nil {
		return nil, &StoreError{Op: "count leads", Err: err}
	}

	out := &ListLeadsOutput{
		Leads:      []*entity.Lead{},
		Total:      total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: int((total + int64(q.PageSize) - 1) / int64(q.PageSize)),
	}
	// past the last page there is nothing to read
	if q.Page > out.TotalPages {
		return out, nil
	}

	leads, err := uc.Repo.List(ctx, q)
	if err != nil {
		return nil, &StoreError{Op: "list leads", Err: err}
	}
	if leads != nil {
		out.Leads = leads
	}
	return out, nil
}
