package entity

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"
)

type LeadSource string

const (
	SourceInstagram LeadSource = "instagram"
	SourceGoogle    LeadSource = "google"
	SourceWebsite   LeadSource = "website"
	SourceOther     LeadSource = "other"
)

func (s LeadSource) Valid() bool {
	switch s {
	case SourceInstagram, SourceGoogle, SourceWebsite, SourceOther:
		return true
	}
	return false
}

type LeadStatus string

const (
	StatusNew       LeadStatus = "new"
	StatusContacted LeadStatus = "contacted"
	StatusQualified LeadStatus = "qualified"
	StatusClosed    LeadStatus = "closed"
)

func (s LeadStatus) Valid() bool {
	switch s {
	case StatusNew, StatusContacted, StatusQualified, StatusClosed:
		return true
	}
	return false
}

// ErrLeadNotFound is returned by repositories when no row matches the id.
var ErrLeadNotFound = errors.New("lead not found")

// Lead is the canonical record every inbound channel is reduced to.
type Lead struct {
	ID           int64      `json:"id" db:"id"`
	Source       LeadSource `json:"source" db:"source"`
	SourceID     *string    `json:"source_id" db:"source_id"`
	Name         *string    `json:"name" db:"name"`
	Email        *string    `json:"email" db:"email"`
	Phone        *string    `json:"phone" db:"phone"`
	Message      *string    `json:"message" db:"message"`
	PageURL      *string    `json:"page_url" db:"page_url"`
	CampaignID   *string    `json:"campaign_id" db:"campaign_id"`
	CampaignName *string    `json:"campaign_name" db:"campaign_name"`
	Status       LeadStatus `json:"status" db:"status"`
	AssignedTo   *string    `json:"assigned_to" db:"assigned_to"`
	Meta         *string    `json:"meta" db:"meta"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// NormalizedLead is the output of a source normalizer. Raw holds the payload
// bytes that produced it and is persisted verbatim as Lead.Meta.
type NormalizedLead struct {
	Source       LeadSource
	SourceID     *string
	Name         *string
	Email        *string
	Phone        *string
	Message      *string
	PageURL      *string
	CampaignID   *string
	CampaignName *string
	Raw          json.RawMessage
}

// NewLead builds the row inserted for a normalized payload: status new,
// created_at == updated_at, meta taken from the raw snapshot.
func NewLead(n NormalizedLead, now time.Time) *Lead {
	var meta *string
	if len(n.Raw) > 0 {
		s := string(n.Raw)
		meta = &s
	}
	return &Lead{
		Source:       n.Source,
		SourceID:     n.SourceID,
		Name:         n.Name,
		Email:        n.Email,
		Phone:        n.Phone,
		Message:      n.Message,
		PageURL:      n.PageURL,
		CampaignID:   n.CampaignID,
		CampaignName: n.CampaignName,
		Status:       StatusNew,
		Meta:         meta,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

type SortField string

const (
	SortCreatedAt SortField = "created_at"
	SortUpdatedAt SortField = "updated_at"
	SortName      SortField = "name"
	SortEmail     SortField = "email"
)

func (f SortField) Valid() bool {
	switch f {
	case SortCreatedAt, SortUpdatedAt, SortName, SortEmail:
		return true
	}
	return false
}

type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

func (d SortDir) Valid() bool {
	return d == SortAsc || d == SortDesc
}

// LeadFilter holds the optional predicates shared by the count and the page
// read of a listing.
type LeadFilter struct {
	Search   string
	Source   *LeadSource
	Status   *LeadStatus
	DateFrom *time.Time
	DateTo   *time.Time
}

// LeadQuery is one console listing request.
type LeadQuery struct {
	LeadFilter
	SortField SortField
	SortDir   SortDir
	Page      int
	PageSize  int
}

// Offset is the row offset of the page, saturating at math.MaxInt when the
// page lies beyond any addressable row.
func (q LeadQuery) Offset() int {
	if q.Page <= 1 || q.PageSize <= 0 {
		return 0
	}
	if q.Page-1 > math.MaxInt/q.PageSize {
		return math.MaxInt
	}
	return (q.Page - 1) * q.PageSize
}

// LeadUpdate carries the only two fields the console may change. A nil
// field is left untouched; ClearAssignee sets assigned_to to NULL.
type LeadUpdate struct {
	Status        *LeadStatus
	AssignedTo    *string
	ClearAssignee bool
}

func (u LeadUpdate) Empty() bool {
	return u.Status == nil && u.AssignedTo == nil && !u.ClearAssignee
}

type LeadStats struct {
	Total          int64 `json:"total" db:"total"`
	NewCount       int64 `json:"new_count" db:"new_count"`
	ContactedCount int64 `json:"contacted_count" db:"contacted_count"`
	QualifiedCount int64 `json:"qualified_count" db:"qualified_count"`
	ClosedCount    int64 `json:"closed_count" db:"closed_count"`
	InstagramCount int64 `json:"instagram_count" db:"instagram_count"`
	GoogleCount    int64 `json:"google_count" db:"google_count"`
	WebsiteCount   int64 `json:"website_count" db:"website_count"`
}

type LeadRepositoryInterface interface {
	Create(ctx context.Context, lead *Lead) error
	FindByID(ctx context.Context, id int64) (*Lead, error)
	Update(ctx context.Context, id int64, update LeadUpdate, now time.Time) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context, filter LeadFilter) (int64, error)
	List(ctx context.Context, query LeadQuery) ([]*Lead, error)
	Stats(ctx context.Context) (*LeadStats, error)
}
