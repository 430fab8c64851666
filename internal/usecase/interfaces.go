package usecase

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/queue"
)

type Normalizer func(raw []byte) ([]entity.NormalizedLead, error)

type EnvelopeValidatorInterface interface {
	Validate(source entity.LeadSource, raw []byte) error
}

type IngestLeadUseCase struct {
	Repo        entity.LeadRepositoryInterface
	Validator   EnvelopeValidatorInterface
	Events      queue.LeadEventPublisher
	Normalizers map[entity.LeadSource]Normalizer
	Now         func() time.Time
}

type ListLeadsOutput struct {
	Leads      []*entity.Lead `json:"leads"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}

type ListLeadsUseCase struct {
	Repo entity.LeadRepositoryInterface
}

// OptionalString tells "field absent" apart from "field: null" in a JSON body.
type OptionalString struct {
	Set   bool
	Value *string
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

type UpdateLeadInput struct {
	Status     *string        `json:"status"`
	AssignedTo OptionalString `json:"assigned_to"`
}

type UpdateLeadUseCase struct {
	Repo entity.LeadRepositoryInterface
	Now  func() time.Time
}

type GetLeadUseCase struct {
	Repo entity.LeadRepositoryInterface
}

type DeleteLeadUseCase struct {
	Repo entity.LeadRepositoryInterface
}

type LeadStatsUseCase struct {
	Repo entity.LeadRepositoryInterface
}

// storeErr maps repository failures onto the usecase taxonomy.
func storeErr(op string, id int64, err error) error {
	if err == nil {
		return nil
	}
	if isLeadNotFound(err) {
		return &NotFoundError{Resource: "lead", ID: id}
	}
	return &StoreError{Op: op, Err: err}
}

func isLeadNotFound(err error) bool {
	return err != nil && errors.Is(err, entity.ErrLeadNotFound)
}
