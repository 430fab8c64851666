package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/queue"
)

func DefaultNormalizers() map[entity.LeadSource]Normalizer {
	return map[entity.LeadSource]Normalizer{
		entity.SourceInstagram: NormalizeInstagram,
		entity.SourceGoogle:    NormalizeGoogle,
		entity.SourceWebsite:   NormalizeWebsite,
	}
}

func NewIngestLeadUseCase(
	repo entity.LeadRepositoryInterface,
	validator EnvelopeValidatorInterface,
	events queue.LeadEventPublisher,
) *IngestLeadUseCase {
	if events == nil {
		events = queue.NopPublisher{}
	}
	return &IngestLeadUseCase{
		Repo:        repo,
		Validator:   validator,
		Events:      events,
		Normalizers: DefaultNormalizers(),
		Now:         time.Now,
	}
}

// Execute validates and normalizes one webhook body and stores one lead per
// normalized record. Inserts are independent: when insert k fails the ids of
// the earlier leads are still returned together with the StoreError.
func (uc *IngestLeadUseCase) Execute(ctx context.Context, source entity.LeadSource, raw []byte) ([]int64, error) {
	normalize, ok := uc.Normalizers[source]
	if !ok {
		return nil, NewValidationError("source", "unsupported source "+string(source))
	}

	if uc.Validator != nil {
		if err := uc.Validator.Validate(source, raw); err != nil {
			return nil, err
		}
	}

	normalized, err := normalize(raw)
	if err != nil {
		return nil, err
	}

	log := zap.L().With(zap.String("source", string(source)))
	ids := make([]int64, 0, len(normalized))
	for i, n := range normalized {
		lead := entity.NewLead(n, uc.Now().UTC())
		if err := uc.Repo.Create(ctx, lead); err != nil {
			log.Error("lead insert failed", zap.Int("index", i), zap.Int("stored", len(ids)), zap.Error(err))
			return ids, &StoreError{Op: "ingest " + string(source) + " lead", Err: err}
		}
		ids = append(ids, lead.ID)
		log.Info("lead ingested", zap.Int64("lead_id", lead.ID))

		if err := uc.Events.PublishLeadCreated(ctx, queue.NewLeadCreatedEvent(lead)); err != nil {
			log.Warn("lead event not published", zap.Int64("lead_id", lead.ID), zap.Error(err))
		}
	}
	return ids, nil
}
