package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rotisserie/eris"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

const leadColumns = `id, source, source_id, name, email, phone, message, page_url,
	campaign_id, campaign_name, status, assigned_to, meta, created_at, updated_at`

type LeadRepository struct {
	DB *sqlx.DB
}

func NewLeadRepository(db *sqlx.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	query := r.DB.Rebind(`
		INSERT INTO leads (
			source, source_id, name, email, phone, message, page_url,
			campaign_id, campaign_name, status, meta, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)

	err := r.DB.QueryRowxContext(ctx, query,
		string(lead.Source),
		lead.SourceID,
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.Message,
		lead.PageURL,
		lead.CampaignID,
		lead.CampaignName,
		string(lead.Status),
		lead.Meta,
		lead.CreatedAt.UTC(),
		lead.UpdatedAt.UTC(),
	).Scan(&lead.ID)

	return eris.Wrapf(err, "leads: insert %s lead", lead.Source)
}

func (r *LeadRepository) FindByID(ctx context.Context, id int64) (*entity.Lead, error) {
	var lead entity.Lead
	err := r.DB.GetContext(ctx, &lead, r.DB.Rebind(`SELECT `+leadColumns+` FROM leads WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrLeadNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "leads: get %d", id)
	}
	return &lead, nil
}

func (r *LeadRepository) Update(ctx context.Context, id int64, u entity.LeadUpdate, now time.Time) error {
	var (
		sets []string
		args []any
	)
	if u.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*u.Status))
	}
	if u.ClearAssignee {
		sets = append(sets, "assigned_to = NULL")
	} else if u.AssignedTo != nil {
		sets = append(sets, "assigned_to = ?")
		args = append(args, *u.AssignedTo)
	}
	if len(sets) == 0 {
		return eris.New("leads: update without fields")
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, now.UTC(), id)

	query := r.DB.Rebind(`UPDATE leads SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`)
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "leads: update %d", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "leads: rows affected")
	}
	if n == 0 {
		return entity.ErrLeadNotFound
	}
	return nil
}

func (r *LeadRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`DELETE FROM leads WHERE id = ?`), id)
	return eris.Wrapf(err, "leads: delete %d", id)
}

func (r *LeadRepository) Count(ctx context.Context, filter entity.LeadFilter) (int64, error) {
	where, args := buildLeadWhere(filter, lowerFunc(r.DB.DriverName()))
	query, bound, err := r.bindNamed(`SELECT COUNT(*) FROM leads`+where, args)
	if err != nil {
		return 0, err
	}

	var total int64
	if err := r.DB.GetContext(ctx, &total, query, bound...); err != nil {
		return 0, eris.Wrap(err, "leads: count")
	}
	return total, nil
}

func (r *LeadRepository) List(ctx context.Context, q entity.LeadQuery) ([]*entity.Lead, error) {
	where, args := buildLeadWhere(q.LeadFilter, lowerFunc(r.DB.DriverName()))
	args.Limit = q.PageSize
	args.Offset = q.Offset()

	query, bound, err := r.bindNamed(
		`SELECT `+leadColumns+` FROM leads`+where+buildLeadOrder(q.SortField, q.SortDir)+` LIMIT :limit OFFSET :offset`,
		args,
	)
	if err != nil {
		return nil, err
	}

	leads := []*entity.Lead{}
	if err := r.DB.SelectContext(ctx, &leads, query, bound...); err != nil {
		return nil, eris.Wrap(err, "leads: list")
	}
	return leads, nil
}

func (r *LeadRepository) Stats(ctx context.Context) (*entity.LeadStats, error) {
	query := `
		SELECT
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN status = 'new' THEN 1 ELSE 0 END), 0) AS new_count,
			COALESCE(SUM(CASE WHEN status = 'contacted' THEN 1 ELSE 0 END), 0) AS contacted_count,
			COALESCE(SUM(CASE WHEN status = 'qualified' THEN 1 ELSE 0 END), 0) AS qualified_count,
			COALESCE(SUM(CASE WHEN status = 'closed' THEN 1 ELSE 0 END), 0) AS closed_count,
			COALESCE(SUM(CASE WHEN source = 'instagram' THEN 1 ELSE 0 END), 0) AS instagram_count,
			COALESCE(SUM(CASE WHEN source = 'google' THEN 1 ELSE 0 END), 0) AS google_count,
			COALESCE(SUM(CASE WHEN source = 'website' THEN 1 ELSE 0 END), 0) AS website_count
		FROM leads
	`

	var stats entity.LeadStats
	if err := r.DB.GetContext(ctx, &stats, query); err != nil {
		return nil, eris.Wrap(err, "leads: stats")
	}
	return &stats, nil
}

// bindNamed expands :name references against args and rebinds the result to
// the driver's placeholder style.
func (r *LeadRepository) bindNamed(query string, args leadFilterArgs) (string, []any, error) {
	q, bound, err := sqlx.Named(query, args)
	if err != nil {
		return "", nil, eris.Wrap(err, "leads: bind filter")
	}
	return r.DB.Rebind(q), bound, nil
}
