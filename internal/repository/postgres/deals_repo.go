package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradecrm/crm-backend/internal/models"
	"github.com/tradecrm/crm-backend/internal/repository"
)

type dealsRepo struct{ pool *pgxpool.Pool }

func NewDeals(pool *pgxpool.Pool) repository.Deals {
	return &dealsRepo{pool: pool}
}

const dealCols = `id, title, coalesce(description,''), company_id, contact_id, stage, coalesce(value,0), currency, probability, expected_close_date, actual_close_date, coalesce(source,''), coalesce(assigned_to,''), status, priority, tags, lead_score, tenant_id, is_active, coalesce(created_by,''), coalesce(updated_by,''), created_at, updated_at`

func scanDeal(row pgx.Row) (models.Deal, error) {
	var d models.Deal
	err := row.Scan(&d.ID, &d.Title, &d.Description, &d.CompanyID, &d.ContactID, &d.Stage,
		&d.Value, &d.Currency, &d.Probability, &d.ExpectedCloseDate, &d.ActualCloseDate,
		&d.Source, &d.AssignedTo, &d.Status, &d.Priority, &d.Tags, &d.LeadScore,
		&d.TenantID, &d.IsActive, &d.CreatedBy, &d.UpdatedBy, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

func insertDeal(ctx context.Context, q querier, d models.Deal) error {
	_, err := q.Exec(ctx,
		`INSERT INTO deals(id, title, description, company_id, contact_id, stage, value, currency, probability, expected_close_date, actual_close_date, source, assigned_to, status, priority, tags, lead_score, tenant_id, created_by, updated_by)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$19)`,
		d.ID, d.Title, nullable(d.Description), d.CompanyID, d.ContactID, d.Stage, d.Value,
		d.Currency, d.Probability, d.ExpectedCloseDate, d.ActualCloseDate, nullable(d.Source),
		nullable(d.AssignedTo), d.Status, d.Priority, d.Tags, d.LeadScore, d.TenantID,
		nullable(d.CreatedBy),
	)
	return err
}

func (r *dealsRepo) Create(ctx context.Context, d models.Deal, initial models.Activity, audit models.AuditLog) (models.Deal, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := insertDeal(ctx, tx, d); err != nil {
			return err
		}
		initial.DealID = &d.ID
		if err := insertActivity(ctx, tx, initial); err != nil {
			return err
		}
		audit.EntityID = d.ID
		return insertAudit(ctx, tx, audit)
	})
	if err != nil {
		return models.Deal{}, mapErr(err)
	}
	return r.GetByID(ctx, d.TenantID, d.ID)
}

func (r *dealsRepo) Update(ctx context.Context, d models.Deal, extra []models.Activity, audit models.AuditLog) (models.Deal, error) {
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE deals SET title=$3, description=$4, company_id=$5, contact_id=$6, stage=$7, value=$8, currency=$9, probability=$10, expected_close_date=$11, actual_close_date=$12, source=$13, assigned_to=$14, status=$15, priority=$16, tags=$17, lead_score=$18, updated_by=$19, updated_at=now()
			 WHERE id=$1 AND tenant_id=$2 AND is_active=true`,
			d.ID, d.TenantID, d.Title, nullable(d.Description), d.CompanyID, d.ContactID,
			d.Stage, d.Value, d.Currency, d.Probability, d.ExpectedCloseDate, d.ActualCloseDate,
			nullable(d.Source), nullable(d.AssignedTo), d.Status, d.Priority, d.Tags,
			d.LeadScore, nullable(d.UpdatedBy),
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return repository.ErrNotFound
		}
		for _, a := range extra {
			a.DealID = &d.ID
			if err := insertActivity(ctx, tx, a); err != nil {
				return err
			}
		}
		return insertAudit(ctx, tx, audit)
	})
	if err != nil {
		return models.Deal{}, mapErr(err)
	}
	return r.GetByID(ctx, d.TenantID, d.ID)
}

func (r *dealsRepo) SoftDelete(ctx context.Context, tenantID, id string, audit models.AuditLog) error {
	return mapErr(withTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE deals SET is_active=false, updated_by=$3, updated_at=now() WHERE id=$1 AND tenant_id=$2 AND is_active=true`,
			id, tenantID, nullable(audit.UserID),
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return repository.ErrNotFound
		}
		// Related activities go inactive with the deal.
		if _, err := tx.Exec(ctx,
			`UPDATE activities SET is_active=false, updated_by=$3, updated_at=now() WHERE deal_id=$1 AND tenant_id=$2 AND is_active=true`,
			id, tenantID, nullable(audit.UserID),
		); err != nil {
			return err
		}
		return insertAudit(ctx, tx, audit)
	}))
}

func (r *dealsRepo) GetByID(ctx context.Context, tenantID, id string) (models.Deal, error) {
	d, err := scanDeal(r.pool.QueryRow(ctx,
		`SELECT `+dealCols+` FROM deals WHERE id=$1 AND tenant_id=$2 AND is_active=true`, id, tenantID))
	return d, mapErr(err)
}

var dealSortCols = map[string]string{
	"title":               "title",
	"value":               "value",
	"probability":         "probability",
	"expected_close_date": "expected_close_date",
	"created_at":          "created_at",
	"updated_at":          "updated_at",
	"stage":               "stage",
}

func (r *dealsRepo) List(ctx context.Context, tenantID string, f repository.DealFilter) ([]models.Deal, int, error) {
	where := `WHERE tenant_id=$1 AND is_active=true`
	args := []any{tenantID}
	add := func(clause string, v any) {
		args = append(args, v)
		where += ` AND ` + clause + `$` + itoa(len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where += ` AND (title ILIKE $2 OR description ILIKE $2)`
	}
	if f.Stage != "" {
		add(`stage=`, f.Stage)
	}
	if f.Status != "" {
		add(`status=`, f.Status)
	}
	if f.AssignedTo != "" {
		add(`assigned_to=`, f.AssignedTo)
	}
	if f.CompanyID != "" {
		add(`company_id=`, f.CompanyID)
	}
	if f.Priority != "" {
		add(`priority=`, f.Priority)
	}
	if f.OverdueOnly {
		where += ` AND status='open' AND expected_close_date < current_date`
	}
	if f.CreatedAfter != nil {
		add(`created_at>=`, *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		add(`created_at<=`, *f.CreatedBefore)
	}
	if f.MinValue != nil {
		add(`value>=`, *f.MinValue)
	}
	if f.MaxValue != nil {
		add(`value<=`, *f.MaxValue)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM deals `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sortCol, ok := dealSortCols[f.SortBy]
	if !ok {
		sortCol = "updated_at"
	}
	dir := "ASC"
	if f.SortDesc {
		dir = "DESC"
	}
	args = append(args, f.Limit, f.Offset)
	rows, err := r.pool.Query(ctx,
		`SELECT `+dealCols+` FROM deals `+where+
			` ORDER BY `+sortCol+` `+dir+` LIMIT $`+itoa(len(args)-1)+` OFFSET $`+itoa(len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []models.Deal
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

func (r *dealsRepo) OpenByTenant(ctx context.Context, tenantID string, f repository.PipelineFilter) ([]models.Deal, error) {
	where := `WHERE tenant_id=$1 AND is_active=true AND status='open'`
	args := []any{tenantID}
	if f.AssignedTo != "" {
		args = append(args, f.AssignedTo)
		where += ` AND assigned_to=$` + itoa(len(args))
	}
	if f.CompanyID != "" {
		args = append(args, f.CompanyID)
		where += ` AND company_id=$` + itoa(len(args))
	}
	rows, err := r.pool.Query(ctx, `SELECT `+dealCols+` FROM deals `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Deal
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *dealsRepo) Stats(ctx context.Context, tenantID string) (repository.DealStats, error) {
	stats := repository.DealStats{
		ByStage:    map[string]int{},
		ByPriority: map[string]int{},
	}
	err := r.pool.QueryRow(ctx,
		`SELECT count(*),
		        count(*) FILTER (WHERE status='open'),
		        count(*) FILTER (WHERE status='won'),
		        count(*) FILTER (WHERE status='lost'),
		        count(*) FILTER (WHERE status='open' AND expected_close_date < current_date),
		        coalesce(sum(value),0), coalesce(avg(value),0), coalesce(max(value),0), coalesce(min(value),0)
		   FROM deals WHERE tenant_id=$1 AND is_active=true`, tenantID).
		Scan(&stats.Total, &stats.Open, &stats.Won, &stats.Lost, &stats.Overdue,
			&stats.ValueTotal, &stats.ValueAvg, &stats.ValueMax, &stats.ValueMin)
	if err != nil {
		return stats, err
	}
	if closed := stats.Won + stats.Lost; closed > 0 {
		stats.WinRate = float64(stats.Won) / float64(closed) * 100
	}

	rows, err := r.pool.Query(ctx,
		`SELECT stage, count(*) FROM deals WHERE tenant_id=$1 AND is_active=true AND status='open' GROUP BY stage`, tenantID)
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var k string
		var n int
		if err := rows.Scan(&k, &n); err != nil {
			return stats, err
		}
		stats.ByStage[k] = n
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	rows, err = r.pool.Query(ctx,
		`SELECT priority, count(*) FROM deals WHERE tenant_id=$1 AND is_active=true AND status='open' GROUP BY priority`, tenantID)
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var k string
		var n int
		if err := rows.Scan(&k, &n); err != nil {
			return stats, err
		}
		stats.ByPriority[k] = n
	}
	return stats, rows.Err()
}
