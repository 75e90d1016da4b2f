package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradecrm/crm-backend/internal/models"
	"github.com/tradecrm/crm-backend/internal/repository"
)

type activitiesRepo struct{ pool *pgxpool.Pool }

func NewActivities(pool *pgxpool.Pool) repository.Activities {
	return &activitiesRepo{pool: pool}
}

const activityCols = `id, deal_id, company_id, contact_id, activity_type, subject, coalesce(description,''), activity_date, due_date, coalesce(duration_minutes,0), coalesce(outcome,''), coalesce(next_action,''), next_action_date, completed, coalesce(assigned_to,''), priority, tenant_id, is_active, coalesce(created_by,''), coalesce(updated_by,''), created_at, updated_at`

func scanActivity(row pgx.Row) (models.Activity, error) {
	var a models.Activity
	err := row.Scan(&a.ID, &a.DealID, &a.CompanyID, &a.ContactID, &a.Type, &a.Subject,
		&a.Description, &a.ActivityDate, &a.DueDate, &a.Duration, &a.Outcome, &a.NextAction,
		&a.NextActionDate, &a.Completed, &a.AssignedTo, &a.Priority, &a.TenantID, &a.IsActive,
		&a.CreatedBy, &a.UpdatedBy, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func insertActivity(ctx context.Context, q querier, a models.Activity) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := q.Exec(ctx,
		`INSERT INTO activities(id, deal_id, company_id, contact_id, activity_type, subject, description, activity_date, due_date, duration_minutes, outcome, next_action, next_action_date, completed, assigned_to, priority, tenant_id, created_by, updated_by)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$18)`,
		a.ID, a.DealID, a.CompanyID, a.ContactID, a.Type, a.Subject, nullable(a.Description),
		a.ActivityDate, a.DueDate, a.Duration, nullable(a.Outcome), nullable(a.NextAction),
		a.NextActionDate, a.Completed, nullable(a.AssignedTo), a.Priority, a.TenantID,
		nullable(a.CreatedBy),
	)
	return err
}

func (r *activitiesRepo) Create(ctx context.Context, a models.Activity, audit models.AuditLog) (models.Activity, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := insertActivity(ctx, tx, a); err != nil {
			return err
		}
		audit.EntityID = a.ID
		return insertAudit(ctx, tx, audit)
	})
	if err != nil {
		return models.Activity{}, mapErr(err)
	}
	return r.GetByID(ctx, a.TenantID, a.ID)
}

func (r *activitiesRepo) Update(ctx context.Context, a models.Activity, audit models.AuditLog) (models.Activity, error) {
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE activities SET activity_type=$3, subject=$4, description=$5, activity_date=$6, due_date=$7, duration_minutes=$8, outcome=$9, next_action=$10, next_action_date=$11, completed=$12, assigned_to=$13, priority=$14, updated_by=$15, updated_at=now()
			 WHERE id=$1 AND tenant_id=$2 AND is_active=true`,
			a.ID, a.TenantID, a.Type, a.Subject, nullable(a.Description), a.ActivityDate,
			a.DueDate, a.Duration, nullable(a.Outcome), nullable(a.NextAction), a.NextActionDate,
			a.Completed, nullable(a.AssignedTo), a.Priority, nullable(a.UpdatedBy),
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return repository.ErrNotFound
		}
		return insertAudit(ctx, tx, audit)
	})
	if err != nil {
		return models.Activity{}, mapErr(err)
	}
	return r.GetByID(ctx, a.TenantID, a.ID)
}

func (r *activitiesRepo) SoftDelete(ctx context.Context, tenantID, id string, audit models.AuditLog) error {
	return mapErr(withTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE activities SET is_active=false, updated_by=$3, updated_at=now() WHERE id=$1 AND tenant_id=$2 AND is_active=true`,
			id, tenantID, nullable(audit.UserID),
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return repository.ErrNotFound
		}
		return insertAudit(ctx, tx, audit)
	}))
}

func (r *activitiesRepo) GetByID(ctx context.Context, tenantID, id string) (models.Activity, error) {
	a, err := scanActivity(r.pool.QueryRow(ctx,
		`SELECT `+activityCols+` FROM activities WHERE id=$1 AND tenant_id=$2 AND is_active=true`, id, tenantID))
	return a, mapErr(err)
}

func (r *activitiesRepo) List(ctx context.Context, tenantID string, f repository.ActivityFilter) ([]models.Activity, int, error) {
	where := `WHERE tenant_id=$1 AND is_active=true`
	args := []any{tenantID}
	add := func(clause string, v any) {
		args = append(args, v)
		where += ` AND ` + clause + `$` + itoa(len(args))
	}
	if f.Type != "" {
		add(`activity_type=`, f.Type)
	}
	if f.DealID != "" {
		add(`deal_id=`, f.DealID)
	}
	if f.AssignedTo != "" {
		add(`assigned_to=`, f.AssignedTo)
	}
	if f.Completed != nil {
		add(`completed=`, *f.Completed)
	}
	if f.After != nil {
		add(`activity_date>=`, *f.After)
	}
	if f.Before != nil {
		add(`activity_date<=`, *f.Before)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM activities `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, f.Offset)
	rows, err := r.pool.Query(ctx,
		`SELECT `+activityCols+` FROM activities `+where+
			` ORDER BY activity_date DESC LIMIT $`+itoa(len(args)-1)+` OFFSET $`+itoa(len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []models.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func (r *activitiesRepo) Upcoming(ctx context.Context, tenantID, assignedTo string, limit int) ([]models.Activity, error) {
	where := `WHERE tenant_id=$1 AND is_active=true AND completed=false AND due_date >= now()`
	args := []any{tenantID}
	if assignedTo != "" {
		args = append(args, assignedTo)
		where += ` AND assigned_to=$2`
	}
	args = append(args, limit)
	return r.queryActivities(ctx, `SELECT `+activityCols+` FROM activities `+where+` ORDER BY due_date ASC LIMIT $`+itoa(len(args)), args)
}

func (r *activitiesRepo) Overdue(ctx context.Context, tenantID, assignedTo string, limit int) ([]models.Activity, error) {
	where := `WHERE tenant_id=$1 AND is_active=true AND completed=false AND due_date < now()`
	args := []any{tenantID}
	if assignedTo != "" {
		args = append(args, assignedTo)
		where += ` AND assigned_to=$2`
	}
	args = append(args, limit)
	return r.queryActivities(ctx, `SELECT `+activityCols+` FROM activities `+where+` ORDER BY due_date ASC LIMIT $`+itoa(len(args)), args)
}

func (r *activitiesRepo) queryActivities(ctx context.Context, sql string, args []any) ([]models.Activity, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *activitiesRepo) Stats(ctx context.Context, tenantID string) (repository.ActivityStats, error) {
	stats := repository.ActivityStats{ByType: map[string]int{}}
	err := r.pool.QueryRow(ctx,
		`SELECT count(*),
		        count(*) FILTER (WHERE completed),
		        count(*) FILTER (WHERE NOT completed),
		        count(*) FILTER (WHERE NOT completed AND due_date < now())
		   FROM activities WHERE tenant_id=$1 AND is_active=true`, tenantID).
		Scan(&stats.Total, &stats.Completed, &stats.Pending, &stats.Overdue)
	if err != nil {
		return stats, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT activity_type, count(*) FROM activities WHERE tenant_id=$1 AND is_active=true GROUP BY activity_type`, tenantID)
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
		stats.ByType[k] = n
	}
	return stats, rows.Err()
}
