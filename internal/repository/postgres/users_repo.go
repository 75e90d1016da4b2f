package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradecrm/crm-backend/internal/models"
	"github.com/tradecrm/crm-backend/internal/repository"
)

type usersRepo struct{ pool *pgxpool.Pool }

func NewUsers(pool *pgxpool.Pool) repository.Users {
	return &usersRepo{pool: pool}
}

const userCols = `id, email, password_hash, first_name, last_name, coalesce(phone,''), language, timezone, roles, tenant_id, is_active, coalesce(created_by,''), coalesce(updated_by,''), created_at, updated_at`

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Phone,
		&u.Language, &u.Timezone, &u.Roles, &u.TenantID, &u.IsActive, &u.CreatedBy, &u.UpdatedBy,
		&u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *usersRepo) Create(ctx context.Context, u models.User, audit models.AuditLog) (models.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO users(id, email, password_hash, first_name, last_name, phone, language, timezone, roles, tenant_id, created_by, updated_by)
			 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$11)`,
			u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, nullable(u.Phone),
			u.Language, u.Timezone, u.Roles, u.TenantID, nullable(u.CreatedBy),
		)
		if err != nil {
			return err
		}
		audit.EntityID = u.ID
		return insertAudit(ctx, tx, audit)
	})
	if err != nil {
		return models.User{}, mapErr(err)
	}
	return r.GetByID(ctx, u.TenantID, u.ID)
}

func (r *usersRepo) Update(ctx context.Context, u models.User, audit models.AuditLog) (models.User, error) {
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE users SET first_name=$3, last_name=$4, phone=$5, language=$6, timezone=$7, roles=$8, is_active=$9, updated_by=$10, updated_at=now()
			 WHERE id=$1 AND tenant_id=$2`,
			u.ID, u.TenantID, u.FirstName, u.LastName, nullable(u.Phone), u.Language, u.Timezone, u.Roles, u.IsActive, nullable(u.UpdatedBy),
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
		return models.User{}, mapErr(err)
	}
	return r.GetByID(ctx, u.TenantID, u.ID)
}

func (r *usersRepo) SoftDelete(ctx context.Context, tenantID, id string, audit models.AuditLog) error {
	return mapErr(withTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE users SET is_active=false, updated_by=$3, updated_at=now() WHERE id=$1 AND tenant_id=$2 AND is_active=true`,
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

func (r *usersRepo) GetByID(ctx context.Context, tenantID, id string) (models.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE id=$1 AND tenant_id=$2`, id, tenantID))
	return u, mapErr(err)
}

func (r *usersRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE email=$1 AND is_active=true`, email))
	return u, mapErr(err)
}

func (r *usersRepo) List(ctx context.Context, tenantID string, f repository.UserFilter) ([]models.User, int, error) {
	where := `WHERE tenant_id=$1`
	args := []any{tenantID}
	if f.ActiveOnly {
		where += ` AND is_active=true`
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where += ` AND (first_name ILIKE $2 OR last_name ILIKE $2 OR email ILIKE $2)`
	}
	if f.Role != "" {
		args = append(args, f.Role)
		where += ` AND $` + itoa(len(args)) + ` = ANY(roles)`
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, f.Offset)
	rows, err := r.pool.Query(ctx,
		`SELECT `+userCols+` FROM users `+where+
			` ORDER BY created_at DESC LIMIT $`+itoa(len(args)-1)+` OFFSET $`+itoa(len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}
