package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradecrm/crm-backend/internal/models"
	"github.com/tradecrm/crm-backend/internal/repository"
)

type companiesRepo struct{ pool *pgxpool.Pool }

func NewCompanies(pool *pgxpool.Pool) repository.Companies {
	return &companiesRepo{pool: pool}
}

const companyCols = `id, name, coalesce(legal_name,''), coalesce(industry,''), coalesce(company_type,''), coalesce(website,''), coalesce(phone,''), coalesce(email,''), coalesce(tax_id,''), coalesce(country,''), coalesce(employee_count,0), coalesce(annual_revenue,0), currency, status, coalesce(source,''), coalesce(assigned_to,''), coalesce(notes,''), tags, tenant_id, is_active, coalesce(created_by,''), coalesce(updated_by,''), created_at, updated_at`

func scanCompany(row pgx.Row) (models.Company, error) {
	var c models.Company
	err := row.Scan(&c.ID, &c.Name, &c.LegalName, &c.Industry, &c.CompanyType, &c.Website,
		&c.Phone, &c.Email, &c.TaxID, &c.Country, &c.EmployeeCount, &c.AnnualRevenue,
		&c.Currency, &c.Status, &c.Source, &c.AssignedTo, &c.Notes, &c.Tags,
		&c.TenantID, &c.IsActive, &c.CreatedBy, &c.UpdatedBy, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *companiesRepo) Create(ctx context.Context, c models.Company, audit models.AuditLog) (models.Company, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO companies(id, name, legal_name, industry, company_type, website, phone, email, tax_id, country, employee_count, annual_revenue, currency, status, source, assigned_to, notes, tags, tenant_id, created_by, updated_by)
			 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$20)`,
			c.ID, c.Name, nullable(c.LegalName), nullable(c.Industry), nullable(c.CompanyType),
			nullable(c.Website), nullable(c.Phone), nullable(c.Email), nullable(c.TaxID),
			nullable(c.Country), c.EmployeeCount, c.AnnualRevenue, c.Currency, c.Status,
			nullable(c.Source), nullable(c.AssignedTo), nullable(c.Notes), c.Tags,
			c.TenantID, nullable(c.CreatedBy),
		)
		if err != nil {
			return err
		}
		audit.EntityID = c.ID
		return insertAudit(ctx, tx, audit)
	})
	if err != nil {
		return models.Company{}, mapErr(err)
	}
	return r.GetByID(ctx, c.TenantID, c.ID)
}

func (r *companiesRepo) Update(ctx context.Context, c models.Company, audit models.AuditLog) (models.Company, error) {
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE companies SET name=$3, legal_name=$4, industry=$5, company_type=$6, website=$7, phone=$8, email=$9, tax_id=$10, country=$11, employee_count=$12, annual_revenue=$13, currency=$14, status=$15, source=$16, assigned_to=$17, notes=$18, tags=$19, updated_by=$20, updated_at=now()
			 WHERE id=$1 AND tenant_id=$2 AND is_active=true`,
			c.ID, c.TenantID, c.Name, nullable(c.LegalName), nullable(c.Industry),
			nullable(c.CompanyType), nullable(c.Website), nullable(c.Phone), nullable(c.Email),
			nullable(c.TaxID), nullable(c.Country), c.EmployeeCount, c.AnnualRevenue,
			c.Currency, c.Status, nullable(c.Source), nullable(c.AssignedTo), nullable(c.Notes),
			c.Tags, nullable(c.UpdatedBy),
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
		return models.Company{}, mapErr(err)
	}
	return r.GetByID(ctx, c.TenantID, c.ID)
}

func (r *companiesRepo) SoftDelete(ctx context.Context, tenantID, id string, audit models.AuditLog) error {
	return mapErr(withTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE companies SET is_active=false, updated_by=$3, updated_at=now() WHERE id=$1 AND tenant_id=$2 AND is_active=true`,
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

func (r *companiesRepo) GetByID(ctx context.Context, tenantID, id string) (models.Company, error) {
	c, err := scanCompany(r.pool.QueryRow(ctx,
		`SELECT `+companyCols+` FROM companies WHERE id=$1 AND tenant_id=$2 AND is_active=true`, id, tenantID))
	return c, mapErr(err)
}

var companySortCols = map[string]string{
	"name":       "name",
	"status":     "status",
	"industry":   "industry",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

func (r *companiesRepo) List(ctx context.Context, tenantID string, f repository.CompanyFilter) ([]models.Company, int, error) {
	where := `WHERE tenant_id=$1 AND is_active=true`
	args := []any{tenantID}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where += ` AND (name ILIKE $2 OR legal_name ILIKE $2 OR email ILIKE $2)`
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where += ` AND status=$` + itoa(len(args))
	}
	if f.Industry != "" {
		args = append(args, f.Industry)
		where += ` AND industry=$` + itoa(len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM companies `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sortCol, ok := companySortCols[f.SortBy]
	if !ok {
		sortCol = "updated_at"
	}
	dir := "ASC"
	if f.SortDesc {
		dir = "DESC"
	}
	args = append(args, f.Limit, f.Offset)
	rows, err := r.pool.Query(ctx,
		`SELECT `+companyCols+` FROM companies `+where+
			` ORDER BY `+sortCol+` `+dir+` LIMIT $`+itoa(len(args)-1)+` OFFSET $`+itoa(len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []models.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *companiesRepo) Stats(ctx context.Context, tenantID string) (repository.CompanyStats, error) {
	stats := repository.CompanyStats{
		ByStatus:   map[string]int{},
		ByIndustry: map[string]int{},
	}
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM companies WHERE tenant_id=$1 AND is_active=true`, tenantID).Scan(&stats.Total); err != nil {
		return stats, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT status, count(*) FROM companies WHERE tenant_id=$1 AND is_active=true GROUP BY status`, tenantID)
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
		stats.ByStatus[k] = n
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	rows, err = r.pool.Query(ctx,
		`SELECT coalesce(industry,'unknown'), count(*) FROM companies WHERE tenant_id=$1 AND is_active=true GROUP BY 1`, tenantID)
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
		stats.ByIndustry[k] = n
	}
	return stats, rows.Err()
}
