package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradecrm/crm-backend/internal/models"
	"github.com/tradecrm/crm-backend/internal/repository"
)

type contactsRepo struct{ pool *pgxpool.Pool }

func NewContacts(pool *pgxpool.Pool) repository.Contacts {
	return &contactsRepo{pool: pool}
}

const contactCols = `id, company_id, first_name, last_name, coalesce(title,''), coalesce(department,''), coalesce(email,''), coalesce(phone,''), coalesce(mobile,''), preferred_language, preferred_contact_method, is_primary, coalesce(notes,''), tags, tenant_id, is_active, coalesce(created_by,''), coalesce(updated_by,''), created_at, updated_at`

func scanContact(row pgx.Row) (models.Contact, error) {
	var c models.Contact
	err := row.Scan(&c.ID, &c.CompanyID, &c.FirstName, &c.LastName, &c.Title, &c.Department,
		&c.Email, &c.Phone, &c.Mobile, &c.PreferredLang, &c.PreferredMethod, &c.IsPrimary,
		&c.Notes, &c.Tags, &c.TenantID, &c.IsActive, &c.CreatedBy, &c.UpdatedBy,
		&c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *contactsRepo) Create(ctx context.Context, c models.Contact, audit models.AuditLog) (models.Contact, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO contacts(id, company_id, first_name, last_name, title, department, email, phone, mobile, preferred_language, preferred_contact_method, is_primary, notes, tags, tenant_id, created_by, updated_by)
			 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$16)`,
			c.ID, c.CompanyID, c.FirstName, c.LastName, nullable(c.Title), nullable(c.Department),
			nullable(c.Email), nullable(c.Phone), nullable(c.Mobile), c.PreferredLang,
			c.PreferredMethod, c.IsPrimary, nullable(c.Notes), c.Tags, c.TenantID, nullable(c.CreatedBy),
		)
		if err != nil {
			return err
		}
		audit.EntityID = c.ID
		return insertAudit(ctx, tx, audit)
	})
	if err != nil {
		return models.Contact{}, mapErr(err)
	}
	return r.GetByID(ctx, c.TenantID, c.ID)
}

func (r *contactsRepo) Update(ctx context.Context, c models.Contact, audit models.AuditLog) (models.Contact, error) {
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE contacts SET company_id=$3, first_name=$4, last_name=$5, title=$6, department=$7, email=$8, phone=$9, mobile=$10, preferred_language=$11, preferred_contact_method=$12, is_primary=$13, notes=$14, tags=$15, updated_by=$16, updated_at=now()
			 WHERE id=$1 AND tenant_id=$2 AND is_active=true`,
			c.ID, c.TenantID, c.CompanyID, c.FirstName, c.LastName, nullable(c.Title),
			nullable(c.Department), nullable(c.Email), nullable(c.Phone), nullable(c.Mobile),
			c.PreferredLang, c.PreferredMethod, c.IsPrimary, nullable(c.Notes), c.Tags,
			nullable(c.UpdatedBy),
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
		return models.Contact{}, mapErr(err)
	}
	return r.GetByID(ctx, c.TenantID, c.ID)
}

func (r *contactsRepo) SoftDelete(ctx context.Context, tenantID, id string, audit models.AuditLog) error {
	return mapErr(withTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE contacts SET is_active=false, updated_by=$3, updated_at=now() WHERE id=$1 AND tenant_id=$2 AND is_active=true`,
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

func (r *contactsRepo) GetByID(ctx context.Context, tenantID, id string) (models.Contact, error) {
	c, err := scanContact(r.pool.QueryRow(ctx,
		`SELECT `+contactCols+` FROM contacts WHERE id=$1 AND tenant_id=$2 AND is_active=true`, id, tenantID))
	return c, mapErr(err)
}

func (r *contactsRepo) List(ctx context.Context, tenantID string, f repository.ContactFilter) ([]models.Contact, int, error) {
	where := `WHERE tenant_id=$1 AND is_active=true`
	args := []any{tenantID}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where += ` AND (first_name ILIKE $2 OR last_name ILIKE $2 OR email ILIKE $2)`
	}
	if f.CompanyID != "" {
		args = append(args, f.CompanyID)
		where += ` AND company_id=$` + itoa(len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM contacts `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dir := "ASC"
	if f.SortDesc {
		dir = "DESC"
	}
	sortCol := "updated_at"
	if f.SortBy == "last_name" || f.SortBy == "created_at" {
		sortCol = f.SortBy
	}
	args = append(args, f.Limit, f.Offset)
	rows, err := r.pool.Query(ctx,
		`SELECT `+contactCols+` FROM contacts `+where+
			` ORDER BY `+sortCol+` `+dir+` LIMIT $`+itoa(len(args)-1)+` OFFSET $`+itoa(len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []models.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *contactsRepo) Stats(ctx context.Context, tenantID string) (repository.ContactStats, error) {
	stats := repository.ContactStats{
		ByDepartment: map[string]int{},
		ByLanguage:   map[string]int{},
		ByMethod:     map[string]int{},
	}
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM contacts WHERE tenant_id=$1 AND is_active=true`, tenantID).Scan(&stats.Total); err != nil {
		return stats, err
	}

	groups := []struct {
		query string
		into  map[string]int
	}{
		{`SELECT department, count(*) FROM contacts WHERE tenant_id=$1 AND is_active=true AND department IS NOT NULL GROUP BY department`, stats.ByDepartment},
		{`SELECT preferred_language, count(*) FROM contacts WHERE tenant_id=$1 AND is_active=true GROUP BY preferred_language`, stats.ByLanguage},
		{`SELECT preferred_contact_method, count(*) FROM contacts WHERE tenant_id=$1 AND is_active=true GROUP BY preferred_contact_method`, stats.ByMethod},
	}
	for _, g := range groups {
		rows, err := r.pool.Query(ctx, g.query, tenantID)
		if err != nil {
			return stats, err
		}
		for rows.Next() {
			var k string
			var n int
			if err := rows.Scan(&k, &n); err != nil {
				rows.Close()
				return stats, err
			}
			g.into[k] = n
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

func (r *contactsRepo) Communications(ctx context.Context, tenantID, contactID string, limit, offset int) ([]models.CommunicationLog, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, company_id, contact_id, communication_type, coalesce(subject,''), coalesce(content,''), coalesce(direction,''), communication_date, coalesce(user_id,''), tenant_id, created_at
		   FROM communication_logs
		  WHERE tenant_id=$1 AND contact_id=$2
		  ORDER BY communication_date DESC LIMIT $3 OFFSET $4`,
		tenantID, contactID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.CommunicationLog
	for rows.Next() {
		var l models.CommunicationLog
		if err := rows.Scan(&l.ID, &l.CompanyID, &l.ContactID, &l.CommType, &l.Subject,
			&l.Content, &l.Direction, &l.CommDate, &l.UserID, &l.TenantID, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *contactsRepo) Notes(ctx context.Context, tenantID, contactID string, limit, offset int) ([]models.Note, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, company_id, contact_id, note_type, coalesce(title,''), content, is_private, priority, reminder_date, tenant_id, coalesce(created_by,''), created_at
		   FROM notes
		  WHERE tenant_id=$1 AND contact_id=$2
		  ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		tenantID, contactID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Note
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.ID, &n.CompanyID, &n.ContactID, &n.NoteType, &n.Title,
			&n.Content, &n.IsPrivate, &n.Priority, &n.Reminder, &n.TenantID, &n.CreatedBy, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
