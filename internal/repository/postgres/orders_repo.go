package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradecrm/crm-backend/internal/models"
	"github.com/tradecrm/crm-backend/internal/repository"
)

type ordersRepo struct{ pool *pgxpool.Pool }

func NewOrders(pool *pgxpool.Pool) repository.Orders {
	return &ordersRepo{pool: pool}
}

const orderCols = `id, order_number, deal_id, company_id, contact_id, order_date, status, payment_status, coalesce(payment_terms,''), subtotal, tax_amount, shipping_amount, discount_amount, total_amount, currency, coalesce(shipping_method,''), coalesce(shipping_address,''), coalesce(billing_address,''), coalesce(incoterms,''), coalesce(assigned_to,''), priority, coalesce(notes,''), tags, tenant_id, is_active, coalesce(created_by,''), coalesce(updated_by,''), created_at, updated_at`

func scanOrder(row pgx.Row) (models.Order, error) {
	var o models.Order
	err := row.Scan(&o.ID, &o.OrderNumber, &o.DealID, &o.CompanyID, &o.ContactID, &o.OrderDate,
		&o.Status, &o.PaymentStatus, &o.PaymentTerms, &o.Subtotal, &o.TaxAmount,
		&o.ShippingAmount, &o.DiscountAmount, &o.TotalAmount, &o.Currency, &o.ShippingMethod,
		&o.ShippingAddr, &o.BillingAddr, &o.Incoterms, &o.AssignedTo, &o.Priority, &o.Notes,
		&o.Tags, &o.TenantID, &o.IsActive, &o.CreatedBy, &o.UpdatedBy, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func (r *ordersRepo) Create(ctx context.Context, o models.Order, audit models.AuditLog) (models.Order, error) {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO orders(id, order_number, deal_id, company_id, contact_id, order_date, status, payment_status, payment_terms, subtotal, tax_amount, shipping_amount, discount_amount, total_amount, currency, shipping_method, shipping_address, billing_address, incoterms, assigned_to, priority, notes, tags, tenant_id, created_by, updated_by)
			 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$25)`,
			o.ID, o.OrderNumber, o.DealID, o.CompanyID, o.ContactID, o.OrderDate, o.Status,
			o.PaymentStatus, nullable(o.PaymentTerms), o.Subtotal, o.TaxAmount, o.ShippingAmount,
			o.DiscountAmount, o.TotalAmount, o.Currency, nullable(o.ShippingMethod),
			nullable(o.ShippingAddr), nullable(o.BillingAddr), nullable(o.Incoterms),
			nullable(o.AssignedTo), o.Priority, nullable(o.Notes), o.Tags, o.TenantID,
			nullable(o.CreatedBy),
		)
		if err != nil {
			return err
		}
		for i := range o.Items {
			it := &o.Items[i]
			if it.ID == "" {
				it.ID = uuid.NewString()
			}
			it.OrderID = o.ID
			if it.LineNumber == 0 {
				it.LineNumber = i + 1
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO order_items(id, order_id, line_number, product_code, product_name, description, quantity, unit_price, total_price, currency, unit_of_measure, discount_amount, hs_code, tenant_id)
				 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
				it.ID, it.OrderID, it.LineNumber, nullable(it.ProductCode), it.ProductName,
				nullable(it.Description), it.Quantity, it.UnitPrice, it.TotalPrice, it.Currency,
				nullable(it.UnitOfMeasure), it.DiscountAmount, nullable(it.HSCode), o.TenantID,
			); err != nil {
				return err
			}
		}
		audit.EntityID = o.ID
		return insertAudit(ctx, tx, audit)
	})
	if err != nil {
		return models.Order{}, mapErr(err)
	}
	return r.GetByID(ctx, o.TenantID, o.ID)
}

func (r *ordersRepo) Update(ctx context.Context, o models.Order, audit models.AuditLog) (models.Order, error) {
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE orders SET status=$3, payment_status=$4, payment_terms=$5, shipping_method=$6, shipping_address=$7, billing_address=$8, incoterms=$9, assigned_to=$10, priority=$11, notes=$12, tags=$13, tax_amount=$14, shipping_amount=$15, discount_amount=$16, subtotal=$17, total_amount=$18, updated_by=$19, updated_at=now()
			 WHERE id=$1 AND tenant_id=$2 AND is_active=true`,
			o.ID, o.TenantID, o.Status, o.PaymentStatus, nullable(o.PaymentTerms),
			nullable(o.ShippingMethod), nullable(o.ShippingAddr), nullable(o.BillingAddr),
			nullable(o.Incoterms), nullable(o.AssignedTo), o.Priority, nullable(o.Notes),
			o.Tags, o.TaxAmount, o.ShippingAmount, o.DiscountAmount, o.Subtotal, o.TotalAmount,
			nullable(o.UpdatedBy),
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
		return models.Order{}, mapErr(err)
	}
	return r.GetByID(ctx, o.TenantID, o.ID)
}

func (r *ordersRepo) GetByID(ctx context.Context, tenantID, id string) (models.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx,
		`SELECT `+orderCols+` FROM orders WHERE id=$1 AND tenant_id=$2 AND is_active=true`, id, tenantID))
	if err != nil {
		return models.Order{}, mapErr(err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, order_id, line_number, coalesce(product_code,''), product_name, coalesce(description,''), quantity, unit_price, total_price, currency, coalesce(unit_of_measure,''), discount_amount, coalesce(hs_code,''), tenant_id
		   FROM order_items WHERE order_id=$1 AND tenant_id=$2 ORDER BY line_number`, id, tenantID)
	if err != nil {
		return models.Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.LineNumber, &it.ProductCode, &it.ProductName,
			&it.Description, &it.Quantity, &it.UnitPrice, &it.TotalPrice, &it.Currency,
			&it.UnitOfMeasure, &it.DiscountAmount, &it.HSCode, &it.TenantID); err != nil {
			return models.Order{}, err
		}
		o.Items = append(o.Items, it)
	}
	return o, rows.Err()
}

func (r *ordersRepo) List(ctx context.Context, tenantID string, f repository.OrderFilter) ([]models.Order, int, error) {
	where := `WHERE tenant_id=$1 AND is_active=true`
	args := []any{tenantID}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where += ` AND order_number ILIKE $2`
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where += ` AND status=$` + itoa(len(args))
	}
	if f.PaymentStatus != "" {
		args = append(args, f.PaymentStatus)
		where += ` AND payment_status=$` + itoa(len(args))
	}
	if f.CompanyID != "" {
		args = append(args, f.CompanyID)
		where += ` AND company_id=$` + itoa(len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM orders `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, f.Offset)
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderCols+` FROM orders `+where+
			` ORDER BY order_date DESC LIMIT $`+itoa(len(args)-1)+` OFFSET $`+itoa(len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

func (r *ordersRepo) Stats(ctx context.Context, tenantID string) (repository.OrderStats, error) {
	stats := repository.OrderStats{ByStatus: map[string]int{}}
	err := r.pool.QueryRow(ctx,
		`SELECT count(*), coalesce(sum(total_amount),0), coalesce(avg(total_amount),0)
		   FROM orders WHERE tenant_id=$1 AND is_active=true`, tenantID).
		Scan(&stats.Total, &stats.AmountTotal, &stats.AmountAvg)
	if err != nil {
		return stats, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT status, count(*) FROM orders WHERE tenant_id=$1 AND is_active=true GROUP BY status`, tenantID)
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
	return stats, rows.Err()
}
