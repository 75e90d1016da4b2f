package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradecrm/crm-backend/internal/models"
	"github.com/tradecrm/crm-backend/internal/repository"
)

type shipmentsRepo struct{ pool *pgxpool.Pool }

func NewShipments(pool *pgxpool.Pool) repository.Shipments {
	return &shipmentsRepo{pool: pool}
}

const shipmentCols = `id, shipment_number, order_id, status, coalesce(carrier,''), coalesce(tracking_number,''), coalesce(shipping_method,''), coalesce(service_level,''), coalesce(pickup_address,''), coalesce(delivery_address,''), coalesce(current_location,''), package_count, coalesce(total_weight,0), shipment_date, estimated_delivery_date, actual_delivery_date, tenant_id, is_active, coalesce(created_by,''), coalesce(updated_by,''), created_at, updated_at`

func scanShipment(row pgx.Row) (models.Shipment, error) {
	var s models.Shipment
	err := row.Scan(&s.ID, &s.ShipmentNumber, &s.OrderID, &s.Status, &s.Carrier, &s.TrackingNumber,
		&s.ShippingMethod, &s.ServiceLevel, &s.PickupAddress, &s.DeliveryAddress, &s.CurrentLocation,
		&s.PackageCount, &s.TotalWeight, &s.ShipmentDate, &s.EstimatedDelivery, &s.ActualDelivery,
		&s.TenantID, &s.IsActive, &s.CreatedBy, &s.UpdatedBy, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (r *shipmentsRepo) Create(ctx context.Context, s models.Shipment, audit models.AuditLog) (models.Shipment, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO shipments(id, shipment_number, order_id, status, carrier, tracking_number, shipping_method, service_level, pickup_address, delivery_address, current_location, package_count, total_weight, shipment_date, estimated_delivery_date, actual_delivery_date, tenant_id, created_by, updated_by)
			 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$18)`,
			s.ID, s.ShipmentNumber, s.OrderID, s.Status, nullable(s.Carrier),
			nullable(s.TrackingNumber), nullable(s.ShippingMethod), nullable(s.ServiceLevel),
			nullable(s.PickupAddress), nullable(s.DeliveryAddress), nullable(s.CurrentLocation),
			s.PackageCount, s.TotalWeight, s.ShipmentDate, s.EstimatedDelivery, s.ActualDelivery,
			s.TenantID, nullable(s.CreatedBy),
		)
		if err != nil {
			return err
		}
		audit.EntityID = s.ID
		return insertAudit(ctx, tx, audit)
	})
	if err != nil {
		return models.Shipment{}, mapErr(err)
	}
	return r.GetByID(ctx, s.TenantID, s.ID)
}

func (r *shipmentsRepo) Update(ctx context.Context, s models.Shipment, audit models.AuditLog) (models.Shipment, error) {
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE shipments SET status=$3, carrier=$4, tracking_number=$5, shipping_method=$6, service_level=$7, pickup_address=$8, delivery_address=$9, current_location=$10, package_count=$11, total_weight=$12, shipment_date=$13, estimated_delivery_date=$14, actual_delivery_date=$15, updated_by=$16, updated_at=now()
			 WHERE id=$1 AND tenant_id=$2 AND is_active=true`,
			s.ID, s.TenantID, s.Status, nullable(s.Carrier), nullable(s.TrackingNumber),
			nullable(s.ShippingMethod), nullable(s.ServiceLevel), nullable(s.PickupAddress),
			nullable(s.DeliveryAddress), nullable(s.CurrentLocation), s.PackageCount,
			s.TotalWeight, s.ShipmentDate, s.EstimatedDelivery, s.ActualDelivery,
			nullable(s.UpdatedBy),
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
		return models.Shipment{}, mapErr(err)
	}
	return r.GetByID(ctx, s.TenantID, s.ID)
}

func (r *shipmentsRepo) GetByID(ctx context.Context, tenantID, id string) (models.Shipment, error) {
	s, err := scanShipment(r.pool.QueryRow(ctx,
		`SELECT `+shipmentCols+` FROM shipments WHERE id=$1 AND tenant_id=$2 AND is_active=true`, id, tenantID))
	return s, mapErr(err)
}

func (r *shipmentsRepo) List(ctx context.Context, tenantID string, f repository.ShipmentFilter) ([]models.Shipment, int, error) {
	where := `WHERE tenant_id=$1 AND is_active=true`
	args := []any{tenantID}
	if f.Status != "" {
		args = append(args, f.Status)
		where += ` AND status=$` + itoa(len(args))
	}
	if f.OrderID != "" {
		args = append(args, f.OrderID)
		where += ` AND order_id=$` + itoa(len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM shipments `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, f.Offset)
	rows, err := r.pool.Query(ctx,
		`SELECT `+shipmentCols+` FROM shipments `+where+
			` ORDER BY created_at DESC LIMIT $`+itoa(len(args)-1)+` OFFSET $`+itoa(len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []models.Shipment
	for rows.Next() {
		s, err := scanShipment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

func (r *shipmentsRepo) Stats(ctx context.Context, tenantID string) (repository.ShipmentStats, error) {
	stats := repository.ShipmentStats{ByStatus: map[string]int{}}
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM shipments WHERE tenant_id=$1 AND is_active=true`, tenantID).Scan(&stats.Total); err != nil {
		return stats, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT status, count(*) FROM shipments WHERE tenant_id=$1 AND is_active=true GROUP BY status`, tenantID)
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
