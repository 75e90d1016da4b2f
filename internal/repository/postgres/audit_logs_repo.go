package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradecrm/crm-backend/internal/models"
	"github.com/tradecrm/crm-backend/internal/repository"
)

type auditLogsRepo struct{ pool *pgxpool.Pool }

func NewAuditLogs(pool *pgxpool.Pool) repository.AuditLogs {
	return &auditLogsRepo{pool: pool}
}

func (r *auditLogsRepo) Append(ctx context.Context, l models.AuditLog) error {
	return mapErr(insertAudit(ctx, r.pool, l))
}

func (r *auditLogsRepo) ListByEntity(ctx context.Context, tenantID, entityType, entityID string, limit, offset int) ([]models.AuditLog, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, entity_type, entity_id, action, old_values, new_values, coalesce(user_id,''), tenant_id, coalesce(ip_address,''), coalesce(user_agent,''), created_at
		   FROM audit_logs
		  WHERE tenant_id=$1 AND entity_type=$2 AND entity_id=$3
		  ORDER BY created_at DESC LIMIT $4 OFFSET $5`,
		tenantID, entityType, entityID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AuditLog
	for rows.Next() {
		var l models.AuditLog
		var oldRaw, newRaw []byte
		if err := rows.Scan(&l.ID, &l.EntityType, &l.EntityID, &l.Action, &oldRaw, &newRaw,
			&l.UserID, &l.TenantID, &l.IPAddress, &l.UserAgent, &l.CreatedAt); err != nil {
			return nil, err
		}
		if len(oldRaw) > 0 {
			if err := json.Unmarshal(oldRaw, &l.OldValues); err != nil {
				return nil, err
			}
		}
		if len(newRaw) > 0 {
			if err := json.Unmarshal(newRaw, &l.NewValues); err != nil {
				return nil, err
			}
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
