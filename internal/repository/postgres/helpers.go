package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradecrm/crm-backend/internal/models"
	"github.com/tradecrm/crm-backend/internal/repository"
)

// querier is satisfied by *pgxpool.Pool and pgx.Tx so repo methods can run
// inside or outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func withTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// insertAudit appends the audit row inside the caller's transaction.
func insertAudit(ctx context.Context, q querier, l models.AuditLog) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	oldV, err := marshalValues(l.OldValues)
	if err != nil {
		return fmt.Errorf("marshal old_values: %w", err)
	}
	newV, err := marshalValues(l.NewValues)
	if err != nil {
		return fmt.Errorf("marshal new_values: %w", err)
	}
	_, err = q.Exec(ctx,
		`INSERT INTO audit_logs(id, entity_type, entity_id, action, old_values, new_values, user_id, tenant_id, ip_address, user_agent)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		l.ID, l.EntityType, l.EntityID, l.Action, oldV, newV,
		nullable(l.UserID), l.TenantID, nullable(l.IPAddress), nullable(l.UserAgent),
	)
	return err
}

func marshalValues(v map[string]any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func itoa(n int) string { return strconv.Itoa(n) }

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return repository.ErrConflict
	}
	return err
}
