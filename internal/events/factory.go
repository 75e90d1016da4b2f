package events

// Factory helpers pin entity_type per domain so callers cannot
// hand-assemble mismatched envelopes.

func ClientEvent(t Type, tenantID, clientID string, data map[string]any, userID string) (Event, error) {
	e, err := New(t, tenantID, clientID, "client", data)
	if err != nil {
		return Event{}, err
	}
	return e.WithUser(userID), nil
}

func DealEvent(t Type, tenantID, dealID string, data map[string]any, userID string) (Event, error) {
	e, err := New(t, tenantID, dealID, "deal", data)
	if err != nil {
		return Event{}, err
	}
	return e.WithUser(userID), nil
}

func OrderEvent(t Type, tenantID, orderID string, data map[string]any, userID string) (Event, error) {
	e, err := New(t, tenantID, orderID, "order", data)
	if err != nil {
		return Event{}, err
	}
	return e.WithUser(userID), nil
}

// AuditEvent carries the audit trail shape over the wire. The durable
// record is the audit_logs row; this is the best-effort twin.
func AuditEvent(tenantID, entityType, entityID, action string, oldValues, newValues map[string]any, userID string) (Event, error) {
	e, err := New(AuditLog, tenantID, entityID, entityType, map[string]any{
		"action":     action,
		"old_values": oldValues,
		"new_values": newValues,
	})
	if err != nil {
		return Event{}, err
	}
	return e.WithUser(userID), nil
}
