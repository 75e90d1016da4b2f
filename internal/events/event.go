package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Type is the dot-namespaced event type. It doubles as the broker routing
// key, so the string projection is part of the wire contract.
type Type string

const (
	ClientCreated Type = "client.created"
	ClientUpdated Type = "client.updated"
	ClientDeleted Type = "client.deleted"

	DealCreated      Type = "deal.created"
	DealUpdated      Type = "deal.updated"
	DealStageChanged Type = "deal.stage_changed"
	DealWon          Type = "deal.won"
	DealLost         Type = "deal.lost"

	OrderCreated   Type = "order.created"
	OrderUpdated   Type = "order.updated"
	OrderShipped   Type = "order.shipped"
	OrderDelivered Type = "order.delivered"
	OrderCancelled Type = "order.cancelled"

	DocumentUploaded Type = "document.uploaded"
	DocumentUpdated  Type = "document.updated"
	DocumentDeleted  Type = "document.deleted"

	UserCreated Type = "user.created"
	UserUpdated Type = "user.updated"
	UserLogin   Type = "user.login"
	UserLogout  Type = "user.logout"

	NotificationSend Type = "notification.send"
	EmailSend        Type = "email.send"
	SMSSend          Type = "sms.send"

	AuditLog        Type = "audit.log"
	ComplianceCheck Type = "compliance.check"
)

var knownTypes = map[Type]struct{}{
	ClientCreated: {}, ClientUpdated: {}, ClientDeleted: {},
	DealCreated: {}, DealUpdated: {}, DealStageChanged: {}, DealWon: {}, DealLost: {},
	OrderCreated: {}, OrderUpdated: {}, OrderShipped: {}, OrderDelivered: {}, OrderCancelled: {},
	DocumentUploaded: {}, DocumentUpdated: {}, DocumentDeleted: {},
	UserCreated: {}, UserUpdated: {}, UserLogin: {}, UserLogout: {},
	NotificationSend: {}, EmailSend: {}, SMSSend: {},
	AuditLog: {}, ComplianceCheck: {},
}

func (t Type) Valid() bool {
	_, ok := knownTypes[t]
	return ok
}

func (t Type) String() string { return string(t) }

// ParseType rejects unknown values. Producers go through it; decoding on
// the consumer side stays permissive so newer producers can add types.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown event type %q", ErrValidation, s)
	}
	return t, nil
}

// ErrValidation marks malformed construction input: caller's bug,
// never retried.
var ErrValidation = errors.New("invalid event")

// Event is an immutable fact. Build via New or the factory helpers so
// envelopes stay consistent across producers.
type Event struct {
	Type          Type           `json:"event_type"`
	TenantID      string         `json:"tenant_id"`
	EntityID      string         `json:"entity_id"`
	EntityType    string         `json:"entity_type"`
	Data          map[string]any `json:"data"`
	UserID        string         `json:"user_id,omitempty"`
	Timestamp     string         `json:"timestamp"`
	CorrelationID string         `json:"correlation_id,omitempty"`
}

func New(t Type, tenantID, entityID, entityType string, data map[string]any) (Event, error) {
	if !t.Valid() {
		return Event{}, fmt.Errorf("%w: unknown event type %q", ErrValidation, t)
	}
	if tenantID == "" {
		return Event{}, fmt.Errorf("%w: tenant_id is required", ErrValidation)
	}
	if entityType == "" {
		return Event{}, fmt.Errorf("%w: entity_type is required", ErrValidation)
	}
	return Event{
		Type:       t,
		TenantID:   tenantID,
		EntityID:   entityID,
		EntityType: entityType,
		Data:       data,
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
	}, nil
}

// WithUser returns a copy carrying the acting principal.
func (e Event) WithUser(userID string) Event {
	e.UserID = userID
	return e
}

// WithCorrelation returns a copy carrying a correlation id for tracing a
// causal chain across services.
func (e Event) WithCorrelation(id string) Event {
	e.CorrelationID = id
	return e
}

// DecodeError marks an undecodable message body. Subscribers reject such
// deliveries without requeue (poison message).
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "decode event: " + e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }

// Encode produces the wire form: a JSON object with exactly the Event
// fields, optional fields omitted when empty.
func Encode(e Event) ([]byte, error) {
	return json.Marshal(e)
}

// Decode is the inverse of Encode. It is type-agnostic: an event type not
// in the closed enum decodes fine and simply matches no producer-known
// pattern. An empty event_type or tenant_id means a broken envelope.
func Decode(body []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(body, &e); err != nil {
		return Event{}, &DecodeError{Err: err}
	}
	if e.Type == "" {
		return Event{}, &DecodeError{Err: errors.New("missing event_type")}
	}
	return e, nil
}

// Match reports whether an event type matches a subscription pattern.
// Patterns are "*" (everything), an exact type, or a prefix ending in "*".
// The prefix test is a plain string prefix, not a topic-segment match:
// "deal.*" matches "deal.sub.created" too.
func Match(eventType, pattern string) bool {
	if pattern == "*" {
		return eventType != ""
	}
	if pattern == eventType {
		return true
	}
	if n := len(pattern); n > 0 && pattern[n-1] == '*' {
		prefix := pattern[:n-1]
		return len(eventType) >= len(prefix) && eventType[:len(prefix)] == prefix
	}
	return false
}
