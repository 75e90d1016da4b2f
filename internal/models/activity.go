package models

import (
	"errors"
	"strings"
	"time"
)

type ActivityType string

const (
	ActivityCall    ActivityType = "call"
	ActivityEmail   ActivityType = "email"
	ActivityMeeting ActivityType = "meeting"
	ActivityNote    ActivityType = "note"
	ActivityTask    ActivityType = "task"
	ActivityDemo    ActivityType = "demo"
)

func (t ActivityType) Valid() bool {
	switch t {
	case ActivityCall, ActivityEmail, ActivityMeeting, ActivityNote, ActivityTask, ActivityDemo:
		return true
	}
	return false
}

type Activity struct {
	ID             string       `json:"id"`
	DealID         *string      `json:"deal_id,omitempty"`
	CompanyID      *string      `json:"company_id,omitempty"`
	ContactID      *string      `json:"contact_id,omitempty"`
	Type           ActivityType `json:"activity_type"`
	Subject        string       `json:"subject"`
	Description    string       `json:"description,omitempty"`
	ActivityDate   time.Time    `json:"activity_date"`
	DueDate        *time.Time   `json:"due_date,omitempty"`
	Duration       int          `json:"duration_minutes,omitempty"`
	Outcome        string       `json:"outcome,omitempty"` // positive, negative, neutral, no_response
	NextAction     string       `json:"next_action,omitempty"`
	NextActionDate *time.Time   `json:"next_action_date,omitempty"`
	Completed      bool         `json:"completed"`
	AssignedTo     string       `json:"assigned_to,omitempty"`
	Priority       string       `json:"priority"`
	TenantID       string       `json:"tenant_id"`
	IsActive       bool         `json:"is_active"`
	CreatedBy      string       `json:"created_by,omitempty"`
	UpdatedBy      string       `json:"updated_by,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

func (a *Activity) Validate() error {
	if !a.Type.Valid() {
		return errors.New("invalid activity type")
	}
	if strings.TrimSpace(a.Subject) == "" {
		return errors.New("subject is required")
	}
	if a.Priority == "" {
		a.Priority = "medium"
	}
	if a.ActivityDate.IsZero() {
		a.ActivityDate = time.Now().UTC()
	}
	return nil
}

// IsOverdue reports an incomplete activity past its due date.
func (a *Activity) IsOverdue(now time.Time) bool {
	return !a.Completed && a.DueDate != nil && a.DueDate.Before(now)
}
