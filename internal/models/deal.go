package models

import (
	"errors"
	"strings"
	"time"
)

type DealStatus string

const (
	DealOpen          DealStatus = "open"
	DealStatusWon     DealStatus = "won"
	DealStatusLost    DealStatus = "lost"
	DealStatusDropped DealStatus = "cancelled"
)

// StageOrder is the typical pipeline progression; custom stages sort after.
var StageOrder = []string{"lead", "qualified", "proposal", "negotiation", "closed_won", "closed_lost"}

type Deal struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Description       string     `json:"description,omitempty"`
	CompanyID         *string    `json:"company_id,omitempty"`
	ContactID         *string    `json:"contact_id,omitempty"`
	Stage             string     `json:"stage"`
	Value             float64    `json:"value,omitempty"`
	Currency          string     `json:"currency"`
	Probability       int        `json:"probability"` // 0-100
	ExpectedCloseDate *time.Time `json:"expected_close_date,omitempty"`
	ActualCloseDate   *time.Time `json:"actual_close_date,omitempty"`
	Source            string     `json:"source,omitempty"`
	AssignedTo        string     `json:"assigned_to,omitempty"`
	Status            DealStatus `json:"status"`
	Priority          string     `json:"priority"`
	Tags              []string   `json:"tags,omitempty"`
	LeadScore         int        `json:"lead_score"`
	TenantID          string     `json:"tenant_id"`
	IsActive          bool       `json:"is_active"`
	CreatedBy         string     `json:"created_by,omitempty"`
	UpdatedBy         string     `json:"updated_by,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (d *Deal) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return errors.New("deal title is required")
	}
	if d.Stage == "" {
		d.Stage = "lead"
	}
	if d.Currency == "" {
		d.Currency = "USD"
	}
	if d.Status == "" {
		d.Status = DealOpen
	}
	if d.Priority == "" {
		d.Priority = "medium"
	}
	if d.Probability < 0 || d.Probability > 100 {
		return errors.New("probability must be between 0 and 100")
	}
	return nil
}

// WeightedValue is the deal value scaled by close probability.
func (d *Deal) WeightedValue() float64 {
	return d.Value * float64(d.Probability) / 100
}

// IsOverdue reports an open deal past its expected close date.
func (d *Deal) IsOverdue(now time.Time) bool {
	return d.Status == DealOpen && d.ExpectedCloseDate != nil && d.ExpectedCloseDate.Before(now)
}
