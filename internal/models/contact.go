package models

import (
	"errors"
	"strings"
	"time"
)

type Contact struct {
	ID              string    `json:"id"`
	CompanyID       *string   `json:"company_id,omitempty"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Title           string    `json:"title,omitempty"`
	Department      string    `json:"department,omitempty"`
	Email           string    `json:"email,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	Mobile          string    `json:"mobile,omitempty"`
	PreferredLang   string    `json:"preferred_language"`
	PreferredMethod string    `json:"preferred_contact_method"` // email, phone, mobile
	IsPrimary       bool      `json:"is_primary"`
	Notes           string    `json:"notes,omitempty"`
	Tags            []string  `json:"tags,omitempty"`
	TenantID        string    `json:"tenant_id"`
	IsActive        bool      `json:"is_active"`
	CreatedBy       string    `json:"created_by,omitempty"`
	UpdatedBy       string    `json:"updated_by,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (c *Contact) Validate() error {
	if strings.TrimSpace(c.FirstName) == "" {
		return errors.New("first_name is required")
	}
	if strings.TrimSpace(c.LastName) == "" {
		return errors.New("last_name is required")
	}
	if c.PreferredLang == "" {
		c.PreferredLang = "en"
	}
	if c.PreferredMethod == "" {
		c.PreferredMethod = "email"
	}
	return nil
}

// CommunicationLog records an interaction with a contact or company.
type CommunicationLog struct {
	ID        string    `json:"id"`
	CompanyID *string   `json:"company_id,omitempty"`
	ContactID *string   `json:"contact_id,omitempty"`
	CommType  string    `json:"communication_type"` // email, phone, meeting, note
	Subject   string    `json:"subject,omitempty"`
	Content   string    `json:"content,omitempty"`
	Direction string    `json:"direction,omitempty"` // inbound, outbound
	CommDate  time.Time `json:"communication_date"`
	UserID    string    `json:"user_id,omitempty"`
	TenantID  string    `json:"tenant_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Note struct {
	ID        string     `json:"id"`
	CompanyID *string    `json:"company_id,omitempty"`
	ContactID *string    `json:"contact_id,omitempty"`
	NoteType  string     `json:"note_type"` // general, important, warning, opportunity
	Title     string     `json:"title,omitempty"`
	Content   string     `json:"content"`
	IsPrivate bool       `json:"is_private"`
	Priority  string     `json:"priority"`
	Reminder  *time.Time `json:"reminder_date,omitempty"`
	TenantID  string     `json:"tenant_id"`
	CreatedBy string     `json:"created_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
