package models

import (
	"errors"
	"strings"
	"time"
)

type CompanyStatus string

const (
	CompanyActive      CompanyStatus = "active"
	CompanyProspect    CompanyStatus = "prospect"
	CompanyInactive    CompanyStatus = "inactive"
	CompanyBlacklisted CompanyStatus = "blacklisted"
)

type Company struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	LegalName     string        `json:"legal_name,omitempty"`
	Industry      string        `json:"industry,omitempty"`
	CompanyType   string        `json:"company_type,omitempty"` // distributor, importer, wholesaler, retailer
	Website       string        `json:"website,omitempty"`
	Phone         string        `json:"phone,omitempty"`
	Email         string        `json:"email,omitempty"`
	TaxID         string        `json:"tax_id,omitempty"`
	Country       string        `json:"country,omitempty"`
	EmployeeCount int           `json:"employee_count,omitempty"`
	AnnualRevenue float64       `json:"annual_revenue,omitempty"`
	Currency      string        `json:"currency"`
	Status        CompanyStatus `json:"status"`
	Source        string        `json:"source,omitempty"`
	AssignedTo    string        `json:"assigned_to,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	Tags          []string      `json:"tags,omitempty"`
	TenantID      string        `json:"tenant_id"`
	IsActive      bool          `json:"is_active"`
	CreatedBy     string        `json:"created_by,omitempty"`
	UpdatedBy     string        `json:"updated_by,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func (c *Company) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("company name is required")
	}
	if c.Currency == "" {
		c.Currency = "USD"
	}
	if c.Status == "" {
		c.Status = CompanyActive
	}
	return nil
}
