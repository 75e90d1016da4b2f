package repository

import "time"

// Page carries the shared limit/offset pair; handlers translate
// page/per_page query params into it.
type Page struct {
	Limit  int
	Offset int
}

type UserFilter struct {
	Search     string
	Role       string
	ActiveOnly bool
	Page
}

type CompanyFilter struct {
	Search    string
	Status    string
	Industry  string
	SortBy    string
	SortDesc  bool
	Page
}

type ContactFilter struct {
	Search    string
	CompanyID string
	SortBy    string
	SortDesc  bool
	Page
}

type DealFilter struct {
	Search        string
	Stage         string
	Status        string
	AssignedTo    string
	CompanyID     string
	Priority      string
	OverdueOnly   bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	MinValue      *float64
	MaxValue      *float64
	SortBy        string
	SortDesc      bool
	Page
}

type PipelineFilter struct {
	AssignedTo string
	CompanyID  string
}

type ActivityFilter struct {
	Type       string
	DealID     string
	AssignedTo string
	Completed  *bool
	After      *time.Time
	Before     *time.Time
	Page
}

type OrderFilter struct {
	Search        string
	Status        string
	PaymentStatus string
	CompanyID     string
	Page
}

type ShipmentFilter struct {
	Status  string
	OrderID string
	Page
}

type CompanyStats struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"by_status"`
	ByIndustry map[string]int `json:"by_industry"`
}

type ContactStats struct {
	Total        int            `json:"total_contacts"`
	ByDepartment map[string]int `json:"by_department"`
	ByLanguage   map[string]int `json:"by_language"`
	ByMethod     map[string]int `json:"by_contact_method"`
}

type DealStats struct {
	Total      int            `json:"total_deals"`
	Open       int            `json:"open_deals"`
	Won        int            `json:"won_deals"`
	Lost       int            `json:"lost_deals"`
	Overdue    int            `json:"overdue_deals"`
	WinRate    float64        `json:"win_rate"`
	ByStage    map[string]int `json:"by_stage"`
	ByPriority map[string]int `json:"by_priority"`
	ValueTotal float64        `json:"value_total"`
	ValueAvg   float64        `json:"value_avg"`
	ValueMax   float64        `json:"value_max"`
	ValueMin   float64        `json:"value_min"`
}

type ActivityStats struct {
	Total     int            `json:"total"`
	Completed int            `json:"completed"`
	Pending   int            `json:"pending"`
	Overdue   int            `json:"overdue"`
	ByType    map[string]int `json:"by_type"`
}

type OrderStats struct {
	Total       int            `json:"total_orders"`
	ByStatus    map[string]int `json:"by_status"`
	AmountTotal float64        `json:"amount_total"`
	AmountAvg   float64        `json:"amount_avg"`
}

type ShipmentStats struct {
	Total    int            `json:"total_shipments"`
	ByStatus map[string]int `json:"by_status"`
}
