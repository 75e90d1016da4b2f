package models

import (
	"errors"
	"time"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipping   OrderStatus = "shipped"
	OrderDone       OrderStatus = "delivered"
	OrderDropped    OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderProcessing, OrderShipping, OrderDone, OrderDropped:
		return true
	}
	return false
}

type Order struct {
	ID             string      `json:"id"`
	OrderNumber    string      `json:"order_number"`
	DealID         *string     `json:"deal_id,omitempty"`
	CompanyID      *string     `json:"company_id,omitempty"`
	ContactID      *string     `json:"contact_id,omitempty"`
	OrderDate      time.Time   `json:"order_date"`
	Status         OrderStatus `json:"status"`
	PaymentStatus  string      `json:"payment_status"`     // pending, partial, paid, overdue, cancelled
	PaymentTerms   string      `json:"payment_terms,omitempty"` // net_30, net_60, cod, prepaid
	Subtotal       float64     `json:"subtotal"`
	TaxAmount      float64     `json:"tax_amount"`
	ShippingAmount float64     `json:"shipping_amount"`
	DiscountAmount float64     `json:"discount_amount"`
	TotalAmount    float64     `json:"total_amount"`
	Currency       string      `json:"currency"`
	ShippingMethod string      `json:"shipping_method,omitempty"` // air, sea, land, express, standard
	ShippingAddr   string      `json:"shipping_address,omitempty"`
	BillingAddr    string      `json:"billing_address,omitempty"`
	Incoterms      string      `json:"incoterms,omitempty"`
	AssignedTo     string      `json:"assigned_to,omitempty"`
	Priority       string      `json:"priority"`
	Notes          string      `json:"notes,omitempty"`
	Tags           []string    `json:"tags,omitempty"`
	Items          []OrderItem `json:"items,omitempty"`
	TenantID       string      `json:"tenant_id"`
	IsActive       bool        `json:"is_active"`
	CreatedBy      string      `json:"created_by,omitempty"`
	UpdatedBy      string      `json:"updated_by,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

func (o *Order) Validate() error {
	if len(o.Items) == 0 {
		return errors.New("order requires at least one item")
	}
	if o.Status == "" {
		o.Status = OrderPending
	}
	if o.PaymentStatus == "" {
		o.PaymentStatus = "pending"
	}
	if o.Currency == "" {
		o.Currency = "USD"
	}
	if o.Priority == "" {
		o.Priority = "medium"
	}
	if o.OrderDate.IsZero() {
		o.OrderDate = time.Now().UTC()
	}
	for i := range o.Items {
		it := &o.Items[i]
		if it.Currency == "" {
			it.Currency = o.Currency
		}
		if err := it.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Recalculate derives line totals and the order total from its items.
func (o *Order) Recalculate() {
	var subtotal float64
	for i := range o.Items {
		it := &o.Items[i]
		it.TotalPrice = it.Quantity*it.UnitPrice - it.DiscountAmount
		subtotal += it.TotalPrice
	}
	o.Subtotal = subtotal
	o.TotalAmount = subtotal + o.TaxAmount + o.ShippingAmount - o.DiscountAmount
}

type OrderItem struct {
	ID             string  `json:"id"`
	OrderID        string  `json:"order_id"`
	LineNumber     int     `json:"line_number"`
	ProductCode    string  `json:"product_code,omitempty"`
	ProductName    string  `json:"product_name"`
	Description    string  `json:"description,omitempty"`
	Quantity       float64 `json:"quantity"`
	UnitPrice      float64 `json:"unit_price"`
	TotalPrice     float64 `json:"total_price"`
	Currency       string  `json:"currency"`
	UnitOfMeasure  string  `json:"unit_of_measure,omitempty"` // pcs, kg, m, l
	DiscountAmount float64 `json:"discount_amount"`
	HSCode         string  `json:"hs_code,omitempty"`
	TenantID       string  `json:"tenant_id"`
}

func (it *OrderItem) Validate() error {
	if it.ProductName == "" {
		return errors.New("product_name is required")
	}
	if it.Quantity <= 0 {
		return errors.New("quantity must be > 0")
	}
	if it.UnitPrice < 0 {
		return errors.New("unit_price must be >= 0")
	}
	return nil
}
