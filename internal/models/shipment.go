package models

import (
	"errors"
	"time"
)

type ShipmentStatus string

const (
	ShipmentPreparing ShipmentStatus = "preparing"
	ShipmentShipped   ShipmentStatus = "shipped"
	ShipmentInTransit ShipmentStatus = "in_transit"
	ShipmentDelivered ShipmentStatus = "delivered"
	ShipmentReturned  ShipmentStatus = "returned"
)

func (s ShipmentStatus) Valid() bool {
	switch s {
	case ShipmentPreparing, ShipmentShipped, ShipmentInTransit, ShipmentDelivered, ShipmentReturned:
		return true
	}
	return false
}

type Shipment struct {
	ID                string         `json:"id"`
	ShipmentNumber    string         `json:"shipment_number"`
	OrderID           string         `json:"order_id"`
	Status            ShipmentStatus `json:"status"`
	Carrier           string         `json:"carrier,omitempty"`
	TrackingNumber    string         `json:"tracking_number,omitempty"`
	ShippingMethod    string         `json:"shipping_method,omitempty"`
	ServiceLevel      string         `json:"service_level,omitempty"` // standard, express, overnight
	PickupAddress     string         `json:"pickup_address,omitempty"`
	DeliveryAddress   string         `json:"delivery_address,omitempty"`
	CurrentLocation   string         `json:"current_location,omitempty"`
	PackageCount      int            `json:"package_count"`
	TotalWeight       float64        `json:"total_weight,omitempty"`
	ShipmentDate      *time.Time     `json:"shipment_date,omitempty"`
	EstimatedDelivery *time.Time     `json:"estimated_delivery_date,omitempty"`
	ActualDelivery    *time.Time     `json:"actual_delivery_date,omitempty"`
	TenantID          string         `json:"tenant_id"`
	IsActive          bool           `json:"is_active"`
	CreatedBy         string         `json:"created_by,omitempty"`
	UpdatedBy         string         `json:"updated_by,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

func (s *Shipment) Validate() error {
	if s.OrderID == "" {
		return errors.New("order_id is required")
	}
	if s.Status == "" {
		s.Status = ShipmentPreparing
	}
	if !s.Status.Valid() {
		return errors.New("invalid shipment status")
	}
	if s.PackageCount <= 0 {
		s.PackageCount = 1
	}
	return nil
}
