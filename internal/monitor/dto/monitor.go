package dto

import (
	"time"

	"whmcs-stock-monitor/internal/entity"
)

// CreateMonitorRequest is the payload for creating a monitor configuration.
type CreateMonitorRequest struct {
	WebsiteID         uint    `json:"website_id"`
	ProductID         int     `json:"product_id"`
	ProductName       *string `json:"product_name,omitempty"`
	ThresholdLow      *int    `json:"threshold_low,omitempty"`
	ThresholdHigh     *int    `json:"threshold_high,omitempty"`
	NotifyOnRestock   *bool   `json:"notify_on_restock,omitempty"`
	NotifyOnPurchase  *bool   `json:"notify_on_purchase,omitempty"`
	NotifyOnThreshold *bool   `json:"notify_on_threshold,omitempty"`
	PurchaseLink      *string `json:"purchase_link,omitempty"`
	IsActive          *bool   `json:"is_active,omitempty"`
}

// UpdateMonitorRequest is the payload for updating a monitor. Nil fields
// are left unchanged.
type UpdateMonitorRequest struct {
	ProductName       *string `json:"product_name,omitempty"`
	ThresholdLow      *int    `json:"threshold_low,omitempty"`
	ThresholdHigh     *int    `json:"threshold_high,omitempty"`
	NotifyOnRestock   *bool   `json:"notify_on_restock,omitempty"`
	NotifyOnPurchase  *bool   `json:"notify_on_purchase,omitempty"`
	NotifyOnThreshold *bool   `json:"notify_on_threshold,omitempty"`
	PurchaseLink      *string `json:"purchase_link,omitempty"`
	IsActive          *bool   `json:"is_active,omitempty"`
}

// MonitorResponse is the API view of a monitor configuration.
type MonitorResponse struct {
	ID                uint       `json:"id"`
	WebsiteID         uint       `json:"website_id"`
	ProductID         int        `json:"product_id"`
	ProductName       *string    `json:"product_name,omitempty"`
	IsActive          bool       `json:"is_active"`
	ThresholdLow      *int       `json:"threshold_low,omitempty"`
	ThresholdHigh     *int       `json:"threshold_high,omitempty"`
	NotifyOnRestock   bool       `json:"notify_on_restock"`
	NotifyOnPurchase  bool       `json:"notify_on_purchase"`
	NotifyOnThreshold bool       `json:"notify_on_threshold"`
	PurchaseLink      *string    `json:"purchase_link,omitempty"`
	LastCheckedAt     *time.Time `json:"last_checked_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// NewMonitorResponse maps an entity to its API view.
func NewMonitorResponse(m *entity.MonitorConfig) *MonitorResponse {
	return &MonitorResponse{
		ID:                m.ID,
		WebsiteID:         m.WebsiteID,
		ProductID:         m.ProductID,
		ProductName:       m.ProductName,
		IsActive:          m.IsActive,
		ThresholdLow:      m.ThresholdLow,
		ThresholdHigh:     m.ThresholdHigh,
		NotifyOnRestock:   m.NotifyOnRestock,
		NotifyOnPurchase:  m.NotifyOnPurchase,
		NotifyOnThreshold: m.NotifyOnThreshold,
		PurchaseLink:      m.PurchaseLink,
		LastCheckedAt:     m.LastCheckedAt,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

// MonitorStatusResponse is the per-monitor status summary.
type MonitorStatusResponse struct {
	MonitorID         uint               `json:"monitor_id"`
	WebsiteID         uint               `json:"website_id"`
	ProductID         int                `json:"product_id"`
	ProductName       *string            `json:"product_name,omitempty"`
	IsActive          bool               `json:"is_active"`
	LastCheckedAt     *time.Time         `json:"last_checked_at,omitempty"`
	CurrentQuantity   *int               `json:"current_quantity,omitempty"`
	LastChangeType    *entity.ChangeType `json:"last_change_type,omitempty"`
	ThresholdBreached bool               `json:"threshold_breached"`
	RecentEvents      int                `json:"recent_events"`
}
