package dto

import (
	"time"

	"whmcs-stock-monitor/internal/entity"
)

// CreateWebsiteRequest is the payload for registering a WHMCS installation.
type CreateWebsiteRequest struct {
	Name          string  `json:"name"`
	WebsiteURL    string  `json:"website_url"`
	APIIdentifier string  `json:"api_identifier"`
	APISecret     string  `json:"api_secret"`
	Region        *string `json:"region,omitempty"`
	IsActive      *bool   `json:"is_active,omitempty"`
}

// UpdateWebsiteRequest is the payload for updating a website. Nil fields
// are left unchanged.
type UpdateWebsiteRequest struct {
	Name          *string `json:"name,omitempty"`
	WebsiteURL    *string `json:"website_url,omitempty"`
	APIIdentifier *string `json:"api_identifier,omitempty"`
	APISecret     *string `json:"api_secret,omitempty"`
	Region        *string `json:"region,omitempty"`
	IsActive      *bool   `json:"is_active,omitempty"`
}

// WebsiteResponse is the API view of a website. Credentials are never
// echoed back.
type WebsiteResponse struct {
	ID         uint      `json:"id"`
	Name       string    `json:"name"`
	WebsiteURL string    `json:"website_url"`
	Region     *string   `json:"region,omitempty"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewWebsiteResponse maps an entity to its API view.
func NewWebsiteResponse(w *entity.Website) *WebsiteResponse {
	return &WebsiteResponse{
		ID:         w.ID,
		Name:       w.Name,
		WebsiteURL: w.WebsiteURL,
		Region:     w.Region,
		IsActive:   w.IsActive,
		CreatedAt:  w.CreatedAt,
		UpdatedAt:  w.UpdatedAt,
	}
}
