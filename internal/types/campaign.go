package types

import (
	"github.com/go-playground/validator/v10"
)

// Campaign statuses used by the status toggle.
const (
	CampaignStatusActive = "active"
	CampaignStatusPaused = "paused"
	CampaignStatusDraft  = "draft"
)

// Campaign is an outreach campaign.
type Campaign struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	Status     string         `json:"status"`
	CreatedAt  string         `json:"createdAt"`
	Steps      []CampaignStep `json:"steps"`
	Recipients []string       `json:"recipients,omitempty"`
	Stats      *CampaignStats `json:"stats,omitempty"`
}

// CampaignStep is one message in a campaign sequence.
type CampaignStep struct {
	ID        string `json:"id,omitempty"`
	Order     int    `json:"order,omitempty"`
	Subject   string `json:"subject,omitempty" validate:"max=200"`
	Content   string `json:"content" validate:"required"`
	DelayDays int    `json:"delayDays" validate:"gte=0,lte=365"`
}

// CampaignStats holds delivery counters for a campaign.
type CampaignStats struct {
	Sent         int     `json:"sent"`
	Opened       int     `json:"opened"`
	Replied      int     `json:"replied"`
	DeliveryRate float64 `json:"deliveryRate"`
	OpenRate     float64 `json:"openRate"`
	ReplyRate    float64 `json:"replyRate"`
}

// CampaignAnalytics is the payload of GET /api/campaigns/{id}/analytics.
type CampaignAnalytics struct {
	CampaignID string        `json:"campaignId,omitempty"`
	Stats      CampaignStats `json:"stats"`
}

// CreateCampaignRequest is the body of POST /api/campaigns.
type CreateCampaignRequest struct {
	Name  string         `json:"name" validate:"required,min=1,max=200"`
	Type  string         `json:"type" validate:"required,oneof=email linkedin"`
	Steps []CampaignStep `json:"steps" validate:"required,min=1,dive"`
}

// UpdateCampaignRequest is the body of PUT /api/campaigns/{id}. Nil fields are left unchanged.
type UpdateCampaignRequest struct {
	Name   *string        `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Status *string        `json:"status,omitempty" validate:"omitempty,oneof=active paused draft"`
	Steps  []CampaignStep `json:"steps,omitempty" validate:"omitempty,dive"`
}

// Validate validates the CreateCampaignRequest using the validator.
func (r *CreateCampaignRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the UpdateCampaignRequest using the validator.
func (r *UpdateCampaignRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
