package apiclient

import (
	"context"
	"net/http"

	"github.com/jonathan/recruit-search/internal/types"
	contracts "github.com/jonathan/recruit-search/schemas"
)

// ListCampaigns returns every campaign visible to the caller.
func (c *Client) ListCampaigns(ctx context.Context) ([]types.Campaign, error) {
	var list []types.Campaign
	err := c.do(ctx, call{
		op:     "campaigns.list",
		method: http.MethodGet,
		path:   "/api/campaigns",
		schema: contracts.CampaignList,
		out:    &list,
	})
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []types.Campaign{}
	}
	return list, nil
}

// CreateCampaign creates a campaign and returns the stored record.
func (c *Client) CreateCampaign(ctx context.Context, req types.CreateCampaignRequest) (*types.Campaign, error) {
	var campaign types.Campaign
	err := c.do(ctx, call{
		op:     "campaigns.create",
		method: http.MethodPost,
		path:   "/api/campaigns",
		body:   req,
		schema: contracts.Campaign,
		out:    &campaign,
	})
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

// UpdateCampaign applies a partial update to a campaign.
func (c *Client) UpdateCampaign(ctx context.Context, id string, req types.UpdateCampaignRequest) (*types.Campaign, error) {
	if err := requireID("campaigns.update", id); err != nil {
		return nil, err
	}

	var campaign types.Campaign
	err := c.do(ctx, call{
		op:     "campaigns.update",
		method: http.MethodPut,
		path:   campaignPath(id, ""),
		body:   req,
		schema: contracts.Campaign,
		out:    &campaign,
	})
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

// DeleteCampaign removes a campaign.
func (c *Client) DeleteCampaign(ctx context.Context, id string) error {
	if err := requireID("campaigns.delete", id); err != nil {
		return err
	}

	return c.do(ctx, call{
		op:     "campaigns.delete",
		method: http.MethodDelete,
		path:   campaignPath(id, ""),
	})
}

// CampaignAnalytics fetches delivery statistics for a campaign.
func (c *Client) CampaignAnalytics(ctx context.Context, id string) (*types.CampaignAnalytics, error) {
	if err := requireID("campaigns.analytics", id); err != nil {
		return nil, err
	}

	var analytics types.CampaignAnalytics
	err := c.do(ctx, call{
		op:     "campaigns.analytics",
		method: http.MethodGet,
		path:   campaignPath(id, "analytics"),
		out:    &analytics,
	})
	if err != nil {
		return nil, err
	}
	if analytics.CampaignID == "" {
		analytics.CampaignID = id
	}
	return &analytics, nil
}
