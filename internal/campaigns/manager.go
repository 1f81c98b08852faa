// Package campaigns manages outreach campaigns through the recruiting API.
package campaigns

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/recruit-search/internal/types"
)

// DefaultAnalyticsConcurrency bounds concurrent analytics requests in Overview.
const DefaultAnalyticsConcurrency = 4

// API is the campaign half of the recruiting API.
type API interface {
	ListCampaigns(ctx context.Context) ([]types.Campaign, error)
	CreateCampaign(ctx context.Context, req types.CreateCampaignRequest) (*types.Campaign, error)
	UpdateCampaign(ctx context.Context, id string, req types.UpdateCampaignRequest) (*types.Campaign, error)
	DeleteCampaign(ctx context.Context, id string) error
	CampaignAnalytics(ctx context.Context, id string) (*types.CampaignAnalytics, error)
}

// NotFoundError is returned when no campaign has the requested id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("campaign %q not found", e.ID)
}

// Manager wraps the campaign endpoints with validation and aggregation.
type Manager struct {
	api         API
	log         *zap.Logger
	concurrency int
}

// NewManager creates a manager. A nil logger discards output.
func NewManager(api API, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		api:         api,
		log:         logger.Named("campaigns"),
		concurrency: DefaultAnalyticsConcurrency,
	}
}

// List returns campaigns, restricted to campaignType when it is not empty.
func (m *Manager) List(ctx context.Context, campaignType string) ([]types.Campaign, error) {
	all, err := m.api.ListCampaigns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return FilterByType(all, campaignType), nil
}

// Find returns the campaign with the given id.
func (m *Manager) Find(ctx context.Context, id string) (*types.Campaign, error) {
	all, err := m.api.ListCampaigns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, &NotFoundError{ID: id}
}

// Create validates and creates a campaign. Steps are numbered in order.
func (m *Manager) Create(ctx context.Context, req types.CreateCampaignRequest) (*types.Campaign, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid campaign: %w", err)
	}
	for i := range req.Steps {
		req.Steps[i].Order = i + 1
	}

	campaign, err := m.api.CreateCampaign(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}
	m.log.Info("campaign created", zap.String("id", campaign.ID), zap.String("type", campaign.Type), zap.Int("steps", len(req.Steps)))
	return campaign, nil
}

// NextStatus returns the status a toggle moves to: active campaigns pause,
// everything else activates.
func NextStatus(current string) string {
	if current == types.CampaignStatusActive {
		return types.CampaignStatusPaused
	}
	return types.CampaignStatusActive
}

// Toggle flips a campaign between active and paused.
func (m *Manager) Toggle(ctx context.Context, campaign types.Campaign) (*types.Campaign, error) {
	return m.SetStatus(ctx, campaign.ID, NextStatus(campaign.Status))
}

// ToggleByID looks a campaign up and flips its status.
func (m *Manager) ToggleByID(ctx context.Context, id string) (*types.Campaign, error) {
	campaign, err := m.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.Toggle(ctx, *campaign)
}

// SetStatus updates only the status of a campaign.
func (m *Manager) SetStatus(ctx context.Context, id, status string) (*types.Campaign, error) {
	req := types.UpdateCampaignRequest{Status: &status}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid status %q: %w", status, err)
	}

	updated, err := m.api.UpdateCampaign(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("failed to update campaign %s: %w", id, err)
	}
	m.log.Info("campaign status changed", zap.String("id", id), zap.String("status", updated.Status))
	return updated, nil
}

// Delete removes a campaign.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.api.DeleteCampaign(ctx, id); err != nil {
		return fmt.Errorf("failed to delete campaign %s: %w", id, err)
	}
	m.log.Info("campaign deleted", zap.String("id", id))
	return nil
}

// Analytics fetches delivery statistics for one campaign.
func (m *Manager) Analytics(ctx context.Context, id string) (*types.CampaignAnalytics, error) {
	analytics, err := m.api.CampaignAnalytics(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch analytics for %s: %w", id, err)
	}
	return analytics, nil
}

// Overview aggregates the campaigns of one type. With refresh set, the
// stats of every campaign are re-fetched from the analytics endpoint
// concurrently before aggregation.
func (m *Manager) Overview(ctx context.Context, campaignType string, refresh bool) (Overview, error) {
	list, err := m.List(ctx, campaignType)
	if err != nil {
		return Overview{}, err
	}

	if refresh && len(list) > 0 {
		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(m.concurrency)
		for i := range list {
			g.Go(func() error {
				analytics, err := m.Analytics(gCtx, list[i].ID)
				if err != nil {
					return err
				}
				stats := analytics.Stats
				list[i].Stats = &stats
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return Overview{}, err
		}
	}

	overview := Summarize(list)
	overview.Type = campaignType
	return overview, nil
}

// FilterByType returns the campaigns whose type equals campaignType.
// An empty campaignType returns all campaigns.
func FilterByType(list []types.Campaign, campaignType string) []types.Campaign {
	if campaignType == "" {
		return list
	}
	out := make([]types.Campaign, 0, len(list))
	for _, c := range list {
		if c.Type == campaignType {
			out = append(out, c)
		}
	}
	return out
}
