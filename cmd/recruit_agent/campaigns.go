package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/recruit-search/internal/campaigns"
	"github.com/jonathan/recruit-search/internal/types"
)

func newCampaignsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "campaigns",
		Short: "Manage outreach campaigns",
	}
	cmd.AddCommand(
		newCampaignsListCmd(root),
		newCampaignsCreateCmd(root),
		newCampaignsToggleCmd(root),
		newCampaignsDeleteCmd(root),
		newCampaignsAnalyticsCmd(root),
		newCampaignsOverviewCmd(root),
	)
	return cmd
}

func newCampaignsListCmd(root *rootOptions) *cobra.Command {
	var campaignType string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List campaigns",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = withRuntime(root, func(cmd *cobra.Command, args []string, rt *runtime) error {
		list, err := campaigns.NewManager(rt.client, rt.logger).List(cmd.Context(), campaignType)
		if err != nil {
			return err
		}
		overview := campaigns.Summarize(list)
		overview.Type = campaignType
		rt.printer.PrintCampaigns(list, overview)
		return nil
	})
	cmd.Flags().StringVarP(&campaignType, "type", "t", "", "Only campaigns of this type (email, linkedin)")
	return cmd
}

func newCampaignsCreateCmd(root *rootOptions) *cobra.Command {
	var (
		name         string
		campaignType string
		steps        []string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a campaign",
		Example: `  recruit_agent campaigns create --name "React outreach" --type email \
    --step "0:Hi {name}, are you open to new roles?" --step "3:Following up on my note"`,
		Args: cobra.NoArgs,
	}
	cmd.RunE = withRuntime(root, func(cmd *cobra.Command, args []string, rt *runtime) error {
		parsed, err := parseSteps(steps)
		if err != nil {
			return err
		}
		created, err := campaigns.NewManager(rt.client, rt.logger).Create(cmd.Context(), types.CreateCampaignRequest{
			Name:  name,
			Type:  campaignType,
			Steps: parsed,
		})
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created campaign %s (%s)\n", created.Name, created.ID)
		return nil
	})
	flags := cmd.Flags()
	flags.StringVar(&name, "name", "", "Campaign name")
	flags.StringVarP(&campaignType, "type", "t", "email", "Campaign type (email, linkedin)")
	flags.StringArrayVar(&steps, "step", nil, "Step as DELAY_DAYS:CONTENT; repeat for each step")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

// parseSteps reads DELAY_DAYS:CONTENT step definitions.
func parseSteps(raw []string) ([]types.CampaignStep, error) {
	steps := make([]types.CampaignStep, 0, len(raw))
	for i, s := range raw {
		delay, content, ok := strings.Cut(s, ":")
		if !ok {
			return nil, fmt.Errorf("step %d: expected DELAY_DAYS:CONTENT, got %q", i+1, s)
		}
		days, err := strconv.Atoi(strings.TrimSpace(delay))
		if err != nil {
			return nil, fmt.Errorf("step %d: delay %q is not a number", i+1, delay)
		}
		steps = append(steps, types.CampaignStep{DelayDays: days, Content: strings.TrimSpace(content)})
	}
	return steps, nil
}

func newCampaignsToggleCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Switch a campaign between active and paused",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = withRuntime(root, func(cmd *cobra.Command, args []string, rt *runtime) error {
		updated, err := campaigns.NewManager(rt.client, rt.logger).ToggleByID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Campaign %s is now %s\n", updated.ID, updated.Status)
		return nil
	})
	return cmd
}

func newCampaignsDeleteCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a campaign",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = withRuntime(root, func(cmd *cobra.Command, args []string, rt *runtime) error {
		if err := campaigns.NewManager(rt.client, rt.logger).Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted campaign %s\n", args[0])
		return nil
	})
	return cmd
}

func newCampaignsAnalyticsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analytics <id>",
		Short: "Show delivery analytics for a campaign",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = withRuntime(root, func(cmd *cobra.Command, args []string, rt *runtime) error {
		analytics, err := campaigns.NewManager(rt.client, rt.logger).Analytics(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		rt.printer.PrintAnalytics(*analytics)
		return nil
	})
	return cmd
}

func newCampaignsOverviewCmd(root *rootOptions) *cobra.Command {
	var (
		campaignType string
		refresh      bool
	)
	cmd := &cobra.Command{
		Use:   "overview",
		Short: "Summarize sends, open and reply rates",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = withRuntime(root, func(cmd *cobra.Command, args []string, rt *runtime) error {
		overview, err := campaigns.NewManager(rt.client, rt.logger).Overview(cmd.Context(), campaignType, refresh)
		if err != nil {
			return err
		}
		rt.printer.PrintCampaigns(nil, overview)
		return nil
	})
	cmd.Flags().StringVarP(&campaignType, "type", "t", "", "Only campaigns of this type")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Fetch fresh analytics for every campaign")
	return cmd
}
