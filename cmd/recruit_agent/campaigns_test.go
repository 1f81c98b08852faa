package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCampaignsList(t *testing.T) {
	_, server := newFakeServer(t)

	out, err := runCLI(t, "", "campaigns", "list", "--api-url", server.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Campaigns: 2 (1 active)")
	assert.Contains(t, out, "Sent:      150")
	assert.Contains(t, out, "React outreach [active]")

	out, err = runCLI(t, "", "campaigns", "list", "--type", "linkedin", "--api-url", server.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "CAMPAIGNS (LINKEDIN)")
	assert.Contains(t, out, "Go outreach [paused]")
	assert.NotContains(t, out, "React outreach")
}

func TestCampaignsCreate(t *testing.T) {
	_, server := newFakeServer(t)

	out, err := runCLI(t, "", "campaigns", "create", "--name", "Q4 push", "--step", "0:Hi there", "--step", "3:Following up", "--api-url", server.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Created campaign Q4 push (k3)")

	_, err = runCLI(t, "", "campaigns", "create", "--name", "Bad", "--step", "soon:Hi", "--api-url", server.URL)
	assert.ErrorContains(t, err, `delay "soon" is not a number`)
}

func TestCampaignsToggleDeleteAnalytics(t *testing.T) {
	_, server := newFakeServer(t)

	out, err := runCLI(t, "", "campaigns", "toggle", "k1", "--api-url", server.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Campaign k1 is now paused")

	out, err = runCLI(t, "", "campaigns", "delete", "k2", "--api-url", server.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted campaign k2")

	out, err = runCLI(t, "", "campaigns", "analytics", "k1", "--api-url", server.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Campaign:  k1")
	assert.Contains(t, out, "Opened:    50 (50.0%)")

	_, err = runCLI(t, "", "campaigns", "toggle", "missing", "--api-url", server.URL)
	assert.ErrorContains(t, err, `campaign "missing" not found`)
}

func TestCampaignsOverview(t *testing.T) {
	_, server := newFakeServer(t)

	out, err := runCLI(t, "", "campaigns", "overview", "--refresh", "--api-url", server.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Campaigns: 2 (1 active)")
	assert.Contains(t, out, "Sent:      200")
	assert.Contains(t, out, "Open rate: 50.0%   Reply rate: 10.0%")
}

func TestParseSteps(t *testing.T) {
	steps, err := parseSteps([]string{"0: Hello", "2:Follow up: any news?"})
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, "Hello", steps[0].Content)
	assert.Equal(t, 2, steps[1].DelayDays)
	assert.Equal(t, "Follow up: any news?", steps[1].Content)

	_, err = parseSteps([]string{"no delay"})
	assert.ErrorContains(t, err, "expected DELAY_DAYS:CONTENT")
}
