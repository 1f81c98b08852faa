package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/jonathan/recruit-search/internal/types"
)

// fakeServer is an in-memory recruiting API.
type fakeServer struct {
	mu        sync.Mutex
	searches  []types.SearchRequest
	unlocks   []string
	campaigns []types.Campaign
	credits   int
}

func newFakeServer(t *testing.T) (*fakeServer, *httptest.Server) {
	t.Helper()
	f := &fakeServer{
		credits: 100,
		campaigns: []types.Campaign{
			{ID: "k1", Name: "React outreach", Type: "email", Status: types.CampaignStatusActive,
				Steps: []types.CampaignStep{{Content: "Hi"}}, Stats: &types.CampaignStats{Sent: 100, OpenRate: 50, ReplyRate: 10}},
			{ID: "k2", Name: "Go outreach", Type: "linkedin", Status: types.CampaignStatusPaused,
				Steps: []types.CampaignStep{{Content: "Hello"}}, Stats: &types.CampaignStats{Sent: 50, OpenRate: 30, ReplyRate: 8}},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/candidates/search", f.search)
	mux.HandleFunc("GET /api/candidates/shortlisted/list", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []types.Candidate{{ID: "p1-c1", Name: "Ada Lovelace", Title: "Frontend Engineer"}})
	})
	mux.HandleFunc("GET /api/candidates/{id}/unlock", f.unlock)
	mux.HandleFunc("POST /api/candidates/{id}/shortlist", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]bool{"success": true})
	})
	mux.HandleFunc("GET /api/candidates/{id}", func(w http.ResponseWriter, r *http.Request) {
		score := 87
		writeJSON(w, types.Candidate{ID: r.PathValue("id"), Name: "Ada Lovelace", Title: "Frontend Engineer",
			MatchScore: &score, Verdict: "Strong hire", Strengths: []string{"React"}})
	})
	mux.HandleFunc("GET /api/campaigns", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, f.campaigns)
	})
	mux.HandleFunc("POST /api/campaigns", func(w http.ResponseWriter, r *http.Request) {
		var req types.CreateCampaignRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		writeJSON(w, types.Campaign{ID: "k3", Name: req.Name, Type: req.Type, Status: types.CampaignStatusDraft, Steps: req.Steps})
	})
	mux.HandleFunc("PUT /api/campaigns/{id}", f.updateCampaign)
	mux.HandleFunc("DELETE /api/campaigns/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /api/campaigns/{id}/analytics", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, types.CampaignAnalytics{Stats: types.CampaignStats{Sent: 100, Opened: 50, Replied: 10, OpenRate: 50, ReplyRate: 10, DeliveryRate: 99}})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return f, server
}

func (f *fakeServer) search(w http.ResponseWriter, r *http.Request) {
	var req types.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.searches = append(f.searches, req)
	f.credits--
	credits := f.credits
	f.mu.Unlock()

	score := 91
	results := make([]types.Candidate, 3)
	for i := range results {
		results[i] = types.Candidate{ID: fmt.Sprintf("p%d-c%d", req.Page, i+1), Name: fmt.Sprintf("Candidate %d", i+1),
			Title: "Frontend Engineer", MatchScore: &score, Skills: []string{"React"}}
	}
	writeJSON(w, types.SearchResponse{
		Results:          results,
		Pagination:       types.Pagination{Page: req.Page, Limit: req.Limit, Total: 9, TotalPages: 3},
		CreditsRemaining: &credits,
	})
}

func (f *fakeServer) unlock(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.unlocks = append(f.unlocks, r.PathValue("id"))
	f.credits -= 5
	credits := f.credits
	f.mu.Unlock()

	id := r.PathValue("id")
	writeJSON(w, map[string]any{
		"email":            id + "@example.com",
		"phone":            "+1 555 0100",
		"linkedin":         "https://linkedin.com/in/" + id,
		"creditsRemaining": credits,
	})
}

func (f *fakeServer) updateCampaign(w http.ResponseWriter, r *http.Request) {
	var req types.UpdateCampaignRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.campaigns {
		if c.ID != r.PathValue("id") {
			continue
		}
		if req.Status != nil {
			f.campaigns[i].Status = *req.Status
		}
		writeJSON(w, f.campaigns[i])
		return
	}
	http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
}

func (f *fakeServer) lastSearch() types.SearchRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searches[len(f.searches)-1]
}

func (f *fakeServer) unlockCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.unlocks)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// runCLI executes the root command in-process with colors off.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, "--no-color"))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}
