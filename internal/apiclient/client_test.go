package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/recruit-search/internal/schemas"
	"github.com/jonathan/recruit-search/internal/types"
)

func newTestClient(t *testing.T, handler http.Handler, mutate func(*Options)) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts := DefaultOptions()
	opts.BaseURL = server.URL
	if mutate != nil {
		mutate(opts)
	}
	client, err := New(opts)
	require.NoError(t, err)
	return client
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew_InvalidBaseURL(t *testing.T) {
	_, err := New(&Options{BaseURL: "not-a-url"})
	require.Error(t, err)

	var apiErr *Error
	assert.ErrorAs(t, err, &apiErr)
	assert.Contains(t, err.Error(), "invalid base URL")
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	client, err := New(&Options{BaseURL: "http://localhost:4000/"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4000", client.BaseURL())
}

func TestSearch_Success(t *testing.T) {
	var got types.SearchRequest
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/candidates/search", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		writeJSON(w, http.StatusOK, map[string]any{
			"results":          []map[string]any{{"id": "c1", "name": "Ada", "matchScore": 91}},
			"pagination":       map[string]any{"page": 2, "limit": 12, "total": 30, "totalPages": 3},
			"creditsRemaining": 90,
		})
	}), nil)

	exp := 5
	resp, err := client.Search(context.Background(), types.SearchRequest{
		Query:   "Senior React developer",
		Filters: &types.SearchFilters{Experience: &exp, Skills: []string{"React"}},
		Page:    2,
		Limit:   12,
	})
	require.NoError(t, err)

	assert.Equal(t, "Senior React developer", got.Query)
	require.NotNil(t, got.Filters)
	assert.Equal(t, 5, *got.Filters.Experience)
	assert.Equal(t, 2, got.Page)

	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Ada", resp.Results[0].Name)
	assert.Equal(t, 3, resp.Pagination.TotalPages)
	require.NotNil(t, resp.CreditsRemaining)
	assert.Equal(t, 90, *resp.CreditsRemaining)
}

func TestSearch_WithoutCredits(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"results":    []map[string]any{{"id": "c1", "name": "Ada"}},
			"pagination": map[string]any{"page": 1, "limit": 12, "total": 1, "totalPages": 1},
		})
	}), nil)

	resp, err := client.Search(context.Background(), types.SearchRequest{Query: "x", Page: 1, Limit: 12})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Nil(t, resp.CreditsRemaining)
}

func TestSearch_OmitsEmptyFilters(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, hasFilters := raw["filters"]
		assert.False(t, hasFilters)

		writeJSON(w, http.StatusOK, map[string]any{
			"results":          nil,
			"pagination":       map[string]any{"page": 1, "limit": 12, "total": 0, "totalPages": 0},
			"creditsRemaining": 100,
		})
	}), nil)

	resp, err := client.Search(context.Background(), types.SearchRequest{
		Query: "Go", Filters: &types.SearchFilters{}, Page: 1, Limit: 12,
	})
	require.NoError(t, err)
	assert.NotNil(t, resp.Results)
	assert.Empty(t, resp.Results)
}

func TestSearch_InsufficientCredits(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   map[string]any
	}{
		{"payment required", http.StatusPaymentRequired, map[string]any{"error": "Not enough credits"}},
		{"error code", http.StatusForbidden, map[string]any{"code": CodeInsufficientCredits, "message": "Top up to continue", "creditsRemaining": 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, tt.status, tt.body)
			}), nil)

			_, err := client.Search(context.Background(), types.SearchRequest{Query: "x", Page: 1, Limit: 12})
			require.Error(t, err)
			assert.True(t, IsInsufficientCredits(err))

			var credErr *InsufficientCreditsError
			require.ErrorAs(t, err, &credErr)
			assert.Equal(t, "search", credErr.Op)
			assert.NotEmpty(t, credErr.Message)
		})
	}
}

func TestSearch_ServerError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "boom"})
	}), nil)

	_, err := client.Search(context.Background(), types.SearchRequest{Query: "x", Page: 1, Limit: 12})
	require.Error(t, err)
	assert.False(t, IsInsufficientCredits(err))

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "boom")
}

func TestSearch_MalformedBody(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"results": [`))
	}), nil)

	_, err := client.Search(context.Background(), types.SearchRequest{Query: "x", Page: 1, Limit: 12})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid response body")
}

func TestSearch_Timeout(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}), nil)
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Search(ctx, types.SearchRequest{Query: "x", Page: 1, Limit: 12})
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.Timeout())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStrictContracts_RejectsViolations(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"results":    []map[string]any{{"id": "c1", "matchScore": 140}},
			"pagination": map[string]any{"page": 1, "limit": 12, "total": 1, "totalPages": 1},
		})
	}), func(o *Options) { o.Validator = schemas.Default() })

	_, err := client.Search(context.Background(), types.SearchRequest{Query: "x", Page: 1, Limit: 12})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "response violates contract")

	var validationErr *schemas.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestUnlock(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/candidates/c%2F1/unlock", r.URL.EscapedPath())
		writeJSON(w, http.StatusOK, map[string]any{
			"email":            "ada@example.com",
			"phone":            "+1 555 0100",
			"linkedin":         "https://linkedin.com/in/ada",
			"creditsRemaining": 85,
		})
	}), func(o *Options) { o.Validator = schemas.Default() })

	resp, err := client.Unlock(context.Background(), "c/1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", resp.Email)
	require.NotNil(t, resp.CreditsRemaining)
	assert.Equal(t, 85, *resp.CreditsRemaining)
}

func TestUnlock_WithoutCredits(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"email": "ada@example.com"})
	}), nil)

	resp, err := client.Unlock(context.Background(), "c1")
	require.NoError(t, err)
	assert.Nil(t, resp.CreditsRemaining)
}

func TestRequireID(t *testing.T) {
	client, err := New(nil)
	require.NoError(t, err)

	_, err = client.Unlock(context.Background(), " ")
	assert.Error(t, err)
	_, err = client.GetCandidate(context.Background(), "")
	assert.Error(t, err)
	assert.Error(t, client.Shortlist(context.Background(), "", true))
	assert.Error(t, client.DeleteCampaign(context.Background(), ""))
}

func TestShortlistAndList(t *testing.T) {
	var liked atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("/api/candidates/c1/shortlist", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body types.ShortlistRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		liked.Store(body.Liked)
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})
	mux.HandleFunc("/api/candidates/shortlisted/list", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{{"id": "c1", "name": "Ada"}})
	})
	client := newTestClient(t, mux, nil)

	require.NoError(t, client.Shortlist(context.Background(), "c1", true))
	assert.True(t, liked.Load())

	list, err := client.Shortlisted(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "c1", list[0].ID)
}

func TestGetCandidate(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/candidates/c7", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{
			"id": "c7", "name": "Grace", "verdict": "Strong hire",
			"workHistory": []map[string]any{{"title": "Engineer", "company": "Navy", "startDate": "1944"}},
		})
	}), nil)

	cand, err := client.GetCandidate(context.Background(), "c7")
	require.NoError(t, err)
	assert.Equal(t, "Grace", cand.Name)
	assert.Equal(t, "Strong hire", cand.Verdict)
	require.Len(t, cand.WorkHistory, 1)
}

func TestCampaignEndpoints(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/campaigns", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, []map[string]any{{"id": "k1", "name": "Outreach", "type": "email", "status": "active"}})
		case http.MethodPost:
			var req types.CreateCampaignRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			writeJSON(w, http.StatusCreated, map[string]any{"id": "k2", "name": req.Name, "type": req.Type, "status": "draft"})
		}
	})
	mux.HandleFunc("/api/campaigns/k1", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			var req types.UpdateCampaignRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			writeJSON(w, http.StatusOK, map[string]any{"id": "k1", "name": "Outreach", "type": "email", "status": *req.Status})
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	})
	mux.HandleFunc("/api/campaigns/k1/analytics", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"stats": map[string]any{"sent": 10, "opened": 5, "openRate": 50.0}})
	})
	client := newTestClient(t, mux, func(o *Options) { o.Validator = schemas.Default() })
	ctx := context.Background()

	list, err := client.ListCampaigns(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	created, err := client.CreateCampaign(ctx, types.CreateCampaignRequest{
		Name: "New", Type: "linkedin", Steps: []types.CampaignStep{{Content: "Hi", DelayDays: 0}},
	})
	require.NoError(t, err)
	assert.Equal(t, "k2", created.ID)

	paused := types.CampaignStatusPaused
	updated, err := client.UpdateCampaign(ctx, "k1", types.UpdateCampaignRequest{Status: &paused})
	require.NoError(t, err)
	assert.Equal(t, types.CampaignStatusPaused, updated.Status)

	analytics, err := client.CampaignAnalytics(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "k1", analytics.CampaignID)
	assert.Equal(t, 10, analytics.Stats.Sent)

	require.NoError(t, client.DeleteCampaign(ctx, "k1"))
}

func TestBearerToken(t *testing.T) {
	token := signedToken(t, time.Now().Add(time.Hour))
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer "+token, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, []map[string]any{})
	}), func(o *Options) { o.Token = token })

	_, err := client.Shortlisted(context.Background())
	require.NoError(t, err)
}

func TestExpiredTokenIsNotSent(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusOK, []map[string]any{})
	}), func(o *Options) { o.Token = signedToken(t, time.Now().Add(-time.Minute)) })

	_, err := client.Shortlisted(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.Equal(t, int32(0), calls.Load())
}

func TestRateLimit_WaitHonoursContext(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{})
	}), func(o *Options) {
		o.RateLimit = 0.001
		o.Burst = 1
	})

	_, err := client.Shortlisted(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.Shortlisted(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "recruiter-1",
		"exp": exp.Unix(),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}
