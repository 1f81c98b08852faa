package apiclient

import (
	"context"
	"net/http"

	"github.com/jonathan/recruit-search/internal/types"
	contracts "github.com/jonathan/recruit-search/schemas"
)

// Search runs a candidate search. It charges credits server-side and
// reports the remaining balance in the response.
func (c *Client) Search(ctx context.Context, req types.SearchRequest) (*types.SearchResponse, error) {
	if req.Filters != nil && req.Filters.IsZero() {
		req.Filters = nil
	}

	var resp types.SearchResponse
	err := c.do(ctx, call{
		op:     "search",
		method: http.MethodPost,
		path:   "/api/candidates/search",
		body:   req,
		schema: contracts.SearchResponse,
		out:    &resp,
	})
	if err != nil {
		return nil, err
	}
	if resp.Results == nil {
		resp.Results = []types.Candidate{}
	}
	return &resp, nil
}

// GetCandidate fetches the full profile of a single candidate.
func (c *Client) GetCandidate(ctx context.Context, id string) (*types.Candidate, error) {
	if err := requireID("candidate", id); err != nil {
		return nil, err
	}

	var cand types.Candidate
	err := c.do(ctx, call{
		op:     "candidate",
		method: http.MethodGet,
		path:   candidatePath(id, ""),
		schema: contracts.Candidate,
		out:    &cand,
	})
	if err != nil {
		return nil, err
	}
	return &cand, nil
}

// Shortlist records a like or dislike for a candidate.
func (c *Client) Shortlist(ctx context.Context, id string, liked bool) error {
	if err := requireID("shortlist", id); err != nil {
		return err
	}

	return c.do(ctx, call{
		op:     "shortlist",
		method: http.MethodPost,
		path:   candidatePath(id, "shortlist"),
		body:   types.ShortlistRequest{Liked: liked},
	})
}

// Unlock reveals a candidate's contact block. The API charges credits for
// this call; callers are responsible for not repeating it.
func (c *Client) Unlock(ctx context.Context, id string) (*types.UnlockResponse, error) {
	if err := requireID("unlock", id); err != nil {
		return nil, err
	}

	var resp types.UnlockResponse
	err := c.do(ctx, call{
		op:     "unlock",
		method: http.MethodGet,
		path:   candidatePath(id, "unlock"),
		schema: contracts.UnlockResponse,
		out:    &resp,
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Shortlisted lists the candidates the user has shortlisted.
func (c *Client) Shortlisted(ctx context.Context) ([]types.Candidate, error) {
	var list []types.Candidate
	err := c.do(ctx, call{
		op:     "shortlisted",
		method: http.MethodGet,
		path:   "/api/candidates/shortlisted/list",
		schema: contracts.CandidateList,
		out:    &list,
	})
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []types.Candidate{}
	}
	return list, nil
}
