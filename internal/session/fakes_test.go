package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonathan/recruit-search/internal/types"
)

// manualClock fires timers only when Advance is called.
type manualClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves the clock forward, firing due timers in order.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var next *manualTimer
		for _, t := range c.timers {
			if t.stopped || t.fired || t.at > target {
				continue
			}
			if next == nil || t.at < next.at {
				next = t
			}
		}
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		next.fired = true
		c.now = next.at
		c.mu.Unlock()

		next.f()
	}
}

// Active returns the number of timers that are neither stopped nor fired.
func (c *manualClock) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// fakeAPI is a scriptable API. Unset funcs return canned successes.
type fakeAPI struct {
	mu sync.Mutex

	searchFn      func(ctx context.Context, req types.SearchRequest) (*types.SearchResponse, error)
	unlockFn      func(ctx context.Context, id string) (*types.UnlockResponse, error)
	candidateFn   func(ctx context.Context, id string) (*types.Candidate, error)
	shortlistFn   func(ctx context.Context, id string, liked bool) error
	shortlistedFn func(ctx context.Context) ([]types.Candidate, error)

	searches    []types.SearchRequest
	unlocks     []string
	candidates  []string
	shortlists  []string
	shortlisted int
}

func (f *fakeAPI) Search(ctx context.Context, req types.SearchRequest) (*types.SearchResponse, error) {
	f.mu.Lock()
	f.searches = append(f.searches, req)
	fn := f.searchFn
	f.mu.Unlock()
	if fn == nil {
		return searchResponse(req.Page, req.Limit, 1, 95), nil
	}
	return fn(ctx, req)
}

func (f *fakeAPI) Unlock(ctx context.Context, id string) (*types.UnlockResponse, error) {
	f.mu.Lock()
	f.unlocks = append(f.unlocks, id)
	fn := f.unlockFn
	f.mu.Unlock()
	if fn == nil {
		return &types.UnlockResponse{ContactInfo: contactFor(id)}, nil
	}
	return fn(ctx, id)
}

func (f *fakeAPI) GetCandidate(ctx context.Context, id string) (*types.Candidate, error) {
	f.mu.Lock()
	f.candidates = append(f.candidates, id)
	fn := f.candidateFn
	f.mu.Unlock()
	if fn == nil {
		c := candidate(id)
		c.About = "Profile of " + id
		return &c, nil
	}
	return fn(ctx, id)
}

func (f *fakeAPI) Shortlist(ctx context.Context, id string, liked bool) error {
	f.mu.Lock()
	f.shortlists = append(f.shortlists, id)
	fn := f.shortlistFn
	f.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(ctx, id, liked)
}

func (f *fakeAPI) Shortlisted(ctx context.Context) ([]types.Candidate, error) {
	f.mu.Lock()
	f.shortlisted++
	fn := f.shortlistedFn
	f.mu.Unlock()
	if fn == nil {
		return []types.Candidate{candidate("p1-c1")}, nil
	}
	return fn(ctx)
}

func (f *fakeAPI) searchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.searches)
}

func (f *fakeAPI) shortlistedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shortlisted
}

func (f *fakeAPI) unlockCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.unlocks)
}

func candidate(id string) types.Candidate {
	score := 88
	return types.Candidate{
		ID:         id,
		Name:       "Candidate " + id,
		Title:      "Senior React Developer",
		Experience: 6,
		Skills:     []string{"React", "TypeScript"},
		MatchScore: &score,
	}
}

func contactFor(id string) types.ContactInfo {
	return types.ContactInfo{
		Email:    id + "@example.com",
		Phone:    "+1 555 0100",
		LinkedIn: "https://linkedin.com/in/" + id,
	}
}

// searchResponse builds a full page of results for page with ids "p<page>-c<i>".
func searchResponse(page, limit, totalPages, credits int) *types.SearchResponse {
	results := make([]types.Candidate, limit)
	for i := range results {
		results[i] = candidate(fmt.Sprintf("p%d-c%d", page, i+1))
	}
	return &types.SearchResponse{
		Results: results,
		Pagination: types.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      limit * totalPages,
			TotalPages: totalPages,
		},
		CreditsRemaining: &credits,
	}
}
