// Package session holds the search session core: the state store that owns
// the active search and the stage sequencer that animates it.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/jonathan/recruit-search/internal/config"
	"github.com/jonathan/recruit-search/internal/types"
)

// API is the part of the recruiting API the session drives.
type API interface {
	Search(ctx context.Context, req types.SearchRequest) (*types.SearchResponse, error)
	GetCandidate(ctx context.Context, id string) (*types.Candidate, error)
	Shortlist(ctx context.Context, id string, liked bool) error
	Unlock(ctx context.Context, id string) (*types.UnlockResponse, error)
	Shortlisted(ctx context.Context) ([]types.Candidate, error)
}

const (
	opSearch      = "search"
	opUnlock      = "unlock"
	opShortlist   = "shortlist"
	opShortlisted = "shortlisted"
	opCandidate   = "candidate"
)

const (
	shortlistedKey  = "shortlisted"
	candidatePrefix = "candidate:"
)

// Options configures a Store.
type Options struct {
	PageSize       int
	InitialCredits int
	RequestTimeout time.Duration
	Stages         []string
	StageDwell     time.Duration
	ShortlistTTL   time.Duration
	Clock          Clock
	Logger         *zap.Logger
	Metrics        *Metrics
}

// DefaultOptions returns the options the web client used.
func DefaultOptions() Options {
	return Options{
		PageSize:       config.DefaultPageSize,
		InitialCredits: config.DefaultInitialCredits,
		RequestTimeout: config.DefaultRequestTimeout,
		Stages:         config.DefaultStages,
		StageDwell:     config.DefaultStageDwell,
		ShortlistTTL:   config.DefaultShortlistTTL,
	}
}

// Store is the single source of truth for the active search. Every
// mutation happens under one lock and is followed by one publish to
// subscribers; network calls run outside the lock.
//
// Responses are ordered by a per-search token: a response whose token is
// no longer current is discarded and the caller gets ErrSuperseded.
// Credit values carry their own issue sequence so an older response can
// never overwrite a newer balance.
type Store struct {
	api      API
	log      *zap.Logger
	metrics  *Metrics
	pageSize int
	timeout  time.Duration
	labels   []string
	seq      *Sequencer

	mu            sync.Mutex
	state         State
	token         uint64
	creditSeq     uint64
	creditApplied uint64
	stageVersion  uint64
	shortlistGen  uint64
	contacts      map[string]types.ContactInfo

	unlocks singleflight.Group
	views   *cache.Cache

	notifyMu  sync.Mutex
	delivered uint64
	subsMu    sync.Mutex
	subs      map[uint64]func(State)
	nextSub   uint64
}

// NewStore creates a store in the initial state: empty query and results,
// credits at opts.InitialCredits and every stage pending.
func NewStore(api API, opts Options) *Store {
	defaults := DefaultOptions()
	if opts.PageSize <= 0 {
		opts.PageSize = defaults.PageSize
	}
	if opts.InitialCredits < 0 {
		opts.InitialCredits = 0
	}
	if len(opts.Stages) == 0 {
		opts.Stages = defaults.Stages
	}
	if opts.ShortlistTTL <= 0 {
		opts.ShortlistTTL = defaults.ShortlistTTL
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics(nil)
	}

	s := &Store{
		api:      api,
		log:      opts.Logger.Named("session"),
		metrics:  opts.Metrics,
		pageSize: opts.PageSize,
		timeout:  opts.RequestTimeout,
		labels:   append([]string(nil), opts.Stages...),
		contacts: make(map[string]types.ContactInfo),
		views:    cache.New(opts.ShortlistTTL, 2*opts.ShortlistTTL),
		subs:     make(map[uint64]func(State)),
	}
	s.seq = NewSequencer(s.labels, opts.StageDwell, opts.Clock, s.onProgress)
	s.state = State{
		SessionID: uuid.NewString(),
		Results:   []types.Candidate{},
		Credits:   opts.InitialCredits,
		Stages:    stagesWith(s.labels, uniformStatuses(len(s.labels), StagePending)),
	}
	return s
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Credits returns the current credit balance.
func (s *Store) Credits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Credits
}

// Subscribe registers fn to receive a snapshot after every state
// transition. Snapshots are delivered in version order; a snapshot older
// than one already delivered is skipped. fn runs synchronously and must
// not call mutating Store methods. The returned func unsubscribes.
func (s *Store) Subscribe(fn func(State)) func() {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
		})
	}
}

// SetQuery records the query input without fetching. An empty query clears it.
func (s *Store) SetQuery(query string) {
	s.mu.Lock()
	s.state.Query = query
	s.commitAndUnlock()
}

// SetFilters records the filter input without fetching.
func (s *Store) SetFilters(filters types.SearchFilters) error {
	if err := filters.Validate(); err != nil {
		return validationFrom(err)
	}

	s.mu.Lock()
	s.state.Filters = filters.Clone()
	s.commitAndUnlock()
	return nil
}

// SubmitSearch issues a search for query and filters at page. It marks the
// session loading, restarts the stage sequence and supersedes any search
// still in flight. On success results, pagination and credits are replaced
// together; on failure the previous results stay and an error notice is set.
func (s *Store) SubmitSearch(ctx context.Context, query string, filters types.SearchFilters, page int) error {
	req, err := s.buildRequest(query, filters, page)
	if err != nil {
		s.metrics.Searches.WithLabelValues(outcomeRejected).Inc()
		return err
	}
	return s.search(ctx, req)
}

// ChangePage fetches another page of the last submitted search. Pages
// outside 1..totalPages of the last successful response are rejected
// without a request.
func (s *Store) ChangePage(ctx context.Context, page int) error {
	s.mu.Lock()
	if !s.state.HasResults {
		s.mu.Unlock()
		s.metrics.Searches.WithLabelValues(outcomeRejected).Inc()
		return &ValidationError{Field: "page", Message: "no search results to paginate"}
	}
	total := s.state.Pagination.TotalPages
	if page < 1 || page > total {
		s.mu.Unlock()
		s.metrics.Searches.WithLabelValues(outcomeRejected).Inc()
		return &ValidationError{Field: "page", Message: fmt.Sprintf("must be between 1 and %d, got %d", total, page)}
	}
	query := s.state.SubmittedQuery
	filters := s.state.SubmittedFilters.Clone()
	s.mu.Unlock()

	req, err := s.buildRequest(query, filters, page)
	if err != nil {
		return err
	}
	return s.search(ctx, req)
}

// NextPage moves to the page after the current one.
func (s *Store) NextPage(ctx context.Context) error {
	return s.ChangePage(ctx, s.currentPage()+1)
}

// PrevPage moves to the page before the current one.
func (s *Store) PrevPage(ctx context.Context) error {
	return s.ChangePage(ctx, s.currentPage()-1)
}

func (s *Store) currentPage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Pagination.Page
}

// Reset clears the query, filters, results, loading flag, stages and
// notice. Credits and unlocked contacts are kept. Requests still in flight
// are invalidated.
func (s *Store) Reset() {
	s.mu.Lock()
	previous := s.token
	s.token++
	if p, ok := s.seq.Abort(previous); ok {
		s.stageVersion = p.Version
	}
	s.state.Query = ""
	s.state.Filters = types.SearchFilters{}
	s.state.SubmittedQuery = ""
	s.state.SubmittedFilters = types.SearchFilters{}
	s.state.Results = []types.Candidate{}
	s.state.Pagination = types.Pagination{}
	s.state.HasResults = false
	s.state.Loading = false
	s.state.CurrentStage = 0
	s.state.Stages = stagesWith(s.labels, uniformStatuses(len(s.labels), StagePending))
	s.state.Notice = nil
	s.commitAndUnlock()

	s.log.Debug("session reset", zap.Uint64("invalidated_token", previous))
}

// DismissError clears the error notice.
func (s *Store) DismissError() {
	s.mu.Lock()
	if s.state.Notice == nil {
		s.mu.Unlock()
		return
	}
	s.state.Notice = nil
	s.commitAndUnlock()
}

// UnlockContact reveals the contact block of a candidate in the current
// results. Each candidate is charged at most once per session: a cached
// contact is returned without a request and concurrent unlocks of the
// same id share one call.
func (s *Store) UnlockContact(ctx context.Context, id string) (types.ContactInfo, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return types.ContactInfo{}, &ValidationError{Field: "candidate", Message: "id is required"}
	}

	s.mu.Lock()
	if info, ok := s.contacts[id]; ok {
		s.mu.Unlock()
		s.metrics.Unlocks.WithLabelValues(outcomeCached).Inc()
		return info, nil
	}
	if _, ok := s.state.Result(id); !ok {
		s.mu.Unlock()
		s.metrics.Unlocks.WithLabelValues(outcomeRejected).Inc()
		return types.ContactInfo{}, &ValidationError{Field: "candidate", Message: fmt.Sprintf("%q is not in the current results", id)}
	}
	s.mu.Unlock()

	ch := s.unlocks.DoChan(id, func() (any, error) {
		return s.unlock(context.WithoutCancel(ctx), id)
	})
	select {
	case <-ctx.Done():
		return types.ContactInfo{}, fmt.Errorf("unlock %s: %w", id, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return types.ContactInfo{}, res.Err
		}
		return res.Val.(types.ContactInfo), nil
	}
}

func (s *Store) unlock(ctx context.Context, id string) (types.ContactInfo, error) {
	s.mu.Lock()
	if info, ok := s.contacts[id]; ok {
		s.mu.Unlock()
		return info, nil
	}
	s.creditSeq++
	creditSeq := s.creditSeq
	s.mu.Unlock()

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	resp, err := s.api.Unlock(callCtx, id)

	s.metrics.Unlocks.WithLabelValues(outcomeFor(err)).Inc()
	if err != nil {
		s.fail(opUnlock, err)
		return types.ContactInfo{}, fmt.Errorf("unlock %s: %w", id, err)
	}

	s.mu.Lock()
	s.contacts[id] = resp.ContactInfo
	for i := range s.state.Results {
		if s.state.Results[i].ID == id {
			s.state.Results[i] = s.state.Results[i].WithContact(resp.ContactInfo)
		}
	}
	if resp.CreditsRemaining != nil {
		s.applyCreditsLocked(creditSeq, *resp.CreditsRemaining)
	}
	s.commitAndUnlock()

	s.log.Info("contact unlocked", zap.String("candidate", id))
	return resp.ContactInfo, nil
}

// Shortlist records a like or dislike. Results are not modified; the
// cached shortlist view is invalidated.
func (s *Store) Shortlist(ctx context.Context, id string, liked bool) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return &ValidationError{Field: "candidate", Message: "id is required"}
	}

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.api.Shortlist(callCtx, id, liked); err != nil {
		s.fail(opShortlist, err)
		return fmt.Errorf("shortlist %s: %w", id, err)
	}

	s.mu.Lock()
	s.shortlistGen++
	s.views.Delete(shortlistedKey)
	s.mu.Unlock()
	s.log.Debug("shortlist updated", zap.String("candidate", id), zap.Bool("liked", liked))
	return nil
}

// Shortlisted returns the shortlist view, cached until the next Shortlist
// call or until it expires.
func (s *Store) Shortlisted(ctx context.Context) ([]types.Candidate, error) {
	if cached, ok := s.views.Get(shortlistedKey); ok {
		return s.withContacts(cached.([]types.Candidate)), nil
	}

	s.mu.Lock()
	gen := s.shortlistGen
	s.mu.Unlock()

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	list, err := s.api.Shortlisted(callCtx)
	if err != nil {
		s.fail(opShortlisted, err)
		return nil, fmt.Errorf("shortlisted: %w", err)
	}

	s.mu.Lock()
	if gen == s.shortlistGen {
		s.views.SetDefault(shortlistedKey, cloneCandidates(list))
	}
	s.mu.Unlock()
	return s.withContacts(list), nil
}

// Candidate returns the full profile of a candidate, with the contact
// block overlaid when it was unlocked in this session.
func (s *Store) Candidate(ctx context.Context, id string) (types.Candidate, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return types.Candidate{}, &ValidationError{Field: "candidate", Message: "id is required"}
	}

	key := candidatePrefix + id
	if cached, ok := s.views.Get(key); ok {
		return s.withContacts([]types.Candidate{cached.(types.Candidate)})[0], nil
	}

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	cand, err := s.api.GetCandidate(callCtx, id)
	if err != nil {
		s.fail(opCandidate, err)
		return types.Candidate{}, fmt.Errorf("candidate %s: %w", id, err)
	}

	s.views.Set(key, cand.Clone(), cache.NoExpiration)
	return s.withContacts([]types.Candidate{*cand})[0], nil
}

func (s *Store) search(ctx context.Context, req types.SearchRequest) error {
	s.mu.Lock()
	s.token++
	token := s.token
	s.creditSeq++
	creditSeq := s.creditSeq

	p := s.seq.Start(token)
	s.stageVersion = p.Version
	s.state.Query = req.Query
	s.state.Filters = filtersOf(req)
	s.state.Loading = true
	s.state.Notice = nil
	s.state.CurrentStage = p.Current
	s.state.Stages = stagesWith(s.labels, p.Statuses)
	s.commitAndUnlock()

	log := s.log.With(zap.Uint64("token", token), zap.String("query", req.Query), zap.Int("page", req.Page))
	log.Debug("search issued")

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	resp, err := s.api.Search(callCtx, req)

	s.mu.Lock()
	if current := s.token; token != current {
		s.mu.Unlock()
		s.metrics.StaleResponses.Inc()
		s.metrics.Searches.WithLabelValues(outcomeSuperseded).Inc()
		log.Debug("discarding superseded search response", zap.Uint64("current_token", current), zap.Error(err))
		return ErrSuperseded
	}

	if err != nil {
		if p, ok := s.seq.Abort(token); ok {
			s.stageVersion = p.Version
		}
		s.state.Loading = false
		s.state.Notice = noticeFor(opSearch, err)
		s.state.CurrentStage = 0
		s.state.Stages = stagesWith(s.labels, uniformStatuses(len(s.labels), StagePending))
		s.commitAndUnlock()

		s.metrics.Searches.WithLabelValues(outcomeFor(err)).Inc()
		log.Warn("search failed", zap.Error(err))
		return fmt.Errorf("search: %w", err)
	}

	if p, ok := s.seq.Complete(token); ok {
		s.stageVersion = p.Version
	}
	s.state.Results = s.overlayContactsLocked(resp.Results)
	s.state.Pagination = resp.Pagination
	s.state.HasResults = true
	s.state.SubmittedQuery = req.Query
	s.state.SubmittedFilters = filtersOf(req)
	if resp.CreditsRemaining != nil {
		s.applyCreditsLocked(creditSeq, *resp.CreditsRemaining)
	}
	s.state.Loading = false
	s.state.CurrentStage = len(s.labels)
	s.state.Stages = stagesWith(s.labels, uniformStatuses(len(s.labels), StageCompleted))
	s.commitAndUnlock()

	s.metrics.Searches.WithLabelValues(outcomeSuccess).Inc()
	log.Info("search applied",
		zap.Int("results", len(resp.Results)),
		zap.Int("total_pages", resp.Pagination.TotalPages),
		zap.Intp("credits_remaining", resp.CreditsRemaining),
	)
	return nil
}

// onProgress applies a cadence advance from the sequencer if it belongs to
// the search in flight and is newer than the last applied report.
func (s *Store) onProgress(p Progress) {
	s.mu.Lock()
	if p.Run != s.token || !s.state.Loading || p.Version <= s.stageVersion {
		s.mu.Unlock()
		return
	}
	s.stageVersion = p.Version
	s.state.CurrentStage = p.Current
	s.state.Stages = stagesWith(s.labels, p.Statuses)
	s.commitAndUnlock()
}

// fail records a notice for a failed non-search operation.
func (s *Store) fail(op string, err error) {
	s.log.Warn("operation failed", zap.String("op", op), zap.Error(err))
	s.mu.Lock()
	s.state.Notice = noticeFor(op, err)
	s.commitAndUnlock()
}

// applyCreditsLocked mirrors a balance reported by the API unless a
// request issued later has already reported one.
func (s *Store) applyCreditsLocked(seq uint64, credits int) {
	if credits < 0 {
		s.log.Warn("ignoring negative credit balance", zap.Int("credits", credits))
		return
	}
	if seq <= s.creditApplied {
		s.log.Debug("ignoring older credit balance", zap.Uint64("seq", seq), zap.Uint64("applied", s.creditApplied))
		return
	}
	s.creditApplied = seq
	s.state.Credits = credits
}

func (s *Store) overlayContactsLocked(results []types.Candidate) []types.Candidate {
	out := make([]types.Candidate, len(results))
	for i, c := range results {
		c = c.Clone()
		if info, ok := s.contacts[c.ID]; ok && !c.HasContact() {
			c = c.WithContact(info)
		}
		out[i] = c
	}
	return out
}

func (s *Store) withContacts(list []types.Candidate) []types.Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overlayContactsLocked(list)
}

// commitAndUnlock bumps the state version, releases s.mu and publishes the
// new snapshot. It must be called with s.mu held.
func (s *Store) commitAndUnlock() {
	s.state.Version++
	snap := s.state.Clone()
	s.mu.Unlock()
	s.publish(snap)
}

func (s *Store) publish(snap State) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	if snap.Version <= s.delivered {
		return
	}
	s.delivered = snap.Version

	s.subsMu.Lock()
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range subs {
		fn(snap.Clone())
	}
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}

func (s *Store) buildRequest(query string, filters types.SearchFilters, page int) (types.SearchRequest, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return types.SearchRequest{}, &ValidationError{Field: "query", Message: "must not be empty"}
	}
	if page < 1 {
		return types.SearchRequest{}, &ValidationError{Field: "page", Message: fmt.Sprintf("must be at least 1, got %d", page)}
	}

	req := types.SearchRequest{Query: q, Page: page, Limit: s.pageSize}
	if !filters.IsZero() {
		f := filters.Clone()
		req.Filters = &f
	}
	if err := req.Validate(); err != nil {
		return types.SearchRequest{}, validationFrom(err)
	}
	return req, nil
}

func filtersOf(req types.SearchRequest) types.SearchFilters {
	if req.Filters == nil {
		return types.SearchFilters{}
	}
	return req.Filters.Clone()
}

func cloneCandidates(list []types.Candidate) []types.Candidate {
	out := make([]types.Candidate, len(list))
	for i, c := range list {
		out[i] = c.Clone()
	}
	return out
}

// validationFrom converts validator errors into a ValidationError naming
// the first offending field.
func validationFrom(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ValidationError{
			Field:   lowerFirst(fe.Field()),
			Message: fmt.Sprintf("failed %q constraint", fe.Tag()),
		}
	}
	return &ValidationError{Message: err.Error()}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
