package session

import "github.com/jonathan/recruit-search/internal/types"

// StageStatus is the display status of one processing stage.
type StageStatus string

const (
	StagePending   StageStatus = "pending"
	StageActive    StageStatus = "active"
	StageCompleted StageStatus = "completed"
)

// Stage is a labelled processing stage and its current status.
type Stage struct {
	Label  string
	Status StageStatus
}

// State is an immutable snapshot of the search session.
type State struct {
	SessionID string
	Version   uint64

	// Query and Filters are the user's current input.
	Query   string
	Filters types.SearchFilters

	// SubmittedQuery and SubmittedFilters produced the current results.
	SubmittedQuery   string
	SubmittedFilters types.SearchFilters

	Results    []types.Candidate
	Pagination types.Pagination
	HasResults bool

	Loading      bool
	CurrentStage int
	Stages       []Stage

	Credits int
	Notice  *Notice
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := s
	out.Filters = s.Filters.Clone()
	out.SubmittedFilters = s.SubmittedFilters.Clone()
	if s.Results != nil {
		out.Results = make([]types.Candidate, len(s.Results))
		for i, c := range s.Results {
			out.Results[i] = c.Clone()
		}
	}
	if s.Stages != nil {
		out.Stages = append([]Stage(nil), s.Stages...)
	}
	if s.Notice != nil {
		n := *s.Notice
		out.Notice = &n
	}
	return out
}

// ActiveStage returns the label of the active stage, or "" when none is active.
func (s State) ActiveStage() string {
	for _, st := range s.Stages {
		if st.Status == StageActive {
			return st.Label
		}
	}
	return ""
}

// StagesDone reports whether every stage is completed.
func (s State) StagesDone() bool {
	if len(s.Stages) == 0 {
		return false
	}
	for _, st := range s.Stages {
		if st.Status != StageCompleted {
			return false
		}
	}
	return true
}

// Result returns the candidate with the given id from the current page.
func (s State) Result(id string) (types.Candidate, bool) {
	for _, c := range s.Results {
		if c.ID == id {
			return c, true
		}
	}
	return types.Candidate{}, false
}

func stagesWith(labels []string, statuses []StageStatus) []Stage {
	out := make([]Stage, len(labels))
	for i, label := range labels {
		out[i] = Stage{Label: label, Status: statuses[i]}
	}
	return out
}

func uniformStatuses(n int, status StageStatus) []StageStatus {
	out := make([]StageStatus, n)
	for i := range out {
		out[i] = status
	}
	return out
}
