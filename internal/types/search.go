package types

import (
	"github.com/go-playground/validator/v10"
)

// SearchFilters are optional structured constraints combined with the query at request time.
type SearchFilters struct {
	Experience *int     `json:"experience,omitempty" validate:"omitempty,gte=0,lte=60"`
	Location   string   `json:"location,omitempty" validate:"max=200"`
	Skills     []string `json:"skills,omitempty" validate:"max=50,dive,required,max=100"`
}

// IsZero reports whether no filter is set.
func (f SearchFilters) IsZero() bool {
	return f.Experience == nil && f.Location == "" && len(f.Skills) == 0
}

// Clone returns a deep copy of the filters.
func (f SearchFilters) Clone() SearchFilters {
	out := f
	if f.Experience != nil {
		exp := *f.Experience
		out.Experience = &exp
	}
	out.Skills = cloneStrings(f.Skills)
	return out
}

// Validate validates the filters using the validator.
func (f *SearchFilters) Validate() error {
	validate := validator.New()
	return validate.Struct(f)
}

// SearchRequest is the body of POST /api/candidates/search.
type SearchRequest struct {
	Query   string         `json:"query" validate:"required,max=2000"`
	Filters *SearchFilters `json:"filters,omitempty"`
	Page    int            `json:"page" validate:"gte=1"`
	Limit   int            `json:"limit" validate:"gte=1,lte=100"`
}

// Validate validates the SearchRequest using the validator.
func (r *SearchRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Pagination is the pagination metadata of a result page.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// SearchResponse is the payload of POST /api/candidates/search.
// CreditsRemaining is nil when the API omits the balance.
type SearchResponse struct {
	Results          []Candidate `json:"results"`
	Pagination       Pagination  `json:"pagination"`
	CreditsRemaining *int        `json:"creditsRemaining,omitempty"`
}

// ShortlistRequest is the body of POST /api/candidates/{id}/shortlist.
type ShortlistRequest struct {
	Liked bool `json:"liked"`
}
