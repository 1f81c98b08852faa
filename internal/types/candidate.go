// Package types provides type definitions for structured data exchanged with the recruiting API.
package types

// Candidate is a candidate summary as returned by search and detail endpoints.
// Contact fields stay empty until the candidate is unlocked.
type Candidate struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Title        string        `json:"title"`
	Company      string        `json:"company"`
	Experience   int           `json:"experience"`
	Location     string        `json:"location"`
	Skills       []string      `json:"skills"`
	Availability string        `json:"availability"`
	ImageURL     string        `json:"imageUrl,omitempty"`
	MatchScore   *int          `json:"matchScore,omitempty"`
	Strengths    []string      `json:"strengths,omitempty"`
	AreasToProbe []string      `json:"areasToProbe,omitempty"`
	Verdict      string        `json:"verdict,omitempty"`
	About        string        `json:"about,omitempty"`
	Education    []Education   `json:"education,omitempty"`
	WorkHistory  []WorkHistory `json:"workHistory,omitempty"`

	// Contact block
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
}

// Education is a single education entry on a candidate profile.
type Education struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Year        string `json:"year"`
}

// WorkHistory is a single position on a candidate profile.
type WorkHistory struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate,omitempty"`
	Description string `json:"description,omitempty"`
}

// ContactInfo is the private contact block revealed by an unlock.
type ContactInfo struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	LinkedIn string `json:"linkedin"`
}

// UnlockResponse is the unlock endpoint payload. CreditsRemaining is only
// present when the API reports the post-charge balance.
type UnlockResponse struct {
	ContactInfo
	CreditsRemaining *int `json:"creditsRemaining,omitempty"`
}

// HasContact reports whether any contact field is populated.
func (c Candidate) HasContact() bool {
	return c.Email != "" || c.Phone != "" || c.LinkedIn != ""
}

// WithContact returns a copy of the candidate with the contact block merged in.
func (c Candidate) WithContact(info ContactInfo) Candidate {
	c.Email = info.Email
	c.Phone = info.Phone
	c.LinkedIn = info.LinkedIn
	return c
}

// Clone returns a deep copy of the candidate.
func (c Candidate) Clone() Candidate {
	out := c
	out.Skills = cloneStrings(c.Skills)
	out.Strengths = cloneStrings(c.Strengths)
	out.AreasToProbe = cloneStrings(c.AreasToProbe)
	if c.MatchScore != nil {
		score := *c.MatchScore
		out.MatchScore = &score
	}
	if c.Education != nil {
		out.Education = append([]Education(nil), c.Education...)
	}
	if c.WorkHistory != nil {
		out.WorkHistory = append([]WorkHistory(nil), c.WorkHistory...)
	}
	return out
}

// MatchBand classifies a match score for display.
type MatchBand string

const (
	// MatchStrong is a score of 85 or above
	MatchStrong MatchBand = "strong"
	// MatchGood is a score of 75 to 84
	MatchGood MatchBand = "good"
	// MatchFair is anything below 75
	MatchFair MatchBand = "fair"
)

// BandForScore returns the display band for a match score.
func BandForScore(score int) MatchBand {
	switch {
	case score >= 85:
		return MatchStrong
	case score >= 75:
		return MatchGood
	default:
		return MatchFair
	}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
