package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jonathan/recruit-search/internal/apiclient"
)

// Outcome label values.
const (
	outcomeSuccess             = "success"
	outcomeFailure             = "failure"
	outcomeInsufficientCredits = "insufficient_credits"
	outcomeRejected            = "rejected"
	outcomeSuperseded          = "superseded"
	outcomeCached              = "cached"
)

// Metrics holds the session counters.
type Metrics struct {
	Searches       *prometheus.CounterVec
	StaleResponses prometheus.Counter
	Unlocks        *prometheus.CounterVec
}

// NewMetrics creates the session counters and registers them on reg.
// A nil reg creates unregistered counters.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Searches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recruit_searches_total",
			Help: "Candidate searches by outcome.",
		}, []string{"outcome"}),
		StaleResponses: factory.NewCounter(prometheus.CounterOpts{
			Name: "recruit_stale_responses_total",
			Help: "Responses discarded because a newer request superseded them.",
		}),
		Unlocks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recruit_unlocks_total",
			Help: "Contact unlocks by outcome.",
		}, []string{"outcome"}),
	}
}

func outcomeFor(err error) string {
	if err == nil {
		return outcomeSuccess
	}
	if apiclient.IsInsufficientCredits(err) {
		return outcomeInsufficientCredits
	}
	return outcomeFailure
}
