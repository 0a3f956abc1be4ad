package challenge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	challengesIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "anchorauth_challenges_issued",
		Help: "The total number of challenge transactions built",
	})

	verifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "anchorauth_challenge_verifications",
		Help: "Challenge verification outcomes by entry point",
	}, []string{"verb", "result"})
)

func observe(verb string, err error) {
	result := "ok"
	if err != nil {
		result = "invalid"
	}
	verifications.WithLabelValues(verb, result).Inc()
}
