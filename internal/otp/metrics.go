package otp

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ChallengesIssued   prometheus.Counter
	IssueRateLimited   prometheus.Counter
	VerifySuccesses    prometheus.Counter
	VerifyFailures     *prometheus.CounterVec
	DeliveryFailures   prometheus.Counter
	ChallengesReclaimed prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		ChallengesIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "examreg_otp_challenges_issued_total",
			Help: "Total number of verification codes issued",
		}),
		IssueRateLimited: promauto.NewCounter(prometheus.CounterOpts{
			Name: "examreg_otp_issue_rate_limited_total",
			Help: "Total number of code issuances refused by the rate limiter",
		}),
		VerifySuccesses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "examreg_otp_verify_successes_total",
			Help: "Total number of successful code verifications",
		}),
		VerifyFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "examreg_otp_verify_failures_total",
			Help: "Total number of failed code verifications by reason",
		}, []string{"reason"}),
		DeliveryFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "examreg_otp_delivery_failures_total",
			Help: "Total number of code delivery attempts that failed",
		}),
		ChallengesReclaimed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "examreg_otp_challenges_reclaimed_total",
			Help: "Total number of expired challenges removed by cleanup",
		}),
	}
}
