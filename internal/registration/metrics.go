package registration

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RegistrationsCreated prometheus.Counter
	RegistrationsDenied  *prometheus.CounterVec
	Transfers            prometheus.Counter
	TransfersCompensated prometheus.Counter
	Deletions            prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		RegistrationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "examreg_registrations_created_total",
			Help: "Total number of registrations created",
		}),
		RegistrationsDenied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "examreg_registrations_denied_total",
			Help: "Total number of registration attempts denied by reason",
		}, []string{"reason"}),
		Transfers: promauto.NewCounter(prometheus.CounterOpts{
			Name: "examreg_registration_transfers_total",
			Help: "Total number of registrations moved between sessions",
		}),
		TransfersCompensated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "examreg_registration_transfer_compensations_total",
			Help: "Total number of reserved slots released after a failed transfer",
		}),
		Deletions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "examreg_registrations_deleted_total",
			Help: "Total number of registrations deleted",
		}),
	}
}
