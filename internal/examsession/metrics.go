package examsession

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	SlotsReserved   prometheus.Counter
	SlotsReleased   prometheus.Counter
	AdmissionDenied *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		SlotsReserved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "examreg_session_slots_reserved_total",
			Help: "Total number of successful slot reservations",
		}),
		SlotsReleased: promauto.NewCounter(prometheus.CounterOpts{
			Name: "examreg_session_slots_released_total",
			Help: "Total number of slot releases",
		}),
		AdmissionDenied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "examreg_session_admission_denied_total",
			Help: "Total number of admission rejections by reason",
		}, []string{"reason"}),
	}
}
