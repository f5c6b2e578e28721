package casework

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "casework_operations_total",
		Help: "Case operations by name and outcome",
	}, []string{"operation", "outcome"})

	casRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "casework_cas_retries_total",
		Help: "Conditional case writes re-evaluated after a concurrent change",
	}, []string{"operation"})
)

// observe counts the outcome of op and passes err through
func observe(op string, err error) error {
	outcome := "ok"
	if err != nil {
		outcome = KindOf(err).String()
	}
	operationsTotal.WithLabelValues(op, outcome).Inc()
	return err
}
