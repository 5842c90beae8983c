package branchconfig

import "github.com/prometheus/client_golang/prometheus"

var cellsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "branch_config_cells_total",
		Help: "Submitted branch configuration cells by outcome.",
	},
	[]string{"outcome", "reason"},
)

func init() {
	prometheus.MustRegister(cellsTotal)
}

func countOutcome(o CellOutcome) {
	cellsTotal.WithLabelValues(o.Kind.String(), string(o.Reason)).Inc()
}
