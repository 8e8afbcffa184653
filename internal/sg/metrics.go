package sg

import "github.com/prometheus/client_golang/prometheus"

var (
	cachedDepthGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "arraydb",
		Subsystem: "sg",
		Name:      "cached_messages",
		Help:      "Number of messages currently cached per SG stream, awaiting consumption.",
	}, []string{"attr", "source_instance"})

	outstandingGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "arraydb",
		Subsystem: "sg",
		Name:      "outstanding_requests",
		Help:      "Number of data-bearing requests outstanding per SG stream.",
	}, []string{"attr", "source_instance"})
)

func init() {
	prometheus.MustRegister(cachedDepthGauge, outstandingGauge)
}
