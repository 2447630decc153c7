package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "bottleneck_analyzer"

func helpOrName(name, help string) string {
	if help == "" {
		return name
	}
	return help
}

func counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      helpOrName(name, help),
	}
}

func gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      helpOrName(name, help),
	}
}
