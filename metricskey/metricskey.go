package metricskey

import "github.com/effective-security/metrics"

// Perf
var (
	// PerfGPGOperation is perf metric
	PerfGPGOperation = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_gpg",
		Help:         "perf_gpg provides the sample metrics of gpg invocations",
		RequiredTags: []string{"impl", "action"},
	}

	// PerfGPGEnvironment is perf metric
	PerfGPGEnvironment = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_gpg_env",
		Help:         "perf_gpg_env provides the sample metrics of gpg environment lifecycle",
		RequiredTags: []string{"action"},
	}
)

// Metrics returns slice of metrics from this repo
var Metrics = []*metrics.Describe{
	&PerfGPGOperation,
	&PerfGPGEnvironment,
}
