package metricskey

import "github.com/effective-security/metrics"

// Perf
var (
	// PerfDecode is perf metric
	PerfDecode = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_pgp_decode",
		Help:         "perf_pgp_decode provides the sample metrics of packet stream decoding",
		RequiredTags: []string{"source"},
	}

	// PerfVerify is perf metric
	PerfVerify = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_pgp_verify",
		Help:         "perf_pgp_verify provides the sample metrics of signature checks",
		RequiredTags: []string{"sig_type", "algo"},
	}
)

// Metrics returns slice of metrics from this repo
var Metrics = []*metrics.Describe{
	&PerfDecode,
	&PerfVerify,
}
