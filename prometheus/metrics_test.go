package prometheus

import (
	"testing"

	"recruitment-service/pkg/config"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSetPublishedJobsTracksGauge(t *testing.T) {
	InitMetrics(&config.Config{Metrics: config.MetricsConfig{Prefix: "recruitment_test"}})

	SetPublishedJobs(3)
	if got := testutil.ToFloat64(PublishedJobsGauge); got != 3 {
		t.Fatalf("published jobs gauge = %v, want 3", got)
	}

	// The gauge follows the recount down as postings close.
	SetPublishedJobs(1)
	if got := testutil.ToFloat64(PublishedJobsGauge); got != 1 {
		t.Fatalf("published jobs gauge = %v, want 1", got)
	}
}
