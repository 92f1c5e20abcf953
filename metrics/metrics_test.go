// Package metrics
package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestProvider(t *testing.T) {
	p := New()
	p.ObserveRefresh(nil, time.Second)
	p.ObserveRefresh(errors.New("count"), time.Second)
	p.ObserveRefresh(nil, time.Second)
	p.AddPartialFaults("aggregator", 3)
	p.AddPartialFaults("aggregator", 0)
	p.ObserveOutcome("vote_for", "Succeeded")
	p.SetProposals(4)

	assert.Equal(t, float64(2), testutil.ToFloat64(p.refreshes.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(p.refreshes.WithLabelValues("error")))
	assert.Equal(t, float64(3), testutil.ToFloat64(p.partialFaults.WithLabelValues("aggregator")))
	assert.Equal(t, float64(1), testutil.ToFloat64(p.outcomes.WithLabelValues("vote_for", "Succeeded")))
	assert.Equal(t, float64(4), testutil.ToFloat64(p.proposals))
}
