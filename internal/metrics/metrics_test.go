package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"FeeAllocator/internal/model"
)

func TestRegistry_ObserveCycleAndDistribution(t *testing.T) {
	r := New()
	r.ObserveCycle(model.CycleResult{Status: model.CycleDistributed, Claimed: 1000, Duration: time.Second})
	r.ObserveDistribution(model.DistributionResult{Actions: []model.ActionResult{
		{Bucket: model.BucketBurn, Status: model.StatusSucceeded, Spent: 250},
		{Bucket: model.BucketBuyback, Status: model.StatusDeferred},
	}})

	assert.Equal(t, 1.0, testutil.ToFloat64(r.Cycles.WithLabelValues("DISTRIBUTED")))
	assert.Equal(t, 1000.0, testutil.ToFloat64(r.Claimed))
	assert.Equal(t, 250.0, testutil.ToFloat64(r.Spent.WithLabelValues("burn")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Actions.WithLabelValues("buyback", "DEFERRED")))
}

func TestRegistry_Gauges(t *testing.T) {
	r := New()
	r.SetBuckets(map[model.Bucket]int64{model.BucketBuyback: 42}, nil)
	r.SetMomentum(model.MomentumReading{Value: 31.5, Ready: true})
	assert.Equal(t, 42.0, testutil.ToFloat64(r.Pending.WithLabelValues("buyback")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.Pending.WithLabelValues("burn")))
	assert.Equal(t, 31.5, testutil.ToFloat64(r.Momentum))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.MomentumReady))
}

func TestRegistry_NilIsSafe(t *testing.T) {
	var r *Registry
	r.ObserveCycle(model.CycleResult{})
	r.ObserveDistribution(model.DistributionResult{})
	r.SetBuckets(nil, nil)
	r.SetMomentum(model.MomentumReading{})

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 404, rec.Code)
}

func TestRegistry_Handler(t *testing.T) {
	r := New()
	r.SetMomentum(model.MomentumReading{Value: 12})
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "feealloc_momentum_value 12"))
}
