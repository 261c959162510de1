package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounter struct {
	n   int
	err error
}

func (f fakeCounter) Count(context.Context) (int, error) { return f.n, f.err }

func TestObserveResolution(t *testing.T) {
	before := testutil.ToFloat64(resolutions.WithLabelValues(OutcomeFound, "cache"))
	ObserveResolution(OutcomeFound, "cache", 15*time.Millisecond)
	after := testutil.ToFloat64(resolutions.WithLabelValues(OutcomeFound, "cache"))
	assert.Equal(t, before+1, after)
}

func TestIncSourceFetch(t *testing.T) {
	before := testutil.ToFloat64(sourceFetches.WithLabelValues("Open Library", "failed"))
	IncSourceFetch("Open Library", "failed")
	assert.Equal(t, before+1, testutil.ToFloat64(sourceFetches.WithLabelValues("Open Library", "failed")))
}

func TestStoreCollector(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(NewStoreCollector(fakeCounter{n: 7})))

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, "booksearch_books_stored", families[0].GetName())
	assert.Equal(t, 7.0, families[0].GetMetric()[0].GetGauge().GetValue())
}

func TestStoreCollector_ErrorEmitsNothing(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(NewStoreCollector(fakeCounter{err: errors.New("down")})))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Empty(t, families)
}
