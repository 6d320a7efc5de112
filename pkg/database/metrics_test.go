package database

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/event"
)

func TestNewPoolMonitor_TracksConnections(t *testing.T) {
	m := NewPoolMonitor("pool-test")
	require.NotNil(t, m)

	m.Event(&event.PoolEvent{Type: event.ConnectionCreated})
	m.Event(&event.PoolEvent{Type: event.ConnectionCreated})
	m.Event(&event.PoolEvent{Type: event.ConnectionClosed})
	assert.Equal(t, 1.0, testutil.ToFloat64(poolConnections.WithLabelValues("pool-test")))

	m.Event(&event.PoolEvent{Type: event.GetSucceeded})
	m.Event(&event.PoolEvent{Type: event.GetSucceeded})
	m.Event(&event.PoolEvent{Type: event.ConnectionReturned})
	assert.Equal(t, 1.0, testutil.ToFloat64(poolCheckedOut.WithLabelValues("pool-test")))

	m.Event(&event.PoolEvent{Type: event.GetFailed})
	assert.Equal(t, 1.0, testutil.ToFloat64(poolCheckoutFailures.WithLabelValues("pool-test")))
}

func TestObserveQuery_LabelsOutcome(t *testing.T) {
	observeQuery("mongodb", "metrics-test", 10*time.Millisecond, nil)
	observeQuery("mongodb", "metrics-test", 10*time.Millisecond, errors.New("boom"))

	_, err := queryDuration.GetMetricWithLabelValues("mongodb", "metrics-test", "ok")
	require.NoError(t, err)
	_, err = queryDuration.GetMetricWithLabelValues("mongodb", "metrics-test", "error")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, testutil.CollectAndCount(queryDuration, "db_query_duration_seconds"), 2)
}
