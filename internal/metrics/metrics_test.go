package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveOperation(t *testing.T) {
	before := testutil.ToFloat64(operationsTotal.WithLabelValues("register_agent", "duplicate_key"))
	ObserveOperation("register_agent", "duplicate_key", time.Now())
	after := testutil.ToFloat64(operationsTotal.WithLabelValues("register_agent", "duplicate_key"))
	assert.Equal(t, before+1, after)
	assert.GreaterOrEqual(t, testutil.CollectAndCount(operationDuration), 1)
}

func TestObserveEloChange(t *testing.T) {
	ObserveEloChange(16)
	assert.Equal(t, 1, testutil.CollectAndCount(eloChange, "arena_elo_change"))
}
