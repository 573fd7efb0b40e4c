package syncer

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProbeReachable(t *testing.T) {
	remote := newFakeRemote()
	prober := NewProber(remote, quietLogger())

	assert.True(t, prober.Probe(context.Background(), 3, time.Millisecond))
	assert.Equal(t, 1, remote.pingCalls)
}

func TestProbeRetriesTransientFailures(t *testing.T) {
	remote := newFakeRemote()
	remote.pingErrs = []error{transientErr(), statusErr(http.StatusServiceUnavailable)}
	prober := NewProber(remote, quietLogger())

	assert.True(t, prober.Probe(context.Background(), 3, time.Millisecond))
	assert.Equal(t, 3, remote.pingCalls)
}

func TestProbeGivesUp(t *testing.T) {
	remote := newFakeRemote()
	remote.pingErrs = []error{transientErr(), transientErr(), transientErr(), transientErr()}
	prober := NewProber(remote, quietLogger())

	start := time.Now()
	assert.False(t, prober.Probe(context.Background(), 3, 10*time.Millisecond))
	assert.Equal(t, 3, remote.pingCalls)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestProbeCountsRejectionAsReachable(t *testing.T) {
	remote := newFakeRemote()
	remote.pingErrs = []error{statusErr(http.StatusForbidden)}
	prober := NewProber(remote, quietLogger())

	assert.True(t, prober.Probe(context.Background(), 3, time.Millisecond))
	assert.Equal(t, 1, remote.pingCalls)
}

func TestProbeStopsOnCancel(t *testing.T) {
	remote := newFakeRemote()
	remote.pingErrs = []error{transientErr(), transientErr(), transientErr()}
	prober := NewProber(remote, quietLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.False(t, prober.Probe(ctx, 3, time.Hour))
	assert.Equal(t, 1, remote.pingCalls)
}
