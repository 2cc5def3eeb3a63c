package monitoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/petcache/internal/observability"
)

func TestNewReporter_InvalidSchedule(t *testing.T) {
	t.Parallel()

	svc := NewService(stubManager{}, nil, observability.NopLogger())

	_, err := NewReporter(svc, "whenever", observability.NopLogger())
	assert.Error(t, err)
}

func TestReporter_Report(t *testing.T) {
	t.Parallel()

	local := newLocalManager(t, "vets", "owners")
	logger, logs := observedLogger()
	svc := NewService(local, []string{"vets", "owners"}, observability.NopLogger())
	ctx := context.Background()

	vets, _ := local.Cache("vets")
	require.NoError(t, vets.Put(ctx, "1", []byte("x")))
	_, _, _ = vets.Get(ctx, "1")
	_, _, _ = vets.Get(ctx, "2")

	r, err := NewReporter(svc, "@every 5m", logger)
	require.NoError(t, err)
	r.Report()

	lines := logs.FilterMessage("cache statistics").All()
	require.Len(t, lines, 2)

	assert.Equal(t, "owners", lines[0].ContextMap()["region"])
	fields := lines[1].ContextMap()
	assert.Equal(t, "vets", fields["region"])
	assert.Equal(t, int64(1), fields["hits"])
	assert.Equal(t, int64(1), fields["misses"])
	assert.Equal(t, float64(50), fields["hitRatePercent"])
	assert.Equal(t, int64(1), fields["size"])
}

func TestReporter_NothingToReport(t *testing.T) {
	t.Parallel()

	logger, logs := observedLogger()
	svc := NewService(stubManager{"plain": &stubCache{name: "plain"}}, nil, observability.NopLogger())

	r, err := NewReporter(svc, "@every 5m", logger)
	require.NoError(t, err)
	r.Report()

	assert.Zero(t, logs.Len())
}

func TestReporter_StartStop(t *testing.T) {
	t.Parallel()

	svc := NewService(stubManager{}, nil, observability.NopLogger())
	r, err := NewReporter(svc, "@every 1h", observability.NopLogger())
	require.NoError(t, err)

	r.Start()
	r.Stop()
}
