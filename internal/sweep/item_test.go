package sweep

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/perfkit/schedtune-validator/internal/cgroup"
	"github.com/perfkit/schedtune-validator/internal/platform"
	"github.com/perfkit/schedtune-validator/internal/trace"
	"github.com/perfkit/schedtune-validator/internal/workload"
)

type runnerMock struct {
	mock.Mock
}

func (r *runnerMock) Run(ctx context.Context, profile workload.PeriodicProfile, group cgroup.Config, outDir string) error {
	args := r.Called(ctx, profile, group, outDir)
	return args.Error(0)
}

type fakeSource struct {
	table trace.Table
}

func (s *fakeSource) Events(name string) (trace.Table, error) {
	return s.table.Filter(func(e trace.Event) bool { return e.Name == name }), nil
}

func durationOf(secs float64) time.Duration {
	return time.Duration(secs * float64(time.Second))
}

func testPlatform() *platform.Info {
	return &platform.Info{
		CapacityClasses: [][]uint{{0, 1}, {2, 3}},
		Freqs: map[uint][]platform.KHz{
			2: {100000, 200000, 300000, 400000},
			3: {100000, 200000, 300000, 400000},
		},
		KernelVersion: "4.19.110",
	}
}

// capturedTrace builds a trace where the workload ran from 2.5 s to 11.8 s
// and CPU 2 held avgFreq (kHz, as a decimal string) across the whole window.
func capturedTrace(avgFreq string) trace.Table {
	return trace.Table{
		{Timestamp: durationOf(2.0), Name: "cpu_frequency",
			Fields: map[string]string{"state": avgFreq, "cpu_id": "2"}},
		{Timestamp: durationOf(2.5), Name: "sched_switch",
			Fields: map[string]string{"next_comm": "rta_stune-0"}},
		{Timestamp: durationOf(11.8), Name: "sched_switch",
			Fields: map[string]string{"next_comm": "rta_stune-0"}},
		{Timestamp: durationOf(12.5), Name: "cpu_frequency",
			Fields: map[string]string{"state": avgFreq, "cpu_id": "2"}},
	}
}

func testDeps(t *testing.T, runner workload.Runner, table trace.Table) ItemDeps {
	return ItemDeps{
		Platform: testPlatform(),
		Runner:   runner,
		OpenTrace: func(itemDir string) (trace.Source, error) {
			return &fakeSource{table: table}, nil
		},
		ArtifactRoot: t.TempDir(),
		Logger:       logr.Discard(),
	}
}

func TestItemLifecycle(t *testing.T) {
	runner := &runnerMock{}
	runner.On("Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	item := NewItem(40, false, testDeps(t, runner, capturedTrace("210000")))
	assert.Equal(t, StateCreated, item.State())
	assert.Equal(t, "boost40", item.Label())

	require.NoError(t, item.Configure())
	assert.Equal(t, StateConfigured, item.State())
	assert.Equal(t, "schedtune", item.Group().Controller)
	assert.Equal(t, 40, item.Group().Attributes.Boost)

	require.NoError(t, item.Execute(context.TODO()))
	assert.Equal(t, StateExecuted, item.State())

	// artifact dir was created fresh and the runner ran inside it
	info, err := os.Stat(item.Dir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Contains(t, item.Dir(), "boost_40_prefer_idle_0")

	runner.AssertCalled(t, "Run", mock.Anything, workload.TinyRTProfile(2), item.Group(), item.Dir())

	result, err := item.Evaluate(10)
	require.NoError(t, err)
	assert.Equal(t, StateEvaluated, item.State())

	assert.Equal(t, 40, result.Boost)
	assert.False(t, result.PreferIdle)
	assert.Equal(t, platform.KHz(200000), result.TargetFreqKHz)
	assert.InDelta(t, 210000.0, result.AvgFreqKHz, 1e-3)
	assert.InDelta(t, 5.0, result.DistancePct, 1e-9)
	assert.True(t, result.Passed)
}

func TestItemEvaluateIsIdempotent(t *testing.T) {
	runner := &runnerMock{}
	runner.On("Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	item := NewItem(40, false, testDeps(t, runner, capturedTrace("250000")))
	require.NoError(t, item.Configure())
	require.NoError(t, item.Execute(context.TODO()))

	first, err := item.Evaluate(10)
	require.NoError(t, err)
	assert.InDelta(t, 25.0, first.DistancePct, 1e-9)
	assert.False(t, first.Passed)

	// re-evaluation reads the same captured data, with a different margin
	second, err := item.Evaluate(30)
	require.NoError(t, err)
	assert.InDelta(t, 25.0, second.DistancePct, 1e-9)
	assert.True(t, second.Passed)
}

func TestItemStateTransitionsEnforced(t *testing.T) {
	runner := &runnerMock{}
	item := NewItem(40, false, testDeps(t, runner, capturedTrace("210000")))

	err := item.Execute(context.TODO())
	assert.ErrorContains(t, err, "cannot execute")

	_, err = item.Evaluate(10)
	assert.ErrorContains(t, err, "cannot evaluate")

	require.NoError(t, item.Configure())
	assert.ErrorContains(t, item.Configure(), "cannot configure")
}

func TestItemExecutionFailurePropagates(t *testing.T) {
	runner := &runnerMock{}
	runner.On("Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(assert.AnError)

	item := NewItem(40, false, testDeps(t, runner, capturedTrace("210000")))
	require.NoError(t, item.Configure())

	err := item.Execute(context.TODO())
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, StateConfigured, item.State())
}

func TestItemEvaluateNoEnclosingSample(t *testing.T) {
	runner := &runnerMock{}
	runner.On("Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	// no frequency event after the workload stopped
	table := capturedTrace("210000")[:3]

	item := NewItem(40, false, testDeps(t, runner, table))
	require.NoError(t, item.Configure())
	require.NoError(t, item.Execute(context.TODO()))

	_, err := item.Evaluate(10)
	assert.ErrorIs(t, err, trace.ErrNoEnclosingSample)
}

func TestItemEvaluateMissingCapabilities(t *testing.T) {
	runner := &runnerMock{}
	runner.On("Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	deps := testDeps(t, runner, capturedTrace("210000"))
	deps.Platform = &platform.Info{
		CapacityClasses: [][]uint{{0, 1}, {2, 3}},
		Freqs:           map[uint][]platform.KHz{},
		KernelVersion:   "4.19.110",
	}

	item := NewItem(40, false, deps)
	require.NoError(t, item.Configure())
	require.NoError(t, item.Execute(context.TODO()))

	_, err := item.Evaluate(10)
	assert.ErrorIs(t, err, platform.ErrNoFrequencies)
}

func TestItemExecuteNoCapacityClasses(t *testing.T) {
	runner := &runnerMock{}
	deps := testDeps(t, runner, capturedTrace("210000"))
	deps.Platform = &platform.Info{KernelVersion: "4.19.110"}

	item := NewItem(40, false, deps)
	require.NoError(t, item.Configure())

	err := item.Execute(context.TODO())
	assert.ErrorIs(t, err, platform.ErrNoCapacityClasses)
	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
