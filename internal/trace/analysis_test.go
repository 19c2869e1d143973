package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAverageFrequencySingleValue(t *testing.T) {
	events := Table{
		freqEvent(2.0, "1100000"),
		freqEvent(12.5, "1100000"),
	}

	avg, err := AverageFrequency(events, Window{Start: durationOf(2.0), End: durationOf(12.5)})
	require.NoError(t, err)
	assert.InDelta(t, 1100000.0, avg, 1e-6)
}

func TestAverageFrequencyTimeWeighted(t *testing.T) {
	// 600 MHz for 2 s, then 1.2 GHz for 6 s over an 8 s window
	events := Table{
		freqEvent(1.0, "600000"),
		freqEvent(3.0, "1200000"),
		freqEvent(9.0, "500000"),
	}

	avg, err := AverageFrequency(events, Window{Start: durationOf(1.0), End: durationOf(9.0)})
	require.NoError(t, err)
	assert.InDelta(t, (600000.0*2+1200000.0*6)/8, avg, 1e-3)
}

func TestAverageFrequencyEventBeforeWindow(t *testing.T) {
	// the value in effect at window start comes from an earlier event
	events := Table{
		freqEvent(0.5, "800000"),
		freqEvent(6.0, "1600000"),
	}

	avg, err := AverageFrequency(events, Window{Start: durationOf(2.0), End: durationOf(10.0)})
	require.NoError(t, err)
	assert.InDelta(t, (800000.0*4+1600000.0*4)/8, avg, 1e-3)
}

func TestAverageFrequencyNoSampleAtStart(t *testing.T) {
	events := Table{
		freqEvent(5.0, "800000"),
	}

	_, err := AverageFrequency(events, Window{Start: durationOf(2.0), End: durationOf(10.0)})
	assert.ErrorIs(t, err, ErrNoEnclosingSample)
}

func TestAverageFrequencyInvalidWindow(t *testing.T) {
	events := Table{
		freqEvent(1.0, "800000"),
	}

	_, err := AverageFrequency(events, Window{Start: durationOf(5.0), End: durationOf(5.0)})
	assert.Error(t, err)
}

func TestAverageFrequencyBadStateField(t *testing.T) {
	events := Table{
		{Timestamp: durationOf(1.0), Name: "cpu_frequency", Fields: map[string]string{"state": "fast"}},
	}

	_, err := AverageFrequency(events, Window{Start: durationOf(1.0), End: durationOf(2.0)})
	assert.Error(t, err)
}
