package chunk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-heightmap/internal/interval"
)

func TestFrequencyAxis_RoundTrip(t *testing.T) {
	axes := []FrequencyAxis{
		LinearAxis(0, 22050),
		LogAxis(20, 22050),
	}
	for _, a := range axes {
		t.Run(a.Kind.String(), func(t *testing.T) {
			require.NoError(t, a.Validate())
			assert.InDelta(t, a.MinHz, a.Hz(0), 1e-9)
			assert.InDelta(t, a.MaxHz, a.Hz(1), 1e-6)
			for _, pos := range []float64{0, 0.1, 0.5, 0.77, 1} {
				assert.InDelta(t, pos, a.Position(a.Hz(pos)), 1e-9)
			}
		})
	}
}

func TestFrequencyAxis_LogIsGeometric(t *testing.T) {
	a := LogAxis(100, 1600)
	assert.InDelta(t, 200, a.Hz(0.25), 1e-9)
	assert.InDelta(t, 400, a.Hz(0.5), 1e-9)
	assert.True(t, math.IsInf(a.Position(0), -1))
}

func TestFrequencyAxis_Validate(t *testing.T) {
	assert.ErrorIs(t, LinearAxis(10, 10).Validate(), ErrInvalidChunk)
	assert.ErrorIs(t, LogAxis(0, 10).Validate(), ErrInvalidChunk)
	assert.ErrorIs(t, FrequencyAxis{Kind: 7, MinHz: 1, MaxHz: 2}.Validate(), ErrInvalidChunk)
}

func testHeader() Header {
	return Header{
		Offset:     1000,
		SignalRate: 8000,
		ColumnRate: 100, // 80 samples per column
		FirstValid: 2,
		NumValid:   6,
		Axis:       LinearAxis(0, 4000),
	}
}

func TestHeader_Interval(t *testing.T) {
	h := testHeader()
	assert.Equal(t, interval.New(1160, 1640), h.Interval())

	first, end := h.ValidColumns()
	assert.Equal(t, 2, first)
	assert.Equal(t, 8, end)

	assert.InDelta(t, 2.0, h.ColumnAt(1160), 1e-12)
	assert.InDelta(t, 2.5, h.ColumnAt(1200), 1e-12)
}

func TestRawBins(t *testing.T) {
	data := make([]float32, 10*5)
	for i := range data {
		data[i] = float32(i)
	}
	c, err := NewRawBins(testHeader(), 5, data)
	require.NoError(t, err)

	assert.Equal(t, 5, c.Bins())
	assert.InDelta(t, 13, c.Value(2, 3), 0)
	assert.InDelta(t, 2.0, BinAt(c, 2000), 1e-9)

	_, err = NewRawBins(testHeader(), 5, data[:49])
	require.ErrorIs(t, err, ErrInvalidChunk)

	h := testHeader()
	h.NumValid = 9
	_, err = NewRawBins(h, 5, data)
	require.ErrorIs(t, err, ErrInvalidChunk)
}

func TestWindowedFrames(t *testing.T) {
	frames := make([][]complex128, 8)
	for i := range frames {
		frames[i] = make([]complex128, 3)
		frames[i][1] = complex(3, 4)
	}
	c, err := NewWindowedFrames(testHeader(), frames, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Bins())
	assert.InDelta(t, 2.5, c.Value(4, 1), 1e-6)
	assert.InDelta(t, 0, c.Value(4, 0), 0)

	frames[3] = frames[3][:2]
	_, err = NewWindowedFrames(testHeader(), frames, 1)
	require.ErrorIs(t, err, ErrInvalidChunk)
}
