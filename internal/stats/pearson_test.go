package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPearson_KnownValues(t *testing.T) {
	tests := []struct {
		name  string
		x, y  []float64
		wantR float64
		wantP float64
	}{
		{"five points", []float64{1, 2, 3, 4, 5}, []float64{2, 4, 5, 4, 5}, 0.7745966692414834, 0.12402706265755459},
		{"three points, one df", []float64{1, 2, 3}, []float64{1, 3, 2}, 0.5, 0.6666666666666667},
		{"perfect negative", []float64{1, 2, 3, 4}, []float64{8, 6, 4, 2}, -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, p, err := Pearson(tt.x, tt.y)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantR, r, 1e-9)
			assert.InDelta(t, tt.wantP, p, 1e-6)
		})
	}
}

func TestPearson_PerfectLinear(t *testing.T) {
	// Masked vectors from a viral/host pair with four shared samples.
	r, p, err := Pearson([]float64{2, 4, 6, 8}, []float64{1, 2, 3, 4})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, r, 1e-12)
	assert.Less(t, p, 1e-6)
	assert.GreaterOrEqual(t, p, 0.0)
}

func TestPearson_Bounds(t *testing.T) {
	x := []float64{0.3, 1.7, 2.2, 9.1, 4.4, 0.01}
	y := []float64{5.5, 3.3, 8.1, 0.2, 7.7, 1.1}
	r, p, err := Pearson(x, y)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, r, -1.0)
	assert.LessOrEqual(t, r, 1.0)
	assert.GreaterOrEqual(t, p, 0.0)
	assert.LessOrEqual(t, p, 1.0)
}

func TestPearson_Errors(t *testing.T) {
	_, _, err := Pearson([]float64{1, 2, 3}, []float64{1, 2})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = Pearson([]float64{1, 2}, []float64{1, 2})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = Pearson([]float64{3, 3, 3}, []float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrConstantInput)

	_, _, err = Pearson([]float64{1, 2, 3}, []float64{0.1, 0.1, 0.1})
	assert.ErrorIs(t, err, ErrConstantInput)
}
