package invader

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThresholdPeriodic(t *testing.T) {
	for y := -16; y < 16; y++ {
		for x := -16; x < 16; x++ {
			v := Threshold(x, y)
			assert.Equal(t, v, Threshold(x+8, y), "x period at (%d, %d)", x, y)
			assert.Equal(t, v, Threshold(x, y+8), "y period at (%d, %d)", x, y)
			assert.True(t, v >= -0.5 && v < 0.5, "threshold %v out of range", v)
		}
	}
}

func TestThresholdBijection(t *testing.T) {
	var values []float64
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			values = append(values, Threshold(x, y))
		}
	}
	sort.Float64s(values)

	for i, v := range values {
		assert.Equal(t, float64(i)/64-0.5, v)
	}
}

func TestThresholdCorners(t *testing.T) {
	assert.Equal(t, -0.5, Threshold(0, 0))
	assert.Equal(t, 0.0, Threshold(1, 0))
	assert.Equal(t, 63.0/64-0.5, Threshold(0, 7))
	assert.Equal(t, Threshold(7, 7), Threshold(-1, -1))
}
