package bloom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSize(t *testing.T) {
	tests := []struct {
		name  string
		n     uint64
		p     float64
		wantM uint64
		wantK uint8
	}{
		{name: "1k at 1%", n: 1000, p: 0.01, wantM: 9586, wantK: 7},
		{name: "zero n clamps to one", n: 0, p: 0.01, wantM: 10, wantK: 7},
		{name: "invalid p defaults", n: 1000, p: 0, wantM: 9586, wantK: 7},
		{name: "p of one defaults", n: 1000, p: 1, wantM: 9586, wantK: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, k := Size(tt.n, tt.p)
			assert.Equal(t, tt.wantM, m)
			assert.Equal(t, tt.wantK, k)
		})
	}
}

func TestSize_MonotonicInN(t *testing.T) {
	prev, _ := Size(1, 0.01)
	for _, n := range []uint64{10, 100, 1000, 100000} {
		m, k := Size(n, 0.01)
		assert.Greater(t, m, prev)
		assert.GreaterOrEqual(t, k, uint8(1))
		assert.LessOrEqual(t, float64(k), math.Ceil(float64(m)/float64(n)))
		prev = m
	}
}
