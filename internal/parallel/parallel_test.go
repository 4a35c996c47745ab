package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFor(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		n    int
	}{
		{"default", DefaultConfig(), 1000},
		{"sequential", Sequential(), 100},
		{"below min chunk", DefaultConfig(), DefaultConfig().MinChunkSize - 1},
		{"coarse few items", CoarseConfig(), 3},
		{"coarse single item", CoarseConfig(), 1},
		{"zero items", CoarseConfig(), 0},
		{"one worker", Config{Enabled: true, NumWorkers: 1, MinChunkSize: 1}, 50},
		{"more workers than items", Config{Enabled: true, NumWorkers: 64, MinChunkSize: 1}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen := make([]int32, tt.n)
			For(tt.n, func(i int) {
				atomic.AddInt32(&seen[i], 1)
			}, tt.cfg)

			for i, c := range seen {
				assert.Equal(t, int32(1), c, "index %d", i)
			}
		})
	}
}

func TestCoarseConfig(t *testing.T) {
	cfg := CoarseConfig()
	assert.Equal(t, 1, cfg.MinChunkSize)
	assert.Equal(t, DefaultConfig().NumWorkers, cfg.NumWorkers)
	assert.False(t, Sequential().Enabled)
}

func BenchmarkFor(b *testing.B) {
	cfg := DefaultConfig()
	n := 10000

	b.Run("parallel", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			var sum int64
			For(n, func(j int) {
				atomic.AddInt64(&sum, int64(j))
			}, cfg)
		}
	})

	b.Run("sequential", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			var sum int64
			For(n, func(j int) {
				atomic.AddInt64(&sum, int64(j))
			}, Sequential())
		}
	})
}
