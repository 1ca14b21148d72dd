package room

import (
	"math/rand/v2"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignTargets(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	t.Run("fewer than two players", func(t *testing.T) {
		assert.Nil(t, AssignTargets(nil, rng))
		assert.Nil(t, AssignTargets([]string{"a"}, rng))
	})

	t.Run("two players face each other", func(t *testing.T) {
		targets := AssignTargets([]string{"a", "b"}, rng)
		assert.Equal(t, TargetMap{"a": "b", "b": "a"}, targets)
	})

	t.Run("never targets self", func(t *testing.T) {
		ids := []string{"a", "b", "c", "d", "e"}
		hits := make(map[string]int)
		for i := 0; i < 500; i++ {
			targets := AssignTargets(ids, rng)
			require.Len(t, targets, len(ids))
			for attacker, target := range targets {
				require.NotEqual(t, attacker, target)
				require.Contains(t, ids, target)
				hits[target]++
			}
		}
		for _, id := range ids {
			assert.Positive(t, hits[id], "%s never targeted", id)
		}
	})
}

func TestGarbageLines(t *testing.T) {
	tests := []struct {
		name    string
		cleared int
		roll    float64
		want    int
	}{
		{name: "none", cleared: 0, roll: 0, want: 0},
		{name: "negative", cleared: -2, roll: 0, want: 0},
		{name: "single lucky", cleared: 1, roll: 0.29, want: 1},
		{name: "single unlucky", cleared: 1, roll: 0.3, want: 0},
		{name: "double", cleared: 2, roll: 0.9, want: 1},
		{name: "triple", cleared: 3, roll: 0.9, want: 2},
		{name: "tetris", cleared: 4, roll: 0.9, want: 4},
		{name: "more than four", cleared: 6, roll: 0.9, want: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GarbageLines(tt.cleared, 0.3, &stubRand{float: tt.roll})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTickerScheduler(t *testing.T) {
	var calls atomic.Int32
	task := TickerScheduler{}.Every(5*time.Millisecond, func() { calls.Add(1) })

	require.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, time.Millisecond)

	task.Stop()
	task.Stop()
	stopped := calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.LessOrEqual(t, calls.Load(), stopped+1)
}
