package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// fixedSource returns the queued values in order
type fixedSource struct {
	values []int
	i      int
}

func (f *fixedSource) IntN(n int) int {
	v := f.values[f.i%len(f.values)] % n
	f.i++
	return v
}

func TestTracker_Init_Range(t *testing.T) {
	tr := NewSeededTracker(42)

	for i := 0; i < 1000; i++ {
		p := tr.Init("js-basics")
		assert.GreaterOrEqual(t, p, 20)
		assert.Less(t, p, 70)
	}
}

func TestTracker_Init_Bounds(t *testing.T) {
	tr := NewTracker(&fixedSource{values: []int{0, 49}})

	assert.Equal(t, 20, tr.Init("a"))
	assert.Equal(t, 69, tr.Init("a"))
}

func TestTracker_Init_Redrawn(t *testing.T) {
	tr := NewTracker(&fixedSource{values: []int{5, 30}})

	first := tr.Init("js-basics")
	second := tr.Init("js-basics")
	assert.NotEqual(t, first, second, "progress must be redrawn on every load")
}

func TestTracker_Init_DefaultSource(t *testing.T) {
	tr := NewTracker(nil)
	p := tr.Init("x")
	assert.GreaterOrEqual(t, p, InitialMin)
	assert.Less(t, p, InitialMin+InitialSpan)
}

func TestIncrement(t *testing.T) {
	for prev := 0; prev <= Max; prev++ {
		want := prev + 30
		if want > 100 {
			want = 100
		}
		assert.Equal(t, want, Increment(prev), "Increment(%d)", prev)
	}
}

func TestAdvance_NeverDecreases(t *testing.T) {
	assert.Equal(t, 50, Advance(50, -10))
	assert.Equal(t, 50, Advance(50, 0))
	assert.Equal(t, 100, Advance(90, 30))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, Clamp(-5))
	assert.Equal(t, 42, Clamp(42))
	assert.Equal(t, 100, Clamp(130))
}
