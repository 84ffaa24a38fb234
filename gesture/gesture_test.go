package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	th := DefaultThresholds()

	for _, c := range []struct {
		dx, dy int64
		want   Verdict
	}{
		// below the noise floor
		{0, 0, None},
		{1, 0, None},
		{0, -1, None},
		// large near-diagonal swipes
		{20, 18, None},
		{-20, -18, None},
		{20, 19, None},
		{-16, -12, None},
		// small moves bias horizontal
		{2, 2, Right},
		{-2, 2, Left},
		{2, -2, Right},
		// dominant axis
		{5, 1, Right},
		{-5, 1, Left},
		{1, 5, Down},
		{1, -5, Up},
		{-10, 0, Left},
		{10, 0, Right},
		{0, -10, Up},
		{0, 10, Down},
		// large but clearly horizontal
		{20, 5, Right},
		{-20, 5, Left},
	} {
		assert.Equal(t, c.want, th.Classify(c.dx, c.dy), "classify(%d, %d)", c.dx, c.dy)
	}
}

func TestClassifyIsMirrorSymmetric(t *testing.T) {
	th := DefaultThresholds()

	horizontal := map[Verdict]Verdict{Left: Right, Right: Left, None: None}
	vertical := map[Verdict]Verdict{Up: Down, Down: Up, None: None}

	for _, c := range []struct{ dx, dy int64 }{
		{5, 1}, {10, 0}, {20, 5}, {8, 2}, {4, 0},
	} {
		got := th.Classify(c.dx, c.dy)
		assert.Equal(t, horizontal[got], th.Classify(-c.dx, c.dy), "mirror of (%d, %d)", c.dx, c.dy)
	}
	for _, c := range []struct{ dx, dy int64 }{
		{1, 5}, {0, 10}, {2, 9}, {0, 4},
	} {
		got := th.Classify(c.dx, c.dy)
		assert.Equal(t, vertical[got], th.Classify(c.dx, -c.dy), "mirror of (%d, %d)", c.dx, c.dy)
	}
}

func TestClassifyCustomNoiseFloor(t *testing.T) {
	th := DefaultThresholds()
	th.Movement = 4

	assert.Equal(t, None, th.Classify(3, 3))
	assert.Equal(t, Right, th.Classify(8, 0))
}

func TestAboveNoiseFloor(t *testing.T) {
	th := DefaultThresholds()

	assert.False(t, th.AboveNoiseFloor(0, 0))
	assert.False(t, th.AboveNoiseFloor(1, 0))
	assert.False(t, th.AboveNoiseFloor(0, -1))
	assert.True(t, th.AboveNoiseFloor(1, 1))
	assert.True(t, th.AboveNoiseFloor(-1, -1))
	assert.True(t, th.AboveNoiseFloor(2, 0))
}

func TestTracker(t *testing.T) {
	var tr Tracker

	assert.False(t, tr.Dragging())
	tr.Begin()
	assert.True(t, tr.Dragging())
	tr.Begin()
	assert.True(t, tr.Dragging())
	tr.End()
	assert.False(t, tr.Dragging())
	tr.End()
	assert.False(t, tr.Dragging())
}
