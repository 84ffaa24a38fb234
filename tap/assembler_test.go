package tap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heckler1/mxmaster-gesture-control/inputevent"
)

const (
	testGesture uint16 = 0x117
	testBack    uint16 = 0x113
	testForward uint16 = 0x114

	testLeftButton uint16 = 0x110
	relWheel       uint16 = 0x08
)

func testOptions() Options {
	return Options{
		GestureButton: inputevent.Button(testGesture),
		BackButton:    inputevent.Button(testBack),
		ForwardButton: inputevent.Button(testForward),
	}
}

func key(code uint16, value int32) rawEvent {
	return rawEvent{Type: evKey, Code: code, Value: value}
}

func rel(code uint16, value int32) rawEvent {
	return rawEvent{Type: evRel, Code: code, Value: value}
}

func msc(value int32) rawEvent {
	return rawEvent{Type: evMsc, Code: 0x04, Value: value}
}

func syn() rawEvent {
	return rawEvent{Type: evSyn, Code: synReportCode}
}

func suppressAll(events *[]inputevent.Event) Handler {
	return func(ev inputevent.Event) inputevent.Decision {
		*events = append(*events, ev)
		return inputevent.Suppress
	}
}

func feed(a *assembler, evs ...rawEvent) []rawEvent {
	var out []rawEvent
	for _, ev := range evs {
		out = append(out, a.push(ev)...)
	}
	return out
}

func TestUnwatchedButtonForwards(t *testing.T) {
	var seen []inputevent.Event
	a := newAssembler(testOptions(), suppressAll(&seen))

	out := feed(a, key(testLeftButton, 1), syn())

	require.Equal(t, []rawEvent{key(testLeftButton, 1), syn()}, out)
	assert.Empty(t, seen)
}

func TestWatchedButtonSuppressed(t *testing.T) {
	var seen []inputevent.Event
	a := newAssembler(testOptions(), suppressAll(&seen))

	out := feed(a, msc(0x90004), key(testGesture, 1), syn())

	assert.Empty(t, out)
	require.Len(t, seen, 1)
	assert.Equal(t, inputevent.ButtonDown, seen[0].Category)
	assert.Equal(t, inputevent.Button(testGesture), seen[0].Button)
}

func TestMotionWhileHeldBecomesDrag(t *testing.T) {
	var seen []inputevent.Event
	a := newAssembler(testOptions(), suppressAll(&seen))

	feed(a, key(testGesture, 1), syn())
	out := feed(a, rel(relX, 3), rel(relX, 2), rel(relY, -1), syn())

	assert.Empty(t, out)
	require.Len(t, seen, 2)
	drag := seen[1]
	assert.Equal(t, inputevent.ButtonDragged, drag.Category)
	assert.Equal(t, inputevent.Button(testGesture), drag.Button)
	assert.Equal(t, int64(5), drag.Motion.DX)
	assert.Equal(t, int64(-1), drag.Motion.DY)
}

func TestWheelSurvivesSuppressedDrag(t *testing.T) {
	var seen []inputevent.Event
	a := newAssembler(testOptions(), suppressAll(&seen))

	feed(a, key(testGesture, 1), syn())
	out := feed(a, rel(relX, 5), rel(relWheel, 1), syn())

	require.Equal(t, []rawEvent{rel(relWheel, 1), syn()}, out)
}

func TestMotionWhileReleasedForwards(t *testing.T) {
	var seen []inputevent.Event
	a := newAssembler(testOptions(), suppressAll(&seen))

	out := feed(a, rel(relX, 4), rel(relY, 2), syn())

	require.Equal(t, []rawEvent{rel(relX, 4), rel(relY, 2), syn()}, out)
	assert.Empty(t, seen)

	// Held then released, motion flows again.
	feed(a, key(testGesture, 1), syn())
	feed(a, key(testGesture, 0), syn())
	out = feed(a, rel(relX, 4), syn())
	require.Equal(t, []rawEvent{rel(relX, 4), syn()}, out)
}

func TestPassThroughHandlerKeepsEverything(t *testing.T) {
	a := newAssembler(testOptions(), func(inputevent.Event) inputevent.Decision {
		return inputevent.PassThrough
	})

	out := feed(a, key(testGesture, 1), syn())
	require.Equal(t, []rawEvent{key(testGesture, 1), syn()}, out)

	out = feed(a, rel(relX, 5), syn())
	require.Equal(t, []rawEvent{rel(relX, 5), syn()}, out)
}

func TestNilHandlerPassesThrough(t *testing.T) {
	a := newAssembler(testOptions(), nil)

	out := feed(a, key(testGesture, 1), syn())
	require.Equal(t, []rawEvent{key(testGesture, 1), syn()}, out)
}

func TestKeyRepeatForwards(t *testing.T) {
	var seen []inputevent.Event
	a := newAssembler(testOptions(), suppressAll(&seen))

	out := feed(a, key(testBack, 2), syn())

	require.Equal(t, []rawEvent{key(testBack, 2), syn()}, out)
	assert.Empty(t, seen)
}

func TestEmptyFrameDropped(t *testing.T) {
	a := newAssembler(testOptions(), nil)

	assert.Empty(t, feed(a, syn()))
}

func TestOversizedFrameFlushes(t *testing.T) {
	a := newAssembler(testOptions(), nil)

	var out []rawEvent
	for i := 0; i < maxFrameLen; i++ {
		out = append(out, a.push(rel(relX, 1))...)
	}

	require.Len(t, out, maxFrameLen+1)
	assert.Equal(t, syn(), out[len(out)-1])
}
