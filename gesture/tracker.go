package gesture

// Tracker remembers whether the held gesture button has produced qualifying
// motion yet. It is what separates a plain click from a swipe: a press
// released without motion is a tap, anything else already fired as a swipe.
//
// A Tracker belongs to the single dispatch goroutine and is not safe for
// concurrent use.
type Tracker struct {
	dragging bool
}

func (t *Tracker) Begin() {
	t.dragging = true
}

func (t *Tracker) End() {
	t.dragging = false
}

func (t *Tracker) Dragging() bool {
	return t.dragging
}
