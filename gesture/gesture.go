package gesture

// Verdict is the direction one motion sample was classified as.
type Verdict uint8

const (
	None Verdict = iota
	Left
	Right
	Up
	Down
)

func (v Verdict) String() string {
	switch v {
	case Left:
		return "left"
	case Right:
		return "right"
	case Up:
		return "up"
	case Down:
		return "down"
	}
	return "none"
}

// Thresholds tune the classifier. Values are in relative motion counts as
// the device delivers them.
type Thresholds struct {
	// Movement is the noise floor. Samples whose mean absolute
	// displacement stays below it are ignored.
	Movement int64
	// Direction separates dominant-axis moves from near-diagonal ones.
	Direction int64
	// LargeMovement marks a sample as a large swipe, which is held to
	// the stricter diagonal rejection.
	LargeMovement int64
	// Diagonal is the minimum axis difference a large swipe needs to
	// still count as directional.
	Diagonal int64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Movement:      1,
		Direction:     3,
		LargeMovement: 15,
		Diagonal:      7,
	}
}

// AboveNoiseFloor reports whether a sample is deliberate enough to be worth
// classifying. It is also the condition that turns a held button into a drag.
func (t Thresholds) AboveNoiseFloor(dx, dy int64) bool {
	return (abs(dx)+abs(dy))/2 >= t.Movement
}

// Classify maps one relative displacement to a direction. Rules are ordered
// and the first match wins.
func (t Thresholds) Classify(dx, dy int64) Verdict {
	adx, ady := abs(dx), abs(dy)

	if !t.AboveNoiseFloor(dx, dy) {
		return None
	}

	// A large swipe without a clearly dominant axis is ambiguous.
	if (adx > t.LargeMovement || ady > t.LargeMovement) && adx-ady < t.Diagonal {
		return None
	}

	// Small nudges bias horizontal.
	if adx < t.Direction && ady < t.Direction {
		if dx < 0 {
			return Left
		}
		return Right
	}

	if adx-ady > t.Direction {
		if dx < 0 {
			return Left
		}
		return Right
	}
	if dy < 0 {
		return Up
	}
	return Down
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
