package sm2

import "fmt"

// Rating is the learner's self-reported recall quality, 0 through 5.
type Rating int

const (
	Again     Rating = iota // complete blackout
	Hard                    // wrong, but recognized the answer
	Difficult               // wrong, but it felt familiar
	Okay                    // correct, but took serious effort
	Good                    // correct after brief hesitation
	Easy                    // instant, perfect recall
)

var ratingLabels = [...]struct{ name, description string }{
	Again:     {"Again", "Complete blackout, no recall at all"},
	Hard:      {"Hard", "Wrong, but recognized the answer"},
	Difficult: {"Difficult", "Wrong, but it felt familiar"},
	Okay:      {"Okay", "Correct, but took serious effort"},
	Good:      {"Good", "Correct after brief hesitation"},
	Easy:      {"Easy", "Instant, perfect recall"},
}

// Ratings lists every rating in ascending order.
var Ratings = []Rating{Again, Hard, Difficult, Okay, Good, Easy}

// Clamp maps any integer onto the 0-5 scale. Out-of-range input is a caller
// bug, never a reason to fail a review.
func Clamp(r int) Rating {
	switch {
	case r < int(Again):
		return Again
	case r > int(Easy):
		return Easy
	default:
		return Rating(r)
	}
}

// Passed reports whether r counts as a successful recall.
func (r Rating) Passed() bool {
	return Clamp(int(r)) >= Okay
}

// Label returns the short button label for r, e.g. "Good".
func (r Rating) Label() string {
	return ratingLabels[Clamp(int(r))].name
}

// Description returns a one-line explanation of r.
func (r Rating) Description() string {
	return ratingLabels[Clamp(int(r))].description
}

func (r Rating) String() string {
	if r < Again || r > Easy {
		return fmt.Sprintf("Rating(%d)", int(r))
	}
	return ratingLabels[r].name
}
