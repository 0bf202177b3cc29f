package runhistory

import "fmt"

// maxTicks bounds the inverted timestamp so the subtraction never goes
// negative for any millisecond timestamp before the year 2286, and
// invertedKeyWidth is wide enough that every inverted value zero-pads to
// the same length, which is what makes ascending key order equal
// descending start-time order.
const (
	maxTicks        int64 = 9999999999999
	invertedKeyWidth      = 13
)

// rowKey derives the run-history row key from a start time: maxTicks minus
// the start time in epoch milliseconds, zero-padded to a fixed width, so
// that the most recent run always sorts first.
func rowKey(prefix string, startTimeMillis int64) string {
	inverted := maxTicks - startTimeMillis
	return fmt.Sprintf("%s%0*d", prefix, invertedKeyWidth, inverted)
}
