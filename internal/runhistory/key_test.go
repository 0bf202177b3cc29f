package runhistory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRowKeyOrdersNewestFirst(t *testing.T) {
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	olderKey := rowKey("/p/", older.UnixMilli())
	newerKey := rowKey("/p/", newer.UnixMilli())

	assert.Less(t, newerKey, olderKey, "a newer start time must sort before an older one")
	assert.Len(t, olderKey, len("/p/")+invertedKeyWidth)
}
