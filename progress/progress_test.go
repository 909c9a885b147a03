package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoop_NeverInitialized(t *testing.T) {
	assert.False(t, Noop.Initialized())
	id := Noop.Started("ignored")
	Noop.Progress(id, 50, "ignored")
	Noop.Finished(id, "ignored")
}

func TestLoggingReporter_RecordsUpdatesInOrder(t *testing.T) {
	r := NewLoggingReporter()
	assert.True(t, r.Initialized())

	id := r.Started("resize /dev/sdb1")
	r.Progress(id, 10, "pass 1")
	r.Progress(id, 55, "pass 3")
	r.Finished(id, "done")

	updates := r.Updates()
	if assert.Len(t, updates, 2) {
		assert.Equal(t, 10.0, updates[0].Percent)
		assert.Equal(t, 55.0, updates[1].Percent)
		assert.Equal(t, id, updates[0].TaskID)
	}
}

func TestLoggingReporter_TaskIDsAreUnique(t *testing.T) {
	r := NewLoggingReporter()
	a := r.Started("a")
	b := r.Started("b")
	assert.NotEqual(t, a, b)
}
