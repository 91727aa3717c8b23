package reservations

import (
	"errors"
	"testing"

	"maitred/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestReserveAndCancel(t *testing.T) {
	tracker := NewTracker()

	assert.NoError(t, tracker.Reserve(5))
	assert.True(t, tracker.IsReserved(5))
	assert.False(t, tracker.IsReserved(6))

	assert.NoError(t, tracker.Cancel(5))
	assert.False(t, tracker.IsReserved(5))
}

func TestReserveTwiceConflicts(t *testing.T) {
	tracker := NewTracker()
	assert.NoError(t, tracker.Reserve(2))

	err := tracker.Reserve(2)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrConflict))
	assert.True(t, tracker.IsReserved(2))
}

func TestCancelUnreservedIsNotFound(t *testing.T) {
	tracker := NewTracker()

	err := tracker.Cancel(3)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestReservedIsSorted(t *testing.T) {
	tracker := NewTracker()
	for _, table := range []int{9, 1, 14} {
		assert.NoError(t, tracker.Reserve(table))
	}

	assert.Equal(t, []int{1, 9, 14}, tracker.Reserved())
}
