package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanAccept(t *testing.T) {
	assert.True(t, CanAccept(0, 1))
	assert.True(t, CanAccept(19, 20))
	assert.False(t, CanAccept(20, 20))
	assert.False(t, CanAccept(25, 20))
	assert.False(t, CanAccept(0, 0))
}

func TestAvailableSlots(t *testing.T) {
	assert.Equal(t, 20, AvailableSlots(20, 0))
	assert.Equal(t, 1, AvailableSlots(20, 19))
	assert.Equal(t, 0, AvailableSlots(20, 20))
	// Over-capacity seats report negative availability rather than clamping.
	assert.Equal(t, -5, AvailableSlots(20, 25))
}
