package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusCreated, StatusStockReserved, true},
		{StatusCreated, StatusFailed, true},
		{StatusCreated, StatusShipped, false},
		{StatusStockReserved, StatusShipped, true},
		{StatusShipped, StatusCompleted, true},
		{StatusCompleted, StatusCancelled, false},
		{StatusFailed, StatusStockReserved, false},
		{Status("BOGUS"), StatusCreated, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, CanTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

func TestParseStatus(t *testing.T) {
	s, ok := ParseStatus("SHIPPED")
	assert.True(t, ok)
	assert.Equal(t, StatusShipped, s)

	_, ok = ParseStatus("shipped")
	assert.False(t, ok)
}

func TestZoneValid(t *testing.T) {
	assert.True(t, ZoneInsideDhaka.Valid())
	assert.True(t, ZoneOutsideDhaka.Valid())
	assert.False(t, Zone("mars").Valid())
}
