package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMoveToDerivesVelocityAndTrail(t *testing.T) {
	a := newAgent("S-000", 10, 10, AgentWorker)

	a.moveTo(11, 9)
	assert.Equal(t, 1, a.VX)
	assert.Equal(t, -1, a.VY)
	assert.Equal(t, [][2]int{{11, 9}}, a.Trail)

	// Standing still zeroes velocity but still logs the cell.
	a.moveTo(11, 9)
	assert.Zero(t, a.VX)
	assert.Zero(t, a.VY)
	assert.Len(t, a.Trail, 2)
}

func TestTrailEvictsOldestAtCap(t *testing.T) {
	a := newAgent("S-000", 0, 0, AgentWorker)

	for i := 1; i <= TrailCap+5; i++ {
		a.moveTo(i, 0)
	}

	assert.Len(t, a.Trail, TrailCap)
	assert.Equal(t, [2]int{6, 0}, a.Trail[0], "oldest entries evicted first")
	assert.Equal(t, [2]int{TrailCap + 5, 0}, a.Trail[TrailCap-1])
}

func TestHungerClamps(t *testing.T) {
	a := newAgent("S-000", 0, 0, AgentWorker)

	a.feed(50)
	assert.Equal(t, 100.0, a.Hunger)

	a.starve(30)
	assert.Equal(t, 70.0, a.Hunger)

	a.starve(500)
	assert.Equal(t, 0.0, a.Hunger)

	a.feed(12.5)
	assert.Equal(t, 12.5, a.Hunger)
}
