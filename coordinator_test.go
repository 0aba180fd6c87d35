package octagrow

import (
	"testing"
	"time"

	"github.com/gekko3d/octagrow/octa/boundary"
	"github.com/gekko3d/octagrow/octa/growth"
	"github.com/gekko3d/octagrow/octa/lattice"
	"github.com/gekko3d/octagrow/octa/occupancy"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededEngine(contains func(mgl32.Vec3) bool) *growth.Engine {
	idx := occupancy.NewSpatialHash(lattice.New(0), 1<<12)
	idx.Insert(mgl32.Vec3{}, 0)
	cfg := growth.DefaultConfig()
	cfg.SpawnChance = 1
	return growth.NewEngine(cfg, idx, contains)
}

func TestCoordinatorDrain(t *testing.T) {
	box := boundary.NewBox(mgl32.Vec3{}, 60, 60, 60)
	// A long interval leaves exactly one tick between start and the first wait.
	c := NewCoordinator(seededEngine(box.Contains), CoordinatorOptions{Dt: 1, Interval: time.Hour})
	require.True(t, c.Start())
	defer c.Stop()

	require.Eventually(t, func() bool { return c.Pending() > 0 }, 2*time.Second, time.Millisecond)

	batch := c.Drain(nil)
	require.Len(t, batch, 1)
	assert.Zero(t, c.Pending())
	assert.EqualValues(t, 1, c.Ticks())

	again := c.Drain(batch)
	assert.Empty(t, again)
	assert.Zero(t, c.Pending())
}

func TestCoordinatorStartStop(t *testing.T) {
	box := boundary.NewBox(mgl32.Vec3{}, 60, 60, 60)
	c := NewCoordinator(seededEngine(box.Contains), CoordinatorOptions{Interval: time.Millisecond})

	assert.NoError(t, c.Stop(), "stopping an idle coordinator is a no-op")
	assert.False(t, c.Running())

	require.True(t, c.Start())
	assert.False(t, c.Start(), "second start is a no-op")
	assert.True(t, c.Running())

	require.Eventually(t, func() bool { return c.Ticks() > 3 }, 2*time.Second, time.Millisecond)
	require.NoError(t, c.Stop())
	assert.False(t, c.Running())
	assert.Zero(t, c.Pending(), "stop discards the undrained batch")
	assert.NoError(t, c.Stop())

	ticks := c.Ticks()
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, ticks, c.Ticks(), "worker is gone after stop")
}

func TestCoordinatorJoinTimeout(t *testing.T) {
	release := make(chan struct{})
	blocking := func(mgl32.Vec3) bool {
		<-release
		return true
	}

	c := NewCoordinator(seededEngine(blocking), CoordinatorOptions{Dt: 1, JoinTimeout: 20 * time.Millisecond})
	dbg := NewCoordinator(seededEngine(blocking), CoordinatorOptions{Dt: 1, JoinTimeout: 20 * time.Millisecond, Debug: true})
	require.True(t, c.Start())
	require.True(t, dbg.Start())

	assert.ErrorIs(t, c.Stop(), ErrJoinTimeout)
	assert.True(t, c.Running())
	assert.PanicsWithValue(t, ErrJoinTimeout, func() { _ = dbg.Stop() })

	close(release)
	assert.NoError(t, c.Stop())
	assert.NoError(t, dbg.Stop())
	assert.False(t, c.Running())
	assert.False(t, dbg.Running())
}
