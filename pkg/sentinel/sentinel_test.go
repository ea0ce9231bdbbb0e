package sentinel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type gateState struct {
	hasMore, loading bool
}

func (g *gateState) gate() (bool, bool) { return g.hasMore, g.loading }

func TestWindowIntersects(t *testing.T) {
	t.Parallel()

	w := Window{Top: 10, Height: 5}
	assert.True(t, w.Intersects(Marker{Line: 10}, 0))
	assert.True(t, w.Intersects(Marker{Line: 14}, 0))
	assert.False(t, w.Intersects(Marker{Line: 15}, 0))
	assert.True(t, w.Intersects(Marker{Line: 16}, 2))
	assert.True(t, w.Intersects(Marker{Line: 8}, 2))
	assert.False(t, w.Intersects(Marker{Line: 7}, 2))
	assert.False(t, Window{Top: 0, Height: 0}.Intersects(Marker{Line: 0}, 3))
}

func TestSentinelFiresOnceWhileVisible(t *testing.T) {
	g := &gateState{hasMore: true}
	s := New(Options{Margin: 1, Gate: g.gate})

	calls := 0
	s.Observe(Marker{Line: 20}, func() { calls++ })

	assert.False(t, s.Check(Window{Top: 0, Height: 10}))
	assert.True(t, s.Check(Window{Top: 10, Height: 10}), "margin brings row 20 into view")
	assert.False(t, s.Check(Window{Top: 11, Height: 10}), "still visible, already fired")
	assert.Equal(t, 1, calls)

	assert.False(t, s.Check(Window{Top: 0, Height: 10}))
	assert.True(t, s.Check(Window{Top: 15, Height: 10}), "re-entering fires again")
	assert.Equal(t, 2, calls)
}

func TestSentinelGate(t *testing.T) {
	g := &gateState{hasMore: true, loading: true}
	s := New(Options{Gate: g.gate})

	calls := 0
	s.Observe(Marker{Line: 5}, func() { calls++ })
	visible := Window{Top: 0, Height: 10}

	assert.False(t, s.Check(visible), "loading blocks the callback")

	g.loading = false
	assert.True(t, s.Check(visible), "gate opening while visible fires")

	g.loading = true
	assert.False(t, s.Check(visible))
	g.loading = false
	assert.True(t, s.Check(visible), "finished load with marker still visible fires again")

	g.hasMore = false
	assert.False(t, s.Check(visible))
	assert.Equal(t, 2, calls)
}

func TestSentinelLifecycle(t *testing.T) {
	g := &gateState{hasMore: true}
	s := New(Options{Gate: g.gate})
	visible := Window{Top: 0, Height: 10}

	assert.False(t, s.Check(visible), "nothing observed")
	assert.False(t, s.Observing())

	first, second := 0, 0
	s.Observe(Marker{Line: 3}, func() { first++ })
	assert.True(t, s.Check(visible))

	s.Observe(Marker{Line: 3}, func() { second++ })
	assert.True(t, s.Check(visible), "new callback re-establishes observation")
	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)

	s.Configure(4)
	assert.True(t, s.Check(visible), "reconfiguring re-arms")

	s.Move(Marker{Line: 6})
	assert.False(t, s.Check(visible), "moving does not re-arm")

	s.Unobserve()
	assert.False(t, s.Observing())
	s.Configure(2)
	assert.False(t, s.Check(visible))
	assert.Equal(t, 2, second)
}
