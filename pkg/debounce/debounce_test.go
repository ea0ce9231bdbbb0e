package debounce

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTimer struct {
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeClock struct {
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(_ time.Duration, f func()) Timer {
	t := &fakeTimer{f: f}
	c.timers = append(c.timers, t)
	return t
}

// elapse fires every timer that was not stopped
func (c *fakeClock) elapse() {
	for _, t := range c.timers {
		if !t.stopped {
			t.stopped = true
			t.f()
		}
	}
}

func TestTrackerPropagatesLastValue(t *testing.T) {
	clock := &fakeClock{}
	var got []string
	d := NewWithTimer(300*time.Millisecond, func(v string) { got = append(got, v) }, clock.AfterFunc)

	for _, v := range []string{"с", "се", "сер", "серт"} {
		d.Set(v)
	}
	assert.True(t, d.Pending())
	assert.Equal(t, "", d.Value(), "nothing settles before the delay")

	clock.elapse()
	assert.Equal(t, []string{"серт"}, got)
	assert.Equal(t, "серт", d.Value())
	assert.False(t, d.Pending())
}

func TestTrackerStaleTimerIgnored(t *testing.T) {
	clock := &fakeClock{}
	var got []int
	d := NewWithTimer(time.Second, func(v int) { got = append(got, v) }, clock.AfterFunc)

	d.Set(1)
	first := clock.timers[0]
	d.Set(2)

	// The first timer's callback runs even though Stop was called on it.
	first.f()
	assert.Empty(t, got)

	clock.elapse()
	assert.Equal(t, []int{2}, got)
}

func TestTrackerUnchangedValueNotRepropagated(t *testing.T) {
	clock := &fakeClock{}
	calls := 0
	d := NewWithTimer(time.Second, func(string) { calls++ }, clock.AfterFunc)

	d.Set("шапка")
	clock.elapse()
	d.Set("шапк")
	d.Set("шапка")
	clock.elapse()
	assert.Equal(t, 1, calls)
}

func TestTrackerReset(t *testing.T) {
	clock := &fakeClock{}
	var got []string
	d := NewWithTimer(time.Second, func(v string) { got = append(got, v) }, clock.AfterFunc)

	d.Set("ку")
	clock.elapse()
	d.Set("кур")
	d.Reset("")
	clock.elapse()
	assert.Equal(t, []string{"ку"}, got, "reset drops the pending input")
	assert.Equal(t, "", d.Value())
	assert.False(t, d.Pending())

	d.Set("ку")
	clock.elapse()
	assert.Equal(t, []string{"ку", "ку"}, got)
}

func TestTrackerFlushAndStop(t *testing.T) {
	clock := &fakeClock{}
	var got []string
	d := NewWithTimer(time.Second, func(v string) { got = append(got, v) }, clock.AfterFunc)

	d.Set("кепка")
	d.Flush()
	assert.Equal(t, []string{"кепка"}, got)
	clock.elapse()
	assert.Equal(t, []string{"кепка"}, got, "flushed timer does not fire again")

	d.Set("куртки")
	d.Stop()
	clock.elapse()
	d.Set("штаны")
	clock.elapse()
	assert.Equal(t, []string{"кепка"}, got)
	assert.False(t, d.Pending())
}

func TestTrackerRealTimer(t *testing.T) {
	settled := make(chan string, 4)
	d := New(20*time.Millisecond, func(v string) { settled <- v })
	defer d.Stop()

	d.Set("б")
	d.Set("бу")
	d.Set("бут")

	select {
	case v := <-settled:
		assert.Equal(t, "бут", v)
	case <-time.After(2 * time.Second):
		require.FailNow(t, "value never settled")
	}

	select {
	case v := <-settled:
		require.FailNow(t, "unexpected second value", v)
	case <-time.After(60 * time.Millisecond):
	}
}
