package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimer(t *testing.T) {
	timer := NewNamedTimer("test_timer")
	assert.Equal(t, "test_timer", timer.Name())

	// Sleep for a short duration
	time.Sleep(10 * time.Millisecond)

	duration := timer.Stop()
	assert.GreaterOrEqual(t, duration, 10*time.Millisecond)
	assert.Equal(t, duration, timer.Duration())

	str := timer.String()
	assert.Contains(t, str, "test_timer")
	assert.Contains(t, str, "ms")
}

func TestUnnamedTimer(t *testing.T) {
	timer := NewTimer()
	timer.Stop()
	assert.Empty(t, timer.Name())
	assert.NotContains(t, timer.String(), ":")
}

func TestStageTimings(t *testing.T) {
	var st StageTimings
	a := st.Start("segment")
	time.Sleep(2 * time.Millisecond)
	a.Stop()
	b := st.Start("contours")
	b.Stop()

	d := st.Durations()
	assert.Len(t, d, 2)
	assert.GreaterOrEqual(t, d["segment"], 2*time.Millisecond)
	assert.Equal(t, a.Duration()+b.Duration(), st.Total())
	assert.Regexp(t, `^segment=\S+ contours=\S+$`, st.String())
}
