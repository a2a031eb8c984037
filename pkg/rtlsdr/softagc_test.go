package rtlsdr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestAbs8(t *testing.T) {
	assert.Equal(t, 5, abs8(5))
	assert.Equal(t, 5, abs8(-5))
	assert.Equal(t, 0, abs8(0))
}

func TestAbs8IsAlwaysNonNegative(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		v := rapid.IntRange(-255, 255).Draw(rt, "v")
		assert.GreaterOrEqual(rt, abs8(v), 0)
	})
}

func TestSoftAGCFeedRequestsStepDownWhenOverLoud(t *testing.T) {
	a := NewSoftAGC(&Device{})
	a.state = softAGCOn

	buf := make([]byte, 1000)
	for i := range buf {
		buf[i] = 255 // |255-127| = 128, bin 15
	}
	a.Feed(buf)

	a.mu.Lock()
	defer a.mu.Unlock()
	assert.True(t, a.wantGain)
	assert.Equal(t, -1, a.pendingStep)
}

func TestSoftAGCFeedRequestsStepUpWhenQuiet(t *testing.T) {
	a := NewSoftAGC(&Device{})
	a.state = softAGCOn

	buf := make([]byte, 1000)
	for i := range buf {
		buf[i] = 127 // bin 0, well under every oversteer threshold
	}
	a.Feed(buf)

	a.mu.Lock()
	defer a.mu.Unlock()
	assert.True(t, a.wantGain)
	assert.Equal(t, 1, a.pendingStep)
}

func TestSoftAGCFeedIgnoredWhenOff(t *testing.T) {
	a := NewSoftAGC(&Device{})
	a.Feed(make([]byte, 100))

	a.mu.Lock()
	defer a.mu.Unlock()
	assert.False(t, a.wantGain)
}
