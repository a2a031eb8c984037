package rtlsdr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegIndexEncodesBlockAndDirection(t *testing.T) {
	assert.Equal(t, uint16(0x0000), regIndex(blockDemod, false))
	assert.Equal(t, uint16(0x0010), regIndex(blockDemod, true))
	assert.Equal(t, uint16(0x0600), regIndex(blockI2C, false))
	assert.Equal(t, uint16(0x0610), regIndex(blockI2C, true))
}

func TestGoroutineIDIsStable(t *testing.T) {
	a := goroutineID()
	b := goroutineID()
	assert.Equal(t, a, b)
	assert.NotZero(t, a)
}

func TestGoroutineIDDiffersAcrossGoroutines(t *testing.T) {
	mine := goroutineID()
	other := make(chan uint64, 1)
	go func() { other <- goroutineID() }()
	got := <-other
	assert.NotEqual(t, mine, got)
}

func TestLockI2CReentrantSameGoroutine(t *testing.T) {
	d := &Device{}
	d.lockI2C()
	d.lockI2C() // must not deadlock: same goroutine re-entering
	assert.Equal(t, 2, d.i2cDepth)
	d.unlockI2C()
	assert.Equal(t, 1, d.i2cDepth)
	d.unlockI2C()
	assert.Equal(t, 0, d.i2cDepth)
}
